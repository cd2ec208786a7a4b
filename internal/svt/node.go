package svt

import (
	"fmt"
	"sort"

	"github.com/hupe1980/sparsego/internal/leaf"
	"github.com/hupe1980/sparsego/kind"
)

// Node is one slot of a sparse vector tree. A slot is one of:
//
//   - nil: the empty sub-tree (no nonzero element below it)
//   - *Branch: an interior node, one slot per index of its dimension
//   - *leaf.Leaf: a bottom leaf (innermost level only)
//
// plus the transient variants that exist only inside a single engine
// operation: counts (pass 1 of the COO build), *ids32 / *ids64, and
// *extended (pass 1 of subassignment).
type Node any

// Branch is an interior node: a fixed-length ordered sequence of child
// nodes, one per index of the dimension it spans.
type Branch struct {
	Kids []Node
}

func newBranch(d int32) *Branch {
	return &Branch{Kids: make([]Node, d)}
}

// counts is the pass-1 scaffold of the COO build: per-leaf entry counts
// at the penultimate level, replaced by appendable leaves in pass 2.
type counts []int32

// NNZ returns the number of stored entries below n as a 64-bit count.
func NNZ(n Node, ndim int) int64 {
	if n == nil {
		return 0
	}
	if ndim == 1 {
		if lf, ok := n.(*leaf.Leaf); ok {
			return int64(lf.Len())
		}
		return 0
	}
	br, ok := n.(*Branch)
	if !ok {
		return 0
	}
	var total int64
	for _, kid := range br.Kids {
		total += NNZ(kid, ndim-1)
	}
	return total
}

// Descend follows a multi-index path from the outermost dimension
// inward and returns the addressed bottom leaf, or nil when the
// sub-tree is empty. path holds 1-based indices for dimensions
// ndim-1 down to 1.
func Descend(n Node, dim []int32, path []int32) (*leaf.Leaf, error) {
	ndim := len(dim)
	if len(path) != ndim-1 {
		return nil, fmt.Errorf("%w: path of %d for %d dimensions",
			ErrInvariant, len(path), ndim)
	}
	for along := ndim - 1; along >= 1; along-- {
		c := path[ndim-1-along]
		if c < 1 || c > dim[along] {
			return nil, fmt.Errorf("%w: index %d along dimension %d",
				ErrIndexOutOfBounds, c, along)
		}
		if n == nil {
			return nil, nil
		}
		br, ok := n.(*Branch)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected node at depth %d",
				ErrInvariant, ndim-1-along)
		}
		n = br.Kids[c-1]
	}
	if n == nil {
		return nil, nil
	}
	lf, ok := n.(*leaf.Leaf)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected bottom node", ErrInvariant)
	}
	return lf, nil
}

// Lookup returns the value stored at the given 1-based coordinates, or
// the kind's zero when the slot is structurally empty.
func Lookup(n Node, dim []int32, k kind.Kind, coords []int32) (any, error) {
	pos := coords[0]
	if pos < 1 || pos > dim[0] {
		return nil, fmt.Errorf("%w: index %d along dimension 0",
			ErrIndexOutOfBounds, pos)
	}
	lf, err := Descend(n, dim, reversePath(coords))
	if err != nil {
		return nil, err
	}
	if lf == nil {
		return k.Zero(), nil
	}
	ps := lf.Positions()
	i := sort.Search(len(ps), func(i int) bool { return ps[i] >= pos })
	if i < len(ps) && ps[i] == pos {
		return lf.Values().Get(i), nil
	}
	return k.Zero(), nil
}

// reversePath turns 1-based coordinates (innermost first) into the
// outermost-first path Descend expects.
func reversePath(coords []int32) []int32 {
	path := make([]int32, len(coords)-1)
	for j := range path {
		path[j] = coords[len(coords)-1-j]
	}
	return path
}

// Validate walks the whole tree and checks the structural invariants:
// leaves only at the innermost level with strictly ascending in-range
// positions, no stored zero values, matching element kind, and no
// empty-but-present sub-tree. It is meant for tests and debugging.
func Validate(n Node, dim []int32, k kind.Kind) error {
	_, err := validateRec(n, dim, len(dim), k)
	return err
}

func validateRec(n Node, dim []int32, ndim int, k kind.Kind) (int64, error) {
	if n == nil {
		return 0, nil
	}
	if ndim == 1 {
		lf, ok := n.(*leaf.Leaf)
		if !ok {
			return 0, fmt.Errorf("%w: unexpected bottom node %T", ErrInvariant, n)
		}
		if lf.Kind() != k {
			return 0, fmt.Errorf("%w: leaf kind %s, want %s", ErrInvariant, lf.Kind(), k)
		}
		ps := lf.Positions()
		for i, p := range ps {
			if p < 1 || p > dim[0] {
				return 0, fmt.Errorf("%w: position %d outside [1, %d]",
					ErrInvariant, p, dim[0])
			}
			if i > 0 && ps[i-1] >= p {
				return 0, fmt.Errorf("%w: positions not strictly ascending", ErrInvariant)
			}
			if lf.Values().IsZero(i) {
				return 0, fmt.Errorf("%w: stored zero at position %d", ErrInvariant, p)
			}
		}
		return int64(lf.Len()), nil
	}
	br, ok := n.(*Branch)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected interior node %T", ErrInvariant, n)
	}
	if len(br.Kids) != int(dim[ndim-1]) {
		return 0, fmt.Errorf("%w: %d children for dimension of %d",
			ErrInvariant, len(br.Kids), dim[ndim-1])
	}
	var total int64
	for _, kid := range br.Kids {
		nnz, err := validateRec(kid, dim, ndim-1, k)
		if err != nil {
			return 0, err
		}
		total += nnz
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: empty-but-present sub-tree", ErrInvariant)
	}
	return total, nil
}
