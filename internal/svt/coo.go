package svt

import (
	"fmt"

	"github.com/hupe1980/sparsego/internal/conv"
	"github.com/hupe1980/sparsego/internal/leaf"
	"github.com/hupe1980/sparsego/kind"
)

// FromCOO builds a tree from coordinate-list form: m is a column-major
// (nnz, ndim) matrix of 1-based coordinates and data the parallel
// nonzero-value vector. The rows are required to arrive in ascending
// column-major linear order, so pass 2 can emit leaf positions sorted
// by plain appending; this ordering is an input contract and is not
// verified. The build is the classic two passes: grow the branches and
// size the leaves, then allocate and fill them.
func FromCOO(dim []int32, m []int32, data kind.Buffer) (Node, error) {
	ndim := len(dim)
	nnz := data.Len()
	if nnz == 0 {
		return nil, nil
	}

	if ndim == 1 {
		return leafFromCOO(m, data, dim[0])
	}

	d := dim[ndim-1]

	// Pass 1: grow the branches of the tree but don't add any leaves,
	// only compute their lengths. For ndim == 2 the scaffold is a flat
	// count vector.
	var root Node
	if ndim == 2 {
		root = counts(make([]int32, d))
	} else {
		root = newBranch(d)
	}
	for row := 0; row < nnz; row++ {
		if err := grow(root, dim, ndim, m, nnz, row); err != nil {
			return nil, err
		}
	}

	// Pass 2: add the leaves to the tree.
	if ndim == 2 {
		br, err := allocAppendables(root.(counts), data.Kind())
		if err != nil {
			return nil, err
		}
		root = br
	}
	for row := 0; row < nnz; row++ {
		if err := store(root, ndim, m, nnz, row, data); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// leafFromCOO is the one-dimensional fast path.
func leafFromCOO(m []int32, data kind.Buffer, d0 int32) (Node, error) {
	nnz := data.Len()
	pos := make([]int32, nnz)
	for row := 0; row < nnz; row++ {
		p := m[row]
		if p < 1 || p > d0 {
			return nil, fmt.Errorf("%w: coordinate %d outside [1, %d]",
				ErrIndexOutOfBounds, p, d0)
		}
		pos[row] = p
	}
	vals, err := kind.Alloc(data.Kind(), nnz)
	if err != nil {
		return nil, err
	}
	if err := kind.CopyRun(vals, 0, data, 0, nnz); err != nil {
		return nil, err
	}
	lf, err := leaf.New(pos, vals)
	if err != nil {
		return nil, err
	}
	return lf, nil
}

// grow follows / creates the interior nodes addressed by one COO row,
// from the outermost dimension down to the penultimate level, and
// increments the count of the row's destination leaf.
func grow(root Node, dim []int32, ndim int, m []int32, nnz, row int) error {
	p0 := m[row]
	if p0 < 1 || p0 > dim[0] {
		return fmt.Errorf("%w: coordinate %d outside [1, %d]",
			ErrIndexOutOfBounds, p0, dim[0])
	}

	n := root
	if ndim >= 3 {
		br := n.(*Branch)
		var k int
		for j := ndim - 2; j >= 1; j-- {
			c := m[row+(j+1)*nnz]
			k = int(c) - 1
			if k < 0 || k >= len(br.Kids) {
				return fmt.Errorf("%w: coordinate %d outside [1, %d]",
					ErrIndexOutOfBounds, c, len(br.Kids))
			}
			if j == 1 {
				break
			}
			sub, ok := br.Kids[k].(*Branch)
			if !ok {
				if br.Kids[k] != nil {
					return fmt.Errorf("%w: unexpected node while growing", ErrInvariant)
				}
				sub = newBranch(dim[j])
				br.Kids[k] = sub
			}
			br = sub
		}
		cs, ok := br.Kids[k].(counts)
		if !ok {
			if br.Kids[k] != nil {
				return fmt.Errorf("%w: unexpected node while growing", ErrInvariant)
			}
			cs = counts(make([]int32, dim[1]))
			br.Kids[k] = cs
		}
		n = cs
	}

	cs := n.(counts)
	c := m[row+nnz]
	k := int(c) - 1
	if k < 0 || k >= len(cs) {
		return fmt.Errorf("%w: coordinate %d outside [1, %d]",
			ErrIndexOutOfBounds, c, len(cs))
	}
	cs[k]++
	return nil
}

// allocAppendables turns a count scaffold into a branch of appendable
// leaves, each pre-sized to its final length. Zero counts stay empty.
func allocAppendables(cs counts, k kind.Kind) (*Branch, error) {
	br := &Branch{Kids: make([]Node, len(cs))}
	for i, c := range cs {
		if c == 0 {
			continue
		}
		alv, err := leaf.NewAppendable(int(c), k)
		if err != nil {
			return nil, err
		}
		br.Kids[i] = alv
	}
	return br, nil
}

// store appends one COO row's (position, value) pair into its
// destination leaf, replacing the count scaffold with appendable leaves
// on first visit and finalizing each leaf when its last entry arrives.
func store(root Node, ndim int, m []int32, nnz, row int, data kind.Buffer) error {
	br := root.(*Branch)
	if ndim >= 3 {
		var k int
		for j := ndim - 2; j >= 1; j-- {
			k = int(m[row+(j+1)*nnz]) - 1
			if j == 1 {
				break
			}
			br = br.Kids[k].(*Branch)
		}
		if cs, ok := br.Kids[k].(counts); ok {
			sub, err := allocAppendables(cs, data.Kind())
			if err != nil {
				return err
			}
			br.Kids[k] = sub
			br = sub
		} else {
			br = br.Kids[k].(*Branch)
		}
	}

	k := int(m[row+nnz]) - 1
	alv, ok := br.Kids[k].(*leaf.Appendable)
	if !ok {
		return fmt.Errorf("%w: unexpected node while filling", ErrInvariant)
	}
	full, err := alv.Append(m[row], data, row)
	if err != nil {
		return err
	}
	if full {
		lf, err := alv.Finalize()
		if err != nil {
			return err
		}
		br.Kids[k] = lf
	}
	return nil
}

// ToCOO materializes the tree to coordinate-list form. The returned
// index matrix is column-major (nnz, ndim) and rows come out in
// ascending column-major linear order.
func ToCOO(n Node, dim []int32, k kind.Kind) ([]int32, kind.Buffer, error) {
	ndim := len(dim)
	total := NNZ(n, ndim)
	n32, err := conv.Int64ToInt32(total)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %d entries", ErrTooManyNonzeros, total)
	}
	nnz := int(n32)
	m := make([]int32, nnz*ndim)
	data, err := kind.Alloc(k, nnz)
	if err != nil {
		return nil, nil, err
	}
	rowbuf := make([]int32, ndim)
	off := 0
	if err := extractCOO(n, m, nnz, ndim, data, &off, rowbuf, ndim-1); err != nil {
		return nil, nil, err
	}
	if off != nnz {
		return nil, nil, fmt.Errorf("%w: emitted %d of %d rows", ErrInvariant, off, nnz)
	}
	return m, data, nil
}

func extractCOO(n Node, m []int32, nnz, ndim int, data kind.Buffer,
	off *int, rowbuf []int32, bufOff int) error {
	if n == nil {
		return nil
	}
	if bufOff > 0 {
		br, ok := n.(*Branch)
		if !ok {
			return fmt.Errorf("%w: unexpected interior node", ErrInvariant)
		}
		for k, kid := range br.Kids {
			rowbuf[bufOff] = int32(k + 1)
			if err := extractCOO(kid, m, nnz, ndim, data, off, rowbuf, bufOff-1); err != nil {
				return err
			}
		}
		return nil
	}

	lf, ok := n.(*leaf.Leaf)
	if !ok {
		return fmt.Errorf("%w: unexpected bottom node", ErrInvariant)
	}
	if err := kind.CopyRun(data, *off, lf.Values(), 0, lf.Len()); err != nil {
		return err
	}
	for _, p := range lf.Positions() {
		rowbuf[0] = p
		for j := 0; j < ndim; j++ {
			m[*off+j*nnz] = rowbuf[j]
		}
		*off++
	}
	return nil
}
