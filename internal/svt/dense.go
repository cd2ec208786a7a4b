package svt

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/sparsego/internal/leaf"
	"github.com/hupe1980/sparsego/kind"
)

// FromDense builds a tree from a column-major dense buffer, suppressing
// zero values. par is the number of goroutines allowed to build
// sub-trees of the outermost dimension concurrently; 1 keeps the build
// fully sequential. The sub-trees are disjoint, so the concurrent build
// mutates no shared state.
func FromDense(data kind.Buffer, dim []int32, par int) (Node, error) {
	if data.Len() == 0 {
		return nil, nil
	}
	ndim := len(dim)
	if par > 1 && ndim >= 2 {
		d := int(dim[ndim-1])
		subLen := data.Len() / d
		kids := make([]Node, d)
		var g errgroup.Group
		g.SetLimit(par)
		for k := 0; k < d; k++ {
			g.Go(func() error {
				kid, err := fromDenseRec(data, k*subLen, subLen, dim, ndim-1)
				if err != nil {
					return err
				}
				kids[k] = kid
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, kid := range kids {
			if kid != nil {
				return &Branch{Kids: kids}, nil
			}
		}
		return nil, nil
	}
	return fromDenseRec(data, 0, data.Len(), dim, ndim)
}

func fromDenseRec(data kind.Buffer, off, subLen int, dim []int32, ndim int) (Node, error) {
	if ndim == 1 {
		return leafFromSubvec(data, off, int(dim[0]))
	}
	d := int(dim[ndim-1])
	subLen /= d
	br := &Branch{Kids: make([]Node, d)}
	empty := true
	for k := 0; k < d; k++ {
		kid, err := fromDenseRec(data, off, subLen, dim, ndim-1)
		if err != nil {
			return nil, err
		}
		if kid != nil {
			br.Kids[k] = kid
			empty = false
		}
		off += subLen
	}
	if empty {
		return nil, nil
	}
	return br, nil
}

// leafFromSubvec scans a contiguous subvector, counts its nonzeros, and
// builds a leaf of exactly that length; nil when the subvector is all
// zero.
func leafFromSubvec(data kind.Buffer, off, n int) (Node, error) {
	lvLen := 0
	for i := 0; i < n; i++ {
		if !data.IsZero(off + i) {
			lvLen++
		}
	}
	if lvLen == 0 {
		return nil, nil
	}
	pos := make([]int32, lvLen)
	vals, err := kind.Alloc(data.Kind(), lvLen)
	if err != nil {
		return nil, err
	}
	lvLen = 0
	for i := 0; i < n; i++ {
		if !data.IsZero(off + i) {
			pos[lvLen] = int32(i + 1)
			if err := kind.Copy(vals, lvLen, data, off+i); err != nil {
				return nil, err
			}
			lvLen++
		}
	}
	lf, err := leaf.New(pos, vals)
	if err != nil {
		return nil, err
	}
	return lf, nil
}

// ToDense materializes the tree to a zero-initialized column-major
// dense buffer.
func ToDense(n Node, dim []int32, k kind.Kind) (kind.Buffer, error) {
	total := int64(1)
	for _, d := range dim {
		if d != 0 && total > math.MaxInt/int64(d) {
			return nil, fmt.Errorf("%w: %v", ErrTooLarge, dim)
		}
		total *= int64(d)
	}
	data, err := kind.Alloc(k, int(total))
	if err != nil {
		return nil, err
	}
	if err := dumpDenseRec(n, data, 0, int(total), len(dim)); err != nil {
		return nil, err
	}
	return data, nil
}

func dumpDenseRec(n Node, data kind.Buffer, off, subLen, ndim int) error {
	if n == nil {
		return nil
	}
	if ndim == 1 {
		lf, ok := n.(*leaf.Leaf)
		if !ok {
			return fmt.Errorf("%w: unexpected bottom node", ErrInvariant)
		}
		for i, p := range lf.Positions() {
			if err := kind.Copy(data, off+int(p)-1, lf.Values(), i); err != nil {
				return err
			}
		}
		return nil
	}
	br, ok := n.(*Branch)
	if !ok {
		return fmt.Errorf("%w: unexpected interior node", ErrInvariant)
	}
	subLen /= len(br.Kids)
	for _, kid := range br.Kids {
		if err := dumpDenseRec(kid, data, off, subLen, ndim-1); err != nil {
			return err
		}
		off += subLen
	}
	return nil
}
