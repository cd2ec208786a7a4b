package svt

import (
	"fmt"

	"github.com/hupe1980/sparsego/internal/conv"
	"github.com/hupe1980/sparsego/internal/leaf"
	"github.com/hupe1980/sparsego/kind"
)

// FromCSC builds a 2-D tree from compressed-sparse-column form: p is
// the column pointer vector (len ncol+1), rowIdx the 0-based row
// indices (strictly ascending within each column), and x the parallel
// value vector. Shape consistency of the three vectors is the caller's
// concern; row indices are range-checked here.
func FromCSC(nrow int32, p, rowIdx []int32, x kind.Buffer) (Node, error) {
	ncol := len(p) - 1
	if p[ncol] == 0 {
		return nil, nil
	}
	br := &Branch{Kids: make([]Node, ncol)}
	for j := 0; j < ncol; j++ {
		off := int(p[j])
		lvLen := int(p[j+1]) - off
		if lvLen == 0 {
			continue
		}
		pos := make([]int32, lvLen)
		for k := 0; k < lvLen; k++ {
			ri := rowIdx[off+k]
			if ri < 0 || ri >= nrow {
				return nil, fmt.Errorf("%w: row index %d outside [0, %d)",
					ErrIndexOutOfBounds, ri, nrow)
			}
			pos[k] = ri + 1
		}
		vals, err := kind.Alloc(x.Kind(), lvLen)
		if err != nil {
			return nil, err
		}
		if err := kind.CopyRun(vals, 0, x, off, lvLen); err != nil {
			return nil, err
		}
		lf, err := leaf.New(pos, vals)
		if err != nil {
			return nil, err
		}
		br.Kids[j] = lf
	}
	return br, nil
}

// ToCSC materializes a 2-D tree to compressed-sparse-column form.
func ToCSC(n Node, dim []int32, k kind.Kind) (p, rowIdx []int32, x kind.Buffer, err error) {
	ncol := int(dim[1])
	total := NNZ(n, 2)
	n32, err := conv.Int64ToInt32(total)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %d entries", ErrTooManyNonzeros, total)
	}
	nnz := int(n32)

	p = make([]int32, ncol+1)
	rowIdx = make([]int32, nnz)
	x, err = kind.Alloc(k, nnz)
	if err != nil {
		return nil, nil, nil, err
	}
	if nnz == 0 {
		return p, rowIdx, x, nil
	}

	br, ok := n.(*Branch)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: unexpected root node", ErrInvariant)
	}
	off := 0
	for j := 0; j < ncol; j++ {
		if kid := br.Kids[j]; kid != nil {
			lf, ok := kid.(*leaf.Leaf)
			if !ok {
				return nil, nil, nil, fmt.Errorf("%w: unexpected column node", ErrInvariant)
			}
			if err := kind.CopyRun(x, off, lf.Values(), 0, lf.Len()); err != nil {
				return nil, nil, nil, err
			}
			for _, pos := range lf.Positions() {
				rowIdx[off] = pos - 1
				off++
			}
		}
		p[j+1] = int32(off)
	}
	return p, rowIdx, x, nil
}
