package sparsego

import (
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/sparsego/internal/conv"
	"github.com/hupe1980/sparsego/internal/leaf"
	"github.com/hupe1980/sparsego/internal/svt"
)

// NonzeroMask materializes the structural-nonzero set of the array as a
// Roaring bitmap of 1-based column-major linear indices. The tree walk
// visits linear indices in ascending order, which is the fast append
// path for the bitmap.
func (a *Array) NonzeroMask() (*roaring64.Bitmap, error) {
	start := time.Now()
	mask := roaring64.New()
	err := translateError(maskRec(a.root, len(a.dim), 0, volume(a.dim), mask))
	a.opts.metrics.RecordMaterialize("mask", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return mask, nil
}

func volume(dim []int32) int64 {
	total := int64(1)
	for _, d := range dim {
		total *= int64(d)
	}
	return total
}

func maskRec(n svt.Node, ndim int, base, subLen int64, mask *roaring64.Bitmap) error {
	if n == nil {
		return nil
	}
	if ndim == 1 {
		lf, ok := n.(*leaf.Leaf)
		if !ok {
			return fmt.Errorf("%w: unexpected bottom node", svt.ErrInvariant)
		}
		for _, p := range lf.Positions() {
			linear, err := conv.Int64ToUint64(base + int64(p))
			if err != nil {
				return fmt.Errorf("%w: %v", svt.ErrInvariant, err)
			}
			mask.Add(linear)
		}
		return nil
	}
	br, ok := n.(*svt.Branch)
	if !ok {
		return fmt.Errorf("%w: unexpected interior node", svt.ErrInvariant)
	}
	subLen /= int64(len(br.Kids))
	for _, kid := range br.Kids {
		if err := maskRec(kid, ndim-1, base, subLen, mask); err != nil {
			return err
		}
		base += subLen
	}
	return nil
}
