// Package sparsego provides a sparse N-dimensional array engine for Go.
//
// An array whose vast majority of elements equal the element kind's zero
// value is represented by a Sparse Vector Tree (SVT): a tree of depth
// N-1 whose leaves hold contiguous (position, value) pairs for a single
// 1-D slice. Empty sub-trees are never materialized, so storage scales
// with the number of nonzeros, not with the array volume.
//
// # Quick Start
//
// Build an array from coordinate-list (COO) form and read it back:
//
//	idx, _ := sparsego.NewIndexMatrix(3, 2)   // 3 nonzeros, 2 dimensions
//	// ... fill idx rows (1-based, ascending column-major order) ...
//	a, err := sparsego.NewFromCOO([]int32{3, 2}, idx, kind.Int32s([]int32{5, 6, 7}))
//	if err != nil {
//	    panic(err)
//	}
//	dense, _ := a.ToDense()
//
// # Scattered Subassignment
//
// Writing a batch of (index, value) pairs produces a new array; the
// input array is never mutated and unchanged sub-trees are shared:
//
//	b, err := a.SetLindex(sparsego.Lindex32{2, 4, 4}, kind.Int32s([]int32{9, 0, 8}))
//
// Within one batch the last write to an index wins, and zero values
// erase the addressed entry. The sparse invariants hold on every array
// an operation returns: leaf positions are strictly ascending, no
// stored value is zero, and no empty sub-tree is retained.
//
// # Representations
//
// Arrays convert to and from COO, 2-D compressed-sparse-column (CSC),
// and column-major dense form without ever materializing the dense form
// internally, and the structural-nonzero set can be materialized as a
// Roaring bitmap over linear indices.
//
// # Element Kinds
//
// All values of an array share one element kind; see package kind for
// the closed set of supported kinds and their zero values.
package sparsego
