// Package svt implements the sparse vector tree: the recursive
// branching structure that maps index tuples to leaves, the converters
// between the tree and the COO, CSC, and dense representations, and the
// scattered subassignment engine.
//
// A tree for dimensions (d_0, ..., d_{N-1}) has depth N-1. Interior
// levels are fixed-length ordered sequences of child nodes; leaves live
// only at the innermost level and hold the sparse data for a single
// 1-D slice. A sub-tree is empty (nil) exactly when it holds no nonzero
// element.
package svt
