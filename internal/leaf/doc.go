// Package leaf implements the innermost building block of a sparse
// vector tree: a single-dimension sparse slice stored as parallel
// position and value vectors.
package leaf
