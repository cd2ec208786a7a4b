package sparsego

import (
	"fmt"
	"time"

	"github.com/hupe1980/sparsego/internal/svt"
	"github.com/hupe1980/sparsego/kind"
)

// Array is an immutable sparse N-dimensional array backed by a sparse
// vector tree. Operations that change content return a new Array;
// unchanged sub-trees are shared between input and result, so deriving
// an array is cheap where the write batch is local.
//
// An Array is safe for concurrent reads. Calls that derive new arrays
// never mutate the receiver.
type Array struct {
	dim  []int32
	kind kind.Kind
	root svt.Node
	opts options
}

// New returns an empty array of the given dimensions and element kind.
func New(dim []int32, k kind.Kind, optFns ...Option) (*Array, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, k)
	}
	d, err := cloneDim(dim)
	if err != nil {
		return nil, err
	}
	return &Array{dim: d, kind: k, opts: applyOptions(optFns)}, nil
}

// NewFromCOO builds an array from coordinate-list form: a 1-based index
// matrix with one row per nonzero and one column per dimension, and the
// parallel nonzero-value vector. Rows must arrive in ascending
// column-major linear order. The array's element kind is the kind of
// data.
func NewFromCOO(dim []int32, idx *IndexMatrix, data kind.Buffer, optFns ...Option) (*Array, error) {
	d, err := cloneDim(dim)
	if err != nil {
		return nil, err
	}
	if idx.Rows() != data.Len() {
		return nil, fmt.Errorf("%w: %d index rows for %d values",
			ErrShapeMismatch, idx.Rows(), data.Len())
	}
	if idx.Cols() != len(d) {
		return nil, fmt.Errorf("%w: %d index columns for %d dimensions",
			ErrShapeMismatch, idx.Cols(), len(d))
	}
	a := &Array{dim: d, kind: data.Kind(), opts: applyOptions(optFns)}

	start := time.Now()
	root, err := svt.FromCOO(d, idx.Data(), data)
	err = translateError(err)
	a.opts.metrics.RecordBuild("coo", svt.NNZ(root, len(d)), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	a.root = root
	a.opts.logger.Debug("built array from COO", "dim", d, "nnz", a.NNZ())
	return a, nil
}

// NewFromCSC builds a 2-D array of nrow rows from compressed-sparse-
// column form.
func NewFromCSC(nrow int32, csc *CSC, optFns ...Option) (*Array, error) {
	if nrow < 0 {
		return nil, fmt.Errorf("%w: %d rows", ErrShapeMismatch, nrow)
	}
	if err := csc.validate(); err != nil {
		return nil, err
	}
	ncol := int32(len(csc.P) - 1)
	a := &Array{dim: []int32{nrow, ncol}, kind: csc.X.Kind(), opts: applyOptions(optFns)}

	start := time.Now()
	root, err := svt.FromCSC(nrow, csc.P, csc.I, csc.X)
	err = translateError(err)
	a.opts.metrics.RecordBuild("csc", svt.NNZ(root, 2), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	a.root = root
	return a, nil
}

// NewFromDense builds an array from a column-major dense buffer,
// suppressing zero values. With WithParallelism(n), the sub-trees of
// the outermost dimension are built with up to n goroutines.
func NewFromDense(dim []int32, data kind.Buffer, optFns ...Option) (*Array, error) {
	d, err := cloneDim(dim)
	if err != nil {
		return nil, err
	}
	total := int64(1)
	for _, di := range d {
		total *= int64(di)
	}
	if total != int64(data.Len()) {
		return nil, fmt.Errorf("%w: %d elements for dimensions %v",
			ErrShapeMismatch, data.Len(), d)
	}
	a := &Array{dim: d, kind: data.Kind(), opts: applyOptions(optFns)}

	start := time.Now()
	root, err := svt.FromDense(data, d, a.opts.parallelism)
	err = translateError(err)
	a.opts.metrics.RecordBuild("dense", svt.NNZ(root, len(d)), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	a.root = root
	return a, nil
}

// Dim returns a copy of the dimension vector, outer dimension last.
func (a *Array) Dim() []int32 {
	d := make([]int32, len(a.dim))
	copy(d, a.dim)
	return d
}

// Kind returns the element kind of the array.
func (a *Array) Kind() kind.Kind { return a.kind }

// NNZ returns the number of stored (structurally nonzero) entries.
func (a *Array) NNZ() int64 { return svt.NNZ(a.root, len(a.dim)) }

// Get returns the value at the given 1-based coordinates, or the kind's
// zero when the slot is structurally empty.
func (a *Array) Get(coords ...int32) (any, error) {
	if len(coords) != len(a.dim) {
		return nil, fmt.Errorf("%w: %d coordinates for %d dimensions",
			ErrShapeMismatch, len(coords), len(a.dim))
	}
	v, err := svt.Lookup(a.root, a.dim, a.kind, coords)
	return v, translateError(err)
}

// ToCOO materializes the array to coordinate-list form. Rows come out
// in ascending column-major linear order.
func (a *Array) ToCOO() (*IndexMatrix, kind.Buffer, error) {
	start := time.Now()
	m, data, err := svt.ToCOO(a.root, a.dim, a.kind)
	err = translateError(err)
	a.opts.metrics.RecordMaterialize("coo", time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	idx, err := IndexMatrixFromSlice(m, data.Len(), len(a.dim))
	if err != nil {
		return nil, nil, err
	}
	return idx, data, nil
}

// ToCSC materializes a 2-D array to compressed-sparse-column form.
func (a *Array) ToCSC() (*CSC, error) {
	if len(a.dim) != 2 {
		return nil, fmt.Errorf("%w: %d-dimensional array cannot convert to CSC",
			ErrShapeMismatch, len(a.dim))
	}
	start := time.Now()
	p, i, x, err := svt.ToCSC(a.root, a.dim, a.kind)
	err = translateError(err)
	a.opts.metrics.RecordMaterialize("csc", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &CSC{P: p, I: i, X: x}, nil
}

// ToDense materializes the array to a zero-initialized column-major
// dense buffer.
func (a *Array) ToDense() (kind.Buffer, error) {
	start := time.Now()
	data, err := svt.ToDense(a.root, a.dim, a.kind)
	err = translateError(err)
	a.opts.metrics.RecordMaterialize("dense", time.Since(start), err)
	return data, err
}

// SetMindex returns a new array equal to the receiver with the entries
// addressed by the 1-based multi-index matrix overwritten by vals. If
// an index repeats within the batch the last occurrence wins; zero
// values erase the addressed entry.
func (a *Array) SetMindex(idx *IndexMatrix, vals kind.Buffer) (*Array, error) {
	if vals.Kind() != a.kind {
		return nil, fmt.Errorf("%w: %s values for a %s array",
			ErrTypeMismatch, vals.Kind(), a.kind)
	}
	if idx.Rows() != vals.Len() {
		return nil, fmt.Errorf("%w: %d index rows for %d values",
			ErrShapeMismatch, idx.Rows(), vals.Len())
	}
	if idx.Cols() != len(a.dim) {
		return nil, fmt.Errorf("%w: %d index columns for %d dimensions",
			ErrShapeMismatch, idx.Cols(), len(a.dim))
	}
	if vals.Len() == 0 {
		return a.derive(a.root), nil
	}

	start := time.Now()
	root, stats, err := svt.SubassignByMindex(a.root, a.dim, idx.Data(), vals)
	err = translateError(err)
	a.opts.metrics.RecordSubassign(vals.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	a.opts.logger.Debug("subassigned by multi-index",
		"writes", vals.Len(), "maxSubsetLen", stats.MaxIDSLen)
	return a.derive(root), nil
}

// SetLindex returns a new array equal to the receiver with the entries
// addressed by the 1-based linear index vector (column-major layout)
// overwritten by vals. Semantics match SetMindex.
func (a *Array) SetLindex(lindex Lindex, vals kind.Buffer) (*Array, error) {
	if vals.Kind() != a.kind {
		return nil, fmt.Errorf("%w: %s values for a %s array",
			ErrTypeMismatch, vals.Kind(), a.kind)
	}
	if lindex.Len() != vals.Len() {
		return nil, fmt.Errorf("%w: %d indices for %d values",
			ErrShapeMismatch, lindex.Len(), vals.Len())
	}
	if vals.Len() == 0 {
		return a.derive(a.root), nil
	}

	start := time.Now()
	var (
		root  svt.Node
		stats svt.Stats
		err   error
	)
	switch lx := lindex.(type) {
	case Lindex32:
		root, stats, err = svt.SubassignByLindex32(a.root, a.dim, lx, vals)
	case Lindex64:
		root, stats, err = svt.SubassignByLindex64(a.root, a.dim, lx, vals)
	default:
		err = fmt.Errorf("%w: unsupported linear index type %T", ErrInvalidIndex, lindex)
	}
	err = translateError(err)
	a.opts.metrics.RecordSubassign(vals.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	a.opts.logger.Debug("subassigned by linear index",
		"writes", vals.Len(), "maxSubsetLen", stats.MaxIDSLen)
	return a.derive(root), nil
}

// derive wraps a result tree in a new Array carrying the receiver's
// shape, kind, and options.
func (a *Array) derive(root svt.Node) *Array {
	return &Array{dim: a.dim, kind: a.kind, root: root, opts: a.opts}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

func cloneDim(dim []int32) ([]int32, error) {
	if len(dim) == 0 {
		return nil, fmt.Errorf("%w: empty dimension vector", ErrShapeMismatch)
	}
	d := make([]int32, len(dim))
	for i, di := range dim {
		if di < 0 {
			return nil, fmt.Errorf("%w: negative dimension %d", ErrShapeMismatch, di)
		}
		d[i] = di
	}
	return d, nil
}
