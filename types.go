package sparsego

import (
	"fmt"
	"math"

	"github.com/hupe1980/sparsego/kind"
)

// IndexMatrix is a column-major matrix of 1-based coordinates with one
// row per entry and one column per dimension. It is the index part of
// the COO form and the multi-index form of subassignment.
type IndexMatrix struct {
	data []int32
	rows int
	cols int
}

// NewIndexMatrix allocates a zeroed rows x cols index matrix.
func NewIndexMatrix(rows, cols int) (*IndexMatrix, error) {
	if rows < 0 || cols < 1 || rows > math.MaxInt32 {
		return nil, fmt.Errorf("%w: index matrix of %d x %d", ErrShapeMismatch, rows, cols)
	}
	return &IndexMatrix{data: make([]int32, rows*cols), rows: rows, cols: cols}, nil
}

// IndexMatrixFromSlice wraps a column-major backing slice as a rows x
// cols index matrix. The matrix takes ownership of data.
func IndexMatrixFromSlice(data []int32, rows, cols int) (*IndexMatrix, error) {
	if rows < 0 || cols < 1 || rows > math.MaxInt32 || len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d elements for a %d x %d index matrix",
			ErrShapeMismatch, len(data), rows, cols)
	}
	return &IndexMatrix{data: data, rows: rows, cols: cols}, nil
}

// Rows returns the number of rows (entries).
func (m *IndexMatrix) Rows() int { return m.rows }

// Cols returns the number of columns (dimensions).
func (m *IndexMatrix) Cols() int { return m.cols }

// At returns the coordinate at row i, column j.
func (m *IndexMatrix) At(i, j int) int32 { return m.data[i+j*m.rows] }

// Set stores a coordinate at row i, column j.
func (m *IndexMatrix) Set(i, j int, v int32) { m.data[i+j*m.rows] = v }

// SetRow stores a full coordinate tuple at row i.
func (m *IndexMatrix) SetRow(i int, coords ...int32) error {
	if len(coords) != m.cols {
		return fmt.Errorf("%w: %d coordinates for %d columns",
			ErrShapeMismatch, len(coords), m.cols)
	}
	for j, c := range coords {
		m.data[i+j*m.rows] = c
	}
	return nil
}

// Data returns the column-major backing slice. Callers must not resize
// it.
func (m *IndexMatrix) Data() []int32 { return m.data }

// CSC is the 2-D compressed-sparse-column form: P is the column pointer
// vector (length ncols+1, monotone, P[0] == 0), I the 0-based row
// indices (strictly ascending within each column), and X the parallel
// value vector.
type CSC struct {
	P []int32
	I []int32
	X kind.Buffer
}

// validate checks the column pointer vector (P[0] == 0, monotone) and
// that I and X hold P[ncols] entries. The ordering of row indices
// within a column is not checked.
func (c *CSC) validate() error {
	ncol := len(c.P) - 1
	if ncol < 0 || c.P[0] != 0 {
		return fmt.Errorf("%w: invalid column pointer vector", ErrShapeMismatch)
	}
	for j := 0; j < ncol; j++ {
		if c.P[j+1] < c.P[j] {
			return fmt.Errorf("%w: column pointers not monotone", ErrShapeMismatch)
		}
	}
	nnz := int(c.P[ncol])
	if len(c.I) != nnz || c.X.Len() != nnz {
		return fmt.Errorf("%w: %d pointers, %d row indices, %d values",
			ErrShapeMismatch, nnz, len(c.I), c.X.Len())
	}
	return nil
}

// Lindex is a 1-based linear index vector over the column-major layout
// of an array. Lindex32 carries 32-bit integer entries; Lindex64
// carries float64 entries with integer values, so the addressable range
// is not capped at 32 bits.
type Lindex interface {
	// Len returns the number of index entries.
	Len() int
}

// Lindex32 is the 32-bit integer linear index form.
type Lindex32 []int32

// Len implements Lindex.
func (l Lindex32) Len() int { return len(l) }

// Lindex64 is the 64-bit floating linear index form. Entries must be
// integer-valued and >= 1.
type Lindex64 []float64

// Len implements Lindex.
func (l Lindex64) Len() int { return len(l) }
