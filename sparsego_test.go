package sparsego

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sparsego/internal/svt"
	"github.com/hupe1980/sparsego/kind"
)

func indexMatrix(t *testing.T, rows [][]int32) *IndexMatrix {
	t.Helper()
	require.NotEmpty(t, rows)
	m, err := NewIndexMatrix(len(rows), len(rows[0]))
	require.NoError(t, err)
	for i, row := range rows {
		require.NoError(t, m.SetRow(i, row...))
	}
	return m
}

func int32Dense(t *testing.T, a *Array) []int32 {
	t.Helper()
	dense, err := a.ToDense()
	require.NoError(t, err)
	return dense.Data().([]int32)
}

// newTestArray builds the 3x2 integer array of the documentation
// examples: dense [5 0; 0 7; 6 0] in row notation.
func newTestArray(t *testing.T) *Array {
	t.Helper()
	a, err := NewFromCOO([]int32{3, 2},
		indexMatrix(t, [][]int32{{1, 1}, {3, 1}, {2, 2}}),
		kind.Int32s([]int32{5, 6, 7}))
	require.NoError(t, err)
	return a
}

func validate(t *testing.T, a *Array) {
	t.Helper()
	require.NoError(t, svt.Validate(a.root, a.dim, a.kind))
}

func TestNewEmptyArray(t *testing.T) {
	a, err := New([]int32{4, 5, 6}, kind.Float64)
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.NNZ())
	assert.Equal(t, []int32{4, 5, 6}, a.Dim())
	assert.Equal(t, kind.Float64, a.Kind())

	dense, err := a.ToDense()
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 120), dense.Data())
}

func TestNewRejectsInvalidInput(t *testing.T) {
	_, err := New([]int32{2, 2}, kind.Kind(42))
	require.ErrorIs(t, err, ErrUnsupportedKind)

	_, err = New(nil, kind.Int32)
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = New([]int32{2, -1}, kind.Int32)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCOOToDense(t *testing.T) {
	a := newTestArray(t)
	validate(t, a)
	assert.Equal(t, int64(3), a.NNZ())
	// Column-major: column 1 is (5, 0, 6), column 2 is (0, 7, 0).
	assert.Equal(t, []int32{5, 0, 6, 0, 7, 0}, int32Dense(t, a))
}

func TestToCSC(t *testing.T) {
	a := newTestArray(t)
	csc, err := a.ToCSC()
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 2, 3}, csc.P)
	assert.Equal(t, []int32{0, 2, 1}, csc.I)
	assert.Equal(t, []int32{5, 6, 7}, csc.X.Data())
}

func TestToCSCRequiresTwoDimensions(t *testing.T) {
	a, err := New([]int32{2, 2, 2}, kind.Int32)
	require.NoError(t, err)
	_, err = a.ToCSC()
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSetLindexLastWriteWins(t *testing.T) {
	a := newTestArray(t)

	b, err := a.SetLindex(Lindex32{2, 4, 4}, kind.Int32s([]int32{9, 0, 8}))
	require.NoError(t, err)
	validate(t, b)

	// Linear 2 = (2,1) takes 9. Linear 4 = (1,2) takes 0, then 8:
	// the last write wins and overrides the erase.
	assert.Equal(t, []int32{5, 9, 6, 8, 7, 0}, int32Dense(t, b))
	// The receiver is unchanged.
	assert.Equal(t, []int32{5, 0, 6, 0, 7, 0}, int32Dense(t, a))
}

func TestSetLindexZeroErase(t *testing.T) {
	dense, err := NewFromDense([]int32{1, 3}, kind.Int32s([]int32{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, int64(3), dense.NNZ())

	b, err := dense.SetLindex(Lindex32{2}, kind.Int32s([]int32{0}))
	require.NoError(t, err)
	validate(t, b)
	assert.Equal(t, []int32{1, 0, 3}, int32Dense(t, b))
	assert.Equal(t, int64(2), b.NNZ(), "the erased entry is stored nowhere")
}

func TestSetLindex1DZeroErase(t *testing.T) {
	a, err := NewFromDense([]int32{3}, kind.Int32s([]int32{1, 2, 3}))
	require.NoError(t, err)

	b, err := a.SetLindex(Lindex32{2}, kind.Int32s([]int32{0}))
	require.NoError(t, err)
	validate(t, b)
	assert.Equal(t, []int32{1, 0, 3}, int32Dense(t, b))
	assert.Equal(t, int64(2), b.NNZ())
}

func TestSetMindexOutOfBounds(t *testing.T) {
	a, err := New([]int32{2, 2}, kind.Int32)
	require.NoError(t, err)

	_, err = a.SetMindex(indexMatrix(t, [][]int32{{3, 1}}), kind.Int32s([]int32{1}))
	require.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestDenseRoundTrip3D(t *testing.T) {
	dim := []int32{2, 3, 2}
	buf := make([]float64, 12)
	buf[0], buf[7], buf[11] = -1, 2, 3 // linear positions 1, 8, 12

	a, err := NewFromDense(dim, kind.Float64s(buf))
	require.NoError(t, err)
	validate(t, a)
	assert.Equal(t, int64(3), a.NNZ())

	out, err := a.ToDense()
	require.NoError(t, err)
	assert.Equal(t, buf, out.Data())
}

func TestSubassignNoOp(t *testing.T) {
	a := newTestArray(t)

	b, err := a.SetLindex(Lindex32{}, kind.Int32s(nil))
	require.NoError(t, err)
	assert.Equal(t, int32Dense(t, a), int32Dense(t, b))

	idx, err := NewIndexMatrix(0, 2)
	require.NoError(t, err)
	c, err := a.SetMindex(idx, kind.Int32s(nil))
	require.NoError(t, err)
	assert.Equal(t, int32Dense(t, a), int32Dense(t, c))
}

func TestSubassignIdempotent(t *testing.T) {
	a := newTestArray(t)
	idx := Lindex32{1, 4, 5}
	vals := kind.Int32s([]int32{11, 0, 44})

	once, err := a.SetLindex(idx, vals)
	require.NoError(t, err)
	twice, err := once.SetLindex(idx, vals)
	require.NoError(t, err)

	validate(t, twice)
	assert.Equal(t, int32Dense(t, once), int32Dense(t, twice))
}

func TestSubassignZeroOnZeroKeepsDense(t *testing.T) {
	a := newTestArray(t)

	// Positions 2 and 6 are structural zeros; writing zeros there
	// must produce an array with the original dense form.
	b, err := a.SetLindex(Lindex32{2, 6}, kind.Int32s([]int32{0, 0}))
	require.NoError(t, err)
	validate(t, b)
	assert.Equal(t, int32Dense(t, a), int32Dense(t, b))
	assert.Equal(t, a.NNZ(), b.NNZ())
}

func TestSubassignTypeMismatch(t *testing.T) {
	a := newTestArray(t)
	_, err := a.SetLindex(Lindex32{1}, kind.Float64s([]float64{1}))
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestSubassignShapeMismatch(t *testing.T) {
	a := newTestArray(t)

	_, err := a.SetLindex(Lindex32{1, 2}, kind.Int32s([]int32{1}))
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = a.SetMindex(indexMatrix(t, [][]int32{{1, 1, 1}}), kind.Int32s([]int32{1}))
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSetLindexInvalidIndices(t *testing.T) {
	a := newTestArray(t)
	vals := kind.Int32s([]int32{1})

	for name, lidx := range map[string]Lindex{
		"int zero":       Lindex32{0},
		"int negative":   Lindex32{-2},
		"float nan":      Lindex64{math.NaN()},
		"float fraction": Lindex64{1.5},
		"float negative": Lindex64{-1},
	} {
		_, err := a.SetLindex(lidx, vals)
		require.ErrorIs(t, err, ErrInvalidIndex, name)
	}

	_, err := a.SetLindex(Lindex32{7}, vals)
	require.ErrorIs(t, err, ErrIndexOutOfBounds)
	_, err = a.SetLindex(Lindex64{7}, vals)
	require.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestSetLindex64LargeArray(t *testing.T) {
	// The float form addresses past the 32-bit range.
	a, err := New([]int32{1 << 20, 1 << 16}, kind.Float64)
	require.NoError(t, err)

	lidx := float64(int64(1<<20)*int64(1<<16) - 1)
	b, err := a.SetLindex(Lindex64{lidx}, kind.Float64s([]float64{3.25}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.NNZ())

	coords := []int32{(1 << 20) - 1, 1 << 16} // last-but-one row, last column
	v, err := b.Get(coords...)
	require.NoError(t, err)
	assert.Equal(t, 3.25, v)
}

func TestZeroVolumeSubassign(t *testing.T) {
	a, err := New([]int32{0, 4}, kind.Int32)
	require.NoError(t, err)

	// A nonzero batch into a zero-volume array is out of bounds...
	_, err = a.SetLindex(Lindex32{1}, kind.Int32s([]int32{1}))
	require.ErrorIs(t, err, ErrIndexOutOfBounds)

	// ...but the empty batch stays a no-op.
	b, err := a.SetLindex(Lindex32{}, kind.Int32s(nil))
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.NNZ())
}

func TestGet(t *testing.T) {
	a := newTestArray(t)

	v, err := a.Get(3, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(6), v)

	v, err = a.Get(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(0), v)

	_, err = a.Get(1)
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = a.Get(0, 1)
	require.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestNewFromCSC(t *testing.T) {
	a, err := NewFromCSC(3, &CSC{
		P: []int32{0, 2, 3},
		I: []int32{0, 2, 1},
		X: kind.Int32s([]int32{5, 6, 7}),
	})
	require.NoError(t, err)
	validate(t, a)
	assert.Equal(t, []int32{5, 0, 6, 0, 7, 0}, int32Dense(t, a))
}

func TestNewFromCSCRejectsBadShapes(t *testing.T) {
	_, err := NewFromCSC(3, &CSC{
		P: []int32{1, 2},
		I: []int32{0},
		X: kind.Int32s([]int32{5}),
	})
	require.ErrorIs(t, err, ErrShapeMismatch, "P[0] != 0")

	_, err = NewFromCSC(3, &CSC{
		P: []int32{0, 2, 1},
		I: []int32{0},
		X: kind.Int32s([]int32{5}),
	})
	require.ErrorIs(t, err, ErrShapeMismatch, "non-monotone pointers")

	_, err = NewFromCSC(3, &CSC{
		P: []int32{0, 1},
		I: []int32{0, 1},
		X: kind.Int32s([]int32{5}),
	})
	require.ErrorIs(t, err, ErrShapeMismatch, "row index count off")
}

func TestNewFromCOOShapeMismatch(t *testing.T) {
	idx := indexMatrix(t, [][]int32{{1, 1}})

	_, err := NewFromCOO([]int32{3, 2}, idx, kind.Int32s([]int32{1, 2}))
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewFromCOO([]int32{3, 2, 2}, idx, kind.Int32s([]int32{1}))
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestNewFromDenseShapeMismatch(t *testing.T) {
	_, err := NewFromDense([]int32{3, 2}, kind.Int32s(make([]int32, 5)))
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestMetricsCollected(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	a, err := NewFromCOO([]int32{3, 2},
		indexMatrix(t, [][]int32{{1, 1}}),
		kind.Int32s([]int32{4}),
		WithMetricsCollector(metrics))
	require.NoError(t, err)

	_, err = a.ToDense()
	require.NoError(t, err)
	b, err := a.SetLindex(Lindex32{1}, kind.Int32s([]int32{0}))
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.NNZ())

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(1), stats.MaterializeCount)
	assert.Equal(t, int64(1), stats.SubassignCount)
	assert.Equal(t, int64(1), stats.SubassignWrites)
	assert.Equal(t, int64(0), stats.BuildErrors)

	// Derived arrays inherit the collector.
	_, err = b.ToDense()
	require.NoError(t, err)
	assert.Equal(t, int64(2), metrics.GetStats().MaterializeCount)
}

func TestOptionsNilFallbacks(t *testing.T) {
	a, err := New([]int32{2}, kind.Int32,
		WithLogger(nil), WithMetricsCollector(nil), WithParallelism(0))
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.NNZ())
}

func TestParallelDenseBuild(t *testing.T) {
	dim := []int32{8, 8, 4}
	buf := make([]float64, 256)
	for i := 0; i < len(buf); i += 7 {
		buf[i] = float64(i)
	}
	buf[0] = 1

	seq, err := NewFromDense(dim, kind.Float64s(buf))
	require.NoError(t, err)
	par, err := NewFromDense(dim, kind.Float64s(buf), WithParallelism(4))
	require.NoError(t, err)

	sd, err := seq.ToDense()
	require.NoError(t, err)
	pd, err := par.ToDense()
	require.NoError(t, err)
	assert.Equal(t, sd.Data(), pd.Data())
	assert.Equal(t, seq.NNZ(), par.NNZ())
}
