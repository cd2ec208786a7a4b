package sparsego

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sparsego/kind"
	"github.com/hupe1980/sparsego/testutil"
)

var allKinds = []kind.Kind{
	kind.Bool, kind.Int32, kind.Float64, kind.Complex128,
	kind.Byte, kind.String, kind.Any,
}

func randomArray(t *testing.T, rng *testutil.RNG, dim []int32, nnz int, k kind.Kind) *Array {
	t.Helper()
	m, data := rng.RandomCOO(dim, nnz, k)
	idx, err := IndexMatrixFromSlice(m, nnz, len(dim))
	require.NoError(t, err)
	a, err := NewFromCOO(dim, idx, data)
	require.NoError(t, err)
	return a
}

func TestCOORoundTripAllKinds(t *testing.T) {
	rng := testutil.NewRNG(7)
	dim := []int32{5, 4, 3}

	for _, k := range allKinds {
		t.Run(k.String(), func(t *testing.T) {
			a := randomArray(t, rng, dim, 17, k)
			validate(t, a)

			idx, data, err := a.ToCOO()
			require.NoError(t, err)
			b, err := NewFromCOO(dim, idx, data)
			require.NoError(t, err)
			validate(t, b)

			idx2, data2, err := b.ToCOO()
			require.NoError(t, err)
			assert.Equal(t, idx.Data(), idx2.Data())
			assert.Equal(t, data.Data(), data2.Data())
		})
	}
}

func TestDenseRoundTripAllKinds(t *testing.T) {
	rng := testutil.NewRNG(11)
	dim := []int32{6, 2, 3}

	for _, k := range allKinds {
		t.Run(k.String(), func(t *testing.T) {
			a := randomArray(t, rng, dim, 9, k)

			dense, err := a.ToDense()
			require.NoError(t, err)
			b, err := NewFromDense(dim, dense)
			require.NoError(t, err)
			validate(t, b)
			assert.Equal(t, a.NNZ(), b.NNZ())

			dense2, err := b.ToDense()
			require.NoError(t, err)
			assert.Equal(t, dense.Data(), dense2.Data())
		})
	}
}

func TestCSCRoundTrip2D(t *testing.T) {
	rng := testutil.NewRNG(13)
	dim := []int32{9, 7}

	for _, k := range allKinds {
		t.Run(k.String(), func(t *testing.T) {
			a := randomArray(t, rng, dim, 20, k)

			csc, err := a.ToCSC()
			require.NoError(t, err)
			b, err := NewFromCSC(dim[0], csc)
			require.NoError(t, err)
			validate(t, b)

			ad, err := a.ToDense()
			require.NoError(t, err)
			bd, err := b.ToDense()
			require.NoError(t, err)
			assert.Equal(t, ad.Data(), bd.Data())
		})
	}
}

func TestNNZMatchesDenseCount(t *testing.T) {
	rng := testutil.NewRNG(17)
	dim := []int32{4, 4, 4}
	a := randomArray(t, rng, dim, 23, kind.Float64)

	dense, err := a.ToDense()
	require.NoError(t, err)
	count := int64(0)
	for i := 0; i < dense.Len(); i++ {
		if !dense.IsZero(i) {
			count++
		}
	}
	assert.Equal(t, a.NNZ(), count)
}

func TestRandomSubassignAgainstDenseModel(t *testing.T) {
	dims := [][]int32{{7}, {5, 4}, {3, 4, 2}, {2, 3, 2, 2}}

	for _, k := range []kind.Kind{kind.Int32, kind.Float64, kind.String} {
		for _, dim := range dims {
			t.Run(fmt.Sprintf("%s/%dd", k, len(dim)), func(t *testing.T) {
				rng := testutil.NewRNG(int64(len(dim))*100 + int64(k))
				total := testutil.Volume(dim)
				a := randomArray(t, rng, dim, int(total/3), k)

				dense, err := a.ToDense()
				require.NoError(t, err)
				model := testutil.DenseModelOf(dim, dense)

				// Several rounds of random batches, zeros included,
				// duplicates likely.
				for round := 0; round < 4; round++ {
					L := 1 + rng.Intn(int(total))
					lidx := make(Lindex32, L)
					vals := rng.MixedBuffer(k, L, 0.35)
					for i := range lidx {
						lidx[i] = int32(rng.Int63n(total)) + 1
					}

					b, err := a.SetLindex(lidx, vals)
					require.NoError(t, err)
					validate(t, b)
					for i, l := range lidx {
						model.SetLinear(int64(l), vals.Get(i))
					}

					got, err := b.ToDense()
					require.NoError(t, err)
					assert.Equal(t, model.Data().Data(), got.Data())
					assert.Equal(t, model.NNZ(), b.NNZ())
					a = b
				}
			})
		}
	}
}

func TestRandomSubassignByMindexAgainstDenseModel(t *testing.T) {
	dim := []int32{4, 3, 3}
	rng := testutil.NewRNG(29)
	total := testutil.Volume(dim)
	a := randomArray(t, rng, dim, 10, kind.Float64)

	dense, err := a.ToDense()
	require.NoError(t, err)
	model := testutil.DenseModelOf(dim, dense)

	for round := 0; round < 4; round++ {
		L := 1 + rng.Intn(12)
		idx, err := NewIndexMatrix(L, len(dim))
		require.NoError(t, err)
		vals := rng.MixedBuffer(kind.Float64, L, 0.3)
		for i := 0; i < L; i++ {
			coords := testutil.LinearToCoords(dim, rng.Int63n(total)+1)
			require.NoError(t, idx.SetRow(i, coords...))
			model.SetCoords(coords, vals.Get(i))
		}

		b, err := a.SetMindex(idx, vals)
		require.NoError(t, err)
		validate(t, b)

		got, err := b.ToDense()
		require.NoError(t, err)
		assert.Equal(t, model.Data().Data(), got.Data())
		a = b
	}
}

func TestLindex64MatchesLindex32(t *testing.T) {
	dim := []int32{6, 5}
	rng := testutil.NewRNG(31)
	a := randomArray(t, rng, dim, 8, kind.Int32)

	l32 := Lindex32{3, 30, 3, 17}
	l64 := Lindex64{3, 30, 3, 17}
	vals := kind.Int32s([]int32{1, 0, 2, 5})

	b32, err := a.SetLindex(l32, vals)
	require.NoError(t, err)
	b64, err := a.SetLindex(l64, vals)
	require.NoError(t, err)

	d32, err := b32.ToDense()
	require.NoError(t, err)
	d64, err := b64.ToDense()
	require.NoError(t, err)
	assert.Equal(t, d32.Data(), d64.Data())
}
