package testutil

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/sparsego/kind"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63n returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// NonzeroValue returns a random boxed value of kind k that is not the
// kind's zero.
func (r *RNG) NonzeroValue(k kind.Kind) any {
	switch k {
	case kind.Bool:
		return int32(1)
	case kind.Int32:
		return int32((r.Intn(199) - 99) | 1)
	case kind.Float64:
		return r.Float64() + 0.5
	case kind.Complex128:
		return complex(r.Float64()+0.5, r.Float64())
	case kind.Byte:
		return byte(r.Intn(255) + 1)
	case kind.String:
		return fmt.Sprintf("v%d", r.Intn(1_000_000)+1)
	case kind.Any:
		return r.Intn(1_000_000) + 1
	}
	panic("testutil: unsupported kind")
}

// NonzeroBuffer returns a buffer of n random nonzero values of kind k.
func (r *RNG) NonzeroBuffer(k kind.Kind, n int) kind.Buffer {
	buf, err := kind.Alloc(k, n)
	if err != nil {
		panic(err)
	}
	for i := 0; i < n; i++ {
		if err := buf.Set(i, r.NonzeroValue(k)); err != nil {
			panic(err)
		}
	}
	return buf
}

// MixedBuffer returns a buffer of n random values of kind k where each
// value is the kind's zero with probability pZero.
func (r *RNG) MixedBuffer(k kind.Kind, n int, pZero float64) kind.Buffer {
	buf, err := kind.Alloc(k, n)
	if err != nil {
		panic(err)
	}
	for i := 0; i < n; i++ {
		if r.Float64() < pZero {
			continue // already zero
		}
		if err := buf.Set(i, r.NonzeroValue(k)); err != nil {
			panic(err)
		}
	}
	return buf
}

// RandomCOO returns a column-major (nnz, ndim) index matrix of distinct
// 1-based coordinates in ascending column-major linear order, plus a
// parallel vector of random nonzero values. nnz must not exceed the
// array volume.
func (r *RNG) RandomCOO(dim []int32, nnz int, k kind.Kind) ([]int32, kind.Buffer) {
	total := Volume(dim)
	if int64(nnz) > total {
		panic("testutil: nnz exceeds array volume")
	}
	seen := make(map[int64]struct{}, nnz)
	linear := make([]int64, 0, nnz)
	for len(linear) < nnz {
		l := r.Int63n(total) + 1
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		linear = append(linear, l)
	}
	sort.Slice(linear, func(i, j int) bool { return linear[i] < linear[j] })

	ndim := len(dim)
	m := make([]int32, nnz*ndim)
	for row, l := range linear {
		coords := LinearToCoords(dim, l)
		for j, c := range coords {
			m[row+j*nnz] = c
		}
	}
	return m, r.NonzeroBuffer(k, nnz)
}

// Volume returns the product of the dimensions.
func Volume(dim []int32) int64 {
	total := int64(1)
	for _, d := range dim {
		total *= int64(d)
	}
	return total
}

// LinearToCoords converts a 1-based column-major linear index to
// 1-based coordinates, innermost dimension first.
func LinearToCoords(dim []int32, lidx int64) []int32 {
	coords := make([]int32, len(dim))
	idx0 := lidx - 1
	for j, d := range dim {
		coords[j] = int32(idx0%int64(d)) + 1
		idx0 /= int64(d)
	}
	return coords
}

// CoordsToLinear converts 1-based coordinates to the 1-based
// column-major linear index.
func CoordsToLinear(dim []int32, coords []int32) int64 {
	lidx := int64(0)
	stride := int64(1)
	for j, d := range dim {
		lidx += int64(coords[j]-1) * stride
		stride *= int64(d)
	}
	return lidx + 1
}

// DenseModel is a dense reference implementation of the subassignment
// semantics: a flat column-major buffer that writes apply to in order.
type DenseModel struct {
	dim  []int32
	data kind.Buffer
}

// NewDenseModel returns an all-zero dense model.
func NewDenseModel(dim []int32, k kind.Kind) *DenseModel {
	data, err := kind.Alloc(k, int(Volume(dim)))
	if err != nil {
		panic(err)
	}
	return &DenseModel{dim: dim, data: data}
}

// DenseModelOf returns a dense model initialized from a column-major
// buffer.
func DenseModelOf(dim []int32, data kind.Buffer) *DenseModel {
	m := NewDenseModel(dim, data.Kind())
	if err := kind.CopyRun(m.data, 0, data, 0, data.Len()); err != nil {
		panic(err)
	}
	return m
}

// SetLinear overwrites the element at the 1-based linear index.
func (m *DenseModel) SetLinear(lidx int64, v any) {
	if err := m.data.Set(int(lidx-1), v); err != nil {
		panic(err)
	}
}

// SetCoords overwrites the element at the 1-based coordinates.
func (m *DenseModel) SetCoords(coords []int32, v any) {
	m.SetLinear(CoordsToLinear(m.dim, coords), v)
}

// Data returns the backing buffer.
func (m *DenseModel) Data() kind.Buffer { return m.data }

// NNZ counts the nonzero elements.
func (m *DenseModel) NNZ() int64 {
	var n int64
	for i := 0; i < m.data.Len(); i++ {
		if !m.data.IsZero(i) {
			n++
		}
	}
	return n
}
