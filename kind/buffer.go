package kind

import (
	"fmt"
)

// Buffer is a kind-typed value vector. All values the engine stores or
// moves travel through Buffers; the concrete element type is determined
// by the Kind and is not visible in the interface.
//
// Buffers are not safe for concurrent mutation.
type Buffer interface {
	// Kind returns the element kind of the buffer.
	Kind() Kind
	// Len returns the number of elements.
	Len() int
	// IsZero reports whether the element at i equals the kind's zero.
	IsZero(i int) bool
	// Get returns the element at i, boxed.
	Get(i int) any
	// Set stores a boxed value at i. The dynamic type must match the
	// kind's element type.
	Set(i int, v any) error
	// Data returns the backing slice ([]int32, []float64, ...).
	Data() any
	// Slice returns a view of the elements in [lo, hi). The view shares
	// the backing storage.
	Slice(lo, hi int) Buffer

	copyRunTo(dst Buffer, dstOff, srcOff, n int) error
}

type buffer[T any] struct {
	kind Kind
	elts []T
	zero func(T) bool
}

func (b *buffer[T]) Kind() Kind { return b.kind }

func (b *buffer[T]) Len() int { return len(b.elts) }

func (b *buffer[T]) IsZero(i int) bool { return b.zero(b.elts[i]) }

func (b *buffer[T]) Get(i int) any { return b.elts[i] }

func (b *buffer[T]) Data() any { return b.elts }

func (b *buffer[T]) Set(i int, v any) error {
	if v == nil {
		if b.kind != Any {
			return fmt.Errorf("%w: cannot store nil in a %s buffer",
				ErrKindMismatch, b.kind)
		}
		var zero T
		b.elts[i] = zero
		return nil
	}
	t, ok := v.(T)
	if !ok {
		return fmt.Errorf("%w: cannot store %T in a %s buffer",
			ErrKindMismatch, v, b.kind)
	}
	b.elts[i] = t
	return nil
}

func (b *buffer[T]) Slice(lo, hi int) Buffer {
	return &buffer[T]{kind: b.kind, elts: b.elts[lo:hi:hi], zero: b.zero}
}

func (b *buffer[T]) copyRunTo(dst Buffer, dstOff, srcOff, n int) error {
	d, ok := dst.(*buffer[T])
	if !ok || d.kind != b.kind {
		return fmt.Errorf("%w: %s vs %s", ErrKindMismatch, b.kind, dst.Kind())
	}
	if srcOff < 0 || srcOff+n > len(b.elts) || dstOff < 0 || dstOff+n > len(d.elts) {
		return fmt.Errorf("copy of %d elements out of range", n)
	}
	copy(d.elts[dstOff:dstOff+n], b.elts[srcOff:srcOff+n])
	return nil
}

// Copy copies a single element from src at srcOff to dst at dstOff.
// Both buffers must have the same kind.
func Copy(dst Buffer, dstOff int, src Buffer, srcOff int) error {
	return src.copyRunTo(dst, dstOff, srcOff, 1)
}

// CopyRun copies n contiguous elements from src at srcOff to dst at
// dstOff. Equivalent to n calls of Copy but uses a bulk copy.
func CopyRun(dst Buffer, dstOff int, src Buffer, srcOff, n int) error {
	return src.copyRunTo(dst, dstOff, srcOff, n)
}

func isZeroInt32(v int32) bool           { return v == 0 }
func isZeroFloat64(v float64) bool       { return v == 0 }
func isZeroComplex128(v complex128) bool { return v == 0 }
func isZeroByte(v byte) bool             { return v == 0 }
func isZeroString(v string) bool         { return v == "" }
func isZeroAny(v any) bool               { return v == nil }

// Alloc returns a zero-initialized buffer of n elements of kind k.
func Alloc(k Kind, n int) (Buffer, error) {
	switch k {
	case Bool, Int32:
		return &buffer[int32]{kind: k, elts: make([]int32, n), zero: isZeroInt32}, nil
	case Float64:
		return &buffer[float64]{kind: k, elts: make([]float64, n), zero: isZeroFloat64}, nil
	case Complex128:
		return &buffer[complex128]{kind: k, elts: make([]complex128, n), zero: isZeroComplex128}, nil
	case Byte:
		return &buffer[byte]{kind: k, elts: make([]byte, n), zero: isZeroByte}, nil
	case String:
		return &buffer[string]{kind: k, elts: make([]string, n), zero: isZeroString}, nil
	case Any:
		return &buffer[any]{kind: k, elts: make([]any, n), zero: isZeroAny}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, k)
}

// Bools wraps elts as a Bool buffer. Logical values share the 32-bit
// integer representation; nonzero means true. The buffer takes ownership
// of elts.
func Bools(elts []int32) Buffer {
	return &buffer[int32]{kind: Bool, elts: elts, zero: isZeroInt32}
}

// Int32s wraps elts as an Int32 buffer. The buffer takes ownership of elts.
func Int32s(elts []int32) Buffer {
	return &buffer[int32]{kind: Int32, elts: elts, zero: isZeroInt32}
}

// Float64s wraps elts as a Float64 buffer. The buffer takes ownership of elts.
func Float64s(elts []float64) Buffer {
	return &buffer[float64]{kind: Float64, elts: elts, zero: isZeroFloat64}
}

// Complex128s wraps elts as a Complex128 buffer. The buffer takes
// ownership of elts.
func Complex128s(elts []complex128) Buffer {
	return &buffer[complex128]{kind: Complex128, elts: elts, zero: isZeroComplex128}
}

// Bytes wraps elts as a Byte buffer. The buffer takes ownership of elts.
func Bytes(elts []byte) Buffer {
	return &buffer[byte]{kind: Byte, elts: elts, zero: isZeroByte}
}

// Strings wraps elts as a String buffer. The buffer takes ownership of elts.
func Strings(elts []string) Buffer {
	return &buffer[string]{kind: String, elts: elts, zero: isZeroString}
}

// Values wraps elts as an Any buffer. The buffer takes ownership of elts.
func Values(elts []any) Buffer {
	return &buffer[any]{kind: Any, elts: elts, zero: isZeroAny}
}
