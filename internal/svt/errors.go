package svt

import "errors"

var (
	// ErrIndexOutOfBounds is returned when a coordinate lies outside
	// its dimension or a linear index exceeds the array length.
	ErrIndexOutOfBounds = errors.New("index out of bounds")

	// ErrInvalidIndex is returned for NaN, non-positive, or
	// non-integer entries in a linear index vector.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrTooManyNonzeros is returned when a tree holds more nonzero
	// values than a 32-bit-indexed materialization can address.
	ErrTooManyNonzeros = errors.New("too many nonzero values")

	// ErrTooManyAssignments is returned when more than MaxInt32
	// incoming writes land on the same bottom leaf.
	ErrTooManyAssignments = errors.New("too many assignments to a single leaf")

	// ErrTooLarge is returned when the dense form of the array is not
	// addressable.
	ErrTooLarge = errors.New("dense form too large")

	// ErrInvariant reports an internal sanity failure. It should never
	// be observed.
	ErrInvariant = errors.New("sparse vector tree invariant violated")
)
