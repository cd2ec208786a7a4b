package sparsego

import (
	"errors"
	"fmt"

	"github.com/hupe1980/sparsego/internal/leaf"
	"github.com/hupe1980/sparsego/internal/svt"
	"github.com/hupe1980/sparsego/kind"
)

var (
	// ErrUnsupportedKind is returned for an element kind outside the
	// supported set, or for a bulk operation over incompatible kinds.
	ErrUnsupportedKind = errors.New("unsupported element kind")

	// ErrTypeMismatch is returned when a value vector's kind differs
	// from the array's kind.
	ErrTypeMismatch = errors.New("element kind mismatch")

	// ErrShapeMismatch is returned when the shapes of related inputs
	// do not line up (index matrix vs. value vector, dimension count,
	// pointer vector lengths).
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrIndexOutOfBounds is returned when a coordinate lies outside
	// its dimension or a linear index exceeds the array length.
	ErrIndexOutOfBounds = errors.New("index out of bounds")

	// ErrInvalidIndex is returned for NaN, non-positive, or
	// non-integer entries in a linear index vector.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrTooManyNonzeros is returned when materializing an array with
	// more nonzeros than a 32-bit-indexed form can address.
	ErrTooManyNonzeros = errors.New("too many nonzero values")

	// ErrTooManyAssignments is returned when a single subassignment
	// batch lands more than math.MaxInt32 writes on one leaf.
	ErrTooManyAssignments = errors.New("too many assignments to a single leaf")

	// ErrInvariantViolated reports an internal sanity failure. It
	// should never be observed.
	ErrInvariantViolated = errors.New("internal invariant violated")
)

// translateError maps errors of the internal packages onto the public
// error kinds. Both the public sentinel and the original underlying
// error are wrapped, so both match with errors.Is / errors.As;
// errors.Unwrap returns nil for such a doubly wrapped error.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, kind.ErrUnsupportedKind):
		return fmt.Errorf("%w: %w", ErrUnsupportedKind, err)
	case errors.Is(err, kind.ErrKindMismatch):
		return fmt.Errorf("%w: %w", ErrTypeMismatch, err)
	case errors.Is(err, svt.ErrIndexOutOfBounds):
		return fmt.Errorf("%w: %w", ErrIndexOutOfBounds, err)
	case errors.Is(err, svt.ErrInvalidIndex):
		return fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	case errors.Is(err, svt.ErrTooManyNonzeros):
		return fmt.Errorf("%w: %w", ErrTooManyNonzeros, err)
	case errors.Is(err, svt.ErrTooManyAssignments):
		return fmt.Errorf("%w: %w", ErrTooManyAssignments, err)
	case errors.Is(err, svt.ErrTooLarge):
		return fmt.Errorf("%w: %w", ErrShapeMismatch, err)
	case errors.Is(err, svt.ErrInvariant), errors.Is(err, leaf.ErrInvalidLeaf),
		errors.Is(err, leaf.ErrLeafFull):
		return fmt.Errorf("%w: %w", ErrInvariantViolated, err)
	}
	return err
}
