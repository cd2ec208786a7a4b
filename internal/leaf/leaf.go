package leaf

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/sparsego/kind"
)

// MaxLen is the maximum number of entries a single leaf can hold.
const MaxLen = math.MaxInt32

// ErrInvalidLeaf is returned when the position and value vectors of a
// leaf do not line up.
var ErrInvalidLeaf = errors.New("invalid leaf")

// ErrLeafFull is returned when appending to an already full appendable
// leaf.
var ErrLeafFull = errors.New("appendable leaf is full")

// Leaf is a single-dimension sparse slice: a strictly ascending vector
// of 1-based positions and a parallel vector of values of the array's
// element kind. A leaf never stores a zero value; operations that can
// introduce zeros strip them with RemoveZeros before the leaf becomes
// observable.
//
// Leaves are immutable once built.
type Leaf struct {
	pos  []int32
	vals kind.Buffer
}

// New builds a leaf from parallel position and value vectors.
// It validates that the vectors have equal, nonzero length not
// exceeding MaxLen. It does not validate ordering; callers own that
// invariant.
func New(pos []int32, vals kind.Buffer) (*Leaf, error) {
	if len(pos) == 0 || len(pos) != vals.Len() {
		return nil, fmt.Errorf("%w: %d positions, %d values",
			ErrInvalidLeaf, len(pos), vals.Len())
	}
	if len(pos) > MaxLen {
		return nil, fmt.Errorf("%w: %d entries", ErrInvalidLeaf, len(pos))
	}
	return &Leaf{pos: pos, vals: vals}, nil
}

// Len returns the number of stored entries.
func (l *Leaf) Len() int { return len(l.pos) }

// Positions returns the 1-based position vector. Callers must not
// mutate it.
func (l *Leaf) Positions() []int32 { return l.pos }

// Values returns the value vector. Callers must not mutate it.
func (l *Leaf) Values() kind.Buffer { return l.vals }

// Kind returns the element kind of the stored values.
func (l *Leaf) Kind() kind.Kind { return l.vals.Kind() }

// Appendable is a pre-sized leaf under construction: positions and
// values are appended in input order until the fill counter reaches the
// pre-computed size.
type Appendable struct {
	pos  []int32
	vals kind.Buffer
	n    int
}

// NewAppendable allocates an appendable leaf for exactly n entries of
// kind k.
func NewAppendable(n int, k kind.Kind) (*Appendable, error) {
	if n < 1 || n > MaxLen {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidLeaf, n)
	}
	vals, err := kind.Alloc(k, n)
	if err != nil {
		return nil, err
	}
	return &Appendable{pos: make([]int32, n), vals: vals}, nil
}

// Append writes a (position, value) pair into the next free slot, the
// value coming from src at srcOff. It returns true when the append
// completed the leaf, and ErrLeafFull when no slot is free.
func (a *Appendable) Append(pos int32, src kind.Buffer, srcOff int) (bool, error) {
	if a.n >= len(a.pos) {
		return false, ErrLeafFull
	}
	if err := kind.Copy(a.vals, a.n, src, srcOff); err != nil {
		return false, err
	}
	a.pos[a.n] = pos
	a.n++
	return a.n == len(a.pos), nil
}

// Finalize converts a completely filled appendable leaf into a leaf.
func (a *Appendable) Finalize() (*Leaf, error) {
	if a.n != len(a.pos) {
		return nil, fmt.Errorf("%w: %d of %d entries filled",
			ErrInvalidLeaf, a.n, len(a.pos))
	}
	return New(a.pos, a.vals)
}

// Merge returns a new leaf holding the sorted union of a and b. On a
// position collision the value from b wins. Merge does not strip zeros;
// callers that may have introduced zeros through b must follow up with
// RemoveZeros.
func Merge(a, b *Leaf) (*Leaf, error) {
	if a.Kind() != b.Kind() {
		return nil, fmt.Errorf("%w: %s vs %s", kind.ErrKindMismatch, a.Kind(), b.Kind())
	}
	ub := a.Len() + b.Len()
	if ub > MaxLen {
		ub = MaxLen
	}
	pos := make([]int32, ub)
	vals, err := kind.Alloc(a.Kind(), ub)
	if err != nil {
		return nil, err
	}
	var i, j, n int
	for i < a.Len() && j < b.Len() {
		switch {
		case a.pos[i] < b.pos[j]:
			pos[n] = a.pos[i]
			err = kind.Copy(vals, n, a.vals, i)
			i++
		case a.pos[i] > b.pos[j]:
			pos[n] = b.pos[j]
			err = kind.Copy(vals, n, b.vals, j)
			j++
		default: // collision: incoming wins
			pos[n] = b.pos[j]
			err = kind.Copy(vals, n, b.vals, j)
			i++
			j++
		}
		if err != nil {
			return nil, err
		}
		n++
	}
	for ; i < a.Len(); i++ {
		pos[n] = a.pos[i]
		if err := kind.Copy(vals, n, a.vals, i); err != nil {
			return nil, err
		}
		n++
	}
	for ; j < b.Len(); j++ {
		pos[n] = b.pos[j]
		if err := kind.Copy(vals, n, b.vals, j); err != nil {
			return nil, err
		}
		n++
	}
	return New(pos[:n], vals.Slice(0, n))
}

// RemoveZeros returns a leaf with all zero-valued entries removed, nil
// when every entry was zero, and l itself when nothing had to be
// stripped. scratch is a caller-provided buffer of length >= l.Len()
// that receives the surviving positions during the scan.
func RemoveZeros(l *Leaf, scratch []int32) (*Leaf, error) {
	if len(scratch) < l.Len() {
		return nil, fmt.Errorf("%w: scratch of %d for %d entries",
			ErrInvalidLeaf, len(scratch), l.Len())
	}
	n := 0
	for i := 0; i < l.Len(); i++ {
		if !l.vals.IsZero(i) {
			scratch[n] = l.pos[i]
			n++
		}
	}
	if n == l.Len() {
		return l, nil
	}
	if n == 0 {
		return nil, nil
	}
	pos := make([]int32, n)
	copy(pos, scratch[:n])
	vals, err := kind.Alloc(l.Kind(), n)
	if err != nil {
		return nil, err
	}
	n = 0
	for i := 0; i < l.Len(); i++ {
		if !l.vals.IsZero(i) {
			if err := kind.Copy(vals, n, l.vals, i); err != nil {
				return nil, err
			}
			n++
		}
	}
	return New(pos, vals)
}
