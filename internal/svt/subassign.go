package svt

import (
	"fmt"
	"math"

	"github.com/hupe1980/sparsego/internal/leaf"
	"github.com/hupe1980/sparsego/kind"
)

// Stats reports what the dispatch pass of a subassignment observed.
type Stats struct {
	// MaxIDSLen is the largest incoming-data subset attached to a
	// single bottom leaf.
	MaxIDSLen int64
	// MaxPostmergeLen is the worst-case merged leaf length, capped at
	// the maximum leaf length.
	MaxPostmergeLen int
}

// idsBuf is an incoming data subset: a growable buffer of offsets into
// the write batch ("atid" offsets), attached to a bottom slot during
// the dispatch pass. The 32-bit variant serves multi-index batches
// (bounded by matrix shape); the 64-bit variant serves linear-index
// batches, which may be longer.
type idsBuf interface {
	appendOff(off int64)
	length() int64
	at(k int) int64
}

type ids32 struct{ offs []int32 }

func (s *ids32) appendOff(off int64) { s.offs = append(s.offs, int32(off)) }
func (s *ids32) length() int64       { return int64(len(s.offs)) }
func (s *ids32) at(k int) int64      { return int64(s.offs[k]) }

type ids64 struct{ offs []int64 }

func (s *ids64) appendOff(off int64) { s.offs = append(s.offs, off) }
func (s *ids64) length() int64       { return int64(len(s.offs)) }
func (s *ids64) at(k int) int64      { return s.offs[k] }

// seqIDS is the identity subset 0..n-1, used by the one-dimensional
// fast path where the whole batch lands on the single leaf.
type seqIDS int64

func (s seqIDS) appendOff(int64) {}
func (s seqIDS) length() int64   { return int64(s) }
func (s seqIDS) at(k int) int64  { return int64(k) }

// extended is a bottom leaf that acquired an incoming data subset
// during the dispatch pass.
type extended struct {
	lf  *leaf.Leaf
	set idsBuf
}

// incoming resolves atid offsets of one write batch against the
// innermost dimension.
type incoming interface {
	// bottomOff returns the 0-based offset into dimension 0 addressed
	// by write atid.
	bottomOff(atid int64) (int32, error)
	// vals returns the value vector of the batch, indexed by atid.
	vals() kind.Buffer
}

type mindexIncoming struct {
	m  []int32 // column-major (L, ndim)
	d0 int32
	vs kind.Buffer
}

func (in *mindexIncoming) bottomOff(atid int64) (int32, error) {
	p := in.m[atid]
	if p < 1 || p > in.d0 {
		return 0, fmt.Errorf("%w: coordinate %d outside [1, %d]",
			ErrIndexOutOfBounds, p, in.d0)
	}
	return p - 1, nil
}

func (in *mindexIncoming) vals() kind.Buffer { return in.vs }

type lindexIncoming[T int32 | float64] struct {
	lidx  []T
	d0    int64 // innermost dimension
	total int64 // product of all dimensions
	vs    kind.Buffer
}

func (in *lindexIncoming[T]) lidxAt(atid int64) (int64, error) {
	return lidxValue(in.lidx[atid])
}

func (in *lindexIncoming[T]) bottomOff(atid int64) (int32, error) {
	lidx, err := in.lidxAt(atid)
	if err != nil {
		return 0, err
	}
	if lidx > in.total {
		return 0, fmt.Errorf("%w: linear index %d exceeds array length %d",
			ErrIndexOutOfBounds, lidx, in.total)
	}
	return int32((lidx - 1) % in.d0), nil
}

func (in *lindexIncoming[T]) vals() kind.Buffer { return in.vs }

// lidxValue validates one linear index entry. Integer entries must be
// >= 1; float entries must additionally be finite integers.
func lidxValue[T int32 | float64](v T) (int64, error) {
	switch x := any(v).(type) {
	case int32:
		if x < 1 {
			return 0, fmt.Errorf("%w: linear index %d", ErrInvalidIndex, x)
		}
		return int64(x), nil
	case float64:
		if math.IsNaN(x) || x < 1 || x >= float64(math.MaxInt64) || x != math.Trunc(x) {
			return 0, fmt.Errorf("%w: linear index %v", ErrInvalidIndex, x)
		}
		return int64(x), nil
	}
	return 0, ErrInvalidIndex
}

// SubassignByMindex returns a new tree equal to root with the entries
// addressed by the column-major (L, ndim) multi-index matrix m
// overwritten by vals. root is not mutated; unchanged sub-trees are
// shared between input and result.
func SubassignByMindex(root Node, dim []int32, m []int32, vals kind.Buffer) (Node, Stats, error) {
	ndim := len(dim)
	L := vals.Len()
	if L == 0 {
		return root, Stats{}, nil
	}
	if total := product(dim); total == 0 {
		return nil, Stats{}, fmt.Errorf("%w: assignment into an empty array",
			ErrIndexOutOfBounds)
	}
	in := &mindexIncoming{m: m, d0: dim[0], vs: vals}
	if ndim == 1 {
		n, err := subassign1D(root, in, L)
		return n, Stats{}, err
	}

	ans, orig, err := shallowRoot(root, dim[ndim-1])
	if err != nil {
		return nil, Stats{}, err
	}
	var st Stats
	newIDS := func() idsBuf { return &ids32{} }
	for atid := 0; atid < L; atid++ {
		parent, i, err := descendByMindex(ans, orig, dim, m, L, atid)
		if err != nil {
			return nil, Stats{}, err
		}
		if err := attachWrite(parent, i, int64(atid), newIDS, &st); err != nil {
			return nil, Stats{}, err
		}
	}
	return absorbDispatched(ans, ndim, in, &st)
}

// SubassignByLindex32 is SubassignByMindex for a 32-bit linear index
// vector over the column-major layout.
func SubassignByLindex32(root Node, dim []int32, lidx []int32, vals kind.Buffer) (Node, Stats, error) {
	return subassignByLindex(root, dim, lidx, vals)
}

// SubassignByLindex64 is the 64-bit variant, accepting integer-valued
// float linear indices so the addressable range is not capped at 32
// bits.
func SubassignByLindex64(root Node, dim []int32, lidx []float64, vals kind.Buffer) (Node, Stats, error) {
	return subassignByLindex(root, dim, lidx, vals)
}

func subassignByLindex[T int32 | float64](root Node, dim []int32, lidx []T, vals kind.Buffer) (Node, Stats, error) {
	ndim := len(dim)
	L := len(lidx)
	if L == 0 {
		return root, Stats{}, nil
	}
	cumprod := make([]int64, ndim)
	p := int64(1)
	for along, d := range dim {
		p *= int64(d)
		cumprod[along] = p
	}
	if cumprod[ndim-1] == 0 {
		return nil, Stats{}, fmt.Errorf("%w: assignment into an empty array",
			ErrIndexOutOfBounds)
	}
	in := &lindexIncoming[T]{lidx: lidx, d0: int64(dim[0]), total: cumprod[ndim-1], vs: vals}
	if ndim == 1 {
		n, err := subassign1D(root, in, L)
		return n, Stats{}, err
	}

	ans, orig, err := shallowRoot(root, dim[ndim-1])
	if err != nil {
		return nil, Stats{}, err
	}
	var st Stats
	newIDS := func() idsBuf { return &ids64{} }
	for atid := int64(0); atid < int64(L); atid++ {
		lv, err := in.lidxAt(atid)
		if err != nil {
			return nil, Stats{}, err
		}
		if lv > in.total {
			return nil, Stats{}, fmt.Errorf("%w: linear index %d exceeds array length %d",
				ErrIndexOutOfBounds, lv, in.total)
		}
		parent, i, err := descendByLidx(ans, orig, dim, cumprod, lv)
		if err != nil {
			return nil, Stats{}, err
		}
		if err := attachWrite(parent, i, atid, newIDS, &st); err != nil {
			return nil, Stats{}, err
		}
	}
	return absorbDispatched(ans, ndim, in, &st)
}

func product(dim []int32) int64 {
	p := int64(1)
	for _, d := range dim {
		p *= int64(d)
	}
	return p
}

// shallowRoot starts the answer tree: a fresh node sequence when root
// is empty, otherwise a shallow copy of the top level so the dispatch
// pass never mutates the caller's tree.
func shallowRoot(root Node, d int32) (*Branch, Node, error) {
	if root == nil {
		return newBranch(d), nil, nil
	}
	br, ok := root.(*Branch)
	if !ok || len(br.Kids) != int(d) {
		return nil, nil, fmt.Errorf("%w: unexpected root node", ErrInvariant)
	}
	kids := make([]Node, len(br.Kids))
	copy(kids, br.Kids)
	return &Branch{Kids: kids}, root, nil
}

// makeNode prepares a child for descent: a fresh node sequence when the
// slot is empty, a shallow copy when the slot is still shared with the
// original tree, the node itself otherwise.
func makeNode(n Node, d int32, n0 Node) (*Branch, error) {
	if n == nil {
		return newBranch(d), nil
	}
	br, ok := n.(*Branch)
	if !ok || len(br.Kids) != int(d) {
		return nil, fmt.Errorf("%w: unexpected interior node", ErrInvariant)
	}
	if n == n0 {
		kids := make([]Node, len(br.Kids))
		copy(kids, br.Kids)
		return &Branch{Kids: kids}, nil
	}
	return br, nil
}

// descendByMindex walks one multi-index row from the outermost
// dimension down to the penultimate level, cloning still-shared
// interior nodes on the way, and returns the parent of the addressed
// bottom slot.
func descendByMindex(root *Branch, orig Node, dim []int32, m []int32, L int, atid int) (*Branch, int, error) {
	ndim := len(dim)
	node, node0 := root, orig
	for along := ndim - 1; ; along-- {
		c := m[atid+along*L]
		if c < 1 || c > dim[along] {
			return nil, 0, fmt.Errorf("%w: coordinate %d outside [1, %d]",
				ErrIndexOutOfBounds, c, dim[along])
		}
		i := int(c) - 1
		if along == 1 {
			return node, i, nil
		}
		var sub0 Node
		if node0 != nil {
			if br0, ok := node0.(*Branch); ok {
				sub0 = br0.Kids[i]
			}
		}
		sub, err := makeNode(node.Kids[i], dim[along-1], sub0)
		if err != nil {
			return nil, 0, err
		}
		node.Kids[i] = sub
		node, node0 = sub, sub0
	}
}

// descendByLidx is descendByMindex for a validated 1-based linear
// index.
func descendByLidx(root *Branch, orig Node, dim []int32, cumprod []int64, lidx int64) (*Branch, int, error) {
	ndim := len(dim)
	node, node0 := root, orig
	idx0 := lidx - 1
	for along := ndim - 1; ; along-- {
		p := cumprod[along-1]
		i := int(idx0 / p)
		if along == 1 {
			return node, i, nil
		}
		idx0 %= p
		var sub0 Node
		if node0 != nil {
			if br0, ok := node0.(*Branch); ok {
				sub0 = br0.Kids[i]
			}
		}
		sub, err := makeNode(node.Kids[i], dim[along-1], sub0)
		if err != nil {
			return nil, 0, err
		}
		node.Kids[i] = sub
		node, node0 = sub, sub0
	}
}

// attachWrite puts an incoming data subset on the addressed bottom slot
// if it does not carry one yet (empty slot becomes a bare IDS, a leaf
// becomes an extended leaf), appends the write's atid offset to it, and
// updates the dispatch statistics.
func attachWrite(parent *Branch, i int, atid int64, newIDS func() idsBuf, st *Stats) error {
	var lvLen int
	var set idsBuf
	switch b := parent.Kids[i].(type) {
	case nil:
		set = newIDS()
		parent.Kids[i] = set
	case *ids32:
		set = b
	case *ids64:
		set = b
	case *leaf.Leaf:
		e := &extended{lf: b, set: newIDS()}
		parent.Kids[i] = e
		lvLen = b.Len()
		set = e.set
	case *extended:
		lvLen = b.lf.Len()
		set = b.set
	default:
		return fmt.Errorf("%w: unexpected bottom slot %T", ErrInvariant, b)
	}
	set.appendOff(atid)

	idsLen := set.length()
	if idsLen > st.MaxIDSLen {
		st.MaxIDSLen = idsLen
	}
	worst := int64(lvLen) + idsLen
	if worst > leaf.MaxLen {
		worst = leaf.MaxLen
	}
	if int(worst) > st.MaxPostmergeLen {
		st.MaxPostmergeLen = int(worst)
	}
	return nil
}

// absorbDispatched runs the absorb pass over a dispatched tree and
// finishes the call-level bookkeeping.
func absorbDispatched(ans *Branch, ndim int, in incoming, st *Stats) (Node, Stats, error) {
	if st.MaxIDSLen > leaf.MaxLen {
		return nil, *st, fmt.Errorf("%w: %d writes", ErrTooManyAssignments, st.MaxIDSLen)
	}
	if int64(st.MaxPostmergeLen) < st.MaxIDSLen {
		return nil, *st, fmt.Errorf("%w: post-merge bound %d below subset bound %d",
			ErrInvariant, st.MaxPostmergeLen, st.MaxIDSLen)
	}
	sb := newSortBufs(int(st.MaxIDSLen), st.MaxPostmergeLen)
	out, err := absorb(ans, ndim, in, sb)
	if err != nil {
		return nil, *st, err
	}
	return out, *st, nil
}

// absorb recursively resolves the transient bottom slots produced by
// the dispatch pass into proper leaves and prunes branches that ended
// up empty.
func absorb(n Node, ndim int, in incoming, sb *sortBufs) (Node, error) {
	if n == nil {
		return nil, nil
	}
	if ndim == 1 {
		switch b := n.(type) {
		case *leaf.Leaf:
			// No writes landed here; keep as is.
			return b, nil
		case *ids32:
			return absorbIDS(b, in, sb)
		case *ids64:
			return absorbIDS(b, in, sb)
		case *extended:
			lv2, err := makeLeafFromIDS(b.set, in, sb)
			if err != nil {
				return nil, err
			}
			// Zeros must be removed after the merge, not before:
			// an incoming zero erases an existing entry.
			merged, err := leaf.Merge(b.lf, lv2)
			if err != nil {
				return nil, err
			}
			return stripZeros(merged, sb)
		default:
			return nil, fmt.Errorf("%w: unexpected bottom slot %T", ErrInvariant, b)
		}
	}
	br, ok := n.(*Branch)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected interior node %T", ErrInvariant, n)
	}
	empty := true
	for i, kid := range br.Kids {
		out, err := absorb(kid, ndim-1, in, sb)
		if err != nil {
			return nil, err
		}
		br.Kids[i] = out
		if out != nil {
			empty = false
		}
	}
	if empty {
		return nil, nil
	}
	return br, nil
}

func absorbIDS(set idsBuf, in incoming, sb *sortBufs) (Node, error) {
	lf, err := makeLeafFromIDS(set, in, sb)
	if err != nil {
		return nil, err
	}
	return stripZeros(lf, sb)
}

func stripZeros(lf *leaf.Leaf, sb *sortBufs) (Node, error) {
	out, err := leaf.RemoveZeros(lf, sb.offs)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return out, nil
}

// makeLeafFromIDS resolves an incoming data subset to (position, value)
// pairs: sort the atid offsets by destination position (stable), drop
// duplicate positions keeping the last occurrence so the last write
// wins, and build a leaf of exactly the surviving size. Zero values are
// NOT stripped here; that happens after any merge.
func makeLeafFromIDS(set idsBuf, in incoming, sb *sortBufs) (*leaf.Leaf, error) {
	n := int(set.length())
	for k := 0; k < n; k++ {
		off, err := in.bottomOff(set.at(k))
		if err != nil {
			return nil, err
		}
		sb.offs[k] = off
	}
	for k := 0; k < n; k++ {
		sb.order[k] = int32(k)
	}
	sb.sortOrder(n)
	m := removeDups(sb.order, n, sb.offs)

	pos := make([]int32, m)
	vals, err := kind.Alloc(in.vals().Kind(), m)
	if err != nil {
		return nil, err
	}
	for k := 0; k < m; k++ {
		sel := sb.order[k]
		pos[k] = sb.offs[sel] + 1
		if err := kind.Copy(vals, k, in.vals(), int(set.at(int(sel)))); err != nil {
			return nil, err
		}
	}
	return leaf.New(pos, vals)
}

// subassign1D builds a leaf straight from the batch (the whole batch
// lands on the single bottom leaf), merges it with the existing leaf if
// any, and strips zeros.
func subassign1D(root Node, in incoming, L int) (Node, error) {
	if int64(L) > leaf.MaxLen {
		return nil, fmt.Errorf("%w: %d writes", ErrTooManyAssignments, L)
	}
	worst := int64(L)
	var existing *leaf.Leaf
	if root != nil {
		lf, ok := root.(*leaf.Leaf)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected root node %T", ErrInvariant, root)
		}
		existing = lf
		worst += int64(lf.Len())
		if worst > leaf.MaxLen {
			worst = leaf.MaxLen
		}
	}
	sb := newSortBufs(L, int(worst))
	lf, err := makeLeafFromIDS(seqIDS(L), in, sb)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		lf, err = leaf.Merge(existing, lf)
		if err != nil {
			return nil, err
		}
	}
	return stripZeros(lf, sb)
}
