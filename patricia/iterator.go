package patricia

import (
	"errors"

	"github.com/datatrails/go-patriciakv/bytecursor"
	"github.com/datatrails/go-patriciakv/logstore"
)

// ErrIteratorExhausted is returned by Next/Prev when no further element is
// available in that direction.
var ErrIteratorExhausted = errors.New("patricia: iterator exhausted")

// ChildIterator walks a View's child table. index tracks the position of
// the last element returned, in [-1, childrenCount]: -1 before the first
// element, childrenCount one past the last. Forward steps continue reading
// from a single streaming cursor; backward steps re-seek, per spec.md
// §4.C's "iteration is unidirectionally streaming; backward step pays a
// seek".
type ChildIterator struct {
	node  *View
	index int
	cur   *bytecursor.Cursor
	ref   ChildReference
}

// Node returns the parent node this iterator walks, for callers that need
// to switch direction or re-derive a sibling iterator.
func (it *ChildIterator) Node() *View { return it.node }

// HasNext reports whether Next would succeed.
func (it *ChildIterator) HasNext() bool {
	return it.index < int(it.node.childrenCount)-1
}

// HasPrev reports whether Prev would succeed.
func (it *ChildIterator) HasPrev() bool {
	return it.index > 0
}

// Next advances the iterator by one and returns the child at the new
// position.
func (it *ChildIterator) Next() (ChildReference, error) {
	if !it.HasNext() {
		return ChildReference{}, ErrIteratorExhausted
	}
	it.index++
	return it.readForward()
}

// Prev moves the iterator back by one, re-seeking a fresh cursor, and
// returns the child at the new position.
func (it *ChildIterator) Prev() (ChildReference, error) {
	if !it.HasPrev() {
		return ChildReference{}, ErrIteratorExhausted
	}
	it.index--
	it.cur = nil
	return it.readForward()
}

// NextInPlace behaves like Next but mutates and returns a pointer to the
// iterator's single reusable ChildReference; the caller must not retain the
// previous value across a further call.
func (it *ChildIterator) NextInPlace() (*ChildReference, error) {
	ref, err := it.Next()
	if err != nil {
		return nil, err
	}
	it.ref = ref
	return &it.ref, nil
}

// PrevInPlace is the in-place counterpart of Prev.
func (it *ChildIterator) PrevInPlace() (*ChildReference, error) {
	ref, err := it.Prev()
	if err != nil {
		return nil, err
	}
	it.ref = ref
	return &it.ref, nil
}

// Remove always fails: child iterators are read-only.
func (it *ChildIterator) Remove() error { return ErrNotSupported }

// readForward reads the entry at the iterator's current index, seeking a
// new cursor first if none is positioned there (first access, or just after
// a Prev), and otherwise continuing the existing streaming cursor.
func (it *ChildIterator) readForward() (ChildReference, error) {
	v := it.node
	i := uint32(it.index)
	if it.cur == nil {
		it.cur = v.loader.Cursor(logstore.Address(uint64(v.dataAddr) + v.childOffset(i)))
	}
	b, err := it.cur.Next()
	if err != nil {
		return ChildReference{}, err
	}
	addr, err := it.cur.NextLong(v.childAddressLength)
	if err != nil {
		return ChildReference{}, err
	}
	return ChildReference{FirstByte: b, SuffixAddress: logstore.Address(addr)}, nil
}
