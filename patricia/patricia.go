// Package patricia implements the immutable, zero-copy Patricia node view
// over the on-disk node format: type tag, compressed-unsigned-long-prefixed
// key suffix, optional value, and an optional sorted child-byte table with
// fixed-width child addresses (spec.md §3, §4.C).
//
// Like urkle, this package favours small functions over raw byte slices and
// explicit offset arithmetic over building an in-memory tree of structs. A
// View reads its child table in place from the page source on every
// access; the key suffix and value are copied into fresh slices when the
// View is constructed.
package patricia

import (
	"errors"

	"github.com/datatrails/go-patriciakv/logstore"
	"github.com/datatrails/go-patriciakv/varint"
)

var (
	// ErrNotSupported is returned by the mutating methods an immutable View
	// does not implement.
	ErrNotSupported = errors.New("patricia: not supported on an immutable view")
	// ErrInvalidAddress is returned when a Loader cannot resolve an address
	// to a Patricia-node loggable.
	ErrInvalidAddress = logstore.ErrInvalidAddress
	// ErrInvalidAddressLength is returned when a node's children header
	// decodes to a childAddressLength outside [1,8]; a fatal format error.
	ErrInvalidAddressLength = logstore.ErrInvalidAddressLength
)

// Loader resolves an address to the loggable stored there and the address
// its payload begins at. logstore.Tree implements this.
type Loader interface {
	Load(addr logstore.Address) (logstore.Loggable, logstore.Address, error)
	PageSource() logstore.PageSource
}

// ChildReference is the (firstByte, suffixAddress) pair a child iterator
// yields.
type ChildReference struct {
	FirstByte     byte
	SuffixAddress logstore.Address
}

// View is an immutable Patricia node view. Constructing a View reads (and
// copies) the key suffix and value, parses the children header if present,
// and records dataOffset: the byte offset from the node's data-address at
// which the child table begins. The child table itself is not copied.
type View struct {
	loader logstore.PageSource
	tree   Loader

	addr logstore.Address
	tag  logstore.TypeTag

	dataAddr logstore.Address

	keySuffix []byte
	value     []byte

	childrenCount      uint32
	childAddressLength int
	dataOffset         uint64
}

// emptyAddress is the address the synthetic empty-tree node carries.
var emptyAddress = logstore.NullAddress

// Load fetches the loggable at addr from tree and returns an immutable node
// view over it. addr == NullAddress yields the synthetic empty-tree node
// (spec.md §3's "the empty tree is represented by a synthetic node with
// NULL_ADDRESS, no key suffix, and zero children").
func Load(tree Loader, addr logstore.Address) (*View, error) {
	if addr.IsNull() {
		return &View{tree: tree, loader: tree.PageSource(), addr: emptyAddress}, nil
	}

	l, dataAddr, err := tree.Load(addr)
	if err != nil {
		return nil, err
	}
	return newView(tree, l, dataAddr)
}

func newView(tree Loader, l logstore.Loggable, dataAddr logstore.Address) (*View, error) {
	src := tree.PageSource()
	v := &View{
		loader:   src,
		tree:     tree,
		addr:     l.Addr,
		tag:      l.Tag,
		dataAddr: dataAddr,
	}

	c := src.Cursor(dataAddr)

	suffixLen, err := varint.DecodeUint64(c)
	if err != nil {
		return nil, err
	}
	v.keySuffix = make([]byte, suffixLen)
	for i := range v.keySuffix {
		b, err := c.Next()
		if err != nil {
			return nil, err
		}
		v.keySuffix[i] = b
	}

	if l.Tag.HasValue() {
		valueLen, err := varint.DecodeUint64(c)
		if err != nil {
			return nil, err
		}
		v.value = make([]byte, valueLen)
		for i := range v.value {
			b, err := c.Next()
			if err != nil {
				return nil, err
			}
			v.value[i] = b
		}
	}

	if l.Tag.HasChildren() {
		header, err := varint.DecodeUint64(c)
		if err != nil {
			return nil, err
		}
		count, addrLen := varint.UnpackChildHeader(header)
		// addrLen = (header&7)+1 is always in [1,8] for any header value, so
		// this is defensive against a future widening of the packed field
		// rather than a condition reachable today (see DESIGN.md).
		if addrLen < 1 || addrLen > 8 {
			return nil, ErrInvalidAddressLength
		}
		v.childrenCount = count
		v.childAddressLength = addrLen
	}

	v.dataOffset = c.Address() - uint64(dataAddr)
	return v, nil
}

// Address returns the node's log address. The synthetic empty-tree node
// reports NullAddress.
func (v *View) Address() logstore.Address { return v.addr }

// IsEmpty reports whether v is the synthetic empty-tree node.
func (v *View) IsEmpty() bool { return v.addr.IsNull() }

// KeySuffix returns the compressed edge label from the parent.
func (v *View) KeySuffix() []byte { return v.keySuffix }

// HasValue reports whether the node stores a value.
func (v *View) HasValue() bool { return v.tag.HasValue() }

// Value returns the node's value, or nil if HasValue is false.
func (v *View) Value() []byte { return v.value }

// ChildrenCount returns 0 if the node has no children.
func (v *View) ChildrenCount() uint32 { return v.childrenCount }

// childOffset returns the byte offset (relative to dataAddr) of the i-th
// child-table entry.
func (v *View) childOffset(i uint32) uint64 {
	return v.dataOffset + uint64(i)*uint64(v.childAddressLength+1)
}

// childByteAt reads the discriminating byte of the i-th child-table entry.
func (v *View) childByteAt(i uint32) (byte, error) {
	return v.loader.ByteAt(uint64(v.dataAddr) + v.childOffset(i))
}

// childAddressAt reads the address of the i-th child-table entry.
func (v *View) childAddressAt(i uint32) (logstore.Address, error) {
	off := uint64(v.dataAddr) + v.childOffset(i) + 1
	a, err := v.loader.NextLong(off, v.childAddressLength)
	if err != nil {
		return logstore.NullAddress, err
	}
	return logstore.Address(a), nil
}

// GetChild performs a binary search over the sorted child-byte column for
// b; on a hit it loads and returns the child node, on a miss it returns
// (nil, nil).
func (v *View) GetChild(b byte) (*View, error) {
	if v.childrenCount == 0 {
		return nil, nil
	}
	low, high := 0, int(v.childrenCount)-1
	for low <= high {
		mid := uint32(low+high) >> 1
		actual, err := v.childByteAt(mid)
		if err != nil {
			return nil, err
		}
		cmp := int(actual&0xff) - int(b&0xff)
		switch {
		case cmp == 0:
			addr, err := v.childAddressAt(mid)
			if err != nil {
				return nil, err
			}
			return Load(v.tree, addr)
		case cmp < 0:
			low = int(mid) + 1
		default:
			high = int(mid) - 1
		}
	}
	return nil, nil
}

// lowerBound returns the index of the first child whose byte is strictly
// greater than b, or childrenCount if none exists. It mirrors the modified
// binary search spec.md §4.C prescribes: low=-1, high=count, midpoint
// (low+high+1)/2, moving high←mid while actual>b.
func (v *View) lowerBound(b byte) (uint32, error) {
	low, high := -1, int(v.childrenCount)
	for low+1 < high {
		mid := (low + high + 1) / 2
		actual, err := v.childByteAt(uint32(mid))
		if err != nil {
			return 0, err
		}
		if int(actual&0xff) > int(b&0xff) {
			high = mid
		} else {
			low = mid
		}
	}
	return uint32(high), nil
}

// firstIndexEqual returns the index of the child whose byte equals b, or
// childrenCount if absent.
func (v *View) firstIndexEqual(b byte) (uint32, error) {
	idx, err := v.lowerBound(b)
	if err != nil {
		return 0, err
	}
	if idx == 0 {
		return v.childrenCount, nil
	}
	actual, err := v.childByteAt(idx - 1)
	if err != nil {
		return 0, err
	}
	if actual == b {
		return idx - 1, nil
	}
	return v.childrenCount, nil
}

// GetChildren returns a forward iterator over every child; empty-safe.
// ChildIterator.index tracks the last element returned, not the next one to
// be returned, so a freshly constructed iterator starts at -1.
func (v *View) GetChildren() *ChildIterator {
	return &ChildIterator{node: v, index: -1}
}

// GetChildrenAt returns an iterator positioned so that Next returns the
// child whose byte equals b, or an already-exhausted iterator if absent.
func (v *View) GetChildrenAt(b byte) (*ChildIterator, error) {
	idx, err := v.firstIndexEqual(b)
	if err != nil {
		return nil, err
	}
	return &ChildIterator{node: v, index: int(idx) - 1}, nil
}

// GetChildrenRange returns an iterator positioned so that Next returns the
// first child whose byte is strictly greater than b, or an already-
// exhausted iterator if none exists.
func (v *View) GetChildrenRange(b byte) (*ChildIterator, error) {
	idx, err := v.lowerBound(b)
	if err != nil {
		return nil, err
	}
	return &ChildIterator{node: v, index: int(idx) - 1}, nil
}

// GetChildrenLast returns an iterator positioned one past the last child,
// so that Prev returns the last element.
func (v *View) GetChildrenLast() *ChildIterator {
	return &ChildIterator{node: v, index: int(v.childrenCount)}
}

// Remove always fails: the immutable view never mutates.
func (v *View) Remove() error { return ErrNotSupported }
