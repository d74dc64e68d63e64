package logstore

// TypeTag is the single-byte loggable header encoding whether a record is a
// Patricia node, whether it carries a value, whether it has children, and
// whether it is the tree root. Bit assignments are a private implementation
// choice; only the predicates below are part of the contract (spec.md §3).
type TypeTag byte

const (
	tagPatriciaNode TypeTag = 1 << 0
	tagHasValue     TypeTag = 1 << 1
	tagHasChildren  TypeTag = 1 << 2
	tagIsRoot       TypeTag = 1 << 3
)

// IsPatriciaNode reports whether this loggable encodes a Patricia node.
func (t TypeTag) IsPatriciaNode() bool { return t&tagPatriciaNode != 0 }

// HasValue reports whether the node carries a value.
func (t TypeTag) HasValue() bool { return t&tagHasValue != 0 }

// HasChildren reports whether the node has a non-empty child table.
func (t TypeTag) HasChildren() bool { return t&tagHasChildren != 0 }

// IsRoot reports whether this node is the tree root.
func (t TypeTag) IsRoot() bool { return t&tagIsRoot != 0 }

// NewTypeTag composes a TypeTag from its constituent predicates. Patricia
// nodes always set tagPatriciaNode; isRoot/hasValue/hasChildren are ORed in
// as applicable.
func NewTypeTag(hasValue, hasChildren, isRoot bool) TypeTag {
	t := tagPatriciaNode
	if hasValue {
		t |= tagHasValue
	}
	if hasChildren {
		t |= tagHasChildren
	}
	if isRoot {
		t |= tagIsRoot
	}
	return t
}

// Loggable is a typed record in the log: an address, a type tag, and an
// implicit payload reachable via the owning PageSource starting at
// DataAddress(loggable).
type Loggable struct {
	Addr Address
	Tag  TypeTag
}
