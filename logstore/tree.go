package logstore

// Tree resolves Address values against a PageSource and hands back the raw
// Loggable plus the payload address a Patricia node view is constructed
// over. It deliberately knows nothing about the Patricia node format itself
// (that lives in package patricia, which depends on logstore, not the
// reverse); it only satisfies patricia.Loader structurally.
type Tree struct {
	src  PageSource
	root Address
}

// NewTree wraps src with a known root address. root may be NullAddress for
// an empty tree.
func NewTree(src PageSource, root Address) *Tree {
	return &Tree{src: src, root: root}
}

// Root returns the tree's root address.
func (t *Tree) Root() Address {
	return t.root
}

// SetRoot updates the tree's root address, used after a new root is
// appended to the log.
func (t *Tree) SetRoot(root Address) {
	t.root = root
}

// Load resolves addr to its Loggable header and the address its payload
// begins at. It implements patricia.Loader.
func (t *Tree) Load(addr Address) (Loggable, Address, error) {
	l, err := t.src.GetLoggable(addr)
	if err != nil {
		return Loggable{}, NullAddress, err
	}
	if !l.Tag.IsPatriciaNode() {
		return Loggable{}, NullAddress, ErrInvalidAddress
	}
	return l, t.src.DataAddress(l), nil
}

// PageSource exposes the underlying page source, used by patricia.View to
// build cursors over a node's payload.
func (t *Tree) PageSource() PageSource {
	return t.src
}
