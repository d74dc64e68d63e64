package bytecursor

// RandomAccessSource is a PageSource that additionally allows reads at an
// arbitrary absolute offset without constructing a cursor first, and fixed
// width address decoding at a given offset.
type RandomAccessSource interface {
	PageSource
	// NextLong decodes length bytes big-endian starting at offset.
	NextLong(offset uint64, length int) (uint64, error)
}

// RandomAccessCursor is a Cursor that can additionally be re-seeked to an
// arbitrary absolute offset and read at absolute offsets without moving.
type RandomAccessCursor struct {
	Cursor
	src RandomAccessSource
}

// NewRandomAccess creates a random-access cursor positioned at an absolute
// offset.
func NewRandomAccess(src RandomAccessSource, pos uint64) *RandomAccessCursor {
	return &RandomAccessCursor{Cursor: Cursor{src: src, pos: pos}, src: src}
}

// At returns a new cursor seeked to the given absolute offset, leaving the
// receiver untouched.
func (c *RandomAccessCursor) At(offset uint64) *RandomAccessCursor {
	return NewRandomAccess(c.src, offset)
}

// ByteAtOffset reads the byte at an arbitrary absolute offset without
// moving the cursor.
func (c *RandomAccessCursor) ByteAtOffset(offset uint64) (byte, error) {
	return c.src.ByteAt(offset)
}

// LongAtOffset decodes length bytes big-endian at an arbitrary absolute
// offset without moving the cursor.
func (c *RandomAccessCursor) LongAtOffset(offset uint64, length int) (uint64, error) {
	return c.src.NextLong(offset, length)
}
