// Package bytecursor provides pull-style readers over a logical byte range
// addressed by a PageSource. Cursors never copy the underlying page; callers
// must keep the page pinned for as long as a cursor (or anything derived
// from it) is in use.
package bytecursor

import "errors"

// ErrEndOfInput is returned by Next when the cursor has no bytes left.
var ErrEndOfInput = errors.New("bytecursor: end of input")

// PageSource supplies the raw bytes a Cursor reads from, addressed by an
// absolute byte offset into the log.
type PageSource interface {
	// ByteAt returns the byte at the given absolute offset.
	ByteAt(offset uint64) (byte, error)
}

// Cursor is a forward-only reader positioned at a logical address within a
// PageSource.
type Cursor struct {
	src    PageSource
	pos    uint64
	end    uint64
	hasEnd bool
}

// New creates a forward-only cursor starting at pos with no declared end;
// HasNext reports true until the underlying PageSource errors on read.
func New(src PageSource, pos uint64) *Cursor {
	return &Cursor{src: src, pos: pos}
}

// NewBounded creates a forward-only cursor over [pos, end).
func NewBounded(src PageSource, pos, end uint64) *Cursor {
	return &Cursor{src: src, pos: pos, end: end, hasEnd: true}
}

// Address returns the cursor's current logical position.
func (c *Cursor) Address() uint64 { return c.pos }

// HasNext reports whether at least one more byte is available.
func (c *Cursor) HasNext() bool {
	if c.hasEnd {
		return c.pos < c.end
	}
	_, err := c.src.ByteAt(c.pos)
	return err == nil
}

// Next reads one byte and advances the cursor by one.
func (c *Cursor) Next() (byte, error) {
	if c.hasEnd && c.pos >= c.end {
		return 0, ErrEndOfInput
	}
	b, err := c.src.ByteAt(c.pos)
	if err != nil {
		return 0, ErrEndOfInput
	}
	c.pos++
	return b, nil
}

// Skip advances the cursor by up to n bytes, returning the number actually
// skipped. The result is undefined for non-positive n. Skip returns 0 once
// the cursor is exhausted.
func (c *Cursor) Skip(n int) int {
	if n <= 0 {
		return 0
	}
	skipped := 0
	for skipped < n {
		if _, err := c.Next(); err != nil {
			break
		}
		skipped++
	}
	return skipped
}

// NextLong decodes len bytes big-endian into an unsigned 64-bit value and
// advances the cursor by len. len must be in [0,8]; the caller guarantees
// that many bytes remain.
func (c *Cursor) NextLong(length int) (uint64, error) {
	if length < 0 || length > 8 {
		return 0, errInvalidLength
	}
	var v uint64
	for i := 0; i < length; i++ {
		b, err := c.Next()
		if err != nil {
			return 0, err
		}
		v = (v << 8) | uint64(b)
	}
	return v, nil
}

var errInvalidLength = errors.New("bytecursor: length must be in [0,8]")
