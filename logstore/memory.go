package logstore

import (
	"sync"

	"github.com/datatrails/go-patriciakv/bytecursor"
)

// MemoryPageSource is an in-memory, append-only PageSource. It backs tests
// and embedders that do not need the log to survive process restarts.
type MemoryPageSource struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryPageSource returns an empty in-memory page source.
func NewMemoryPageSource() *MemoryPageSource {
	return &MemoryPageSource{}
}

// ByteAt implements bytecursor.PageSource.
func (m *MemoryPageSource) ByteAt(offset uint64) (byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if offset >= uint64(len(m.data)) {
		return 0, bytecursor.ErrEndOfInput
	}
	return m.data[offset], nil
}

// NextLong implements bytecursor.RandomAccessSource.
func (m *MemoryPageSource) NextLong(offset uint64, length int) (uint64, error) {
	c := bytecursor.New(m, offset)
	return c.NextLong(length)
}

// GetLoggable implements PageSource.
func (m *MemoryPageSource) GetLoggable(addr Address) (Loggable, error) {
	b, err := m.ByteAt(uint64(addr))
	if err != nil {
		return Loggable{}, ErrInvalidAddress
	}
	return Loggable{Addr: addr, Tag: TypeTag(b)}, nil
}

// DataAddress implements PageSource.
func (m *MemoryPageSource) DataAddress(l Loggable) Address {
	return l.Addr + 1
}

// Cursor implements PageSource.
func (m *MemoryPageSource) Cursor(addr Address) *bytecursor.Cursor {
	return bytecursor.New(m, uint64(addr))
}

// RandomAccessCursor implements PageSource.
func (m *MemoryPageSource) RandomAccessCursor(addr Address) *bytecursor.RandomAccessCursor {
	return bytecursor.NewRandomAccess(m, uint64(addr))
}

// Len reports the number of bytes appended so far, i.e. the address at
// which the next record would be written.
func (m *MemoryPageSource) Len() Address {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Address(len(m.data))
}

// Append writes a raw record (tag byte followed by payload) to the end of
// the log and returns its address. It is the caller's responsibility to
// encode payload in the Patricia node format (spec.md §3).
func (m *MemoryPageSource) Append(tag TypeTag, payload []byte) Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := Address(len(m.data))
	m.data = append(m.data, byte(tag))
	m.data = append(m.data, payload...)
	return addr
}
