package logstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryPageSourceAppendAndRead(t *testing.T) {
	src := NewMemoryPageSource()
	addr := src.Append(NewTypeTag(true, false, true), []byte{0x01, 0x02, 0x03})

	require.Equal(t, Address(0), addr)
	require.Equal(t, Address(4), src.Len())

	l, err := src.GetLoggable(addr)
	require.NoError(t, err)
	require.True(t, l.Tag.IsPatriciaNode())
	require.True(t, l.Tag.HasValue())
	require.True(t, l.Tag.IsRoot())
	require.False(t, l.Tag.HasChildren())

	data := src.DataAddress(l)
	require.Equal(t, Address(1), data)

	b, err := src.ByteAt(uint64(data))
	require.NoError(t, err)
	require.Equal(t, byte(0x01), b)
}

func TestMemoryPageSourceInvalidAddress(t *testing.T) {
	src := NewMemoryPageSource()
	_, err := src.GetLoggable(42)
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestTreeLoadRejectsNonPatriciaRecord(t *testing.T) {
	src := NewMemoryPageSource()
	addr := src.Append(TypeTag(0), nil)
	tree := NewTree(src, addr)

	_, _, err := tree.Load(addr)
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestTreeLoadResolvesPatriciaRecord(t *testing.T) {
	src := NewMemoryPageSource()
	addr := src.Append(NewTypeTag(false, true, true), []byte{0xAA})
	tree := NewTree(src, addr)

	l, dataAddr, err := tree.Load(addr)
	require.NoError(t, err)
	require.Equal(t, addr, l.Addr)
	require.Equal(t, addr+1, dataAddr)
	require.Equal(t, addr, tree.Root())
}
