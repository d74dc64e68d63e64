package logstore

import (
	"errors"

	"github.com/datatrails/go-patriciakv/bytecursor"
)

// ErrInvalidAddress is returned when an address does not resolve to a
// Patricia-node loggable: either the underlying page has no readable byte
// there, or the type tag it finds is not a Patricia node.
var ErrInvalidAddress = errors.New("logstore: invalid address")

// ErrInvalidAddressLength is returned when a node's children header decodes
// to a childAddressLength outside [1,8]. It is a fatal, log-corruption-
// indicating error: the store should refuse further reads once seen.
var ErrInvalidAddressLength = errors.New("logstore: invalid child address length")

// PageSource is the log page accessor (spec.md §6, "Log page accessor
// (consumed)"): it resolves a logical Address to the Loggable at that
// address and supplies byte-level access to the page for constructing
// Patricia node views over the loggable's payload.
type PageSource interface {
	bytecursor.RandomAccessSource

	// GetLoggable reads the type tag at addr and returns the Loggable header
	// describing the record stored there.
	GetLoggable(addr Address) (Loggable, error)

	// DataAddress returns the address of the first payload byte following
	// l's type tag, i.e. where the key-suffix length prefix begins.
	DataAddress(l Loggable) Address

	// Cursor returns a forward-only cursor positioned at addr.
	Cursor(addr Address) *bytecursor.Cursor

	// RandomAccessCursor returns a random-access cursor positioned at addr.
	RandomAccessCursor(addr Address) *bytecursor.RandomAccessCursor
}
