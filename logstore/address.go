// Package logstore implements the tree read façade (spec.md §4.D): it
// resolves a logical Address to the Loggable record at that offset in an
// append-only log, and hands back immutable Patricia node views (package
// patricia) built over the record's payload.
//
// The log page accessor itself — spec.md §6's "Log page accessor
// (consumed)" — is the PageSource interface in this package, with two
// concrete implementations: MemoryPageSource for tests and embedders that
// do not need durability, and BlobPageSource backed by Azure Blob Storage.
package logstore

// Address is an opaque 64-bit offset into the append-only log.
type Address uint64

// NullAddress is the sentinel address denoting "none".
const NullAddress Address = ^Address(0)

// IsNull reports whether a is the sentinel NullAddress.
func (a Address) IsNull() bool { return a == NullAddress }
