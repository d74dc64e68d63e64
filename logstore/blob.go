package logstore

import (
	"context"
	"io"
	"sync"

	"github.com/datatrails/go-datatrails-common/azblob"

	"github.com/datatrails/go-patriciakv/bytecursor"
)

// blobReader is the subset of github.com/datatrails/go-datatrails-common's
// blob reader client this package depends on, mirrored from the teacher's
// logBlobReader interface so BlobPageSource can be tested against a fake.
type blobReader interface {
	Reader(ctx context.Context, identity string, opts ...azblob.Option) (*azblob.ReaderResponse, error)
}

// BlobPageSource is a PageSource backed by a single append-only Azure Blob
// Storage blob. It reads the whole blob on first access and serves byte and
// cursor reads out of the cached bytes, matching the teacher's
// LogBlobContext.ReadData read-then-cache idiom.
type BlobPageSource struct {
	ctx    context.Context
	store  blobReader
	blobID string

	mu   sync.RWMutex
	data []byte
}

// NewBlobPageSource returns a PageSource that lazily reads identity from
// store on first use.
func NewBlobPageSource(ctx context.Context, store blobReader, identity string) *BlobPageSource {
	return &BlobPageSource{ctx: ctx, store: store, blobID: identity}
}

// Refresh re-reads the backing blob, picking up bytes appended since the
// last Refresh or construction. Callers invoke this after learning (out of
// band, e.g. from a committed-generation notification) that the log has
// grown.
func (b *BlobPageSource) Refresh() error {
	rr, err := b.store.Reader(b.ctx, b.blobID)
	if err != nil {
		return err
	}
	defer rr.Reader.Close()
	data, err := io.ReadAll(rr.Reader)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = data
	return nil
}

func (b *BlobPageSource) ensureLoaded() error {
	b.mu.RLock()
	loaded := b.data != nil
	b.mu.RUnlock()
	if loaded {
		return nil
	}
	return b.Refresh()
}

// ByteAt implements bytecursor.PageSource.
func (b *BlobPageSource) ByteAt(offset uint64) (byte, error) {
	if err := b.ensureLoaded(); err != nil {
		return 0, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if offset >= uint64(len(b.data)) {
		return 0, bytecursor.ErrEndOfInput
	}
	return b.data[offset], nil
}

// NextLong implements bytecursor.RandomAccessSource.
func (b *BlobPageSource) NextLong(offset uint64, length int) (uint64, error) {
	c := bytecursor.New(b, offset)
	return c.NextLong(length)
}

// GetLoggable implements PageSource.
func (b *BlobPageSource) GetLoggable(addr Address) (Loggable, error) {
	tag, err := b.ByteAt(uint64(addr))
	if err != nil {
		return Loggable{}, ErrInvalidAddress
	}
	return Loggable{Addr: addr, Tag: TypeTag(tag)}, nil
}

// DataAddress implements PageSource.
func (b *BlobPageSource) DataAddress(l Loggable) Address {
	return l.Addr + 1
}

// Cursor implements PageSource.
func (b *BlobPageSource) Cursor(addr Address) *bytecursor.Cursor {
	return bytecursor.New(b, uint64(addr))
}

// RandomAccessCursor implements PageSource.
func (b *BlobPageSource) RandomAccessCursor(addr Address) *bytecursor.RandomAccessCursor {
	return bytecursor.NewRandomAccess(b, uint64(addr))
}
