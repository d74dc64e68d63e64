package logstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/datatrails/go-datatrails-common/azblob"
	"gotest.tools/v3/assert"

	"github.com/datatrails/go-patriciakv/bytecursor"
)

type fakeBlobReader struct {
	data []byte
	err  error
	n    int
}

func (f *fakeBlobReader) Reader(ctx context.Context, identity string, opts ...azblob.Option) (*azblob.ReaderResponse, error) {
	f.n++
	if f.err != nil {
		return nil, f.err
	}
	return &azblob.ReaderResponse{Reader: io.NopCloser(strings.NewReader(string(f.data)))}, nil
}

func TestBlobPageSourceLazyLoadsOnFirstAccess(t *testing.T) {
	fake := &fakeBlobReader{data: []byte{0x01, 0x02, 0x03}}
	src := NewBlobPageSource(context.Background(), fake, "blob-0")

	b, err := src.ByteAt(1)
	assert.NilError(t, err)
	assert.Equal(t, byte(0x02), b)
	assert.Equal(t, 1, fake.n)

	_, err = src.ByteAt(0)
	assert.NilError(t, err)
	assert.Equal(t, 1, fake.n, "second read must not re-fetch the blob")
}

func TestBlobPageSourceRefreshPicksUpAppendedBytes(t *testing.T) {
	fake := &fakeBlobReader{data: []byte{0x01}}
	src := NewBlobPageSource(context.Background(), fake, "blob-0")

	_, err := src.ByteAt(0)
	assert.NilError(t, err)

	fake.data = []byte{0x01, 0x02}
	assert.NilError(t, src.Refresh())

	b, err := src.ByteAt(1)
	assert.NilError(t, err)
	assert.Equal(t, byte(0x02), b)
	assert.Equal(t, 2, fake.n)
}

func TestBlobPageSourceByteAtOutOfRange(t *testing.T) {
	fake := &fakeBlobReader{data: []byte{0x01}}
	src := NewBlobPageSource(context.Background(), fake, "blob-0")

	_, err := src.ByteAt(5)
	assert.ErrorIs(t, err, bytecursor.ErrEndOfInput)
}
