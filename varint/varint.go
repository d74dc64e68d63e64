// Package varint implements the compressed-unsigned-long codec used by the
// Patricia node format: 7 data bits per byte, with the high bit of a byte
// set marking the final byte of the encoding.
package varint

import (
	"errors"

	"github.com/datatrails/go-patriciakv/bytecursor"
)

// ErrOverflow is returned when decoding consumes more than 9 bytes without
// finding a terminating byte.
var ErrOverflow = errors.New("varint: overflow, more than 9 bytes")

// ErrTruncated is returned when the cursor is exhausted before a
// terminating byte is found.
var ErrTruncated = errors.New("varint: truncated, cursor exhausted")

// maxBytes bounds decode and encode: 9 bytes of 7 bits each cover 63 bits,
// i.e. values in [0, 2^63-1], matching the Java implementation's overflow
// check.
const maxBytes = 9

// DecodeUint64 reads a compressed unsigned long from c: 7-bit groups
// accumulate into a 64-bit unsigned value; the final byte (top bit set)
// contributes its low 7 bits.
func DecodeUint64(c *bytecursor.Cursor) (uint64, error) {
	var result uint64
	for i := 0; i < maxBytes; i++ {
		b, err := c.Next()
		if err != nil {
			return 0, ErrTruncated
		}
		result = (result << 7) | uint64(b&0x7f)
		if b&0x80 != 0 {
			return result, nil
		}
	}
	return 0, ErrOverflow
}

// EncodeUint64 appends the minimal-length compressed-unsigned-long encoding
// of v to dst and returns the extended slice. v must fit in 9 groups of 7
// bits (i.e. v < 2^63); larger values return ErrOverflow, mirroring the
// decode-side bound (see DESIGN.md for why the representable domain is
// [0, 2^63-1] rather than the full uint64 range).
func EncodeUint64(dst []byte, v uint64) ([]byte, error) {
	var buf [maxBytes]byte
	n := 0
	buf[n] = byte(v & 0x7f)
	n++
	v >>= 7
	for v != 0 {
		if n == maxBytes {
			return dst, ErrOverflow
		}
		buf[n] = byte(v & 0x7f)
		n++
		v >>= 7
	}
	// buf[0..n) holds the groups least-significant-first. The wire format is
	// most-significant-group first, with the least-significant group
	// transmitted last and flagged as the terminator.
	buf[0] |= 0x80
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, buf[i])
	}
	return dst, nil
}

// PackChildHeader encodes (childrenCount, childAddressLength) into the
// single compressed unsigned long value stored in a Patricia node's
// children header: (childrenCount << 3) | (childAddressLength - 1).
// childAddressLength must be in [1,8].
func PackChildHeader(childrenCount uint32, childAddressLength int) uint64 {
	return (uint64(childrenCount) << 3) | uint64(childAddressLength-1)
}

// UnpackChildHeader decodes a children-header value into
// (childrenCount, childAddressLength).
func UnpackChildHeader(i uint64) (childrenCount uint32, childAddressLength int) {
	childrenCount = uint32(i >> 3)
	childAddressLength = int(i&7) + 1
	return
}
