// Package binary implements the integer and token readers shared by
// the pack and index decoders: fixed-width big-endian integers, the
// base-128 variable-width integer used for pack object sizes and
// offset-delta base offsets, and delimiter-terminated token reads.
package binary

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/src-d/gitdb/hash"
)

const (
	maskContinue = 0x80
	maskLength   = 0x7f
	shiftLength  = 7

	// sniffLen is the number of leading bytes IsBinary inspects before
	// giving up and assuming the content is text.
	sniffLen = 8000
)

// Read reads big-endian binary data from r into each of data in turn,
// the way a pack or index header's fixed-width fields are read.
func Read(r io.Reader, data ...interface{}) error {
	for _, v := range data {
		if err := binary.Read(r, binary.BigEndian, v); err != nil {
			return err
		}
	}

	return nil
}

// ReadUint32 reads a big-endian uint32.
func ReadUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := Read(r, &v); err != nil {
		return 0, err
	}

	return v, nil
}

// ReadUint16 reads a big-endian uint16.
func ReadUint16(r io.Reader) (uint16, error) {
	var v uint16
	if err := Read(r, &v); err != nil {
		return 0, err
	}

	return v, nil
}

// ReadHash reads size bytes from r into an ObjectId. size beyond
// hash.Size is read and discarded, so a caller that does not yet know
// the store's hash width can still consume the right number of bytes.
func ReadHash(r io.Reader, size int) (hash.ObjectId, error) {
	var id hash.ObjectId

	n := size
	if n > hash.Size {
		n = hash.Size
	}

	if _, err := io.ReadFull(r, id[:n]); err != nil {
		return hash.ObjectId{}, err
	}

	if size > hash.Size {
		if _, err := io.CopyN(io.Discard, r, int64(size-hash.Size)); err != nil {
			return hash.ObjectId{}, err
		}
	}

	return id, nil
}

// ReadVariableWidthInt reads the big-endian base-128 variable-width
// integer used to encode an offset-delta's base offset: each byte
// contributes 7 bits, high bit set means "one more byte follows", and
// every continuation byte after the first adds an implicit +1 bias
// (so the encoding never wastes a representation on offset 0 twice).
func ReadVariableWidthInt(r io.Reader) (int64, error) {
	var c byte
	if err := Read(r, &c); err != nil {
		return 0, err
	}

	var v = int64(c & maskLength)
	for c&maskContinue > 0 {
		v++
		if err := Read(r, &c); err != nil {
			return 0, err
		}
		v = (v << shiftLength) + int64(c&maskLength)
	}

	return v, nil
}

// ReadUntil reads from r until delim is found (which is consumed but
// not returned) or r is exhausted.
func ReadUntil(r io.Reader, delim byte) ([]byte, error) {
	if bufr, ok := r.(*bufio.Reader); ok {
		return ReadUntilFromBufioReader(bufr, delim)
	}

	var buf [1]byte
	value := make([]byte, 0, 16)
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if err == io.EOF {
				return value, err
			}

			return nil, err
		}

		if buf[0] == delim {
			return value, nil
		}

		value = append(value, buf[0])
	}
}

// ReadUntilFromBufioReader is like ReadUntil, specialized for
// *bufio.Reader so it can use ReadBytes instead of reading one byte at
// a time.
func ReadUntilFromBufioReader(r *bufio.Reader, delim byte) ([]byte, error) {
	value, err := r.ReadBytes(delim)
	if len(value) > 0 && value[len(value)-1] == delim {
		value = value[:len(value)-1]
	}

	return value, err
}

// IsBinary reports whether the first sniffLen bytes read from r
// contain a NUL byte, the same heuristic used to decide whether a
// working-tree file should be treated as text or opaque binary.
func IsBinary(r io.Reader) (bool, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}

	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true, nil
		}
	}

	return false, nil
}
