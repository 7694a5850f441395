package objfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/src-d/gitdb/plumbing"
	packutil "github.com/src-d/gitdb/plumbing/format/packfile/util"
	"github.com/src-d/gitdb/utils/binary"
	gogitsync "github.com/src-d/gitdb/utils/sync"
)

// Reader reads and decodes a loose object, either from the modern
// zlib-compressed "<type> <size>\x00<payload>" framing, or from the
// legacy all-in-one compressed form that predates it, in which the
// inflated stream opens directly with the same packed type+size header
// a packfile entry uses (see plumbing/format/packfile/util) instead of
// an ASCII token. The two are told apart by sniffing the first
// inflated byte: every modern type token starts with a lowercase
// letter, which can never be mistaken for the legacy header's encoding
// of a valid object type. No write path produces the legacy form; it
// exists only to read historical repositories.
type Reader struct {
	zr  *gogitsync.ZLibReader
	br  *bufio.Reader
	typ plumbing.ObjectType
	size int64

	hasher      plumbing.Hasher
	headersDone bool
}

// NewReader returns a Reader that decodes the objfile-encoded object
// read from r. r must begin with a valid zlib stream; NewReader
// returns an error if it does not.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := gogitsync.GetZlibReader(r)
	if err != nil {
		return nil, fmt.Errorf("zlib reading error: %s", err)
	}

	return &Reader{
		zr: zr,
		br: bufio.NewReader(zr),
	}, nil
}

// Header reads the object's type and size from its header. It may be
// called more than once; subsequent calls return the cached values.
func (r *Reader) Header() (t plumbing.ObjectType, size int64, err error) {
	if r.headersDone {
		return r.typ, r.size, nil
	}

	first, err := r.br.Peek(1)
	if err != nil {
		return plumbing.InvalidObject, 0, fmt.Errorf("%w: %s", ErrHeader, err)
	}

	if isLegacyHeaderByte(first[0]) {
		t, size, err = r.readLegacyHeader()
	} else {
		t, size, err = r.readModernHeader()
	}
	if err != nil {
		return plumbing.InvalidObject, 0, err
	}

	r.typ = t
	r.size = size
	r.headersDone = true
	r.hasher = plumbing.NewHasher(t, size)

	return t, size, nil
}

// isLegacyHeaderByte reports whether b can only be the first byte of a
// legacy, packed-style object header: every modern header opens with
// one of "blob", "commit", "tag", "tree", all lowercase ASCII letters.
func isLegacyHeaderByte(b byte) bool {
	return b < 'a' || b > 'z'
}

func (r *Reader) readModernHeader() (plumbing.ObjectType, int64, error) {
	typ, err := binary.ReadUntilFromBufioReader(r.br, ' ')
	if err != nil {
		return plumbing.InvalidObject, 0, fmt.Errorf("%w: %s", ErrHeader, err)
	}

	t, err := plumbing.ParseObjectType(string(typ))
	if err != nil {
		return plumbing.InvalidObject, 0, fmt.Errorf("%w: %s", ErrHeader, err)
	}

	sz, err := binary.ReadUntilFromBufioReader(r.br, 0)
	if err != nil {
		return plumbing.InvalidObject, 0, fmt.Errorf("%w: %s", ErrHeader, err)
	}

	size, err := strconv.ParseInt(string(sz), 10, 64)
	if err != nil {
		return plumbing.InvalidObject, 0, fmt.Errorf("%w: %s", ErrHeader, err)
	}

	return t, size, nil
}

// readLegacyHeader parses the all-in-one header: a single byte whose
// top 3 content bits (mask 0x70) give the object type and whose low 4
// bits begin a little-endian variable-length size, continued over
// following bytes exactly as a packfile entry header is.
func (r *Reader) readLegacyHeader() (plumbing.ObjectType, int64, error) {
	first, err := r.br.ReadByte()
	if err != nil {
		return plumbing.InvalidObject, 0, fmt.Errorf("%w: %s", ErrHeader, err)
	}

	t := packutil.ObjectType(first)
	switch t {
	case plumbing.CommitObject, plumbing.TreeObject, plumbing.BlobObject, plumbing.TagObject:
	default:
		return plumbing.InvalidObject, 0, fmt.Errorf("%w: invalid legacy object type %d", ErrHeader, t)
	}

	size, err := packutil.VariableLengthSize(first, r.br)
	if err != nil {
		return plumbing.InvalidObject, 0, fmt.Errorf("%w: %s", ErrHeader, err)
	}

	return t, int64(size), nil
}

// Read implements io.Reader, returning the object's decompressed
// payload and feeding it to the running hash so Hash reflects the
// bytes read so far.
func (r *Reader) Read(p []byte) (int, error) {
	if !r.headersDone {
		if _, _, err := r.Header(); err != nil {
			return 0, err
		}
	}

	n, err := r.br.Read(p)
	if n > 0 {
		r.hasher.Write(p[:n])
	}

	return n, err
}

// Hash returns the hash of the object read so far. It is only
// meaningful once the whole payload has been consumed.
func (r *Reader) Hash() plumbing.Hash {
	return r.hasher.Sum()
}

// Close releases the Reader's pooled resources.
func (r *Reader) Close() error {
	err := r.zr.Close()
	gogitsync.PutZlibReader(r.zr)
	return err
}
