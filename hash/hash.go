// Package hash implements the content-addressing scheme used to name
// every object in the store: a 160-bit identifier derived from the
// object's type, size and payload.
package hash

import (
	"bytes"
	"crypto"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sort"
	"strconv"

	// Registers the collision-detecting SHA-1 implementation under
	// crypto.SHA1, in place of the stdlib one, so crypto.SHA1.New()
	// below picks it up.
	_ "github.com/pjbgf/sha1cd"
)

// Size is the length in bytes of an ObjectId.
const Size = 20

// HexSize is the length of an ObjectId's hexadecimal string form.
const HexSize = Size * 2

// ObjectId is the 160-bit identifier of an object: the SHA-1 digest of
// its canonical "<kind> <size>\x00<payload>" hash-input form.
type ObjectId [Size]byte

// Zero is the all-zero ObjectId, used as a sentinel for "no object"
// (e.g. an unborn branch's HEAD).
var Zero ObjectId

// IsZero reports whether id is the all-zero sentinel.
func (id ObjectId) IsZero() bool {
	return id == Zero
}

// String returns the lowercase hexadecimal representation of id.
func (id ObjectId) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 20 bytes of id.
func (id ObjectId) Bytes() []byte {
	return id[:]
}

// Size returns the width in bytes of id, for callers that size a
// decoder or index off an existing hash rather than the package
// constant directly.
func (id ObjectId) Size() int {
	return Size
}

// Compare orders two ObjectIds byte-for-byte, matching the order used
// by the pack index fanout table and sorted ref lists.
func (id ObjectId) Compare(other ObjectId) int {
	return bytes.Compare(id[:], other[:])
}

// Reset zeroes id in place.
func (id *ObjectId) Reset() {
	*id = ObjectId{}
}

// ResetBySize zeroes id in place. The size argument is accepted for
// symmetry with formats that support more than one digest width; this
// store only ever deals in 20-byte SHA-1 ids, so it is otherwise
// unused here.
func (id *ObjectId) ResetBySize(size int) {
	id.Reset()
}

// ReadFrom reads Size bytes from r into id, implementing io.ReaderFrom
// so a Hash can be filled directly off a packfile or index stream.
func (id *ObjectId) ReadFrom(r io.Reader) (int64, error) {
	n, err := io.ReadFull(r, id[:])
	return int64(n), err
}

// CompareBytes orders id against a raw digest, as used when checking
// a packfile trailer against the running checksum.
func (id ObjectId) CompareBytes(other []byte) int {
	return bytes.Compare(id[:], other)
}

// HasPrefix reports whether id begins with the given hex prefix,
// supporting abbreviated object-id resolution.
func (id ObjectId) HasPrefix(hexPrefix string) bool {
	full := id.String()
	if len(hexPrefix) > len(full) {
		return false
	}
	return full[:len(hexPrefix)] == hexPrefix
}

// FromHex parses a 40-character hexadecimal string into an ObjectId. An
// invalid or short string yields a zero ObjectId and a non-nil error.
func FromHex(s string) (ObjectId, error) {
	var id ObjectId
	if len(s) != HexSize {
		return id, fmt.Errorf("hash: invalid hex length %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("hash: %w", err)
	}
	copy(id[:], b)
	return id, nil
}

// MustFromHex is like FromHex but panics on error; it exists for
// constructing well-known ids (fixtures, tests) from literals.
func MustFromHex(s string) ObjectId {
	id, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Kind identifies which of the four object kinds a hash-input belongs
// to. It mirrors the header token written before a NUL and the size.
type Kind string

const (
	KindBlob   Kind = "blob"
	KindTree   Kind = "tree"
	KindCommit Kind = "commit"
	KindTag    Kind = "tag"
)

// Sum computes the ObjectId of content under the given kind, using the
// canonical "<kind> <len>\x00<content>" hash input.
func Sum(kind Kind, content []byte) ObjectId {
	h := New(kind, int64(len(content)))
	h.Write(content)
	return h.Sum()
}

// Hasher incrementally computes an ObjectId the way an object writer
// does: the header is written once up front, then payload bytes are
// streamed through Write.
type Hasher struct {
	hash.Hash
}

// New returns a Hasher primed with the canonical header for kind and
// size; subsequent Write calls feed it the object payload.
func New(kind Kind, size int64) Hasher {
	h := Hasher{Hash: crypto.SHA1.New()}
	h.Write([]byte(kind))
	h.Write([]byte{' '})
	h.Write([]byte(strconv.FormatInt(size, 10)))
	h.Write([]byte{0})
	return h
}

// Sum finalizes the hash and returns the resulting ObjectId.
func (h Hasher) Sum() (id ObjectId) {
	copy(id[:], h.Hash.Sum(nil))
	return id
}

// Slice attaches sort.Interface to a slice of ObjectId, ascending.
type Slice []ObjectId

func (s Slice) Len() int           { return len(s) }
func (s Slice) Less(i, j int) bool { return s[i].Compare(s[j]) < 0 }
func (s Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// Sort sorts ids in ascending order.
func Sort(ids []ObjectId) { sort.Sort(Slice(ids)) }
