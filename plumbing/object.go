// Package plumbing holds the low-level types shared by every layer of
// the object-store engine: the object kind enum, the EncodedObject
// contract loose and packed storage both implement, and the sentinel
// errors callers match against.
package plumbing

import (
	"errors"
	"io"

	"github.com/src-d/gitdb/hash"
)

// Hash is the identifier used throughout the store to name an object.
type Hash = hash.ObjectId

// NewHash parses a hex string into a Hash, returning the zero Hash on
// malformed input.
func NewHash(s string) Hash {
	h, _ := hash.FromHex(s)
	return h
}

// ZeroHash is the all-zero Hash, used as a sentinel for "no object".
var ZeroHash Hash = hash.Zero

// Hasher incrementally computes the Hash of an object, the way a
// writer does: reset with the object's declared type and size, then
// fed its payload a chunk at a time.
type Hasher struct {
	hash.Hasher
}

// NewHasher returns a Hasher primed for an object of type t and the
// given size.
func NewHasher(t ObjectType, size int64) Hasher {
	return Hasher{Hasher: hash.New(t.ToKind(), size)}
}

// Reset reprimes the hasher for a new object without allocating.
func (h *Hasher) Reset(t ObjectType, size int64) {
	h.Hasher = hash.New(t.ToKind(), size)
}

// Sum finalizes the hash and returns the resulting Hash.
func (h Hasher) Sum() Hash {
	return h.Hasher.Sum()
}

var (
	// ErrObjectNotFound is returned when no store in a composite chain
	// holds the requested object.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidType is returned when a type byte or header token does
	// not name one of the four object kinds.
	ErrInvalidType = errors.New("invalid object type")
	// ErrInvalidObject is returned when an object's bytes fail to
	// parse as its declared kind.
	ErrInvalidObject = errors.New("invalid object")
	// ErrZeroWrittenSize is returned when a hash claimed a size that a
	// subsequent write to the object does not match.
	ErrZeroWrittenSize = errors.New("size mismatch while writing object")
	// ErrReferenceNotFound is returned when a reference store has no
	// reference under the requested name, loose or packed.
	ErrReferenceNotFound = errors.New("reference not found")
)

// EncodedObject is the contract every object representation (loose
// file, pack entry, in-memory literal) satisfies: enough to compute
// its hash, stream its payload, and round-trip it byte-for-byte.
type EncodedObject interface {
	Hash() Hash
	Type() ObjectType
	SetType(ObjectType)
	Size() int64
	SetSize(int64)
	Reader() (io.ReadCloser, error)
	Writer() (io.WriteCloser, error)
}

// DeltaObject is an EncodedObject that is still in delta form: its
// Reader does not (yet) yield the reconstructed payload.
type DeltaObject interface {
	EncodedObject
	// BaseHash is the object this delta is applied against.
	BaseHash() Hash
	// ActualHash is the hash of the object once the delta is applied.
	ActualHash() Hash
	// ActualSize is the size of the object once the delta is applied.
	ActualSize() int64
}

// ObjectType is the kind tag stored in an object's header and in a
// pack entry's type bits.
type ObjectType int8

const (
	InvalidObject  ObjectType = 0
	CommitObject   ObjectType = 1
	TreeObject     ObjectType = 2
	BlobObject     ObjectType = 3
	TagObject      ObjectType = 4
	OFSDeltaObject ObjectType = 6
	REFDeltaObject ObjectType = 7

	// AnyObject matches every kind; used by iteration filters.
	AnyObject ObjectType = -127
)

func (t ObjectType) String() string {
	switch t {
	case CommitObject:
		return "commit"
	case TreeObject:
		return "tree"
	case BlobObject:
		return "blob"
	case TagObject:
		return "tag"
	case OFSDeltaObject:
		return "ofs-delta"
	case REFDeltaObject:
		return "ref-delta"
	case AnyObject:
		return "any"
	default:
		return "invalid"
	}
}

// Bytes is the byte form of the type's header token.
func (t ObjectType) Bytes() []byte { return []byte(t.String()) }

// Valid reports whether t is one of the four storable kinds or a
// delta marker.
func (t ObjectType) Valid() bool {
	return t == CommitObject || t == TreeObject || t == BlobObject ||
		t == TagObject || t == OFSDeltaObject || t == REFDeltaObject
}

// IsDelta reports whether t is one of the two delta encodings.
func (t ObjectType) IsDelta() bool {
	return t == REFDeltaObject || t == OFSDeltaObject
}

// ToKind maps a storable ObjectType to the header token used for
// hashing (hash.KindBlob etc). Delta types and AnyObject have no hash
// kind of their own; they map to the empty Kind.
func (t ObjectType) ToKind() hash.Kind {
	switch t {
	case CommitObject:
		return hash.KindCommit
	case TreeObject:
		return hash.KindTree
	case BlobObject:
		return hash.KindBlob
	case TagObject:
		return hash.KindTag
	default:
		return ""
	}
}

// ParseObjectType parses the textual header token of an object.
func ParseObjectType(s string) (ObjectType, error) {
	switch s {
	case "commit":
		return CommitObject, nil
	case "tree":
		return TreeObject, nil
	case "blob":
		return BlobObject, nil
	case "tag":
		return TagObject, nil
	case "ofs-delta":
		return OFSDeltaObject, nil
	case "ref-delta":
		return REFDeltaObject, nil
	default:
		return InvalidObject, ErrInvalidType
	}
}

// FileMode is the octal Unix-style mode recorded against a tree entry.
type FileMode uint32

const (
	Empty     FileMode = 0
	Dir       FileMode = 0040000
	Regular   FileMode = 0100644
	Deprecated FileMode = 0100664
	Executable FileMode = 0100755
	Symlink   FileMode = 0120000
	Submodule FileMode = 0160000
)

// IsFile reports whether m names a regular, executable, or (legacy)
// deprecated blob mode, as opposed to a directory, symlink, or gitlink.
func (m FileMode) IsFile() bool {
	return m == Regular || m == Deprecated || m == Executable
}
