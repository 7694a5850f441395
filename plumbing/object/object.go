// Package object implements the four object kinds stored in the
// database — blobs, trees, commits, and tags — as typed views over an
// plumbing.EncodedObject: decoding parses the canonical byte form,
// encoding regenerates it byte-for-byte.
package object

import (
	"errors"
	"io"

	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/plumbing/storer"
)

// ErrUnsupportedObject is returned by DecodeObject when asked to
// decode an object whose Type() is not one of the four known kinds.
var ErrUnsupportedObject = errors.New("unsupported object type")

// ErrObjectFormat is returned when an object's bytes parse but violate
// a structural rule enforced in strict mode: an unsorted tree, a
// leading-zero or non-octal tree entry mode, or a duplicate tree entry
// name.
var ErrObjectFormat = errors.New("object format error")

// Object is satisfied by every decoded object kind.
type Object interface {
	ID() plumbing.Hash
	Type() plumbing.ObjectType
	// Decode populates the receiver from the raw object o.
	Decode(o plumbing.EncodedObject) error
	// Encode serializes the receiver's canonical byte form into o.
	Encode(o plumbing.EncodedObject) error
}

// DecodeObject decodes o into the appropriate concrete type (*Blob,
// *Tree, *Commit, *Tag) based on o.Type().
func DecodeObject(o plumbing.EncodedObject) (Object, error) {
	switch o.Type() {
	case plumbing.BlobObject:
		b := &Blob{}
		return b, b.Decode(o)
	case plumbing.TreeObject:
		t := &Tree{}
		return t, t.Decode(o)
	case plumbing.CommitObject:
		c := &Commit{}
		return c, c.Decode(o)
	case plumbing.TagObject:
		t := &Tag{}
		return t, t.Decode(o)
	default:
		return nil, ErrUnsupportedObject
	}
}

// GetCommit resolves h against s and decodes it as a Commit.
func GetCommit(s storer.EncodedObjectStorer, h plumbing.Hash) (*Commit, error) {
	o, err := s.EncodedObject(plumbing.CommitObject, h)
	if err != nil {
		return nil, err
	}

	c := &Commit{}
	return c, c.Decode(o)
}

// GetTree resolves h against s and decodes it as a Tree.
func GetTree(s storer.EncodedObjectStorer, h plumbing.Hash) (*Tree, error) {
	o, err := s.EncodedObject(plumbing.TreeObject, h)
	if err != nil {
		return nil, err
	}

	t := &Tree{}
	return t, t.Decode(o)
}

// GetBlob resolves h against s and decodes it as a Blob.
func GetBlob(s storer.EncodedObjectStorer, h plumbing.Hash) (*Blob, error) {
	o, err := s.EncodedObject(plumbing.BlobObject, h)
	if err != nil {
		return nil, err
	}

	b := &Blob{}
	return b, b.Decode(o)
}

// GetTag resolves h against s and decodes it as a Tag.
func GetTag(s storer.EncodedObjectStorer, h plumbing.Hash) (*Tag, error) {
	o, err := s.EncodedObject(plumbing.TagObject, h)
	if err != nil {
		return nil, err
	}

	t := &Tag{}
	return t, t.Decode(o)
}

func readAll(o plumbing.EncodedObject) ([]byte, error) {
	r, err := o.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func writeAll(o plumbing.EncodedObject, b []byte) error {
	w, err := o.Writer()
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = w.Write(b)
	return err
}
