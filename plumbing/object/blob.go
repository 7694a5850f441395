package object

import (
	"io"

	"github.com/src-d/gitdb/plumbing"
)

// Blob stores the uninterpreted bytes of a single file. A Blob never
// buffers its content in memory; Reader streams straight from the
// underlying EncodedObject.
type Blob struct {
	hash plumbing.Hash
	size int64
	obj  plumbing.EncodedObject
}

func (b *Blob) ID() plumbing.Hash          { return b.hash }
func (b *Blob) Type() plumbing.ObjectType  { return plumbing.BlobObject }
func (b *Blob) Size() int64                { return b.size }

// Decode records the object's identity without reading its content;
// the payload is only pulled on demand via Reader.
func (b *Blob) Decode(o plumbing.EncodedObject) error {
	if o.Type() != plumbing.BlobObject {
		return plumbing.ErrInvalidType
	}

	b.hash = o.Hash()
	b.size = o.Size()
	b.obj = o
	return nil
}

// Encode writes the blob's content into o, replacing whatever content
// o carried before.
func (b *Blob) Encode(o plumbing.EncodedObject) error {
	o.SetType(plumbing.BlobObject)
	o.SetSize(b.size)

	r, err := b.Reader()
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := o.Writer()
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = io.Copy(w, r)
	return err
}

// Reader returns a stream of the blob's content.
func (b *Blob) Reader() (io.ReadCloser, error) {
	return b.obj.Reader()
}

// NewBlob returns a BlobBuilder for content, for callers building new
// objects rather than decoding existing ones.
func NewBlob(content []byte) *BlobBuilder {
	return &BlobBuilder{content: content}
}

// BlobBuilder produces an EncodedObject ready to be hashed and stored.
type BlobBuilder struct {
	content []byte
}

// Build writes the builder's content into o and returns o's hash.
func (bb *BlobBuilder) Build(o plumbing.EncodedObject) (plumbing.Hash, error) {
	o.SetType(plumbing.BlobObject)
	o.SetSize(int64(len(bb.content)))

	w, err := o.Writer()
	if err != nil {
		return plumbing.Hash{}, err
	}
	defer w.Close()

	if _, err := w.Write(bb.content); err != nil {
		return plumbing.Hash{}, err
	}

	return o.Hash(), nil
}
