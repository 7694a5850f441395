package plumbing

import (
	"bytes"
	"errors"
	"io"
)

var ErrEmptyObject = errors.New("object is empty")

// MemoryObject is an EncodedObject implementation that keeps the
// entire object content buffered in memory. It is what packfile
// decoding and delta reconstruction produce, and what callers use to
// stage a new object before writing it to a store.
type MemoryObject struct {
	t    ObjectType
	h    Hash
	sz   int64
	cont bytes.Buffer
}

// NewMemoryObject returns an empty MemoryObject.
func NewMemoryObject() *MemoryObject {
	return &MemoryObject{}
}

func (o *MemoryObject) Hash() Hash { return o.h }

func (o *MemoryObject) Type() ObjectType      { return o.t }
func (o *MemoryObject) SetType(t ObjectType)  { o.t = t }
func (o *MemoryObject) Size() int64           { return o.sz }
func (o *MemoryObject) SetSize(s int64) {
	o.sz = s
}

// Reader returns a new reader over the full buffered content.
func (o *MemoryObject) Reader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(o.cont.Bytes())), nil
}

// Writer returns a writer that appends to the buffered content and
// recomputes the object's hash as bytes are written.
func (o *MemoryObject) Writer() (io.WriteCloser, error) {
	return &memoryObjectWriter{o: o}, nil
}

// Write appends p to the buffered content and updates the hash. It
// lets MemoryObject itself be used directly as an io.Writer, which is
// convenient when the caller already knows the declared size and type.
func (o *MemoryObject) Write(p []byte) (int, error) {
	n, err := o.cont.Write(p)
	if err != nil {
		return n, err
	}

	o.h = Sum(o.t, o.cont.Bytes())
	return n, nil
}

// Sum computes the Hash of content under the given type, the same way
// an object is hashed when it is written to the store.
func Sum(t ObjectType, content []byte) Hash {
	h := NewHasher(t, int64(len(content)))
	h.Write(content)
	return h.Sum()
}

type memoryObjectWriter struct {
	o *MemoryObject
}

func (w *memoryObjectWriter) Write(p []byte) (int, error) {
	return w.o.Write(p)
}

func (w *memoryObjectWriter) Close() error {
	return nil
}
