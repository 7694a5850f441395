// Package storer defines the storage-facing contracts that every
// backend (filesystem, memory, or otherwise) must satisfy: object
// storage, reference storage, and the iterators used to walk both.
package storer

import (
	"io"

	"github.com/src-d/gitdb/plumbing"
)

// ErrStop is used to stop a ForEach function in an Iter.
var ErrStop = errorString("stop iter")

type errorString string

func (e errorString) Error() string { return string(e) }

// EncodedObjectStorer is the interface a storage backend implements to
// read, write, and enumerate objects by hash.
type EncodedObjectStorer interface {
	// NewEncodedObject returns a new EncodedObject, the real
	// implementation depends of the underlying storage.
	NewEncodedObject() plumbing.EncodedObject
	// SetEncodedObject saves an object into the storage, the object
	// hash is also returned.
	SetEncodedObject(plumbing.EncodedObject) (plumbing.Hash, error)
	// EncodedObject gets an object by hash with the given
	// plumbing.ObjectType. Implementors should return
	// (nil, plumbing.ErrObjectNotFound) if an object doesn't exist with
	// both the given hash and object type.
	//
	// Valid plumbing.ObjectType values are CommitObject, BlobObject, TagObject,
	// TreeObject and AnyObject. If plumbing.AnyObject is given, the object must
	// be looked up regardless of its type.
	EncodedObject(plumbing.ObjectType, plumbing.Hash) (plumbing.EncodedObject, error)
	// IterEncodedObjects returns an iterator for all the objects in the
	// storage with the given plumbing.ObjectType. The iterator returned
	// is not thread-safe, it should be used in the same thread as the
	// EncodedObjectStorer.
	IterEncodedObjects(plumbing.ObjectType) (EncodedObjectIter, error)
	// HasEncodedObject returns ErrObjNotFound if the object doesn't
	// exist. If the object does exist, it returns nil.
	HasEncodedObject(plumbing.Hash) error
	// EncodedObjectSize returns the plaintext size of the encoded object.
	EncodedObjectSize(plumbing.Hash) (int64, error)
	// RawObjectWriter returns a writer that an object's inflated
	// content can be streamed to directly, without buffering the whole
	// object in memory first; used while a packfile is being scanned.
	RawObjectWriter(typ plumbing.ObjectType, size int64) (io.WriteCloser, error)
}

// DeltaObjectStorer is implemented by storers that can return objects
// that are still in delta form.
type DeltaObjectStorer interface {
	// DeltaObject is like EncodedObject but without resolving deltas.
	// Non-delta objects are returned as is.
	DeltaObject(plumbing.ObjectType, plumbing.Hash) (plumbing.EncodedObject, error)
}

// Transactioner is implemented by storers that support object storage
// transactions.
type Transactioner interface {
	// Begin starts a transaction.
	Begin() Transaction
}

// Transaction is an in-progress storage transaction. A transaction must
// end with a call to Commit or Rollback.
type Transaction interface {
	SetEncodedObject(plumbing.EncodedObject) (plumbing.Hash, error)
	EncodedObject(plumbing.ObjectType, plumbing.Hash) (plumbing.EncodedObject, error)
	Commit() error
	Rollback() error
}

// PackfileWriter is implemented by storers that support direct writes
// of packfile data. If a Storer implements this interface, WritePackfile
// of the UpdateObjectStorage function of go-git will use it for a more
// efficient write path.
type PackfileWriter interface {
	// PackfileWriter returns a writer that a whole packfile can be
	// copied into; when the writer is closed, the storer indexes the
	// objects it received.
	PackfileWriter() (io.WriteCloser, error)
}

// EncodedObjectIter is a generic closable interface for iterating over
// EncodedObjects.
type EncodedObjectIter interface {
	Next() (plumbing.EncodedObject, error)
	ForEach(func(plumbing.EncodedObject) error) error
	Close()
}

// NewEncodedObjectLookupIter returns an iterator that yields the
// objects named by hashes, resolved one at a time through storage.
func NewEncodedObjectLookupIter(
	storage EncodedObjectStorer,
	t plumbing.ObjectType,
	series []plumbing.Hash,
) EncodedObjectIter {
	return &encodedObjectLookupIter{storage: storage, t: t, series: series}
}

type encodedObjectLookupIter struct {
	storage EncodedObjectStorer
	t       plumbing.ObjectType
	series  []plumbing.Hash
	pos     int
}

func (iter *encodedObjectLookupIter) Next() (plumbing.EncodedObject, error) {
	if iter.pos >= len(iter.series) {
		return nil, io.EOF
	}

	obj, err := iter.storage.EncodedObject(iter.t, iter.series[iter.pos])
	if err != nil {
		return nil, err
	}

	iter.pos++
	return obj, nil
}

func (iter *encodedObjectLookupIter) ForEach(cb func(plumbing.EncodedObject) error) error {
	return ForEachIterator(iter, cb)
}

func (iter *encodedObjectLookupIter) Close() {
	iter.pos = len(iter.series)
}

// NewEncodedObjectSliceIter returns an iterator that yields the given
// objects in order.
func NewEncodedObjectSliceIter(series []plumbing.EncodedObject) EncodedObjectIter {
	return &encodedObjectSliceIter{series: series}
}

type encodedObjectSliceIter struct {
	series []plumbing.EncodedObject
}

func (iter *encodedObjectSliceIter) Next() (plumbing.EncodedObject, error) {
	if len(iter.series) == 0 {
		return nil, io.EOF
	}

	obj := iter.series[0]
	iter.series = iter.series[1:]
	return obj, nil
}

func (iter *encodedObjectSliceIter) ForEach(cb func(plumbing.EncodedObject) error) error {
	return ForEachIterator(iter, cb)
}

func (iter *encodedObjectSliceIter) Close() {
	iter.series = nil
}

// MultiEncodedObjectIter returns an iterator that chains several
// EncodedObjectIters together, exhausting each in order.
type MultiEncodedObjectIter struct {
	iters []EncodedObjectIter
	pos   int
}

// NewMultiEncodedObjectIter returns an EncodedObjectIter that iterates
// over all the given iterators in order, one after another.
func NewMultiEncodedObjectIter(iters []EncodedObjectIter) EncodedObjectIter {
	return &MultiEncodedObjectIter{iters: iters}
}

func (it *MultiEncodedObjectIter) Next() (plumbing.EncodedObject, error) {
	for it.pos < len(it.iters) {
		obj, err := it.iters[it.pos].Next()
		if err == io.EOF {
			it.iters[it.pos].Close()
			it.pos++
			continue
		}

		return obj, err
	}

	return nil, io.EOF
}

func (it *MultiEncodedObjectIter) ForEach(cb func(plumbing.EncodedObject) error) error {
	return ForEachIterator(it, cb)
}

func (it *MultiEncodedObjectIter) Close() {
	for ; it.pos < len(it.iters); it.pos++ {
		it.iters[it.pos].Close()
	}
}

// closableIterator is the shape shared by every iterator in this
// package; it lets ForEachIterator drive all of them generically.
type closableIterator[T any] interface {
	Next() (T, error)
	Close()
}

// ForEachIterator drains iter, invoking cb for every element. Returning
// ErrStop from cb stops the iteration early without propagating an
// error; any other error aborts and is returned to the caller.
func ForEachIterator[T any](iter closableIterator[T], cb func(T) error) error {
	defer iter.Close()
	for {
		obj, err := iter.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if err := cb(obj); err != nil {
			if err == ErrStop {
				return nil
			}
			return err
		}
	}
}
