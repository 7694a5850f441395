// Package memory is a storage backend that keeps every object and
// reference in process memory. It is ephemeral: nothing survives past
// the lifetime of the Storage value. Useful for tests and for callers
// that want to stage a small number of objects without touching disk.
package memory

import (
	"fmt"
	"io"

	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/plumbing/storer"
	"github.com/src-d/gitdb/utils/ioutil"
)

// ErrUnsupportedObjectType is returned by SetEncodedObject when asked
// to store an object of a type this store does not categorize.
var ErrUnsupportedObjectType = fmt.Errorf("unsupported object type")

// Storage is a storer.Storer implementation that stores data in
// memory, being ephemeral. The use of this storage should be done in
// controlled environments, since the representation in memory of some
// repository can fill the machine memory. On the other hand this
// storage has the best performance.
type Storage struct {
	ObjectStorage
	ReferenceStorage
}

// NewStorage returns a new, empty in-memory Storage.
func NewStorage() *Storage {
	return &Storage{
		ReferenceStorage: make(ReferenceStorage),
		ObjectStorage: ObjectStorage{
			Objects: make(map[plumbing.Hash]plumbing.EncodedObject),
			Commits: make(map[plumbing.Hash]plumbing.EncodedObject),
			Trees:   make(map[plumbing.Hash]plumbing.EncodedObject),
			Blobs:   make(map[plumbing.Hash]plumbing.EncodedObject),
			Tags:    make(map[plumbing.Hash]plumbing.EncodedObject),
		},
	}
}

// ObjectStorage implements storer.EncodedObjectStorer,
// storer.DeltaObjectStorer and storer.Transactioner backed by maps
// keyed by hash, one per object type plus an overall index.
type ObjectStorage struct {
	Objects map[plumbing.Hash]plumbing.EncodedObject
	Commits map[plumbing.Hash]plumbing.EncodedObject
	Trees   map[plumbing.Hash]plumbing.EncodedObject
	Blobs   map[plumbing.Hash]plumbing.EncodedObject
	Tags    map[plumbing.Hash]plumbing.EncodedObject
}

type lazyCloser struct {
	storage *ObjectStorage
	obj     plumbing.EncodedObject
	closer  io.Closer
}

func (c *lazyCloser) Close() error {
	if err := c.closer.Close(); err != nil {
		return fmt.Errorf("failed to close memory encoded object: %w", err)
	}

	_, err := c.storage.SetEncodedObject(c.obj)
	return err
}

// RawObjectWriter returns a writer that, once closed, commits the
// fully-written object into the store under its computed hash.
func (o *ObjectStorage) RawObjectWriter(t plumbing.ObjectType, size int64) (io.WriteCloser, error) {
	obj := o.NewEncodedObject()
	obj.SetType(t)
	obj.SetSize(size)

	w, err := obj.Writer()
	if err != nil {
		return nil, err
	}

	return ioutil.NewWriteCloser(w, &lazyCloser{storage: o, obj: obj, closer: w}), nil
}

// NewEncodedObject returns a new, empty MemoryObject.
func (o *ObjectStorage) NewEncodedObject() plumbing.EncodedObject {
	return plumbing.NewMemoryObject()
}

// SetEncodedObject stores obj under its hash, categorizing it by type.
func (o *ObjectStorage) SetEncodedObject(obj plumbing.EncodedObject) (plumbing.Hash, error) {
	h := obj.Hash()
	o.Objects[h] = obj

	switch obj.Type() {
	case plumbing.CommitObject:
		o.Commits[h] = obj
	case plumbing.TreeObject:
		o.Trees[h] = obj
	case plumbing.BlobObject:
		o.Blobs[h] = obj
	case plumbing.TagObject:
		o.Tags[h] = obj
	default:
		return h, ErrUnsupportedObjectType
	}

	return h, nil
}

// HasEncodedObject returns nil if an object with the given hash
// exists, plumbing.ErrObjectNotFound otherwise.
func (o *ObjectStorage) HasEncodedObject(h plumbing.Hash) error {
	if _, ok := o.Objects[h]; !ok {
		return plumbing.ErrObjectNotFound
	}
	return nil
}

// EncodedObjectSize returns the size of the object with the given
// hash.
func (o *ObjectStorage) EncodedObjectSize(h plumbing.Hash) (int64, error) {
	obj, ok := o.Objects[h]
	if !ok {
		return 0, plumbing.ErrObjectNotFound
	}

	return obj.Size(), nil
}

// EncodedObject returns the object with the given hash, checked
// against t unless t is plumbing.AnyObject.
func (o *ObjectStorage) EncodedObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	obj, ok := o.Objects[h]
	if !ok || (plumbing.AnyObject != t && obj.Type() != t) {
		return nil, plumbing.ErrObjectNotFound
	}

	return obj, nil
}

// DeltaObject is identical to EncodedObject: objects staged in memory
// are never stored as deltas.
func (o *ObjectStorage) DeltaObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	return o.EncodedObject(t, h)
}

// IterEncodedObjects returns an iterator over every object of the
// given type, or every object if t is plumbing.AnyObject.
func (o *ObjectStorage) IterEncodedObjects(t plumbing.ObjectType) (storer.EncodedObjectIter, error) {
	var series []plumbing.EncodedObject
	switch t {
	case plumbing.AnyObject:
		series = flattenObjectMap(o.Objects)
	case plumbing.CommitObject:
		series = flattenObjectMap(o.Commits)
	case plumbing.TreeObject:
		series = flattenObjectMap(o.Trees)
	case plumbing.BlobObject:
		series = flattenObjectMap(o.Blobs)
	case plumbing.TagObject:
		series = flattenObjectMap(o.Tags)
	}

	return storer.NewEncodedObjectSliceIter(series), nil
}

func flattenObjectMap(m map[plumbing.Hash]plumbing.EncodedObject) []plumbing.EncodedObject {
	objects := make([]plumbing.EncodedObject, 0, len(m))
	for _, obj := range m {
		objects = append(objects, obj)
	}
	return objects
}

// Begin starts a new transaction, buffering writes until Commit.
func (o *ObjectStorage) Begin() storer.Transaction {
	return &TxObjectStorage{
		Storage: o,
		Objects: make(map[plumbing.Hash]plumbing.EncodedObject),
	}
}

// PackfileWriter parses a raw packfile stream and stores every object
// it contains, without ever touching disk.
func (o *ObjectStorage) PackfileWriter() (io.WriteCloser, error) {
	return newPackfileWriter(o), nil
}

// TxObjectStorage implements storer.Transaction, buffering objects in
// a scratch map until Commit flushes them into the parent storage.
type TxObjectStorage struct {
	Storage *ObjectStorage
	Objects map[plumbing.Hash]plumbing.EncodedObject
}

// SetEncodedObject buffers obj in the transaction.
func (tx *TxObjectStorage) SetEncodedObject(obj plumbing.EncodedObject) (plumbing.Hash, error) {
	h := obj.Hash()
	tx.Objects[h] = obj
	return h, nil
}

// EncodedObject looks up an object already buffered in the
// transaction; it does not see the parent storage's contents.
func (tx *TxObjectStorage) EncodedObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	obj, ok := tx.Objects[h]
	if !ok || (plumbing.AnyObject != t && obj.Type() != t) {
		return nil, plumbing.ErrObjectNotFound
	}

	return obj, nil
}

// Commit flushes every buffered object into the parent storage.
func (tx *TxObjectStorage) Commit() error {
	for h, obj := range tx.Objects {
		delete(tx.Objects, h)
		if _, err := tx.Storage.SetEncodedObject(obj); err != nil {
			return err
		}
	}

	return nil
}

// Rollback discards every buffered object.
func (tx *TxObjectStorage) Rollback() error {
	tx.Objects = make(map[plumbing.Hash]plumbing.EncodedObject)
	return nil
}

// ReferenceStorage implements storer.ReferenceStorer as a plain map.
type ReferenceStorage map[plumbing.ReferenceName]*plumbing.Reference

// SetReference stores ref, overwriting any existing reference of the
// same name.
func (r ReferenceStorage) SetReference(ref *plumbing.Reference) error {
	if ref != nil {
		r[ref.Name()] = ref
	}

	return nil
}

// CheckAndSetReference stores ref only if the currently stored
// reference matches old, or if old is nil.
func (r ReferenceStorage) CheckAndSetReference(ref, old *plumbing.Reference) error {
	if ref == nil {
		return nil
	}

	if old != nil {
		tmp := r[ref.Name()]
		if tmp == nil || tmp.Hash() != old.Hash() {
			return storer.ErrReferenceHasChanged
		}
	}

	r[ref.Name()] = ref
	return nil
}

// Reference returns the reference named n.
func (r ReferenceStorage) Reference(n plumbing.ReferenceName) (*plumbing.Reference, error) {
	ref, ok := r[n]
	if !ok {
		return nil, plumbing.ErrReferenceNotFound
	}

	return ref, nil
}

// IterReferences returns an iterator over every stored reference.
func (r ReferenceStorage) IterReferences() (storer.ReferenceIter, error) {
	refs := make([]*plumbing.Reference, 0, len(r))
	for _, ref := range r {
		refs = append(refs, ref)
	}

	return storer.NewReferenceSliceIter(refs), nil
}

// CountLooseRefs returns the number of stored references; in-memory
// references have no packed/loose distinction, so every one counts.
func (r ReferenceStorage) CountLooseRefs() (int, error) {
	return len(r), nil
}

// PackRefs is a no-op: there is nothing to compact in memory.
func (r ReferenceStorage) PackRefs() error {
	return nil
}

// RemoveReference deletes the reference named n, if any.
func (r ReferenceStorage) RemoveReference(n plumbing.ReferenceName) error {
	delete(r, n)
	return nil
}

var (
	_ storer.EncodedObjectStorer = (*ObjectStorage)(nil)
	_ storer.DeltaObjectStorer   = (*ObjectStorage)(nil)
	_ storer.Transactioner       = (*ObjectStorage)(nil)
	_ storer.PackfileWriter      = (*ObjectStorage)(nil)
	_ storer.Transaction         = (*TxObjectStorage)(nil)
	_ storer.ReferenceStorer     = (ReferenceStorage)(nil)
	_ storer.Storer              = (*Storage)(nil)
)
