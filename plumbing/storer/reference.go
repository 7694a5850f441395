package storer

import (
	"errors"
	"io"

	"github.com/src-d/gitdb/plumbing"
)

var (
	// ErrReferenceHasChanged is returned by CheckAndSetReference when
	// the reference being replaced no longer matches the expected old
	// value.
	ErrReferenceHasChanged = errors.New("reference has changed concurrently")
	// ErrMaxResolveRecursion is returned by ResolveReference when a
	// chain of symbolic references is too deep to plausibly be
	// anything but a cycle.
	ErrMaxResolveRecursion = errors.New("max. recursion level reached")
)

// ReferenceStorer is the interface a storage backend implements to
// read and write references: HEAD, branches, tags, and remote-tracking
// refs.
type ReferenceStorer interface {
	SetReference(*plumbing.Reference) error
	// CheckAndSetReference sets the reference `new`, only if the value
	// of `old` equals to the reference's current value stored, in the
	// storage, at the time of writing. If the old reference doesn't
	// match, the SetReference operation fails and ErrReferenceHasChanged
	// is returned. If `old` is nil, the operation won't take into
	// account the current ref and will be overwritten unconditionally.
	CheckAndSetReference(new, old *plumbing.Reference) error
	Reference(plumbing.ReferenceName) (*plumbing.Reference, error)
	IterReferences() (ReferenceIter, error)
	RemoveReference(plumbing.ReferenceName) error
	CountLooseRefs() (int, error)
	PackRefs() error
}

// ReferenceIter is a generic closable interface for iterating over
// references.
type ReferenceIter interface {
	Next() (*plumbing.Reference, error)
	ForEach(func(*plumbing.Reference) error) error
	Close() error
}

// NewReferenceSliceIter returns a ReferenceIter for a slice of
// references.
func NewReferenceSliceIter(refs []*plumbing.Reference) ReferenceIter {
	return &referenceSliceIter{refs: refs}
}

type referenceSliceIter struct {
	refs []*plumbing.Reference
	pos  int
}

func (iter *referenceSliceIter) Next() (*plumbing.Reference, error) {
	if iter.pos >= len(iter.refs) {
		return nil, io.EOF
	}

	ref := iter.refs[iter.pos]
	iter.pos++
	return ref, nil
}

func (iter *referenceSliceIter) ForEach(cb func(*plumbing.Reference) error) error {
	for {
		ref, err := iter.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if err := cb(ref); err != nil {
			if err == ErrStop {
				return nil
			}
			return err
		}
	}
}

func (iter *referenceSliceIter) Close() error {
	iter.pos = len(iter.refs)
	return nil
}
