package filesystem

import (
	"errors"

	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/plumbing/storer"
	"github.com/src-d/gitdb/storage/filesystem/dotgit"
)

// ReferenceStorage implements storer.ReferenceStorer over a DotGit
// directory: HEAD and every loose ref under refs/ shadow whatever
// packed-refs holds for the same name, per this core's read-only
// packed-refs policy (see dotgit.DotGit.Ref and SetRef).
type ReferenceStorage struct {
	dir *dotgit.DotGit
}

func (r *ReferenceStorage) SetReference(ref *plumbing.Reference) error {
	return r.dir.SetRef(ref, nil)
}

func (r *ReferenceStorage) CheckAndSetReference(new, old *plumbing.Reference) error {
	err := r.dir.SetRef(new, old)
	if errors.Is(err, dotgit.ErrReferenceHasChanged) {
		return storer.ErrReferenceHasChanged
	}
	return err
}

func (r *ReferenceStorage) Reference(n plumbing.ReferenceName) (*plumbing.Reference, error) {
	return r.dir.Ref(n)
}

func (r *ReferenceStorage) RemoveReference(n plumbing.ReferenceName) error {
	return r.dir.RemoveRef(n)
}

func (r *ReferenceStorage) CountLooseRefs() (int, error) {
	return r.dir.CountLooseRefs()
}

func (r *ReferenceStorage) PackRefs() error {
	return r.dir.PackRefs()
}

func (r *ReferenceStorage) IterReferences() (storer.ReferenceIter, error) {
	refs, err := r.dir.Refs()
	if err != nil {
		return nil, err
	}

	return storer.NewReferenceSliceIter(refs), nil
}
