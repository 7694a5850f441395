// Package filesystem is a storage backend based on the standard .git
// on-disk layout: loose objects and packfiles under objects/,
// references loose under refs/ or collapsed into packed-refs.
package filesystem

import (
	"github.com/go-git/go-billy/v5"

	"github.com/src-d/gitdb/plumbing/cache"
	"github.com/src-d/gitdb/storage/filesystem/dotgit"
)

// Storage is a Storer implementation that reads and writes a .git
// directory on a billy.Filesystem. Zero values of this type are not
// safe to use; build one with NewStorage or NewStorageWithOptions.
type Storage struct {
	fs  billy.Filesystem
	dir *dotgit.DotGit

	ObjectStorage
	ReferenceStorage
}

// Options customizes the behavior of a Storage.
type Options struct {
	// KeepDescriptors makes packfile descriptors stay open across
	// calls; the caller becomes responsible for closing the Storage.
	KeepDescriptors bool
	// MaxOpenDescriptors bounds how many packfile descriptors are kept
	// open at once when KeepDescriptors is false. Zero means every
	// packfile is opened and closed per read.
	MaxOpenDescriptors int
	// AlternatesFS resolves alternate object directories (both
	// objects/info/alternates entries and GIT_ALTERNATE_OBJECT_DIRECTORIES)
	// instead of the native filesystem. Nil falls back to osfs.
	AlternatesFS billy.Filesystem
}

// NewStorage returns a new Storage backed by fs, using c (or a default
// LRU cache, if c is nil) to cache decoded objects.
func NewStorage(fs billy.Filesystem, c cache.Object) *Storage {
	return NewStorageWithOptions(fs, c, Options{})
}

// NewStorageWithOptions is like NewStorage but accepts Options.
func NewStorageWithOptions(fs billy.Filesystem, c cache.Object, ops Options) *Storage {
	dir := dotgit.NewWithOptions(fs, dotgit.Options{
		KeepDescriptors: ops.KeepDescriptors,
		AlternatesFS:    ops.AlternatesFS,
	})

	if c == nil {
		c = cache.NewObjectLRUDefault()
	}

	return &Storage{
		fs:  fs,
		dir: dir,

		ObjectStorage:    *NewObjectStorageWithOptions(dir, c, ops),
		ReferenceStorage: ReferenceStorage{dir: dir},
	}
}

// Filesystem returns the underlying filesystem.
func (s *Storage) Filesystem() billy.Filesystem {
	return s.fs
}

// Close releases every resource the storage holds open.
func (s *Storage) Close() error {
	return s.ObjectStorage.Close()
}
