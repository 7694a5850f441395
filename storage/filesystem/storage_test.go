package filesystem

import (
	"os"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/plumbing/cache"
	"github.com/src-d/gitdb/plumbing/storer"
)

// assertStorerInterfaces is a compile-time-flavored check, run at test
// time, that Storage satisfies every storer interface this module
// expects it to.
func assertStorerInterfaces(t *testing.T, s *Storage) {
	t.Helper()

	var _ storer.EncodedObjectStorer = s
	var _ storer.ReferenceStorer = s
	var _ storer.DeltaObjectStorer = s
	var _ storer.PackfileWriter = s
	var _ storer.Transactioner = s
	var _ storer.Storer = s
}

func TestStorageInterfaces(t *testing.T) {
	storage := NewStorage(osfs.New(t.TempDir()), cache.NewObjectLRUDefault())
	assertStorerInterfaces(t, storage)
}

func TestStorageKeepDescriptorsInterfaces(t *testing.T) {
	storage := NewStorageWithOptions(
		osfs.New(t.TempDir()),
		cache.NewObjectLRUDefault(),
		Options{KeepDescriptors: true})
	assertStorerInterfaces(t, storage)
}

func TestFilesystem(t *testing.T) {
	fs := memfs.New()
	storage := NewStorage(fs, cache.NewObjectLRUDefault())

	assert.Same(t, fs, storage.Filesystem())
}

func TestNewStorageShouldNotAddAnyContentsToDir(t *testing.T) {
	dir := t.TempDir()
	NewStorage(osfs.New(dir), cache.NewObjectLRUDefault())

	fis, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, fis)
}

func TestStorageObjectRoundTrip(t *testing.T) {
	storage := NewStorage(osfs.New(t.TempDir()), cache.NewObjectLRUDefault())

	obj := storage.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	content := []byte("storage round trip blob\n")
	obj.SetSize(int64(len(content)))

	w, err := obj.Writer()
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	hash, err := storage.SetEncodedObject(obj)
	require.NoError(t, err)

	got, err := storage.EncodedObject(plumbing.BlobObject, hash)
	require.NoError(t, err)
	assert.Equal(t, hash, got.Hash())
}

func TestStorageReferenceRoundTrip(t *testing.T) {
	storage := NewStorage(osfs.New(t.TempDir()), cache.NewObjectLRUDefault())

	ref := plumbing.NewHashReference(plumbing.ReferenceName("refs/heads/main"), plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5"))
	require.NoError(t, storage.SetReference(ref))

	got, err := storage.Reference(ref.Name())
	require.NoError(t, err)
	assert.Equal(t, ref.Hash(), got.Hash())
}
