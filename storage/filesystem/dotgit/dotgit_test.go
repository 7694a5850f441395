package dotgit

import (
	"io"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/plumbing/format/packfile/packfiletest"
)

func TestNewObjectRoundTrip(t *testing.T) {
	d := New(osfs.New(t.TempDir()))

	content := []byte("a loose blob\n")
	hash := plumbing.Sum(plumbing.BlobObject, content)

	w, err := d.NewObject()
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(plumbing.BlobObject, int64(len(content))))
	_, err = w.Write(content)
	require.NoError(t, err)
	assert.Equal(t, hash, w.Hash())
	require.NoError(t, w.Close())

	f, err := d.Object(hash)
	require.NoError(t, err)
	defer f.Close()

	stat, err := d.ObjectStat(hash)
	require.NoError(t, err)
	assert.Greater(t, stat.Size(), int64(0))
}

func TestNewObjectDuplicateWriteIsNoOp(t *testing.T) {
	d := New(osfs.New(t.TempDir()))

	content := []byte("written twice\n")
	hash := plumbing.Sum(plumbing.BlobObject, content)

	for i := 0; i < 2; i++ {
		w, err := d.NewObject()
		require.NoError(t, err)
		require.NoError(t, w.WriteHeader(plumbing.BlobObject, int64(len(content))))
		_, err = w.Write(content)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	f, err := d.Object(hash)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestObjectPackRoundTrip(t *testing.T) {
	d := New(osfs.New(t.TempDir()))

	blob := []byte("a pack-dotgit blob\n")
	data := packfiletest.Build([]packfiletest.Object{{Type: plumbing.BlobObject, Data: blob}})

	w, err := d.NewObjectPack()
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	packs, err := d.ObjectPacks()
	require.NoError(t, err)
	require.Len(t, packs, 1)

	f, err := d.ObjectPack(packs[0])
	require.NoError(t, err)
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, data, got)

	idx, err := d.ObjectPackIdx(packs[0])
	require.NoError(t, err)
	require.NoError(t, idx.Close())
}

func TestObjectPackMmap(t *testing.T) {
	d := New(osfs.New(t.TempDir()))

	blob := []byte("a memory-mapped blob\n")
	data := packfiletest.Build([]packfiletest.Object{{Type: plumbing.BlobObject, Data: blob}})

	w, err := d.NewObjectPack()
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	packs, err := d.ObjectPacks()
	require.NoError(t, err)
	require.Len(t, packs, 1)

	mapped, closer, err := d.ObjectPackMmap(packs[0])
	require.NoError(t, err)
	defer closer()

	assert.Equal(t, data, mapped)
}

func TestObjectPackNotFound(t *testing.T) {
	d := New(osfs.New(t.TempDir()))

	_, err := d.ObjectPack(plumbing.NewHash("0000000000000000000000000000000000000000"))
	assert.ErrorIs(t, err, ErrPackfileNotFound)

	_, err = d.ObjectPackIdx(plumbing.NewHash("0000000000000000000000000000000000000000"))
	assert.ErrorIs(t, err, ErrIdxNotFound)
}
