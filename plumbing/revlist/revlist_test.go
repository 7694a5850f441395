package revlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/plumbing/object"
	"github.com/src-d/gitdb/storage/memory"
)

// repoBuilder assembles a small commit graph directly in a memory
// store, the way these tests need it, without going through a
// packfile or a working tree.
type repoBuilder struct {
	t *testing.T
	s *memory.Storage
}

func newRepoBuilder(t *testing.T) *repoBuilder {
	return &repoBuilder{t: t, s: memory.NewStorage()}
}

func (b *repoBuilder) blob(content string) plumbing.Hash {
	b.t.Helper()
	blob := object.NewBlob([]byte(content))
	obj := b.s.NewEncodedObject()
	h, err := blob.Build(obj)
	require.NoError(b.t, err)
	_, err = b.s.SetEncodedObject(obj)
	require.NoError(b.t, err)
	return h
}

func (b *repoBuilder) tree(entries ...object.TreeEntry) plumbing.Hash {
	b.t.Helper()
	tr := &object.Tree{Entries: entries}
	obj := b.s.NewEncodedObject()
	require.NoError(b.t, tr.Encode(obj))
	h, err := b.s.SetEncodedObject(obj)
	require.NoError(b.t, err)
	return h
}

func (b *repoBuilder) commit(tree plumbing.Hash, when time.Time, parents ...plumbing.Hash) *object.Commit {
	b.t.Helper()
	sig := object.AuthorSignature{Name: "A", Email: "a@example.com", When: when}
	c := &object.Commit{
		Tree:      tree,
		Parents:   parents,
		Author:    sig,
		Committer: sig,
		Message:   "commit\n",
	}
	obj := b.s.NewEncodedObject()
	require.NoError(b.t, c.Encode(obj))
	_, err := b.s.SetEncodedObject(obj)
	require.NoError(b.t, err)

	got, err := object.GetCommit(b.s, obj.Hash())
	require.NoError(b.t, err)
	return got
}

func TestObjectsReachableFromSingleCommit(t *testing.T) {
	b := newRepoBuilder(t)
	blobHash := b.blob("hello\n")
	treeHash := b.tree(object.TreeEntry{Name: "f.txt", Mode: plumbing.Regular, Hash: blobHash})
	c := b.commit(treeHash, time.Unix(1700000000, 0))

	got, err := Objects(b.s, []*object.Commit{c}, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []plumbing.Hash{c.ID(), treeHash, blobHash}, got)
}

func TestObjectsExcludesIgnoredAncestry(t *testing.T) {
	b := newRepoBuilder(t)
	blobHash := b.blob("v1\n")
	treeHash := b.tree(object.TreeEntry{Name: "f.txt", Mode: plumbing.Regular, Hash: blobHash})
	base := b.commit(treeHash, time.Unix(1700000000, 0))

	blobHash2 := b.blob("v2\n")
	treeHash2 := b.tree(object.TreeEntry{Name: "f.txt", Mode: plumbing.Regular, Hash: blobHash2})
	head := b.commit(treeHash2, time.Unix(1700000100, 0), base.ID())

	got, err := Objects(b.s, []*object.Commit{head}, []plumbing.Hash{base.ID()})
	require.NoError(t, err)

	assert.ElementsMatch(t, []plumbing.Hash{head.ID(), treeHash2, blobHash2}, got)
}

func TestObjectsSkipsSubmoduleLinks(t *testing.T) {
	b := newRepoBuilder(t)
	gitlink := plumbing.NewHash("1111111111111111111111111111111111111111")
	treeHash := b.tree(object.TreeEntry{Name: "vendor/lib", Mode: plumbing.Submodule, Hash: gitlink})
	c := b.commit(treeHash, time.Unix(1700000000, 0))

	got, err := Objects(b.s, []*object.Commit{c}, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []plumbing.Hash{c.ID(), treeHash}, got)
	assert.NotContains(t, got, gitlink)
}

func TestDetermineWantsFiltersKnownAndZero(t *testing.T) {
	b := newRepoBuilder(t)
	blobHash := b.blob("x\n")
	treeHash := b.tree(object.TreeEntry{Name: "f.txt", Mode: plumbing.Regular, Hash: blobHash})
	c := b.commit(treeHash, time.Unix(1700000000, 0))

	missing := plumbing.NewHash("2222222222222222222222222222222222222222")
	refs := []plumbing.Hash{c.ID(), plumbing.ZeroHash, missing}

	wants := DetermineWants(b.s, refs)
	assert.Equal(t, []plumbing.Hash{missing}, wants)
}

func TestWalkerYieldsNewestFirst(t *testing.T) {
	b := newRepoBuilder(t)
	treeHash := b.tree()

	c1 := b.commit(treeHash, time.Unix(1700000000, 0))
	c2 := b.commit(treeHash, time.Unix(1700000100, 0), c1.ID())
	c3 := b.commit(treeHash, time.Unix(1700000200, 0), c2.ID())

	w, err := NewWalker(b.s, []plumbing.Hash{c3.ID()})
	require.NoError(t, err)

	haves, err := Haves(w, 10)
	require.NoError(t, err)
	assert.Equal(t, []plumbing.Hash{c3.ID(), c2.ID(), c1.ID()}, haves)

	next, err := w.Next()
	require.NoError(t, err)
	assert.True(t, next.IsZero())
}

func TestWalkerAckPrunesAncestry(t *testing.T) {
	b := newRepoBuilder(t)
	treeHash := b.tree()

	c1 := b.commit(treeHash, time.Unix(1700000000, 0))
	c2 := b.commit(treeHash, time.Unix(1700000100, 0), c1.ID())
	c3 := b.commit(treeHash, time.Unix(1700000200, 0), c2.ID())

	w, err := NewWalker(b.s, []plumbing.Hash{c3.ID()})
	require.NoError(t, err)
	require.NoError(t, w.Ack(c2.ID()))

	haves, err := Haves(w, 10)
	require.NoError(t, err)
	assert.Equal(t, []plumbing.Hash{c3.ID()}, haves)
}

func TestWalkerRespectsLimit(t *testing.T) {
	b := newRepoBuilder(t)
	treeHash := b.tree()

	c1 := b.commit(treeHash, time.Unix(1700000000, 0))
	c2 := b.commit(treeHash, time.Unix(1700000100, 0), c1.ID())

	w, err := NewWalker(b.s, []plumbing.Hash{c2.ID()})
	require.NoError(t, err)

	haves, err := Haves(w, 1)
	require.NoError(t, err)
	assert.Equal(t, []plumbing.Hash{c2.ID()}, haves)
}
