package object

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/src-d/gitdb/plumbing"
)

func newEncodedObject(t *testing.T, typ plumbing.ObjectType, content []byte) plumbing.EncodedObject {
	t.Helper()
	o := plumbing.NewMemoryObject()
	o.SetType(typ)
	w, err := o.Writer()
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	o.SetSize(int64(len(content)))
	return o
}

func readAllContent(t *testing.T, o plumbing.EncodedObject) []byte {
	t.Helper()
	r, err := o.Reader()
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return b
}

func TestBlobRoundTrip(t *testing.T) {
	content := []byte("package main\n\nfunc main() {}\n")

	b := NewBlob(content)
	obj := plumbing.NewMemoryObject()
	hash, err := b.Build(obj)
	require.NoError(t, err)
	assert.Equal(t, plumbing.Sum(plumbing.BlobObject, content), hash)

	decoded := &Blob{}
	require.NoError(t, decoded.Decode(obj))
	assert.Equal(t, hash, decoded.ID())
	assert.Equal(t, int64(len(content)), decoded.Size())

	r, err := decoded.Reader()
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestBlobDecodeWrongType(t *testing.T) {
	obj := newEncodedObject(t, plumbing.TreeObject, []byte("not a blob"))
	b := &Blob{}
	assert.ErrorIs(t, b.Decode(obj), plumbing.ErrInvalidType)
}

func TestTreeRoundTrip(t *testing.T) {
	want := &Tree{
		Entries: []TreeEntry{
			{Name: "README.md", Mode: plumbing.Regular, Hash: plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5")},
			{Name: "cmd", Mode: plumbing.Dir, Hash: plumbing.NewHash("a8b686ae17ccd46d21c9b3a4c4de02ca4f1a356a")},
			{Name: "main.go", Mode: plumbing.Executable, Hash: plumbing.NewHash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")},
		},
	}

	obj := plumbing.NewMemoryObject()
	require.NoError(t, want.Encode(obj))

	got := &Tree{}
	require.NoError(t, got.Decode(obj))
	assert.Equal(t, want.Entries, got.Entries)

	entry, ok := got.FindEntry("main.go")
	require.True(t, ok)
	assert.Equal(t, plumbing.Executable, entry.Mode)

	_, ok = got.FindEntry("missing.go")
	assert.False(t, ok)
}

func TestTreeDecodeEmpty(t *testing.T) {
	obj := newEncodedObject(t, plumbing.TreeObject, nil)
	tr := &Tree{}
	require.NoError(t, tr.Decode(obj))
	assert.Empty(t, tr.Entries)
}

func TestSortEntries(t *testing.T) {
	entries := []TreeEntry{
		{Name: "foo.go", Mode: plumbing.Regular},
		{Name: "foo", Mode: plumbing.Dir},
		{Name: "foo.", Mode: plumbing.Regular},
	}
	SortEntries(entries)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	// "foo." < "foo.go" < "foo/" (directory compared with trailing slash)
	assert.Equal(t, []string{"foo.", "foo.go", "foo"}, names)
}

func TestCommitRoundTrip(t *testing.T) {
	when := time.Unix(1700000000, 0).In(time.FixedZone("", 2*3600))
	want := &Commit{
		Tree:    plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5"),
		Parents: []plumbing.Hash{plumbing.NewHash("a8b686ae17ccd46d21c9b3a4c4de02ca4f1a356a")},
		Author: AuthorSignature{
			Name: "Ada Lovelace", Email: "ada@example.com", When: when,
		},
		Committer: AuthorSignature{
			Name: "Ada Lovelace", Email: "ada@example.com", When: when,
		},
		Message: "Add the analytical engine\n",
	}

	obj := plumbing.NewMemoryObject()
	require.NoError(t, want.Encode(obj))

	got := &Commit{}
	require.NoError(t, got.Decode(obj))
	assert.Equal(t, want.Tree, got.Tree)
	assert.Equal(t, want.Parents, got.Parents)
	assert.Equal(t, want.Author.Name, got.Author.Name)
	assert.Equal(t, want.Author.Email, got.Author.Email)
	assert.True(t, want.Author.When.Equal(got.Author.When))
	assert.Equal(t, want.Message, got.Message)
}

func TestCommitDecodeWithEncodingHeader(t *testing.T) {
	raw := "tree 6ecf0ef2c2dffb796033e5a02219af86ec6584e5\n" +
		"author A <a@example.com> 1700000000 +0000\n" +
		"committer A <a@example.com> 1700000000 +0000\n" +
		"encoding ISO-8859-1\n" +
		"\n" +
		"non-utf8 message\n"

	obj := newEncodedObject(t, plumbing.CommitObject, []byte(raw))
	c := &Commit{}
	require.NoError(t, c.Decode(obj))
	assert.Equal(t, "ISO-8859-1", c.Encoding)
	assert.Equal(t, "non-utf8 message\n", c.Message)
}

func TestCommitMessageUTF8PassesThroughUTF8(t *testing.T) {
	c := &Commit{Message: "déjà vu\n"}
	got, err := c.MessageUTF8()
	require.NoError(t, err)
	assert.Equal(t, c.Message, got)
}

func TestCommitMessageUTF8TranscodesLatin1(t *testing.T) {
	// "café" in ISO-8859-1: the trailing é is a single 0xE9 byte,
	// not the two-byte UTF-8 encoding.
	c := &Commit{Encoding: "ISO-8859-1", Message: "caf\xe9\n"}
	got, err := c.MessageUTF8()
	require.NoError(t, err)
	assert.Equal(t, "café\n", got)
}

func TestCommitMessageUTF8UnknownEncoding(t *testing.T) {
	c := &Commit{Encoding: "not-a-real-charset", Message: "x\n"}
	_, err := c.MessageUTF8()
	assert.Error(t, err)
}

func TestCommitExtractSignature(t *testing.T) {
	c := &Commit{
		Tree:    plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5"),
		Author:  AuthorSignature{Name: "A", Email: "a@example.com", When: time.Unix(1700000000, 0).UTC()},
		PGPSignature: "-----BEGIN PGP SIGNATURE-----\n\ndeadbeef\n-----END PGP SIGNATURE-----\n",
		Message: "signed commit\n",
	}
	c.Committer = c.Author

	obj := plumbing.NewMemoryObject()
	require.NoError(t, c.Encode(obj))

	decoded := &Commit{}
	require.NoError(t, decoded.Decode(obj))
	assert.Equal(t, c.PGPSignature, decoded.PGPSignature)

	payload, sig, err := decoded.ExtractSignature()
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "PGP SIGNATURE")
	assert.Equal(t, []byte(c.PGPSignature), sig)
}

func TestCommitExtractSignatureMissing(t *testing.T) {
	c := &Commit{Message: "no signature here\n"}
	_, _, err := c.ExtractSignature()
	assert.Error(t, err)
}

func TestTagRoundTrip(t *testing.T) {
	when := time.Unix(1700000000, 0).UTC()
	want := &Tag{
		Target:     plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5"),
		TargetType: plumbing.CommitObject,
		Name:       "v1.0.0",
		Tagger:     AuthorSignature{Name: "Release Bot", Email: "bot@example.com", When: when},
		Message:    "First stable release\n",
	}

	obj := plumbing.NewMemoryObject()
	require.NoError(t, want.Encode(obj))

	got := &Tag{}
	require.NoError(t, got.Decode(obj))
	assert.Equal(t, want.Target, got.Target)
	assert.Equal(t, want.TargetType, got.TargetType)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Message, got.Message)
}

func TestDecodeObjectDispatch(t *testing.T) {
	blob := NewBlob([]byte("hi\n"))
	obj := plumbing.NewMemoryObject()
	_, err := blob.Build(obj)
	require.NoError(t, err)

	decoded, err := DecodeObject(obj)
	require.NoError(t, err)
	assert.Equal(t, plumbing.BlobObject, decoded.Type())
	_, ok := decoded.(*Blob)
	assert.True(t, ok)
}

func TestDecodeObjectUnsupported(t *testing.T) {
	obj := plumbing.NewMemoryObject()
	obj.SetType(plumbing.InvalidObject)
	_, err := DecodeObject(obj)
	assert.ErrorIs(t, err, ErrUnsupportedObject)
}
