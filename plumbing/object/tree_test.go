package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/src-d/gitdb/plumbing"
)

func rawTreeEntry(mode, name string, h plumbing.Hash) []byte {
	var b []byte
	b = append(b, mode+" "+name+"\x00"...)
	b = append(b, h[:]...)
	return b
}

func TestTreeDecodeStrictRejectsLeadingZeroMode(t *testing.T) {
	h := plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	raw := rawTreeEntry("0100644", "a.txt", h)
	obj := newEncodedObject(t, plumbing.TreeObject, raw)

	tr := &Tree{}
	err := tr.Decode(obj)
	assert.ErrorIs(t, err, ErrObjectFormat)
}

func TestTreeDecodeNonStrictAcceptsLeadingZeroMode(t *testing.T) {
	h := plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	raw := rawTreeEntry("0100644", "a.txt", h)
	obj := newEncodedObject(t, plumbing.TreeObject, raw)

	tr := &Tree{NonStrict: true}
	require.NoError(t, tr.Decode(obj))
	require.Len(t, tr.Entries, 1)
	assert.Equal(t, plumbing.Regular, tr.Entries[0].Mode)
}

func TestTreeDecodeStrictRejectsUnsortedEntries(t *testing.T) {
	h := plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	var raw []byte
	raw = append(raw, rawTreeEntry("100644", "zebra.go", h)...)
	raw = append(raw, rawTreeEntry("100644", "apple.go", h)...)
	obj := newEncodedObject(t, plumbing.TreeObject, raw)

	tr := &Tree{}
	err := tr.Decode(obj)
	assert.ErrorIs(t, err, ErrObjectFormat)
}

func TestTreeDecodeNonStrictToleratesUnsortedEntries(t *testing.T) {
	h := plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	var raw []byte
	raw = append(raw, rawTreeEntry("100644", "zebra.go", h)...)
	raw = append(raw, rawTreeEntry("100644", "apple.go", h)...)
	obj := newEncodedObject(t, plumbing.TreeObject, raw)

	tr := &Tree{NonStrict: true}
	require.NoError(t, tr.Decode(obj))
	require.Len(t, tr.Entries, 2)
	assert.Equal(t, "zebra.go", tr.Entries[0].Name)
	assert.Equal(t, "apple.go", tr.Entries[1].Name)
}

func TestTreeDecodeRejectsDuplicateNamesEvenNonStrict(t *testing.T) {
	h := plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	var raw []byte
	raw = append(raw, rawTreeEntry("100644", "dup.go", h)...)
	raw = append(raw, rawTreeEntry("100644", "dup.go", h)...)
	obj := newEncodedObject(t, plumbing.TreeObject, raw)

	for _, nonStrict := range []bool{false, true} {
		tr := &Tree{NonStrict: nonStrict}
		err := tr.Decode(obj)
		assert.ErrorIs(t, err, ErrObjectFormat)
	}
}

func TestTreeDecodeStrictAcceptsWellFormedTree(t *testing.T) {
	want := &Tree{
		Entries: []TreeEntry{
			{Name: "README.md", Mode: plumbing.Regular, Hash: plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5")},
			{Name: "cmd", Mode: plumbing.Dir, Hash: plumbing.NewHash("a8b686ae17ccd46d21c9b3a4c4de02ca4f1a356a")},
			{Name: "main.go", Mode: plumbing.Executable, Hash: plumbing.NewHash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")},
		},
	}

	obj := plumbing.NewMemoryObject()
	require.NoError(t, want.Encode(obj))

	tr := &Tree{}
	require.NoError(t, tr.Decode(obj))
	assert.Equal(t, want.Entries, tr.Entries)
}
