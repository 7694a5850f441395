package mmap

import (
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRoundTrip(t *testing.T) {
	fs := osfs.New(t.TempDir())
	f, err := fs.Create("packed.bin")
	require.NoError(t, err)

	want := []byte("the quick brown fox jumps over the lazy dog")
	_, err = f.Write(want)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = fs.Open("packed.bin")
	require.NoError(t, err)

	got, closer, err := Map(f)
	require.NoError(t, err)
	defer closer()

	assert.Equal(t, want, got)
}

func TestMapNilFile(t *testing.T) {
	_, _, err := Map(nil)
	assert.ErrorIs(t, err, ErrNilFile)
}
