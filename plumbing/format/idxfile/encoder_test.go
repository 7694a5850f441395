package idxfile_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/src-d/gitdb/plumbing"
	. "github.com/src-d/gitdb/plumbing/format/idxfile"
	"github.com/src-d/gitdb/plumbing/format/packfile"
	"github.com/src-d/gitdb/plumbing/format/packfile/packfiletest"
)

func buildIndex(t *testing.T) *MemoryIndex {
	t.Helper()

	data := packfiletest.Build([]packfiletest.Object{
		{Type: plumbing.CommitObject, Data: []byte("an encoder commit\x00")},
		{Type: plumbing.BlobObject, Data: []byte("an encoder blob\n")},
		{Type: plumbing.TreeObject, Data: []byte("100644 b.txt\x00")},
	})

	w := new(Writer)
	_, err := packfile.NewParser(bytes.NewReader(data), packfile.WithScannerObservers(w)).Parse()
	require.NoError(t, err)

	idx, err := w.Index()
	require.NoError(t, err)

	return idx
}

func TestEncode(t *testing.T) {
	t.Parallel()

	idx := buildIndex(t)

	buf := &bytes.Buffer{}
	n, err := NewEncoder(buf).Encode(idx)
	assert.NoError(t, err)
	assert.Equal(t, buf.Len(), n)
	assert.NotZero(t, n)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	idx := buildIndex(t)

	result := bytes.NewBuffer(nil)
	n, err := NewEncoder(result).Encode(idx)
	require.NoError(t, err)
	assert.Equal(t, result.Len(), n)

	decoded := new(MemoryIndex)
	require.NoError(t, NewDecoder(bytes.NewReader(result.Bytes())).Decode(decoded))

	wantCount, err := idx.Count()
	require.NoError(t, err)
	gotCount, err := decoded.Count()
	require.NoError(t, err)
	assert.Equal(t, wantCount, gotCount)
}
