package idxfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/src-d/gitdb/hash"
	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/plumbing/format/packfile"
	"github.com/src-d/gitdb/plumbing/format/packfile/packfiletest"
)

func TestDecode(t *testing.T) {
	data := packfiletest.Build([]packfiletest.Object{
		{Type: plumbing.CommitObject, Data: []byte("a decoder commit\x00")},
		{Type: plumbing.BlobObject, Data: []byte("a decoder blob\n")},
		{Type: plumbing.TreeObject, Data: []byte("100644 decode.txt\x00")},
	})

	w := new(Writer)
	_, err := packfile.NewParser(bytes.NewReader(data), packfile.WithScannerObservers(w)).Parse()
	require.NoError(t, err)

	built, err := w.Index()
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	_, err = NewEncoder(buf).Encode(built)
	require.NoError(t, err)

	idx := NewMemoryIndex(hash.Size)
	require.NoError(t, NewDecoder(bytes.NewReader(buf.Bytes())).Decode(idx))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	wantEntries, err := built.Entries()
	require.NoError(t, err)

	for {
		want, err := wantEntries.Next()
		if err != nil {
			break
		}

		ok, err := idx.Contains(want.Hash)
		require.NoError(t, err)
		assert.True(t, ok)

		offset, err := idx.FindOffset(want.Hash)
		require.NoError(t, err)
		assert.Equal(t, int64(want.Offset), offset)

		crc, err := idx.FindCRC32(want.Hash)
		require.NoError(t, err)
		assert.Equal(t, want.CRC32, crc)

		hash, err := idx.FindHash(int64(want.Offset))
		require.NoError(t, err)
		assert.Equal(t, want.Hash, hash)
	}
}

// TestDecodeThenBuildOffsetHash decodes an encoded index, builds its
// offset->hash map with buildOffsetHash, and checks that FindHash
// reports ErrObjectNotFound for an offset no entry has.
func TestDecodeThenBuildOffsetHash(t *testing.T) {
	data := packfiletest.Build([]packfiletest.Object{
		{Type: plumbing.CommitObject, Data: []byte("offset hash commit\x00")},
		{Type: plumbing.BlobObject, Data: []byte("offset hash blob\n")},
	})

	w := new(Writer)
	_, err := packfile.NewParser(bytes.NewReader(data), packfile.WithScannerObservers(w)).Parse()
	require.NoError(t, err)

	built, err := w.Index()
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	_, err = NewEncoder(buf).Encode(built)
	require.NoError(t, err)

	idx := NewMemoryIndex(hash.Size)
	require.NoError(t, NewDecoder(bytes.NewReader(buf.Bytes())).Decode(idx))

	err = idx.buildOffsetHash()
	require.NoError(t, err)

	_, err = idx.FindHash(1 << 40)
	assert.ErrorIs(t, err, plumbing.ErrObjectNotFound)
}

// buildV1Idx hand-assembles the legacy, magic-less .idx layout: a
// 256-entry fanout table, then entries interleaved as 4-byte offset
// followed by a full-width object id, then the two trailing checksums.
// entries must already be sorted by ascending hash.
func buildV1Idx(entries []struct {
	hash   plumbing.Hash
	offset uint32
}) []byte {
	var fanoutCounts [256]uint32
	for _, e := range entries {
		fanoutCounts[e.hash[0]]++
	}

	buf := new(bytes.Buffer)

	var cumulative uint32
	for i := 0; i < 256; i++ {
		cumulative += fanoutCounts[i]
		binary.Write(buf, binary.BigEndian, cumulative)
	}

	for _, e := range entries {
		binary.Write(buf, binary.BigEndian, e.offset)
		buf.Write(e.hash[:])
	}

	buf.Write(make([]byte, 2*hash.Size))
	return buf.Bytes()
}

func TestDecodeVersion1(t *testing.T) {
	h1 := plumbing.NewHash("1111111111111111111111111111111111111111")
	h2 := plumbing.NewHash("2222222222222222222222222222222222222222")

	raw := buildV1Idx([]struct {
		hash   plumbing.Hash
		offset uint32
	}{
		{h1, 12},
		{h2, 34},
	})

	idx := NewMemoryIndex(hash.Size)
	require.NoError(t, NewDecoder(bytes.NewReader(raw)).Decode(idx))

	assert.Equal(t, VersionV1, idx.Version)

	count, err := idx.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	ok, err := idx.Contains(h1)
	require.NoError(t, err)
	assert.True(t, ok)

	offset, err := idx.FindOffset(h2)
	require.NoError(t, err)
	assert.EqualValues(t, 34, offset)

	hash1, err := idx.FindHash(12)
	require.NoError(t, err)
	assert.Equal(t, h1, hash1)

	_, err = idx.FindCRC32(h1)
	assert.ErrorIs(t, err, ErrCRC32Unavailable)

	entries, err := idx.Entries()
	require.NoError(t, err)
	var got []plumbing.Hash
	for {
		e, err := entries.Next()
		if err != nil {
			break
		}
		got = append(got, e.Hash)
	}
	assert.Equal(t, []plumbing.Hash{h1, h2}, got)
}

func TestDecodeVersion1NoMagicSniffedCorrectly(t *testing.T) {
	// A v2 index always opens with the four magic bytes \377tOc, which
	// can never appear as the first four bytes of a v1 fanout table
	// (they would require over 4 billion objects sharing the first
	// fanout bucket). Decode must not mistake one for the other.
	h := plumbing.NewHash("0000000000000000000000000000000000000001")
	raw := buildV1Idx([]struct {
		hash   plumbing.Hash
		offset uint32
	}{{h, 7}})

	idx := NewMemoryIndex(hash.Size)
	require.NoError(t, NewDecoder(bytes.NewReader(raw)).Decode(idx))
	assert.Equal(t, VersionV1, idx.Version)
}
