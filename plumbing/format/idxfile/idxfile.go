// Package idxfile implements encoding and decoding of packfile .idx
// files: the fanout-table index that maps an object hash to its byte
// offset within the corresponding packfile, without requiring a full
// scan of the pack.
package idxfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/src-d/gitdb/plumbing"
)

const (
	fanout    = 256
	noMapping = -1

	// VersionSupported is the .idx version this package's Writer
	// produces. Decoder also reads VersionV1, the legacy layout git
	// itself no longer writes.
	VersionSupported = 2
	// VersionV1 is the legacy, magic-less .idx layout: no per-object
	// CRC32 table, and entries interleaved as offset||id rather than
	// stored as separate column arrays.
	VersionV1 = 1
)

var idxHeader = []byte{255, 't', 'O', 'c'}

// ErrCRC32Unavailable is returned by FindCRC32 against a version 1
// index, which never recorded per-object CRC32 checksums.
var ErrCRC32Unavailable = errors.New("idxfile: CRC32 not available in version 1 index")

// Index maps object hashes to pack offsets, CRC32 checksums, and back
// again. Both the lazy, io.ReaderAt-backed reader and the in-memory
// writer-side representation implement it.
type Index interface {
	// Contains reports whether h is present in the index.
	Contains(h plumbing.Hash) (bool, error)
	// FindOffset returns the offset in the packfile for the object
	// with the given hash.
	FindOffset(h plumbing.Hash) (int64, error)
	// FindCRC32 returns the CRC32 of the object with the given hash.
	FindCRC32(h plumbing.Hash) (uint32, error)
	// FindHash returns the hash for the object at the given offset.
	FindHash(offset int64) (plumbing.Hash, error)
	// Count returns the number of entries in the index.
	Count() (int64, error)
	// Entries returns an iterator over the index entries in hash
	// order.
	Entries() (EntryIter, error)
	// EntriesByOffset returns an iterator over the index entries in
	// packfile-offset order.
	EntriesByOffset() (EntryIter, error)
	// Close releases any resource held open by the index.
	Close() error
}

// Entry is a single index record: the hash of an object, its offset
// within the packfile, and its CRC32.
type Entry struct {
	Hash   plumbing.Hash
	Offset uint64
	CRC32  uint32
}

// EntryIter iterates over the entries of an Index.
type EntryIter interface {
	Next() (*Entry, error)
	Close() error
}

// MemoryIndex is a fully in-memory Index, built incrementally while a
// packfile is being written and then encoded to disk, or fully parsed
// out of an existing .idx file by Decoder.
type MemoryIndex struct {
	Version int

	Fanout        [fanout]uint32
	FanoutMapping [fanout]int

	// Names, Offset32 and CRC32 are indexed by FanoutMapping[hash[0]];
	// each entry is the concatenation of the fixed-width fields (hash,
	// 4-byte offset, 4-byte CRC32) for every object sharing that
	// leading byte, in ascending hash order.
	Names    [][]byte
	Offset32 [][]byte
	Offset64 []byte
	CRC32    [][]byte

	PackfileChecksum plumbing.Hash
	IdxChecksum      plumbing.Hash

	hashSize     int
	offsetHash   map[int64]plumbing.Hash
	offsetHashMu sync.Mutex
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex returns an empty, writable index sized for object
// ids of hashSize bytes (20 for SHA-1).
func NewMemoryIndex(hashSize int) *MemoryIndex {
	idx := &MemoryIndex{
		Version:  VersionSupported,
		hashSize: hashSize,
	}
	for i := range idx.FanoutMapping {
		idx.FanoutMapping[i] = noMapping
	}
	return idx
}

func (idx *MemoryIndex) findPos(h plumbing.Hash) (bucket, pos int, found bool) {
	bucket = idx.FanoutMapping[h[0]]
	if bucket == noMapping {
		return -1, -1, false
	}

	names := idx.Names[bucket]
	want := h.Bytes()
	n := len(names) / idx.hashSize

	i := sort.Search(n, func(i int) bool {
		return bytes.Compare(names[i*idx.hashSize:(i+1)*idx.hashSize], want) >= 0
	})
	if i >= n || !bytes.Equal(names[i*idx.hashSize:(i+1)*idx.hashSize], want) {
		return bucket, -1, false
	}

	return bucket, i, true
}

func (idx *MemoryIndex) offsetAt(bucket, pos int) (int64, error) {
	off32 := binary.BigEndian.Uint32(idx.Offset32[bucket][pos*Off32Size : pos*Off32Size+Off32Size])
	if uint64(off32)&Is64BitsMask == 0 {
		return int64(off32), nil
	}

	loIndex := int(uint64(off32) &^ Is64BitsMask)
	start := loIndex * Off64Size
	if start+Off64Size > len(idx.Offset64) {
		return 0, ErrInvalidIdxFile
	}

	return int64(binary.BigEndian.Uint64(idx.Offset64[start : start+Off64Size])), nil
}

// crc32At returns the CRC32 recorded at bucket/pos, and false if this
// index has no CRC32 table at all (a version 1 index).
func (idx *MemoryIndex) crc32At(bucket, pos int) (uint32, bool) {
	table := idx.CRC32[bucket]
	if len(table) == 0 {
		return 0, false
	}
	return binary.BigEndian.Uint32(table[pos*IdxCRCSize : pos*IdxCRCSize+IdxCRCSize]), true
}

// Contains implements Index.
func (idx *MemoryIndex) Contains(h plumbing.Hash) (bool, error) {
	_, _, found := idx.findPos(h)
	return found, nil
}

// FindOffset implements Index.
func (idx *MemoryIndex) FindOffset(h plumbing.Hash) (int64, error) {
	bucket, pos, found := idx.findPos(h)
	if !found {
		return 0, plumbing.ErrObjectNotFound
	}
	return idx.offsetAt(bucket, pos)
}

// FindCRC32 implements Index. It returns ErrCRC32Unavailable for an
// object found in a version 1 index, which never recorded one.
func (idx *MemoryIndex) FindCRC32(h plumbing.Hash) (uint32, error) {
	bucket, pos, found := idx.findPos(h)
	if !found {
		return 0, plumbing.ErrObjectNotFound
	}
	crc, ok := idx.crc32At(bucket, pos)
	if !ok {
		return 0, ErrCRC32Unavailable
	}
	return crc, nil
}

// FindHash implements Index. The offset->hash map is built lazily, on
// the first call, and kept for the life of the index.
func (idx *MemoryIndex) FindHash(offset int64) (plumbing.Hash, error) {
	idx.offsetHashMu.Lock()
	defer idx.offsetHashMu.Unlock()

	if idx.offsetHash == nil {
		if err := idx.buildOffsetHash(); err != nil {
			return plumbing.ZeroHash, err
		}
	}

	h, ok := idx.offsetHash[offset]
	if !ok {
		return plumbing.ZeroHash, plumbing.ErrObjectNotFound
	}
	return h, nil
}

func (idx *MemoryIndex) buildOffsetHash() error {
	idx.offsetHash = make(map[int64]plumbing.Hash)
	return idx.forEachEntry(func(e *Entry) error {
		idx.offsetHash[int64(e.Offset)] = e.Hash
		return nil
	})
}

// Count implements Index.
func (idx *MemoryIndex) Count() (int64, error) {
	return int64(idx.Fanout[fanout-1]), nil
}

func (idx *MemoryIndex) forEachEntry(cb func(*Entry) error) error {
	for fan := 0; fan < fanout; fan++ {
		bucket := idx.FanoutMapping[fan]
		if bucket == noMapping {
			continue
		}

		n := len(idx.Names[bucket]) / idx.hashSize
		for i := 0; i < n; i++ {
			var h plumbing.Hash
			h.ResetBySize(idx.hashSize)
			copy(h[:], idx.Names[bucket][i*idx.hashSize:(i+1)*idx.hashSize])

			offset, err := idx.offsetAt(bucket, i)
			if err != nil {
				return err
			}

			crc, _ := idx.crc32At(bucket, i)
			if err := cb(&Entry{
				Hash:   h,
				Offset: uint64(offset),
				CRC32:  crc,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Entries implements Index. Entries come back in ascending hash
// order, which is how they're laid out on disk.
func (idx *MemoryIndex) Entries() (EntryIter, error) {
	var entries []*Entry
	if err := idx.forEachEntry(func(e *Entry) error {
		entries = append(entries, e)
		return nil
	}); err != nil {
		return nil, err
	}
	return &sliceEntryIter{entries: entries}, nil
}

// EntriesByOffset implements Index.
func (idx *MemoryIndex) EntriesByOffset() (EntryIter, error) {
	var entries entriesByOffset
	if err := idx.forEachEntry(func(e *Entry) error {
		entries = append(entries, e)
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Sort(entries)
	return &sliceEntryIter{entries: entries}, nil
}

// Close implements Index. MemoryIndex holds no external resources.
func (idx *MemoryIndex) Close() error {
	return nil
}

type sliceEntryIter struct {
	entries []*Entry
	pos     int
}

func (i *sliceEntryIter) Next() (*Entry, error) {
	if i.pos >= len(i.entries) {
		return nil, io.EOF
	}
	e := i.entries[i.pos]
	i.pos++
	return e, nil
}

func (i *sliceEntryIter) Close() error {
	i.pos = len(i.entries)
	return nil
}

type entriesByOffset []*Entry

func (e entriesByOffset) Len() int           { return len(e) }
func (e entriesByOffset) Less(i, j int) bool { return e[i].Offset < e[j].Offset }
func (e entriesByOffset) Swap(i, j int)      { e[i], e[j] = e[j], e[i] }
