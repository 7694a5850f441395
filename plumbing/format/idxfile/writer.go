package idxfile

import (
	"bytes"
	"math"
	"sort"

	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/utils/binary"
)

type object struct {
	hash   plumbing.Hash
	offset int64
	crc    uint32
}

type objects []object

func (o objects) Len() int           { return len(o) }
func (o objects) Less(i, j int) bool { return o[i].hash.Compare(o[j].hash) < 0 }
func (o objects) Swap(i, j int)      { o[i], o[j] = o[j], o[i] }

// Writer implements the packfile.Observer interface and accumulates
// the information needed to build a MemoryIndex as a packfile is
// scanned or parsed.
type Writer struct {
	count    uint32
	checksum plumbing.Hash
	objects  objects
}

var _ packfileObserver = (*Writer)(nil)

// packfileObserver mirrors packfile.Observer without importing the
// packfile package, which itself may need to depend on idxfile.
type packfileObserver interface {
	OnHeader(count uint32) error
	OnInflatedObjectHeader(t plumbing.ObjectType, objSize int64, pos int64) error
	OnInflatedObjectContent(h plumbing.Hash, pos int64, crc uint32, content []byte) error
	OnFooter(h plumbing.Hash) error
}

// Index returns a MemoryIndex filled from the information gathered by
// the observer callbacks.
func (w *Writer) Index() (*MemoryIndex, error) {
	idx := NewMemoryIndex(len(w.checksum))
	sort.Sort(w.objects)

	buf := new(bytes.Buffer)

	last := -1
	bucket := -1
	for i, o := range w.objects {
		fan := o.hash[0]

		for j := last + 1; j < int(fan); j++ {
			idx.Fanout[j] = uint32(i)
		}

		idx.Fanout[fan] = uint32(i + 1)

		if last != int(fan) {
			bucket++
			idx.FanoutMapping[fan] = bucket
			last = int(fan)

			idx.Names = append(idx.Names, make([]byte, 0))
			idx.Offset32 = append(idx.Offset32, make([]byte, 0))
			idx.CRC32 = append(idx.CRC32, make([]byte, 0))
		}

		idx.Names[bucket] = append(idx.Names[bucket], o.hash[:]...)

		offset := uint32(o.offset)
		if o.offset > math.MaxInt32 {
			buf.Truncate(0)
			binary.Write(buf, uint64(o.offset))
			offset = uint32(len(idx.Offset64)/Off64Size) | uint32(Is64BitsMask)
			idx.Offset64 = append(idx.Offset64, buf.Bytes()...)
		}

		buf.Truncate(0)
		binary.WriteUint32(buf, offset)
		idx.Offset32[bucket] = append(idx.Offset32[bucket], buf.Bytes()...)

		buf.Truncate(0)
		binary.WriteUint32(buf, o.crc)
		idx.CRC32[bucket] = append(idx.CRC32[bucket], buf.Bytes()...)
	}

	for j := last + 1; j < fanout; j++ {
		idx.Fanout[j] = uint32(len(w.objects))
	}

	idx.PackfileChecksum = w.checksum

	return idx, nil
}

// Add appends a single object's index data.
func (w *Writer) Add(h plumbing.Hash, pos int64, crc uint32) {
	w.objects = append(w.objects, object{h, pos, crc})
}

// OnHeader implements packfile.Observer.
func (w *Writer) OnHeader(count uint32) error {
	w.count = count
	w.objects = make(objects, 0, count)
	return nil
}

// OnInflatedObjectHeader implements packfile.Observer.
func (w *Writer) OnInflatedObjectHeader(t plumbing.ObjectType, objSize int64, pos int64) error {
	return nil
}

// OnInflatedObjectContent implements packfile.Observer.
func (w *Writer) OnInflatedObjectContent(h plumbing.Hash, pos int64, crc uint32, content []byte) error {
	w.Add(h, pos, crc)
	return nil
}

// OnFooter implements packfile.Observer.
func (w *Writer) OnFooter(h plumbing.Hash) error {
	w.checksum = h
	return nil
}
