package idxfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Decoder reads and decodes a .idx file, version 1 or 2, from an
// input stream into a MemoryIndex.
type Decoder struct {
	r io.Reader
}

// NewDecoder returns a new decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads the full contents of the decoder's stream into idx.
// idx.hashSize (set by NewMemoryIndex) determines how wide each
// object id is read as. The first four bytes sniff the format: a v2
// file opens with the magic signature \377tOc; a v1 file has no
// magic at all, so those same four bytes are its first fanout entry.
func (d *Decoder) Decode(idx *MemoryIndex) error {
	first := make([]byte, len(idxHeader))
	if _, err := io.ReadFull(d.r, first); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIdxFile, err)
	}

	if bytes.Equal(first, idxHeader) {
		return d.decodeV2(idx)
	}

	return d.decodeV1(idx, first)
}

func (d *Decoder) decodeV2(idx *MemoryIndex) error {
	versionBuf := make([]byte, 4)
	if _, err := io.ReadFull(d.r, versionBuf); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIdxFile, err)
	}

	version := int(binary.BigEndian.Uint32(versionBuf))
	if version != VersionSupported {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidIdxFile, version)
	}
	idx.Version = version

	fanoutBuf := make([]byte, fanout*4)
	if _, err := io.ReadFull(d.r, fanoutBuf); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIdxFile, err)
	}

	counts, bucket := d.readFanout(idx, fanoutBuf)

	total := int(idx.Fanout[fanout-1])

	names := make([]byte, total*idx.hashSize)
	if _, err := io.ReadFull(d.r, names); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIdxFile, err)
	}

	crcs := make([]byte, total*IdxCRCSize)
	if _, err := io.ReadFull(d.r, crcs); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIdxFile, err)
	}

	offsets32 := make([]byte, total*Off32Size)
	if _, err := io.ReadFull(d.r, offsets32); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIdxFile, err)
	}

	rest, err := io.ReadAll(d.r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIdxFile, err)
	}
	if len(rest) < 2*idx.hashSize {
		return fmt.Errorf("%w: truncated trailer", ErrInvalidIdxFile)
	}

	trailer := rest[len(rest)-2*idx.hashSize:]
	idx.Offset64 = rest[:len(rest)-2*idx.hashSize]

	idx.PackfileChecksum.ResetBySize(idx.hashSize)
	copy(idx.PackfileChecksum[:], trailer[:idx.hashSize])
	idx.IdxChecksum.ResetBySize(idx.hashSize)
	copy(idx.IdxChecksum[:], trailer[idx.hashSize:])

	idx.Names = make([][]byte, bucket+1)
	idx.Offset32 = make([][]byte, bucket+1)
	idx.CRC32 = make([][]byte, bucket+1)

	pos := 0
	for i := 0; i < fanout; i++ {
		count := counts[i]
		if count == 0 {
			continue
		}

		b := idx.FanoutMapping[i]
		idx.Names[b] = names[pos*idx.hashSize : (pos+count)*idx.hashSize]
		idx.CRC32[b] = crcs[pos*IdxCRCSize : (pos+count)*IdxCRCSize]
		idx.Offset32[b] = offsets32[pos*Off32Size : (pos+count)*Off32Size]
		pos += count
	}

	return nil
}

// decodeV1 parses the legacy index layout: no magic, no per-object
// CRC32 table, and entries stored interleaved (offset immediately
// followed by id) rather than in separate columns. firstFanout holds
// the four bytes Decode already consumed while sniffing for the v2
// magic; they are fanout[0].
func (d *Decoder) decodeV1(idx *MemoryIndex, firstFanout []byte) error {
	idx.Version = VersionV1

	fanoutBuf := make([]byte, fanout*4)
	copy(fanoutBuf, firstFanout)
	if _, err := io.ReadFull(d.r, fanoutBuf[len(firstFanout):]); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIdxFile, err)
	}

	counts, bucket := d.readFanout(idx, fanoutBuf)

	total := int(idx.Fanout[fanout-1])
	entrySize := Off32Size + idx.hashSize

	entries := make([]byte, total*entrySize)
	if _, err := io.ReadFull(d.r, entries); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIdxFile, err)
	}

	rest, err := io.ReadAll(d.r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIdxFile, err)
	}
	if len(rest) != 2*idx.hashSize {
		return fmt.Errorf("%w: truncated trailer", ErrInvalidIdxFile)
	}

	idx.PackfileChecksum.ResetBySize(idx.hashSize)
	copy(idx.PackfileChecksum[:], rest[:idx.hashSize])
	idx.IdxChecksum.ResetBySize(idx.hashSize)
	copy(idx.IdxChecksum[:], rest[idx.hashSize:])

	names := make([]byte, total*idx.hashSize)
	offsets32 := make([]byte, total*Off32Size)
	for i := 0; i < total; i++ {
		e := entries[i*entrySize : (i+1)*entrySize]
		copy(offsets32[i*Off32Size:(i+1)*Off32Size], e[:Off32Size])
		copy(names[i*idx.hashSize:(i+1)*idx.hashSize], e[Off32Size:])
	}

	idx.Names = make([][]byte, bucket+1)
	idx.Offset32 = make([][]byte, bucket+1)
	idx.CRC32 = make([][]byte, bucket+1)

	pos := 0
	for i := 0; i < fanout; i++ {
		count := counts[i]
		if count == 0 {
			continue
		}

		b := idx.FanoutMapping[i]
		idx.Names[b] = names[pos*idx.hashSize : (pos+count)*idx.hashSize]
		idx.Offset32[b] = offsets32[pos*Off32Size : (pos+count)*Off32Size]
		// idx.CRC32[b] stays nil: version 1 never recorded one.
		pos += count
	}

	return nil
}

// readFanout parses the 256-entry cumulative fanout table, common to
// both versions, into idx.Fanout/FanoutMapping, returning the
// per-byte-value counts and the index of the last populated bucket.
func (d *Decoder) readFanout(idx *MemoryIndex, fanoutBuf []byte) (counts []int, lastBucket int) {
	counts = make([]int, fanout)
	bucket := -1
	var prev uint32
	for i := 0; i < fanout; i++ {
		v := binary.BigEndian.Uint32(fanoutBuf[i*4 : i*4+4])
		idx.Fanout[i] = v

		count := int(v - prev)
		counts[i] = count
		if count > 0 {
			bucket++
			idx.FanoutMapping[i] = bucket
		} else {
			idx.FanoutMapping[i] = noMapping
		}
		prev = v
	}
	return counts, bucket
}
