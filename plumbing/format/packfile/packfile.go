package packfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	billy "github.com/go-git/go-billy/v5"

	"github.com/src-d/gitdb/hash"
	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/plumbing/cache"
	"github.com/src-d/gitdb/plumbing/format/idxfile"
	packutil "github.com/src-d/gitdb/plumbing/format/packfile/util"
	"github.com/src-d/gitdb/plumbing/storer"
)

// Packfile provides random access to the objects stored in a packfile,
// resolving delta chains on demand and using its Index to translate
// object hashes into pack offsets.
type Packfile struct {
	idxfile.Index

	fs           billy.Filesystem
	file         billy.File
	cache        cache.Object
	objectIDSize int

	scanner *Scanner

	once    sync.Once
	onceErr error

	m sync.Mutex

	offsetToHash map[int64]plumbing.Hash
}

// NewPackfile returns a Packfile backed by file. Use WithIdx to supply
// the companion .idx index; without one, hash-based lookups always
// fail and only offset-based access works.
func NewPackfile(file billy.File, opts ...PackfileOption) *Packfile {
	p := &Packfile{
		file:         file,
		objectIDSize: hash.Size,
		offsetToHash: make(map[int64]plumbing.Hash),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.cache == nil {
		p.cache = cache.NewObjectLRUDefault()
	}

	return p
}

func (p *Packfile) init() error {
	p.once.Do(func() {
		p.scanner = NewScanner(p.file)
	})
	return p.onceErr
}

// Scanner returns the underlying packfile Scanner, initializing it on
// first use.
func (p *Packfile) Scanner() *Scanner {
	_ = p.init()
	return p.scanner
}

// Get returns the object identified by h.
func (p *Packfile) Get(h plumbing.Hash) (plumbing.EncodedObject, error) {
	if err := p.init(); err != nil {
		return nil, err
	}

	p.m.Lock()
	defer p.m.Unlock()

	return p.getByHash(h)
}

// GetByOffset returns the object stored at the given offset within the
// packfile.
func (p *Packfile) GetByOffset(offset int64) (plumbing.EncodedObject, error) {
	if err := p.init(); err != nil {
		return nil, err
	}

	p.m.Lock()
	defer p.m.Unlock()

	return p.getByOffset(offset)
}

// GetSizeByOffset returns the undeltified size of the object stored at
// the given offset. For a delta entry this is the target size read from
// the delta's own header, without resolving its delta chain.
func (p *Packfile) GetSizeByOffset(offset int64) (int64, error) {
	if err := p.init(); err != nil {
		return 0, err
	}

	p.m.Lock()
	defer p.m.Unlock()

	oh, err := p.headerFromOffset(offset)
	if err != nil {
		return 0, err
	}

	if oh.Type.IsDelta() {
		var delta bytes.Buffer
		if err := p.scanner.WriteObject(oh, &delta); err != nil {
			return 0, err
		}
		_, rest := packutil.DecodeLEB128(delta.Bytes())
		targetSz, _ := packutil.DecodeLEB128(rest)
		return int64(targetSz), nil
	}

	return oh.Size, nil
}

// GetByType returns an iterator over every object of the given type in
// the packfile. Use plumbing.AnyObject to iterate every object.
func (p *Packfile) GetByType(t plumbing.ObjectType) (storer.EncodedObjectIter, error) {
	switch t {
	case plumbing.AnyObject, plumbing.BlobObject, plumbing.TreeObject,
		plumbing.CommitObject, plumbing.TagObject:
	default:
		return nil, plumbing.ErrInvalidType
	}

	if err := p.init(); err != nil {
		return nil, err
	}

	entries, err := p.Index.Entries()
	if err != nil {
		return nil, err
	}

	return &objectIter{p: p, typ: t, iter: entries}, nil
}

// Check verifies the object identified by h against the CRC32
// recorded for it in the index, re-reading and re-checksumming its
// compressed bytes from the packfile. It is never run implicitly by
// Get/GetByOffset — those trust the index — so a caller pays this
// cost only when it actually wants to detect on-disk corruption.
func (p *Packfile) Check(h plumbing.Hash) error {
	if err := p.init(); err != nil {
		return err
	}

	p.m.Lock()
	defer p.m.Unlock()

	offset, err := p.Index.FindOffset(h)
	if err != nil {
		return err
	}

	wantCRC, err := p.Index.FindCRC32(h)
	if err != nil {
		return err
	}

	oh, err := p.headerFromOffset(offset)
	if err != nil {
		return err
	}

	if oh.Crc32 != wantCRC {
		return fmt.Errorf("packfile: crc32 mismatch for %s: index has %08x, pack has %08x",
			h, wantCRC, oh.Crc32)
	}

	return nil
}

// Close releases the index and the underlying packfile.
func (p *Packfile) Close() error {
	var err error
	if p.Index != nil {
		err = p.Index.Close()
	}

	if cerr := p.file.Close(); cerr != nil && err == nil {
		err = cerr
	}

	return err
}

func (p *Packfile) getByHash(h plumbing.Hash) (plumbing.EncodedObject, error) {
	if obj, ok := p.cache.Get(h); ok {
		return obj, nil
	}

	offset, err := p.Index.FindOffset(h)
	if err != nil {
		return nil, err
	}

	return p.getByOffset(offset)
}

func (p *Packfile) getByOffset(offset int64) (plumbing.EncodedObject, error) {
	if h, ok := p.offsetToHash[offset]; ok {
		if obj, ok := p.cache.Get(h); ok {
			return obj, nil
		}
	}

	oh, err := p.headerFromOffset(offset)
	if err != nil {
		return nil, err
	}

	return p.objectFromHeader(oh)
}

// headerFromOffset seeks the scanner to offset and scans exactly the
// object entry located there.
func (p *Packfile) headerFromOffset(offset int64) (*ObjectHeader, error) {
	if err := p.scanner.SeekFromStart(offset); err != nil {
		return nil, err
	}

	if !p.scanner.Scan() {
		if err := p.scanner.Error(); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, plumbing.ErrObjectNotFound
	}

	data := p.scanner.Data()
	if data.Section != ObjectSection {
		return nil, ErrMalformedPackfile
	}

	oh := data.Value().(ObjectHeader)
	return &oh, nil
}

// objectFromHeader materializes the object described by oh, resolving
// its delta chain against p's index and cache as needed.
func (p *Packfile) objectFromHeader(oh *ObjectHeader) (plumbing.EncodedObject, error) {
	if !oh.Type.IsDelta() {
		obj := plumbing.NewMemoryObject()
		obj.SetType(oh.Type)
		obj.SetSize(oh.Size)

		w, err := obj.Writer()
		if err != nil {
			return nil, err
		}

		if err := p.scanner.WriteObject(oh, w); err != nil {
			w.Close()
			return nil, err
		}
		w.Close()

		p.offsetToHash[oh.Offset] = obj.Hash()
		p.cache.Put(obj)

		return obj, nil
	}

	base, err := p.deltaBase(oh)
	if err != nil {
		return nil, err
	}

	var delta bytes.Buffer
	if err := p.scanner.WriteObject(oh, &delta); err != nil {
		return nil, err
	}

	obj := plumbing.NewMemoryObject()
	obj.SetType(base.Type())
	obj.SetSize(base.Size())

	if err := ApplyDelta(obj, base, &delta); err != nil {
		return nil, err
	}

	p.offsetToHash[oh.Offset] = obj.Hash()
	p.cache.Put(obj)

	return obj, nil
}

func (p *Packfile) deltaBase(oh *ObjectHeader) (plumbing.EncodedObject, error) {
	switch oh.Type {
	case plumbing.OFSDeltaObject:
		return p.getByOffset(oh.OffsetReference)
	case plumbing.REFDeltaObject:
		return p.getByHash(oh.Reference)
	default:
		return nil, plumbing.ErrInvalidType
	}
}
