// Package packfiletest builds small, valid packfiles in memory so tests
// exercise the real wire format (github.com/src-d/gitdb/plumbing/format/packfile's
// Scanner/Parser) without depending on a checked-in fixture repository.
package packfiletest

import (
	"bytes"
	"compress/zlib"
	"crypto"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"

	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/plumbing/format/idxfile"
	"github.com/src-d/gitdb/plumbing/format/packfile"
)

// Object is one entry to place in a built packfile, in insertion order.
type Object struct {
	Type plumbing.ObjectType
	Data []byte

	// Base, when non-zero, makes this entry a ref-delta against the
	// object with that hash instead of a full object: Data is then the
	// already-encoded delta payload (see Delta), not the literal
	// object bytes.
	Base plumbing.Hash
}

// Delta encodes target as an insert-only delta against a base of the
// given size: valid input to the packfile's patch-delta decoder
// regardless of what the base's actual bytes are, since every byte of
// the result comes from an insert instruction rather than a copy.
func Delta(baseSize int, target []byte) []byte {
	var buf bytes.Buffer
	writeDeltaVarint(&buf, uint(baseSize))
	writeDeltaVarint(&buf, uint(len(target)))

	for len(target) > 0 {
		n := len(target)
		if n > 127 {
			n = 127
		}
		buf.WriteByte(byte(n))
		buf.Write(target[:n])
		target = target[n:]
	}

	return buf.Bytes()
}

func writeDeltaVarint(buf *bytes.Buffer, v uint) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v > 0 {
			b |= 0x80
		}
		buf.WriteByte(b)
		if v == 0 {
			break
		}
	}
}

// Build encodes objs into a full packfile byte stream: signature,
// version 2 header, each object's type+size header followed by its
// zlib-compressed payload, and a trailing SHA-1 over everything
// before it, exactly as plumbing/format/packfile.Scanner expects.
func Build(objs []Object) []byte {
	var buf bytes.Buffer

	buf.WriteString("PACK")
	writeUint32(&buf, 2)
	writeUint32(&buf, uint32(len(objs)))

	for _, o := range objs {
		writeObject(&buf, o)
	}

	h := crypto.SHA1.New()
	h.Write(buf.Bytes())
	buf.Write(h.Sum(nil))

	return buf.Bytes()
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v >> 24))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v))
}

func writeObject(buf *bytes.Buffer, o Object) {
	typ := byte(o.Type)
	if !o.Base.IsZero() {
		typ = byte(plumbing.REFDeltaObject)
	}

	size := len(o.Data)
	first := byte(size & 0x0f)
	size >>= 4
	if size > 0 {
		first |= 0x80
	}
	buf.WriteByte(first | (typ << 4))

	for size > 0 {
		b := byte(size & 0x7f)
		size >>= 7
		if size > 0 {
			b |= 0x80
		}
		buf.WriteByte(b)
	}

	if !o.Base.IsZero() {
		buf.Write(o.Base[:])
	}

	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	zw.Write(o.Data)
	zw.Close()

	buf.Write(zbuf.Bytes())
}

// Index builds the idxfile.Index matching the packfile data produced
// by Build(objs), by running the same data back through the real
// parser with an idxfile.Writer attached as a scanner observer.
func Index(data []byte) idxfile.Index {
	w := new(idxfile.Writer)
	if _, err := packfile.NewParser(bytes.NewReader(data), packfile.WithScannerObservers(w)).Parse(); err != nil {
		panic(err)
	}

	idx, err := w.Index()
	if err != nil {
		panic(err)
	}

	return idx
}

// File writes data to a file named name on fs and reopens it for
// reading, returning a billy.File suitable for packfile.NewPackfile.
func File(fs billy.Filesystem, name string, data []byte) billy.File {
	f, err := fs.Create(name)
	if err != nil {
		panic(err)
	}
	if _, err := f.Write(data); err != nil {
		panic(err)
	}
	if err := f.Close(); err != nil {
		panic(err)
	}

	f, err = fs.Open(name)
	if err != nil {
		panic(err)
	}

	return f
}

// NewFS returns a fresh in-memory billy.Filesystem, convenient for
// pairing with File.
func NewFS() billy.Filesystem {
	return memfs.New()
}
