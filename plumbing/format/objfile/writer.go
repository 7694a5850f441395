package objfile

import (
	"compress/zlib"
	"io"
	"strconv"

	"github.com/src-d/gitdb/plumbing"
	gogitsync "github.com/src-d/gitdb/utils/sync"
)

// Writer encodes an object into its zlib-compressed
// "<type> <size>\x00<payload>" framing.
type Writer struct {
	w  io.Writer
	zw *zlib.Writer

	size    int64
	written int64

	hasher plumbing.Hasher
}

// NewWriter returns a Writer that writes the objfile encoding of an
// object to w. WriteHeader must be called before Write.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader writes the object's type and size, priming the writer
// to accept exactly size bytes of payload.
func (w *Writer) WriteHeader(t plumbing.ObjectType, size int64) error {
	if !t.Valid() {
		return plumbing.ErrInvalidType
	}

	if size < 0 {
		return ErrNegativeSize
	}

	w.size = size
	w.hasher = plumbing.NewHasher(t, size)
	w.zw = gogitsync.GetZlibWriter(w.w)

	header := []byte(t.String())
	header = append(header, ' ')
	header = append(header, []byte(strconv.FormatInt(size, 10))...)
	header = append(header, 0)

	_, err := w.zw.Write(header)
	return err
}

// Write implements io.Writer. It returns ErrOverflow once size bytes,
// as declared to WriteHeader, have been written.
func (w *Writer) Write(p []byte) (int, error) {
	overwrite := false
	if w.written+int64(len(p)) > w.size {
		overwrite = true
		p = p[:w.size-w.written]
	}

	n, err := w.zw.Write(p)
	w.written += int64(n)
	if err == nil && overwrite {
		err = ErrOverflow
	}

	w.hasher.Write(p[:n])

	return n, err
}

// Hash returns the hash of the object written so far.
func (w *Writer) Hash() plumbing.Hash {
	return w.hasher.Sum()
}

// Close flushes and closes the underlying zlib writer.
func (w *Writer) Close() error {
	err := w.zw.Close()
	gogitsync.PutZlibWriter(w.zw)
	return err
}
