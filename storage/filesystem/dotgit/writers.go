package dotgit

import (
	"io"
	"path/filepath"

	"github.com/go-git/go-billy/v5"

	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/plumbing/format/idxfile"
	"github.com/src-d/gitdb/plumbing/format/objfile"
	"github.com/src-d/gitdb/plumbing/format/packfile"
	"github.com/src-d/gitdb/utils/ioutil"
	"github.com/src-d/gitdb/utils/trace"
)

// Writer writes a single loose object. It buffers the compressed
// bytes into a temporary file and, on Close, installs it under its
// final content-addressed name.
type Writer struct {
	fs      billy.Filesystem
	f       billy.File
	ow      *objfile.Writer
	objRoot string
	done    bool
}

func newObjectWriter(fs billy.Filesystem, objRoot string) (*Writer, error) {
	f, err := fs.TempFile(objRoot, "tmp_obj_")
	if err != nil {
		return nil, err
	}

	return &Writer{fs: fs, f: f, ow: objfile.NewWriter(f), objRoot: objRoot}, nil
}

// WriteHeader declares the type and size of the object about to be
// written; it must be called exactly once, before any call to Write.
func (w *Writer) WriteHeader(t plumbing.ObjectType, size int64) error {
	return w.ow.WriteHeader(t, size)
}

// Write streams size bytes of the object's payload, as declared to
// WriteHeader.
func (w *Writer) Write(p []byte) (int, error) {
	return w.ow.Write(p)
}

// Hash returns the hash of the object written so far.
func (w *Writer) Hash() plumbing.Hash {
	return w.ow.Hash()
}

// Close finalizes the object and installs it at objects/<hash prefix
// split>. If an object with the same hash already exists, the
// temporary file is discarded instead, since the store is
// content-addressed and the two are byte-identical.
func (w *Writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true

	if err := w.ow.Close(); err != nil {
		return err
	}

	if err := w.f.Close(); err != nil {
		return err
	}

	h := w.ow.Hash()
	s := h.String()
	final := filepath.Join(w.objRoot, s[0:2], s[2:])

	if _, err := w.fs.Stat(final); err == nil {
		// The object is already present and, being content-addressed,
		// byte-identical to what we just wrote: failing to clean up
		// the now-redundant temp file is not worth failing the write
		// over, just worth knowing about.
		if rerr := w.fs.Remove(w.f.Name()); rerr != nil {
			trace.General.Printf("dotgit: failed to remove stale temp object %s: %v", w.f.Name(), rerr)
		}
		return nil
	}

	return w.fs.Rename(w.f.Name(), final)
}

// PackWriter accepts a raw packfile byte stream into a temporary file.
// On Close it parses the pack, verifying it and building its companion
// index, and installs both files by renaming them into place.
type PackWriter struct {
	// Notify, if set, is called with the resulting checksum and the
	// idxfile.Writer used to build the index, once the pack has been
	// fully received and verified.
	Notify func(plumbing.Hash, *idxfile.Writer)

	fs      billy.Filesystem
	fw      billy.File
	objRoot string
	done    bool
}

func newPackWriter(fs billy.Filesystem, objRoot string) (*PackWriter, error) {
	dir := filepath.Join(objRoot, packPath)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	fw, err := fs.TempFile(dir, "tmp_pack_")
	if err != nil {
		return nil, err
	}

	return &PackWriter{fs: fs, fw: fw, objRoot: objRoot}, nil
}

// Write streams raw packfile bytes.
func (w *PackWriter) Write(p []byte) (int, error) {
	return w.fw.Write(p)
}

// Close finishes receiving the pack, parses it to build the index,
// and installs pack-<checksum>.idx and then pack-<checksum>.pack, each
// by renaming a temporary file.
func (w *PackWriter) Close() (err error) {
	if w.done {
		return nil
	}
	w.done = true

	if err = w.fw.Close(); err != nil {
		return err
	}

	fr, err := w.fs.Open(w.fw.Name())
	if err != nil {
		return err
	}
	defer ioutil.CheckClose(fr, &err)

	idxWriter := new(idxfile.Writer)
	parser := packfile.NewParser(fr, packfile.WithScannerObservers(idxWriter))

	checksum, err := parser.Parse()
	if err != nil {
		return err
	}

	if err = w.install(checksum, idxWriter); err != nil {
		return err
	}

	if w.Notify != nil {
		w.Notify(checksum, idxWriter)
	}

	return nil
}

func (w *PackWriter) install(checksum plumbing.Hash, idxWriter *idxfile.Writer) (err error) {
	base := filepath.Join(w.objRoot, packPath, packPrefix+checksum.String())

	index, err := idxWriter.Index()
	if err != nil {
		return err
	}

	idx, err := w.fs.TempFile(filepath.Join(w.objRoot, packPath), "tmp_idx_")
	if err != nil {
		return err
	}

	e := idxfile.NewEncoder(idx)
	if _, err = e.Encode(index); err != nil {
		_ = idx.Close()
		return err
	}

	if err = idx.Close(); err != nil {
		return err
	}

	if err = w.fs.Rename(idx.Name(), base+idxExt); err != nil {
		return err
	}

	return w.fs.Rename(w.fw.Name(), base+packExt)
}

var _ io.WriteCloser = (*Writer)(nil)
var _ io.WriteCloser = (*PackWriter)(nil)
