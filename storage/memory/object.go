package memory

import (
	"io"

	"github.com/src-d/gitdb/plumbing/format/packfile"
)

// packfileWriter streams a raw packfile into an io.Pipe and parses it
// on a background goroutine, storing every object it decodes directly
// into the in-memory ObjectStorage as it goes.
type packfileWriter struct {
	pw   *io.PipeWriter
	done chan error
}

func newPackfileWriter(o *ObjectStorage) *packfileWriter {
	pr, pw := io.Pipe()
	done := make(chan error, 1)

	go func() {
		_, err := packfile.NewParser(pr, packfile.WithStorage(o)).Parse()
		pr.CloseWithError(err)
		done <- err
	}()

	return &packfileWriter{pw: pw, done: done}
}

func (w *packfileWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *packfileWriter) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}

	return <-w.done
}
