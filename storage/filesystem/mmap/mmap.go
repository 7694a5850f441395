// Package mmap provides a memory-mapped alternative to reading an
// on-disk packfile through billy's buffered file interface. Mapping a
// pack instead of copying it through read(2) avoids doubling memory
// use for large packs and lets the kernel page cache do the eviction
// work instead of this process.
package mmap

import (
	"errors"

	"github.com/go-git/go-billy/v5"
)

// ErrNilFile is returned when Map is called with a nil file.
var ErrNilFile = errors.New("mmap: nil file")

// ErrNoFileDescriptor is returned when f does not expose an
// underlying OS file descriptor, so it cannot be mapped.
var ErrNoFileDescriptor = errors.New("mmap: file has no descriptor")

// billyFileDescriptor is implemented by billy.File implementations
// that can hand back a raw descriptor (e.g. osfs).
type billyFileDescriptor interface {
	Fd() (uintptr, bool)
}

// goFileDescriptor covers *os.File directly, for billy
// implementations that embed one rather than wrapping it.
type goFileDescriptor interface {
	Fd() uintptr
}

func fileDescriptor(f billy.File) (uintptr, error) {
	if ffd, ok := f.(billyFileDescriptor); ok {
		if fd, ok := ffd.Fd(); ok {
			return fd, nil
		}
	}
	if ffd, ok := f.(goFileDescriptor); ok {
		return ffd.Fd(), nil
	}
	return 0, ErrNoFileDescriptor
}

// Map maps the whole of f into memory read-only and returns the
// mapped region along with a function that unmaps it and closes f.
// If f exposes no descriptor (an in-memory filesystem), Map closes f
// and returns ErrNoFileDescriptor. On platforms other than Linux and
// Darwin, Map reads the whole file into memory instead of mapping it,
// and the returned function only closes f.
func Map(f billy.File) ([]byte, func() error, error) {
	if f == nil {
		return nil, nil, ErrNilFile
	}
	return mapFile(f)
}
