//go:build darwin || linux

package mmap

import (
	"errors"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sys/unix"
)

func mapFile(f billy.File) ([]byte, func() error, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, nil, errors.Join(err, f.Close())
	}

	fd, err := fileDescriptor(f)
	if err != nil {
		return nil, nil, errors.Join(err, f.Close())
	}

	size := int(info.Size())
	if size == 0 {
		return nil, func() error { return f.Close() }, nil
	}

	data, err := unix.Mmap(int(fd), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, errors.Join(err, f.Close())
	}

	closer := func() error {
		return errors.Join(unix.Munmap(data), f.Close())
	}

	return data, closer, nil
}
