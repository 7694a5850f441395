//go:build !darwin && !linux

package mmap

import (
	"errors"
	"io"

	"github.com/go-git/go-billy/v5"
)

// mapFile has no mmap(2) equivalent wired up for this platform; it
// reads the whole file into a plain slice instead so callers get the
// same []byte-in-memory contract everywhere.
func mapFile(f billy.File) ([]byte, func() error, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, errors.Join(err, f.Close())
	}
	return data, f.Close, nil
}
