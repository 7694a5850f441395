// Package objfile implements the loose-object codec: the zlib-wrapped
// "<type> <size>\x00<payload>" framing a single object is written under
// inside .git/objects.
package objfile

import "errors"

var (
	// ErrOverflow is returned when a write would exceed the size given
	// to WriteHeader.
	ErrOverflow = errors.New("write beyond object size")
	// ErrNegativeSize is returned when WriteHeader is given a negative
	// size.
	ErrNegativeSize = errors.New("negative object size")
	// ErrHeader is returned when an object's header cannot be parsed.
	ErrHeader = errors.New("invalid object header")
)
