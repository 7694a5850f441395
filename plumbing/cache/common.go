// Package cache provides a byte-size-bounded object cache used by the
// pack store to keep recently resolved delta bases in memory, so a
// chain of deltas sharing a base does not re-inflate it on every hit.
package cache

import "github.com/src-d/gitdb/plumbing"

// FileSize is a byte count; the constants below give it a few
// convenient units for cache-size configuration.
type FileSize int64

const (
	Byte FileSize = 1 << (iota * 10)
	KiByte
	MiByte
	GiByte
)

// Object is a bounded cache of decoded objects keyed by hash. Put may
// evict older entries to stay under the cache's size budget; Get
// reports a miss rather than erroring, since the cache is always
// optional — every caller must be able to fall back to recomputing.
type Object interface {
	Put(o plumbing.EncodedObject)
	Get(k plumbing.Hash) (plumbing.EncodedObject, bool)
	Clear()
}
