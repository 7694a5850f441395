package packfile

import "github.com/src-d/gitdb/plumbing/storer"

type ScannerOption func(*Scanner)

// WithLowMemoryMode enables low-memory mode: inflated object content is
// discarded right after being hashed instead of being buffered, at the
// cost of requiring a seekable source to re-inflate delta bases later.
func WithLowMemoryMode(enabled bool) ScannerOption {
	return func(s *Scanner) {
		s.lowMemoryMode = enabled
	}
}

// WithScannerStorage sets the storage non-delta objects are streamed
// into as they're scanned, so the caller doesn't need a second pass to
// persist them.
func WithScannerStorage(storage storer.EncodedObjectStorer) ScannerOption {
	return func(s *Scanner) {
		s.storage = storage
	}
}
