package objfile

import "github.com/src-d/gitdb/plumbing"

// objfileFixtures holds pre-computed zlib-encoded loose objects, each
// with its expected hash and decompressed content, used by both the
// reader and writer test suites.
var objfileFixtures = []struct {
	t       plumbing.ObjectType
	hash    string
	content string // base64 encoded
	data    string // base64 encoded, zlib compressed
}{
	{
		t:       plumbing.BlobObject,
		hash:    "3b18e512dba79e4c8300dd08aeb37f8e728b8dad",
		content: "aGVsbG8gd29ybGQK",
		data:    "eJxLyslPUjA0YshIzcnJVyjPL8pJ4QIARBEGiQ==",
	},
	{
		t:       plumbing.BlobObject,
		hash:    "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391",
		content: "",
		data:    "eJxLyslPUjBgAAAJsAHw",
	},
	{
		t:       plumbing.CommitObject,
		hash:    "0b405fb34791a8a224a241db9e570a84b28a68a6",
		content: "dHJlZSAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwCmF1dGhvciBBIFUgVGhvciA8YXV0aG9yQGV4YW1wbGUuY29tPiAxMjM0NTY3ODkwICswMDAwCmNvbW1pdHRlciBBIFUgVGhvciA8YXV0aG9yQGV4YW1wbGUuY29tPiAxMjM0NTY3ODkwICswMDAwCgpJbml0aWFsIGNvbW1pdAo=",
		data:    "eJxLzs/NzSxRMDQ3ZigpSk1VMCAScCWWlmTkFyk4KoQqhIAYNhABh9SKxNyCnFS95PxcOwVDI2MTUzNzC0sDBW2wrmSwdSWpJGvk8szLLMlMzFGAmMAFAPOeM8M=",
	},
}
