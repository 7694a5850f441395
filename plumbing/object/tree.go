package object

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/src-d/gitdb/plumbing"
)

// ErrMalformedTree is returned when a tree object's bytes do not
// follow the "<mode> <name>\x00<20-byte-hash>" entry grammar.
var ErrMalformedTree = errors.New("malformed tree object")

// TreeEntry is a single directory entry: a name, its mode, and the
// object it points to (a Blob for a file, a Tree for a subdirectory,
// or a commit hash for a submodule gitlink).
type TreeEntry struct {
	Name string
	Mode plumbing.FileMode
	Hash plumbing.Hash
}

// Tree is an ordered list of TreeEntry, the object kind used to model
// a directory snapshot.
type Tree struct {
	hash    plumbing.Hash
	Entries []TreeEntry

	// NonStrict relaxes Decode's structural checks: a leading-zero mode
	// (e.g. "0100644") is accepted, and entries out of canonical sort
	// order are tolerated instead of rejected. It exists for read-only
	// ingestion of historical repositories that predate git's current
	// tree-entry ordering rules. Duplicate entry names are always
	// rejected, strict or not.
	NonStrict bool
}

func (t *Tree) ID() plumbing.Hash         { return t.hash }
func (t *Tree) Type() plumbing.ObjectType { return plumbing.TreeObject }

// Decode parses o's bytes into Entries. Entries in a valid tree object
// are already sorted by git's tree sort order (as if directory names
// carried a trailing slash); this simply preserves on-disk order
// rather than re-sorting, so a byte-identical round trip (Encode)
// is guaranteed.
//
// By default, Decode is strict: a non-octal or leading-zero mode, an
// unsorted entry, or a duplicate name all fail with ErrObjectFormat.
// Set NonStrict to relax the mode and ordering checks.
func (t *Tree) Decode(o plumbing.EncodedObject) error {
	if o.Type() != plumbing.TreeObject {
		return plumbing.ErrInvalidType
	}

	t.hash = o.Hash()
	t.Entries = nil

	if o.Size() == 0 {
		return nil
	}

	r, err := o.Reader()
	if err != nil {
		return err
	}
	defer r.Close()

	br := bufio.NewReader(r)
	var prev *TreeEntry
	seen := make(map[string]bool)
	for {
		modeStr, err := br.ReadString(' ')
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(modeStr) < 2 {
			return ErrMalformedTree
		}

		digits := modeStr[:len(modeStr)-1]
		if !t.NonStrict && len(digits) > 1 && digits[0] == '0' {
			return fmt.Errorf("%w: leading zero in mode %q", ErrObjectFormat, digits)
		}
		mode, err := strconv.ParseUint(digits, 8, 32)
		if err != nil {
			return fmt.Errorf("%w: invalid mode %q: %s", ErrObjectFormat, digits, err)
		}

		name, err := br.ReadString(0)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrMalformedTree, err)
		}

		var hash plumbing.Hash
		if _, err := io.ReadFull(br, hash[:]); err != nil {
			return fmt.Errorf("%w: %s", ErrMalformedTree, err)
		}

		entry := TreeEntry{
			Name: name[:len(name)-1],
			Mode: plumbing.FileMode(mode),
			Hash: hash,
		}

		if seen[entry.Name] {
			return fmt.Errorf("%w: duplicate entry name %q", ErrObjectFormat, entry.Name)
		}
		seen[entry.Name] = true

		if prev != nil && !t.NonStrict && !treeEntryLess(*prev, entry) {
			return fmt.Errorf("%w: entry %q out of order", ErrObjectFormat, entry.Name)
		}

		t.Entries = append(t.Entries, entry)
		prev = &t.Entries[len(t.Entries)-1]
	}

	return nil
}

// Encode writes the canonical tree byte form (entries in on-disk
// order, unchanged) into o.
func (t *Tree) Encode(o plumbing.EncodedObject) error {
	var buf bytes.Buffer
	for _, e := range t.Entries {
		fmt.Fprintf(&buf, "%o %s", e.Mode, e.Name)
		buf.WriteByte(0)
		buf.Write(e.Hash[:])
	}

	o.SetType(plumbing.TreeObject)
	o.SetSize(int64(buf.Len()))
	return writeAll(o, buf.Bytes())
}

// SortEntries reorders Entries into git's canonical tree sort order:
// byte-wise, with subdirectory names compared as if a trailing '/'
// were appended, so "foo" sorts after "foo.go" but before "foo/bar".
func SortEntries(entries []TreeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return treeEntryLess(entries[i], entries[j])
	})
}

func treeEntryLess(a, b TreeEntry) bool {
	na, nb := a.Name, b.Name
	if a.Mode == plumbing.Dir {
		na += "/"
	}
	if b.Mode == plumbing.Dir {
		nb += "/"
	}
	return na < nb
}

// FindEntry looks up a direct child by name.
func (t *Tree) FindEntry(name string) (*TreeEntry, bool) {
	for i := range t.Entries {
		if t.Entries[i].Name == name {
			return &t.Entries[i], true
		}
	}
	return nil, false
}
