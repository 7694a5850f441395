package object

import (
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/src-d/gitdb/plumbing"
)

// ChangeAction describes what happened to a path between two tree
// snapshots.
type ChangeAction int8

const (
	Insert ChangeAction = iota
	Delete
	Modify
	// Rename marks a Delete/Insert pair DetectRenames paired up as the
	// same content moving to a new path; both From and To are set.
	Rename
	// Copy marks an Insert DetectRenames matched against content that
	// is still present, unchanged, elsewhere in the tree; From names
	// the unconsumed source, To the new path.
	Copy
	// Unchanged marks a path whose content and mode are identical in
	// both trees. DiffTree never emits it; only DiffTreeWithUnchanged
	// does, so DetectRenames has copy-source candidates to match
	// against when find_copies is requested.
	Unchanged
)

func (a ChangeAction) String() string {
	switch a {
	case Insert:
		return "Insert"
	case Delete:
		return "Delete"
	case Modify:
		return "Modify"
	case Rename:
		return "Rename"
	case Copy:
		return "Copy"
	case Unchanged:
		return "Unchanged"
	default:
		return "Unknown"
	}
}

// ChangeEntry names one side of a Change: the path it lived at and
// the tree entry describing it, absent for the side that doesn't
// apply (e.g. From on an Insert).
type ChangeEntry struct {
	Path  string
	Entry TreeEntry
}

// Change is one file-level difference between two tree snapshots. For
// a Rename or Copy, From and To are both set with differing paths.
type Change struct {
	Action ChangeAction
	From   ChangeEntry
	To     ChangeEntry
	// Score is the content-similarity score (0-100) backing a rename
	// or copy pairing; zero for a plain Insert/Delete/Modify.
	Score int
}

// Changes is a set of Change, normally produced by DiffTree.
type Changes []*Change

// TreeProvider resolves a tree object's hash to its parsed Tree, so
// DiffTree can recurse into subdirectories that differ.
type TreeProvider interface {
	Tree(h plumbing.Hash) (*Tree, error)
}

// BlobProvider resolves a blob's content, used by rename/copy
// detection to score similarity between candidate delete/insert
// pairs.
type BlobProvider interface {
	BlobContent(h plumbing.Hash) ([]byte, error)
}

// DiffTree compares the content and mode of the blobs reachable from
// two root trees, recursing into subdirectories whose hash differs,
// and returns one Change per added, removed, or modified blob. Paths
// identical in both trees are omitted. It does not perform rename or
// copy detection; call DetectRenames on the result for that.
func DiffTree(provider TreeProvider, a, b *Tree) (Changes, error) {
	return diffTree(provider, a, b, false)
}

// DiffTreeWithUnchanged is DiffTree, but also emits an Unchanged
// Change for every path identical in both trees. DetectRenames needs
// these as copy-source candidates when find_copies is requested;
// ordinary diffing has no use for them and should prefer DiffTree,
// since producing them forces a full walk of any subtree whose hash
// happens to match on both sides.
func DiffTreeWithUnchanged(provider TreeProvider, a, b *Tree) (Changes, error) {
	return diffTree(provider, a, b, true)
}

func diffTree(provider TreeProvider, a, b *Tree, includeUnchanged bool) (Changes, error) {
	var out Changes
	if err := diffDir(provider, "", a, b, includeUnchanged, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// diffDir performs the two-tree merge at one directory level: entries
// from a and b, both already in canonical tree order, are walked in
// lockstep like a merge-sort, matching names and recursing into
// subdirectories that differ.
func diffDir(provider TreeProvider, prefix string, a, b *Tree, includeUnchanged bool, out *Changes) error {
	ae, be := entriesOf(a), entriesOf(b)
	i, j := 0, 0

	for i < len(ae) && j < len(be) {
		cmp := compareEntryNames(ae[i], be[j])
		switch {
		case cmp < 0:
			if err := emitSubtreeAll(provider, prefix, ae[i], Delete, out); err != nil {
				return err
			}
			i++
		case cmp > 0:
			if err := emitSubtreeAll(provider, prefix, be[j], Insert, out); err != nil {
				return err
			}
			j++
		default:
			if err := diffMatched(provider, prefix, ae[i], be[j], includeUnchanged, out); err != nil {
				return err
			}
			i++
			j++
		}
	}

	for ; i < len(ae); i++ {
		if err := emitSubtreeAll(provider, prefix, ae[i], Delete, out); err != nil {
			return err
		}
	}
	for ; j < len(be); j++ {
		if err := emitSubtreeAll(provider, prefix, be[j], Insert, out); err != nil {
			return err
		}
	}

	return nil
}

func entriesOf(t *Tree) []TreeEntry {
	if t == nil {
		return nil
	}
	entries := make([]TreeEntry, len(t.Entries))
	copy(entries, t.Entries)
	SortEntries(entries)
	return entries
}

// compareEntryNames orders two entries the way diffDir's merge walk
// needs: by normalized name, so a tree written on a filesystem that
// decomposes Unicode (HFS+'s NFD) still lines up against the NFC form
// git itself records, instead of spuriously diffing as a delete+insert
// pair.
func compareEntryNames(a, b TreeEntry) int {
	na, nb := normalizedEntryName(a), normalizedEntryName(b)
	if na < nb {
		return -1
	}
	if na > nb {
		return 1
	}
	return 0
}

func normalizedEntryName(e TreeEntry) string {
	n := norm.NFC.String(e.Name)
	if e.Mode == plumbing.Dir {
		n += "/"
	}
	return n
}

func diffMatched(provider TreeProvider, prefix string, a, b TreeEntry, includeUnchanged bool, out *Changes) error {
	path := joinPath(prefix, a.Name)

	aIsDir := a.Mode == plumbing.Dir
	bIsDir := b.Mode == plumbing.Dir

	if aIsDir && bIsDir {
		if a.Hash == b.Hash {
			if includeUnchanged {
				return emitSubtreeAll(provider, prefix, a, Unchanged, out)
			}
			return nil
		}
		at, err := provider.Tree(a.Hash)
		if err != nil {
			return err
		}
		bt, err := provider.Tree(b.Hash)
		if err != nil {
			return err
		}
		return diffDir(provider, path, at, bt, includeUnchanged, out)
	}

	if aIsDir != bIsDir {
		// A directory was replaced by a file (or vice-versa): treat it
		// as a full delete of one side and insert of the other.
		if aIsDir {
			if err := emitSubtreeAll(provider, prefix, a, Delete, out); err != nil {
				return err
			}
			*out = append(*out, &Change{Action: Insert, To: ChangeEntry{Path: path, Entry: b}})
			return nil
		}
		*out = append(*out, &Change{Action: Delete, From: ChangeEntry{Path: path, Entry: a}})
		return emitSubtreeAll(provider, prefix, b, Insert, out)
	}

	if a.Hash != b.Hash || a.Mode != b.Mode {
		*out = append(*out, &Change{
			Action: Modify,
			From:   ChangeEntry{Path: path, Entry: a},
			To:     ChangeEntry{Path: path, Entry: b},
		})
	} else if includeUnchanged {
		*out = append(*out, &Change{
			Action: Unchanged,
			From:   ChangeEntry{Path: path, Entry: a},
			To:     ChangeEntry{Path: path, Entry: b},
		})
	}

	return nil
}

// emitSubtreeAll recursively emits one Change per leaf (blob or
// gitlink) entry under e, used when an entire subtree was added or
// removed wholesale.
func emitSubtreeAll(provider TreeProvider, prefix string, e TreeEntry, action ChangeAction, out *Changes) error {
	path := joinPath(prefix, e.Name)

	if e.Mode != plumbing.Dir {
		ce := ChangeEntry{Path: path, Entry: e}
		c := &Change{Action: action}
		switch action {
		case Delete:
			c.From = ce
		case Unchanged:
			c.From = ce
			c.To = ce
		default:
			c.To = ce
		}
		*out = append(*out, c)
		return nil
	}

	t, err := provider.Tree(e.Hash)
	if err != nil {
		return err
	}
	for _, child := range entriesOf(t) {
		if err := emitSubtreeAll(provider, path, child, action, out); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// SortChanges sorts Changes by path for deterministic output, using
// whichever side of the change carries a path.
func SortChanges(cs Changes) {
	sort.Slice(cs, func(i, j int) bool {
		return changePath(cs[i]) < changePath(cs[j])
	})
}

func changePath(c *Change) string {
	if c.From.Path != "" {
		return c.From.Path
	}
	return c.To.Path
}
