package dotgit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/utils/ioutil"
)

const (
	refsPath       = "refs"
	packedRefsPath = "packed-refs"
)

var (
	// ErrPackedRefsBadFormat is returned when a packed-refs line
	// cannot be split into a hash and a name.
	ErrPackedRefsBadFormat = errors.New("malformed packed-refs line")
	// ErrReferenceHasChanged is returned by SetRef when old is given
	// and the reference currently on disk no longer matches it.
	ErrReferenceHasChanged = errors.New("reference has changed concurrently")
)

// Ref reads the single reference named n, consulting loose refs first
// and falling back to packed-refs: a loose ref shadows a packed one of
// the same name, per the recommended resolution policy for this core
// (loose wins on read; this core never rewrites packed-refs).
func (d *DotGit) Ref(n plumbing.ReferenceName) (*plumbing.Reference, error) {
	ref, err := d.readLooseRef(n)
	if err == nil {
		return ref, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	refs, err := d.readPackedRefs()
	if err != nil {
		return nil, err
	}

	if ref, ok := refs[n]; ok {
		return ref, nil
	}

	return nil, plumbing.ErrReferenceNotFound
}

// Refs returns every reference this DotGit knows about: HEAD, every
// loose ref under refs/, and every packed ref not shadowed by a loose
// one of the same name.
func (d *DotGit) Refs() ([]*plumbing.Reference, error) {
	seen := make(map[plumbing.ReferenceName]bool)
	var refs []*plumbing.Reference

	if head, err := d.readLooseRef(plumbing.HEAD); err == nil {
		refs = append(refs, head)
		seen[plumbing.HEAD] = true
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := d.walkLooseRefs(refsPath, &refs, seen); err != nil {
		return nil, err
	}

	packed, err := d.readPackedRefs()
	if err != nil {
		return nil, err
	}

	for n, ref := range packed {
		if !seen[n] {
			refs = append(refs, ref)
		}
	}

	return refs, nil
}

func (d *DotGit) walkLooseRefs(dir string, refs *[]*plumbing.Reference, seen map[plumbing.ReferenceName]bool) error {
	files, err := d.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, f := range files {
		path := filepath.Join(dir, f.Name())
		if f.IsDir() {
			if err := d.walkLooseRefs(path, refs, seen); err != nil {
				return err
			}
			continue
		}

		n := plumbing.ReferenceName(filepath.ToSlash(path))
		ref, err := d.readLooseRefFile(path, n)
		if err != nil {
			return err
		}

		*refs = append(*refs, ref)
		seen[n] = true
	}

	return nil
}

func (d *DotGit) readLooseRef(n plumbing.ReferenceName) (*plumbing.Reference, error) {
	return d.readLooseRefFile(string(n), n)
}

func (d *DotGit) readLooseRefFile(path string, n plumbing.ReferenceName) (ref *plumbing.Reference, err error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer ioutil.CheckClose(f, &err)

	line, err := readFirstLine(f)
	if err != nil {
		return nil, err
	}

	return plumbing.NewReferenceFromStrings(string(n), line), err
}

func readFirstLine(r io.Reader) (string, error) {
	s := bufio.NewScanner(r)
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(s.Text()), nil
}

// readPackedRefs parses packed-refs: one `<hash> <name>` line per
// reference, optionally followed by a `^<hash>` line peeling an
// annotated tag to the commit it points at. Peeled lines are read (to
// stay in sync with the file) but the peeled value itself is not
// currently exposed, since nothing in this core's scope consumes it.
func (d *DotGit) readPackedRefs() (refs map[plumbing.ReferenceName]*plumbing.Reference, err error) {
	refs = make(map[plumbing.ReferenceName]*plumbing.Reference)

	f, err := d.fs.Open(packedRefsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return refs, nil
		}
		return nil, err
	}
	defer ioutil.CheckClose(f, &err)

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := s.Text()
		if line == "" || line[0] == '#' || line[0] == '^' {
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			return nil, ErrPackedRefsBadFormat
		}

		n := plumbing.ReferenceName(parts[1])
		refs[n] = plumbing.NewHashReference(n, plumbing.NewHash(parts[0]))
	}

	return refs, s.Err()
}

// SetRef atomically installs new, optionally failing with
// ErrReferenceHasChanged if old is given and does not match the
// value currently on disk. Writes always go to a loose ref file,
// installed by temp-file-then-rename, matching the atomic-install
// discipline the loose object and pack writers use; packed-refs is
// never written by this core.
func (d *DotGit) SetRef(new, old *plumbing.Reference) error {
	if old != nil {
		current, err := d.Ref(old.Name())
		if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return err
		}
		if current == nil || current.Hash() != old.Hash() {
			return ErrReferenceHasChanged
		}
	}

	path := string(new.Name())
	if dir := filepath.Dir(path); dir != "." {
		if err := d.fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp, err := d.fs.TempFile(filepath.Dir(path), "tmp_ref_")
	if err != nil {
		return err
	}

	content := new.Strings()
	if _, err := fmt.Fprintln(tmp, content[1]); err != nil {
		tmp.Close()
		d.fs.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		d.fs.Remove(tmp.Name())
		return err
	}

	return d.fs.Rename(tmp.Name(), path)
}

// RemoveRef deletes the loose ref named n. A ref that exists only in
// packed-refs is left untouched, per this core's read-only packed-refs
// policy: removing it there would require rewriting the whole file.
func (d *DotGit) RemoveRef(n plumbing.ReferenceName) error {
	err := d.fs.Remove(string(n))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// CountLooseRefs returns the number of loose refs under refs/,
// excluding HEAD.
func (d *DotGit) CountLooseRefs() (int, error) {
	var refs []*plumbing.Reference
	if err := d.walkLooseRefs(refsPath, &refs, map[plumbing.ReferenceName]bool{}); err != nil {
		return 0, err
	}
	return len(refs), nil
}

// PackRefs is a no-op: this core treats packed-refs as read-only input
// (see Ref and SetRef) and never collapses loose
// refs into it.
func (d *DotGit) PackRefs() error {
	return nil
}
