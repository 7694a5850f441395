// Package dotgit reads and writes the on-disk layout of a .git
// directory: loose objects under objects/, packfiles under
// objects/pack/, and references either loose under refs/ or collapsed
// into packed-refs.
//
// https://github.com/git/git/blob/master/Documentation/gitrepository-layout.txt
package dotgit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/src-d/gitdb/hash"
	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/plumbing/storer"
	"github.com/src-d/gitdb/storage/filesystem/mmap"
	"github.com/src-d/gitdb/utils/ioutil"
)

const (
	objectsPath = "objects"
	packPath    = "pack"
	infoPath    = "info"

	packPrefix = "pack-"
	packExt    = ".pack"
	idxExt     = ".idx"

	// gitObjectDirectoryEnv overrides the objects/ root, the same
	// knob `git` itself honors (spec.md §6).
	gitObjectDirectoryEnv = "GIT_OBJECT_DIRECTORY"
	// gitAlternateObjectDirectoriesEnv names additional read-only
	// loose-object roots, separated by the platform's path-list
	// separator (':' on unix, ';' on windows).
	gitAlternateObjectDirectoriesEnv = "GIT_ALTERNATE_OBJECT_DIRECTORIES"
)

var (
	// ErrIdxNotFound is returned by ObjectPackIdx when the idx file for
	// a packfile cannot be found.
	ErrIdxNotFound = errors.New("idx file not found")
	// ErrPackfileNotFound is returned when a packfile is not found.
	ErrPackfileNotFound = errors.New("packfile not found")
	// ErrBadPackName is returned when a pack- filename is malformed.
	ErrBadPackName = errors.New("malformed pack file name")
)

// Options customizes the behavior of a DotGit.
type Options struct {
	// KeepDescriptors makes PackfileWriter callers responsible for
	// closing the packs they open; it is passed through by the caller,
	// DotGit itself opens and closes every file it hands out.
	KeepDescriptors bool
	// AlternatesFS is used to resolve alternate object directories
	// instead of the native filesystem. When nil, alternates are
	// resolved with osfs relative to the process working directory.
	AlternatesFS billy.Filesystem
}

// DotGit represents a .git directory on a billy.Filesystem.
type DotGit struct {
	options Options
	fs      billy.Filesystem
	// objRoot is the path of the objects/ directory relative to fs,
	// normally "objects" but overridable by GIT_OBJECT_DIRECTORY.
	objRoot string
}

// New returns a DotGit backed by fs, the root of the .git directory.
func New(fs billy.Filesystem) *DotGit {
	return NewWithOptions(fs, Options{})
}

// NewWithOptions is like New but accepts Options.
func NewWithOptions(fs billy.Filesystem, o Options) *DotGit {
	root := objectsPath
	if v := os.Getenv(gitObjectDirectoryEnv); v != "" {
		root = v
	}
	return &DotGit{fs: fs, options: o, objRoot: root}
}

// root joins elem onto the objects/ directory, honoring
// GIT_OBJECT_DIRECTORY if it was set when this DotGit was built.
func (d *DotGit) root(elem ...string) string {
	return filepath.Join(append([]string{d.objRoot}, elem...)...)
}

// Fs returns the filesystem the DotGit is rooted at.
func (d *DotGit) Fs() billy.Filesystem {
	return d.fs
}

// Close releases any resource held open by the DotGit. DotGit itself
// holds nothing open between calls, so this is currently a no-op.
func (d *DotGit) Close() error {
	return nil
}

func (d *DotGit) objectPath(h plumbing.Hash) string {
	s := h.String()
	return d.root(s[0:2], s[2:])
}

// NewObject returns a Writer that, once closed, atomically installs a
// new loose object named after the hash of what was written to it.
func (d *DotGit) NewObject() (*Writer, error) {
	return newObjectWriter(d.fs, d.objRoot)
}

// Object opens the loose object named h.
func (d *DotGit) Object(h plumbing.Hash) (billy.File, error) {
	return d.fs.Open(d.objectPath(h))
}

// ObjectStat returns file info for the loose object named h.
func (d *DotGit) ObjectStat(h plumbing.Hash) (os.FileInfo, error) {
	return d.fs.Stat(d.objectPath(h))
}

// ObjectDelete removes the loose object named h.
func (d *DotGit) ObjectDelete(h plumbing.Hash) error {
	return d.fs.Remove(d.objectPath(h))
}

// Objects returns the hashes of every loose object under objects/.
func (d *DotGit) Objects() ([]plumbing.Hash, error) {
	var hashes []plumbing.Hash
	err := d.ForEachObjectHash(func(h plumbing.Hash) error {
		hashes = append(hashes, h)
		return nil
	})
	return hashes, err
}

// ObjectsWithPrefix returns the hashes of every loose object whose hex
// form begins with prefix.
func (d *DotGit) ObjectsWithPrefix(prefix []byte) ([]plumbing.Hash, error) {
	hexPrefix := fmt.Sprintf("%x", prefix)

	var hashes []plumbing.Hash
	err := d.ForEachObjectHash(func(h plumbing.Hash) error {
		if h.HasPrefix(hexPrefix) {
			hashes = append(hashes, h)
		}
		return nil
	})
	return hashes, err
}

// ForEachObjectHash calls fun once per loose object hash found under
// objects/. Returning storer.ErrStop from fun stops the walk early
// without propagating an error.
func (d *DotGit) ForEachObjectHash(fun func(plumbing.Hash) error) error {
	top, err := d.fs.ReadDir(d.objRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, dir := range top {
		if !dir.IsDir() || len(dir.Name()) != 2 || !isHex(dir.Name()) {
			continue
		}

		base := dir.Name()
		files, err := d.fs.ReadDir(d.root(base))
		if err != nil {
			return err
		}

		for _, f := range files {
			if f.IsDir() || len(f.Name()) != hash.HexSize-2 {
				continue
			}

			h, err := hash.FromHex(base + f.Name())
			if err != nil {
				continue
			}

			if err := fun(h); err != nil {
				if err == storer.ErrStop {
					return nil
				}
				return err
			}
		}
	}

	return nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= '0' && b <= '9' {
			continue
		}
		if b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F' {
			continue
		}
		return false
	}
	return true
}

// NewObjectPack returns a Writer for a new packfile. When the writer is
// closed, the received pack is parsed to build the accompanying index,
// and both files are installed by renaming them into place.
func (d *DotGit) NewObjectPack() (*PackWriter, error) {
	return newPackWriter(d.fs, d.objRoot)
}

// ObjectPacks returns the checksum of every packfile under
// objects/pack/.
func (d *DotGit) ObjectPacks() ([]plumbing.Hash, error) {
	files, err := d.fs.ReadDir(d.root(packPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var packs []plumbing.Hash
	for _, f := range files {
		n := f.Name()
		if !strings.HasPrefix(n, packPrefix) || !strings.HasSuffix(n, packExt) {
			continue
		}

		h := plumbing.NewHash(n[len(packPrefix) : len(n)-len(packExt)])
		packs = append(packs, h)
	}

	return packs, nil
}

// ObjectPack opens the packfile with the given checksum.
func (d *DotGit) ObjectPack(h plumbing.Hash) (billy.File, error) {
	name := d.root(packPath, packPrefix+h.String()+packExt)
	f, err := d.fs.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPackfileNotFound
		}
		return nil, err
	}
	return f, nil
}

// ObjectPackMmap maps the packfile with the given checksum into
// memory read-only instead of buffering it through billy's File
// interface. Large packs benefit most: the kernel pages the mapping
// in on demand and evicts it under memory pressure instead of this
// process holding the whole pack resident. The returned closer must
// be called once the caller is done reading data.
func (d *DotGit) ObjectPackMmap(h plumbing.Hash) (data []byte, closer func() error, err error) {
	f, err := d.ObjectPack(h)
	if err != nil {
		return nil, nil, err
	}
	return mmap.Map(f)
}

// ObjectPackIdx opens the .idx companion of the packfile with the
// given checksum.
func (d *DotGit) ObjectPackIdx(h plumbing.Hash) (billy.File, error) {
	name := d.root(packPath, packPrefix+h.String()+idxExt)
	f, err := d.fs.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrIdxNotFound
		}
		return nil, err
	}
	return f, nil
}

// DeleteOldObjectPackAndIndex removes the .pack and .idx for h if the
// pack is older than t.
func (d *DotGit) DeleteOldObjectPackAndIndex(h plumbing.Hash, t time.Time) error {
	base := d.root(packPath, packPrefix+h.String())

	fi, err := d.fs.Stat(base + packExt)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if !t.IsZero() && fi.ModTime().After(t) {
		return nil
	}

	if err := d.fs.Remove(base + idxExt); err != nil && !os.IsNotExist(err) {
		return err
	}

	return d.fs.Remove(base + packExt)
}

// Alternates returns a DotGit for every repository listed in
// objects/info/alternates, the mechanism by which one repository
// shares its object store with another (as a fork sharing its
// parent's packs, for example).
func (d *DotGit) Alternates() (dotgits []*DotGit, err error) {
	f, err := d.fs.Open(d.root(infoPath, "alternates"))
	if err != nil {
		return nil, err
	}
	defer ioutil.CheckClose(f, &err)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fs, aerr := d.resolveAlternate(line)
		if aerr != nil {
			continue
		}

		dotgits = append(dotgits, New(fs))
	}

	if err = scanner.Err(); err != nil {
		return nil, err
	}

	return dotgits, nil
}

func (d *DotGit) resolveAlternate(path string) (billy.Filesystem, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.fs.Root(), d.objRoot, path)
	}

	if d.options.AlternatesFS != nil {
		return d.options.AlternatesFS.Chroot(filepath.Dir(path))
	}

	// An alternate's path names its objects/ directory directly; the
	// repository root is one level up.
	return osfs.New(filepath.Dir(path)), nil
}

// EnvAlternates returns a DotGit for every directory named in
// GIT_ALTERNATE_OBJECT_DIRECTORIES (spec.md §6), a colon/semicolon
// separated list of additional read-only loose-object roots. It
// returns (nil, nil) when the variable is unset.
func (d *DotGit) EnvAlternates() ([]*DotGit, error) {
	v := os.Getenv(gitAlternateObjectDirectoriesEnv)
	if v == "" {
		return nil, nil
	}

	var dotgits []*DotGit
	for _, p := range filepath.SplitList(v) {
		if p == "" {
			continue
		}

		// p names the alternate's objects/ directory directly, as it
		// does for info/alternates entries; go up one level so the
		// new DotGit's root matches every other DotGit's convention.
		root := filepath.Dir(p)

		var fs billy.Filesystem
		if d.options.AlternatesFS != nil {
			var err error
			fs, err = d.options.AlternatesFS.Chroot(root)
			if err != nil {
				continue
			}
		} else {
			fs = osfs.New(root)
		}

		dotgits = append(dotgits, New(fs))
	}

	return dotgits, nil
}
