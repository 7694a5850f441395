// Package revlist implements the graph walker used during fetch
// negotiation: given the set of commits a client wants and the set it
// already has, it enumerates every object (commits, trees, blobs)
// reachable from the "want" side that is not already reachable from
// the "have" side, and drives the lazy commit-ancestry walk a
// negotiation round uses to produce a "have" list.
package revlist

import (
	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/src-d/gitdb/plumbing"
	"github.com/src-d/gitdb/plumbing/object"
	"github.com/src-d/gitdb/plumbing/storer"
)

// Objects returns every hash reachable from commits, except the hashes
// listed in ignore. A commit listed in ignore is not reported and its
// tree is not walked, but its parents still are; any other object
// reachable from it is excluded only when ignore lists it too. ignore
// is typically the set of commits the remote peer already has.
func Objects(
	s storer.EncodedObjectStorer,
	commits []*object.Commit,
	ignore []plumbing.Hash,
) ([]plumbing.Hash, error) {
	seen := hashListToSet(ignore)
	result := make(map[plumbing.Hash]bool)

	for _, c := range commits {
		err := reachableObjects(s, c, seen, func(h plumbing.Hash) error {
			if !seen[h] {
				result[h] = true
				seen[h] = true
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return hashSetToList(result), nil
}

// reachableObjects walks commit and its ancestors, invoking cb with
// the hash of every commit, tree, and blob reachable from them.
// Commits already present in seen are not reported and their trees
// are not walked; their parents are still visited.
func reachableObjects(
	s storer.EncodedObjectStorer,
	commit *object.Commit,
	seen map[plumbing.Hash]bool,
	cb func(h plumbing.Hash) error,
) error {
	return iterateCommits(s, commit, func(c *object.Commit) error {
		if seen[c.ID()] {
			return nil
		}

		if err := cb(c.ID()); err != nil {
			return err
		}

		return iterateCommitTrees(s, c, seen, cb)
	})
}

// iterateCommits visits commit and every commit reachable from it
// through Parents, depth-first, calling cb exactly once per hash.
func iterateCommits(
	s storer.EncodedObjectStorer,
	commit *object.Commit,
	cb func(c *object.Commit) error,
) error {
	visited := make(map[plumbing.Hash]bool)
	var walk func(c *object.Commit) error
	walk = func(c *object.Commit) error {
		if visited[c.ID()] {
			return nil
		}
		visited[c.ID()] = true

		if err := cb(c); err != nil {
			return err
		}

		for _, p := range c.Parents {
			parent, err := object.GetCommit(s, p)
			if err != nil {
				return err
			}
			if err := walk(parent); err != nil {
				return err
			}
		}

		return nil
	}

	return walk(commit)
}

// iterateCommitTrees walks the full tree reachable from commit's root
// tree, reporting the hash of the tree itself, every subtree, and
// every blob. Trees already marked seen are not descended into.
func iterateCommitTrees(
	s storer.EncodedObjectStorer,
	commit *object.Commit,
	seen map[plumbing.Hash]bool,
	cb func(h plumbing.Hash) error,
) error {
	return walkTree(s, commit.Tree, seen, cb)
}

func walkTree(
	s storer.EncodedObjectStorer,
	h plumbing.Hash,
	seen map[plumbing.Hash]bool,
	cb func(h plumbing.Hash) error,
) error {
	if seen[h] {
		return nil
	}

	if err := cb(h); err != nil {
		return err
	}

	tree, err := object.GetTree(s, h)
	if err != nil {
		return err
	}

	for _, e := range tree.Entries {
		switch {
		case e.Mode == plumbing.Dir:
			if err := walkTree(s, e.Hash, seen, cb); err != nil {
				return err
			}
		case e.Mode == plumbing.Submodule:
			// Submodule gitlinks point at a commit in another
			// repository; there is nothing of ours to walk into.
		default:
			if seen[e.Hash] {
				continue
			}
			if err := cb(e.Hash); err != nil {
				return err
			}
		}
	}

	return nil
}

func hashSetToList(hashes map[plumbing.Hash]bool) []plumbing.Hash {
	var result []plumbing.Hash
	for key := range hashes {
		result = append(result, key)
	}

	return result
}

func hashListToSet(hashes []plumbing.Hash) map[plumbing.Hash]bool {
	result := make(map[plumbing.Hash]bool)
	for _, h := range hashes {
		result[h] = true
	}

	return result
}

// DetermineWants resolves each hash in refs against s, and returns
// those it cannot already resolve: the set a fetch negotiation must
// ask an upstream for. A zero hash (an unborn reference) is skipped.
func DetermineWants(s storer.EncodedObjectStorer, refs []plumbing.Hash) []plumbing.Hash {
	var wants []plumbing.Hash
	for _, h := range refs {
		if h.IsZero() {
			continue
		}
		if err := s.HasEncodedObject(h); err != nil {
			wants = append(wants, h)
		}
	}
	return wants
}

// entry is one item held in a Walker's heap: a commit plus the flag
// marking it (and everything reachable from it) as already known to
// the remote peer.
type entry struct {
	commit *object.Commit
	common bool
}

// byCommitterTimeDesc orders heap entries by committer timestamp,
// most recent first, tie-broken by id so iteration order is
// deterministic for equal timestamps.
func byCommitterTimeDesc(a, b interface{}) int {
	ea, eb := a.(*entry), b.(*entry)
	ta, tb := ea.commit.Committer.When, eb.commit.Committer.When
	switch {
	case ta.After(tb):
		return -1
	case ta.Before(tb):
		return 1
	}

	ia, ib := ea.commit.ID().String(), eb.commit.ID().String()
	switch {
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	default:
		return 0
	}
}

// Walker lazily enumerates local commit ids in approximate
// reverse-chronological order, for a fetch-negotiation loop that asks
// "do you have object X?" one candidate at a time. Ack marks a commit
// as already known to the peer; its ancestors are pruned from the
// walk the moment they are dequeued, without an eager upfront
// traversal.
//
// A Walker is not safe for concurrent use.
type Walker struct {
	store  storer.EncodedObjectStorer
	heap   *binaryheap.Heap
	queued map[plumbing.Hash]bool
	common map[plumbing.Hash]bool
}

// NewWalker starts a Walker at the given starting commits (typically
// the tips of local references).
func NewWalker(s storer.EncodedObjectStorer, starts []plumbing.Hash) (*Walker, error) {
	w := &Walker{
		store:  s,
		heap:   binaryheap.NewWith(byCommitterTimeDesc),
		queued: make(map[plumbing.Hash]bool),
		common: make(map[plumbing.Hash]bool),
	}

	for _, h := range starts {
		if err := w.push(h, false); err != nil {
			return nil, err
		}
	}

	return w, nil
}

func (w *Walker) push(h plumbing.Hash, common bool) error {
	if w.queued[h] {
		return nil
	}

	c, err := object.GetCommit(w.store, h)
	if err != nil {
		return err
	}

	w.queued[h] = true
	w.heap.Push(&entry{commit: c, common: common})
	return nil
}

// Next returns the next commit id in the walk, or plumbing.ZeroHash
// once the walk is exhausted. A commit marked common by Ack, directly
// or through an acked descendant, is never returned.
func (w *Walker) Next() (plumbing.Hash, error) {
	for {
		v, ok := w.heap.Pop()
		if !ok {
			return plumbing.ZeroHash, nil
		}
		e := v.(*entry)
		id := e.commit.ID()

		if w.common[id] || e.common {
			w.common[id] = true
			if err := w.enqueueParents(e.commit); err != nil {
				return plumbing.ZeroHash, err
			}
			continue
		}

		if err := w.enqueueParents(e.commit); err != nil {
			return plumbing.ZeroHash, err
		}
		return id, nil
	}
}

func (w *Walker) enqueueParents(c *object.Commit) error {
	common := w.common[c.ID()]
	for _, p := range c.Parents {
		if common {
			w.common[p] = true
		}
		if err := w.push(p, common); err != nil {
			return err
		}
	}
	return nil
}

// Ack marks id as common (already known to the remote peer), pruning
// it and its ancestry from future Next calls.
func (w *Walker) Ack(id plumbing.Hash) error {
	w.common[id] = true
	return w.push(id, true)
}

// Haves drains walker for up to limit commit ids, in the order Next
// produces them: the "have" list a negotiation round sends upstream.
func Haves(walker *Walker, limit int) ([]plumbing.Hash, error) {
	var haves []plumbing.Hash
	for len(haves) < limit {
		id, err := walker.Next()
		if err != nil {
			return haves, err
		}
		if id.IsZero() {
			break
		}
		haves = append(haves, id)
	}
	return haves, nil
}
