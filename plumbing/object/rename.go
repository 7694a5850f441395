package object

import (
	"hash/adler32"
	"sort"
	"strings"

	"github.com/src-d/gitdb/plumbing"
)

// blockSize is the granularity rename/copy similarity scoring chops
// blob content into, matching the conventional block size used by
// git's own diffcore-rename: large enough to be cheap to hash, small
// enough that a handful of edits don't erase all overlap.
const blockSize = 64

// DefaultRenameThreshold is the minimum similarity score (0-100) a
// delete/insert pair must reach to be reported as a rename or copy,
// absent an explicit threshold.
const DefaultRenameThreshold = 50

// DefaultMaxFiles bounds the delete x insert candidate matrix:
// DetectRenames abandons pairing entirely, leaving Delete/Insert
// intact, once len(remainingDel)*len(remainingIns) exceeds
// maxFiles*maxFiles, rather than pay quadratic cost on a huge
// changeset.
const DefaultMaxFiles = 200

// DetectRenames rewrites matching (Delete, Insert) pairs in changes
// into single Rename Changes, scored by content similarity against
// threshold (0-100). Candidates are limited to blob-to-blob pairs;
// directory-wholesale deletes/inserts have already been flattened to
// blob level by DiffTree. blobs resolves a blob's content for
// similarity scoring; maxFiles <= 0 disables the pair-count cap.
//
// When findCopies is set, every Insert left unpaired by the rename
// pass is additionally matched against the Unchanged entries present
// in changes (see DiffTreeWithUnchanged) and, if one scores at or
// above threshold, rewritten into a Copy; the matched source is not
// consumed; an Insert never yields more than one Copy.
func DetectRenames(changes Changes, blobs BlobProvider, threshold, maxFiles int, findCopies bool) (Changes, error) {
	if threshold <= 0 {
		threshold = DefaultRenameThreshold
	}

	var deletes, inserts, unchanged, rest []*Change
	for _, c := range changes {
		switch c.Action {
		case Delete:
			deletes = append(deletes, c)
		case Insert:
			inserts = append(inserts, c)
		case Unchanged:
			unchanged = append(unchanged, c)
			rest = append(rest, c)
		default:
			rest = append(rest, c)
		}
	}

	if len(deletes) == 0 || len(inserts) == 0 {
		return changes, nil
	}

	// Exact match pass: identical blob hash, differing path.
	usedDel := make(map[int]bool)
	usedIns := make(map[int]bool)
	var renames []*Change

	for di, d := range deletes {
		for ii, in := range inserts {
			if usedIns[ii] {
				continue
			}
			if d.From.Entry.Hash == in.To.Entry.Hash {
				renames = append(renames, &Change{
					Action: Rename,
					From:   d.From,
					To:     in.To,
					Score:  100,
				})
				usedDel[di] = true
				usedIns[ii] = true
				break
			}
		}
	}

	remainingDel := filterUnused(deletes, usedDel)
	remainingIns := filterUnused(inserts, usedIns)

	if maxFiles > 0 && len(remainingDel)*len(remainingIns) > maxFiles*maxFiles {
		rest = append(rest, remainingDel...)
		rest = append(rest, remainingIns...)
		rest = append(rest, renames...)
		SortChanges(rest)
		return rest, nil
	}

	type candidate struct {
		di, ii int
		score  int
	}

	var sigs []map[uint32]int
	if blobs != nil {
		sigs = make([]map[uint32]int, len(remainingDel)+len(remainingIns))
		for i, d := range remainingDel {
			sigs[i] = blockSignature(blobs, d.From.Entry.Hash)
		}
		for i, in := range remainingIns {
			sigs[len(remainingDel)+i] = blockSignature(blobs, in.To.Entry.Hash)
		}
	}

	var candidates []candidate
	for di := range remainingDel {
		for ii := range remainingIns {
			var score int
			if sigs != nil {
				score = similarity(sigs[di], sigs[len(remainingDel)+ii])
			}
			if score >= threshold {
				candidates = append(candidates, candidate{di, ii, score})
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}

		di, ii := remainingDel[candidates[i].di], remainingIns[candidates[i].ii]
		dj, ij := remainingDel[candidates[j].di], remainingIns[candidates[j].ii]

		// Equal content similarity: prefer the pair whose paths look
		// more like a simple move (shared leading/trailing segments)
		// over one that happens to sort first alphabetically.
		psi := pathSimilarity(di.From.Path, ii.To.Path)
		psj := pathSimilarity(dj.From.Path, ij.To.Path)
		if psi != psj {
			return psi > psj
		}

		return di.From.Path < dj.From.Path
	})

	assignedDel := make(map[int]bool)
	assignedIns := make(map[int]bool)
	for _, c := range candidates {
		if assignedDel[c.di] || assignedIns[c.ii] {
			continue
		}
		d := remainingDel[c.di]
		in := remainingIns[c.ii]
		renames = append(renames, &Change{
			Action: Rename,
			From:   d.From,
			To:     in.To,
			Score:  c.score,
		})
		assignedDel[c.di] = true
		assignedIns[c.ii] = true
	}

	var leftoverIns []*Change
	for i, in := range remainingIns {
		if !assignedIns[i] {
			leftoverIns = append(leftoverIns, in)
		}
	}

	var copies []*Change
	if findCopies && len(unchanged) > 0 {
		copies, leftoverIns = detectCopies(leftoverIns, unchanged, blobs, threshold)
	}

	for i, d := range remainingDel {
		if !assignedDel[i] {
			rest = append(rest, d)
		}
	}
	rest = append(rest, leftoverIns...)
	rest = append(rest, renames...)
	rest = append(rest, copies...)

	SortChanges(rest)
	return rest, nil
}

// detectCopies matches each Insert in candidates against the unchanged
// blob set, scoring by the same block-hash similarity DetectRenames
// uses for renames. A match at or above threshold becomes a Copy; the
// source Unchanged entry is never consumed, so the same source can
// back more than one Copy. Inserts left unmatched are returned as-is.
func detectCopies(candidates, unchanged []*Change, blobs BlobProvider, threshold int) (copies, leftover []*Change) {
	var sourceSigs []map[uint32]int
	if blobs != nil {
		sourceSigs = make([]map[uint32]int, len(unchanged))
		for i, u := range unchanged {
			sourceSigs[i] = blockSignature(blobs, u.From.Entry.Hash)
		}
	}

	for _, in := range candidates {
		best := -1
		bestScore := threshold - 1

		for i, u := range unchanged {
			if u.From.Entry.Hash == in.To.Entry.Hash {
				best, bestScore = i, 100
				break
			}
		}

		if best < 0 && sourceSigs != nil {
			sig := blockSignature(blobs, in.To.Entry.Hash)
			for i, u := range unchanged {
				score := similarity(sig, sourceSigs[i])
				switch {
				case score > bestScore:
					best, bestScore = i, score
				case score == bestScore && best >= 0 &&
					pathSimilarity(u.From.Path, in.To.Path) > pathSimilarity(unchanged[best].From.Path, in.To.Path):
					best = i
				}
			}
		}

		if best < 0 {
			leftover = append(leftover, in)
			continue
		}

		copies = append(copies, &Change{
			Action: Copy,
			From:   unchanged[best].From,
			To:     in.To,
			Score:  bestScore,
		})
	}

	return copies, leftover
}

func filterUnused(cs []*Change, used map[int]bool) []*Change {
	var out []*Change
	for i, c := range cs {
		if !used[i] {
			out = append(out, c)
		}
	}
	return out
}

// blockSignature chops content into blockSize-byte blocks (flushing
// early on a newline, so line-oriented text keeps block boundaries
// stable across small edits) and returns a multiset of per-block
// adler32 checksums.
func blockSignature(blobs BlobProvider, h plumbing.Hash) map[uint32]int {
	content, err := blobs.BlobContent(h)
	if err != nil {
		return nil
	}

	sig := make(map[uint32]int)
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' || i-start+1 == blockSize {
			sig[adler32.Checksum(content[start:i+1])]++
			start = i + 1
		}
	}
	if start < len(content) {
		sig[adler32.Checksum(content[start:])]++
	}
	return sig
}

// pathSimilarity scores two paths (0-100) by how many leading and
// trailing '/'-segments they share relative to the longer path's
// segment count, used only to break ties between equally
// content-similar rename candidates.
func pathSimilarity(a, b string) int {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")

	prefix := 0
	for prefix < len(as) && prefix < len(bs) && as[prefix] == bs[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(as)-prefix && suffix < len(bs)-prefix &&
		as[len(as)-1-suffix] == bs[len(bs)-1-suffix] {
		suffix++
	}

	longest := len(as)
	if len(bs) > longest {
		longest = len(bs)
	}
	if longest == 0 {
		return 100
	}

	return ((prefix + suffix) * 100) / longest
}

// similarity scores two block-hash multisets with a Dice-like
// coefficient: 2 * shared-block-count / total-block-count, as a
// percentage.
func similarity(a, b map[uint32]int) int {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}

	var totalA, totalB, shared int
	for _, n := range a {
		totalA += n
	}
	for _, n := range b {
		totalB += n
	}
	if totalA == 0 || totalB == 0 {
		return 0
	}

	for k, na := range a {
		if nb, ok := b[k]; ok {
			if na < nb {
				shared += na
			} else {
				shared += nb
			}
		}
	}

	return (2 * shared * 100) / (totalA + totalB)
}
