package storer

import "github.com/src-d/gitdb/plumbing"

// ResolveReference resolves a SymbolicReference to a HashReference, following
// at most maxResolveRecursion symbolic indirections. It returns the original
// reference unmodified if it is not symbolic, and ErrMaxResolveRecursion if
// the chain is still symbolic after maxResolveRecursion indirections.
func ResolveReference(s ReferenceStorer, n plumbing.ReferenceName) (*plumbing.Reference, error) {
	r, err := s.Reference(n)
	if err != nil || r == nil {
		return r, err
	}

	return resolveReference(s, r, 0)
}

// maxResolveRecursion bounds symbolic reference chasing (HEAD -> ref:
// ... -> ref: ...) to guard against a cycle; real repositories never
// nest more than one or two levels deep.
const maxResolveRecursion = 5

func resolveReference(s ReferenceStorer, r *plumbing.Reference, depth int) (*plumbing.Reference, error) {
	if r.Type() != plumbing.SymbolicReference {
		return r, nil
	}

	if depth >= maxResolveRecursion {
		return nil, ErrMaxResolveRecursion
	}

	t, err := s.Reference(r.Target())
	if err != nil {
		return nil, err
	}

	return resolveReference(s, t, depth+1)
}
