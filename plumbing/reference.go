package plumbing

import "strings"

// ReferenceType identifies what kind of value a Reference holds.
type ReferenceType int8

const (
	InvalidReference  ReferenceType = 0
	HashReference     ReferenceType = 1
	SymbolicReference ReferenceType = 2
)

// ReferenceName is the full path of a reference, e.g.
// "refs/heads/master" or "HEAD".
type ReferenceName string

const (
	HEAD ReferenceName = "HEAD"
)

// String returns n unchanged; it exists so ReferenceName satisfies
// fmt.Stringer.
func (n ReferenceName) String() string {
	return string(n)
}

// Short returns n with any "refs/heads/", "refs/remotes/" or
// "refs/tags/" prefix stripped, the form used for display.
func (n ReferenceName) Short() string {
	s := string(n)
	res := s
	for _, prefix := range []string{"refs/heads/", "refs/tags/", "refs/remotes/"} {
		if strings.HasPrefix(s, prefix) {
			res = s[len(prefix):]
			break
		}
	}
	return res
}

// IsBranch reports whether n names a local branch.
func (n ReferenceName) IsBranch() bool {
	return strings.HasPrefix(string(n), "refs/heads/")
}

// IsTag reports whether n names a tag.
func (n ReferenceName) IsTag() bool {
	return strings.HasPrefix(string(n), "refs/tags/")
}

// IsRemote reports whether n names a remote-tracking branch.
func (n ReferenceName) IsRemote() bool {
	return strings.HasPrefix(string(n), "refs/remotes/")
}

// IsNote reports whether n names a note.
func (n ReferenceName) IsNote() bool {
	return strings.HasPrefix(string(n), "refs/notes/")
}

// Reference is a named pointer into the object graph: either directly
// at a Hash (a "loose" or packed ref), or at another Reference's name
// (a symbolic ref, such as HEAD usually is).
type Reference struct {
	t      ReferenceType
	n      ReferenceName
	h      Hash
	target ReferenceName
}

// NewReferenceFromStrings builds a Reference from the two strings
// found on a line of a loose ref file or packed-refs file: the
// reference's own name, and either a 40-character hex hash or a
// "ref: <target>" indirection.
func NewReferenceFromStrings(name, target string) *Reference {
	n := ReferenceName(name)

	if strings.HasPrefix(target, symrefPrefix) {
		return NewSymbolicReference(n, ReferenceName(target[len(symrefPrefix):]))
	}

	return NewHashReference(n, NewHash(target))
}

const symrefPrefix = "ref: "

// NewHashReference creates a direct reference pointing at h.
func NewHashReference(n ReferenceName, h Hash) *Reference {
	return &Reference{t: HashReference, n: n, h: h}
}

// NewSymbolicReference creates a reference pointing at the reference
// named target.
func NewSymbolicReference(n, target ReferenceName) *Reference {
	return &Reference{t: SymbolicReference, n: n, target: target}
}

// Type returns whether r is a direct or symbolic reference.
func (r *Reference) Type() ReferenceType { return r.t }

// Name returns r's own name.
func (r *Reference) Name() ReferenceName { return r.n }

// Hash returns the hash a direct reference points to; it is the zero
// Hash for a symbolic reference.
func (r *Reference) Hash() Hash { return r.h }

// Target returns the reference name a symbolic reference points to;
// it is empty for a direct reference.
func (r *Reference) Target() ReferenceName { return r.target }

// Strings returns the (name, value) pair as they would be written to
// a loose ref file: value is a hex hash for a direct reference, or a
// "ref: <target>" line for a symbolic one.
func (r *Reference) Strings() [2]string {
	var o [2]string
	o[0] = string(r.n)

	if r.Type() == HashReference {
		o[1] = r.Hash().String()
	} else {
		o[1] = symrefPrefix + string(r.Target())
	}

	return o
}

func (r *Reference) String() string {
	s := r.Strings()
	return s[0] + " " + s[1]
}
