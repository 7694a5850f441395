// Package pgp verifies OpenPGP detached signatures on commits and
// tags against a caller-supplied keyring, wrapping
// github.com/ProtonMail/go-crypto/openpgp the way go-git's own
// verifier does.
package pgp

import (
	"bytes"
	"io"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/src-d/gitdb/plumbing/object/signature"
)

// Verifier checks a detached OpenPGP signature against a fixed set of
// candidate keys.
type Verifier struct {
	entities openpgp.EntityList
}

// NewVerifier builds a Verifier from an already-parsed entity list.
func NewVerifier(entities openpgp.EntityList) *Verifier {
	return &Verifier{entities: entities}
}

// NewVerifierFromArmoredKeyRing parses an armored keyring and builds a
// Verifier from it.
func NewVerifierFromArmoredKeyRing(r io.Reader) (*Verifier, error) {
	entities, err := openpgp.ReadArmoredKeyRing(r)
	if err != nil {
		return nil, err
	}
	return NewVerifier(entities), nil
}

// Verify checks signature (an armored detached OpenPGP signature
// block, as extracted from a commit's gpgsig header or a tag's
// trailing signature) over payload, returning the signing entity.
func (v *Verifier) Verify(payload, sig []byte) (signature.Entity, error) {
	entity, err := openpgp.CheckArmoredDetachedSignature(
		v.entities, bytes.NewReader(payload), bytes.NewReader(sig), nil)
	if err != nil {
		return nil, err
	}

	return &Entity{entity: entity}, nil
}
