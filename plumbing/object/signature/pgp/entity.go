package pgp

import (
	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/src-d/gitdb/plumbing/object/signature"
)

// EntityType identifies a signature.Entity produced by this package.
const EntityType signature.EntityType = "PGP"

// Entity is the OpenPGP identity that produced a verified signature.
type Entity struct {
	entity *openpgp.Entity
}

// Canonical returns the signer's primary key ID.
func (e *Entity) Canonical() string {
	return e.entity.PrimaryKey.KeyIdString()
}

// Type always returns EntityType for a pgp.Entity.
func (e *Entity) Type() signature.EntityType {
	return EntityType
}

// Concrete returns the underlying *openpgp.Entity.
func (e *Entity) Concrete() interface{} {
	return e.entity
}
