package pgp

import (
	"bytes"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntity(t *testing.T) *openpgp.Entity {
	t.Helper()
	entity, err := openpgp.NewEntity("Ada Lovelace", "", "ada@example.com", nil)
	require.NoError(t, err)
	return entity
}

func sign(t *testing.T, entity *openpgp.Entity, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, openpgp.ArmoredDetachSign(&buf, entity, bytes.NewReader(payload), nil))
	return buf.Bytes()
}

func TestVerifierAcceptsValidSignature(t *testing.T) {
	entity := newTestEntity(t)
	payload := []byte("tree 6ecf0ef2c2dffb796033e5a02219af86ec6584e5\nauthor Ada <ada@example.com> 1700000000 +0000\n")
	sig := sign(t, entity, payload)

	v := NewVerifier(openpgp.EntityList{entity})
	got, err := v.Verify(payload, sig)
	require.NoError(t, err)

	assert.Equal(t, EntityType, got.Type())
	assert.Equal(t, entity.PrimaryKey.KeyIdString(), got.Canonical())
	assert.Same(t, entity, got.Concrete())
}

func TestVerifierRejectsTamperedPayload(t *testing.T) {
	entity := newTestEntity(t)
	payload := []byte("original payload\n")
	sig := sign(t, entity, payload)

	v := NewVerifier(openpgp.EntityList{entity})
	_, err := v.Verify([]byte("tampered payload\n"), sig)
	assert.Error(t, err)
}

func TestVerifierRejectsUnknownSigner(t *testing.T) {
	signer := newTestEntity(t)
	other := newTestEntity(t)
	payload := []byte("payload signed by an entity the verifier doesn't trust\n")
	sig := sign(t, signer, payload)

	v := NewVerifier(openpgp.EntityList{other})
	_, err := v.Verify(payload, sig)
	assert.Error(t, err)
}

func TestNewVerifierFromArmoredKeyRing(t *testing.T) {
	entity := newTestEntity(t)

	var keyring bytes.Buffer
	w, err := armor.Encode(&keyring, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(w))
	require.NoError(t, w.Close())

	v, err := NewVerifierFromArmoredKeyRing(bytes.NewReader(keyring.Bytes()))
	require.NoError(t, err)

	payload := []byte("payload\n")
	sig := sign(t, entity, payload)

	got, err := v.Verify(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, entity.PrimaryKey.KeyIdString(), got.Canonical())
}
