package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSignatureRoundTrip(t *testing.T) {
	line := "Ada Lovelace <ada@example.com> 1700000000 +0200"
	sig := ParseSignature([]byte(line))

	assert.Equal(t, "Ada Lovelace", sig.Name)
	assert.Equal(t, "ada@example.com", sig.Email)
	assert.Equal(t, int64(1700000000), sig.When.Unix())
	assert.Equal(t, line, sig.String())
}

func TestParseSignatureNegativeOffset(t *testing.T) {
	sig := ParseSignature([]byte("Bob <bob@example.com> 1700000000 -0530"))
	_, offset := sig.When.Zone()
	assert.Equal(t, -(5*3600 + 30*60), offset)
}

func TestParseSignatureEmpty(t *testing.T) {
	sig := ParseSignature(nil)
	assert.Equal(t, AuthorSignature{}, sig)
}

func TestParseSignatureMalformed(t *testing.T) {
	sig := ParseSignature([]byte("not a valid signature line"))
	assert.Empty(t, sig.Email)
}
