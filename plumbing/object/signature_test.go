package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSignatureType(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want SignatureType
	}{
		{"openpgp", "-----BEGIN PGP SIGNATURE-----\n...", SignatureTypeOpenPGP},
		{"openpgp message", "-----BEGIN PGP MESSAGE-----\n...", SignatureTypeOpenPGP},
		{"x509", "-----BEGIN CERTIFICATE-----\n...", SignatureTypeX509},
		{"ssh", "-----BEGIN SSH SIGNATURE-----\n...", SignatureTypeSSH},
		{"unknown", "not a signature at all", SignatureTypeUnknown},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, DetectSignatureType([]byte(c.in)))
		})
	}
}

func TestSignatureTypeString(t *testing.T) {
	assert.Equal(t, "openpgp", SignatureTypeOpenPGP.String())
	assert.Equal(t, "x509", SignatureTypeX509.String())
	assert.Equal(t, "ssh", SignatureTypeSSH.String())
	assert.Equal(t, "unknown", SignatureTypeUnknown.String())
}

func TestParseSignedBytesFindsLastBlock(t *testing.T) {
	msg := []byte("commit message body\n\n-----BEGIN SSH SIGNATURE-----\nbase64\n-----END SSH SIGNATURE-----\n")
	pos, typ := parseSignedBytes(msg)
	if pos == -1 {
		t.Fatal("expected a signature block to be found")
	}
	assert.Equal(t, SignatureTypeSSH, typ)
	assert.Equal(t, "commit message body\n\n", string(msg[:pos]))
}

func TestParseSignedBytesNoSignature(t *testing.T) {
	pos, typ := parseSignedBytes([]byte("just a plain message\n"))
	assert.Equal(t, -1, pos)
	assert.Equal(t, SignatureTypeUnknown, typ)
}
