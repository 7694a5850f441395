package objfile

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"io"
	"testing"

	"github.com/src-d/gitdb/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// buildLegacyObject zlib-compresses the legacy, packed-style loose
// object header (type in bits 4-6 of the first byte, a little-endian
// variable-length size starting in its low 4 bits) followed by
// content, with no "<type> <size>\0" ASCII framing at all.
func buildLegacyObject(t plumbing.ObjectType, content []byte) []byte {
	size := uint64(len(content))

	first := byte(t)<<4 | byte(size&0x0f)
	size >>= 4

	var header []byte
	if size > 0 {
		first |= 0x80
	}
	header = append(header, first)

	for size > 0 {
		b := byte(size & 0x7f)
		size >>= 7
		if size > 0 {
			b |= 0x80
		}
		header = append(header, b)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(header)
	zw.Write(content)
	zw.Close()
	return buf.Bytes()
}

type SuiteReader struct {
	suite.Suite
}

func TestSuiteReader(t *testing.T) {
	suite.Run(t, new(SuiteReader))
}

func (s *SuiteReader) TestReadObjfile() {
	for k, fixture := range objfileFixtures {
		com := fmt.Sprintf("test %d: ", k)
		hash := plumbing.NewHash(fixture.hash)
		content, _ := base64.StdEncoding.DecodeString(fixture.content)
		data, _ := base64.StdEncoding.DecodeString(fixture.data)

		testReader(s.T(), bytes.NewReader(data), hash, fixture.t, content, com)
	}
}

func testReader(t *testing.T, source io.Reader, hash plumbing.Hash, o plumbing.ObjectType, content []byte, com string) {
	r, err := NewReader(source)
	assert.NoError(t, err)

	typ, size, err := r.Header()
	assert.NoError(t, err)
	assert.Equal(t, typ, o)
	assert.Len(t, content, int(size))

	rc, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, content, rc, fmt.Sprintf("content=%s, expected=%s", base64.StdEncoding.EncodeToString(rc), base64.StdEncoding.EncodeToString(content)))

	assert.Equal(t, hash, r.Hash()) // Test Hash() before close
	assert.NoError(t, r.Close())

}

func (s *SuiteReader) TestReadEmptyObjfile() {
	source := bytes.NewReader([]byte{})
	_, err := NewReader(source)
	s.NotNil(err)
}

func (s *SuiteReader) TestReadGarbage() {
	source := bytes.NewReader([]byte("!@#$RO!@NROSADfinq@o#irn@oirfn"))
	_, err := NewReader(source)
	s.NotNil(err)
}

func (s *SuiteReader) TestReadLegacyFormatSmall() {
	content := []byte("hello")
	data := buildLegacyObject(plumbing.BlobObject, content)

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(s.T(), err)

	typ, size, err := r.Header()
	require.NoError(s.T(), err)
	s.Equal(plumbing.BlobObject, typ)
	s.EqualValues(len(content), size)

	got, err := io.ReadAll(r)
	require.NoError(s.T(), err)
	s.Equal(content, got)
}

func (s *SuiteReader) TestReadLegacyFormatNeedsContinuationByte() {
	content := bytes.Repeat([]byte("x"), 200)
	data := buildLegacyObject(plumbing.TreeObject, content)

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(s.T(), err)

	typ, size, err := r.Header()
	require.NoError(s.T(), err)
	s.Equal(plumbing.TreeObject, typ)
	s.EqualValues(len(content), size)

	got, err := io.ReadAll(r)
	require.NoError(s.T(), err)
	s.Equal(content, got)
}

func (s *SuiteReader) TestReadCorruptZLib() {
	data, _ := base64.StdEncoding.DecodeString("eAFLysaalPUjBgAAAJsAHw")
	source := bytes.NewReader(data)
	r, err := NewReader(source)
	s.NoError(err)

	_, _, err = r.Header()
	s.NotNil(err)
}
