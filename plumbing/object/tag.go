package object

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/src-d/gitdb/plumbing"
)

// Tag is an annotated reference to another object, usually a commit,
// carrying a tagger signature and a message, optionally signed.
type Tag struct {
	hash         plumbing.Hash
	Target       plumbing.Hash
	TargetType   plumbing.ObjectType
	Name         string
	Tagger       AuthorSignature
	Message      string
	PGPSignature string
}

func (t *Tag) ID() plumbing.Hash         { return t.hash }
func (t *Tag) Type() plumbing.ObjectType { return plumbing.TagObject }

// Decode parses o's canonical tag bytes.
func (t *Tag) Decode(o plumbing.EncodedObject) error {
	if o.Type() != plumbing.TagObject {
		return plumbing.ErrInvalidType
	}

	t.hash = o.Hash()
	t.Message = ""
	t.PGPSignature = ""

	r, err := o.Reader()
	if err != nil {
		return err
	}
	defer r.Close()

	br := bufio.NewReader(r)
	var message bool
	for {
		line, err := br.ReadSlice('\n')
		if err != nil && err != io.EOF {
			return err
		}

		trimmed := bytes.TrimRight(line, "\n")
		if !message {
			if len(trimmed) == 0 {
				message = true
				if err == io.EOF {
					return nil
				}
				continue
			}

			split := bytes.SplitN(trimmed, []byte{' '}, 2)
			switch string(split[0]) {
			case "object":
				t.Target = plumbing.NewHash(string(split[1]))
			case "type":
				ot, perr := plumbing.ParseObjectType(string(split[1]))
				if perr != nil {
					return perr
				}
				t.TargetType = ot
			case "tag":
				t.Name = string(split[1])
			case "tagger":
				t.Tagger = ParseSignature(split[1])
			}
		} else {
			t.Message += string(line)
		}

		if err == io.EOF {
			return nil
		}
	}
}

// Encode writes the canonical tag byte form into o. Any trailing
// signature block already present in Message (appended after the
// message body, as git itself stores it) is preserved verbatim.
func (t *Tag) Encode(o plumbing.EncodedObject) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "object %s\n", t.Target)
	fmt.Fprintf(&buf, "type %s\n", t.TargetType)
	fmt.Fprintf(&buf, "tag %s\n", t.Name)
	fmt.Fprintf(&buf, "tagger %s\n", t.Tagger)
	buf.WriteByte('\n')
	buf.WriteString(t.Message)

	o.SetType(plumbing.TagObject)
	o.SetSize(int64(buf.Len()))
	return writeAll(o, buf.Bytes())
}

// ExtractSignature splits a signed tag's Message into the signed
// payload and the trailing signature block, using parseSignedBytes to
// find the start of the last signature block.
func (t *Tag) ExtractSignature() (payload []byte, signature []byte, err error) {
	pos, kind := parseSignedBytes([]byte(t.Message))
	if pos == -1 {
		return nil, nil, fmt.Errorf("object: tag has no signature")
	}
	_ = kind
	return []byte(t.Message[:pos]), []byte(t.Message[pos:]), nil
}
