package object

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/src-d/gitdb/plumbing"
)

// Commit points to a single tree, marking it as what the project
// looked like at a certain point in time. It records meta-information
// about that point in time: a timestamp, the author of the changes
// since the parent commit(s), an optional signature, and the message.
type Commit struct {
	hash      plumbing.Hash
	Tree      plumbing.Hash
	Parents   []plumbing.Hash
	Author    AuthorSignature
	Committer AuthorSignature
	// Encoding is the optional "encoding" header naming the character
	// set of Message, when it is not UTF-8. Message itself is always
	// the raw bytes as decoded from the object; transcoding to UTF-8
	// is left to MessageUTF8, never done implicitly.
	Encoding string
	// PGPSignature holds the raw "gpgsig" header block, if present,
	// exactly as it appeared (including its armor), for verification
	// without re-encoding the commit.
	PGPSignature string
	Message      string
}

func (c *Commit) ID() plumbing.Hash         { return c.hash }
func (c *Commit) Type() plumbing.ObjectType { return plumbing.CommitObject }

// Decode parses o's canonical commit bytes. Unrecognized headers are
// silently skipped, matching git's own forward-compatible parser.
func (c *Commit) Decode(o plumbing.EncodedObject) error {
	if o.Type() != plumbing.CommitObject {
		return plumbing.ErrInvalidType
	}

	c.hash = o.Hash()
	c.Parents = nil
	c.Encoding = ""
	c.PGPSignature = ""
	c.Message = ""

	r, err := o.Reader()
	if err != nil {
		return err
	}
	defer r.Close()

	br := bufio.NewReader(r)
	var message bool
	var inPGP bool
	for {
		line, err := br.ReadSlice('\n')
		if err != nil && err != io.EOF {
			return err
		}

		if !message {
			trimmed := bytes.TrimRight(line, "\n")
			if inPGP {
				if len(trimmed) == 0 {
					// A genuinely blank line can't be part of the
					// signature block: Encode's indentContinuation
					// pads every continuation line, blank ones
					// included, with a leading space. So this is the
					// header/message separator, not armor content.
					inPGP = false
					message = true
					if err == io.EOF {
						return nil
					}
					continue
				}

				// Strip the single leading space indentContinuation
				// added to this continuation line, to recover the
				// original, unindented signature bytes.
				cont := trimmed
				if bytes.HasPrefix(cont, []byte(" ")) {
					cont = cont[1:]
				} else {
					inPGP = false
				}
				c.PGPSignature += string(cont) + "\n"
				if err == io.EOF {
					return nil
				}
				continue
			}

			if len(trimmed) == 0 {
				message = true
				if err == io.EOF {
					return nil
				}
				continue
			}

			split := bytes.SplitN(trimmed, []byte{' '}, 2)
			switch string(split[0]) {
			case "tree":
				c.Tree = plumbing.NewHash(string(split[1]))
			case "parent":
				c.Parents = append(c.Parents, plumbing.NewHash(string(split[1])))
			case "author":
				c.Author = ParseSignature(split[1])
			case "committer":
				c.Committer = ParseSignature(split[1])
			case "encoding":
				c.Encoding = string(split[1])
			case "gpgsig":
				c.PGPSignature = string(split[1]) + "\n"
				inPGP = true
			}
		} else {
			c.Message += string(line)
		}

		if err == io.EOF {
			return nil
		}
	}
}

// Encode writes the canonical commit byte form into o.
func (c *Commit) Encode(o plumbing.EncodedObject) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	if c.Encoding != "" {
		fmt.Fprintf(&buf, "encoding %s\n", c.Encoding)
	}
	if c.PGPSignature != "" {
		fmt.Fprintf(&buf, "gpgsig %s", indentContinuation(c.PGPSignature))
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)

	o.SetType(plumbing.CommitObject)
	o.SetSize(int64(buf.Len()))
	return writeAll(o, buf.Bytes())
}

// indentContinuation ensures every line after the first in a
// multi-line header value is indented with a leading space, as git's
// own commit-header continuation convention requires.
func indentContinuation(block string) string {
	lines := strings.Split(strings.TrimSuffix(block, "\n"), "\n")
	for i := 1; i < len(lines); i++ {
		if !strings.HasPrefix(lines[i], " ") {
			lines[i] = " " + lines[i]
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// ExtractSignature splits the commit's canonical bytes into the
// signed payload (the commit with its gpgsig header removed) and the
// raw signature block, for verification without re-encoding.
func (c *Commit) ExtractSignature() (payload []byte, signature []byte, err error) {
	if c.PGPSignature == "" {
		return nil, nil, fmt.Errorf("object: commit has no signature")
	}

	unsigned := *c
	unsigned.PGPSignature = ""

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", unsigned.Tree)
	for _, p := range unsigned.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", unsigned.Author)
	fmt.Fprintf(&buf, "committer %s\n", unsigned.Committer)
	if unsigned.Encoding != "" {
		fmt.Fprintf(&buf, "encoding %s\n", unsigned.Encoding)
	}
	buf.WriteByte('\n')
	buf.WriteString(unsigned.Message)

	return buf.Bytes(), []byte(c.PGPSignature), nil
}

// MessageUTF8 transcodes Message from the charset named by Encoding
// into UTF-8. Decode never does this implicitly, so that a
// byte-for-byte round trip through Decode/Encode is always exact;
// callers that want to display or search the message in a legacy
// repository's native encoding call this explicitly instead.
//
// An empty Encoding, or one already naming UTF-8, returns Message
// unchanged.
func (c *Commit) MessageUTF8() (string, error) {
	name := strings.TrimSpace(c.Encoding)
	if name == "" || strings.EqualFold(name, "UTF-8") || strings.EqualFold(name, "UTF8") {
		return c.Message, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return "", fmt.Errorf("object: unknown commit message encoding %q", name)
	}

	out, err := enc.NewDecoder().String(c.Message)
	if err != nil {
		return "", fmt.Errorf("object: decoding commit message as %q: %w", name, err)
	}

	return out, nil
}
