package object

import (
	"fmt"
	"strconv"
	"time"
)

// AuthorSignature is an authorship or commit action: a name, an
// email, and the instant it occurred, as recorded in a commit's
// "author"/"committer" header or a tag's "tagger" header. (Not to be
// confused with SignatureType / DetectSignatureType, which classify a
// cryptographic gpgsig block.)
type AuthorSignature struct {
	Name  string
	Email string
	When  time.Time
}

// ParseSignature parses the "Name <email> 1234567890 +0000" form used
// by author/committer/tagger header values. Fields it cannot make
// sense of are left zero rather than erroring: a malformed signature
// line must not make the rest of the object unreadable.
func ParseSignature(b []byte) AuthorSignature {
	var sig AuthorSignature
	if len(b) == 0 {
		return sig
	}

	from := 0
	state := 'n' // n: name, e: email, t: timestamp, z: timezone
	tz := ""
	for i := 0; ; i++ {
		var c byte
		var end bool
		if i < len(b) {
			c = b[i]
		} else {
			end = true
		}

		switch state {
		case 'n':
			if c == '<' || end {
				if i == 0 {
					break
				}
				sig.Name = string(b[from : i-1])
				state = 'e'
				from = i + 1
			}
		case 'e':
			if c == '>' || end {
				sig.Email = string(b[from:i])
				i++
				state = 't'
				from = i + 1
			}
		case 't':
			if c == ' ' || end {
				if ts, err := strconv.ParseInt(string(b[from:i]), 10, 64); err == nil {
					sig.When = time.Unix(ts, 0).UTC()
				}
				state = 'z'
				from = i + 1
			}
		case 'z':
			if end {
				tz = string(b[from:i])
			}
		}

		if end {
			break
		}
	}

	if loc, err := parseTimezone(tz); err == nil {
		sig.When = sig.When.In(loc)
	}

	return sig
}

func parseTimezone(tz string) (*time.Location, error) {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return nil, fmt.Errorf("object: invalid timezone %q", tz)
	}
	hours, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return nil, err
	}
	mins, err := strconv.Atoi(tz[3:5])
	if err != nil {
		return nil, err
	}
	offset := hours*3600 + mins*60
	if tz[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(tz, offset), nil
}

// String renders the signature in its canonical header form.
func (s AuthorSignature) String() string {
	_, offset := s.When.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s <%s> %d %s%02d%02d", s.Name, s.Email, s.When.Unix(),
		sign, offset/3600, (offset%3600)/60)
}
