package block

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrMalformedAttribute indicates the opening tag text could not be parsed.
var ErrMalformedAttribute = errors.New("malformed block attribute")

// Attributes maps attribute names to unquoted values.
type Attributes map[string]string

// Get returns the value for name and whether it was set.
func (a Attributes) Get(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

// ParseAttributes parses the attribute text of an opening tag.
//
// Grammar: blank-separated tokens `name`, `name="value"` or `name='value'`.
// Blanks around '=' are accepted. A bare token equal to keyword is dropped,
// any other bare name maps to the empty string. When a name repeats, the
// last value wins.
func ParseAttributes(raw, keyword string) (Attributes, error) {
	attrs := Attributes{}
	s := raw
	i := 0

	for {
		i = skipBlanks(s, i)
		if i >= len(s) {
			return attrs, nil
		}

		start := i
		for i < len(s) && isNameByte(s[i]) {
			i++
		}
		name := s[start:i]
		if name == "" {
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformedAttribute, runeAt(s, i), i)
		}

		j := skipBlanks(s, i)
		if j >= len(s) || s[j] != '=' {
			// Bare name: must be followed by a blank or the end of input.
			if i < len(s) && !isBlank(s[i]) {
				return nil, fmt.Errorf("%w: unexpected %q after %q", ErrMalformedAttribute, runeAt(s, i), name)
			}
			if keyword == "" || !strings.EqualFold(name, keyword) {
				attrs[name] = ""
			}
			continue
		}

		i = skipBlanks(s, j+1)
		if i >= len(s) || (s[i] != '"' && s[i] != '\'') {
			return nil, fmt.Errorf("%w: value of %q must be quoted", ErrMalformedAttribute, name)
		}

		quote := s[i]
		end := strings.IndexByte(s[i+1:], quote)
		if end == -1 {
			return nil, fmt.Errorf("%w: unterminated value for %q", ErrMalformedAttribute, name)
		}
		end += i + 1

		attrs[name] = s[i+1 : end]
		i = end + 1
		if i < len(s) && !isBlank(s[i]) {
			return nil, fmt.Errorf("%w: unexpected %q after value of %q", ErrMalformedAttribute, runeAt(s, i), name)
		}
	}
}

// isNameByte reports whether c may appear in an attribute name.
func isNameByte(c byte) bool {
	return c == '_' || c == '-' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

// runeAt decodes the character starting at byte offset i, so error messages
// quote whole characters rather than the first byte of a multi-byte one.
func runeAt(s string, i int) rune {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return r
}

func skipBlanks(s string, i int) int {
	for i < len(s) && isBlank(s[i]) {
		i++
	}
	return i
}
