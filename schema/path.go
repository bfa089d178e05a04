package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a node of a survey data tree. Elements are field names
// (string) or array indexes (int).
type Path []any

// Append returns a new path; p is never modified.
func (p Path) Append(elem any) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = elem
	return out
}

func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// String formats the path as used for form control names: notes[0].note
func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		switch e := elem.(type) {
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(e))
			b.WriteByte(']')
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, e)
		}
	}
	return b.String()
}

func (p *Path) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Path, len(raw))
	for i, elem := range raw {
		switch e := elem.(type) {
		case string:
			out[i] = e
		case float64:
			out[i] = int(e)
		default:
			return fmt.Errorf("path element %d: unexpected %T", i, elem)
		}
	}
	*p = out
	return nil
}

// ParsePath is the inverse of Path.String.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("empty path")
	}

	var p Path
	for i := 0; i < len(s); {
		switch s[i] {
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unterminated index", s)
			}
			n, err := strconv.Atoi(s[i+1 : i+end])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("path %q: bad index %q", s, s[i+1:i+end])
			}
			p = append(p, n)
			i += end + 1
		case '.':
			if len(p) == 0 {
				return nil, fmt.Errorf("path %q: leading dot", s)
			}
			i++
			j := nameEnd(s, i)
			if j == i {
				return nil, fmt.Errorf("path %q: empty name", s)
			}
			p = append(p, s[i:j])
			i = j
		default:
			if len(p) > 0 {
				return nil, fmt.Errorf("path %q: missing separator at %d", s, i)
			}
			j := nameEnd(s, i)
			if j == i {
				return nil, fmt.Errorf("path %q: unexpected %q", s, s[i])
			}
			p = append(p, s[i:j])
			i = j
		}
	}
	return p, nil
}

func nameEnd(s string, from int) int {
	if n := strings.IndexAny(s[from:], ".[]"); n >= 0 {
		return from + n
	}
	return len(s)
}
