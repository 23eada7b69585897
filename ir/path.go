package ir

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a Path. Exactly one of Field, Index and Key is set.
type Segment struct {
	Field *string
	Index *int
	Key   *string
}

func Field(f string) Segment {
	return Segment{Field: &f}
}

func Index(i int) Segment {
	return Segment{Index: &i}
}

func Key(k string) Segment {
	return Segment{Key: &k}
}

func (s Segment) IsField() bool { return s.Field != nil }
func (s Segment) IsIndex() bool { return s.Index != nil }
func (s Segment) IsKey() bool   { return s.Key != nil }

func (s Segment) Equal(o Segment) bool {
	switch {
	case s.Field != nil:
		return o.Field != nil && *s.Field == *o.Field
	case s.Index != nil:
		return o.Index != nil && *s.Index == *o.Index
	case s.Key != nil:
		return o.Key != nil && *s.Key == *o.Key
	default:
		return o.Field == nil && o.Index == nil && o.Key == nil
	}
}

func (s Segment) String() string {
	switch {
	case s.Field != nil:
		return pathString(*s.Field)
	case s.Index != nil:
		return "[" + strconv.Itoa(*s.Index) + "]"
	case s.Key != nil:
		return "[_key==" + strconv.Quote(*s.Key) + "]"
	}
	return ""
}

// Path is an ordered sequence of segments from the root of a value.
type Path []Segment

func (p Path) String() string {
	buf := bytes.NewBuffer(nil)
	for i, seg := range p {
		if seg.Field != nil && i > 0 {
			buf.WriteByte('.')
		}
		buf.WriteString(seg.String())
	}
	return buf.String()
}

// Equal reports whether p and q are structurally equal. A nil path equals an
// empty one.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if !p[i].Equal(q[i]) {
			return false
		}
	}
	return true
}

func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	res := make(Path, len(p))
	for i, seg := range p {
		switch {
		case seg.Field != nil:
			res[i] = Field(*seg.Field)
		case seg.Index != nil:
			res[i] = Index(*seg.Index)
		case seg.Key != nil:
			res[i] = Key(*seg.Key)
		}
	}
	return res
}

// Append returns a new path with segs added after the segments of p.
func (p Path) Append(segs ...Segment) Path {
	res := make(Path, 0, len(p)+len(segs))
	res = append(res, p...)
	return append(res, segs...)
}

// Parent returns the path without its last segment. The parent of the root
// is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

func (p Path) Last() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// TrimToKeyed returns the longest prefix of p that contains no keyed
// segment, for consumers which can only address fields and indices.
func (p Path) TrimToKeyed() Path {
	for i, seg := range p {
		if seg.Key != nil {
			return p[:i]
		}
	}
	return p
}

func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Path) UnmarshalText(d []byte) error {
	res, err := ParsePath(string(d))
	if err != nil {
		return err
	}
	*p = res
	return nil
}

func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePath parses the string form of a path. See the package documentation
// for the syntax.
func ParsePath(s string) (Path, error) {
	res := Path{}
	if len(s) == 0 {
		return res, nil
	}
	frag := s
	first := true
	for len(frag) > 0 {
		switch frag[0] {
		case '.':
			if first {
				return nil, fmt.Errorf("%w: %q: unexpected leading '.'", ErrParse, s)
			}
			field, rest, err := parseField(frag[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrParse, s, err)
			}
			res = append(res, Field(field))
			frag = rest
		case '[':
			seg, rest, err := parseBracket(frag)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrParse, s, err)
			}
			res = append(res, seg)
			frag = rest
		default:
			if !first {
				return nil, fmt.Errorf("%w: %q: expected '.' or '['", ErrParse, s)
			}
			field, rest, err := parseField(frag)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrParse, s, err)
			}
			res = append(res, Field(field))
			frag = rest
		}
		first = false
	}
	return res, nil
}

func parseBracket(frag string) (Segment, string, error) {
	body := frag[1:]
	if strings.HasPrefix(body, "_key==") {
		q := body[len("_key=="):]
		if len(q) == 0 || (q[0] != '"' && q[0] != '\'') {
			return Segment{}, "", fmt.Errorf("expected quoted key")
		}
		key, rest, err := parseQuoted(q)
		if err != nil {
			return Segment{}, "", err
		}
		if len(rest) == 0 || rest[0] != ']' {
			return Segment{}, "", fmt.Errorf("expected ']' after key")
		}
		return Key(key), rest[1:], nil
	}
	i := strings.IndexByte(body, ']')
	if i == -1 {
		return Segment{}, "", fmt.Errorf("expected '[' <index> ']'")
	}
	u64, err := strconv.ParseUint(body[:i], 10, 31)
	if err != nil {
		return Segment{}, "", err
	}
	return Index(int(u64)), body[i+1:], nil
}

func parseField(frag string) (field, rest string, err error) {
	if len(frag) == 0 {
		return "", "", fmt.Errorf("expected field at end of string")
	}
	if frag[0] != '\'' {
		i := strings.IndexAny(frag, ".[")
		if i == 0 {
			return "", "", fmt.Errorf("empty field")
		}
		if i == -1 {
			return frag, "", nil
		}
		return frag[:i], frag[i:], nil
	}
	return parseQuoted(frag)
}

// parseQuoted scans a single or double quoted string with backslash escapes
// starting at frag[0].
func parseQuoted(frag string) (string, string, error) {
	quote := frag[0]
	escaped := false
	res := make([]byte, 0, len(frag))
	for i := 1; i < len(frag); i++ {
		c := frag[i]
		switch {
		case escaped:
			escaped = false
			res = append(res, c)
		case c == '\\':
			escaped = true
		case c == quote:
			return string(res), frag[i+1:], nil
		default:
			res = append(res, c)
		}
	}
	return "", "", fmt.Errorf("end of string scanning for %q", quote)
}

func pathString(f string) string {
	if f != "" && strings.IndexAny(f, "'\".[] ") == -1 {
		return f
	}
	return "'" + strings.NewReplacer(`\`, `\\`, "'", `\'`).Replace(f) + "'"
}
