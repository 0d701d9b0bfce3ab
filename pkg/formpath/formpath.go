// Package formpath converts between form field names such as
// `tasks[0].content` and their structured segments. Keys are separated by a
// dot and list indices are written in brackets. An empty bracket pair (`[]`)
// is a wildcard index used to address every item of a list, for example when
// keying constraints shared by all items.
package formpath

import (
	"strconv"
	"strings"
)

type segmentKind uint8

const (
	kindKey segmentKind = iota
	kindIndex
	kindWildcard
)

// Segment is a single step of a field path: an object key, a list index or the
// wildcard index.
type Segment struct {
	kind  segmentKind
	key   string
	index int
}

// Key returns an object key segment.
func Key(name string) Segment {
	return Segment{kind: kindKey, key: name}
}

// Index returns a list index segment.
func Index(i int) Segment {
	return Segment{kind: kindIndex, index: i}
}

// Wildcard returns the index segment matching every list item.
func Wildcard() Segment {
	return Segment{kind: kindWildcard}
}

// IsIndex reports whether the segment addresses a list item (including the
// wildcard).
func (s Segment) IsIndex() bool { return s.kind != kindKey }

// IsWildcard reports whether the segment is the `[]` wildcard.
func (s Segment) IsWildcard() bool { return s.kind == kindWildcard }

// Key returns the object key, or "" for index segments.
func (s Segment) Key() string { return s.key }

// Index returns the list index, or -1 for keys and wildcards.
func (s Segment) Index() int {
	if s.kind != kindIndex {
		return -1
	}
	return s.index
}

func (s Segment) String() string {
	switch s.kind {
	case kindIndex:
		return "[" + strconv.Itoa(s.index) + "]"
	case kindWildcard:
		return "[]"
	default:
		return s.key
	}
}

// matches compares two segments treating a wildcard on either side as equal
// to any index.
func (s Segment) matches(other Segment) bool {
	if s.kind == kindKey || other.kind == kindKey {
		return s.kind == other.kind && s.key == other.key
	}
	if s.kind == kindWildcard || other.kind == kindWildcard {
		return true
	}
	return s.index == other.index
}

// Parse splits a field name into segments. Empty key segments are dropped so
// the form-level name "" parses to an empty path.
func Parse(name string) []Segment {
	if name == "" {
		return nil
	}

	var (
		segments []Segment
		buf      strings.Builder
	)
	flush := func() {
		if buf.Len() > 0 {
			segments = append(segments, Key(buf.String()))
			buf.Reset()
		}
	}

	for i := 0; i < len(name); {
		c := name[i]
		switch c {
		case '.':
			flush()
			i++
			continue
		case '[':
			j := i + 1
			for j < len(name) && name[j] >= '0' && name[j] <= '9' {
				j++
			}
			if j < len(name) && name[j] == ']' {
				if j == i+1 {
					flush()
					segments = append(segments, Wildcard())
					i = j + 1
					continue
				}
				if idx, err := strconv.Atoi(name[i+1 : j]); err == nil {
					flush()
					segments = append(segments, Index(idx))
					i = j + 1
					continue
				}
			}
		}
		buf.WriteByte(c)
		i++
	}
	flush()
	return segments
}

// Format joins segments back into a field name. It is the inverse of Parse
// for well-formed names.
func Format(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.IsIndex() {
			b.WriteString(seg.String())
			continue
		}
		if seg.key == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.key)
	}
	return b.String()
}

// Join appends segments to a parent name.
func Join(parent string, segments ...Segment) string {
	base := Parse(parent)
	out := make([]Segment, 0, len(base)+len(segments))
	out = append(out, base...)
	out = append(out, segments...)
	return Format(out)
}

// Child returns parent.key (or key when parent is the form root).
func Child(parent, key string) string {
	return Join(parent, Key(key))
}

// Item returns parent[index].
func Item(parent string, index int) string {
	return Join(parent, Index(index))
}

// IsPrefix reports whether prefix addresses name itself or one of its
// ancestors. The empty prefix is a prefix of every name.
func IsPrefix(name, prefix string) bool {
	paths := Parse(name)
	prefixPaths := Parse(prefix)
	if len(prefixPaths) > len(paths) {
		return false
	}
	for i, seg := range prefixPaths {
		if !seg.matches(paths[i]) {
			return false
		}
	}
	return true
}

// Covers reports whether name or one of its ancestors is set in flags.
func Covers(flags map[string]bool, name string) bool {
	if flags[name] {
		return true
	}
	for prefix, ok := range flags {
		if ok && IsPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Related reports whether either name is a prefix of the other.
func Related(a, b string) bool {
	return IsPrefix(a, b) || IsPrefix(b, a)
}

// Parent returns the name without its last segment.
func Parent(name string) string {
	segments := Parse(name)
	if len(segments) == 0 {
		return ""
	}
	return Format(segments[:len(segments)-1])
}

// WildcardOf replaces every index in name with the `[]` wildcard.
func WildcardOf(name string) string {
	segments := Parse(name)
	for i, seg := range segments {
		if seg.kind == kindIndex {
			segments[i] = Wildcard()
		}
	}
	return Format(segments)
}

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// ToPointer renders name as an RFC 6901 JSON pointer (`tasks[0].content` ->
// `/tasks/0/content`). The form root maps to "".
func ToPointer(name string) string {
	segments := Parse(name)
	if len(segments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		switch {
		case seg.kind == kindIndex:
			b.WriteString(strconv.Itoa(seg.index))
		case seg.kind == kindWildcard:
			b.WriteString("-")
		default:
			b.WriteString(pointerEscaper.Replace(seg.key))
		}
	}
	return b.String()
}

// FromPointer converts a JSON pointer (optionally prefixed with `#`) into a
// field name. Purely numeric tokens become list indices and `-` the wildcard.
func FromPointer(pointer string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(pointer), "#")
	if trimmed == "" || trimmed == "/" {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(trimmed, "/"), "/")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if part == "-" {
			segments = append(segments, Wildcard())
			continue
		}
		if isDigits(part) {
			if idx, err := strconv.Atoi(part); err == nil {
				segments = append(segments, Index(idx))
				continue
			}
		}
		segments = append(segments, Key(pointerUnescaper.Replace(part)))
	}
	return Format(segments)
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
