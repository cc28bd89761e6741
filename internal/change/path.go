package change

import (
	"strconv"
	"strings"
)

// Segment is one step in a schema path: a member name or an array index.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

// Key returns a member-name segment.
func Key(name string) Segment {
	return Segment{Name: name}
}

// Index returns an array-index segment.
func Index(i int) Segment {
	return Segment{Index: i, IsIndex: true}
}

// String renders the segment as it appears in a dot-joined path.
func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Name
}

// Path locates a node in a schema document tree.
type Path []Segment

// P builds a Path from member names and indices. Strings become Key segments
// and ints become Index segments; other types are ignored.
func P(parts ...any) Path {
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		switch x := part.(type) {
		case string:
			p = append(p, Key(x))
		case int:
			p = append(p, Index(x))
		}
	}
	return p
}

// String joins the segments with dots, e.g. "paths./users.get".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Last returns the final segment, or the zero Segment for an empty path.
func (p Path) Last() Segment {
	if len(p) == 0 {
		return Segment{}
	}
	return p[len(p)-1]
}

// Names returns the member-name segments in order, skipping indices.
func (p Path) Names() []string {
	names := make([]string, 0, len(p))
	for _, s := range p {
		if !s.IsIndex {
			names = append(names, s.Name)
		}
	}
	return names
}

// Append returns a new path with segs added. The receiver is never aliased.
func (p Path) Append(segs ...Segment) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// MarshalAny renders the path as a list of strings and ints.
func (p Path) MarshalAny() []any {
	out := make([]any, len(p))
	for i, s := range p {
		if s.IsIndex {
			out[i] = s.Index
		} else {
			out[i] = s.Name
		}
	}
	return out
}
