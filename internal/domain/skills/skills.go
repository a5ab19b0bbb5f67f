// Package skills normalizes skill collections into a comparable set type.
//
// Skill lists reach the service as JSON arrays, delimited strings, JSON
// encoded strings stored in a text column, or not at all. Everything is
// funnelled through Normalize so the rest of the code only sees a Set.
package skills

import (
	"encoding/json"
	"strings"
)

// delimiters accepted in a serialized skill string.
const delimiters = ",;|\n\r"

// Set is an immutable collection of unique, trimmed, non-empty skill tags.
// Tags compare case-sensitively. First-seen order is kept for display only.
// The zero value is an empty set.
type Set struct {
	tags  []string
	index map[string]struct{}
}

// New builds a Set from the given tags, trimming whitespace and dropping
// empty and duplicate entries.
func New(tags ...string) Set {
	s := Set{}
	for _, t := range tags {
		s.add(t)
	}
	return s
}

func (s *Set) add(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[tag]; ok {
		return
	}
	s.index[tag] = struct{}{}
	s.tags = append(s.tags, tag)
}

// Normalize converts raw input into a Set. It never panics: nil, unknown
// types and unparseable strings all yield the empty set.
func Normalize(raw any) Set {
	switch v := raw.(type) {
	case nil:
		return Set{}
	case Set:
		return v
	case *Set:
		if v == nil {
			return Set{}
		}
		return *v
	case []string:
		return New(v...)
	case []any:
		s := Set{}
		for _, item := range v {
			if str, ok := item.(string); ok {
				s.add(str)
			}
		}
		return s
	case string:
		return parse(v)
	case []byte:
		return parse(string(v))
	default:
		return Set{}
	}
}

// parse handles the string encodings seen in stored data: a JSON value
// (array, string or null) and a delimiter separated list.
func parse(raw string) Set {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return Set{}
	}
	if strings.HasPrefix(raw, "[") {
		var items []any
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return Set{}
		}
		return Normalize(items)
	}
	if strings.HasPrefix(raw, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(raw), &inner); err != nil {
			return Set{}
		}
		return parse(inner)
	}
	return New(strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(delimiters, r)
	})...)
}

// Len returns the number of tags.
func (s Set) Len() int { return len(s.tags) }

// IsEmpty reports whether the set has no tags.
func (s Set) IsEmpty() bool { return len(s.tags) == 0 }

// Contains reports whether tag is present (exact, case-sensitive).
func (s Set) Contains(tag string) bool {
	_, ok := s.index[tag]
	return ok
}

// Slice returns a copy of the tags in first-seen order.
func (s Set) Slice() []string {
	out := make([]string, len(s.tags))
	copy(out, s.tags)
	return out
}

// With returns a new set that also contains tag. The receiver is unchanged.
func (s Set) With(tag string) Set {
	out := New(s.tags...)
	out.add(tag)
	return out
}

// Intersect counts the tags present in both sets.
func Intersect(a, b Set) int {
	if a.Len() > b.Len() {
		a, b = b, a
	}
	n := 0
	for _, t := range a.tags {
		if b.Contains(t) {
			n++
		}
	}
	return n
}

// Shared returns the tags of a that are also in b, in a's order.
func Shared(a, b Set) []string {
	out := make([]string, 0, min(a.Len(), b.Len()))
	for _, t := range a.tags {
		if b.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// MarshalJSON encodes the set as a JSON array (never null).
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON accepts an array, a serialized string or null.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = Set{}
		return nil
	}
	*s = Normalize(raw)
	return nil
}
