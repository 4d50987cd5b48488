// Package memberfilter handles the ignore lists that drop callables and
// namespaces from a generated CLI.
package memberfilter

import (
	"fmt"
	"strings"
)

// ParseList splits a comma-separated string into a trimmed, deduplicated
// list. Empty entries are removed and the first occurrence wins.
func ParseList(csv string) []string {
	if csv == "" {
		return nil
	}
	return Normalize(strings.Split(csv, ","))
}

// Normalize trims, drops empty entries, and deduplicates in order. Entries
// may themselves contain commas, which lets repeated flags and
// comma-separated values mix.
func Normalize(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	var result []string
	for _, entry := range entries {
		for _, part := range strings.Split(entry, ",") {
			name := strings.TrimSpace(part)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			result = append(result, name)
		}
	}
	return result
}

// Set matches members against an ignore list. An entry matches a member by
// its bare name or its qualified dotted path.
type Set struct {
	names map[string]bool
	hits  map[string]bool
	order []string
}

// NewSet builds a Set from an ignore list.
func NewSet(entries []string) *Set {
	s := &Set{names: make(map[string]bool), hits: make(map[string]bool)}
	for _, e := range Normalize(entries) {
		s.names[e] = true
		s.order = append(s.order, e)
	}
	return s
}

// Match reports whether the member is ignored and records the hit.
func (s *Set) Match(name, qualified string) bool {
	if s == nil {
		return false
	}
	matched := false
	for _, key := range []string{name, qualified} {
		if key != "" && s.names[key] {
			s.hits[key] = true
			matched = true
		}
	}
	return matched
}

// Unmatched returns the entries that never matched, in input order.
func (s *Set) Unmatched() []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, e := range s.order {
		if !s.hits[e] {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Describe formats an unmatched entry for a warning, adding a suggestion from
// available when one is close.
func Describe(kind, entry string, available []string) string {
	msg := fmt.Sprintf("ignored %s '%s' does not exist", kind, entry)
	if suggestion := Suggest(entry, available); suggestion != "" {
		msg += fmt.Sprintf(". Did you mean '%s'?", suggestion)
	}
	return msg
}
