// Package registry holds the section pattern table used by chartmerge.
//
// Each entry maps a section type to one to three header patterns, a display
// label, a display order and a required flag. The table is pure data: it is
// validated and compiled once by New and never mutated afterwards.
package registry

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// SectionType identifies a clinical section (and the field extracted for it).
type SectionType string

// MaxPatternsPerEntry caps the number of header alternatives per section type.
const MaxPatternsPerEntry = 3

// Entry is one row of the pattern table.
type Entry struct {
	Type         SectionType `yaml:"type" json:"type"`
	Label        string      `yaml:"label" json:"label"`
	Patterns     []string    `yaml:"patterns" json:"patterns"`
	DisplayOrder int         `yaml:"display_order" json:"display_order"`
	Required     bool        `yaml:"required" json:"required"`
}

// ConfigError reports an invalid registry entry. It is a configuration bug
// and is only ever returned while building a Registry.
type ConfigError struct {
	Type    SectionType
	Pattern string
	Reason  string
	Err     error
}

func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("registry: ")
	if e.Type != "" {
		sb.WriteString(fmt.Sprintf("entry %q: ", e.Type))
	}
	sb.WriteString(e.Reason)
	if e.Pattern != "" {
		sb.WriteString(fmt.Sprintf(" (pattern %q)", e.Pattern))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Registry is a validated, compiled pattern table. Safe for concurrent use.
type Registry struct {
	version  string
	entries  []Entry
	compiled map[SectionType][]*regexp.Regexp
	index    map[SectionType]int
}

// New validates entries and compiles every pattern with case-insensitive,
// multi-line semantics. Entries are kept sorted by display order.
func New(version string, entries []Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, &ConfigError{Reason: "no entries"}
	}

	r := &Registry{
		version:  version,
		entries:  make([]Entry, 0, len(entries)),
		compiled: make(map[SectionType][]*regexp.Regexp, len(entries)),
		index:    make(map[SectionType]int, len(entries)),
	}

	orders := make(map[int]SectionType, len(entries))
	for _, e := range entries {
		e.Type = SectionType(strings.TrimSpace(string(e.Type)))
		if e.Type == "" {
			return nil, &ConfigError{Reason: "empty section type"}
		}
		if _, dup := r.compiled[e.Type]; dup {
			return nil, &ConfigError{Type: e.Type, Reason: "duplicate section type"}
		}
		if strings.TrimSpace(e.Label) == "" {
			return nil, &ConfigError{Type: e.Type, Reason: "empty label"}
		}
		if len(e.Patterns) == 0 || len(e.Patterns) > MaxPatternsPerEntry {
			return nil, &ConfigError{Type: e.Type, Reason: fmt.Sprintf("expected 1-%d patterns, got %d", MaxPatternsPerEntry, len(e.Patterns))}
		}
		if other, dup := orders[e.DisplayOrder]; dup {
			return nil, &ConfigError{Type: e.Type, Reason: fmt.Sprintf("display order %d already used by %q", e.DisplayOrder, other)}
		}
		orders[e.DisplayOrder] = e.Type

		res := make([]*regexp.Regexp, 0, len(e.Patterns))
		for _, p := range e.Patterns {
			if strings.TrimSpace(p) == "" {
				return nil, &ConfigError{Type: e.Type, Reason: "empty pattern"}
			}
			re, err := regexp.Compile("(?im)" + p)
			if err != nil {
				return nil, &ConfigError{Type: e.Type, Pattern: p, Reason: "invalid pattern", Err: err}
			}
			if re.MatchString("") {
				return nil, &ConfigError{Type: e.Type, Pattern: p, Reason: "pattern matches empty text"}
			}
			res = append(res, re)
		}

		e.Patterns = append([]string(nil), e.Patterns...)
		r.entries = append(r.entries, e)
		r.compiled[e.Type] = res
	}

	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].DisplayOrder < r.entries[j].DisplayOrder
	})
	for i, e := range r.entries {
		r.index[e.Type] = i
	}

	return r, nil
}

// Version returns the table version string.
func (r *Registry) Version() string { return r.version }

// Len returns the number of section types.
func (r *Registry) Len() int { return len(r.entries) }

// Lookup returns the entry for a section type.
func (r *Registry) Lookup(t SectionType) (Entry, bool) {
	i, ok := r.index[t]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Entries returns a copy of all entries in display order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Compiled returns the compiled header patterns of a section type in priority order.
func (r *Registry) Compiled(t SectionType) []*regexp.Regexp {
	return r.compiled[t]
}

// HeaderPatterns returns every compiled header pattern, entries in display order.
func (r *Registry) HeaderPatterns() []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, e := range r.entries {
		out = append(out, r.compiled[e.Type]...)
	}
	return out
}

// MaxDisplayOrder returns the largest display order in the table.
func (r *Registry) MaxDisplayOrder() int {
	return r.entries[len(r.entries)-1].DisplayOrder
}
