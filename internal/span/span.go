// Package span implements the half-open interval set used to resolve
// overlapping matches during section extraction.
package span

import "sort"

// Span is a half-open byte interval [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered.
func (s Span) Len() int {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

// Overlaps reports whether s and o share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Set holds non-overlapping spans sorted by Start.
//
// Claims are first-come-first-served: a span that intersects any span
// already in the set is rejected, whatever its length. Callers that need a
// priority order (pattern index, then position) must offer candidates in
// that order. Adjacent spans ([0,5) and [5,9)) do not overlap.
type Set struct {
	spans []Span
}

// Claim inserts s if it does not overlap an accepted span.
// Empty spans are never accepted.
func (set *Set) Claim(s Span) bool {
	if s.Len() == 0 {
		return false
	}
	i := sort.Search(len(set.spans), func(i int) bool { return set.spans[i].End > s.Start })
	if i < len(set.spans) && set.spans[i].Overlaps(s) {
		return false
	}
	set.spans = append(set.spans, Span{})
	copy(set.spans[i+1:], set.spans[i:])
	set.spans[i] = s
	return true
}

// Overlaps reports whether s intersects any accepted span.
func (set *Set) Overlaps(s Span) bool {
	i := sort.Search(len(set.spans), func(i int) bool { return set.spans[i].End > s.Start })
	return i < len(set.spans) && set.spans[i].Overlaps(s)
}

// Spans returns the accepted spans in start order.
func (set *Set) Spans() []Span {
	out := make([]Span, len(set.spans))
	copy(out, set.spans)
	return out
}

// Len returns the number of accepted spans.
func (set *Set) Len() int { return len(set.spans) }

// Union merges possibly-overlapping spans into a sorted disjoint list.
// Touching spans are merged.
func Union(spans []Span) []Span {
	in := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Len() > 0 {
			in = append(in, s)
		}
	}
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool {
		if in[i].Start != in[j].Start {
			return in[i].Start < in[j].Start
		}
		return in[i].End < in[j].End
	})

	out := []Span{in[0]}
	for _, s := range in[1:] {
		last := &out[len(out)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// Covered returns the number of bytes covered by the union of spans.
func Covered(spans []Span) int {
	n := 0
	for _, s := range Union(spans) {
		n += s.Len()
	}
	return n
}

// Gaps returns the parts of [0, total) not covered by spans.
func Gaps(spans []Span, total int) []Span {
	var out []Span
	pos := 0
	for _, s := range Union(spans) {
		if s.Start >= total {
			break
		}
		if s.Start > pos {
			out = append(out, Span{Start: pos, End: s.Start})
		}
		if s.End > pos {
			pos = s.End
		}
	}
	if pos < total {
		out = append(out, Span{Start: pos, End: total})
	}
	return out
}
