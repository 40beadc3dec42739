// Package fields holds the per-note field extractors.
//
// Every extractor is a pure function of the note text. A field is located
// by its primary label, then by a chain of fallback labels, and its value
// runs to the next known label, a horizontal rule, a note title marker or
// the end of the note. A missing field is the empty string.
package fields

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hurttlocker/chartmerge/internal/registry"
)

// fallbackLabels are alternative headers tried after a field's registry
// patterns. They also terminate other fields.
var fallbackLabels = map[registry.SectionType][]string{
	registry.ChiefComplaint: {
		`^[ \t]*(?:PRESENTING (?:PROBLEM|COMPLAINT)|PATIENT CONCERN)[ \t]*:`,
	},
	registry.HistoryPresentIllness: {
		`^[ \t]*SUBJECTIVE[ \t]*:`,
	},
	registry.PastMedicalHistory: {
		`^[ \t]*(?:MEDICAL PROBLEMS|CHRONIC CONDITIONS)[ \t]*:`,
	},
	registry.Medications: {
		`^[ \t]*(?:PRESCRIPTIONS|RX LIST|HOME MEDICATIONS)[ \t]*:`,
	},
	registry.Allergies: {
		`^[ \t]*(?:DRUG ALLERGIES|ALLERGIC REACTIONS)[ \t]*:`,
	},
	registry.VitalSigns: {
		`^[ \t]*(?:VS|MOST RECENT VITALS)[ \t]*:`,
	},
	registry.Imaging: {
		`^[ \t]*(?:CT(?: A/P| ABD(?:OMEN)?/PELVIS| UROGRAM)?|MRI(?: PROSTATE| PELVIS)?|RENAL (?:US|ULTRASOUND)|KUB|BONE SCAN)[ \t]*:`,
	},
	registry.ProblemList: {
		`^[ \t]*(?:ACTIVE PROBLEM LIST|DIAGNOSIS LIST)[ \t]*:`,
	},
	registry.Assessment: {
		`^[ \t]*(?:DIAGNOS[EI]S|CLINICAL IMPRESSION)[ \t]*:`,
	},
	registry.Plan: {
		`^[ \t]*(?:TREATMENT PLAN|DISPOSITION)[ \t]*:`,
	},
	registry.FollowUp: {
		`^[ \t]*(?:NEXT APPOINTMENT|RETURN VISIT)[ \t]*:`,
	},
}

// stopLabels end a field value without being fields themselves.
var stopLabels = []string{
	`^[ \t]*(?:-{3,}|={3,}|_{3,})[ \t]*$`,
	`^[ \t]*LOCAL TITLE:`,
	`^[ \t]*STANDARD TITLE:`,
	`^[ \t]*(?:DATE OF NOTE|ENTRY DATE)[ \t]*:`,
	`^[ \t]*[-=*]*[ \t]*END OF (?:CONSULT )?REQUEST\b`,
	`^[ \t]*(?:To Service|From Service|Requesting Facility|Date of Request|Request Date|Urgency|Place of Consultation|Consult Request)\b`,
	`^[ \t]*/es/`,
	`^[ \t]*Signed:`,
}

type labelRule struct {
	labels []*regexp.Regexp
}

// Set is the field extractor set for one registry. Label rules come from the
// registry's header patterns plus the built-in fallback labels, and every
// registry header ends a field value.
type Set struct {
	reg        *registry.Registry
	rules      map[registry.SectionType]labelRule
	terminator []*regexp.Regexp
}

// New builds the extractor set for reg.
func New(reg *registry.Registry) *Set {
	s := &Set{reg: reg, rules: make(map[registry.SectionType]labelRule, reg.Len())}
	for _, e := range reg.Entries() {
		r := labelRule{labels: append([]*regexp.Regexp(nil), reg.Compiled(e.Type)...)}
		for _, p := range fallbackLabels[e.Type] {
			re := regexp.MustCompile("(?im)" + p)
			r.labels = append(r.labels, re)
			s.terminator = append(s.terminator, re)
		}
		s.rules[e.Type] = r
	}
	s.terminator = append(s.terminator, reg.HeaderPatterns()...)
	for _, p := range stopLabels {
		s.terminator = append(s.terminator, regexp.MustCompile("(?im)"+p))
	}
	return s
}

// defaultSet backs the package-level Extract functions.
var defaultSet = New(registry.Default())

// doc is a note with its precomputed label boundaries.
type doc struct {
	set    *Set
	text   string
	bounds []int
}

func newDoc(text string) *doc { return defaultSet.newDoc(text) }

func (s *Set) newDoc(text string) *doc {
	seen := make(map[int]struct{})
	d := &doc{set: s, text: text}
	for _, re := range s.terminator {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if _, ok := seen[loc[0]]; !ok {
				seen[loc[0]] = struct{}{}
				d.bounds = append(d.bounds, loc[0])
			}
		}
	}
	d.bounds = append(d.bounds, len(text))
	sort.Ints(d.bounds)
	return d
}

// end returns the first boundary at or after pos.
func (d *doc) end(pos int) int {
	i := sort.SearchInts(d.bounds, pos)
	if i == len(d.bounds) {
		return len(d.text)
	}
	return d.bounds[i]
}

// labelled returns the first non-empty value found by any of the patterns,
// tried in order.
func (d *doc) labelled(patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		for _, loc := range re.FindAllStringIndex(d.text, -1) {
			if v := strings.TrimSpace(d.text[loc[1]:d.end(loc[1])]); v != "" {
				return v
			}
		}
	}
	return ""
}

// field extracts a registry field by its label chain.
func (d *doc) field(t registry.SectionType) string {
	return d.labelled(d.set.rules[t].labels)
}
