// Package assemble renders canonical field values into the final ordered
// document.
package assemble

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hurttlocker/chartmerge/internal/registry"
)

// DefaultTitle heads every assembled document.
const DefaultTitle = "UROLOGY CHART SUMMARY"

// NotDocumented fills required sections that have no value.
const NotDocumented = "Not documented."

// Section is one rendered block of the document.
type Section struct {
	Type         registry.SectionType `json:"type"`
	Label        string               `json:"label"`
	DisplayOrder int                  `json:"display_order"`
	Content      string               `json:"content"`
	Placeholder  bool                 `json:"placeholder,omitempty"`
}

// Document is the assembled output.
type Document struct {
	Text     string                 `json:"text"`
	Sections []Section              `json:"sections"`
	Gated    []registry.SectionType `json:"gated,omitempty"`
}

// Gate decides from the full value map whether a section may be emitted.
type Gate func(values map[registry.SectionType]string) bool

// historyFields are searched by the keyword gates.
var historyFields = []registry.SectionType{
	registry.HistoryPresentIllness,
	registry.GUHistory,
	registry.PastMedicalHistory,
	registry.ProblemList,
}

var (
	androgenRE   = regexp.MustCompile(`(?i)\b(?:hypogonad\w*|testosterone|low t|androgen deprivation|ADT|TRT|lupron|leuprolide|degarelix|firmagon|eligard|zoladex|goserelin|bicalutamide|enzalutamide|abiraterone)\b`)
	malignancyRE = regexp.MustCompile(`(?i)\b(?:cancer|carcinoma|malignan\w*|adenocarcinoma|neoplasm|tumou?r|metasta\w*|oncolog\w*|gleason|urothelial|RCC|TCC|seminoma|lymphoma|sarcoma)\b`)
)

// KeywordGate allows a section only when one of the history fields matches re.
func KeywordGate(re *regexp.Regexp) Gate {
	return func(values map[registry.SectionType]string) bool {
		for _, f := range historyFields {
			if re.MatchString(values[f]) {
				return true
			}
		}
		return false
	}
}

// DefaultGates returns the cross-section gates applied by New.
func DefaultGates() map[registry.SectionType]Gate {
	androgen := KeywordGate(androgenRE)
	malignancy := KeywordGate(malignancyRE)
	return map[registry.SectionType]Gate{
		registry.TestosteroneCurve: androgen,
		registry.HormoneTherapy:    androgen,
		registry.OncologyStaging:   malignancy,
		registry.RadiationHistory:  malignancy,
	}
}

// Assembler walks a registry in display order.
type Assembler struct {
	reg   *registry.Registry
	title string
	gates map[registry.SectionType]Gate
	log   zerolog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithTitle replaces the document title line. An empty title omits it.
func WithTitle(title string) Option {
	return func(a *Assembler) { a.title = title }
}

// WithGates replaces the gate table.
func WithGates(g map[registry.SectionType]Gate) Option {
	return func(a *Assembler) { a.gates = g }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Assembler) { a.log = l }
}

// New creates an assembler over reg.
func New(reg *registry.Registry, opts ...Option) *Assembler {
	a := &Assembler{
		reg:   reg,
		title: DefaultTitle,
		gates: DefaultGates(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// schema is the registry in display order followed by the fallback entry,
// unless the registry already lists it.
func (a *Assembler) schema() []registry.Entry {
	entries := a.reg.Entries()
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].DisplayOrder < entries[j].DisplayOrder })
	if _, ok := a.reg.Lookup(registry.OtherClinicalData); !ok {
		entries = append(entries, registry.Entry{
			Type:         registry.OtherClinicalData,
			Label:        registry.OtherClinicalDataLabel,
			DisplayOrder: a.reg.MaxDisplayOrder() + 10,
		})
	}
	return entries
}

// Assemble renders values. A non-empty value is emitted under its label, a
// required entry without one gets NotDocumented and anything else is
// omitted. Values for types outside the schema are ignored.
func (a *Assembler) Assemble(values map[registry.SectionType]string) Document {
	var doc Document
	var blocks []string
	if a.title != "" {
		blocks = append(blocks, a.title)
	}

	for _, e := range a.schema() {
		v := strings.TrimSpace(values[e.Type])
		placeholder := false
		if v == "" {
			if !e.Required {
				continue
			}
			v, placeholder = NotDocumented, true
		}
		if gate, ok := a.gates[e.Type]; ok && !placeholder && !gate(values) {
			a.log.Debug().Str("section", string(e.Type)).Msg("section gated out")
			doc.Gated = append(doc.Gated, e.Type)
			continue
		}
		doc.Sections = append(doc.Sections, Section{
			Type:         e.Type,
			Label:        e.Label,
			DisplayOrder: e.DisplayOrder,
			Content:      v,
			Placeholder:  placeholder,
		})
		blocks = append(blocks, e.Label+":\n"+v)
	}

	doc.Text = strings.Join(blocks, "\n\n")
	if doc.Text != "" {
		doc.Text += "\n"
	}
	return doc
}
