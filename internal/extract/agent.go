// Package extract implements the section extraction agent.
//
// The agent finds every registry header in a document, cuts each section
// body at the next boundary, resolves overlapping claims, splits oversized
// bodies into size-bounded parts and, when the extracted sections cover too
// little of the input, collects the leftover text into a fallback section.
package extract

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/hurttlocker/chartmerge/internal/metrics"
	"github.com/hurttlocker/chartmerge/internal/registry"
	"github.com/hurttlocker/chartmerge/internal/span"
)

// Defaults for Config.
const (
	DefaultMaxTokens         = 20000
	DefaultCharsPerToken     = 4
	DefaultMinContentChars   = 10
	DefaultCoverageThreshold = 0.70
)

// fallbackOrderGap places the fallback section after every registry entry.
const fallbackOrderGap = 10

// Section is one extracted clinical section. Values are never modified after
// the agent returns them.
type Section struct {
	SectionType     string               `json:"section_type"`
	BaseType        registry.SectionType `json:"base_type"`
	Part            int                  `json:"part,omitempty"`
	Content         string               `json:"content"`
	CharCount       int                  `json:"char_count"`
	EstimatedTokens int                  `json:"estimated_tokens"`
	Order           float64              `json:"order"`
	Offset          int                  `json:"offset"`
}

// Report is the full result of one extraction pass.
type Report struct {
	Sections     []Section   `json:"sections"`
	Coverage     float64     `json:"coverage"`
	TextLength   int         `json:"text_length"`
	Matched      []span.Span `json:"matched"`
	Unmatched    []span.Span `json:"unmatched"`
	FallbackUsed bool        `json:"fallback_used"`
	Discarded    int         `json:"discarded"`
}

// Config controls sizing and the coverage fallback.
type Config struct {
	MaxTokens         int     `json:"max_tokens"`
	CharsPerToken     int     `json:"chars_per_token"`
	MinContentChars   int     `json:"min_content_chars"`
	CoverageThreshold float64 `json:"coverage_threshold"`
}

// DefaultConfig returns the standard sizing: 20k tokens at 4 chars per token.
func DefaultConfig() Config {
	return Config{
		MaxTokens:         DefaultMaxTokens,
		CharsPerToken:     DefaultCharsPerToken,
		MinContentChars:   DefaultMinContentChars,
		CoverageThreshold: DefaultCoverageThreshold,
	}
}

// MaxChars is the per-section character budget.
func (c Config) MaxChars() int { return c.MaxTokens * c.CharsPerToken }

// Validate checks that every field is in range.
func (c Config) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("extract: max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.CharsPerToken <= 0 {
		return fmt.Errorf("extract: chars_per_token must be positive, got %d", c.CharsPerToken)
	}
	if c.MinContentChars < 0 {
		return fmt.Errorf("extract: min_content_chars must not be negative, got %d", c.MinContentChars)
	}
	if c.CoverageThreshold < 0 || c.CoverageThreshold > 1 {
		return fmt.Errorf("extract: coverage_threshold must be within [0,1], got %v", c.CoverageThreshold)
	}
	return nil
}

// Agent extracts sections from raw text. It holds no per-document state and
// is safe for concurrent use.
type Agent struct {
	reg     *registry.Registry
	cfg     Config
	counter TokenCounter
	log     zerolog.Logger
	metrics *metrics.Recorder
}

// Option configures an Agent.
type Option func(*Agent)

// WithConfig replaces the sizing configuration.
func WithConfig(cfg Config) Option {
	return func(a *Agent) { a.cfg = cfg }
}

// WithTokenCounter replaces the default character-based token estimate.
func WithTokenCounter(tc TokenCounter) Option {
	return func(a *Agent) {
		if tc != nil {
			a.counter = tc
		}
	}
}

// WithLogger sets the agent logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Agent) { a.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(a *Agent) { a.metrics = m }
}

// NewAgent creates an agent over reg.
func NewAgent(reg *registry.Registry, opts ...Option) (*Agent, error) {
	if reg == nil {
		return nil, fmt.Errorf("extract: nil registry")
	}
	a := &Agent{
		reg: reg,
		cfg: DefaultConfig(),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	if a.counter == nil {
		a.counter = CharEstimator{CharsPerToken: a.cfg.CharsPerToken}
	}
	return a, nil
}

// ExtractSections returns the sections of text sorted by order, then offset.
func (a *Agent) ExtractSections(text string) []Section {
	return a.Extract(text).Sections
}

// Extract runs a full extraction pass.
func (a *Agent) Extract(text string) Report {
	rep := Report{TextLength: len(text)}
	if len(text) == 0 {
		return rep
	}

	matches, bounds := scanHeaders(a.reg, text)

	// Matches arrive in priority order: display order, pattern index, position.
	var claimed span.Set
	for _, m := range matches {
		end := bounds.next(m.headerEnd)
		s := span.Span{Start: m.start, End: end}
		if claimed.Overlaps(s) {
			rep.Discarded++
			continue
		}
		body := strings.TrimSpace(text[m.headerEnd:end])
		if utf8.RuneCountInString(body) < a.cfg.MinContentChars {
			rep.Discarded++
			continue
		}
		claimed.Claim(s)
		rep.Sections = append(rep.Sections,
			a.emit(m.entry.Type, float64(m.entry.DisplayOrder), body, m.start)...)
	}

	rep.Matched = claimed.Spans()
	rep.Coverage = float64(span.Covered(rep.Matched)) / float64(len(text))
	rep.Unmatched = span.Gaps(rep.Matched, len(text))

	if rep.Coverage < a.cfg.CoverageThreshold {
		if body := joinGaps(text, rep.Unmatched); body != "" {
			order := float64(a.reg.MaxDisplayOrder() + fallbackOrderGap)
			rep.Sections = append(rep.Sections,
				a.emit(registry.OtherClinicalData, order, body, rep.Unmatched[0].Start)...)
			rep.FallbackUsed = true
			a.metrics.FallbackSection()
		}
	}

	sort.SliceStable(rep.Sections, func(i, j int) bool {
		if rep.Sections[i].Order != rep.Sections[j].Order {
			return rep.Sections[i].Order < rep.Sections[j].Order
		}
		return rep.Sections[i].Offset < rep.Sections[j].Offset
	})

	for _, s := range rep.Sections {
		a.metrics.SectionExtracted(string(s.BaseType))
	}
	a.metrics.ObserveCoverage(rep.Coverage)

	a.log.Debug().
		Int("sections", len(rep.Sections)).
		Int("discarded", rep.Discarded).
		Float64("coverage", rep.Coverage).
		Bool("fallback", rep.FallbackUsed).
		Msg("extraction complete")

	return rep
}

// emit builds the sections for one body, splitting it when it exceeds the
// character budget. Parts are named <type>_partN and ordered base+(N-1)/100.
func (a *Agent) emit(t registry.SectionType, order float64, body string, offset int) []Section {
	chunks := ChunkBody(body, a.cfg.MaxChars())
	if len(chunks) == 1 {
		return []Section{a.section(string(t), t, 0, chunks[0], order, offset)}
	}

	a.log.Debug().
		Str("type", string(t)).
		Int("chars", utf8.RuneCountInString(body)).
		Int("parts", len(chunks)).
		Msg("splitting oversized section")

	out := make([]Section, 0, len(chunks))
	for i, c := range chunks {
		n := i + 1
		name := fmt.Sprintf("%s_part%d", t, n)
		out = append(out, a.section(name, t, n, c, order+float64(i)/100, offset))
	}
	return out
}

func (a *Agent) section(name string, base registry.SectionType, part int, content string, order float64, offset int) Section {
	return Section{
		SectionType:     name,
		BaseType:        base,
		Part:            part,
		Content:         content,
		CharCount:       utf8.RuneCountInString(content),
		EstimatedTokens: a.counter.CountTokens(content),
		Order:           order,
		Offset:          offset,
	}
}

func joinGaps(text string, gaps []span.Span) string {
	var parts []string
	for _, g := range gaps {
		if s := strings.TrimSpace(text[g.Start:g.End]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// GroupByType concatenates section contents per base type, in output order.
// Parts of a split section share an offset and are rejoined with a blank line.
func GroupByType(sections []Section) map[registry.SectionType][]string {
	type partKey struct {
		t      registry.SectionType
		offset int
	}
	out := make(map[registry.SectionType][]string)
	parts := make(map[partKey]int)
	for _, s := range sections {
		if s.Part > 0 {
			k := partKey{s.BaseType, s.Offset}
			if i, ok := parts[k]; ok {
				out[s.BaseType][i] += "\n\n" + s.Content
				continue
			}
			parts[k] = len(out[s.BaseType])
		}
		out[s.BaseType] = append(out[s.BaseType], s.Content)
	}
	return out
}
