// Package normalize runs the full chart normalization pipeline: note
// classification or section extraction, per-field extraction, aggregation
// and assembly.
package normalize

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hurttlocker/chartmerge/internal/aggregate"
	"github.com/hurttlocker/chartmerge/internal/assemble"
	"github.com/hurttlocker/chartmerge/internal/extract"
	"github.com/hurttlocker/chartmerge/internal/fields"
	"github.com/hurttlocker/chartmerge/internal/ingest"
	"github.com/hurttlocker/chartmerge/internal/metrics"
	"github.com/hurttlocker/chartmerge/internal/notes"
	"github.com/hurttlocker/chartmerge/internal/registry"
)

// Mode selects how field instances are collected.
type Mode string

const (
	// ModeAuto uses notes when the classifier finds any, sections otherwise.
	ModeAuto Mode = "auto"
	// ModeNotes classifies notes and runs the per-note field extractors.
	ModeNotes Mode = "notes"
	// ModeSections runs the section extraction agent on the whole input.
	ModeSections Mode = "sections"
)

// ParseMode validates a mode name. The empty string means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeNotes, ModeSections:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want auto, notes or sections)", s)
	}
}

// FieldReport describes how one field was merged.
type FieldReport struct {
	Field     registry.SectionType `json:"field"`
	Instances int                  `json:"instances"`
	Policy    string               `json:"policy"`
	Fallback  bool                 `json:"fallback,omitempty"`
	Cached    bool                 `json:"cached,omitempty"`
	Dropped   int                  `json:"dropped_lines,omitempty"`
}

// Report summarizes one run.
type Report struct {
	RunID           string                 `json:"run_id"`
	Mode            Mode                   `json:"mode"`
	RegistryVersion string                 `json:"registry_version"`
	InputChars      int                    `json:"input_chars"`
	Notes           map[notes.Kind]int     `json:"notes,omitempty"`
	Coverage        *float64               `json:"coverage,omitempty"`
	FallbackSection bool                   `json:"fallback_section,omitempty"`
	Fields          []FieldReport          `json:"fields"`
	Fallbacks       []registry.SectionType `json:"synthesis_fallbacks,omitempty"`
	Gated           []registry.SectionType `json:"gated,omitempty"`
	DurationMS      int64                  `json:"duration_ms"`
}

// Result is the assembled document and its run report.
type Result struct {
	Document assemble.Document `json:"document"`
	Report   Report            `json:"report"`
}

// Pipeline wires the stages together. It is safe for concurrent use.
type Pipeline struct {
	reg        *registry.Registry
	agent      *extract.Agent
	classifier *notes.Classifier
	fields     *fields.Set
	engine     *aggregate.Engine
	assembler  *assemble.Assembler
	mode       Mode
	log        zerolog.Logger
	metrics    *metrics.Recorder

	agentOpts  []extract.Option
	engineOpts []aggregate.Option
	asmOpts    []assemble.Option
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMode sets the default mode.
func WithMode(m Mode) Option {
	return func(p *Pipeline) { p.mode = m }
}

// WithExtractOptions passes options to the section extraction agent.
func WithExtractOptions(opts ...extract.Option) Option {
	return func(p *Pipeline) { p.agentOpts = append(p.agentOpts, opts...) }
}

// WithAggregateOptions passes options to the aggregation engine.
func WithAggregateOptions(opts ...aggregate.Option) Option {
	return func(p *Pipeline) { p.engineOpts = append(p.engineOpts, opts...) }
}

// WithAssembleOptions passes options to the assembler.
func WithAssembleOptions(opts ...assemble.Option) Option {
	return func(p *Pipeline) { p.asmOpts = append(p.asmOpts, opts...) }
}

// WithLogger sets the logger for every stage.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithMetrics sets the metrics recorder for every stage.
func WithMetrics(m *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New builds a pipeline over reg.
func New(reg *registry.Registry, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{reg: reg, mode: ModeAuto, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	if _, err := ParseMode(string(p.mode)); err != nil {
		return nil, err
	}

	agent, err := extract.NewAgent(reg, append([]extract.Option{
		extract.WithLogger(p.log.With().Str("component", "extract").Logger()),
		extract.WithMetrics(p.metrics),
	}, p.agentOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating extraction agent: %w", err)
	}
	p.agent = agent
	p.fields = fields.New(reg)
	p.classifier = notes.NewClassifier(notes.WithLogger(p.log.With().Str("component", "notes").Logger()))
	p.engine = aggregate.NewEngine(append([]aggregate.Option{
		aggregate.WithLogger(p.log.With().Str("component", "aggregate").Logger()),
		aggregate.WithMetrics(p.metrics),
	}, p.engineOpts...)...)
	p.assembler = assemble.New(reg, append([]assemble.Option{
		assemble.WithLogger(p.log.With().Str("component", "assemble").Logger()),
	}, p.asmOpts...)...)
	return p, nil
}

// Registry returns the pattern registry in use.
func (p *Pipeline) Registry() *registry.Registry { return p.reg }

// Agent returns the section extraction agent.
func (p *Pipeline) Agent() *extract.Agent { return p.agent }

// Classifier returns the note classifier.
func (p *Pipeline) Classifier() *notes.Classifier { return p.classifier }

// Run normalizes raw with the pipeline's default mode.
func (p *Pipeline) Run(ctx context.Context, raw string) (*Result, error) {
	return p.RunMode(ctx, raw, p.mode)
}

// RunMode normalizes raw with an explicit mode. Processing never fails on
// content; the only errors are an invalid mode and a canceled context.
func (p *Pipeline) RunMode(ctx context.Context, raw string, mode Mode) (*Result, error) {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.NewString()
	log := p.log.With().Str("run_id", runID).Logger()
	text := ingest.Clean(raw)

	rep := Report{
		RunID:           runID,
		RegistryVersion: p.reg.Version(),
		InputChars:      len(text),
	}

	var byField map[registry.SectionType][]string
	var classified notes.Result
	if mode != ModeSections {
		classified = p.classifier.Classify(text)
	}
	if mode == ModeNotes || (mode == ModeAuto && classified.Len() > 0) {
		rep.Mode = ModeNotes
		rep.Notes = classified.Counts()
		byField = fields.Group(p.fields.ExtractAll(classified.All()))
	} else {
		rep.Mode = ModeSections
		ex := p.agent.Extract(text)
		cov := ex.Coverage
		rep.Coverage = &cov
		rep.FallbackSection = ex.FallbackUsed
		byField = extract.GroupByType(ex.Sections)
	}
	p.metrics.Run(string(rep.Mode))

	log.Debug().Str("mode", string(rep.Mode)).Int("fields", len(byField)).Msg("instances collected")

	results := p.engine.AggregateAll(ctx, byField)
	rep.Fields = fieldReports(results)
	for _, fr := range rep.Fields {
		if fr.Fallback {
			rep.Fallbacks = append(rep.Fallbacks, fr.Field)
		}
	}

	doc := p.assembler.Assemble(aggregate.Values(results))
	rep.Gated = doc.Gated
	rep.DurationMS = time.Since(start).Milliseconds()

	log.Info().
		Str("mode", string(rep.Mode)).
		Int("input_chars", rep.InputChars).
		Int("fields", len(rep.Fields)).
		Int("sections", len(doc.Sections)).
		Int("synthesis_fallbacks", len(rep.Fallbacks)).
		Int64("duration_ms", rep.DurationMS).
		Msg("normalization complete")

	return &Result{Document: doc, Report: rep}, nil
}

func fieldReports(results map[registry.SectionType]aggregate.Result) []FieldReport {
	out := make([]FieldReport, 0, len(results))
	for _, r := range results {
		out = append(out, FieldReport{
			Field:     r.Field,
			Instances: r.Instances,
			Policy:    r.Policy,
			Fallback:  r.Fallback,
			Cached:    r.Cached,
			Dropped:   len(r.Dropped),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
