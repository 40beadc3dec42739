// Package aggregate merges repeated instances of a field into one canonical
// value.
//
// Every field has a fixed merge policy: numeric series are parsed,
// de-duplicated and re-rendered, lists are de-duplicated line by line, some
// fields keep one representative instance, and narrative fields are merged
// by an external narrator with a visible fallback when it is unavailable.
package aggregate

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hurttlocker/chartmerge/internal/metrics"
	"github.com/hurttlocker/chartmerge/internal/registry"
	"github.com/hurttlocker/chartmerge/internal/synthcache"
)

// Defaults for Engine.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultTemperature = 0.2
	DefaultParallelism = 4
)

// Result is the merged value of one field.
type Result struct {
	Field     registry.SectionType `json:"field"`
	Value     string               `json:"value"`
	Policy    string               `json:"policy"`
	Instances int                  `json:"instances"`
	Fallback  bool                 `json:"fallback,omitempty"`
	Cached    bool                 `json:"cached,omitempty"`
	Dropped   []string             `json:"dropped,omitempty"`
}

// PolicyIdentity names results that needed no merge.
const PolicyIdentity = "identity"

// Engine applies merge policies. It is safe for concurrent use.
type Engine struct {
	narrator    Narrator
	cache       Cache
	timeout     time.Duration
	temperature float64
	parallelism int
	log         zerolog.Logger
	metrics     *metrics.Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithNarrator sets the narrator used by synthesis fields.
func WithNarrator(n Narrator) Option {
	return func(e *Engine) { e.narrator = n }
}

// WithCache sets the synthesis cache.
func WithCache(c Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithTimeout bounds each narrator call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithTemperature sets the narrator sampling temperature.
func WithTemperature(t float64) Option {
	return func(e *Engine) { e.temperature = t }
}

// WithParallelism caps concurrent field merges in AggregateAll.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine. Without a narrator every synthesis field
// takes the fallback path.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeout:     DefaultTimeout,
		temperature: DefaultTemperature,
		parallelism: DefaultParallelism,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Aggregate merges the instances of one field.
//
// A single instance is returned verbatim. Otherwise blank instances are
// dropped; if none remain the value is empty and if one remains it is
// returned as is. Only two or more non-blank instances reach the policy.
func (e *Engine) Aggregate(ctx context.Context, field registry.SectionType, instances []string) Result {
	res := Result{Field: field, Instances: len(instances), Policy: PolicyIdentity}
	if len(instances) == 1 {
		res.Value = instances[0]
		return res
	}

	var kept []string
	for _, in := range instances {
		if strings.TrimSpace(in) != "" {
			kept = append(kept, in)
		}
	}
	switch len(kept) {
	case 0:
		return res
	case 1:
		res.Value = kept[0]
		return res
	}

	p, _ := PolicyFor(field)
	res.Policy = p.Name()

	switch p := p.(type) {
	case SeriesPolicy:
		merged := mergeSeries(p, kept)
		for _, line := range merged.unparsed {
			e.log.Warn().Str("field", string(field)).Str("line", line).Msg("dropping unparsed series line")
			e.metrics.ParseFailure(string(field))
		}
		res.Value = strings.Join(merged.lines, "\n")
		res.Dropped = merged.unparsed
	case ListPolicy:
		res.Value = mergeList(kept)
	case SelectPolicy:
		res.Value = selectOne(p.Rule, kept)
	case SynthesisPolicy:
		res.Value, res.Fallback, res.Cached = e.synthesizeCached(ctx, field, p, kept)
	}
	return res
}

func (e *Engine) synthesizeCached(ctx context.Context, field registry.SectionType, p SynthesisPolicy, kept []string) (value string, fallback, cached bool) {
	var key string
	if e.cache != nil {
		key = synthcache.Key(synthcache.Scope{
			Field:        string(field),
			Narrator:     narratorName(e.narrator),
			Instructions: p.Instructions,
		}, kept)
		v, ok, err := e.cache.Get(ctx, key)
		switch {
		case err != nil:
			e.log.Warn().Err(err).Str("field", string(field)).Msg("synthesis cache read failed")
			e.metrics.CacheLookup("error")
		case ok:
			e.metrics.CacheLookup("hit")
			e.metrics.Synthesis("cached", 0)
			return v, false, true
		default:
			e.metrics.CacheLookup("miss")
		}
	}

	out, err := e.synthesize(ctx, field, p, kept)
	if err != nil {
		e.log.Warn().Err(err).Str("field", string(field)).Int("instances", len(kept)).Msg("narrative synthesis failed, using concatenation")
		e.metrics.Synthesis("fallback", 0)
		return fallbackText(kept), true, false
	}
	e.metrics.Synthesis("ok", 0)

	if e.cache != nil {
		if err := e.cache.Put(ctx, key, string(field), out); err != nil {
			e.log.Warn().Err(err).Str("field", string(field)).Msg("synthesis cache write failed")
		}
	}
	return out, false, false
}

// AggregateAll merges every field concurrently. Results are keyed by field,
// so the output does not depend on scheduling.
func (e *Engine) AggregateAll(ctx context.Context, byField map[registry.SectionType][]string) map[registry.SectionType]Result {
	fieldNames := make([]registry.SectionType, 0, len(byField))
	for f := range byField {
		fieldNames = append(fieldNames, f)
	}
	sort.Slice(fieldNames, func(i, j int) bool { return fieldNames[i] < fieldNames[j] })

	results := make([]Result, len(fieldNames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, f := range fieldNames {
		g.Go(func() error {
			results[i] = e.Aggregate(gctx, f, byField[f])
			return nil
		})
	}
	_ = g.Wait() // Aggregate never fails; errors degrade to fallbacks.

	out := make(map[registry.SectionType]Result, len(results))
	for _, r := range results {
		out[r.Field] = r
	}
	return out
}

// Values flattens results into field values.
func Values(results map[registry.SectionType]Result) map[registry.SectionType]string {
	out := make(map[registry.SectionType]string, len(results))
	for f, r := range results {
		out[f] = r.Value
	}
	return out
}

// narratorName returns the narrator's name when it reports one.
func narratorName(n Narrator) string {
	if named, ok := n.(interface{ Name() string }); ok {
		return named.Name()
	}
	return ""
}
