// Package metrics exposes Prometheus instrumentation for the normalization
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the pipeline collectors. A nil *Recorder is valid and
// records nothing, so components can take one unconditionally.
type Recorder struct {
	SectionsTotal       *prometheus.CounterVec
	CoverageRatio       prometheus.Histogram
	FallbackSections    prometheus.Counter
	ParseFailuresTotal  *prometheus.CounterVec
	SynthesisTotal      *prometheus.CounterVec
	SynthesisDuration   prometheus.Histogram
	RunsTotal           *prometheus.CounterVec
	SynthesisCacheTotal *prometheus.CounterVec
}

// New registers the pipeline collectors with reg. Pass prometheus.NewRegistry()
// in tests to avoid duplicate registration on the default registry.
//
// Metrics:
//   - chartmerge_sections_extracted_total{type}
//   - chartmerge_extraction_coverage_ratio
//   - chartmerge_fallback_sections_total
//   - chartmerge_parse_failures_total{field}
//   - chartmerge_synthesis_total{outcome}
//   - chartmerge_synthesis_duration_seconds
//   - chartmerge_runs_total{mode}
//   - chartmerge_synthesis_cache_total{result}
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		SectionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartmerge_sections_extracted_total",
				Help: "Sections emitted by the extraction agent, by base section type",
			},
			[]string{"type"},
		),
		CoverageRatio: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartmerge_extraction_coverage_ratio",
			Help:    "Fraction of input bytes claimed by extracted sections",
			Buckets: []float64{0.1, 0.3, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
		}),
		FallbackSections: f.NewCounter(prometheus.CounterOpts{
			Name: "chartmerge_fallback_sections_total",
			Help: "Low-coverage fallback sections emitted",
		}),
		ParseFailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartmerge_parse_failures_total",
				Help: "Series lines that could not be parsed and were dropped",
			},
			[]string{"field"},
		),
		SynthesisTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartmerge_synthesis_total",
				Help: "Narrative synthesis attempts by outcome",
			},
			[]string{"outcome"}, // call, ok, fallback, cached
		),
		SynthesisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartmerge_synthesis_duration_seconds",
			Help:    "Narrator call latency",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 11),
		}),
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartmerge_runs_total",
				Help: "Normalization runs by resolved mode",
			},
			[]string{"mode"},
		),
		SynthesisCacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartmerge_synthesis_cache_total",
				Help: "Synthesis cache lookups by result",
			},
			[]string{"result"}, // hit, miss, error
		),
	}
}

// SectionExtracted counts one emitted section of the given base type.
func (r *Recorder) SectionExtracted(sectionType string) {
	if r == nil {
		return
	}
	r.SectionsTotal.WithLabelValues(sectionType).Inc()
}

// ObserveCoverage records an extraction coverage ratio.
func (r *Recorder) ObserveCoverage(ratio float64) {
	if r == nil {
		return
	}
	r.CoverageRatio.Observe(ratio)
}

// FallbackSection counts one low-coverage fallback section.
func (r *Recorder) FallbackSection() {
	if r == nil {
		return
	}
	r.FallbackSections.Inc()
}

// ParseFailure counts one dropped series line.
func (r *Recorder) ParseFailure(field string) {
	if r == nil {
		return
	}
	r.ParseFailuresTotal.WithLabelValues(field).Inc()
}

// Synthesis records a synthesis outcome and, for narrator calls, its latency.
func (r *Recorder) Synthesis(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.SynthesisTotal.WithLabelValues(outcome).Inc()
	if d > 0 {
		r.SynthesisDuration.Observe(d.Seconds())
	}
}

// Run counts one normalization run.
func (r *Recorder) Run(mode string) {
	if r == nil {
		return
	}
	r.RunsTotal.WithLabelValues(mode).Inc()
}

// CacheLookup counts one synthesis cache lookup.
func (r *Recorder) CacheLookup(result string) {
	if r == nil {
		return
	}
	r.SynthesisCacheTotal.WithLabelValues(result).Inc()
}
