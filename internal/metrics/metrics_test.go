package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.SectionExtracted("plan")
		r.ObserveCoverage(0.5)
		r.FallbackSection()
		r.ParseFailure("psa_curve")
		r.Synthesis("ok", time.Second)
		r.Run("auto")
		r.CacheLookup("hit")
	})
}

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.SectionExtracted("plan")
	r.SectionExtracted("plan")
	r.ParseFailure("psa_curve")
	r.Synthesis("fallback", 0)
	r.Run("notes")
	r.FallbackSection()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.SectionsTotal.WithLabelValues("plan")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ParseFailuresTotal.WithLabelValues("psa_curve")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SynthesisTotal.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal.WithLabelValues("notes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FallbackSections))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
