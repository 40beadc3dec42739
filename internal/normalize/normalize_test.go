package normalize

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurttlocker/chartmerge/internal/aggregate"
	"github.com/hurttlocker/chartmerge/internal/metrics"
	"github.com/hurttlocker/chartmerge/internal/notes"
	"github.com/hurttlocker/chartmerge/internal/registry"
)

const twoVisitChart = "LOCAL TITLE: UROLOGY OUTPATIENT NOTE\r\n" +
	"DATE OF NOTE: JAN 15, 2024@09:30\r\n" +
	"CHIEF COMPLAINT: elevated PSA\r\n" +
	"MEDICATIONS:\r\n1. tamsulosin 0.4mg daily\r\n" +
	"PSA TREND:\r\n[r] Jan 01, 2024 0900    3.0\r\n[r] Feb 01, 2024 0900    5.0\r\n" +
	"ASSESSMENT: rising PSA\r\n" +
	"PLAN: MRI prostate\r\n" +
	"\r\n" +
	"LOCAL TITLE: UROLOGY FOLLOW-UP\r\n" +
	"DATE OF NOTE: MAR 20, 2024@10:00\r\n" +
	"CHIEF COMPLAINT: follow-up of MRI\r\n" +
	"MEDICATIONS:\r\n- Tamsulosin 0.4mg daily\r\n- finasteride 5mg daily\r\n" +
	"PSA TREND:\r\n[r] Feb 01, 2024 09:00    5.0\r\n[r] Mar 01, 2024 0900    6.1\r\n" +
	"ASSESSMENT: PI-RADS 4 lesion\r\n" +
	"PLAN: fusion biopsy\r\n"

func newPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(registry.Default(), opts...)
	require.NoError(t, err)
	return p
}

func TestRunNotesMode(t *testing.T) {
	res, err := newPipeline(t).Run(context.Background(), twoVisitChart)
	require.NoError(t, err)

	rep := res.Report
	assert.Equal(t, ModeNotes, rep.Mode)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 2, rep.Notes[notes.KindPrimary])
	assert.Nil(t, rep.Coverage)
	assert.ElementsMatch(t, []registry.SectionType{registry.Assessment, registry.Plan}, rep.Fallbacks)

	text := res.Document.Text
	assert.NotContains(t, text, "\r")
	assert.Contains(t, text, "CHIEF COMPLAINT:\nelevated PSA\n")
	assert.Contains(t, text, "MEDICATIONS:\ntamsulosin 0.4mg daily\nfinasteride 5mg daily\n")
	assert.Contains(t, text, "PSA TREND:\n"+
		"[r] Mar 01, 2024 09:00    6.1 H\n"+
		"[r] Feb 01, 2024 09:00    5.0 H\n"+
		"[r] Jan 01, 2024 09:00    3.0\n")
	assert.Contains(t, text, "PLAN:\n"+aggregate.FallbackMarker+"\nMRI prostate\n---\nfusion biopsy\n")
	assert.Contains(t, text, "HISTORY OF PRESENT ILLNESS:\nNot documented.")

	var psa FieldReport
	for _, f := range rep.Fields {
		if f.Field == registry.PSACurve {
			psa = f
		}
	}
	assert.Equal(t, 2, psa.Instances)
	assert.Equal(t, "series", psa.Policy)
}

func TestRunSectionsMode(t *testing.T) {
	text := "CHIEF COMPLAINT: gross hematuria for two weeks\n" +
		"PLAN: CT urogram and cystoscopy next month\n"
	res, err := newPipeline(t).Run(context.Background(), text)
	require.NoError(t, err)

	rep := res.Report
	assert.Equal(t, ModeSections, rep.Mode)
	require.NotNil(t, rep.Coverage)
	assert.Greater(t, *rep.Coverage, 0.7)
	assert.False(t, rep.FallbackSection)
	assert.Contains(t, res.Document.Text, "CHIEF COMPLAINT:\ngross hematuria for two weeks\n")
	assert.Contains(t, res.Document.Text, "PLAN:\nCT urogram and cystoscopy next month\n")
}

func TestRunForcedModes(t *testing.T) {
	p := newPipeline(t)

	res, err := p.RunMode(context.Background(), twoVisitChart, ModeSections)
	require.NoError(t, err)
	assert.Equal(t, ModeSections, res.Report.Mode)

	res, err = p.RunMode(context.Background(), "CHIEF COMPLAINT: no note titles here at all", ModeNotes)
	require.NoError(t, err)
	assert.Equal(t, ModeNotes, res.Report.Mode)
	assert.Contains(t, res.Document.Text, "CHIEF COMPLAINT:\nNot documented.")
}

func TestRunEmptyInput(t *testing.T) {
	res, err := newPipeline(t).Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, ModeSections, res.Report.Mode)
	require.NotNil(t, res.Report.Coverage)
	assert.Zero(t, *res.Report.Coverage)
	for _, s := range res.Document.Sections {
		assert.True(t, s.Placeholder, s.Type)
	}
}

func TestRunDeterministic(t *testing.T) {
	p := newPipeline(t, WithAggregateOptions(aggregate.WithParallelism(8)))
	first, err := p.Run(context.Background(), twoVisitChart)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := p.Run(context.Background(), twoVisitChart)
		require.NoError(t, err)
		assert.Equal(t, first.Document, again.Document)
		assert.Equal(t, first.Report.Fields, again.Report.Fields)
	}
}

func TestRunErrors(t *testing.T) {
	p := newPipeline(t)

	_, err := p.RunMode(context.Background(), "x", "bogus")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, twoVisitChart)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = New(registry.Default(), WithMode("bogus"))
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAuto, "auto": ModeAuto, "notes": ModeNotes, "sections": ModeSections} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("Notes")
	assert.Error(t, err)
}

func TestRunRecordsMetrics(t *testing.T) {
	rec := metrics.New(prometheus.NewRegistry())
	p := newPipeline(t, WithMetrics(rec))

	_, err := p.Run(context.Background(), twoVisitChart)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), strings.Repeat("unlabelled narrative text. ", 20))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.RunsTotal.WithLabelValues("notes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.RunsTotal.WithLabelValues("sections")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.FallbackSections))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.SynthesisTotal.WithLabelValues("fallback")))
}

func TestRunIgnoresNeurologyNotes(t *testing.T) {
	text := "LOCAL TITLE: NEUROLOGY CONSULT\n" +
		"DATE OF NOTE: JAN 10, 2024@08:00\n" +
		"CHIEF COMPLAINT: migraine headaches\n" +
		"PLAN: start topiramate 25mg\n" +
		"\n" +
		"LOCAL TITLE: UROLOGY OUTPATIENT NOTE\n" +
		"DATE OF NOTE: JAN 15, 2024@09:30\n" +
		"CHIEF COMPLAINT: elevated PSA\n" +
		"PLAN: MRI prostate\n"

	res, err := newPipeline(t).Run(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Report.Notes[notes.KindPrimary])
	assert.Equal(t, 1, res.Report.Notes[notes.KindOther])
	assert.Contains(t, res.Document.Text, "CHIEF COMPLAINT:\nelevated PSA\n")
	assert.Contains(t, res.Document.Text, "PLAN:\nMRI prostate\n")
	assert.NotContains(t, res.Document.Text, "migraine")
	assert.NotContains(t, res.Document.Text, "topiramate")
}

func TestRunNotesModeUsesPipelineRegistry(t *testing.T) {
	reg, err := registry.New("custom", []registry.Entry{
		{Type: registry.ChiefComplaint, Label: "REASON FOR VISIT", DisplayOrder: 10, Required: true, Patterns: []string{`^[ \t]*REASON FOR VISIT[ \t]*:`}},
		{Type: registry.Plan, Label: "PLAN", DisplayOrder: 20, Required: true, Patterns: []string{`^[ \t]*PLAN[ \t]*:`}},
	})
	require.NoError(t, err)
	p, err := New(reg)
	require.NoError(t, err)

	text := "LOCAL TITLE: UROLOGY OUTPATIENT NOTE\n" +
		"REASON FOR VISIT: weak urinary stream\n" +
		"PLAN: uroflowmetry\n"
	res, err := p.RunMode(context.Background(), text, ModeNotes)
	require.NoError(t, err)
	assert.Contains(t, res.Document.Text, "REASON FOR VISIT:\nweak urinary stream\n")
	assert.Contains(t, res.Document.Text, "PLAN:\nuroflowmetry\n")
}
