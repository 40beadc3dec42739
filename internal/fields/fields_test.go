package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurttlocker/chartmerge/internal/notes"
	"github.com/hurttlocker/chartmerge/internal/registry"
)

const guNote = `LOCAL TITLE: UROLOGY OUTPATIENT NOTE
DATE OF NOTE: JAN 15, 2024@09:30
CHIEF COMPLAINT: elevated PSA
HISTORY OF PRESENT ILLNESS:
68 year old veteran referred for rising PSA.
No hematuria.
MEDICATIONS:
1. tamsulosin 0.4mg daily
2. finasteride 5mg daily
ALLERGIES: penicillin (rash)
PSA TREND:
[r] Jan 01, 2024 0900    3.0
[r] Feb 01, 2024 0900    5.0
ASSESSMENT: rising PSA, suspect BPH vs prostate cancer
PLAN: MRI prostate then fusion biopsy
-----
/es/ DR SMITH
`

func TestLabelExtractors(t *testing.T) {
	tests := []struct {
		name string
		fn   Extractor
		want string
	}{
		{"chief complaint", ExtractChiefComplaint, "elevated PSA"},
		{"hpi", ExtractHistoryPresentIllness, "68 year old veteran referred for rising PSA.\nNo hematuria."},
		{"medications", ExtractMedications, "1. tamsulosin 0.4mg daily\n2. finasteride 5mg daily"},
		{"allergies", ExtractAllergies, "penicillin (rash)"},
		{"psa", ExtractPSACurve, "[r] Jan 01, 2024 0900    3.0\n[r] Feb 01, 2024 0900    5.0"},
		{"assessment", ExtractAssessment, "rising PSA, suspect BPH vs prostate cancer"},
		{"plan stops at rule", ExtractPlan, "MRI prostate then fusion biopsy"},
		{"missing field", ExtractSocialHistory, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(guNote))
		})
	}
}

func TestFallbackLabels(t *testing.T) {
	assert.Equal(t, "urinary retention", ExtractChiefComplaint("PRESENTING PROBLEM: urinary retention\nPLAN: foley"))
	assert.Equal(t, "CT urogram negative", ExtractImaging("CT UROGRAM: CT urogram negative\nPLAN: observe"))
	assert.Equal(t, "TURP", ExtractPlan("TREATMENT PLAN: TURP\nFOLLOW-UP: 6 weeks"))
}

func TestPrimaryLabelWinsOverFallback(t *testing.T) {
	text := "PRESENTING PROBLEM: from fallback\nCC: from primary\n"
	assert.Equal(t, "from primary", ExtractChiefComplaint(text))
}

func TestCurveFallsBackToAnalyteLines(t *testing.T) {
	text := "LABS REVIEWED\nPSA (SCREEN)   01/15/2024  4.5 H\nCREATININE  01/15/2024  1.1\nPSA screening discussed\nTOTAL PSA 03/01/2024 5.2\n"
	assert.Equal(t, "01/15/2024  4.5 H\n03/01/2024 5.2", ExtractPSACurve(text))
	assert.Equal(t, "01/15/2024  1.1", ExtractCreatinineCurve(text))
	assert.Equal(t, "", ExtractTestosteroneCurve(text))
}

func TestPastMedicalHistoryFallsBackToDisabilities(t *testing.T) {
	text := "Rated Disabilities: TINNITUS 10% SC\n   PROSTATE CANCER (100%)\n   SC Percent: 100%\nPLAN: continue surveillance"
	assert.Equal(t, "- TINNITUS (10%)\n- PROSTATE CANCER (100%)", ExtractPastMedicalHistory(text))

	withPMH := "PAST MEDICAL HISTORY: HTN, DM2\nRated Disabilities: TINNITUS 10% SC\n"
	assert.Equal(t, "HTN, DM2", ExtractPastMedicalHistory(withPMH))

	assert.Equal(t, "", ExtractPastMedicalHistory("PLAN: nothing here"))
}

func TestRequestFieldsStopAtRequestLabels(t *testing.T) {
	text := "Reason For Request: PSA 6.1, please evaluate\nTo Service: UROLOGY\nProvisional Diagnosis: elevated PSA\nUrgency: Routine"
	assert.Equal(t, "PSA 6.1, please evaluate", ExtractReasonForRequest(text))
	assert.Equal(t, "elevated PSA", ExtractProvisionalDiagnosis(text))
}

func TestSpecsCoverRegistryInOrder(t *testing.T) {
	entries := registry.Default().Entries()
	got := Specs()
	require.Len(t, got, len(entries))
	for i, e := range entries {
		assert.Equal(t, e.Type, got[i].Field)
		assert.NotNil(t, got[i].Extract, e.Type)
		assert.NotEmpty(t, got[i].Kinds, e.Type)
	}
}

func TestExtractAllRespectsKinds(t *testing.T) {
	all := []notes.Note{
		{Kind: notes.KindPrimary, Content: guNote},
		{Kind: notes.KindOther, Content: "LOCAL TITLE: CARDIOLOGY\nCHIEF COMPLAINT: chest pain\nMEDICATIONS: aspirin 81mg daily"},
		{Kind: notes.KindRequest, Content: "Reason For Request: rising PSA\nTo Service: UROLOGY"},
	}
	got := ExtractAll(all)
	byField := Group(got)

	assert.Equal(t, []string{"elevated PSA"}, byField[registry.ChiefComplaint], "chief complaint only from GU notes")
	assert.Len(t, byField[registry.Medications], 2)
	assert.Equal(t, []string{"rising PSA"}, byField[registry.ReasonForRequest])

	for _, in := range got {
		assert.NotEmpty(t, in.Value)
		if in.Field == registry.ReasonForRequest {
			assert.Equal(t, 2, in.NoteIndex)
		}
	}
}

func TestSetUsesItsRegistry(t *testing.T) {
	reg, err := registry.New("custom", []registry.Entry{
		{Type: registry.ChiefComplaint, Label: "CHIEF COMPLAINT", DisplayOrder: 10, Patterns: []string{`^[ \t]*REASON FOR VISIT[ \t]*:`}},
		{Type: registry.Plan, Label: "PLAN", DisplayOrder: 20, Patterns: []string{`^[ \t]*PLAN[ \t]*:`}},
	})
	require.NoError(t, err)

	note := notes.Note{Kind: notes.KindPrimary, Content: "MEDICATIONS: tamsulosin\nREASON FOR VISIT: weak stream\nPLAN: uroflow\n"}
	byField := Group(New(reg).ExtractAll([]notes.Note{note}))

	assert.Equal(t, []string{"weak stream"}, byField[registry.ChiefComplaint])
	assert.Equal(t, []string{"uroflow"}, byField[registry.Plan])
	assert.NotContains(t, byField, registry.Medications, "fields outside the registry are skipped")

	assert.Empty(t, ExtractChiefComplaint(note.Content), "package extractors keep the built-in labels")
}
