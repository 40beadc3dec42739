package notes

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `Printed at VAMC
LOCAL TITLE: UROLOGY OUTPATIENT NOTE
STANDARD TITLE: UROLOGY NOTE
DATE OF NOTE: JAN 15, 2024@09:30     ENTRY DATE: JAN 15, 2024@10:02:11
CHIEF COMPLAINT: elevated PSA
PLAN: MRI prostate

LOCAL TITLE: CARDIOLOGY CLINIC NOTE
DATE OF NOTE: FEB 02, 2024@14:00
ASSESSMENT: stable angina

LOCAL TITLE: PACT NURSE NOTE
Visit Date: 03/04/2024
PRIMARY CARE NOTE - annual visit
MEDICATIONS: lisinopril 10mg daily
LOCAL TITLE: GU CLINIC FOLLOW-UP
Date of Service: sometime in spring
`

func TestClassifyNotes(t *testing.T) {
	res := NewClassifier().Classify(sampleExport)

	require.Len(t, res.Primary, 2)
	require.Len(t, res.Other, 2)
	assert.Empty(t, res.Requests)
	require.Len(t, res.Embedded, 1)

	assert.Equal(t, "UROLOGY OUTPATIENT NOTE", res.Primary[0].Title)
	assert.Equal(t, "2024-01-15", res.Primary[0].Date)
	assert.Contains(t, res.Primary[0].Content, "CHIEF COMPLAINT: elevated PSA")
	assert.NotContains(t, res.Primary[0].Content, "CARDIOLOGY")
	assert.True(t, strings.HasPrefix(res.Primary[0].Content, "LOCAL TITLE:"))

	assert.Equal(t, "GU CLINIC FOLLOW-UP", res.Primary[1].Title)
	assert.Equal(t, "sometime in spring", res.Primary[1].Date, "unparseable dates stay raw")

	assert.Equal(t, "CARDIOLOGY CLINIC NOTE", res.Other[0].Title)
	assert.Equal(t, "2024-02-02", res.Other[0].Date)
	assert.Equal(t, "2024-03-04", res.Other[1].Date)
	assert.Equal(t, KindOther, res.Other[1].Kind)

	emb := res.Embedded[0]
	assert.Equal(t, KindEmbedded, emb.Kind)
	assert.Equal(t, "PRIMARY CARE NOTE - annual visit", emb.Title)
	assert.Contains(t, emb.Content, "lisinopril")
	assert.NotContains(t, emb.Content, "GU CLINIC", "embedded note stops at the next title")

	all := res.All()
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Offset, all[i].Offset)
	}
	assert.Equal(t, 5, res.Len())
}

func TestClassifyDropsPreamble(t *testing.T) {
	res := NewClassifier().Classify("no markers anywhere in this text\nCHIEF COMPLAINT: none")
	assert.Equal(t, 0, res.Len())
}

func TestClassifyRequests(t *testing.T) {
	text := `LOCAL TITLE: ADMIN NOTE
Some unrelated admin text.
Consult Request: UROLOGY OUTPATIENT
To Service: UROLOGY OUTPT
From Service: PRIMARY CARE
Date of Request: MAR 01, 2024
Provisional Diagnosis: elevated PSA
Reason For Request: PSA 6.1, please evaluate
END OF REQUEST
Requesting Facility: VAMC
just one marker here
END OF REQUEST
To Service: UROLOGY
Reason For Request: recurrent UTI
`
	res := NewClassifier().Classify(text)

	require.Len(t, res.Requests, 2)
	r := res.Requests[0]
	assert.Equal(t, KindRequest, r.Kind)
	assert.Equal(t, "CONSULT REQUEST - UROLOGY OUTPT", r.Title)
	assert.Equal(t, "2024-03-01", r.Date)
	assert.True(t, strings.HasPrefix(r.Content, "Consult Request:"), r.Content)
	assert.NotContains(t, r.Content, "unrelated admin")

	assert.Equal(t, "CONSULT REQUEST - UROLOGY", res.Requests[1].Title)
	assert.Empty(t, res.Requests[1].Date)
	assert.Contains(t, res.Requests[1].Content, "recurrent UTI")
}

func TestClassifySingleMarkerIsNotRequest(t *testing.T) {
	res := NewClassifier().Classify("Reason For Request: something\nmore text")
	assert.Empty(t, res.Requests)
}

func TestPrimaryTitle(t *testing.T) {
	c := NewClassifier()
	tests := []struct {
		title string
		want  bool
	}{
		{"UROLOGY CONSULT", true},
		{"Urologic Oncology Note", true},
		{"GU CLINIC", true},
		{"GU", true},
		{"GENITOURINARY SURGERY", true},
		{"PRIMARY CARE NOTE", false},
		{"GUARDIAN CONTACT", false},
		{"NEUROLOGY CONSULT", false},
		{"NEUROLOGIC EXAM NOTE", false},
		{"UROL-ONC FOLLOW UP", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IsPrimaryTitle(tt.title), tt.title)
	}

	custom := NewClassifier(WithPrimaryPattern(regexp.MustCompile(`(?i)NEPHROLOGY`)))
	assert.True(t, custom.IsPrimaryTitle("NEPHROLOGY NOTE"))
	assert.False(t, custom.IsPrimaryTitle("UROLOGY NOTE"))
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"JAN 15, 2024@09:30", "2024-01-15", true},
		{"Jan 5, 2024", "2024-01-05", true},
		{"SEPTEMBER 3, 2023", "2023-09-03", true},
		{"01/15/2024", "2024-01-15", true},
		{"1/5/24", "2024-01-05", true},
		{"2024-01-15T09:30", "2024-01-15", true},
		{"unknown", "unknown", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDate(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
