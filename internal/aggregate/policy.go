package aggregate

import (
	"fmt"

	"github.com/hurttlocker/chartmerge/internal/registry"
)

// Policy decides how repeated instances of one field are merged. The set of
// policies is closed: SeriesPolicy, ListPolicy, SelectPolicy and
// SynthesisPolicy.
type Policy interface {
	Name() string
	policy()
}

// Threshold flags a series value as abnormal.
type Threshold struct {
	Limit float64
	Above bool   // flag values strictly above Limit, else strictly below
	Flag  string // "H" or "L"
}

// FlagFor returns the abnormal flag for v, or "".
func (t Threshold) FlagFor(v float64) string {
	if t.Flag == "" {
		return ""
	}
	if t.Above && v > t.Limit {
		return t.Flag
	}
	if !t.Above && v < t.Limit {
		return t.Flag
	}
	return ""
}

// SeriesPolicy merges dated numeric lab lines into one curve.
type SeriesPolicy struct {
	Analyte   string
	Threshold Threshold
}

// ListPolicy merges line lists with case-insensitive de-duplication.
type ListPolicy struct{}

// SelectRule picks one representative instance.
type SelectRule int

const (
	Longest SelectRule = iota
	First
	Last
)

func (r SelectRule) String() string {
	switch r {
	case Longest:
		return "longest"
	case First:
		return "first"
	case Last:
		return "last"
	default:
		return fmt.Sprintf("SelectRule(%d)", int(r))
	}
}

// SelectPolicy keeps one instance chosen by Rule.
type SelectPolicy struct {
	Rule SelectRule
}

// SynthesisPolicy merges free text through the narrator.
type SynthesisPolicy struct {
	Instructions string
}

func (SeriesPolicy) Name() string    { return "series" }
func (ListPolicy) Name() string      { return "list" }
func (p SelectPolicy) Name() string  { return "select_" + p.Rule.String() }
func (SynthesisPolicy) Name() string { return "synthesis" }

func (SeriesPolicy) policy()    {}
func (ListPolicy) policy()      {}
func (SelectPolicy) policy()    {}
func (SynthesisPolicy) policy() {}

const (
	assessmentInstructions = "Merge these urology assessments into one concise assessment. " +
		"Keep every distinct diagnosis, preserve stated values and dates, and do not add findings that are not present."
	planInstructions = "Merge these urology plans into one plan, most recent first. " +
		"Keep every distinct order, procedure and follow-up interval. Do not invent new actions."
	imagingInstructions = "Merge these imaging reports into one chronological summary, one study per line with its date and key findings. " +
		"Do not interpret beyond what the reports state."
)

// policies is the fixed per-field merge table.
var policies = map[registry.SectionType]Policy{
	registry.PatientDemographics:   SelectPolicy{Rule: First},
	registry.ReasonForRequest:      SelectPolicy{Rule: First},
	registry.ProvisionalDiagnosis:  ListPolicy{},
	registry.ChiefComplaint:        SelectPolicy{Rule: First},
	registry.HistoryPresentIllness: SelectPolicy{Rule: Longest},
	registry.GUHistory:             SelectPolicy{Rule: Longest},
	registry.PastMedicalHistory:    ListPolicy{},
	registry.PastSurgicalHistory:   ListPolicy{},
	registry.Disabilities:          ListPolicy{},
	registry.SocialHistory:         SelectPolicy{Rule: Longest},
	registry.FamilyHistory:         SelectPolicy{Rule: Longest},
	registry.Allergies:             ListPolicy{},
	registry.Medications:           ListPolicy{},
	registry.HormoneTherapy:        ListPolicy{},
	registry.Immunizations:         ListPolicy{},
	registry.ReviewOfSystems:       SelectPolicy{Rule: Last},
	registry.VitalSigns:            SelectPolicy{Rule: Last},
	registry.PhysicalExam:          SelectPolicy{Rule: Last},
	registry.GUExam:                SelectPolicy{Rule: Last},
	registry.IPSSScore:             SelectPolicy{Rule: Last},
	registry.SHIMScore:             SelectPolicy{Rule: Last},
	registry.PSACurve:              SeriesPolicy{Analyte: "PSA", Threshold: Threshold{Limit: 4.0, Above: true, Flag: "H"}},
	registry.TestosteroneCurve:     SeriesPolicy{Analyte: "testosterone", Threshold: Threshold{Limit: 300, Flag: "L"}},
	registry.CreatinineCurve:       SeriesPolicy{Analyte: "creatinine", Threshold: Threshold{Limit: 1.3, Above: true, Flag: "H"}},
	registry.EGFRCurve:             SeriesPolicy{Analyte: "eGFR", Threshold: Threshold{Limit: 60, Flag: "L"}},
	registry.Urinalysis:            SelectPolicy{Rule: Last},
	registry.UrineCulture:          SelectPolicy{Rule: Last},
	registry.Labs:                  SelectPolicy{Rule: Last},
	registry.PostVoidResidual:      SelectPolicy{Rule: Last},
	registry.Urodynamics:           SelectPolicy{Rule: Longest},
	registry.Cystoscopy:            SelectPolicy{Rule: Longest},
	registry.Imaging:               SynthesisPolicy{Instructions: imagingInstructions},
	registry.Pathology:             SelectPolicy{Rule: Longest},
	registry.OncologyStaging:       SelectPolicy{Rule: Longest},
	registry.RadiationHistory:      SelectPolicy{Rule: Longest},
	registry.StoneHistory:          SelectPolicy{Rule: Longest},
	registry.StoneAnalysis:         SelectPolicy{Rule: Last},
	registry.Procedures:            ListPolicy{},
	registry.CatheterHistory:       SelectPolicy{Rule: Last},
	registry.ProblemList:           ListPolicy{},
	registry.Assessment:            SynthesisPolicy{Instructions: assessmentInstructions},
	registry.Plan:                  SynthesisPolicy{Instructions: planInstructions},
	registry.FollowUp:              SelectPolicy{Rule: Last},
	registry.CodeStatus:            SelectPolicy{Rule: Last},
	registry.OtherClinicalData:     SelectPolicy{Rule: Longest},
}

// defaultPolicy applies to fields missing from the table (custom registries).
var defaultPolicy Policy = SelectPolicy{Rule: Longest}

// PolicyFor returns the merge policy of a field and whether it was listed
// explicitly.
func PolicyFor(field registry.SectionType) (Policy, bool) {
	p, ok := policies[field]
	if !ok {
		return defaultPolicy, false
	}
	return p, true
}
