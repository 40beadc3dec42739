package fields

import (
	"github.com/hurttlocker/chartmerge/internal/notes"
	"github.com/hurttlocker/chartmerge/internal/registry"
)

// Instance is one field value found in one note.
type Instance struct {
	NoteIndex int                  `json:"note_index"`
	Field     registry.SectionType `json:"field"`
	Value     string               `json:"value"`
}

// Extractor pulls one field out of a note.
type Extractor func(text string) string

// Spec binds a field to its extractor and the note kinds it runs on.
type Spec struct {
	Field   registry.SectionType
	Extract Extractor
	Kinds   []notes.Kind

	fromDoc func(*doc) string
}

// Accepts reports whether the spec runs on notes of kind k.
func (s Spec) Accepts(k notes.Kind) bool {
	for _, kk := range s.Kinds {
		if kk == k {
			return true
		}
	}
	return false
}

var (
	kindsGU       = []notes.Kind{notes.KindPrimary}
	kindsRequest  = []notes.Kind{notes.KindRequest}
	kindsClinical = []notes.Kind{notes.KindPrimary, notes.KindOther, notes.KindEmbedded}
	kindsAny      = []notes.Kind{notes.KindPrimary, notes.KindOther, notes.KindRequest, notes.KindEmbedded}
)

func labelSpec(t registry.SectionType, ex Extractor, kinds []notes.Kind) Spec {
	return Spec{Field: t, Extract: ex, Kinds: kinds, fromDoc: func(d *doc) string { return d.field(t) }}
}

func curveSpec(t registry.SectionType, ex Extractor) Spec {
	return Spec{Field: t, Extract: ex, Kinds: kindsAny, fromDoc: func(d *doc) string { return d.curve(t) }}
}

var specs = []Spec{
	labelSpec(registry.PatientDemographics, ExtractPatientDemographics, kindsClinical),
	labelSpec(registry.ReasonForRequest, ExtractReasonForRequest, kindsRequest),
	labelSpec(registry.ProvisionalDiagnosis, ExtractProvisionalDiagnosis, kindsRequest),
	labelSpec(registry.ChiefComplaint, ExtractChiefComplaint, kindsGU),
	labelSpec(registry.HistoryPresentIllness, ExtractHistoryPresentIllness, kindsGU),
	labelSpec(registry.GUHistory, ExtractGUHistory, kindsClinical),
	{Field: registry.PastMedicalHistory, Extract: ExtractPastMedicalHistory, Kinds: kindsClinical, fromDoc: pastMedicalHistory},
	labelSpec(registry.PastSurgicalHistory, ExtractPastSurgicalHistory, kindsClinical),
	labelSpec(registry.Disabilities, ExtractDisabilities, kindsClinical),
	labelSpec(registry.SocialHistory, ExtractSocialHistory, kindsClinical),
	labelSpec(registry.FamilyHistory, ExtractFamilyHistory, kindsClinical),
	labelSpec(registry.Allergies, ExtractAllergies, kindsClinical),
	labelSpec(registry.Medications, ExtractMedications, kindsClinical),
	labelSpec(registry.HormoneTherapy, ExtractHormoneTherapy, kindsClinical),
	labelSpec(registry.Immunizations, ExtractImmunizations, kindsClinical),
	labelSpec(registry.ReviewOfSystems, ExtractReviewOfSystems, kindsGU),
	labelSpec(registry.VitalSigns, ExtractVitalSigns, kindsClinical),
	labelSpec(registry.PhysicalExam, ExtractPhysicalExam, kindsGU),
	labelSpec(registry.GUExam, ExtractGUExam, kindsGU),
	labelSpec(registry.IPSSScore, ExtractIPSS, kindsGU),
	labelSpec(registry.SHIMScore, ExtractSHIM, kindsGU),
	curveSpec(registry.PSACurve, ExtractPSACurve),
	curveSpec(registry.TestosteroneCurve, ExtractTestosteroneCurve),
	curveSpec(registry.CreatinineCurve, ExtractCreatinineCurve),
	curveSpec(registry.EGFRCurve, ExtractEGFRCurve),
	labelSpec(registry.Urinalysis, ExtractUrinalysis, kindsClinical),
	labelSpec(registry.UrineCulture, ExtractUrineCulture, kindsClinical),
	labelSpec(registry.Labs, ExtractLabs, kindsClinical),
	labelSpec(registry.PostVoidResidual, ExtractPostVoidResidual, kindsGU),
	labelSpec(registry.Urodynamics, ExtractUrodynamics, kindsGU),
	labelSpec(registry.Cystoscopy, ExtractCystoscopy, kindsGU),
	labelSpec(registry.Imaging, ExtractImaging, kindsClinical),
	labelSpec(registry.Pathology, ExtractPathology, kindsClinical),
	labelSpec(registry.OncologyStaging, ExtractOncologyStaging, kindsClinical),
	labelSpec(registry.RadiationHistory, ExtractRadiationHistory, kindsClinical),
	labelSpec(registry.StoneHistory, ExtractStoneHistory, kindsGU),
	labelSpec(registry.StoneAnalysis, ExtractStoneAnalysis, kindsClinical),
	labelSpec(registry.Procedures, ExtractProcedures, kindsClinical),
	labelSpec(registry.CatheterHistory, ExtractCatheterHistory, kindsGU),
	labelSpec(registry.ProblemList, ExtractProblemList, kindsClinical),
	labelSpec(registry.Assessment, ExtractAssessment, kindsGU),
	labelSpec(registry.Plan, ExtractPlan, kindsGU),
	labelSpec(registry.FollowUp, ExtractFollowUp, kindsGU),
	labelSpec(registry.CodeStatus, ExtractCodeStatus, kindsClinical),
}

// Specs returns every field spec in display order.
func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// ExtractAll runs the built-in registry's extractors on every note.
func ExtractAll(all []notes.Note) []Instance {
	return defaultSet.ExtractAll(all)
}

// ExtractAll runs every applicable extractor on every note. Fields missing
// from the set's registry are skipped. Indexes refer to positions in all.
// Empty values are not reported.
func (set *Set) ExtractAll(all []notes.Note) []Instance {
	var out []Instance
	for i, n := range all {
		d := set.newDoc(n.Content)
		for _, s := range specs {
			if !s.Accepts(n.Kind) {
				continue
			}
			if _, ok := set.reg.Lookup(s.Field); !ok {
				continue
			}
			if v := s.fromDoc(d); v != "" {
				out = append(out, Instance{NoteIndex: i, Field: s.Field, Value: v})
			}
		}
	}
	return out
}

// Group collects instance values per field, keeping note order.
func Group(instances []Instance) map[registry.SectionType][]string {
	out := make(map[registry.SectionType][]string)
	for _, in := range instances {
		out[in.Field] = append(out[in.Field], in.Value)
	}
	return out
}
