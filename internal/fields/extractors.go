package fields

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hurttlocker/chartmerge/internal/registry"
)

// ExtractPatientDemographics returns the PATIENT DEMOGRAPHICS block of a note.
func ExtractPatientDemographics(text string) string {
	return newDoc(text).field(registry.PatientDemographics)
}

// ExtractReasonForRequest returns the REASON FOR REQUEST block of a note.
func ExtractReasonForRequest(text string) string {
	return newDoc(text).field(registry.ReasonForRequest)
}

// ExtractProvisionalDiagnosis returns the PROVISIONAL DIAGNOSIS block of a note.
func ExtractProvisionalDiagnosis(text string) string {
	return newDoc(text).field(registry.ProvisionalDiagnosis)
}

// ExtractChiefComplaint returns the CHIEF COMPLAINT block of a note, falling back to PRESENTING PROBLEM.
func ExtractChiefComplaint(text string) string {
	return newDoc(text).field(registry.ChiefComplaint)
}

// ExtractHistoryPresentIllness returns the HISTORY OF PRESENT ILLNESS block of a note, falling back to SUBJECTIVE.
func ExtractHistoryPresentIllness(text string) string {
	return newDoc(text).field(registry.HistoryPresentIllness)
}

// ExtractGUHistory returns the UROLOGIC HISTORY block of a note.
func ExtractGUHistory(text string) string {
	return newDoc(text).field(registry.GUHistory)
}

// ExtractPastMedicalHistory returns the past medical history block. When the
// note has no history label, the rated disabilities block is used instead,
// rewritten as "- condition (NN%)" lines.
func ExtractPastMedicalHistory(text string) string {
	return pastMedicalHistory(newDoc(text))
}

func pastMedicalHistory(d *doc) string {
	if v := d.field(registry.PastMedicalHistory); v != "" {
		return v
	}
	return disabilitiesAsHistory(d.field(registry.Disabilities))
}

// ExtractPastSurgicalHistory returns the PAST SURGICAL HISTORY block of a note.
func ExtractPastSurgicalHistory(text string) string {
	return newDoc(text).field(registry.PastSurgicalHistory)
}

// ExtractDisabilities returns the RATED DISABILITIES block of a note.
func ExtractDisabilities(text string) string {
	return newDoc(text).field(registry.Disabilities)
}

// ExtractSocialHistory returns the SOCIAL HISTORY block of a note.
func ExtractSocialHistory(text string) string {
	return newDoc(text).field(registry.SocialHistory)
}

// ExtractFamilyHistory returns the FAMILY HISTORY block of a note.
func ExtractFamilyHistory(text string) string {
	return newDoc(text).field(registry.FamilyHistory)
}

// ExtractAllergies returns the ALLERGIES block of a note, falling back to DRUG ALLERGIES.
func ExtractAllergies(text string) string {
	return newDoc(text).field(registry.Allergies)
}

// ExtractMedications returns the MEDICATIONS block of a note, falling back to HOME MEDICATIONS.
func ExtractMedications(text string) string {
	return newDoc(text).field(registry.Medications)
}

// ExtractHormoneTherapy returns the HORMONE THERAPY block of a note.
func ExtractHormoneTherapy(text string) string {
	return newDoc(text).field(registry.HormoneTherapy)
}

// ExtractImmunizations returns the IMMUNIZATIONS block of a note.
func ExtractImmunizations(text string) string {
	return newDoc(text).field(registry.Immunizations)
}

// ExtractReviewOfSystems returns the REVIEW OF SYSTEMS block of a note.
func ExtractReviewOfSystems(text string) string {
	return newDoc(text).field(registry.ReviewOfSystems)
}

// ExtractVitalSigns returns the VITAL SIGNS block of a note, falling back to VS.
func ExtractVitalSigns(text string) string {
	return newDoc(text).field(registry.VitalSigns)
}

// ExtractPhysicalExam returns the PHYSICAL EXAM block of a note.
func ExtractPhysicalExam(text string) string {
	return newDoc(text).field(registry.PhysicalExam)
}

// ExtractGUExam returns the GENITOURINARY EXAM block of a note.
func ExtractGUExam(text string) string {
	return newDoc(text).field(registry.GUExam)
}

// ExtractIPSS returns the IPSS block of a note.
func ExtractIPSS(text string) string {
	return newDoc(text).field(registry.IPSSScore)
}

// ExtractSHIM returns the SHIM block of a note.
func ExtractSHIM(text string) string {
	return newDoc(text).field(registry.SHIMScore)
}

// ExtractUrinalysis returns the URINALYSIS block of a note.
func ExtractUrinalysis(text string) string {
	return newDoc(text).field(registry.Urinalysis)
}

// ExtractUrineCulture returns the URINE CULTURE block of a note.
func ExtractUrineCulture(text string) string {
	return newDoc(text).field(registry.UrineCulture)
}

// ExtractLabs returns the LABORATORY RESULTS block of a note.
func ExtractLabs(text string) string {
	return newDoc(text).field(registry.Labs)
}

// ExtractPostVoidResidual returns the POST-VOID RESIDUAL block of a note.
func ExtractPostVoidResidual(text string) string {
	return newDoc(text).field(registry.PostVoidResidual)
}

// ExtractUrodynamics returns the URODYNAMICS block of a note.
func ExtractUrodynamics(text string) string {
	return newDoc(text).field(registry.Urodynamics)
}

// ExtractCystoscopy returns the CYSTOSCOPY block of a note.
func ExtractCystoscopy(text string) string {
	return newDoc(text).field(registry.Cystoscopy)
}

// ExtractImaging returns the IMAGING block of a note, falling back to a CT, MRI, ultrasound, KUB or bone scan header.
func ExtractImaging(text string) string {
	return newDoc(text).field(registry.Imaging)
}

// ExtractPathology returns the PATHOLOGY block of a note.
func ExtractPathology(text string) string {
	return newDoc(text).field(registry.Pathology)
}

// ExtractOncologyStaging returns the ONCOLOGIC STAGING block of a note.
func ExtractOncologyStaging(text string) string {
	return newDoc(text).field(registry.OncologyStaging)
}

// ExtractRadiationHistory returns the RADIATION HISTORY block of a note.
func ExtractRadiationHistory(text string) string {
	return newDoc(text).field(registry.RadiationHistory)
}

// ExtractStoneHistory returns the STONE HISTORY block of a note.
func ExtractStoneHistory(text string) string {
	return newDoc(text).field(registry.StoneHistory)
}

// ExtractStoneAnalysis returns the STONE ANALYSIS block of a note.
func ExtractStoneAnalysis(text string) string {
	return newDoc(text).field(registry.StoneAnalysis)
}

// ExtractProcedures returns the PROCEDURES block of a note.
func ExtractProcedures(text string) string {
	return newDoc(text).field(registry.Procedures)
}

// ExtractCatheterHistory returns the CATHETER HISTORY block of a note.
func ExtractCatheterHistory(text string) string {
	return newDoc(text).field(registry.CatheterHistory)
}

// ExtractProblemList returns the PROBLEM LIST block of a note, falling back to ACTIVE PROBLEM LIST.
func ExtractProblemList(text string) string {
	return newDoc(text).field(registry.ProblemList)
}

// ExtractAssessment returns the ASSESSMENT block of a note, falling back to DIAGNOSIS.
func ExtractAssessment(text string) string {
	return newDoc(text).field(registry.Assessment)
}

// ExtractPlan returns the PLAN block of a note, falling back to TREATMENT PLAN.
func ExtractPlan(text string) string {
	return newDoc(text).field(registry.Plan)
}

// ExtractFollowUp returns the FOLLOW-UP block of a note, falling back to NEXT APPOINTMENT.
func ExtractFollowUp(text string) string {
	return newDoc(text).field(registry.FollowUp)
}

// ExtractCodeStatus returns the CODE STATUS block of a note.
func ExtractCodeStatus(text string) string {
	return newDoc(text).field(registry.CodeStatus)
}

var disabilityLineRE = regexp.MustCompile(`^[ \t]*[-*•]?[ \t]*([A-Za-z][^\n%]*?)[ \t]*\(?[ \t]*(\d{1,3})[ \t]*%`)

// disabilitiesAsHistory rewrites a rated disabilities block as a list of
// "- CONDITION (NN%)" lines. Lines without a percentage are skipped.
func disabilitiesAsHistory(block string) string {
	if block == "" {
		return ""
	}
	var out []string
	for _, line := range strings.Split(block, "\n") {
		m := disabilityLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimRight(strings.TrimSpace(m[1]), " :-(")
		lower := strings.ToLower(name)
		if name == "" || strings.Contains(lower, "percent") || strings.HasPrefix(lower, "sc ") || lower == "sc" {
			continue
		}
		out = append(out, fmt.Sprintf("- %s (%s%%)", name, m[2]))
	}
	return strings.Join(out, "\n")
}
