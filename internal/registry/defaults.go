package registry

// DefaultVersion tags the built-in pattern table.
const DefaultVersion = "2024.3"

// Section types known to the built-in table.
const (
	PatientDemographics   SectionType = "patient_demographics"
	ReasonForRequest      SectionType = "reason_for_request"
	ProvisionalDiagnosis  SectionType = "provisional_diagnosis"
	ChiefComplaint        SectionType = "chief_complaint"
	HistoryPresentIllness SectionType = "history_present_illness"
	GUHistory             SectionType = "gu_history"
	PastMedicalHistory    SectionType = "past_medical_history"
	PastSurgicalHistory   SectionType = "past_surgical_history"
	Disabilities          SectionType = "disabilities"
	SocialHistory         SectionType = "social_history"
	FamilyHistory         SectionType = "family_history"
	Allergies             SectionType = "allergies"
	Medications           SectionType = "medications"
	HormoneTherapy        SectionType = "hormone_therapy"
	Immunizations         SectionType = "immunizations"
	ReviewOfSystems       SectionType = "review_of_systems"
	VitalSigns            SectionType = "vital_signs"
	PhysicalExam          SectionType = "physical_exam"
	GUExam                SectionType = "gu_exam"
	IPSSScore             SectionType = "ipss_score"
	SHIMScore             SectionType = "shim_score"
	PSACurve              SectionType = "psa_curve"
	TestosteroneCurve     SectionType = "testosterone_curve"
	CreatinineCurve       SectionType = "creatinine_curve"
	EGFRCurve             SectionType = "egfr_curve"
	Urinalysis            SectionType = "urinalysis"
	UrineCulture          SectionType = "urine_culture"
	Labs                  SectionType = "labs"
	PostVoidResidual      SectionType = "pvr"
	Urodynamics           SectionType = "urodynamics"
	Cystoscopy            SectionType = "cystoscopy"
	Imaging               SectionType = "imaging"
	Pathology             SectionType = "pathology"
	OncologyStaging       SectionType = "oncology_staging"
	RadiationHistory      SectionType = "radiation_history"
	StoneHistory          SectionType = "stone_history"
	StoneAnalysis         SectionType = "stone_analysis"
	Procedures            SectionType = "procedures"
	CatheterHistory       SectionType = "catheter_history"
	ProblemList           SectionType = "problem_list"
	Assessment            SectionType = "assessment"
	Plan                  SectionType = "plan"
	FollowUp              SectionType = "follow_up"
	CodeStatus            SectionType = "code_status"

	// OtherClinicalData collects unmatched text when extraction coverage is low.
	// It is produced by the extraction agent and has no patterns of its own.
	OtherClinicalData SectionType = "other_clinical_data"
)

// OtherClinicalDataLabel is the display label of OtherClinicalData.
const OtherClinicalDataLabel = "OTHER CLINICAL DATA"

// DefaultEntries returns the built-in pattern table. Header patterns are
// anchored at a line start and end at the label's colon.
func DefaultEntries() []Entry {
	return []Entry{
		{Type: PatientDemographics, Label: "PATIENT DEMOGRAPHICS", DisplayOrder: 10, Patterns: []string{
			`^[ \t]*(?:PATIENT DEMOGRAPHICS|DEMOGRAPHICS)[ \t]*:`,
		}},
		{Type: ReasonForRequest, Label: "REASON FOR REQUEST", DisplayOrder: 20, Patterns: []string{
			`^[ \t]*REASON FOR (?:REQUEST|CONSULT(?:ATION)?)[ \t]*:`,
		}},
		{Type: ProvisionalDiagnosis, Label: "PROVISIONAL DIAGNOSIS", DisplayOrder: 30, Patterns: []string{
			`^[ \t]*PROVISIONAL (?:DIAGNOSIS|DX)[ \t]*:`,
		}},
		{Type: ChiefComplaint, Label: "CHIEF COMPLAINT", DisplayOrder: 40, Required: true, Patterns: []string{
			`^[ \t]*(?:CHIEF COMPLAINT|CC)[ \t]*:`,
			`^[ \t]*REASON FOR (?:VISIT|APPOINTMENT)[ \t]*:`,
		}},
		{Type: HistoryPresentIllness, Label: "HISTORY OF PRESENT ILLNESS", DisplayOrder: 50, Required: true, Patterns: []string{
			`^[ \t]*(?:HISTORY OF (?:THE )?PRESENT ILLNESS|HPI)[ \t]*:`,
			`^[ \t]*INTERVAL HISTORY[ \t]*:`,
		}},
		{Type: GUHistory, Label: "UROLOGIC HISTORY", DisplayOrder: 60, Patterns: []string{
			`^[ \t]*(?:PAST )?(?:UROLOGIC(?:AL)?|GU) HISTORY[ \t]*:`,
		}},
		{Type: PastMedicalHistory, Label: "PAST MEDICAL HISTORY", DisplayOrder: 70, Patterns: []string{
			`^[ \t]*(?:PAST MEDICAL HISTORY|PMH(?:X)?)[ \t]*:`,
			`^[ \t]*MEDICAL HISTORY[ \t]*:`,
		}},
		{Type: PastSurgicalHistory, Label: "PAST SURGICAL HISTORY", DisplayOrder: 80, Patterns: []string{
			`^[ \t]*(?:PAST SURGICAL HISTORY|PSH(?:X)?|SURGICAL HISTORY)[ \t]*:`,
		}},
		{Type: Disabilities, Label: "RATED DISABILITIES", DisplayOrder: 90, Patterns: []string{
			`^[ \t]*(?:RATED DISABILITIES|SERVICE[- ]CONNECTED (?:CONDITIONS|DISABILITIES))[ \t]*:`,
			`^[ \t]*SC CONDITIONS[ \t]*:`,
		}},
		{Type: SocialHistory, Label: "SOCIAL HISTORY", DisplayOrder: 100, Patterns: []string{
			`^[ \t]*(?:SOCIAL HISTORY|SOCIAL HX|SH)[ \t]*:`,
		}},
		{Type: FamilyHistory, Label: "FAMILY HISTORY", DisplayOrder: 110, Patterns: []string{
			`^[ \t]*(?:FAMILY HISTORY|FAMILY HX|FH)[ \t]*:`,
		}},
		{Type: Allergies, Label: "ALLERGIES", DisplayOrder: 120, Required: true, Patterns: []string{
			`^[ \t]*(?:ALLERGIES|ALLERGY)(?:/ADRS?)?[ \t]*:`,
			`^[ \t]*(?:ADVERSE REACTIONS/ALLERGIES|ADVERSE DRUG REACTIONS)[ \t]*:`,
		}},
		{Type: Medications, Label: "MEDICATIONS", DisplayOrder: 130, Required: true, Patterns: []string{
			`^[ \t]*(?:ACTIVE )?(?:OUTPATIENT )?MEDICATIONS[ \t]*:`,
			`^[ \t]*(?:CURRENT MEDICATIONS|MEDICATION LIST|MEDS)[ \t]*:`,
		}},
		{Type: HormoneTherapy, Label: "HORMONE THERAPY", DisplayOrder: 140, Patterns: []string{
			`^[ \t]*(?:HORMONE THERAPY|ANDROGEN DEPRIVATION THERAPY|ADT HISTORY)[ \t]*:`,
			`^[ \t]*TESTOSTERONE (?:REPLACEMENT|THERAPY)[ \t]*:`,
		}},
		{Type: Immunizations, Label: "IMMUNIZATIONS", DisplayOrder: 150, Patterns: []string{
			`^[ \t]*(?:IMMUNIZATIONS|VACCINATIONS)[ \t]*:`,
		}},
		{Type: ReviewOfSystems, Label: "REVIEW OF SYSTEMS", DisplayOrder: 160, Patterns: []string{
			`^[ \t]*(?:REVIEW OF SYSTEMS|ROS)[ \t]*:`,
		}},
		{Type: VitalSigns, Label: "VITAL SIGNS", DisplayOrder: 170, Patterns: []string{
			`^[ \t]*(?:VITAL SIGNS|VITALS)[ \t]*:`,
		}},
		{Type: PhysicalExam, Label: "PHYSICAL EXAM", DisplayOrder: 180, Patterns: []string{
			`^[ \t]*(?:PHYSICAL EXAM(?:INATION)?|EXAM|PE)[ \t]*:`,
			`^[ \t]*OBJECTIVE[ \t]*:`,
		}},
		{Type: GUExam, Label: "GENITOURINARY EXAM", DisplayOrder: 190, Patterns: []string{
			`^[ \t]*(?:GU|GENITOURINARY) EXAM(?:INATION)?[ \t]*:`,
			`^[ \t]*(?:DRE|DIGITAL RECTAL EXAM)[ \t]*:`,
		}},
		{Type: IPSSScore, Label: "IPSS", DisplayOrder: 200, Patterns: []string{
			`^[ \t]*(?:I-?PSS|AUA SYMPTOM SCORE|INTERNATIONAL PROSTATE SYMPTOM SCORE)[ \t]*:`,
		}},
		{Type: SHIMScore, Label: "SHIM", DisplayOrder: 210, Patterns: []string{
			`^[ \t]*(?:SHIM|SEXUAL HEALTH INVENTORY(?: FOR MEN)?|IIEF-?5?)[ \t]*:`,
		}},
		{Type: PSACurve, Label: "PSA TREND", DisplayOrder: 220, Patterns: []string{
			`^[ \t]*PSA (?:TREND|HISTORY|VALUES)[ \t]*:`,
			`^[ \t]*(?:PSA|PROSTATE SPECIFIC ANTIGEN)[ \t]*:`,
		}},
		{Type: TestosteroneCurve, Label: "TESTOSTERONE TREND", DisplayOrder: 230, Patterns: []string{
			`^[ \t]*TESTOSTERONE (?:TREND|HISTORY|VALUES)[ \t]*:`,
			`^[ \t]*(?:TOTAL )?TESTOSTERONE[ \t]*:`,
		}},
		{Type: CreatinineCurve, Label: "CREATININE TREND", DisplayOrder: 240, Patterns: []string{
			`^[ \t]*CREATININE (?:TREND|HISTORY|VALUES)[ \t]*:`,
			`^[ \t]*(?:CREATININE|CREAT)[ \t]*:`,
		}},
		{Type: EGFRCurve, Label: "EGFR TREND", DisplayOrder: 250, Patterns: []string{
			`^[ \t]*E?GFR (?:TREND|HISTORY|VALUES)[ \t]*:`,
			`^[ \t]*E?GFR[ \t]*:`,
		}},
		{Type: Urinalysis, Label: "URINALYSIS", DisplayOrder: 260, Patterns: []string{
			`^[ \t]*(?:URINALYSIS|UA|URINE DIPSTICK)[ \t]*:`,
		}},
		{Type: UrineCulture, Label: "URINE CULTURE", DisplayOrder: 270, Patterns: []string{
			`^[ \t]*(?:URINE CULTURE|UCX|URINE CX)[ \t]*:`,
		}},
		{Type: Labs, Label: "LABORATORY RESULTS", DisplayOrder: 280, Patterns: []string{
			`^[ \t]*(?:LABS|LABORATORY(?: RESULTS| DATA)?|LAB RESULTS|PERTINENT LABS)[ \t]*:`,
		}},
		{Type: PostVoidResidual, Label: "POST-VOID RESIDUAL", DisplayOrder: 290, Patterns: []string{
			`^[ \t]*(?:PVR|POST[- ]VOID RESIDUAL|BLADDER SCAN)[ \t]*:`,
		}},
		{Type: Urodynamics, Label: "URODYNAMICS", DisplayOrder: 300, Patterns: []string{
			`^[ \t]*(?:URODYNAMICS|URODYNAMIC STUDY|UDS)[ \t]*:`,
		}},
		{Type: Cystoscopy, Label: "CYSTOSCOPY", DisplayOrder: 310, Patterns: []string{
			`^[ \t]*(?:CYSTOSCOPY(?: FINDINGS)?|CYSTO)[ \t]*:`,
		}},
		{Type: Imaging, Label: "IMAGING", DisplayOrder: 320, Patterns: []string{
			`^[ \t]*(?:IMAGING(?: RESULTS)?|RADIOLOGY(?: REPORTS?)?)[ \t]*:`,
		}},
		{Type: Pathology, Label: "PATHOLOGY", DisplayOrder: 330, Patterns: []string{
			`^[ \t]*(?:SURGICAL )?PATHOLOGY(?: REPORT)?[ \t]*:`,
			`^[ \t]*BIOPSY RESULTS?[ \t]*:`,
		}},
		{Type: OncologyStaging, Label: "ONCOLOGIC STAGING", DisplayOrder: 340, Patterns: []string{
			`^[ \t]*(?:CANCER STAGING|STAGING|ONCOLOGIC HISTORY|TNM)[ \t]*:`,
		}},
		{Type: RadiationHistory, Label: "RADIATION HISTORY", DisplayOrder: 350, Patterns: []string{
			`^[ \t]*(?:RADIATION (?:HISTORY|THERAPY)|XRT)[ \t]*:`,
		}},
		{Type: StoneHistory, Label: "STONE HISTORY", DisplayOrder: 360, Patterns: []string{
			`^[ \t]*(?:(?:KIDNEY )?STONE HISTORY|NEPHROLITHIASIS HISTORY)[ \t]*:`,
		}},
		{Type: StoneAnalysis, Label: "STONE ANALYSIS", DisplayOrder: 370, Patterns: []string{
			`^[ \t]*(?:STONE|CALCULUS) ANALYSIS[ \t]*:`,
		}},
		{Type: Procedures, Label: "PROCEDURES", DisplayOrder: 380, Patterns: []string{
			`^[ \t]*(?:PROCEDURES?|PROCEDURE HISTORY)[ \t]*:`,
		}},
		{Type: CatheterHistory, Label: "CATHETER HISTORY", DisplayOrder: 390, Patterns: []string{
			`^[ \t]*(?:CATHETER(?: HISTORY| CARE)?|FOLEY)[ \t]*:`,
		}},
		{Type: ProblemList, Label: "PROBLEM LIST", DisplayOrder: 400, Patterns: []string{
			`^[ \t]*(?:ACTIVE PROBLEMS|PROBLEM LIST|PROBLEMS)[ \t]*:`,
		}},
		{Type: Assessment, Label: "ASSESSMENT", DisplayOrder: 410, Required: true, Patterns: []string{
			`^[ \t]*(?:ASSESSMENT|IMPRESSION)[ \t]*:`,
			`^[ \t]*ASSESSMENT (?:AND|&|/) PLAN[ \t]*:`,
		}},
		{Type: Plan, Label: "PLAN", DisplayOrder: 420, Required: true, Patterns: []string{
			`^[ \t]*(?:PLAN|RECOMMENDATIONS?)[ \t]*:`,
		}},
		{Type: FollowUp, Label: "FOLLOW-UP", DisplayOrder: 430, Patterns: []string{
			`^[ \t]*(?:FOLLOW[- ]?UP|RTC|RETURN TO CLINIC)[ \t]*:`,
		}},
		{Type: CodeStatus, Label: "CODE STATUS", DisplayOrder: 440, Patterns: []string{
			`^[ \t]*(?:CODE STATUS|ADVANCE DIRECTIVES?)[ \t]*:`,
		}},
	}
}

var defaultRegistry *Registry

func init() {
	r, err := New(DefaultVersion, DefaultEntries())
	if err != nil {
		panic(err)
	}
	defaultRegistry = r
}

// Default returns the compiled built-in registry.
func Default() *Registry {
	return defaultRegistry
}
