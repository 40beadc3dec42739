package fields

import (
	"regexp"
	"strings"

	"github.com/hurttlocker/chartmerge/internal/registry"
)

// analyteLine builds a pattern for lab lines prefixed with an analyte name,
// e.g. "PSA (SCREEN)   01/15/2024  4.5 H". The capture holds everything
// after the name.
func analyteLine(names string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[ \t]*(?:` + names + `)(?:[ \t]*\([^)\n]*\))?[ \t]*[:,-]?[ \t]+([^\n]*\d[^\n]*)$`)
}

var analyteLines = map[registry.SectionType]*regexp.Regexp{
	registry.PSACurve:          analyteLine(`(?:TOTAL[ \t]+)?PSA|PROSTATE SPECIFIC (?:ANTIGEN|AG)`),
	registry.CreatinineCurve:   analyteLine(`CREATININE|CREAT`),
	registry.TestosteroneCurve: analyteLine(`(?:TOTAL[ \t]+)?TESTOSTERONE(?:,?[ \t]*TOTAL)?`),
	registry.EGFRCurve:         analyteLine(`E?GFR(?:[ \t]*(?:CKD-EPI|MDRD|NON-AFR(?:ICAN)? AM(?:ERICAN)?))?`),
}

// curve returns the labelled trend block, or failing that the analyte
// lines of the note with the analyte name removed, one per line.
func (d *doc) curve(t registry.SectionType) string {
	if v := d.field(t); v != "" {
		return v
	}
	re := analyteLines[t]
	if re == nil {
		return ""
	}
	var lines []string
	for _, m := range re.FindAllStringSubmatch(d.text, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

// ExtractPSACurve returns the PSA TREND block of a note, or its PSA
// lab lines when the note has no trend block.
func ExtractPSACurve(text string) string {
	return newDoc(text).curve(registry.PSACurve)
}

// ExtractCreatinineCurve returns the CREATININE TREND block of a note, or its CREATININE
// lab lines when the note has no trend block.
func ExtractCreatinineCurve(text string) string {
	return newDoc(text).curve(registry.CreatinineCurve)
}

// ExtractTestosteroneCurve returns the TESTOSTERONE TREND block of a note, or its TESTOSTERONE
// lab lines when the note has no trend block.
func ExtractTestosteroneCurve(text string) string {
	return newDoc(text).curve(registry.TestosteroneCurve)
}

// ExtractEGFRCurve returns the EGFR TREND block of a note, or its EGFR
// lab lines when the note has no trend block.
func ExtractEGFRCurve(text string) string {
	return newDoc(text).curve(registry.EGFRCurve)
}
