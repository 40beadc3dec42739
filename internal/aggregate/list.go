package aggregate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ordinalRE strips list markers: "1.", "2)", "-", "*", "•", "a.".
	ordinalRE = regexp.MustCompile(`^(?:\d{1,3}[.)]|[a-z][.)]|[-*•+])[ \t]+`)

	// listHeaderRE matches lines that only label a list, e.g. "Active Outpatient Medications:".
	listHeaderRE = regexp.MustCompile(`(?i)^[A-Za-z /&()-]{2,60}:$|^(?:Active|Pending|Expired|Inactive)[A-Za-z ]*(?:Medications|Problems|Orders)(?:[ \t]*\(.*\))?$`)

	spaceRE = regexp.MustCompile(`[ \t]+`)
)

// mergeList splits instances into lines and keeps the first occurrence of
// each line, compared case-insensitively after ordinal markers and extra
// whitespace are removed. First-seen casing and order are preserved.
func mergeList(instances []string) string {
	seen := make(map[string]struct{})
	var out []string
	for _, in := range instances {
		for _, line := range strings.Split(in, "\n") {
			item := normalizeItem(line)
			if item == "" || listHeaderRE.MatchString(item) {
				continue
			}
			key := strings.ToLower(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return strings.Join(out, "\n")
}

func normalizeItem(line string) string {
	s := strings.TrimSpace(line)
	s = ordinalRE.ReplaceAllString(s, "")
	s = spaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// selectOne applies a select rule to non-blank instances.
func selectOne(rule SelectRule, instances []string) string {
	if len(instances) == 0 {
		return ""
	}
	switch rule {
	case First:
		return instances[0]
	case Last:
		return instances[len(instances)-1]
	default:
		best := instances[0]
		bestLen := utf8.RuneCountInString(best)
		for _, in := range instances[1:] {
			if n := utf8.RuneCountInString(in); n > bestLen {
				best, bestLen = in, n
			}
		}
		return best
	}
}
