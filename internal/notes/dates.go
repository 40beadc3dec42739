package notes

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the normalized note date format.
const DateLayout = "2006-01-02"

// dateTokenRE finds the first date-like token in a label value.
var dateTokenRE = regexp.MustCompile(
	`(?i)(?:[A-Z]{3,9}\.?[ \t]+\d{1,2},?[ \t]+\d{4}|\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2})`,
)

var dateLayouts = []string{
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan. 2, 2006",
	"1/2/2006",
	"1/2/06",
	"2006-01-02",
}

// NormalizeDate converts a CPRS-style date value ("JAN 15, 2024@09:30",
// "01/15/2024", "2024-01-15") to YYYY-MM-DD. When no layout parses, the raw
// value is returned trimmed with ok false.
func NormalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	tok := dateTokenRE.FindString(raw)
	if tok == "" {
		return raw, false
	}
	tok = strings.Join(strings.Fields(tok), " ")
	tok = titleMonth(tok)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, tok); err == nil {
			return t.Format(DateLayout), true
		}
	}
	return raw, false
}

// titleMonth turns "JAN 15, 2024" into "Jan 15, 2024" so time.Parse accepts it.
func titleMonth(s string) string {
	if s == "" || !unicode.IsLetter(rune(s[0])) {
		return s
	}
	i := strings.IndexAny(s, " .")
	if i <= 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:i]) + s[i:]
}
