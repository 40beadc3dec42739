package aggregate

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// point is one parsed lab value.
type point struct {
	at      time.Time
	hasTime bool
	value   float64
	text    string // value as written, with any comparator
	flag    string
}

const (
	tagPrefix = `(?i)^[ \t]*(?:\[r\][ \t]*)?`
	valueTail = `[ \t]+(<=|>=|<|>)?[ \t]*(\d+(?:\.\d+)?|\.\d+)[ \t]*(H\*|L\*|\(H\)|\(L\)|H|L|\*)?(?:[ \t].*)?$`
	monthDate = `([A-Za-z]{3,9})\.?[ \t]+(\d{1,2}),?[ \t]+(\d{4})`
	numDate   = `(\d{1,2})/(\d{1,2})/(\d{2,4})`
	timeOfDay = `(?:[ \t]+|@)(\d{1,2}:?\d{2}(?::\d{2})?)`
)

// seriesFormat is one accepted line shape, tried in priority order.
type seriesFormat struct {
	name    string
	re      *regexp.Regexp
	date    func(m []string) (time.Time, bool)
	timeIdx int // submatch index of the time of day, 0 if none
	valIdx  int // submatch index of the comparator; value and flag follow
}

var seriesFormats = []seriesFormat{
	{
		name:    "month-name date and time",
		re:      regexp.MustCompile(tagPrefix + monthDate + timeOfDay + valueTail),
		date:    monthNameDate,
		timeIdx: 4,
		valIdx:  5,
	},
	{
		name:   "month-name date",
		re:     regexp.MustCompile(tagPrefix + monthDate + valueTail),
		date:   monthNameDate,
		valIdx: 4,
	},
	{
		name:    "numeric date and time",
		re:      regexp.MustCompile(tagPrefix + numDate + timeOfDay + valueTail),
		date:    numericDate,
		timeIdx: 4,
		valIdx:  5,
	},
	{
		name:   "numeric date",
		re:     regexp.MustCompile(tagPrefix + numDate + valueTail),
		date:   numericDate,
		valIdx: 4,
	},
	{
		name:    "iso date",
		re:      regexp.MustCompile(tagPrefix + `(\d{4})-(\d{2})-(\d{2})(?:[T ](\d{2}:\d{2}(?::\d{2})?)Z?)?` + valueTail),
		date:    isoDate,
		timeIdx: 4,
		valIdx:  5,
	},
}

// parseSeriesLine parses one lab line. ok is false when no format matches.
func parseSeriesLine(line string) (point, bool) {
	for _, f := range seriesFormats {
		m := f.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		day, ok := f.date(m)
		if !ok {
			continue
		}
		p := point{at: day}
		if f.timeIdx > 0 && m[f.timeIdx] != "" {
			h, mm, ok := parseClock(m[f.timeIdx])
			if !ok {
				continue
			}
			p.at = day.Add(time.Duration(h)*time.Hour + time.Duration(mm)*time.Minute)
			p.hasTime = true
		}
		v, err := strconv.ParseFloat(m[f.valIdx+1], 64)
		if err != nil {
			continue
		}
		p.value = v
		p.text = m[f.valIdx] + m[f.valIdx+1]
		p.flag = normalizeFlag(m[f.valIdx+2])
		return p, true
	}
	return point{}, false
}

func monthNameDate(m []string) (time.Time, bool) {
	mon := strings.ToLower(m[1])
	if len(mon) > 3 {
		mon = mon[:3]
	}
	month, ok := months[mon]
	if !ok {
		return time.Time{}, false
	}
	return civilDate(m[3], int(month), m[2])
}

func numericDate(m []string) (time.Time, bool) {
	month, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	year := m[3]
	if len(year) == 2 {
		year = "20" + year
	} else if len(year) != 4 {
		return time.Time{}, false
	}
	return civilDate(year, month, m[2])
}

func isoDate(m []string) (time.Time, bool) {
	month, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, false
	}
	return civilDate(m[1], month, m[3])
}

func civilDate(yearStr string, month int, dayStr string) (time.Time, bool) {
	year, err1 := strconv.Atoi(yearStr)
	day, err2 := strconv.Atoi(dayStr)
	if err1 != nil || err2 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false // Feb 30 and friends
	}
	return t, true
}

// parseClock accepts "0930", "930", "09:30" and "09:30:15".
func parseClock(s string) (int, int, bool) {
	s = strings.ReplaceAll(s, ":", "")
	if len(s) == 6 {
		s = s[:4]
	}
	if len(s) < 3 || len(s) > 4 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(s[:len(s)-2])
	mm, err2 := strconv.Atoi(s[len(s)-2:])
	if err1 != nil || err2 != nil || h > 23 || mm > 59 {
		return 0, 0, false
	}
	return h, mm, true
}

func normalizeFlag(f string) string {
	f = strings.ToUpper(f)
	switch f {
	case "(H)":
		return "H"
	case "(L)":
		return "L"
	default:
		return f
	}
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// seriesResult is the merged curve plus the lines that could not be parsed.
type seriesResult struct {
	lines    []string
	unparsed []string
}

// mergeSeries parses every line of every instance, de-duplicates on exact
// (timestamp, value), sorts newest first (ties by ascending value) and
// renders one canonical line per point.
func mergeSeries(p SeriesPolicy, instances []string) seriesResult {
	type key struct {
		at    int64
		value float64
	}
	var res seriesResult
	seen := make(map[key]struct{})
	var pts []point

	for _, in := range instances {
		for _, line := range strings.Split(in, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			pt, ok := parseSeriesLine(line)
			if !ok {
				res.unparsed = append(res.unparsed, strings.TrimSpace(line))
				continue
			}
			k := key{pt.at.Unix(), pt.value}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			pts = append(pts, pt)
		}
	}

	sort.SliceStable(pts, func(i, j int) bool {
		if !pts[i].at.Equal(pts[j].at) {
			return pts[i].at.After(pts[j].at)
		}
		return pts[i].value < pts[j].value
	})

	for _, pt := range pts {
		res.lines = append(res.lines, renderPoint(pt, p.Threshold))
	}
	return res
}

// renderPoint formats "[r] Jan 02, 2006 15:04    <value> <flag>", omitting
// the time when the source had none.
func renderPoint(pt point, th Threshold) string {
	layout := "Jan 02, 2006 15:04"
	if !pt.hasTime {
		layout = "Jan 02, 2006"
	}
	flag := pt.flag
	if flag == "" {
		flag = th.FlagFor(pt.value)
	}
	line := "[r] " + pt.at.Format(layout) + "    " + pt.text
	if flag != "" {
		line += " " + flag
	}
	return line
}
