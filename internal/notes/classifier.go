// Package notes splits a multi-encounter export into individual notes and
// classifies each one.
//
// Four kinds are recognized: primary (urology) notes, other-service notes,
// consult requests and primary care notes embedded inside other notes.
package notes

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Kind classifies a note.
type Kind string

const (
	KindPrimary  Kind = "primary"
	KindOther    Kind = "other"
	KindRequest  Kind = "request"
	KindEmbedded Kind = "embedded"
)

// Kinds lists every kind in a stable order.
var Kinds = []Kind{KindPrimary, KindOther, KindRequest, KindEmbedded}

// Note is one encounter-level unit of the source document.
type Note struct {
	Title   string `json:"title"`
	Date    string `json:"date,omitempty"`
	Content string `json:"content"`
	Kind    Kind   `json:"kind"`
	Offset  int    `json:"offset"`
}

// Result groups classified notes by kind. Each list keeps source order.
type Result struct {
	Primary  []Note `json:"primary"`
	Other    []Note `json:"other"`
	Requests []Note `json:"requests"`
	Embedded []Note `json:"embedded"`
}

// All returns every note ordered by source offset.
func (r Result) All() []Note {
	out := make([]Note, 0, r.Len())
	out = append(out, r.Primary...)
	out = append(out, r.Other...)
	out = append(out, r.Requests...)
	out = append(out, r.Embedded...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// Len returns the total number of notes.
func (r Result) Len() int {
	return len(r.Primary) + len(r.Other) + len(r.Requests) + len(r.Embedded)
}

// Counts returns the number of notes per kind.
func (r Result) Counts() map[Kind]int {
	return map[Kind]int{
		KindPrimary:  len(r.Primary),
		KindOther:    len(r.Other),
		KindRequest:  len(r.Requests),
		KindEmbedded: len(r.Embedded),
	}
}

var (
	noteTitleRE = regexp.MustCompile(`(?im)^[ \t]*LOCAL TITLE:[ \t]*(.*)$`)

	// DefaultPrimaryPattern decides whether a note title belongs to the
	// primary (GU) service. Matches whole words only, so NEUROLOGY is not
	// a urology title.
	DefaultPrimaryPattern = regexp.MustCompile(`(?i)\b(?:UROLOG\w*|UROL|GU|GENITOURINARY)\b`)

	requestMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Provisional Diagnosis:`),
		regexp.MustCompile(`(?i)Reason For Request:`),
		regexp.MustCompile(`(?i)Consult Request`),
		regexp.MustCompile(`(?i)To Service:`),
		regexp.MustCompile(`(?i)From Service:`),
		regexp.MustCompile(`(?i)Requesting Facility:`),
	}
	requestDelimRE   = regexp.MustCompile(`(?im)^[ \t]*[-=*]*[ \t]*END OF (?:CONSULT )?REQUEST\b.*$`)
	requestDateRE    = regexp.MustCompile(`(?im)^[ \t]*(?:Date of Request|Request Date)[ \t]*:[ \t]*(.*)$`)
	requestServiceRE = regexp.MustCompile(`(?im)^[ \t]*To Service[ \t]*:[ \t]*(.*)$`)

	noteDateRE = regexp.MustCompile(`(?im)(?:DATE OF NOTE|ENTRY DATE|Date of Service|Visit Date)[ \t]*:[ \t]*([^\n]*)`)

	embeddedHeaderRE = regexp.MustCompile(`(?im)^[ \t]*(?:PRIMARY CARE PROGRESS NOTE|PRIMARY CARE NOTE|PACT NOTE)\b.*$`)
)

// MinRequestMarkers is the number of distinct markers that identify a
// consult request block.
const MinRequestMarkers = 2

// Classifier splits and classifies notes. It is stateless and safe for
// concurrent use.
type Classifier struct {
	primary *regexp.Regexp
	log     zerolog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithPrimaryPattern overrides the title test for primary notes.
func WithPrimaryPattern(re *regexp.Regexp) Option {
	return func(c *Classifier) {
		if re != nil {
			c.primary = re
		}
	}
}

// WithLogger sets the classifier logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Classifier) { c.log = l }
}

// NewClassifier creates a classifier.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{primary: DefaultPrimaryPattern, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify splits text into notes. Text without any note marker or request
// block yields an empty Result.
func (c *Classifier) Classify(text string) Result {
	var res Result
	res.Requests = c.requests(text)

	for _, n := range c.titledNotes(text) {
		if c.IsPrimaryTitle(n.Title) {
			n.Kind = KindPrimary
			res.Primary = append(res.Primary, n)
		} else {
			n.Kind = KindOther
			res.Other = append(res.Other, n)
		}
	}
	res.Embedded = c.embedded(text)

	c.log.Debug().
		Int("primary", len(res.Primary)).
		Int("other", len(res.Other)).
		Int("requests", len(res.Requests)).
		Int("embedded", len(res.Embedded)).
		Msg("notes classified")
	return res
}

// IsPrimaryTitle reports whether a note title belongs to the primary service.
func (c *Classifier) IsPrimaryTitle(title string) bool {
	return c.primary.MatchString(title)
}

func (c *Classifier) titledNotes(text string) []Note {
	locs := noteTitleRE.FindAllStringSubmatchIndex(text, -1)
	notes := make([]Note, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		content := strings.TrimSpace(text[loc[0]:end])
		notes = append(notes, Note{
			Title:   strings.TrimSpace(text[loc[2]:loc[3]]),
			Date:    findDate(noteDateRE, content),
			Content: content,
			Offset:  loc[0],
		})
	}
	return notes
}

func (c *Classifier) requests(text string) []Note {
	if distinctMarkers(text) < MinRequestMarkers {
		return nil
	}

	var out []Note
	start := 0
	emit := func(blockStart, blockEnd int) {
		block := text[blockStart:blockEnd]
		if distinctMarkers(block) < MinRequestMarkers {
			return
		}
		first := firstMarker(block)
		lineStart := strings.LastIndexByte(block[:first], '\n') + 1
		content := strings.TrimSpace(block[lineStart:])
		title := "CONSULT REQUEST"
		if m := requestServiceRE.FindStringSubmatch(content); m != nil && strings.TrimSpace(m[1]) != "" {
			title += " - " + strings.TrimSpace(m[1])
		}
		out = append(out, Note{
			Title:   title,
			Date:    findDate(requestDateRE, content),
			Content: content,
			Kind:    KindRequest,
			Offset:  blockStart + lineStart,
		})
	}

	for _, loc := range requestDelimRE.FindAllStringIndex(text, -1) {
		emit(start, loc[0])
		start = loc[1]
	}
	emit(start, len(text))
	return out
}

func (c *Classifier) embedded(text string) []Note {
	headers := embeddedHeaderRE.FindAllStringIndex(text, -1)
	if len(headers) == 0 {
		return nil
	}

	var stops []int
	for _, re := range []*regexp.Regexp{embeddedHeaderRE, noteTitleRE, requestDelimRE} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			stops = append(stops, loc[0])
		}
	}
	sort.Ints(stops)

	out := make([]Note, 0, len(headers))
	for _, h := range headers {
		end := len(text)
		if i := sort.SearchInts(stops, h[1]); i < len(stops) {
			end = stops[i]
		}
		content := strings.TrimSpace(text[h[0]:end])
		out = append(out, Note{
			Title:   strings.TrimSpace(text[h[0]:h[1]]),
			Date:    findDate(noteDateRE, content),
			Content: content,
			Kind:    KindEmbedded,
			Offset:  h[0],
		})
	}
	return out
}

func distinctMarkers(text string) int {
	n := 0
	for _, re := range requestMarkers {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

func firstMarker(text string) int {
	first := len(text)
	for _, re := range requestMarkers {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] < first {
			first = loc[0]
		}
	}
	return first
}

// findDate returns the first labelled date, normalized when parseable.
func findDate(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	raw := strings.TrimSpace(m[1])
	if i := strings.Index(raw, "  "); i > 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return ""
	}
	d, _ := NormalizeDate(raw)
	return d
}
