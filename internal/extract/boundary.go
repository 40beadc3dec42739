package extract

import (
	"regexp"
	"sort"

	"github.com/hurttlocker/chartmerge/internal/registry"
)

var (
	// horizontalRuleRE matches separator lines of three or more -, = or _.
	horizontalRuleRE = regexp.MustCompile(`(?m)^[ \t]*(?:-{3,}|={3,}|_{3,})[ \t]*\r?$`)

	// noteTitleRE matches the CPRS note title marker.
	noteTitleRE = regexp.MustCompile(`(?m)^[ \t]*LOCAL TITLE:`)
)

// headerMatch is one header pattern hit in the source text.
type headerMatch struct {
	entry      registry.Entry
	patternIdx int
	start      int
	headerEnd  int
}

// boundaries holds the sorted, de-duplicated positions at which a section
// body can end.
type boundaries []int

func scanHeaders(reg *registry.Registry, text string) ([]headerMatch, boundaries) {
	var matches []headerMatch
	seen := make(map[int]struct{})
	var bounds boundaries
	add := func(pos int) {
		if _, ok := seen[pos]; ok {
			return
		}
		seen[pos] = struct{}{}
		bounds = append(bounds, pos)
	}

	for _, e := range reg.Entries() {
		for pi, re := range reg.Compiled(e.Type) {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				matches = append(matches, headerMatch{entry: e, patternIdx: pi, start: loc[0], headerEnd: loc[1]})
				add(loc[0])
			}
		}
	}
	for _, re := range []*regexp.Regexp{horizontalRuleRE, noteTitleRE} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			add(loc[0])
		}
	}
	add(len(text))
	sort.Ints(bounds)
	return matches, bounds
}

// next returns the first boundary at or after pos.
func (b boundaries) next(pos int) int {
	i := sort.SearchInts(b, pos)
	if i == len(b) {
		return b[len(b)-1]
	}
	return b[i]
}
