package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Split granularities, coarsest first.
const (
	levelParagraph = iota
	levelSentence
	levelWord
)

var paragraphBreakRE = regexp.MustCompile(`\n[ \t]*\n\s*`)

// ChunkBody splits text into chunks of at most budget characters.
//
// Paragraphs are packed greedily first. A paragraph that alone exceeds the
// budget is split into sentences and packed the same way, and a sentence
// that still exceeds it is packed word by word. A single word longer than
// the budget is cut at the budget. Text within budget is returned as is.
func ChunkBody(text string, budget int) []string {
	if text == "" {
		return nil
	}
	if budget <= 0 || utf8.RuneCountInString(text) <= budget {
		return []string{text}
	}
	return packLevel(text, budget, levelParagraph)
}

func packLevel(text string, budget, level int) []string {
	sep := " "
	if level == levelParagraph {
		sep = "\n\n"
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, unit := range splitUnits(text, level) {
		n := utf8.RuneCountInString(unit)
		if n > budget {
			flush()
			if level < levelWord {
				chunks = append(chunks, packLevel(unit, budget, level+1)...)
			} else {
				chunks = append(chunks, hardCut(unit, budget)...)
			}
			continue
		}
		extra := n
		if curLen > 0 {
			extra += utf8.RuneCountInString(sep)
		}
		if curLen+extra > budget {
			flush()
			extra = n
		}
		if curLen > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(unit)
		curLen += extra
	}
	flush()
	return chunks
}

func splitUnits(text string, level int) []string {
	switch level {
	case levelParagraph:
		var out []string
		for _, p := range paragraphBreakRE.Split(text, -1) {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case levelSentence:
		return splitSentences(text)
	default:
		return strings.Fields(text)
	}
}

// splitSentences cuts after '.', '!' or '?' when followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func hardCut(word string, budget int) []string {
	runes := []rune(word)
	var out []string
	for len(runes) > budget {
		out = append(out, string(runes[:budget]))
		runes = runes[budget:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
