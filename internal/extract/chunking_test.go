package extract

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkBodyWithinBudget(t *testing.T) {
	if got := ChunkBody("short text", 100); !reflect.DeepEqual(got, []string{"short text"}) {
		t.Errorf("ChunkBody = %q", got)
	}
	if got := ChunkBody("", 100); got != nil {
		t.Errorf("ChunkBody(\"\") = %q, want nil", got)
	}
}

func TestChunkBodyCascade(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		budget int
		want   []string
	}{
		{
			name:   "paragraphs packed",
			text:   "one two\n\nthree four\n\nfive six seven",
			budget: 20,
			want:   []string{"one two\n\nthree four", "five six seven"},
		},
		{
			name:   "sentences",
			text:   "First sentence here. Second one here. Third.",
			budget: 25,
			want:   []string{"First sentence here.", "Second one here. Third."},
		},
		{
			name:   "words",
			text:   "aaaa bbbb cccc dddd eeee",
			budget: 10,
			want:   []string{"aaaa bbbb", "cccc dddd", "eeee"},
		},
		{
			name:   "hard cut",
			text:   "abcdefghijkl",
			budget: 5,
			want:   []string{"abcde", "fghij", "kl"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkBody(tt.text, tt.budget)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ChunkBody = %q, want %q", got, tt.want)
			}
			for _, c := range got {
				if n := utf8.RuneCountInString(c); n > tt.budget {
					t.Errorf("chunk %q has %d chars, budget %d", c, n, tt.budget)
				}
			}
		})
	}
}

func TestChunkBodyLargeDocument(t *testing.T) {
	para := strings.Repeat("Patient reports nocturia three times nightly. ", 40)
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString(para)
		sb.WriteString("\n\n")
	}
	text := strings.TrimSpace(sb.String())

	chunks := ChunkBody(text, DefaultConfig().MaxChars())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for %d chars, got %d", len(text), len(chunks))
	}
	total := 0
	for _, c := range chunks {
		if n := utf8.RuneCountInString(c); n > DefaultConfig().MaxChars() {
			t.Errorf("chunk of %d chars exceeds budget", n)
		}
		total += len(strings.Fields(c))
	}
	if want := len(strings.Fields(text)); total != want {
		t.Errorf("word count %d, want %d", total, want)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("PSA 4.5 ng/mL. Repeat in 3 mo! Biopsy? no")
	want := []string{"PSA 4.5 ng/mL.", "Repeat in 3 mo!", "Biopsy?", "no"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitSentences = %q, want %q", got, want)
	}
}

func TestCharEstimator(t *testing.T) {
	if got := (CharEstimator{CharsPerToken: 4}).CountTokens("12345678"); got != 2 {
		t.Errorf("CountTokens = %d, want 2", got)
	}
	if got := (CharEstimator{}).CountTokens("12345678"); got != 2 {
		t.Errorf("zero CharsPerToken should default to 4, got %d", got)
	}
}
