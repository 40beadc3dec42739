package aggregate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hurttlocker/chartmerge/internal/registry"
)

// Narrator generates merged narrative text. The context deadline bounds the
// call.
type Narrator interface {
	Generate(ctx context.Context, prompt, instructions string, temperature float64) (string, error)
}

// Cache stores synthesis results between runs.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, field, value string) error
}

// FallbackMarker prefixes the visible concatenation used when synthesis fails.
const FallbackMarker = "[AUTO-MERGED: narrative synthesis unavailable]"

// FallbackSeparator joins instances in the fallback text.
const FallbackSeparator = "\n---\n"

var (
	// ErrNoNarrator is reported when a synthesis field has no narrator.
	ErrNoNarrator = errors.New("aggregate: no narrator configured")

	// ErrEmptySynthesis is reported when the cleaned narrator output is blank.
	ErrEmptySynthesis = errors.New("aggregate: narrator returned no usable text")
)

// fallbackText is the visible concatenation of every instance.
func fallbackText(instances []string) string {
	return FallbackMarker + "\n" + strings.Join(instances, FallbackSeparator)
}

// synthesisPrompt lists the instances in source order.
func synthesisPrompt(field registry.SectionType, instances []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Field: %s\nInstances: %d\n", field, len(instances))
	for i, in := range instances {
		fmt.Fprintf(&sb, "\n=== Instance %d ===\n%s\n", i+1, in)
	}
	return sb.String()
}

var metaLineRE = regexp.MustCompile(`(?i)^(?:here(?:'s| is| are)\b|sure[,!.]|certainly[,!.]|below is\b|the following\b|i (?:have|hope|merged|combined)\b|let me know\b|this (?:merged|combined|summary)\b|note:|as an ai\b)`)

// cleanSynthesis strips code fences and leading or trailing lines that talk
// about the answer instead of being part of it.
func cleanSynthesis(raw string) string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")

	kept := lines[:0:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			continue
		}
		kept = append(kept, l)
	}

	start, end := 0, len(kept)
	for start < end && isMetaLine(kept[start]) {
		start++
	}
	for end > start && isMetaLine(kept[end-1]) {
		end--
	}
	return strings.TrimSpace(strings.Join(kept[start:end], "\n"))
}

func isMetaLine(l string) bool {
	s := strings.TrimSpace(l)
	return s == "" || metaLineRE.MatchString(s)
}

// synthesize runs the narrator under the engine timeout. The call runs in its
// own goroutine so a narrator that ignores its context cannot hold the field
// past the deadline; panics in the narrator become errors.
func (e *Engine) synthesize(ctx context.Context, field registry.SectionType, p SynthesisPolicy, instances []string) (string, error) {
	if e.narrator == nil {
		return "", ErrNoNarrator
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type reply struct {
		out string
		err error
	}
	done := make(chan reply, 1) // buffered so an abandoned call can still finish
	prompt := synthesisPrompt(field, instances)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("aggregate: narrator panic: %v", r)}
			}
		}()
		out, err := e.narrator.Generate(ctx, prompt, p.Instructions, e.temperature)
		done <- reply{out: out, err: err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-ctx.Done():
		e.metrics.Synthesis("call", time.Since(start))
		return "", fmt.Errorf("generating %s: %w", field, ctx.Err())
	}
	e.metrics.Synthesis("call", time.Since(start))

	if r.err != nil {
		return "", fmt.Errorf("generating %s: %w", field, r.err)
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("generating %s: %w", field, ctx.Err())
	}
	cleaned := cleanSynthesis(r.out)
	if cleaned == "" {
		return "", ErrEmptySynthesis
	}
	return cleaned, nil
}
