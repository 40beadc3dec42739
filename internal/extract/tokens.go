package extract

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// TokenCounter estimates how many model tokens a text occupies.
type TokenCounter interface {
	CountTokens(text string) int
}

// CharEstimator approximates tokens as characters / CharsPerToken.
type CharEstimator struct {
	CharsPerToken int
}

// CountTokens implements TokenCounter.
func (c CharEstimator) CountTokens(text string) int {
	cpt := c.CharsPerToken
	if cpt <= 0 {
		cpt = DefaultCharsPerToken
	}
	return utf8.RuneCountInString(text) / cpt
}

// PretrainedCounter counts tokens with a HuggingFace tokenizer.json file.
// Encoding failures fall back to the character estimate.
type PretrainedCounter struct {
	mu       sync.Mutex
	tk       *tokenizer.Tokenizer
	fallback CharEstimator
}

// NewPretrainedCounter loads a tokenizer.json file.
func NewPretrainedCounter(path string, charsPerToken int) (*PretrainedCounter, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer %s: %w", path, err)
	}
	return &PretrainedCounter{tk: tk, fallback: CharEstimator{CharsPerToken: charsPerToken}}, nil
}

// CountTokens implements TokenCounter.
func (p *PretrainedCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	p.mu.Lock()
	en, err := p.tk.EncodeSingle(text, false)
	p.mu.Unlock()
	if err != nil {
		return p.fallback.CountTokens(text)
	}
	return len(en.Ids)
}
