// Package llm talks to hosted language models for narrative synthesis.
//
// Providers speak one vendor's REST API over net/http. Narrator wraps a
// provider with rate limiting and retries and satisfies the aggregation
// engine's narrator interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// Provider is the interface for LLM completions.
type Provider interface {
	// Complete sends a prompt and returns the response text.
	Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error)
	// Name returns a human-readable provider name (e.g., "google/gemini-2.5-flash").
	Name() string
}

// CompletionOpts configures a single completion request.
type CompletionOpts struct {
	MaxTokens   int     // 0 = provider default
	Temperature float64 // 0.0-2.0
	System      string  // system instructions (optional)
}

// Config holds provider configuration.
type Config struct {
	Provider string // "google", "openrouter"
	Model    string
	APIKey   string // empty = read from env
	BaseURL  string // optional URL override
}

// ErrDisabled is returned by ParseSpec for an empty spec.
var ErrDisabled = errors.New("llm: no provider configured")

// StatusError is a non-200 response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, body)
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

var defaultModels = map[string]string{
	"google":     "gemini-2.5-flash",
	"openrouter": "openai/gpt-4o-mini",
}

// NewProvider creates an LLM provider from the given config.
func NewProvider(cfg Config) (Provider, error) {
	name := strings.ToLower(cfg.Provider)
	model := cfg.Model
	if model == "" {
		model = defaultModels[name]
	}

	switch name {
	case "google":
		key := firstNonEmpty(cfg.APIKey, os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("google provider requires an API key (llm.api_key, GEMINI_API_KEY or GOOGLE_API_KEY)")
		}
		return &googleProvider{
			apiKey:  key,
			model:   model,
			baseURL: firstNonEmpty(cfg.BaseURL, "https://generativelanguage.googleapis.com/v1beta"),
		}, nil

	case "openrouter":
		key := firstNonEmpty(cfg.APIKey, os.Getenv("OPENROUTER_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("openrouter provider requires an API key (llm.api_key or OPENROUTER_API_KEY)")
		}
		return &openrouterProvider{
			apiKey:  key,
			model:   model,
			baseURL: firstNonEmpty(cfg.BaseURL, "https://openrouter.ai/api/v1"),
		}, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: google, openrouter)", cfg.Provider)
	}
}

// ParseSpec parses a "provider/model" value such as
// "google/gemini-2.5-flash" or "openrouter/openai/gpt-4o-mini". A bare
// provider name selects its default model. The empty spec returns
// ErrDisabled.
func ParseSpec(spec string) (Config, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Config{}, ErrDisabled
	}

	provider, model, _ := strings.Cut(spec, "/")
	provider = strings.ToLower(provider)
	if _, ok := defaultModels[provider]; !ok {
		return Config{}, fmt.Errorf("unknown provider %q in %q (supported: google, openrouter)", provider, spec)
	}
	if model == "" {
		model = defaultModels[provider]
	}
	return Config{Provider: provider, Model: model}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
