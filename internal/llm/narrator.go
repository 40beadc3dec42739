package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Defaults for NarratorOptions.
const (
	DefaultRatePerMinute = 50
	DefaultMaxRetries    = 2
	DefaultBaseBackoff   = 500 * time.Millisecond
	DefaultMaxTokens     = 2048
)

// NarratorOptions configures a Narrator.
type NarratorOptions struct {
	RatePerMinute int           // requests per minute, 0 = DefaultRatePerMinute
	MaxRetries    int           // retries after the first attempt, < 0 = none
	BaseBackoff   time.Duration // doubled on every retry
	MaxTokens     int
	Logger        zerolog.Logger
}

// Narrator merges clinical narrative through a Provider. It is safe for
// concurrent use; calls share one rate limiter.
type Narrator struct {
	provider    Provider
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
	maxTokens   int
	log         zerolog.Logger
}

// NewNarrator wraps p with rate limiting and retries.
func NewNarrator(p Provider, opts NarratorOptions) *Narrator {
	perMin := opts.RatePerMinute
	if perMin <= 0 {
		perMin = DefaultRatePerMinute
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	backoff := opts.BaseBackoff
	if backoff <= 0 {
		backoff = DefaultBaseBackoff
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Narrator{
		provider:    p,
		limiter:     rate.NewLimiter(rate.Limit(float64(perMin)/60), 1),
		maxRetries:  retries,
		baseBackoff: backoff,
		maxTokens:   maxTokens,
		log:         opts.Logger,
	}
}

// Name returns the provider name.
func (n *Narrator) Name() string { return n.provider.Name() }

// Generate sends prompt with instructions as the system prompt. The context
// deadline bounds waiting on the limiter, the requests and the backoff.
func (n *Narrator) Generate(ctx context.Context, prompt, instructions string, temperature float64) (string, error) {
	opts := CompletionOpts{MaxTokens: n.maxTokens, Temperature: temperature, System: instructions}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := n.baseBackoff * time.Duration(1<<(attempt-1))
			n.log.Debug().Err(lastErr).Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying narrator request")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if err := n.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}

		out, err := n.provider.Complete(ctx, prompt, opts)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isRetryable(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	var ne net.Error
	return errors.As(err, &ne)
}
