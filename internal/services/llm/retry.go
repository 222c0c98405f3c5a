package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryConfig defines retry behaviour for provider rate limits and
// transient failures.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialBackoff is the wait before the first rate-limit retry (default: 20s)
	InitialBackoff time.Duration

	// MaxBackoff is the maximum wait time between retries (default: 90s)
	MaxBackoff time.Duration

	// BackoffMultiplier is applied to backoff on each retry (default: 1.5)
	BackoffMultiplier float64

	// ErrorBackoff is the per-attempt step for non rate-limit errors (default: 2s)
	ErrorBackoff time.Duration
}

const (
	DefaultMaxRetries        = 3
	DefaultInitialBackoff    = 20 * time.Second
	DefaultMaxBackoff        = 90 * time.Second
	DefaultBackoffMultiplier = 1.5
	DefaultErrorBackoff      = 2 * time.Second
)

// NewDefaultRetryConfig returns a RetryConfig with the default backoff
func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        DefaultMaxRetries,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
		ErrorBackoff:      DefaultErrorBackoff,
	}
}

// IsRateLimitError checks if an error is a provider rate limit error.
// Matches 429 status codes, RESOURCE_EXHAUSTED and rate_limit_error.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate_limit_error") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from an error.
// Returns 0 if no delay is found in the error message.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the rate-limit backoff for a given attempt.
// If apiDelay > 0 (from ExtractRetryDelay), it's used as the base.
// Otherwise, InitialBackoff is used. The result is capped at MaxBackoff.
func (c *RetryConfig) CalculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		// Use API-provided delay plus small buffer
		base = apiDelay + 5*time.Second
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}

	return backoff
}

// backoffFor picks the wait after a failed attempt
func (c *RetryConfig) backoffFor(attempt int, err error) time.Duration {
	if IsRateLimitError(err) {
		return c.CalculateBackoff(attempt, ExtractRetryDelay(err))
	}
	return time.Duration(attempt+1) * c.ErrorBackoff
}

// withRetry calls fn until it succeeds, retries are exhausted or ctx ends
func withRetry(ctx context.Context, cfg *RetryConfig, logger arbor.ILogger, provider string, fn func(ctx context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		text, err := fn(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if attempt == cfg.MaxRetries || ctx.Err() != nil {
			break
		}

		backoff := cfg.backoffFor(attempt, err)
		logger.Warn().
			Str("provider", provider).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(err).
			Msg("Retrying sentiment API call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", fmt.Errorf("%s API call failed after %d retries: %w", provider, cfg.MaxRetries, lastErr)
}
