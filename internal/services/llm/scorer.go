package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/murmur/internal/interfaces"
)

// completer sends one system + user exchange to a provider
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
}

// Scorer produces a 0-100 base sentiment for a set of texts through a
// model provider.
type Scorer struct {
	name    string
	model   string
	client  completer
	prompt  PromptConfig
	retry   *RetryConfig
	timeout time.Duration
	logger  arbor.ILogger
}

var _ interfaces.SentimentScorer = (*Scorer)(nil)

// Name returns the provider name
func (s *Scorer) Name() string {
	return s.name
}

// Model returns the configured model
func (s *Scorer) Model() string {
	return s.model
}

// Analyze returns the full assessment for texts
func (s *Scorer) Analyze(ctx context.Context, texts []string) (*Sentiment, error) {
	user, n := BuildUserPrompt(texts, s.prompt)
	if n == 0 {
		return nil, ErrNoTexts
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Str("provider", s.name).
		Str("model", s.model).
		Int("texts", n).
		Msg("Starting sentiment scoring")

	response, err := withRetry(timeoutCtx, s.retry, s.logger, s.name, func(ctx context.Context) (string, error) {
		return s.client.complete(ctx, SystemPrompt, user)
	})
	if err != nil {
		return nil, fmt.Errorf("sentiment scoring failed: %w", err)
	}

	sentiment, err := ParseSentiment(response)
	if err != nil {
		s.logger.Warn().
			Str("provider", s.name).
			Int("response_length", len(response)).
			Err(err).
			Msg("Unparseable sentiment response")
		return nil, err
	}

	s.logger.Info().
		Str("provider", s.name).
		Int("texts", n).
		Str("label", sentiment.Label).
		Dur("duration", time.Since(startTime)).
		Msg("Sentiment scored")

	return sentiment, nil
}

// Score returns only the sentiment index
func (s *Scorer) Score(ctx context.Context, texts []string) (float64, error) {
	sentiment, err := s.Analyze(ctx, texts)
	if err != nil {
		return 0, err
	}
	return sentiment.Index, nil
}
