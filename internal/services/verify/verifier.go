package verify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/murmur/internal/interfaces"
	"github.com/ternarybob/murmur/internal/models"
)

// Config controls fact fetching and scoring
type Config struct {
	Workers      int
	FetchTimeout time.Duration
	Criteria     Criteria
}

// DefaultConfig fetches up to 10 candidates at once with a 10s timeout each
func DefaultConfig() Config {
	return Config{
		Workers:      10,
		FetchTimeout: 10 * time.Second,
		Criteria:     DefaultCriteria(),
	}
}

// Result splits verified candidates by the retain threshold. Both lists
// keep the candidate rank order.
type Result struct {
	Retained []models.VerifiedCandidate
	Rejected []models.VerifiedCandidate
}

// Verifier cross-checks candidates against external facts
type Verifier struct {
	provider interfaces.FactsProvider
	cfg      Config
	logger   arbor.ILogger
}

// NewVerifier creates a verifier. A nil provider fails every fetch.
func NewVerifier(provider interfaces.FactsProvider, cfg Config, logger arbor.ILogger) *Verifier {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultConfig().FetchTimeout
	}
	return &Verifier{provider: provider, cfg: cfg, logger: logger}
}

type fetchResult struct {
	index int
	facts *models.Facts
	err   error
}

// Verify fetches facts for every candidate concurrently and scores them.
// Fetch failures and timeouts never abort the batch: the candidate is
// scored with no facts and annotated.
func (v *Verifier) Verify(ctx context.Context, candidates []models.Candidate) Result {
	fetched := make([]fetchResult, len(candidates))
	results := make(chan fetchResult, len(candidates))
	sem := make(chan struct{}, v.cfg.Workers)
	var wg sync.WaitGroup

	for i, c := range candidates {
		wg.Add(1)
		go func(i int, entity models.Entity) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			facts, err := v.fetch(ctx, entity)
			results <- fetchResult{index: i, facts: facts, err: err}
		}(i, c.Entity)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		fetched[r.index] = r
	}

	var out Result
	for i, c := range candidates {
		vc := v.score(c, fetched[i])
		if vc.Retained {
			out.Retained = append(out.Retained, vc)
		} else {
			out.Rejected = append(out.Rejected, vc)
		}
	}

	v.logger.Info().
		Int("candidates", len(candidates)).
		Int("retained", len(out.Retained)).
		Int("rejected", len(out.Rejected)).
		Msg("Candidate verification complete")

	return out
}

func (v *Verifier) score(c models.Candidate, r fetchResult) models.VerifiedCandidate {
	vc := models.VerifiedCandidate{Candidate: c, Facts: r.facts}
	if r.err != nil {
		vc.Facts = nil
		vc.Annotations = append(vc.Annotations, fmt.Sprintf("facts unavailable: %v", r.err))
		v.logger.Warn().
			Str("code", c.Entity.Code).
			Err(r.err).
			Msg("Facts fetch failed, scoring without facts")
	}

	vc.MatchScore, vc.Breakdown = MatchScore(vc.Facts, v.cfg.Criteria)
	vc.Retained = vc.MatchScore >= v.cfg.Criteria.RetainThreshold

	v.logger.Debug().
		Str("code", c.Entity.Code).
		Int("match_score", vc.MatchScore).
		Bool("retained", vc.Retained).
		Msg("Candidate verified")

	return vc
}

// ErrNoProvider is returned for fetches when no provider is configured
var ErrNoProvider = errors.New("no facts provider configured")

// fetch bounds one provider call by the fetch timeout, even when the
// provider ignores its context
func (v *Verifier) fetch(ctx context.Context, entity models.Entity) (*models.Facts, error) {
	if v.provider == nil {
		return nil, ErrNoProvider
	}

	fctx, cancel := context.WithTimeout(ctx, v.cfg.FetchTimeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fetchResult{err: fmt.Errorf("facts provider panic: %v", p)}
			}
		}()
		facts, err := v.provider.Fetch(fctx, entity)
		done <- fetchResult{facts: facts, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil && r.facts == nil {
			return nil, fmt.Errorf("no facts for %s", entity.Code)
		}
		return r.facts, r.err
	case <-fctx.Done():
		return nil, fmt.Errorf("fetch %s: %w", entity.Code, fctx.Err())
	}
}
