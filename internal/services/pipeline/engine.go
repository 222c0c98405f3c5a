package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/murmur/internal/common"
	"github.com/ternarybob/murmur/internal/interfaces"
	"github.com/ternarybob/murmur/internal/models"
	"github.com/ternarybob/murmur/internal/services/aggregate"
	"github.com/ternarybob/murmur/internal/services/classify"
	"github.com/ternarybob/murmur/internal/services/entities"
	"github.com/ternarybob/murmur/internal/services/evidence"
	"github.com/ternarybob/murmur/internal/services/noise"
	"github.com/ternarybob/murmur/internal/services/scoring"
	"github.com/ternarybob/murmur/internal/services/verify"
)

// Config assembles the stage configurations
type Config struct {
	Workers    int
	Noise      noise.Config
	Engagement noise.EngagementGate
	Evidence   evidence.Config
	Aggregate  aggregate.Config
	Verify     verify.Config
}

// DefaultConfig returns the default stage configurations
func DefaultConfig() Config {
	return Config{
		Workers:    8,
		Noise:      noise.DefaultConfig(),
		Engagement: noise.DefaultEngagementGate(),
		Evidence:   evidence.DefaultConfig(),
		Aggregate:  aggregate.DefaultConfig(),
		Verify:     verify.DefaultConfig(),
	}
}

// Outcome is where a post left the per-post stages
type Outcome string

const (
	OutcomeNoise        Outcome = "noise"
	OutcomeUnresolved   Outcome = "unresolved"
	OutcomeUnclassified Outcome = "unclassified"
	OutcomeSignals      Outcome = "signals"
)

// PostAnalysis is the per-post trace through noise, entities, categories,
// evidence and value
type PostAnalysis struct {
	PostID   string            `json:"post_id"`
	Outcome  Outcome           `json:"outcome"`
	Verdict  noise.Verdict     `json:"verdict"`
	Entities []models.Entity   `json:"entities,omitempty"`
	Ranking  []classify.Ranked `json:"ranking,omitempty"`
	Evidence string            `json:"evidence,omitempty"`
	Value    scoring.Result    `json:"value"`
	Signals  []models.Signal   `json:"signals,omitempty"`
}

// Engine runs the signal extraction and scoring pipeline
type Engine struct {
	cfg        Config
	filter     *noise.Filter
	resolver   *entities.Resolver
	classifier *classify.Classifier
	extractor  *evidence.Extractor
	aggregator *aggregate.Aggregator
	verifier   *verify.Verifier
	store      interfaces.RunStorage
	logger     arbor.ILogger
}

// NewEngine wires the stages. facts and store may be nil: without facts
// every candidate fails verification, without a store no momentum is
// computed and nothing is persisted.
func NewEngine(cfg Config, resolver *entities.Resolver, classifier *classify.Classifier, facts interfaces.FactsProvider, store interfaces.RunStorage, logger arbor.ILogger) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Engine{
		cfg:        cfg,
		filter:     noise.NewFilter(cfg.Noise),
		resolver:   resolver,
		classifier: classifier,
		extractor:  evidence.NewExtractor(cfg.Evidence),
		aggregator: aggregate.NewAggregator(cfg.Aggregate),
		verifier:   verify.NewVerifier(facts, cfg.Verify, logger),
		store:      store,
		logger:     logger,
	}
}

// Analyze runs one post through the per-post stages. Pure.
func (e *Engine) Analyze(post models.Post) PostAnalysis {
	a := PostAnalysis{PostID: post.ID}
	text := noise.Normalize(post.FullText())

	a.Verdict = e.filter.Check(text)
	if !a.Verdict.Keep {
		a.Outcome = OutcomeNoise
		return a
	}

	a.Entities = e.resolver.Resolve(text)
	if len(a.Entities) == 0 {
		a.Outcome = OutcomeUnresolved
		return a
	}

	a.Ranking = e.classifier.Classify(text)
	if len(a.Ranking) == 0 {
		a.Outcome = OutcomeUnclassified
		return a
	}

	best := a.Ranking[0].Category
	a.Evidence = e.extractor.Extract(text, e.classifier.Keywords(best))
	a.Value = scoring.Score(text, len(a.Ranking), a.Evidence)

	for _, entity := range a.Entities {
		a.Signals = append(a.Signals, models.Signal{
			PostID:     post.ID,
			Entity:     entity,
			Category:   best,
			Evidence:   a.Evidence,
			ValueScore: a.Value.Score,
		})
	}
	a.Outcome = OutcomeSignals
	return a
}

// Run processes a batch: per-post stages in parallel, then aggregation,
// momentum against the previous stored run, and verification. An empty
// result is valid. The only error is context cancellation before
// aggregation.
func (e *Engine) Run(ctx context.Context, posts []models.Post) (*models.Report, error) {
	report := &models.Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	report.Stats.Posts = len(posts)

	prepared := make([]models.Post, len(posts))
	for i, p := range posts {
		p = p.Sanitize()
		if p.ID == "" {
			p.ID = fmt.Sprintf("post-%d", i+1)
		}
		prepared[i] = p
	}
	prepared, report.Stats.Duplicates = noise.Deduplicate(prepared)
	gated := e.cfg.Engagement.Apply(prepared)
	report.Stats.Noise = len(prepared) - len(gated)

	analyses, err := e.analyzeAll(ctx, gated)
	if err != nil {
		return nil, err
	}

	var signals []models.Signal
	for _, a := range analyses {
		switch a.Outcome {
		case OutcomeNoise:
			report.Stats.Noise++
		case OutcomeUnresolved:
			report.Stats.Unresolved++
		case OutcomeUnclassified:
			report.Stats.Unclassified++
		}
		signals = append(signals, a.Signals...)
	}
	report.Stats.Signals = len(signals)

	tallies := e.aggregator.Group(signals)
	report.Stats.Entities = len(tallies)
	report.Candidates = e.aggregator.Aggregate(signals)

	e.applyMomentum(ctx, report.Candidates)

	verification := e.verifier.Verify(ctx, report.Candidates)
	report.Verified = verification.Retained
	report.Rejected = verification.Rejected
	report.FinishedAt = time.Now()

	e.persist(ctx, report, tallies)

	e.logger.Info().
		Str("run_id", report.RunID).
		Int("posts", report.Stats.Posts).
		Int("signals", report.Stats.Signals).
		Int("candidates", len(report.Candidates)).
		Int("verified", len(report.Verified)).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Pipeline run complete")

	return report, nil
}

// analyzeAll fans posts out over a bounded pool. Results keep post order.
func (e *Engine) analyzeAll(ctx context.Context, posts []models.Post) ([]PostAnalysis, error) {
	results := make([]PostAnalysis, len(posts))
	sem := make(chan struct{}, e.cfg.Workers)
	var wg sync.WaitGroup

	for i := range posts {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, fmt.Errorf("pipeline cancelled: %w", err)
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, fmt.Errorf("pipeline cancelled: %w", ctx.Err())
		case sem <- struct{}{}:
		}

		i := i
		common.SafeGoGroup(&wg, e.logger, "analyze:"+posts[i].ID, func() {
			defer func() { <-sem }()
			results[i] = e.Analyze(posts[i])
		})
	}
	wg.Wait()

	return results, nil
}

func (e *Engine) applyMomentum(ctx context.Context, candidates []models.Candidate) {
	if e.store == nil || len(candidates) == 0 {
		return
	}

	prev, err := e.store.LatestSnapshot(ctx)
	if errors.Is(err, interfaces.ErrNotFound) {
		return
	}
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to load previous mention snapshot")
		return
	}

	for i := range candidates {
		delta := candidates[i].MentionCount - prev.Mentions[candidates[i].Entity.Code]
		candidates[i].MentionDelta = &delta
	}
}

func (e *Engine) persist(ctx context.Context, report *models.Report, tallies []aggregate.Tally) {
	if e.store == nil {
		return
	}

	if err := e.store.SaveReport(ctx, report); err != nil {
		e.logger.Warn().Err(err).Str("run_id", report.RunID).Msg("Failed to save report")
	}

	snapshot := &models.MentionSnapshot{
		RunID:    report.RunID,
		TakenAt:  report.FinishedAt,
		Mentions: make(map[string]int, len(tallies)),
	}
	for _, t := range tallies {
		snapshot.Mentions[t.Entity.Code] = t.MentionCount
	}
	if err := e.store.SaveSnapshot(ctx, snapshot); err != nil {
		e.logger.Warn().Err(err).Str("run_id", report.RunID).Msg("Failed to save mention snapshot")
	}
}
