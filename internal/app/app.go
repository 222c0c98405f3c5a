// -----------------------------------------------------------------------
// Last Modified: Wednesday, 14th October 2026 11:05:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/murmur/internal/common"
	"github.com/ternarybob/murmur/internal/interfaces"
	"github.com/ternarybob/murmur/internal/models"
	"github.com/ternarybob/murmur/internal/services/aggregate"
	"github.com/ternarybob/murmur/internal/services/classify"
	"github.com/ternarybob/murmur/internal/services/entities"
	"github.com/ternarybob/murmur/internal/services/evidence"
	"github.com/ternarybob/murmur/internal/services/ingest"
	"github.com/ternarybob/murmur/internal/services/llm"
	"github.com/ternarybob/murmur/internal/services/marketdata"
	"github.com/ternarybob/murmur/internal/services/noise"
	"github.com/ternarybob/murmur/internal/services/pipeline"
	"github.com/ternarybob/murmur/internal/services/scheduler"
	"github.com/ternarybob/murmur/internal/services/sentiment"
	"github.com/ternarybob/murmur/internal/services/verify"
	"github.com/ternarybob/murmur/internal/storage"
)

// Mode selects what a run produces
type Mode string

const (
	ModeCandidates Mode = "candidates"
	ModeSentiment  Mode = "sentiment"
)

// ParseMode validates a mode flag value
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeCandidates, "":
		return ModeCandidates, nil
	case ModeSentiment:
		return ModeSentiment, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected candidates or sentiment)", value)
	}
}

// SentimentReport is the output of a sentiment mode run
type SentimentReport struct {
	Provider    string            `json:"provider,omitempty"`
	BaseScore   *float64          `json:"base_score,omitempty"` // shared score from the LLM scorer
	Summary     sentiment.Summary `json:"summary"`
	Annotations []string          `json:"annotations,omitempty"`
}

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	ctx            context.Context
	cancelCtx      context.CancelFunc
	StorageManager interfaces.StorageManager

	Resolver   *entities.Resolver
	Classifier *classify.Classifier
	Facts      interfaces.FactsProvider
	Scorer     interfaces.SentimentScorer
	Engine     *pipeline.Engine

	SchedulerService interfaces.SchedulerService
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:     cfg,
		Logger:     logger,
		ctx:        ctx,
		cancelCtx:  cancel,
		Classifier: classify.Default(),
	}

	if err := app.initEntities(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize entities: %w", err)
	}

	if err := app.initFacts(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize facts provider: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initScorer(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize sentiment scorer: %w", err)
	}

	var runs interfaces.RunStorage
	if app.StorageManager != nil {
		runs = app.StorageManager.RunStorage()
	}
	app.Engine = pipeline.NewEngine(PipelineConfig(cfg), app.Resolver, app.Classifier, app.Facts, runs, logger)

	logger.Info().
		Str("facts", cfg.MarketData.Provider).
		Bool("storage", app.StorageManager != nil).
		Bool("scorer", app.Scorer != nil).
		Msg("Application initialized")

	return app, nil
}

func (a *App) initEntities() error {
	pattern, err := entities.NewCodePattern(a.Config.Entities.CodePrefixes)
	if err != nil {
		return err
	}

	table := entities.DefaultTable(pattern)
	if a.Config.Entities.TablePath != "" {
		table, err = entities.LoadTable(a.Config.Entities.TablePath, pattern, a.Logger)
		if err != nil {
			return err
		}
	}

	a.Resolver = entities.NewResolver(pattern, table)
	a.Logger.Debug().Int("entities", table.Len()).Msg("Entity table loaded")
	return nil
}

func (a *App) initFacts() error {
	md := a.Config.MarketData
	provider := md.Provider
	if provider == "none" && md.BaseURL != "" {
		provider = "http"
	}

	switch provider {
	case "", "none":
		a.Logger.Warn().Msg("No facts provider configured, every candidate will fail verification")
	case "file":
		fp, err := marketdata.LoadFileProvider(md.FactsFile)
		if err != nil {
			return err
		}
		a.Facts = fp
		a.Logger.Debug().Str("path", md.FactsFile).Int("codes", fp.Len()).Msg("Facts file loaded")
	case "http":
		a.Facts = marketdata.NewClient(md.APIKey,
			marketdata.WithBaseURL(md.BaseURL),
			marketdata.WithRateLimit(md.RateLimit),
			marketdata.WithLogger(a.Logger),
			marketdata.WithHTTPClient(&http.Client{
				Timeout: common.ParseDurationOr(md.Timeout, marketdata.DefaultTimeout),
			}),
		)
	default:
		return fmt.Errorf("unsupported facts provider: %s", provider)
	}
	return nil
}

func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	if storageManager == nil {
		return nil
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

func (a *App) initScorer() error {
	scorer, err := llm.NewScorer(a.ctx, a.Config, a.Logger)
	if err != nil {
		return err
	}
	if scorer != nil {
		a.Scorer = scorer
	}
	return nil
}

// PipelineConfig maps the file configuration onto the stage configurations
func PipelineConfig(cfg *common.Config) pipeline.Config {
	pc := pipeline.DefaultConfig()
	pc.Workers = cfg.Pipeline.Workers

	pc.Noise = noise.DefaultConfig()
	pc.Noise.Marketing = append(pc.Noise.Marketing, cfg.Noise.ExtraMarketing...)
	pc.Noise.Contact = append(pc.Noise.Contact, cfg.Noise.ExtraContact...)
	pc.Noise.Hype = append(pc.Noise.Hype, cfg.Noise.ExtraHype...)
	pc.Noise.MinInformativeRunes = cfg.Noise.MinInformativeRunes
	pc.Noise.MaxPromoHits = cfg.Noise.MaxPromoHits

	pc.Engagement = noise.EngagementGate{
		Enabled:         cfg.Noise.EngagementGate,
		ReadsPercentile: cfg.Noise.ReadsPercentile,
		MinComments:     cfg.Noise.MinComments,
	}

	pc.Evidence = evidence.DefaultConfig()

	pc.Aggregate = aggregate.Config{
		MinMentions:     cfg.Aggregate.MinMentions,
		MinHighValue:    cfg.Aggregate.MinHighValue,
		MinCategories:   cfg.Aggregate.MinCategories,
		HighValueScore:  cfg.Aggregate.HighValueScore,
		TopK:            cfg.Aggregate.TopK,
		AverageWeight:   cfg.Aggregate.AverageWeight,
		DiversityWeight: cfg.Aggregate.DiversityWeight,
		MaxEvidence:     cfg.Aggregate.MaxEvidence,
	}

	pc.Verify = verify.DefaultConfig()
	pc.Verify.Workers = cfg.Verify.Workers
	pc.Verify.FetchTimeout = common.ParseDurationOr(cfg.Verify.FetchTimeout, pc.Verify.FetchTimeout)
	pc.Verify.Criteria.RetainThreshold = cfg.Verify.RetainThreshold

	return pc
}

// Run loads a batch file and processes it in the given mode. The result is
// a *models.Report or a *SentimentReport.
func (a *App) Run(ctx context.Context, postsPath string, mode Mode) (interface{}, error) {
	loaded, err := ingest.LoadPosts(postsPath, a.Logger)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeSentiment:
		return a.RunSentiment(ctx, loaded.Posts), nil
	default:
		return a.Engine.Run(ctx, loaded.Posts)
	}
}

// RunCandidates runs the signal pipeline over posts
func (a *App) RunCandidates(ctx context.Context, posts []models.Post) (*models.Report, error) {
	return a.Engine.Run(ctx, posts)
}

// RunSentiment summarises the weighted sentiment of posts. Posts carrying
// their own ai_score use it; the rest share one score from the configured
// scorer, or are excluded when none is available.
func (a *App) RunSentiment(ctx context.Context, posts []models.Post) *SentimentReport {
	report := &SentimentReport{}

	var texts []string
	for _, p := range posts {
		if p.AIScore == nil {
			texts = append(texts, p.FullText())
		}
	}

	if len(texts) > 0 {
		switch {
		case a.Scorer == nil:
			report.Annotations = append(report.Annotations,
				fmt.Sprintf("%d posts have no ai_score and no scorer is configured; excluded", len(texts)))
		default:
			report.Provider = a.Scorer.Name()
			score, err := a.Scorer.Score(ctx, texts)
			if err != nil {
				a.Logger.Warn().Err(err).Str("provider", a.Scorer.Name()).Msg("Sentiment scoring failed")
				report.Annotations = append(report.Annotations,
					fmt.Sprintf("sentiment scoring failed (%v); %d posts excluded", err, len(texts)))
			} else {
				report.BaseScore = &score
			}
		}
	}

	report.Summary = sentiment.Summarize(posts, report.BaseScore, sentiment.DefaultSummaryLimit)

	a.Logger.Info().
		Int("posts", len(posts)).
		Int("scored", report.Summary.Count).
		Int("skipped", report.Summary.Skipped).
		Msg("Sentiment summary complete")

	return report
}

// Schedule runs the batch file on a cron schedule, starting with an
// immediate run. emit receives each result.
func (a *App) Schedule(schedule, postsPath string, mode Mode, emit func(interface{}) error) error {
	a.SchedulerService = scheduler.NewService(a.Logger)

	err := a.SchedulerService.RegisterJob("pipeline", schedule, "Process "+postsPath, true, func() error {
		result, err := a.Run(a.ctx, postsPath, mode)
		if err != nil {
			return err
		}
		return emit(result)
	})
	if err != nil {
		return err
	}

	return a.SchedulerService.Start()
}

// Close shuts down the application
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.cancelCtx()
	}

	// Stop scheduler service
	if a.SchedulerService != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := a.SchedulerService.Stop(stopCtx); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
		cancel()
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
