// -----------------------------------------------------------------------
// Last Modified: Wednesday, 14th October 2026 11:40:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/murmur/internal/app"
	"github.com/ternarybob/murmur/internal/common"
	"github.com/ternarybob/murmur/internal/models"
	"github.com/ternarybob/murmur/internal/services/report"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	postsPath    = flag.String("posts", "", "Batch file of posts (JSON array or JSON Lines)")
	factsPath    = flag.String("facts", "", "Facts file keyed by code (selects the file provider)")
	modeFlag     = flag.String("mode", "candidates", "Output mode: candidates or sentiment")
	scheduleFlag = flag.String("schedule", "", "Cron expression; re-runs the batch file on schedule instead of once")
	outPath      = flag.String("out", "", "Write reports to this file instead of stdout")
	formatFlag   = flag.String("format", "json", "Report format: json, markdown or html")
	logLevel     = flag.String("log-level", "", "Log level (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()
	common.LoadVersionFromFile()

	if *showVersion || *showVersionV {
		fmt.Printf("Murmur version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Validate
	// 4. Initialize logger
	// 5. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("murmur.toml"); err == nil {
			configFiles = append(configFiles, "murmur.toml")
		} else if _, err := os.Stat("deployments/local/murmur.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/murmur.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		// Use temporary logger for startup errors
		tempLogger := common.GetLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *logLevel, *scheduleFlag)
	if *factsPath != "" {
		config.MarketData.Provider = "file"
		config.MarketData.FactsFile = *factsPath
	}
	if *postsPath != "" {
		config.Scheduler.PostsPath = *postsPath
	}

	if err := config.Validate(); err != nil {
		common.GetLogger().Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	mode, err := app.ParseMode(*modeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	switch *formatFlag {
	case "json", "markdown", "html":
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q: expected json, markdown or html\n", *formatFlag)
		os.Exit(2)
	}
	if config.Scheduler.PostsPath == "" {
		fmt.Fprintln(os.Stderr, "a batch file is required: -posts <file> or scheduler.posts_path")
		os.Exit(2)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(config, logger)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("posts", config.Scheduler.PostsPath).
		Str("mode", string(mode)).
		Str("format", *formatFlag).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Str("log_file", common.GetLogFilePath(logger)).
		Msg("Resolved configuration")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	out := io.Writer(os.Stdout)
	if *outPath != "" {
		f, err := os.OpenFile(*outPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *outPath).Msg("Failed to open output file")
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	emit := newEmitter(out, *formatFlag)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Scheduler.Schedule == "" {
		result, err := application.Run(ctx, config.Scheduler.PostsPath, mode)
		if err != nil {
			logger.Error().Err(err).Str("posts", config.Scheduler.PostsPath).Msg("Run failed")
			application.Close()
			os.Exit(1)
		}
		if err := emit(result); err != nil {
			logger.Error().Err(err).Msg("Failed to write report")
			application.Close()
			os.Exit(1)
		}
		return
	}

	if err := application.Schedule(config.Scheduler.Schedule, config.Scheduler.PostsPath, mode, emit); err != nil {
		logger.Fatal().Err(err).Str("schedule", config.Scheduler.Schedule).Msg("Failed to start scheduler")
		os.Exit(1)
	}

	logger.Info().
		Str("schedule", config.Scheduler.Schedule).
		Msg("Scheduler running - Press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info().Msg("Interrupt signal received, shutting down")
}

// newEmitter writes each result as one indented JSON document, or as a
// Markdown or HTML report
func newEmitter(w io.Writer, format string) func(interface{}) error {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return func(result interface{}) error {
		mu.Lock()
		defer mu.Unlock()

		if format == "json" {
			return enc.Encode(result)
		}

		var title, md string
		switch r := result.(type) {
		case *models.Report:
			title, md = "Candidate Report "+r.RunID, report.CandidatesMarkdown(r)
		case *app.SentimentReport:
			title, md = "Weighted Sentiment", report.SentimentMarkdown(r.Provider, r.BaseScore, r.Summary, r.Annotations)
		default:
			return fmt.Errorf("cannot render %T as %s", result, format)
		}

		if format == "html" {
			page, err := report.HTML(title, md)
			if err != nil {
				return err
			}
			md = page
		}
		_, err := io.WriteString(w, md)
		return err
	}
}
