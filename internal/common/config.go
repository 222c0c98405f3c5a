package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Logging    LoggingConfig    `toml:"logging"`
	Storage    StorageConfig    `toml:"storage"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Noise      NoiseConfig      `toml:"noise"`
	Entities   EntitiesConfig   `toml:"entities"`
	Aggregate  AggregateConfig  `toml:"aggregate"`
	Verify     VerifyConfig     `toml:"verify"`
	MarketData MarketDataConfig `toml:"marketdata"`
	LLM        LLMConfig        `toml:"llm"`
	Gemini     GeminiConfig     `toml:"gemini"`
	Claude     ClaudeConfig     `toml:"claude"`
	Scheduler  SchedulerConfig  `toml:"scheduler"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error fatal"` // "debug", "info", "warn", "error"
	Output     []string `toml:"output" validate:"dive,oneof=stdout console file"`         // "stdout", "file"
	TimeFormat string   `toml:"time_format"`                                              // Time format for logs (default: "15:04:05")
	Dir        string   `toml:"dir"`                                                      // Log directory (default: "logs" beside the executable)
}

type StorageConfig struct {
	Enabled bool         `toml:"enabled"` // Persist reports and mention snapshots between runs
	Badger  BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// PipelineConfig controls the per-post stage pool
type PipelineConfig struct {
	Workers int `toml:"workers" validate:"min=1,max=256"` // Concurrent per-post workers
}

// NoiseConfig extends the built-in noise phrase lists and sets the thresholds
type NoiseConfig struct {
	ExtraMarketing      []string `toml:"extra_marketing"`                        // Added to the built-in marketing phrases
	ExtraContact        []string `toml:"extra_contact"`                          // Added to the built-in contact phrases
	ExtraHype           []string `toml:"extra_hype"`                             // Added to the built-in hype phrases
	MinInformativeRunes int      `toml:"min_informative_runes" validate:"min=0"` // Hype posts shorter than this are noise (default: 10)
	MaxPromoHits        int      `toml:"max_promo_hits" validate:"min=1"`        // Distinct promotional phrases that make a post noise (default: 3)
	EngagementGate      bool     `toml:"engagement_gate"`                        // Keep only posts above the reads percentile or with enough comments
	ReadsPercentile     float64  `toml:"reads_percentile" validate:"gte=0,lte=1"`
	MinComments         int64    `toml:"min_comments" validate:"min=0"`
}

// EntitiesConfig locates the reference table
type EntitiesConfig struct {
	TablePath    string `toml:"table_path"`                             // YAML name/code table; empty uses the built-in table
	CodePrefixes string `toml:"code_prefixes" validate:"required,numeric"` // Leading digits of valid six-digit codes (default: "036")
}

// AggregateConfig mirrors the admission and ranking parameters
type AggregateConfig struct {
	MinMentions     int     `toml:"min_mentions" validate:"min=1"`
	MinHighValue    int     `toml:"min_high_value" validate:"min=0"`
	MinCategories   int     `toml:"min_categories" validate:"min=1,max=3"`
	HighValueScore  int     `toml:"high_value_score" validate:"min=1,max=10"`
	TopK            int     `toml:"top_k" validate:"min=0"` // 0 keeps every admitted candidate
	AverageWeight   float64 `toml:"average_weight" validate:"gte=0"`
	DiversityWeight float64 `toml:"diversity_weight" validate:"gte=0"`
	MaxEvidence     int     `toml:"max_evidence" validate:"min=0"`
}

// VerifyConfig controls the fact check fan-out
type VerifyConfig struct {
	Workers         int    `toml:"workers" validate:"min=1,max=64"`
	FetchTimeout    string `toml:"fetch_timeout"`                          // Per-candidate fetch bound (default: "10s")
	RetainThreshold int    `toml:"retain_threshold" validate:"min=0,max=100"` // Minimum match score to retain (default: 60)
}

// MarketDataConfig selects the facts provider
type MarketDataConfig struct {
	Provider  string `toml:"provider" validate:"oneof=none file http"` // "none", "file" or "http"
	FactsFile string `toml:"facts_file" validate:"required_if=Provider file"`
	BaseURL   string `toml:"base_url" validate:"omitempty,url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit" validate:"min=0"` // Requests per second (default: 10)
	Timeout   string `toml:"timeout"`                     // HTTP timeout (default: "30s")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for scoring (default: "gemini-2.5-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "60s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for scoring (default: "claude-haiku-4-5")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 1024)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "60s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderNone disables model scoring
	LLMProviderNone LLMProvider = "none"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the sentiment scoring provider
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=none gemini claude"` // "none", "gemini" or "claude" (default: "none")
	MaxTexts        int         `toml:"max_texts" validate:"min=1"`                           // Posts included in one scoring prompt (default: 50)
	MaxTextRunes    int         `toml:"max_text_runes" validate:"min=1"`                      // Per-post truncation in the prompt (default: 200)
	MaxRetries      int         `toml:"max_retries" validate:"min=0,max=10"`                  // Retries on provider errors (default: 3)
}

// SchedulerConfig enables periodic runs
type SchedulerConfig struct {
	Schedule  string `toml:"schedule"`   // Cron expression; empty runs once
	PostsPath string `toml:"posts_path"` // Batch file re-read on every tick
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"file"}, // stdout carries the JSON report
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			Enabled: false, // Single runs need no history
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Pipeline: PipelineConfig{
			Workers: 8,
		},
		Noise: NoiseConfig{
			MinInformativeRunes: 10,
			MaxPromoHits:        3,
			EngagementGate:      false,
			ReadsPercentile:     0.7,
			MinComments:         5,
		},
		Entities: EntitiesConfig{
			CodePrefixes: "036", // Shanghai 6, Shenzhen 0 and ChiNext 3
		},
		Aggregate: AggregateConfig{
			MinMentions:     2,
			MinHighValue:    2,
			MinCategories:   2,
			HighValueScore:  7,
			TopK:            10,
			AverageWeight:   0.4,
			DiversityWeight: 2,
			MaxEvidence:     3,
		},
		Verify: VerifyConfig{
			Workers:         10,
			FetchTimeout:    "10s",
			RetainThreshold: 60,
		},
		MarketData: MarketDataConfig{
			Provider:  "none",
			RateLimit: 10,
			Timeout:   "30s",
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderNone,
			MaxTexts:        50,
			MaxTextRunes:    200,
			MaxRetries:      3,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Timeout:     "60s",
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-4-5",
			MaxTokens:   1024,
			Timeout:     "60s",
			Temperature: 0.2,
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied afterwards with ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if level := os.Getenv("MURMUR_LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}

	// Storage
	if path := os.Getenv("MURMUR_STORAGE_PATH"); path != "" {
		config.Storage.Badger.Path = path
		config.Storage.Enabled = true
	}

	if workers := os.Getenv("MURMUR_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Pipeline.Workers = w
		}
	}

	if table := os.Getenv("MURMUR_ENTITY_TABLE"); table != "" {
		config.Entities.TablePath = table
	}

	// Market data
	if provider := os.Getenv("MURMUR_FACTS_PROVIDER"); provider != "" {
		config.MarketData.Provider = strings.ToLower(provider)
	}
	if file := os.Getenv("MURMUR_FACTS_FILE"); file != "" {
		config.MarketData.FactsFile = file
	}
	if url := os.Getenv("MURMUR_MARKETDATA_URL"); url != "" {
		config.MarketData.BaseURL = url
	}
	if key := os.Getenv("MURMUR_MARKETDATA_API_KEY"); key != "" {
		config.MarketData.APIKey = key
	}

	// LLM
	if provider := os.Getenv("MURMUR_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}

	if schedule := os.Getenv("MURMUR_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, logLevel string, schedule string) {
	// Command-line flags have highest priority
	if logLevel != "" {
		config.Logging.Level = strings.ToLower(logLevel)
	}
	if schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// Validate checks struct constraints, duration strings and the schedule
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Storage.Enabled && c.Storage.Badger.Path == "" {
		return fmt.Errorf("invalid configuration: storage.badger.path is required when storage is enabled")
	}
	if c.MarketData.Provider == "http" && c.MarketData.BaseURL == "" {
		return fmt.Errorf("invalid configuration: marketdata.base_url is required for the http provider")
	}

	durations := map[string]string{
		"verify.fetch_timeout": c.Verify.FetchTimeout,
		"marketdata.timeout":   c.MarketData.Timeout,
		"gemini.timeout":       c.Gemini.Timeout,
		"claude.timeout":       c.Claude.Timeout,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s '%s': %w", name, value, err)
		}
	}

	if c.Scheduler.Schedule != "" {
		if err := ValidateSchedule(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid scheduler.schedule: %w", err)
		}
	}

	return nil
}

// ParseDurationOr parses a duration string, falling back when empty or invalid
func ParseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ResolveAPIKey resolves an API key by name with environment variable priority
// Resolution order: environment variables → config fallback → error
func ResolveAPIKey(name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"MURMUR_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"anthropic_api_key": {"MURMUR_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// ValidateSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	if strings.HasPrefix(schedule, "@") {
		// Descriptors: check the gap between the next two activations
		next := sched.Next(time.Now())
		if gap := sched.Next(next).Sub(next); gap < 5*time.Minute {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %v", gap)
		}
		return nil
	}

	parts := strings.Fields(schedule)
	if len(parts) != 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]

	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	// Check for */n patterns where n < 5
	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}
