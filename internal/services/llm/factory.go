package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/murmur/internal/common"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultClaudeModel = "claude-haiku-4-5"
	defaultTimeout     = 60 * time.Second
	defaultMaxTokens   = 1024
)

// NewScorer creates the scorer selected by llm.default_provider. It
// returns nil without error when the provider is "none".
func NewScorer(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*Scorer, error) {
	switch cfg.LLM.DefaultProvider {
	case common.LLMProviderNone, "":
		logger.Debug().Msg("Sentiment scoring provider disabled")
		return nil, nil
	case common.LLMProviderGemini:
		return NewGeminiScorer(ctx, &cfg.Gemini, &cfg.LLM, logger)
	case common.LLMProviderClaude:
		return NewClaudeScorer(&cfg.Claude, &cfg.LLM, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.DefaultProvider)
	}
}

func newScorer(name, model string, client completer, llmConfig *common.LLMConfig, timeout string, logger arbor.ILogger) *Scorer {
	retry := NewDefaultRetryConfig()
	prompt := DefaultPromptConfig()
	if llmConfig != nil {
		retry.MaxRetries = llmConfig.MaxRetries
		if llmConfig.MaxTexts > 0 {
			prompt.MaxTexts = llmConfig.MaxTexts
		}
		if llmConfig.MaxTextRunes > 0 {
			prompt.MaxTextRunes = llmConfig.MaxTextRunes
		}
	}

	return &Scorer{
		name:    name,
		model:   model,
		client:  client,
		prompt:  prompt,
		retry:   retry,
		timeout: common.ParseDurationOr(timeout, defaultTimeout),
		logger:  logger,
	}
}

// NewGeminiScorer creates a Gemini-backed scorer
func NewGeminiScorer(ctx context.Context, geminiConfig *common.GeminiConfig, llmConfig *common.LLMConfig, logger arbor.ILogger) (*Scorer, error) {
	apiKey, err := common.ResolveAPIKey("gemini_api_key", geminiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Gemini API key is required (set via MURMUR_GEMINI_API_KEY, GEMINI_API_KEY or gemini.api_key in config): %w", err)
	}

	model := geminiConfig.Model
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	scorer := newScorer(GeminiProvider, model, &geminiCompleter{
		client:      client,
		model:       model,
		temperature: geminiConfig.Temperature,
	}, llmConfig, geminiConfig.Timeout, logger)

	logger.Debug().
		Str("model", model).
		Dur("timeout", scorer.timeout).
		Float32("temperature", geminiConfig.Temperature).
		Msg("Gemini sentiment scorer initialized")

	return scorer, nil
}

// NewClaudeScorer creates a Claude-backed scorer
func NewClaudeScorer(claudeConfig *common.ClaudeConfig, llmConfig *common.LLMConfig, logger arbor.ILogger) (*Scorer, error) {
	apiKey, err := common.ResolveAPIKey("anthropic_api_key", claudeConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API key is required (set via MURMUR_CLAUDE_API_KEY, ANTHROPIC_API_KEY or claude.api_key in config): %w", err)
	}

	model := claudeConfig.Model
	if model == "" {
		model = defaultClaudeModel
	}

	maxTokens := claudeConfig.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	scorer := newScorer(ClaudeProvider, model, &claudeCompleter{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		maxTokens:   maxTokens,
		temperature: claudeConfig.Temperature,
	}, llmConfig, claudeConfig.Timeout, logger)

	logger.Debug().
		Str("model", model).
		Dur("timeout", scorer.timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude sentiment scorer initialized")

	return scorer, nil
}
