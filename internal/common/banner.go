package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and the resolved run settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("Murmur", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("facts_provider", config.MarketData.Provider).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Bool("storage", config.Storage.Enabled).
		Str("schedule", config.Scheduler.Schedule).
		Msg("Murmur starting")
}
