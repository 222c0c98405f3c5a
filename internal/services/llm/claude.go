package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// ClaudeProvider is the Scorer name for Anthropic Claude
const ClaudeProvider = "claude"

type claudeCompleter struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float32
}

func (c *claudeCompleter) complete(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
	}

	if c.temperature > 0 {
		params.Temperature = anthropic.Float(float64(c.temperature))
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}
	return response.String(), nil
}
