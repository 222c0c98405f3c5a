package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider is the Scorer name for Google Gemini
const GeminiProvider = "gemini"

type geminiCompleter struct {
	client      *genai.Client
	model       string
	temperature float32
}

// sentimentSchema constrains Gemini output to the assessment object
func sentimentSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"sentiment_index": {
				Type:        genai.TypeNumber,
				Description: "Bullish sentiment from 0 (extremely pessimistic) to 100 (extremely optimistic)",
			},
			"sentiment_label": {
				Type:        genai.TypeString,
				Description: "Short sentiment label",
			},
			"risk_points": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"opportunity_points": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"summary": {
				Type:        genai.TypeString,
				Description: "One sentence grounded in the posts",
			},
			"data_quality_note": {
				Type: genai.TypeString,
			},
		},
		Required: []string{"sentiment_index", "sentiment_label", "summary"},
	}
}

func (g *geminiCompleter) complete(ctx context.Context, system, user string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(g.temperature),
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    sentimentSchema(),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(user, genai.RoleUser),
	}, config)
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}
	return text, nil
}
