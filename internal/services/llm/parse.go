package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNoSentiment is returned when a response carries no sentiment_index
	ErrNoSentiment = errors.New("response has no sentiment_index")

	// ErrNoTexts is returned when there is nothing to score
	ErrNoTexts = errors.New("no texts to score")
)

// Sentiment is the structured assessment a provider returns
type Sentiment struct {
	Index             float64  `json:"sentiment_index"`
	Label             string   `json:"sentiment_label,omitempty"`
	RiskPoints        []string `json:"risk_points,omitempty"`
	OpportunityPoints []string `json:"opportunity_points,omitempty"`
	Summary           string   `json:"summary,omitempty"`
	DataQualityNote   string   `json:"data_quality_note,omitempty"`
}

type rawSentiment struct {
	Index             json.RawMessage `json:"sentiment_index"`
	Label             string          `json:"sentiment_label"`
	RiskPoints        []string        `json:"risk_points"`
	OpportunityPoints []string        `json:"opportunity_points"`
	Summary           string          `json:"summary"`
	DataQualityNote   string          `json:"data_quality_note"`
}

// ParseSentiment extracts the assessment from a model response. Markdown
// fences and prose around the JSON object are ignored. The index is
// clamped to [0,100]; a missing or non-numeric index is an error, never a
// neutral default.
func ParseSentiment(text string) (*Sentiment, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response: %w", ErrNoSentiment)
	}

	var raw rawSentiment
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse sentiment JSON: %w", err)
	}

	index, err := parseIndex(raw.Index)
	if err != nil {
		return nil, err
	}

	return &Sentiment{
		Index:             index,
		Label:             strings.TrimSpace(raw.Label),
		RiskPoints:        raw.RiskPoints,
		OpportunityPoints: raw.OpportunityPoints,
		Summary:           strings.TrimSpace(raw.Summary),
		DataQualityNote:   strings.TrimSpace(raw.DataQualityNote),
	}, nil
}

func parseIndex(raw json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, ErrNoSentiment
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, fmt.Errorf("invalid sentiment_index %s: %w", s, ErrNoSentiment)
		}
		s = strings.TrimSpace(str)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid sentiment_index %s: %w", s, ErrNoSentiment)
	}
	return math.Max(0, math.Min(100, v)), nil
}
