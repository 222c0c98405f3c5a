package models

// Candidate aggregates every signal for one entity across a batch.
// Only entities clearing the admission rule become candidates.
type Candidate struct {
	Entity                Entity     `json:"entity"`
	MentionCount          int        `json:"mention_count"`
	DistinctCategoryCount int        `json:"distinct_category_count"`
	Categories            []Category `json:"categories"`
	AverageValueScore     float64    `json:"average_value_score"`
	HighValueSignalCount  int        `json:"high_value_signal_count"`
	Composite             float64    `json:"composite"`
	Evidence              []string   `json:"evidence,omitempty"`

	// MentionDelta is mentions in this run minus mentions in the previous
	// stored run, nil when no previous run exists
	MentionDelta *int `json:"mention_delta,omitempty"`
}

// Facts are externally supplied numeric facts for one entity.
// Nil pointers mean the value was missing or unparseable.
type Facts struct {
	Code             string   `json:"code"`
	FloatShares      *float64 `json:"float_shares,omitempty"`       // 10^8 shares
	FloatMarketValue *float64 `json:"float_market_value,omitempty"` // 10^8 currency units
	PE               *float64 `json:"pe,omitempty"`
	PB               *float64 `json:"pb,omitempty"`
	StateHolders     []string `json:"state_holders,omitempty"`
	HasStateHolder   *bool    `json:"has_state_holder,omitempty"`
	KDJState         string   `json:"kdj_state,omitempty"`  // e.g. "low", "high"
	MACDState        string   `json:"macd_state,omitempty"` // e.g. "golden_cross", "dead_cross"
}

// CriterionResult records one verification check
type CriterionResult struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	MaxPoints int    `json:"max_points"`
	Passed    bool   `json:"passed"`
	Detail    string `json:"detail"`
}

// VerifiedCandidate is a candidate cross-checked against numeric facts
type VerifiedCandidate struct {
	Candidate
	Facts       *Facts            `json:"facts,omitempty"`
	MatchScore  int               `json:"match_score"` // 0-100
	Breakdown   []CriterionResult `json:"breakdown"`
	Annotations []string          `json:"annotations,omitempty"`
	Retained    bool              `json:"retained"`
}

// WeightedScore is the weighted sentiment result for one post/author pair
type WeightedScore struct {
	AIScore         float64  `json:"ai_score"`
	KeywordBonus    float64  `json:"keyword_bonus"`
	InfluenceWeight int      `json:"influence_weight"`
	WeightedScore   float64  `json:"weighted_score"`
	FinalScore      float64  `json:"final_score"`
	BoostKeywords   []string `json:"boost_keywords,omitempty"`
}
