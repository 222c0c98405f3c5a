package aggregate

import (
	"sort"

	"github.com/ternarybob/murmur/internal/models"
	"github.com/ternarybob/murmur/internal/services/evidence"
)

// Config holds the admission thresholds and ranking weights
type Config struct {
	MinMentions     int     `toml:"min_mentions"`
	MinHighValue    int     `toml:"min_high_value"`
	MinCategories   int     `toml:"min_categories"`
	HighValueScore  int     `toml:"high_value_score"` // signals at or above count as high value
	TopK            int     `toml:"top_k"`
	AverageWeight   float64 `toml:"average_weight"`
	DiversityWeight float64 `toml:"diversity_weight"`
	MaxEvidence     int     `toml:"max_evidence"` // fragments carried per candidate
}

// DefaultConfig requires corroboration from two high-value signals across
// two categories
func DefaultConfig() Config {
	return Config{
		MinMentions:     2,
		MinHighValue:    2,
		MinCategories:   2,
		HighValueScore:  7,
		TopK:            10,
		AverageWeight:   0.4,
		DiversityWeight: 2,
		MaxEvidence:     3,
	}
}

// Tally is the per-entity reduction of a batch, admitted or not
type Tally struct {
	Entity                models.Entity
	MentionCount          int
	DistinctCategoryCount int
	Categories            []models.Category
	AverageValueScore     float64
	HighValueSignalCount  int
	signals               []models.Signal
}

// Aggregator groups signals by entity and ranks admitted candidates
type Aggregator struct {
	cfg Config
}

// NewAggregator creates an aggregator
func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Group reduces signals to one tally per entity code, sorted by code
func (a *Aggregator) Group(signals []models.Signal) []Tally {
	byCode := make(map[string]*Tally)
	for _, s := range signals {
		t, ok := byCode[s.Entity.Code]
		if !ok {
			t = &Tally{Entity: s.Entity}
			byCode[s.Entity.Code] = t
		}
		if t.Entity.Name == "" && s.Entity.Name != "" {
			t.Entity.Name = s.Entity.Name
		}
		t.signals = append(t.signals, s)
	}

	tallies := make([]Tally, 0, len(byCode))
	for _, t := range byCode {
		cats := make(map[models.Category]bool)
		sum := 0
		for _, s := range t.signals {
			cats[s.Category] = true
			sum += s.ValueScore
			if s.ValueScore >= a.cfg.HighValueScore {
				t.HighValueSignalCount++
			}
		}
		t.MentionCount = len(t.signals)
		t.DistinctCategoryCount = len(cats)
		for _, c := range models.AllCategories {
			if cats[c] {
				t.Categories = append(t.Categories, c)
			}
		}
		t.AverageValueScore = float64(sum) / float64(t.MentionCount)
		tallies = append(tallies, *t)
	}

	sort.Slice(tallies, func(i, j int) bool {
		return tallies[i].Entity.Code < tallies[j].Entity.Code
	})
	return tallies
}

// Admit applies the admission rule: enough mentions, enough high-value
// signals and more than one analytical lens
func (a *Aggregator) Admit(t Tally) bool {
	return t.MentionCount >= a.cfg.MinMentions &&
		t.HighValueSignalCount >= a.cfg.MinHighValue &&
		t.DistinctCategoryCount >= a.cfg.MinCategories
}

// Composite is the ranking score: average value weighted plus a diversity bonus
func (a *Aggregator) Composite(t Tally) float64 {
	return t.AverageValueScore*a.cfg.AverageWeight + float64(t.DistinctCategoryCount)*a.cfg.DiversityWeight
}

// Aggregate returns admitted candidates ranked by composite desc, mention
// count desc, code asc, truncated to TopK
func (a *Aggregator) Aggregate(signals []models.Signal) []models.Candidate {
	var candidates []models.Candidate
	for _, t := range a.Group(signals) {
		if !a.Admit(t) {
			continue
		}
		candidates = append(candidates, models.Candidate{
			Entity:                t.Entity,
			MentionCount:          t.MentionCount,
			DistinctCategoryCount: t.DistinctCategoryCount,
			Categories:            t.Categories,
			AverageValueScore:     t.AverageValueScore,
			HighValueSignalCount:  t.HighValueSignalCount,
			Composite:             a.Composite(t),
			Evidence:              a.topEvidence(t.signals),
		})
	}

	Rank(candidates)

	if a.cfg.TopK > 0 && len(candidates) > a.cfg.TopK {
		candidates = candidates[:a.cfg.TopK]
	}
	return candidates
}

// Rank sorts candidates in place by composite desc, mention count desc,
// code asc
func Rank(candidates []models.Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.Composite != cj.Composite {
			return ci.Composite > cj.Composite
		}
		if ci.MentionCount != cj.MentionCount {
			return ci.MentionCount > cj.MentionCount
		}
		return ci.Entity.Code < cj.Entity.Code
	})
}

// topEvidence picks the distinct concrete fragments of the highest-value
// signals
func (a *Aggregator) topEvidence(signals []models.Signal) []string {
	if a.cfg.MaxEvidence <= 0 {
		return nil
	}
	sorted := make([]models.Signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ValueScore > sorted[j].ValueScore
	})

	var out []string
	seen := make(map[string]bool)
	for _, s := range sorted {
		if !evidence.IsConcrete(s.Evidence) || seen[s.Evidence] {
			continue
		}
		seen[s.Evidence] = true
		out = append(out, s.Evidence)
		if len(out) == a.cfg.MaxEvidence {
			break
		}
	}
	return out
}
