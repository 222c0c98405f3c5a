package sentiment

import (
	"math"
	"strings"

	"github.com/ternarybob/murmur/internal/models"
)

// Weighting constants
const (
	BonusRatio   = 0.20
	MaxAIScore   = 100.0
	MaxInfluence = 10
	// MaxPossible is the ceiling of (ai + bonus) * weight
	MaxPossible = (MaxAIScore + MaxAIScore*BonusRatio) * MaxInfluence
)

// Influence tiers by author reach
const (
	ReachMajor  = 1_000_000
	ReachMedium = 100_000

	WeightMajor  = 10
	WeightMedium = 3
	WeightMinor  = 1
)

// BoostKeywords are corporate events that warrant the keyword bonus
var BoostKeywords = []string{"涨停", "重组", "入股", "并购", "收购", "增持", "回购"}

// InfluenceWeight maps author reach to 1, 3 or 10
func InfluenceWeight(reach int64) int {
	switch {
	case reach >= ReachMajor:
		return WeightMajor
	case reach >= ReachMedium:
		return WeightMedium
	default:
		return WeightMinor
	}
}

// DetectBoost reports whether text mentions a boost keyword, and which
func DetectBoost(text string) (bool, []string) {
	var found []string
	for _, kw := range BoostKeywords {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	return len(found) > 0, found
}

// Weighted combines a base AI score with the keyword bonus and influence
// weight. aiScore is clamped to [0,100] and weight to [1,10]; the final
// score is normalised by MaxPossible, capped at 100 and rounded to 2dp.
func Weighted(aiScore float64, boost bool, weight int) models.WeightedScore {
	if math.IsNaN(aiScore) {
		aiScore = 0
	}
	aiScore = math.Max(0, math.Min(MaxAIScore, aiScore))
	weight = max(WeightMinor, min(MaxInfluence, weight))

	bonus := 0.0
	if boost {
		bonus = aiScore * BonusRatio
	}
	weighted := (aiScore + bonus) * float64(weight)
	final := round2(math.Min(100, weighted/MaxPossible*100))

	return models.WeightedScore{
		AIScore:         aiScore,
		KeywordBonus:    bonus,
		InfluenceWeight: weight,
		WeightedScore:   weighted,
		FinalScore:      final,
	}
}

// ScorePost derives the bonus flag and influence weight from a post
func ScorePost(post models.Post, aiScore float64) models.WeightedScore {
	boost, keywords := DetectBoost(post.FullText())
	ws := Weighted(aiScore, boost, InfluenceWeight(post.AuthorReach))
	ws.BoostKeywords = keywords
	return ws
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
