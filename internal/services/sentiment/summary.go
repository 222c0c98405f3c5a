package sentiment

import (
	"math"
	"sort"

	"github.com/ternarybob/murmur/internal/models"
)

// DefaultSummaryLimit is the number of most influential posts summarised
const DefaultSummaryLimit = 50

// ScoredPost is a weighted score attributed to its post
type ScoredPost struct {
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id,omitempty"`
	Reach    int64  `json:"reach"`
	Likes    int64  `json:"likes"`
	Reposts  int64  `json:"reposts"`
	models.WeightedScore
}

// Summary describes the weighted sentiment of a batch
type Summary struct {
	Count   int          `json:"count"`
	Skipped int          `json:"skipped"` // posts with no AI score available
	Mean    float64      `json:"mean"`
	Min     float64      `json:"min"`
	Max     float64      `json:"max"`
	StdDev  float64      `json:"std_dev"`
	Tiers   map[int]int  `json:"tiers"` // influence weight -> posts
	Posts   []ScoredPost `json:"posts"`
}

// Summarize ranks posts by influence weight, likes and reposts, keeps the
// top limit and scores each. A post's own AIScore is used when present,
// otherwise base; posts with neither are skipped, never scored as neutral.
func Summarize(posts []models.Post, base *float64, limit int) Summary {
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}

	type ranked struct {
		post   models.Post
		weight int
	}
	candidates := make([]ranked, 0, len(posts))
	summary := Summary{Tiers: make(map[int]int)}
	for _, p := range posts {
		if p.AIScore == nil && base == nil {
			summary.Skipped++
			continue
		}
		candidates = append(candidates, ranked{post: p, weight: InfluenceWeight(p.AuthorReach)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.weight != b.weight {
			return a.weight > b.weight
		}
		if a.post.Engagement.Likes != b.post.Engagement.Likes {
			return a.post.Engagement.Likes > b.post.Engagement.Likes
		}
		return a.post.Engagement.Reposts > b.post.Engagement.Reposts
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	finals := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		ai := base
		if c.post.AIScore != nil {
			ai = c.post.AIScore
		}
		ws := ScorePost(c.post, *ai)
		summary.Posts = append(summary.Posts, ScoredPost{
			PostID:        c.post.ID,
			AuthorID:      c.post.AuthorID,
			Reach:         c.post.AuthorReach,
			Likes:         c.post.Engagement.Likes,
			Reposts:       c.post.Engagement.Reposts,
			WeightedScore: ws,
		})
		summary.Tiers[ws.InfluenceWeight]++
		finals = append(finals, ws.FinalScore)
	}

	summary.Count = len(finals)
	if summary.Count == 0 {
		return summary
	}

	summary.Min, summary.Max = finals[0], finals[0]
	sum := 0.0
	for _, f := range finals {
		sum += f
		summary.Min = math.Min(summary.Min, f)
		summary.Max = math.Max(summary.Max, f)
	}
	summary.Mean = round2(sum / float64(len(finals)))

	variance := 0.0
	for _, f := range finals {
		d := f - sum/float64(len(finals))
		variance += d * d
	}
	summary.StdDev = round2(math.Sqrt(variance / float64(len(finals))))

	return summary
}
