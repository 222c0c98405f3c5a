package noise

import (
	"math"
	"sort"

	"github.com/ternarybob/murmur/internal/models"
)

// Deduplicate drops posts whose normalized text repeats an earlier post.
// Order is preserved. Returns the kept posts and the number dropped.
func Deduplicate(posts []models.Post) ([]models.Post, int) {
	seen := make(map[string]bool, len(posts))
	kept := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		key := Normalize(p.FullText())
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, p)
	}
	return kept, len(posts) - len(kept)
}

// EngagementGate keeps forum posts that attracted an audience
type EngagementGate struct {
	Enabled         bool
	ReadsPercentile float64 // 0.7 keeps the top 30% by reads
	MinComments     int64   // posts with more comments always pass
}

// DefaultEngagementGate returns the forum defaults, disabled
func DefaultEngagementGate() EngagementGate {
	return EngagementGate{
		Enabled:         false,
		ReadsPercentile: 0.7,
		MinComments:     5,
	}
}

// Apply returns the posts that pass the gate. When no post carries any
// engagement data every post passes.
func (g EngagementGate) Apply(posts []models.Post) []models.Post {
	if !g.Enabled || len(posts) == 0 {
		return posts
	}

	reads := make([]float64, 0, len(posts))
	hasData := false
	for _, p := range posts {
		reads = append(reads, float64(p.Engagement.Reads))
		if p.Engagement.Reads > 0 || p.Engagement.Comments > 0 {
			hasData = true
		}
	}
	if !hasData {
		return posts
	}

	threshold := quantile(reads, g.ReadsPercentile)
	kept := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if float64(p.Engagement.Reads) >= threshold || p.Engagement.Comments > g.MinComments {
			kept = append(kept, p)
		}
	}
	return kept
}

// quantile uses linear interpolation between closest ranks
func quantile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q = math.Max(0, math.Min(1, q))
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
