package sentiment

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/murmur/internal/models"
)

func TestWeighted(t *testing.T) {
	tests := []struct {
		ai           float64
		boost        bool
		weight       int
		wantBonus    float64
		wantWeighted float64
		wantFinal    float64
	}{
		{50, false, 1, 0, 50, 4.17},
		{50, true, 10, 10, 600, 50.0},
		{100, true, 10, 20, 1200, 100.0},
		{100, false, 3, 0, 300, 25.0},
		{0, true, 10, 0, 0, 0},
		{150, false, 1, 0, 100, 8.33},  // ai clamped
		{-20, true, 1, 0, 0, 0},        // ai clamped
		{80, false, 25, 0, 800, 66.67}, // weight clamped
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v/%v/%d", tt.ai, tt.boost, tt.weight), func(t *testing.T) {
			got := Weighted(tt.ai, tt.boost, tt.weight)
			if math.Abs(got.KeywordBonus-tt.wantBonus) > 1e-9 {
				t.Errorf("KeywordBonus = %v, want %v", got.KeywordBonus, tt.wantBonus)
			}
			if math.Abs(got.WeightedScore-tt.wantWeighted) > 1e-9 {
				t.Errorf("WeightedScore = %v, want %v", got.WeightedScore, tt.wantWeighted)
			}
			if got.FinalScore != tt.wantFinal {
				t.Errorf("FinalScore = %v, want %v", got.FinalScore, tt.wantFinal)
			}
			if got.FinalScore < 0 || got.FinalScore > 100 {
				t.Errorf("FinalScore = %v out of range", got.FinalScore)
			}
		})
	}
}

func TestWeightedCeilingIsExact(t *testing.T) {
	assert.Equal(t, 100.0, Weighted(100, true, 10).FinalScore)
	assert.Equal(t, 1200.0, MaxPossible)
}

func TestInfluenceWeight(t *testing.T) {
	tests := []struct {
		reach int64
		want  int
	}{
		{0, 1},
		{99_999, 1},
		{100_000, 3},
		{999_999, 3},
		{1_000_000, 10},
		{50_000_000, 10},
	}
	for _, tt := range tests {
		if got := InfluenceWeight(tt.reach); got != tt.want {
			t.Errorf("InfluenceWeight(%d) = %d, want %d", tt.reach, got, tt.want)
		}
	}
}

func TestDetectBoost(t *testing.T) {
	boost, kws := DetectBoost("公司宣布重大资产重组，大股东增持")
	assert.True(t, boost)
	assert.Equal(t, []string{"重组", "增持"}, kws)

	boost, kws = DetectBoost("今天走势平稳")
	assert.False(t, boost)
	assert.Empty(t, kws)
}

func TestScorePost(t *testing.T) {
	post := models.Post{ID: "w1", Text: "涨停板打开了", AuthorReach: 2_000_000}
	got := ScorePost(post, 50)
	assert.Equal(t, 10, got.InfluenceWeight)
	assert.Equal(t, 50.0, got.FinalScore)
	assert.Equal(t, []string{"涨停"}, got.BoostKeywords)
}

func ptr(v float64) *float64 { return &v }

func TestSummarize(t *testing.T) {
	posts := []models.Post{
		{ID: "small", Text: "一般", AuthorReach: 10, Engagement: models.Engagement{Likes: 500}},
		{ID: "big", Text: "回购", AuthorReach: 5_000_000, AIScore: ptr(100)},
		{ID: "mid", Text: "一般", AuthorReach: 200_000},
	}

	s := Summarize(posts, ptr(60), 50)
	require.Equal(t, 3, s.Count)
	assert.Equal(t, 0, s.Skipped)
	assert.Equal(t, "big", s.Posts[0].PostID)
	assert.Equal(t, "mid", s.Posts[1].PostID)
	assert.Equal(t, "small", s.Posts[2].PostID)

	// big: 120*10/1200 = 100; mid: 60*3/1200 = 15; small: 60/1200 = 5
	assert.Equal(t, 100.0, s.Max)
	assert.Equal(t, 5.0, s.Min)
	assert.Equal(t, 40.0, s.Mean)
	assert.Equal(t, map[int]int{1: 1, 3: 1, 10: 1}, s.Tiers)
	assert.InDelta(t, 42.62, s.StdDev, 0.01)
}

func TestSummarizeLimitAndSkip(t *testing.T) {
	posts := []models.Post{
		{ID: "a", AIScore: ptr(10), Engagement: models.Engagement{Likes: 1}},
		{ID: "b", AIScore: ptr(20), Engagement: models.Engagement{Likes: 3}},
		{ID: "c", AIScore: ptr(30), Engagement: models.Engagement{Likes: 2}},
		{ID: "d"},
	}

	s := Summarize(posts, nil, 2)
	assert.Equal(t, 1, s.Skipped)
	require.Equal(t, 2, s.Count)
	assert.Equal(t, "b", s.Posts[0].PostID)
	assert.Equal(t, "c", s.Posts[1].PostID)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil, 0)
	assert.Equal(t, 0, s.Count)
	assert.Empty(t, s.Posts)
}
