package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/murmur/internal/models"
	"github.com/ternarybob/murmur/internal/services/sentiment"
)

func sampleReport() *models.Report {
	started := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	delta := 3

	return &models.Report{
		RunID:      "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Stats:      models.RunStats{Posts: 12, Duplicates: 1, Noise: 4, Signals: 6, Entities: 2},
		Verified: []models.VerifiedCandidate{
			{
				Candidate: models.Candidate{
					Entity:            models.Entity{Code: "600547", Name: "山东黄金"},
					MentionCount:      4,
					Categories:        []models.Category{models.CategoryTechnical, models.CategoryFundamental},
					AverageValueScore: 8,
					Composite:         7.2,
					Evidence:          []string{"放量突破年线，回踩确认支撑有效"},
					MentionDelta:      &delta,
				},
				MatchScore: 85,
				Breakdown: []models.CriterionResult{
					{Name: "pe", Points: 15, MaxPoints: 15, Passed: true, Detail: "PE 18.2"},
				},
				Retained: true,
			},
		},
		Rejected: []models.VerifiedCandidate{
			{
				Candidate:   models.Candidate{Entity: models.Entity{Code: "000001"}, MentionCount: 2},
				Annotations: []string{"facts unavailable"},
			},
		},
	}
}

func TestCandidatesMarkdown(t *testing.T) {
	md := CandidatesMarkdown(sampleReport())

	assert.Contains(t, md, "# Candidate Report")
	assert.Contains(t, md, "Run `run-1` started 2026-10-14 09:30:00, took 1.5s.")
	assert.Contains(t, md, "| 12 | 1 | 4 | 0 | 0 | 6 | 2 |")
	assert.Contains(t, md, "| 1 | 山东黄金(600547) | 85 | 4 | technical, fundamental | 8.0 | 7.20 | +3 |")
	assert.Contains(t, md, "### 山东黄金(600547)")
	assert.Contains(t, md, "- 放量突破年线，回踩确认支撑有效")
	assert.Contains(t, md, "| pe | 15/15 | PE 18.2 |")

	// rejected entity with no name and no previous run
	assert.Contains(t, md, "## Rejected Candidates")
	assert.Contains(t, md, "| 1 | 000001 | 0 | 2 |  | 0.0 | 0.00 | new |")
	assert.Contains(t, md, "- 000001: facts unavailable")
}

func TestCandidatesMarkdownEmpty(t *testing.T) {
	md := CandidatesMarkdown(&models.Report{RunID: "empty"})

	assert.Contains(t, md, "No candidate reached the match threshold.")
	assert.NotContains(t, md, "## Rejected Candidates")
}

func TestSentimentMarkdown(t *testing.T) {
	base := 60.0
	summary := sentiment.Summary{
		Count: 2, Skipped: 1, Mean: 55.5, Min: 40, Max: 71, StdDev: 15.5,
		Tiers: map[int]int{1: 1, 5: 1},
		Posts: []sentiment.ScoredPost{
			{
				PostID: "p1",
				Reach:  150000,
				WeightedScore: models.WeightedScore{
					AIScore: 60, KeywordBonus: 10, InfluenceWeight: 5, FinalScore: 71,
					BoostKeywords: []string{"突破", "利好"},
				},
			},
		},
	}

	md := SentimentMarkdown("gemini", &base, summary, []string{"scorer degraded"})

	assert.Contains(t, md, "Base score 60.0 from gemini.")
	assert.Contains(t, md, "> scorer degraded")
	assert.Contains(t, md, "| 2 | 1 | 55.50 | 40.00 | 71.00 | 15.50 |")
	assert.Contains(t, md, "Influence tiers: x5: 1, x1: 1")
	assert.Contains(t, md, "| p1 | 150000 | x5 | 60.0 | 10.0 | 71.00 | 突破 利好 |")
}

func TestSentimentMarkdownWithoutBase(t *testing.T) {
	md := SentimentMarkdown("", nil, sentiment.Summary{Skipped: 3}, nil)

	assert.NotContains(t, md, "Base score")
	assert.NotContains(t, md, "Influence tiers")
	assert.Contains(t, md, "| 0 | 3 |")
}

func TestHTML(t *testing.T) {
	page, err := HTML("Report <1>", CandidatesMarkdown(sampleReport()))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>Report &lt;1&gt;</title>")
	assert.Contains(t, page, "<h1>Candidate Report</h1>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<td>山东黄金(600547)</td>")
	assert.Contains(t, page, "<code>run-1</code>")
}
