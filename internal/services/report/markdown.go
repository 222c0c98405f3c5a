// Package report renders run results as Markdown and HTML for people.
// JSON remains the machine format.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/murmur/internal/models"
	"github.com/ternarybob/murmur/internal/services/sentiment"
)

const timeLayout = "2006-01-02 15:04:05"

// CandidatesMarkdown renders a pipeline report
func CandidatesMarkdown(r *models.Report) string {
	var b strings.Builder

	b.WriteString("# Candidate Report\n\n")
	fmt.Fprintf(&b, "Run `%s` started %s, took %s.\n\n",
		r.RunID, r.StartedAt.Format(timeLayout), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	b.WriteString("## Batch\n\n")
	b.WriteString("| Posts | Duplicates | Noise | Unresolved | Unclassified | Signals | Entities |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	s := r.Stats
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d | %d |\n\n",
		s.Posts, s.Duplicates, s.Noise, s.Unresolved, s.Unclassified, s.Signals, s.Entities)

	b.WriteString("## Verified Candidates\n\n")
	if len(r.Verified) == 0 {
		b.WriteString("No candidate reached the match threshold.\n\n")
	} else {
		writeVerifiedTable(&b, r.Verified)
		for _, vc := range r.Verified {
			writeCandidateDetail(&b, vc)
		}
	}

	if len(r.Rejected) > 0 {
		b.WriteString("## Rejected Candidates\n\n")
		writeVerifiedTable(&b, r.Rejected)
		for _, vc := range r.Rejected {
			for _, note := range vc.Annotations {
				fmt.Fprintf(&b, "- %s: %s\n", vc.Entity.Label(), note)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeVerifiedTable(b *strings.Builder, list []models.VerifiedCandidate) {
	b.WriteString("| # | Entity | Match | Mentions | Categories | Avg value | Composite | Momentum |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for i, vc := range list {
		fmt.Fprintf(b, "| %d | %s | %d | %d | %s | %.1f | %.2f | %s |\n",
			i+1,
			vc.Entity.Label(),
			vc.MatchScore,
			vc.MentionCount,
			categoryList(vc.Categories),
			vc.AverageValueScore,
			vc.Composite,
			momentum(vc.MentionDelta),
		)
	}
	b.WriteString("\n")
}

func writeCandidateDetail(b *strings.Builder, vc models.VerifiedCandidate) {
	fmt.Fprintf(b, "### %s\n\n", vc.Entity.Label())

	if len(vc.Evidence) > 0 {
		b.WriteString("Evidence:\n\n")
		for _, e := range vc.Evidence {
			fmt.Fprintf(b, "- %s\n", e)
		}
		b.WriteString("\n")
	}

	b.WriteString("| Criterion | Points | Detail |\n")
	b.WriteString("|---|---|---|\n")
	for _, c := range vc.Breakdown {
		fmt.Fprintf(b, "| %s | %d/%d | %s |\n", c.Name, c.Points, c.MaxPoints, c.Detail)
	}
	b.WriteString("\n")
}

func categoryList(cats []models.Category) string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}

func momentum(delta *int) string {
	if delta == nil {
		return "new"
	}
	return fmt.Sprintf("%+d", *delta)
}

// SentimentMarkdown renders a weighted sentiment summary. provider and base
// describe the shared score, when one was used.
func SentimentMarkdown(provider string, base *float64, s sentiment.Summary, annotations []string) string {
	var b strings.Builder

	b.WriteString("# Weighted Sentiment\n\n")
	if base != nil {
		fmt.Fprintf(&b, "Base score %.1f from %s.\n\n", *base, provider)
	}
	for _, note := range annotations {
		fmt.Fprintf(&b, "> %s\n\n", note)
	}

	b.WriteString("| Scored | Skipped | Mean | Min | Max | Std dev |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %.2f | %.2f | %.2f | %.2f |\n\n",
		s.Count, s.Skipped, s.Mean, s.Min, s.Max, s.StdDev)

	if len(s.Tiers) > 0 {
		weights := make([]int, 0, len(s.Tiers))
		for w := range s.Tiers {
			weights = append(weights, w)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(weights)))

		b.WriteString("Influence tiers: ")
		parts := make([]string, len(weights))
		for i, w := range weights {
			parts[i] = fmt.Sprintf("x%d: %d", w, s.Tiers[w])
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("\n\n")
	}

	if len(s.Posts) > 0 {
		b.WriteString("| Post | Reach | Weight | AI | Bonus | Final | Keywords |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, p := range s.Posts {
			fmt.Fprintf(&b, "| %s | %d | x%d | %.1f | %.1f | %.2f | %s |\n",
				p.PostID, p.Reach, p.InfluenceWeight, p.AIScore, p.KeywordBonus, p.FinalScore,
				strings.Join(p.BoostKeywords, " "))
		}
		b.WriteString("\n")
	}

	return b.String()
}
