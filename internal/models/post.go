package models

import (
	"strings"
	"time"
)

// Engagement holds the interaction counters a source reports for a post
type Engagement struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Reposts  int64 `json:"reposts"`
	Reads    int64 `json:"reads"`
}

// Post is a single piece of user-generated text (social post, forum thread).
// Posts are immutable once ingested.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title,omitempty"`
	Text        string     `json:"text"`
	URL         string     `json:"url,omitempty"`
	AuthorID    string     `json:"author_id,omitempty"`
	AuthorReach int64      `json:"author_reach"` // followers/subscribers
	Engagement  Engagement `json:"engagement"`
	PublishedAt time.Time  `json:"published_at"`

	// AIScore is a previously computed 0-100 sentiment score, nil when the
	// scoring collaborator did not provide one
	AIScore *float64 `json:"ai_score,omitempty"`
}

// FullText joins title and body, the unit every text stage works on
func (p Post) FullText() string {
	title := strings.TrimSpace(p.Title)
	text := strings.TrimSpace(p.Text)
	switch {
	case title == "":
		return text
	case text == "":
		return title
	default:
		return title + " " + text
	}
}

// Sanitize clamps negative counters to zero
func (p Post) Sanitize() Post {
	if p.AuthorReach < 0 {
		p.AuthorReach = 0
	}
	if p.Engagement.Likes < 0 {
		p.Engagement.Likes = 0
	}
	if p.Engagement.Comments < 0 {
		p.Engagement.Comments = 0
	}
	if p.Engagement.Reposts < 0 {
		p.Engagement.Reposts = 0
	}
	if p.Engagement.Reads < 0 {
		p.Engagement.Reads = 0
	}
	return p
}
