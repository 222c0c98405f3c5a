package evidence

import (
	"strings"

	"github.com/ternarybob/murmur/internal/common"
)

// NoEvidence is returned when no sentence qualifies as evidence even though
// the category matched
const NoEvidence = "no explicit evidence"

// Separator joins fragments
const Separator = " | "

// Config bounds the extracted evidence
type Config struct {
	MaxFragments     int // fragments kept per post
	MinFragmentRunes int // sentences must be longer than this
	MaxFragmentRunes int // longer fragments are truncated with an ellipsis
}

// DefaultConfig returns the default bounds
func DefaultConfig() Config {
	return Config{
		MaxFragments:     3,
		MinFragmentRunes: 10,
		MaxFragmentRunes: 80,
	}
}

// Extractor pulls the sentences supporting a category
type Extractor struct {
	cfg Config
}

// NewExtractor creates an extractor
func NewExtractor(cfg Config) *Extractor {
	if cfg.MaxFragments <= 0 {
		cfg.MaxFragments = 3
	}
	return &Extractor{cfg: cfg}
}

// Fragments returns up to MaxFragments sentences, in text order, that
// contain any of the keywords. Matching is case-insensitive and Latin
// keywords must stand alone; keywords are expected lower-cased.
func (e *Extractor) Fragments(text string, keywords []string) []string {
	var fragments []string
	seen := make(map[string]bool)

	for _, sentence := range SplitSentences(text) {
		if len([]rune(sentence)) <= e.cfg.MinFragmentRunes {
			continue
		}
		if !containsAny(strings.ToLower(sentence), keywords) {
			continue
		}
		fragment := truncate(sentence, e.cfg.MaxFragmentRunes)
		if seen[fragment] {
			continue
		}
		seen[fragment] = true
		fragments = append(fragments, fragment)
		if len(fragments) == e.cfg.MaxFragments {
			break
		}
	}
	return fragments
}

// Extract joins the qualifying fragments, or returns NoEvidence
func (e *Extractor) Extract(text string, keywords []string) string {
	fragments := e.Fragments(text, keywords)
	if len(fragments) == 0 {
		return NoEvidence
	}
	return strings.Join(fragments, Separator)
}

// IsConcrete reports whether evidence is more than the sentinel
func IsConcrete(evidence string) bool {
	return evidence != "" && evidence != NoEvidence
}

// SplitSentences splits on full-width and ASCII sentence terminators and
// newlines. Empty pieces are dropped, the rest trimmed.
func SplitSentences(text string) []string {
	pieces := strings.FieldsFunc(text, isTerminator)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '；', '!', '?', ';', '\n':
		return true
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if common.ContainsTerm(s, kw) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
