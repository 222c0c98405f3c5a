package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/murmur/internal/common"
	"github.com/ternarybob/murmur/internal/models"
)

// Ranked is one category with its relevance for a text
type Ranked struct {
	Category models.Category `json:"category"`
	Count    int             `json:"count"`    // distinct keywords hit
	Families []string        `json:"families"` // distinct families hit
	Keywords []string        `json:"keywords"`
}

type keyword struct {
	text   string
	family string
}

// Classifier assigns text to categories by keyword-family hits.
// Immutable after construction and safe for concurrent use.
type Classifier struct {
	keywords map[models.Category][]keyword
}

// NewClassifier builds a classifier. Keywords are lower-cased; a keyword
// appearing in more than one category is rejected so categories stay
// disjoint.
func NewClassifier(families map[models.Category][]KeywordFamily) (*Classifier, error) {
	owner := make(map[string]models.Category)
	c := &Classifier{keywords: make(map[models.Category][]keyword, len(families))}

	for _, cat := range models.AllCategories {
		for _, fam := range families[cat] {
			for _, kw := range fam.Keywords {
				kw = strings.ToLower(strings.TrimSpace(kw))
				if kw == "" {
					continue
				}
				if prev, exists := owner[kw]; exists {
					if prev != cat {
						return nil, fmt.Errorf("keyword %q is in both %s and %s", kw, prev, cat)
					}
					continue
				}
				owner[kw] = cat
				c.keywords[cat] = append(c.keywords[cat], keyword{text: kw, family: fam.Name})
			}
		}
	}

	for cat := range families {
		if _, known := categoryIndex(cat); !known {
			return nil, fmt.Errorf("unknown category %d", int(cat))
		}
	}

	return c, nil
}

// Default returns a classifier over DefaultFamilies
func Default() *Classifier {
	c, err := NewClassifier(DefaultFamilies())
	if err != nil {
		panic(err)
	}
	return c
}

// Classify ranks the categories with nonzero relevance. Ties on count go
// to the lower enumeration position, so identical text always yields the
// identical ranking. Latin keywords such as "pe" or "dea" only count as
// whole words.
func (c *Classifier) Classify(text string) []Ranked {
	lower := strings.ToLower(text)

	var ranked []Ranked
	for _, cat := range models.AllCategories {
		r := Ranked{Category: cat}
		seenFamily := make(map[string]bool)
		for _, kw := range c.keywords[cat] {
			if !common.ContainsTerm(lower, kw.text) {
				continue
			}
			r.Count++
			r.Keywords = append(r.Keywords, kw.text)
			if !seenFamily[kw.family] {
				seenFamily[kw.family] = true
				r.Families = append(r.Families, kw.family)
			}
		}
		if r.Count > 0 {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Category < ranked[j].Category
	})
	return ranked
}

// Best returns the winning category, false when nothing matched
func (c *Classifier) Best(text string) (Ranked, bool) {
	ranked := c.Classify(text)
	if len(ranked) == 0 {
		return Ranked{}, false
	}
	return ranked[0], true
}

// Keywords returns the lower-cased keywords of a category in table order
func (c *Classifier) Keywords(cat models.Category) []string {
	list := c.keywords[cat]
	out := make([]string, len(list))
	for i, kw := range list {
		out[i] = kw.text
	}
	return out
}

// Categories extracts the categories of a ranking in order
func Categories(ranked []Ranked) []models.Category {
	out := make([]models.Category, len(ranked))
	for i, r := range ranked {
		out[i] = r.Category
	}
	return out
}

func categoryIndex(cat models.Category) (int, bool) {
	for i, c := range models.AllCategories {
		if c == cat {
			return i, true
		}
	}
	return -1, false
}
