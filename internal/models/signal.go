package models

import (
	"encoding/json"
	"fmt"
)

// Entity is a canonical listed security. The pipeline only references
// entities, it never creates codes.
type Entity struct {
	Code string `json:"code"`           // 6 ASCII digits
	Name string `json:"name,omitempty"` // display name, empty when only the code was seen
}

// Label formats the entity as "name(code)"
func (e Entity) Label() string {
	if e.Name == "" {
		return e.Code
	}
	return e.Name + "(" + e.Code + ")"
}

// Category is an analytical lens a post can be classified into.
// The declaration order is the tie-break order.
type Category int

const (
	CategoryTechnical Category = iota
	CategoryPositioning
	CategoryFundamental
)

// AllCategories lists every category in enumeration order
var AllCategories = []Category{CategoryTechnical, CategoryPositioning, CategoryFundamental}

var categoryNames = map[Category]string{
	CategoryTechnical:   "technical",
	CategoryPositioning: "positioning",
	CategoryFundamental: "fundamental",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory resolves a category name
func ParseCategory(name string) (Category, error) {
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category: %q", name)
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseCategory(name)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Signal is one categorized, evidenced, scored observation about one
// entity derived from one post
type Signal struct {
	PostID     string   `json:"post_id"`
	Entity     Entity   `json:"entity"`
	Category   Category `json:"category"`
	Evidence   string   `json:"evidence"`
	ValueScore int      `json:"value_score"` // 1-10
}
