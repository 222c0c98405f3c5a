package entities

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/murmur/internal/models"
)

// DefaultPrefixes are the leading digits of exchange codes: 0 and 3 for
// Shenzhen, 6 for Shanghai
const DefaultPrefixes = "036"

// CodePattern matches canonical 6-digit codes with an allowed first digit
type CodePattern struct {
	re     *regexp.Regexp
	anchor *regexp.Regexp
}

// NewCodePattern compiles the code pattern for the given leading digits
func NewCodePattern(prefixes string) (*CodePattern, error) {
	var digits strings.Builder
	for _, r := range prefixes {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("invalid code prefix %q", r)
		}
		digits.WriteRune(r)
	}
	if digits.Len() == 0 {
		return nil, fmt.Errorf("at least one code prefix is required")
	}
	class := "[" + digits.String() + "]"
	return &CodePattern{
		re:     regexp.MustCompile(`\b` + class + `\d{5}\b`),
		anchor: regexp.MustCompile(`^` + class + `\d{5}$`),
	}, nil
}

// MustCodePattern is NewCodePattern for constant prefixes
func MustCodePattern(prefixes string) *CodePattern {
	p, err := NewCodePattern(prefixes)
	if err != nil {
		panic(err)
	}
	return p
}

// Valid reports whether code is exactly a canonical code
func (p *CodePattern) Valid(code string) bool {
	return p.anchor.MatchString(code)
}

// FindAll returns every code occurrence in text
func (p *CodePattern) FindAll(text string) []string {
	return p.re.FindAllString(text, -1)
}

// Resolver maps free text to the entities it mentions. It never guesses:
// unknown names are dropped and codes must match the pattern.
type Resolver struct {
	pattern *CodePattern
	table   *Table
}

// NewResolver creates a resolver over a reference table
func NewResolver(pattern *CodePattern, table *Table) *Resolver {
	return &Resolver{pattern: pattern, table: table}
}

// Resolve returns the distinct entities in text sorted by code.
// Code matches and name matches are unioned; a code named in the table
// carries its display name either way.
func (r *Resolver) Resolve(text string) []models.Entity {
	found := make(map[string]string)

	for _, code := range r.pattern.FindAll(text) {
		if _, ok := found[code]; !ok {
			name, _ := r.table.Name(code)
			found[code] = name
		}
	}

	for _, name := range r.table.names {
		if !strings.Contains(text, name) {
			continue
		}
		code := r.table.byName[name]
		if existing, ok := found[code]; !ok || existing == "" {
			found[code] = r.table.byCode[code]
		}
	}

	entities := make([]models.Entity, 0, len(found))
	for code, name := range found {
		entities = append(entities, models.Entity{Code: code, Name: name})
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Code < entities[j].Code
	})
	return entities
}

// Labels formats entities as "name(code)"
func Labels(entities []models.Entity) []string {
	labels := make([]string, len(entities))
	for i, e := range entities {
		labels[i] = e.Label()
	}
	return labels
}
