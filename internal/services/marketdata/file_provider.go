package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/murmur/internal/interfaces"
	"github.com/ternarybob/murmur/internal/models"
)

type fileFacts struct {
	FloatShares      Number   `json:"float_shares"`
	FloatMarketValue Number   `json:"float_market_value"`
	PE               Number   `json:"pe"`
	PB               Number   `json:"pb"`
	StateHolders     []string `json:"state_holders"`
	HasStateHolder   *bool    `json:"has_state_holder"`
	KDJState         string   `json:"kdj_state"`
	MACDState        string   `json:"macd_state"`
}

// FileProvider serves facts from a static JSON file keyed by code:
//
//	{"600547": {"float_shares": 12.4, "pe": "18.6", "kdj_state": "low"}}
//
// Values may be numbers or strings; placeholders leave the field unset.
type FileProvider struct {
	facts map[string]*models.Facts
}

var _ interfaces.FactsProvider = (*FileProvider)(nil)

// LoadFileProvider reads a facts file
func LoadFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read facts file %s: %w", path, err)
	}

	p, err := ParseFileProvider(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse facts file %s: %w", path, err)
	}
	return p, nil
}

// ParseFileProvider decodes facts file content
func ParseFileProvider(data []byte) (*FileProvider, error) {
	var raw map[string]fileFacts
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	p := &FileProvider{facts: make(map[string]*models.Facts, len(raw))}
	for code, f := range raw {
		code = strings.TrimSpace(code)
		p.facts[code] = &models.Facts{
			Code:             code,
			FloatShares:      f.FloatShares.Ptr(),
			FloatMarketValue: f.FloatMarketValue.Ptr(),
			PE:               f.PE.Ptr(),
			PB:               f.PB.Ptr(),
			StateHolders:     f.StateHolders,
			HasStateHolder:   f.HasStateHolder,
			KDJState:         f.KDJState,
			MACDState:        f.MACDState,
		}
	}
	return p, nil
}

// Len returns the number of codes with facts
func (p *FileProvider) Len() int {
	return len(p.facts)
}

// Fetch returns a copy of the stored facts for the entity
func (p *FileProvider) Fetch(ctx context.Context, entity models.Entity) (*models.Facts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, ok := p.facts[entity.Code]
	if !ok {
		return nil, fmt.Errorf("no facts for %s: %w", entity.Code, interfaces.ErrNotFound)
	}
	out := *f
	out.StateHolders = append([]string(nil), f.StateHolders...)
	return &out, nil
}
