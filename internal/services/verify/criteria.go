package verify

import (
	"fmt"
	"strings"

	"github.com/ternarybob/murmur/internal/models"
)

// Band is an inclusive numeric range
type Band struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

// Contains reports whether v lies in the band
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// BandCriterion awards full points inside the target band and partial
// credit inside the wider band
type BandCriterion struct {
	Target       Band `toml:"target"`
	TargetPoints int  `toml:"target_points"`
	Wide         Band `toml:"wide"`
	WidePoints   int  `toml:"wide_points"`
}

// CeilingCriterion awards points for a positive ratio below a ceiling
type CeilingCriterion struct {
	Strict       float64 `toml:"strict"`
	StrictPoints int     `toml:"strict_points"`
	Loose        float64 `toml:"loose"`
	LoosePoints  int     `toml:"loose_points"`
}

// StateCriterion awards points when an indicator state matches
type StateCriterion struct {
	Accepted []string `toml:"accepted"`
	Points   int      `toml:"points"`
}

// Criteria are the business parameters of the match score
type Criteria struct {
	FloatShares         BandCriterion    `toml:"float_shares"`       // 10^8 shares
	FloatMarketValue    BandCriterion    `toml:"float_market_value"` // 10^8 currency units
	PE                  CeilingCriterion `toml:"pe"`
	PB                  CeilingCriterion `toml:"pb"`
	StateHolderPoints   int              `toml:"state_holder_points"`
	StateHolderKeywords []string         `toml:"state_holder_keywords"`
	KDJ                 StateCriterion   `toml:"kdj"`
	MACD                StateCriterion   `toml:"macd"`
	RetainThreshold     int              `toml:"retain_threshold"`
}

// DefaultCriteria targets mid-cap free floats with modest valuations and
// state-linked holders
func DefaultCriteria() Criteria {
	return Criteria{
		FloatShares: BandCriterion{
			Target: Band{Min: 5, Max: 15}, TargetPoints: 20,
			Wide: Band{Min: 3, Max: 20}, WidePoints: 10,
		},
		FloatMarketValue: BandCriterion{
			Target: Band{Min: 80, Max: 200}, TargetPoints: 20,
			Wide: Band{Min: 50, Max: 300}, WidePoints: 10,
		},
		PE:                CeilingCriterion{Strict: 30, StrictPoints: 15, Loose: 50, LoosePoints: 8},
		PB:                CeilingCriterion{Strict: 3, StrictPoints: 15, Loose: 5, LoosePoints: 8},
		StateHolderPoints: 20,
		StateHolderKeywords: []string{
			"国家队", "社保", "汇金", "证金", "养老金", "国资委", "中央汇金", "证金公司",
		},
		KDJ:             StateCriterion{Accepted: []string{"low", "oversold", "低位", "超卖"}, Points: 5},
		MACD:            StateCriterion{Accepted: []string{"golden_cross", "金叉"}, Points: 5},
		RetainThreshold: 60,
	}
}

// MaxPoints is the best achievable score under c
func (c Criteria) MaxPoints() int {
	return max(c.FloatShares.TargetPoints, c.FloatShares.WidePoints) +
		max(c.FloatMarketValue.TargetPoints, c.FloatMarketValue.WidePoints) +
		max(c.PE.StrictPoints, c.PE.LoosePoints) +
		max(c.PB.StrictPoints, c.PB.LoosePoints) +
		c.StateHolderPoints + c.KDJ.Points + c.MACD.Points
}

// MatchScore scores facts against the criteria. Missing facts fail their
// criterion, nil facts fail every criterion. The result is in [0,100].
func MatchScore(f *models.Facts, c Criteria) (int, []models.CriterionResult) {
	if f == nil {
		f = &models.Facts{}
	}

	results := []models.CriterionResult{
		bandResult("float_shares", f.FloatShares, c.FloatShares),
		bandResult("float_market_value", f.FloatMarketValue, c.FloatMarketValue),
		ceilingResult("pe", f.PE, c.PE),
		ceilingResult("pb", f.PB, c.PB),
		stateHolderResult(f, c),
		stateResult("kdj", f.KDJState, c.KDJ),
		stateResult("macd", f.MACDState, c.MACD),
	}

	total := 0
	for _, r := range results {
		total += r.Points
	}
	return clamp(total, 0, 100), results
}

func bandResult(name string, v *float64, c BandCriterion) models.CriterionResult {
	r := models.CriterionResult{Name: name, MaxPoints: max(c.TargetPoints, c.WidePoints)}
	switch {
	case v == nil:
		r.Detail = "missing"
	case c.Target.Contains(*v):
		r.Points, r.Passed = c.TargetPoints, true
		r.Detail = fmt.Sprintf("%.2f in [%g, %g]", *v, c.Target.Min, c.Target.Max)
	case c.Wide.Contains(*v):
		r.Points, r.Passed = c.WidePoints, true
		r.Detail = fmt.Sprintf("%.2f in wide [%g, %g]", *v, c.Wide.Min, c.Wide.Max)
	default:
		r.Detail = fmt.Sprintf("%.2f outside [%g, %g]", *v, c.Wide.Min, c.Wide.Max)
	}
	return r
}

func ceilingResult(name string, v *float64, c CeilingCriterion) models.CriterionResult {
	r := models.CriterionResult{Name: name, MaxPoints: max(c.StrictPoints, c.LoosePoints)}
	switch {
	case v == nil:
		r.Detail = "missing"
	case *v <= 0:
		r.Detail = fmt.Sprintf("%.2f not positive", *v)
	case *v < c.Strict:
		r.Points, r.Passed = c.StrictPoints, true
		r.Detail = fmt.Sprintf("%.2f < %g", *v, c.Strict)
	case *v < c.Loose:
		r.Points, r.Passed = c.LoosePoints, true
		r.Detail = fmt.Sprintf("%.2f < %g", *v, c.Loose)
	default:
		r.Detail = fmt.Sprintf("%.2f >= %g", *v, c.Loose)
	}
	return r
}

func stateHolderResult(f *models.Facts, c Criteria) models.CriterionResult {
	r := models.CriterionResult{Name: "state_holder", MaxPoints: c.StateHolderPoints}

	if f.HasStateHolder != nil {
		if *f.HasStateHolder {
			r.Points, r.Passed, r.Detail = c.StateHolderPoints, true, "reported"
		} else {
			r.Detail = "none reported"
		}
		return r
	}

	if len(f.StateHolders) == 0 {
		r.Detail = "missing"
		return r
	}
	for _, holder := range f.StateHolders {
		for _, kw := range c.StateHolderKeywords {
			if strings.Contains(holder, kw) {
				r.Points, r.Passed, r.Detail = c.StateHolderPoints, true, holder
				return r
			}
		}
	}
	r.Detail = "no qualifying holder"
	return r
}

func stateResult(name, state string, c StateCriterion) models.CriterionResult {
	r := models.CriterionResult{Name: name, MaxPoints: c.Points}
	if strings.TrimSpace(state) == "" {
		r.Detail = "missing"
		return r
	}
	lower := strings.ToLower(state)
	for _, accepted := range c.Accepted {
		if accepted != "" && strings.Contains(lower, strings.ToLower(accepted)) {
			r.Points, r.Passed, r.Detail = c.Points, true, state
			return r
		}
	}
	r.Detail = state
	return r
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
