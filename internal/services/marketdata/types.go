// Package marketdata supplies quantitative facts for verification, from an
// HTTP quote service or a static facts file.
package marketdata

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Item keys of the individual stock info endpoint
const (
	ItemFloatShares      = "流通股"
	ItemFloatMarketValue = "流通市值"
	ItemPE               = "市盈率"
	ItemPEDynamic        = "市盈率(动)"
	ItemPB               = "市净率"
)

// Unit scales. The info endpoint reports shares and currency in raw units;
// facts are expressed in units of 10^8.
const (
	TenThousand    = 1e4
	HundredMillion = 1e8
)

// missing holds the placeholders the quote services use for absent values
var missing = map[string]bool{
	"":     true,
	"-":    true,
	"—":    true,
	"--":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

// ParseNumber parses a quote value. Thousands separators, a trailing % and
// the 万/亿 multipliers are accepted. Placeholders such as "-", "—" and
// "N/A" report ok=false rather than zero.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if missing[strings.ToLower(s)] {
		return 0, false
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "亿"):
		multiplier = HundredMillion
		s = strings.TrimSuffix(s, "亿")
	case strings.HasSuffix(s, "万"):
		multiplier = TenThousand
		s = strings.TrimSuffix(s, "万")
	case strings.HasSuffix(s, "%"):
		s = strings.TrimSuffix(s, "%")
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v * multiplier, true
}

// Number is a JSON value that may arrive as a number, a string or null
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON accepts numbers, numeric strings and placeholders
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = str
	}
	n.Value, n.Valid = ParseNumber(s)
	return nil
}

// Ptr returns the value as a pointer, nil when missing
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// InfoItem is one row of the individual stock info endpoint
type InfoItem struct {
	Item  string `json:"item"`
	Value Number `json:"value"`
}

// InfoResponse is the individual stock info payload
type InfoResponse struct {
	Code string     `json:"code"`
	Data []InfoItem `json:"data"`
}

// Lookup returns the value of the first matching item key
func (r *InfoResponse) Lookup(keys ...string) Number {
	for _, key := range keys {
		for _, item := range r.Data {
			if item.Item == key && item.Value.Valid {
				return item.Value
			}
		}
	}
	return Number{}
}

// Holder is one of the top circulating shareholders
type Holder struct {
	Name    string `json:"name"`
	Percent Number `json:"percent"`
}

// HoldersResponse lists the top circulating shareholders
type HoldersResponse struct {
	Code string   `json:"code"`
	Data []Holder `json:"data"`
}

// IndicatorsResponse carries the derived technical indicator states
type IndicatorsResponse struct {
	Code string `json:"code"`
	KDJ  string `json:"kdj"`
	MACD string `json:"macd"`
}

// APIError represents a non-200 response from the quote service.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market data API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit wait that could not complete.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("market data rate limit exceeded, retry after %v", e.RetryAfter)
}
