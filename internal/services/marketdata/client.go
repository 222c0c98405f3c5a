package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/murmur/internal/interfaces"
	"github.com/ternarybob/murmur/internal/models"
)

const (
	// DefaultBaseURL is the base URL of the quote service.
	DefaultBaseURL = "http://127.0.0.1:8080/api"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10
)

// Client fetches per-stock facts from an HTTP quote service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

var _ interfaces.FactsProvider = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			requestsPerSecond = DefaultRateLimit
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new quote service client. apiKey may be empty.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("request to %s abandoned: %w", path, ctxErr)
		}
		return &RateLimitError{RetryAfter: time.Second}
	}

	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("token", c.apiKey)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("Market data request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetInfo retrieves the individual stock info rows for a code.
func (c *Client) GetInfo(ctx context.Context, code string) (*InfoResponse, error) {
	var result InfoResponse
	if err := c.get(ctx, "/stock/"+url.PathEscape(code)+"/info", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetHolders retrieves the top circulating shareholders for a code.
func (c *Client) GetHolders(ctx context.Context, code string) (*HoldersResponse, error) {
	var result HoldersResponse
	if err := c.get(ctx, "/stock/"+url.PathEscape(code)+"/holders", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetIndicators retrieves the KDJ and MACD states for a code.
func (c *Client) GetIndicators(ctx context.Context, code string) (*IndicatorsResponse, error) {
	var result IndicatorsResponse
	if err := c.get(ctx, "/stock/"+url.PathEscape(code)+"/indicators", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Fetch assembles facts for an entity. The info endpoint is required;
// holders and indicators are optional and leave their fields unset when
// unavailable. Nothing is defaulted.
func (c *Client) Fetch(ctx context.Context, entity models.Entity) (*models.Facts, error) {
	info, err := c.GetInfo(ctx, entity.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch info for %s: %w", entity.Code, err)
	}

	facts := FactsFromInfo(entity.Code, info)

	if holders, err := c.GetHolders(ctx, entity.Code); err != nil {
		c.warn(entity.Code, "holders", err)
	} else {
		for _, h := range holders.Data {
			if name := strings.TrimSpace(h.Name); name != "" {
				facts.StateHolders = append(facts.StateHolders, name)
			}
		}
	}

	if indicators, err := c.GetIndicators(ctx, entity.Code); err != nil {
		c.warn(entity.Code, "indicators", err)
	} else {
		facts.KDJState = strings.TrimSpace(indicators.KDJ)
		facts.MACDState = strings.TrimSpace(indicators.MACD)
	}

	return facts, nil
}

func (c *Client) warn(code, endpoint string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn().
		Str("code", code).
		Str("endpoint", endpoint).
		Err(err).
		Msg("Optional market data unavailable")
}

// FactsFromInfo converts info rows to facts, scaling raw shares and
// currency to units of 10^8.
func FactsFromInfo(code string, info *InfoResponse) *models.Facts {
	facts := &models.Facts{Code: code}
	if info == nil {
		return facts
	}

	if n := info.Lookup(ItemFloatShares); n.Valid {
		v := n.Value / HundredMillion
		facts.FloatShares = &v
	}
	if n := info.Lookup(ItemFloatMarketValue); n.Valid {
		v := n.Value / HundredMillion
		facts.FloatMarketValue = &v
	}
	facts.PE = info.Lookup(ItemPEDynamic, ItemPE).Ptr()
	facts.PB = info.Lookup(ItemPB).Ptr()

	return facts
}
