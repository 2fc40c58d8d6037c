// Package pricefetcher provides a client for the price fetcher market data service
package pricefetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

const (
	DefaultBaseURL   = "http://localhost:8080"
	DefaultTimeout   = 2 * time.Second
	DefaultRateLimit = 10 // requests per second

	// maxErrorBody caps how much of an error response is kept in APIError.
	maxErrorBody = 512
)

// Client implements interfaces.MarketDataClient over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit. Values <= 0 disable limiting.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its timeout is kept as is.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new price fetcher client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-2xx response from the price fetcher.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("price fetcher error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap classifies every API error as a dependency failure.
func (e *APIError) Unwrap() error {
	return models.ErrDependencyUnavailable
}

// get performs a rate-limited GET request and decodes the JSON body into result.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait: %v", models.ErrDependencyUnavailable, err)
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

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Price fetcher request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrDependencyUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}

// quoteResponse mirrors one entry of GET /v1/quotes.
type quoteResponse struct {
	Last  *decimal.Decimal `json:"last"`
	Close *decimal.Decimal `json:"close"`
	TS    *int64           `json:"ts"`
}

// Quotes fetches quotes for the given symbols in one call.
func (c *Client) Quotes(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	symbols = distinct(symbols)
	if len(symbols) == 0 {
		return map[string]models.Quote{}, nil
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	var raw map[string]quoteResponse
	if err := c.get(ctx, "/v1/quotes", params, &raw); err != nil {
		return nil, err
	}

	quotes := make(map[string]models.Quote, len(raw))
	for symbol, q := range raw {
		if q.Last == nil {
			return nil, fmt.Errorf("failed to decode /v1/quotes response: quote %s has no last price", symbol)
		}
		quotes[symbol] = models.Quote{
			Symbol: symbol,
			Last:   *q.Last,
			Close:  q.Close,
			TS:     q.TS,
		}
	}

	c.logger.Debug().Int("requested", len(symbols)).Int("returned", len(quotes)).Msg("Quotes fetched")
	return quotes, nil
}

// FX fetches rates for concatenated currency pairs (e.g. "EURUSD") in one call.
func (c *Client) FX(ctx context.Context, pairs []string) (map[string]decimal.Decimal, error) {
	pairs = distinct(pairs)
	if len(pairs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	params := url.Values{}
	params.Set("pairs", strings.Join(pairs, ","))

	var raw map[string]decimal.Decimal
	if err := c.get(ctx, "/v1/fx", params, &raw); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("requested", len(pairs)).Int("returned", len(raw)).Msg("FX rates fetched")
	if raw == nil {
		raw = map[string]decimal.Decimal{}
	}
	return raw, nil
}

// distinct drops blanks and duplicates, keeping first-seen order.
func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
