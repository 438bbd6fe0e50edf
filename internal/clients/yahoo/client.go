// Package yahoo provides a client for the Yahoo Finance v8 chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/esfolk/DefiHedge/internal/domain"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// ErrTickerNotFound is returned when the provider does not know the ticker.
var ErrTickerNotFound = errors.New("ticker not found")

// APIError is returned for non-200 responses
type APIError struct {
	StatusCode int
	Message    string
	Ticker     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo chart API error for %s: status %d: %s", e.Ticker, e.StatusCode, e.Message)
}

// Client fetches daily history from the chart endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets the rate limit in requests per second
func WithRateLimit(rps int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log.With().Str("client", "yahoo").Logger()
	}
}

// NewClient creates a new chart API client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// --- chart API types ---

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// DailyCloses returns adjusted daily closes for ticker between start and end
// (inclusive, UTC days), oldest first. Days with a missing or non-positive
// close are left out.
func (c *Client) DailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]domain.DailyClose, error) {
	start = domain.TruncateToDay(start)
	end = domain.TruncateToDay(end)
	if end.Before(start) {
		return nil, fmt.Errorf("invalid window for %s: end %s before start %s",
			ticker, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", start.Unix()))
	// period2 is exclusive
	params.Set("period2", fmt.Sprintf("%d", end.AddDate(0, 0, 1).Unix()))
	params.Set("interval", "1d")
	params.Set("events", "history")

	var resp chartResponse
	if err := c.get(ctx, ticker, params, &resp); err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		if resp.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
		}
		return nil, fmt.Errorf("yahoo chart error for %s: %s", ticker, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return []domain.DailyClose{}, nil
	}

	closes := parseCloses(resp.Chart.Result[0], start, end)

	c.log.Debug().
		Str("ticker", ticker).
		Int("days", len(closes)).
		Msg("Fetched daily closes")

	return closes, nil
}

func (c *Client) get(ctx context.Context, ticker string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Ticker:     ticker,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response for %s: %w", ticker, err)
	}

	return nil
}

// parseCloses prefers the adjusted close series and falls back to the raw
// close when the adjusted one is absent or misaligned. When the provider
// returns two bars for the same day (the live bar for today), the later one wins.
func parseCloses(r chartResult, start, end time.Time) []domain.DailyClose {
	var series []*float64
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) == len(r.Timestamp) {
		series = r.Indicators.AdjClose[0].AdjClose
	} else if len(r.Indicators.Quote) > 0 && len(r.Indicators.Quote[0].Close) == len(r.Timestamp) {
		series = r.Indicators.Quote[0].Close
	}
	if series == nil {
		return []domain.DailyClose{}
	}

	byDay := make(map[time.Time]float64, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		v := series[i]
		if v == nil || *v <= 0 {
			continue
		}
		day := domain.TruncateToDay(time.Unix(ts, 0))
		if day.Before(start) || day.After(end) {
			continue
		}
		byDay[day] = *v
	}

	closes := make([]domain.DailyClose, 0, len(byDay))
	for day, v := range byDay {
		closes = append(closes, domain.DailyClose{Date: day, Close: v})
	}
	sort.Slice(closes, func(i, j int) bool { return closes[i].Date.Before(closes[j].Date) })

	return closes
}
