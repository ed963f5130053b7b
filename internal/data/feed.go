package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"farm-market/internal/model"

	"golang.org/x/time/rate"
)

// DefaultFeedRateLimit is one request every 2 seconds.
var DefaultFeedRateLimit = rate.Every(2 * time.Second)

// FeedClient fetches crop price history from a remote market price feed.
//
// The feed serves GET {BaseURL}/v1/prices/{crop}?start=YYYY-MM-DD&end=YYYY-MM-DD
// and answers with a MarketTrendSeries document ({"crop": ..., "series": [[date, price], ...]}).
type FeedClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	limiter *rate.Limiter
}

// FeedOptions configures a FeedClient.
type FeedOptions struct {
	APIKey    string
	RateLimit rate.Limit    // default: DefaultFeedRateLimit
	Timeout   time.Duration // default: 30s
}

// NewFeedClient creates a new price feed client.
func NewFeedClient(baseURL string, opts FeedOptions) *FeedClient {
	if opts.RateLimit == 0 {
		opts.RateLimit = DefaultFeedRateLimit
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &FeedClient{
		APIKey:  opts.APIKey,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(opts.RateLimit, 1),
	}
}

// FeedError represents a non-200 answer from the price feed.
type FeedError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *FeedError) Error() string {
	return e.Message
}

// FetchSeries fetches one crop's price history between start and end (inclusive dates).
func (c *FeedClient) FetchSeries(ctx context.Context, crop string, start, end time.Time) (*model.MarketTrendSeries, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("feed base URL is not configured")
	}
	if crop == "" {
		return nil, fmt.Errorf("crop is required")
	}
	if start.After(end) {
		return nil, fmt.Errorf("start must be before end")
	}

	u, err := url.Parse(c.BaseURL + "/v1/prices/" + url.PathEscape(crop))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))
	u.RawQuery = q.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	log.Printf("[Feed] Request: GET %s (crop=%s, start=%s, end=%s)",
		u.Path, crop, q.Get("start"), q.Get("end"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	began := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(began)
	if err != nil {
		log.Printf("[Feed] Request failed: %v (duration: %v)", err, duration)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("[Feed] Response: %s (duration: %v, crop=%s)", resp.Status, duration, crop)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &FeedError{
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "Price feed rejected the API key",
		}
	case http.StatusNotFound:
		return nil, &FeedError{
			StatusCode: resp.StatusCode,
			Code:       "UNKNOWN_CROP",
			Message:    fmt.Sprintf("Price feed has no data for crop %q", crop),
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		return nil, &FeedError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		return nil, &FeedError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("Price feed returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	var series model.MarketTrendSeries
	if err := json.NewDecoder(resp.Body).Decode(&series); err != nil {
		log.Printf("[Feed] Error decoding response: %v (crop=%s)", err, crop)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if series.Crop == "" {
		series.Crop = crop
	}

	log.Printf("[Feed] Success: Received %d points (crop=%s)", len(series.Series), crop)
	return &series, nil
}
