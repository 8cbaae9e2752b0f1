package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://finnhub.io/api/v1"
	DefaultTimeout = 15 * time.Second

	// maxResponseBytes bounds response bodies read from the provider.
	maxResponseBytes = 4 << 20
)

// FinnhubClient implements Client against the Finnhub REST API.
// Calls are never retried internally: a failed call has already spent its
// budget unit, and the scheduler decides what to do next.
type FinnhubClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// FinnhubOption configures FinnhubClient.
type FinnhubOption func(*FinnhubClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) FinnhubOption {
	return func(c *FinnhubClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) FinnhubOption {
	return func(c *FinnhubClient) {
		c.client = client
	}
}

// WithBaseURL overrides the API base URL. Used by tests and proxies.
func WithBaseURL(baseURL string) FinnhubOption {
	return func(c *FinnhubClient) {
		c.baseURL = baseURL
	}
}

// NewFinnhubClient creates a new Finnhub REST client.
func NewFinnhubClient(token string, opts ...FinnhubOption) *FinnhubClient {
	c := &FinnhubClient{
		baseURL: DefaultBaseURL,
		token:   token,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Client = (*FinnhubClient)(nil)

// profileResponse is the raw /stock/profile2 payload.
type profileResponse struct {
	Name          string `json:"name"`
	FinnhubIndust string `json:"finnhubIndustry"`
	Description   string `json:"description"`
}

// GetProfile retrieves the company profile for a ticker.
func (c *FinnhubClient) GetProfile(ctx context.Context, ticker string) (*Profile, error) {
	query := url.Values{}
	query.Set("symbol", ticker)

	var resp profileResponse
	if err := c.get(ctx, "/stock/profile2", query, &resp); err != nil {
		return nil, err
	}

	// Finnhub returns 200 with an empty object for unknown symbols.
	if resp.Name == "" && resp.FinnhubIndust == "" && resp.Description == "" {
		return nil, ErrNotFound
	}

	return &Profile{
		Ticker:      ticker,
		Name:        resp.Name,
		Industry:    resp.FinnhubIndust,
		Description: resp.Description,
	}, nil
}

// newsItem is the raw /company-news payload item.
type newsItem struct {
	Datetime int64  `json:"datetime"` // unix seconds
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
}

// GetCompanyNews retrieves headlines for a ticker in [from, to].
func (c *FinnhubClient) GetCompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]Headline, error) {
	query := url.Values{}
	query.Set("symbol", ticker)
	query.Set("from", from.UTC().Format("2006-01-02"))
	query.Set("to", to.UTC().Format("2006-01-02"))

	var items []newsItem
	if err := c.get(ctx, "/company-news", query, &items); err != nil {
		return nil, err
	}

	headlines := make([]Headline, 0, len(items))
	for _, item := range items {
		headlines = append(headlines, Headline{
			Ticker:      ticker,
			Title:       item.Headline,
			Summary:     item.Summary,
			Source:      item.Source,
			PublishedAt: time.Unix(item.Datetime, 0).UTC(),
		})
	}
	return headlines, nil
}

// get performs one GET request and decodes the JSON response.
func (c *FinnhubClient) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	query.Set("token", c.token)
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
