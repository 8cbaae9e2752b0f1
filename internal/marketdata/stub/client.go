// Package stub provides an in-memory marketdata.Client for offline runs
// and scheduler tests.
package stub

import (
	"context"
	"sync"
	"time"

	"universe-curator/internal/marketdata"
)

// Client implements marketdata.Client from in-memory fixtures.
type Client struct {
	mu       sync.Mutex
	profiles map[string]*marketdata.Profile
	news     map[string][]marketdata.Headline
	errs     map[string]error

	// ProfileCalls and NewsCalls count lookups, including failed ones.
	ProfileCalls int
	NewsCalls    int
}

// NewClient creates a new stub client.
func NewClient() *Client {
	return &Client{
		profiles: make(map[string]*marketdata.Profile),
		news:     make(map[string][]marketdata.Headline),
		errs:     make(map[string]error),
	}
}

// Compile-time interface check.
var _ marketdata.Client = (*Client)(nil)

// AddProfile registers a profile fixture.
func (c *Client) AddProfile(p *marketdata.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[p.Ticker] = p
}

// AddNews registers headline fixtures for a ticker.
func (c *Client) AddNews(ticker string, headlines ...marketdata.Headline) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.news[ticker] = append(c.news[ticker], headlines...)
}

// FailWith forces every call for a ticker to return err.
func (c *Client) FailWith(ticker string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[ticker] = err
}

// GetProfile retrieves a profile fixture.
func (c *Client) GetProfile(_ context.Context, ticker string) (*marketdata.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ProfileCalls++
	if err, ok := c.errs[ticker]; ok {
		return nil, err
	}
	p, ok := c.profiles[ticker]
	if !ok {
		return nil, marketdata.ErrNotFound
	}
	return p, nil
}

// GetCompanyNews retrieves headline fixtures within [from, to].
func (c *Client) GetCompanyNews(_ context.Context, ticker string, from, to time.Time) ([]marketdata.Headline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.NewsCalls++
	if err, ok := c.errs[ticker]; ok {
		return nil, err
	}

	var out []marketdata.Headline
	for _, h := range c.news[ticker] {
		if h.PublishedAt.Before(from) || h.PublishedAt.After(to) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}
