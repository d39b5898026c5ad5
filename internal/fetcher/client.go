// Package fetcher retrieves raw page bodies over HTTP.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gocolly/colly/v2"
)

// ErrHTTPStatus is returned when the server answers with a status of 400 or above.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// Client fetches documents through a colly collector. Every call runs on a
// clone of the base collector, so the HTTP backend is shared and callbacks are not.
type Client struct {
	cfg  Config
	base *colly.Collector
}

// New creates a fetch client.
func New(cfg Config) *Client {
	cfg = cfg.WithDefaults()

	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.MaxBodySize(cfg.MaxBodySize),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
	)
	base.SetRequestTimeout(cfg.RequestTimeout)

	return &Client{cfg: cfg, base: base}
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Get returns the body of rawURL. Network failures and error statuses are returned as errors.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	collector := c.base.Clone()
	collector.Context = ctx

	var (
		body   []byte
		status int
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	if status >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch %s: %w: %d", rawURL, ErrHTTPStatus, status)
	}

	return body, nil
}
