// Package fetchx is a bounded HTTP byte fetcher for sitemap retrieval:
// one-shot GETs with a timeout, a size cap, and a redirect limit.
package fetchx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config configures the fetcher.
type Config struct {
	Timeout   time.Duration // per-request timeout. Default: 30s.
	MaxBytes  int64         // max response body size. Default: 10MB.
	UserAgent string
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "sitediff/1.0"
	}
}

// Fetcher performs bounded GET requests.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Fetch retrieves a URL's body. Non-2xx statuses are errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetchx: new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetchx: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetchx: get %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetchx: read %s: %w", url, err)
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, fmt.Errorf("fetchx: %s exceeds %d bytes", url, f.config.MaxBytes)
	}
	return body, nil
}
