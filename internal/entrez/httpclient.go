package entrez

import (
	"fmt"
	"net/http"
	"time"
)

// HTTPClientConfig configures the paced HTTP client.
type HTTPClientConfig struct {
	// Timeout is the request timeout for HTTP operations.
	Timeout time.Duration

	// Interval is the minimum spacing between consecutive requests.
	Interval time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string
}

// HTTPClient wraps http.Client with request pacing. It is safe for
// concurrent use; concurrent callers are individually delayed by the pacer.
//
// Retry and backoff are deliberately not handled here. The harvester's only
// resilience discipline is fixed-interval pacing; failed requests surface to
// the caller, which decides between fallback shapes.
type HTTPClient struct {
	client *http.Client
	pacer  *Pacer
	config HTTPClientConfig
}

// NewHTTPClient creates a new HTTP client paced at cfg.Interval.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "pubmed-harvester/1.0"
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		pacer:  NewPacer(cfg.Interval),
		config: cfg,
	}
}

// Do executes an HTTP request after waiting for the pacer. The request
// context governs both the pacing wait and the request itself.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.pacer.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("pacer wait: %w", err)
	}

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	return c.client.Do(req)
}

// Pacer exposes the client's pacer so batch operations can pace sibling
// work against the same timestamp.
func (c *HTTPClient) Pacer() *Pacer {
	return c.pacer
}
