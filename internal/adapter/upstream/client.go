// Package upstream is the shared HTTP client used by every provider adapter.
// Requests carry the caller's context, a User-Agent, and pass through a
// per-provider circuit breaker; non-2xx responses become *StatusError.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/stellaview/internal/observability"
)

// DefaultUserAgent identifies the service to public APIs that require one.
const DefaultUserAgent = "StellaView/1.0"

// maxBodyBytes caps how much of a response is read into memory.
const maxBodyBytes = 32 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Code, e.Body)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Client performs GET requests for one provider.
type Client struct {
	provider  string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
	userAgent string
	metrics   *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a Client for provider with a request timeout.
func New(provider string, timeout time.Duration, metrics *observability.Metrics, opts ...Option) *Client {
	c := &Client{
		provider:  provider,
		http:      &http.Client{Timeout: timeout},
		userAgent: DefaultUserAgent,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        provider,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// 4xx responses other than 429 do not count against the breaker.
		IsSuccessful: func(err error) bool {
			code := StatusCode(err)
			return err == nil || (code >= 400 && code < 500 && code != http.StatusTooManyRequests)
		},
	})
	return c
}

// Provider returns the provider name used in metrics and errors.
func (c *Client) Provider() string { return c.provider }

// Get fetches url and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, url)
	})
	c.metrics.UpstreamDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())

	outcome := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "rejected"
		err = fmt.Errorf("%s: circuit open: %w", c.provider, err)
	case err != nil:
		outcome = "error"
	}
	c.metrics.UpstreamRequests.WithLabelValues(c.provider, outcome).Inc()
	return body, err
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", c.provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Provider: c.provider, Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
