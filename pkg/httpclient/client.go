// Package httpclient provides a rate-limited HTTP client with retries,
// shared by the external API clients.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Client wraps http.Client with rate limiting and exponential backoff retries.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	maxElapsed time.Duration
}

// Options configures a Client. Zero values fall back to sane defaults.
type Options struct {
	Timeout         time.Duration // per-request timeout (default 30s)
	RequestsPerSec  int           // sustained request rate (default 5)
	MaxRetryElapsed time.Duration // total time budget for retries (default 30s)
}

// New creates a new rate-limited HTTP client.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryElapsed == 0 {
		opts.MaxRetryElapsed = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		maxElapsed: opts.MaxRetryElapsed,
	}
}

// Do performs the request, waiting for the rate limiter and retrying
// transport errors and 5xx responses with exponential backoff.
// 4xx responses are returned immediately: retrying a bad request or a
// missing API key never helps.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = c.httpClient.Do(req.Clone(ctx))
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return &StatusError{StatusCode: resp.StatusCode}
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return backoff.Permanent(&StatusError{StatusCode: resp.StatusCode})
		}
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.maxElapsed

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return nil, err
	}

	return resp, nil
}

// StatusError reports a non-2xx HTTP status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
