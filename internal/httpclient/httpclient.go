// Package httpclient implements the retrying HTTP GET contract from
// spec §4.3. Every source adapter in package sources shares one Client
// instance, generalizing the bare *http.Client field the teacher's
// pkg/arxiv, pkg/openalex, pkg/pubmed and pkg/semanticscholar clients each
// held individually.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"
)

// Response is the retried GET result: the status code, headers, and body
// bytes already drained (so retry/backoff logic never needs to reason
// about a body that's been partially consumed).
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FinalURL   string
}

type Client struct {
	hc           *http.Client
	maxRetries   int
	minBackoff   time.Duration
	maxBackoff   time.Duration
	userAgent    string
}

type Option func(*Client)

func WithMaxRetries(n int) Option        { return func(c *Client) { c.maxRetries = n } }
func WithBackoff(min, max time.Duration) Option {
	return func(c *Client) { c.minBackoff = min; c.maxBackoff = max }
}
func WithUserAgent(ua string) Option { return func(c *Client) { c.userAgent = ua } }

// New builds a Client with connection pooling and HTTP/2 enabled, and a
// redirect policy bounded to maxRedirects (spec §4.3).
func New(timeout time.Duration, maxRedirects int, opts ...Option) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	hc := &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	c := &Client{
		hc:         hc,
		maxRetries: 5,
		minBackoff: 2 * time.Second,
		maxBackoff: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatus reports whether status is one of the retryable HTTP
// codes from spec §4.3: 408, 429, and all 5xx.
func retryableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= 500
}

// GetWithRetry issues a GET with the given headers, retrying on transient
// network errors and the retryable status set with exponential backoff
// plus jitter, bounded between minBackoff and maxBackoff. It never returns
// an error for a non-retryable 4xx — the caller inspects Response.StatusCode
// instead.
func (c *Client) GetWithRetry(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoffDuration(attempt)
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
		}

		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.hc.Do(req)
		elapsed := time.Since(start)

		if err != nil {
			lastErr = err
			log.Printf("httpclient: attempt=%d url=%s status=- elapsed=%s error=%v", attempt+1, url, elapsed, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		log.Printf("httpclient: attempt=%d url=%s status=%d elapsed=%s", attempt+1, url, resp.StatusCode, elapsed)

		if readErr != nil {
			lastErr = fmt.Errorf("reading response body: %w", readErr)
			continue
		}

		if retryableStatus(resp.StatusCode) && attempt < c.maxRetries {
			lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
			continue
		}

		finalURL := url
		if resp.Request != nil && resp.Request.URL != nil {
			finalURL = resp.Request.URL.String()
		}

		return &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       body,
			FinalURL:   finalURL,
		}, nil
	}

	return nil, fmt.Errorf("exhausted retries for %s: %w", url, lastErr)
}

// backoffDuration computes exponential backoff with jitter, bounded to
// [minBackoff, maxBackoff].
func (c *Client) backoffDuration(attempt int) time.Duration {
	base := c.minBackoff << uint(attempt-1)
	if base > c.maxBackoff || base <= 0 {
		base = c.maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(base) + 1))
	total := base/2 + jitter/2
	if total < c.minBackoff {
		total = c.minBackoff
	}
	if total > c.maxBackoff {
		total = c.maxBackoff
	}
	return total
}
