// Package suggest provides a client for a Google-style search autocomplete
// endpoint.
package suggest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/radar/internal/resilience"
)

const (
	defaultBaseURL = "https://suggestqueries.google.com"
	completePath   = "/complete/search"
	serviceName    = "suggest"
	maxBodyBytes   = 1 << 20
)

// Outcome labels a finished Complete call for metrics.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeError    Outcome = "error"
	OutcomeRejected Outcome = "rejected"
)

// Client fetches autocomplete suggestions for a query.
type Client interface {
	Complete(ctx context.Context, query string) ([]string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default endpoint host (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLocale sets the hl (language) and gl (country) parameters.
func WithLocale(language, country string) Option {
	return func(c *httpClient) {
		if language != "" {
			c.language = language
		}
		if country != "" {
			c.country = country
		}
	}
}

// WithClientName sets the client parameter, which selects the response
// format. Only JSON-array formats such as "firefox" are supported.
func WithClientName(name string) Option {
	return func(c *httpClient) {
		if name != "" {
			c.clientName = name
		}
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.policy = p
	}
}

// WithBreaker installs a circuit breaker around each call.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *httpClient) {
		c.breaker = b
	}
}

// WithObserver registers a callback invoked once per Complete call.
func WithObserver(fn func(Outcome, time.Duration)) Option {
	return func(c *httpClient) {
		c.observe = fn
	}
}

type httpClient struct {
	baseURL    string
	clientName string
	language   string
	country    string
	http       *http.Client
	policy     resilience.Policy
	breaker    *resilience.Breaker
	observe    func(Outcome, time.Duration)
}

// NewClient creates an autocomplete client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:    defaultBaseURL,
		clientName: "firefox",
		language:   "en",
		country:    "us",
		http: &http.Client{
			Timeout: 8 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		policy: resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.policy.OnRetry == nil {
		c.policy.OnRetry = resilience.RetryLogger(serviceName, "complete")
	}
	return c
}

// Complete returns the provider's suggestions for query, in provider order.
func (c *httpClient) Complete(ctx context.Context, query string) ([]string, error) {
	start := time.Now()

	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			c.report(OutcomeRejected, start)
			return nil, eris.Wrap(err, "suggest: complete")
		}
	}

	out, err := resilience.Retry(ctx, c.policy, func(ctx context.Context) ([]string, error) {
		return c.fetch(ctx, query)
	})

	if c.breaker != nil {
		// Caller cancellation says nothing about provider health.
		if ctx.Err() != nil {
			c.breaker.Record(nil)
		} else {
			c.breaker.Record(err)
		}
	}
	if err != nil {
		c.report(OutcomeError, start)
		return nil, eris.Wrapf(err, "suggest: complete %q", query)
	}
	c.report(OutcomeOK, start)
	return out, nil
}

func (c *httpClient) report(o Outcome, start time.Time) {
	if c.observe != nil {
		c.observe(o, time.Since(start))
	}
}

func (c *httpClient) fetch(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("client", c.clientName)
	params.Set("hl", c.language)
	params.Set("gl", c.country)
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+completePath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "suggest: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "suggest: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "suggest: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &resilience.StatusError{Service: serviceName, StatusCode: resp.StatusCode}
	}

	return ParseResponse(body)
}

// ParseResponse decodes a `[query, [suggestion, ...], ...]` payload. Extra
// trailing elements are ignored.
func ParseResponse(body []byte) ([]string, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, eris.Wrap(err, "suggest: decode response")
	}
	if len(parts) < 2 {
		return nil, eris.Errorf("suggest: response has %d elements, want at least 2", len(parts))
	}

	var suggestions []string
	if err := json.Unmarshal(parts[1], &suggestions); err != nil {
		return nil, eris.Wrap(err, "suggest: decode suggestions")
	}
	return suggestions, nil
}
