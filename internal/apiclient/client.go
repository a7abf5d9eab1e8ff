// Package apiclient provides the shared HTTP client used by every upstream
// source adapter: per-source rate limiting, default query parameters,
// bounded retries on throttling and server errors, and response size guards.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent identifies this application to upstream services.
	DefaultUserAgent = "biofan/1.0 (+https://github.com/henrybloomingdale/biofan)"

	// DefaultRate is the request rate used when a source sets none.
	DefaultRate = 5

	// DefaultMaxResponseBytes is the maximum response body size (50 MB).
	DefaultMaxResponseBytes int64 = 50 * 1024 * 1024

	// DefaultMaxRetries bounds retries on 429 and 5xx responses.
	DefaultMaxRetries = 2

	baseRetryWait = 700 * time.Millisecond
	maxRetryWait  = 4 * time.Second
)

// StatusError is returned for non-2xx responses that were not retried away.
type StatusError struct {
	Source     string
	StatusCode int
	Endpoint   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d for %s", e.Source, e.StatusCode, e.Endpoint)
}

// Observer receives one callback per completed HTTP exchange. status is 0
// when the request failed before a response arrived.
type Observer interface {
	ObserveRequest(source string, status int, elapsed time.Duration)
}

// BaseClient is a rate-limited HTTP client bound to one upstream service.
type BaseClient struct {
	Name          string
	BaseURL       string
	UserAgent     string
	DefaultParams url.Values
	HTTPClient    *http.Client
	Limiter       *rate.Limiter
	MaxBytes      int64
	MaxRetries    int
	Logger        *zap.Logger
	Observer      Observer
}

// Option configures a BaseClient.
type Option func(*BaseClient)

// WithBaseURL sets the base URL for requests.
func WithBaseURL(u string) Option {
	return func(c *BaseClient) {
		if u != "" {
			c.BaseURL = u
		}
	}
}

// WithRate sets the steady-state request rate in requests per second.
func WithRate(perSecond float64) Option {
	return func(c *BaseClient) {
		if perSecond > 0 {
			c.Limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithParam adds a query parameter sent with every request.
func WithParam(key, value string) Option {
	return func(c *BaseClient) {
		if value != "" {
			c.DefaultParams.Set(key, value)
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *BaseClient) {
		if ua != "" {
			c.UserAgent = ua
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *BaseClient) { c.HTTPClient = hc }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *BaseClient) {
		if d > 0 {
			c.HTTPClient = &http.Client{Timeout: d}
		}
	}
}

// WithMaxResponseBytes sets the maximum allowed response body size.
func WithMaxResponseBytes(n int64) Option {
	return func(c *BaseClient) {
		if n > 0 {
			c.MaxBytes = n
		}
	}
}

// WithMaxRetries sets how many times a throttled or 5xx request is retried.
func WithMaxRetries(n int) Option {
	return func(c *BaseClient) {
		if n >= 0 {
			c.MaxRetries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *BaseClient) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithObserver sets the request observer.
func WithObserver(o Observer) Option {
	return func(c *BaseClient) { c.Observer = o }
}

// New creates a client for the named source.
func New(name, baseURL string, opts ...Option) *BaseClient {
	c := &BaseClient{
		Name:          name,
		BaseURL:       baseURL,
		UserAgent:     DefaultUserAgent,
		DefaultParams: url.Values{},
		MaxBytes:      DefaultMaxResponseBytes,
		MaxRetries:    DefaultMaxRetries,
		Limiter:       rate.NewLimiter(rate.Limit(DefaultRate), 1),
		Logger:        zap.NewNop(),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Logger = c.Logger.With(zap.String("source", name))
	return c
}

// DoGet performs a rate-limited GET and returns the response body.
func (c *BaseClient) DoGet(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	for k, vs := range c.DefaultParams {
		if params.Get(k) == "" {
			params[k] = vs
		}
	}

	u := c.BaseURL
	if endpoint != "" {
		joined, err := url.JoinPath(c.BaseURL, endpoint)
		if err != nil {
			return nil, fmt.Errorf("building URL: %w", err)
		}
		u = joined
	}
	fullURL := u
	if enc := params.Encode(); enc != "" {
		fullURL += "?" + enc
	}

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.UserAgent)

		start := time.Now()
		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			c.observe(0, start)
			return nil, fmt.Errorf("executing request: %w", err)
		}
		c.observe(resp.StatusCode, start)

		if retryable(resp.StatusCode) && attempt < c.MaxRetries {
			wait := retryAfterDuration(resp.Header.Get("Retry-After"))
			resp.Body.Close()
			if wait <= 0 {
				wait = baseRetryWait * time.Duration(1<<attempt)
				if wait > maxRetryWait {
					wait = maxRetryWait
				}
			}
			c.Logger.Debug("retrying request",
				zap.String("endpoint", endpoint),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait))
			if err := sleepWithContext(ctx, wait); err != nil {
				return nil, fmt.Errorf("retry canceled: %w", err)
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, &StatusError{Source: c.Name, StatusCode: resp.StatusCode, Endpoint: endpoint}
		}

		r := io.LimitReader(resp.Body, c.MaxBytes+1)
		body, err := io.ReadAll(r)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		if int64(len(body)) > c.MaxBytes {
			return nil, fmt.Errorf("response exceeds maximum size of %d bytes", c.MaxBytes)
		}
		c.Logger.Debug("request complete",
			zap.String("endpoint", endpoint),
			zap.Duration("elapsed", time.Since(start)),
			zap.Int("bytes", len(body)))
		return body, nil
	}

	return nil, errors.New("unreachable request loop")
}

// GetJSON performs DoGet and decodes the body into a generic JSON value.
func (c *BaseClient) GetJSON(ctx context.Context, endpoint string, params url.Values) (any, error) {
	body, err := c.DoGet(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", c.Name, err)
	}
	return v, nil
}

func (c *BaseClient) observe(status int, start time.Time) {
	if c.Observer != nil {
		c.Observer.ObserveRequest(c.Name, status, time.Since(start))
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout
}

func retryAfterDuration(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}

	if secs, err := strconv.Atoi(v); err == nil {
		if secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return 0
	}

	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
	}

	return 0
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
