// Package graph implements the outbound Microsoft Graph request pipeline:
// request classification, per-category admission quotas, a global concurrency
// gate, retry with backoff, and one metrics sample per logical call.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/graphgate/graphgate/internal/graph/concurrency"
	"github.com/graphgate/graphgate/internal/graph/metrics"
	"github.com/graphgate/graphgate/internal/graph/ratelimit"
	appmetrics "github.com/graphgate/graphgate/internal/metrics"
)

const (
	// DefaultBaseURL is the Graph v1.0 API root.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// DefaultMaxRetries bounds the attempt loop at DefaultMaxRetries+1
	// network calls per logical request.
	DefaultMaxRetries = 3

	// DefaultRetryMaxWait caps how long a single Retry-After pause may last.
	DefaultRetryMaxWait = 60 * time.Second

	// defaultRetryAfter applies when a 429 carries no usable Retry-After.
	defaultRetryAfter = 5 * time.Second
)

// TokenProvider supplies bearer credentials for outbound calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	ClearCache()
}

// Client executes Graph requests through the admission pipeline. Zero-value
// optional fields get sensible defaults; construct with NewClient.
type Client struct {
	BaseURL      string
	Auth         TokenProvider
	Limits       *ratelimit.Registry
	Gate         *concurrency.Gate
	Metrics      *metrics.Collector
	HTTP         *http.Client
	Logger       *logging.Logger
	MaxRetries   int
	RetryMaxWait time.Duration
	Clock        func() time.Time

	// Sleep performs backoff pauses. Overridable so tests don't wait out
	// real backoff schedules.
	Sleep func(ctx context.Context, d time.Duration) error

	closed   atomic.Bool
	inflight sync.WaitGroup
}

// NewClient wires a client over the shared pipeline components.
func NewClient(auth TokenProvider, limits *ratelimit.Registry, gate *concurrency.Gate, collector *metrics.Collector, httpClient *http.Client) *Client {
	return &Client{
		BaseURL:      DefaultBaseURL,
		Auth:         auth,
		Limits:       limits,
		Gate:         gate,
		Metrics:      collector,
		HTTP:         httpClient,
		MaxRetries:   DefaultMaxRetries,
		RetryMaxWait: DefaultRetryMaxWait,
	}
}

// Execute runs one logical Graph call: classify, fetch credential, then up to
// MaxRetries+1 attempts, each taking a fresh quota permit and concurrency
// slot. Returns the raw response body on 2xx; 204-style empty bodies return
// nil. Exactly one metrics sample is recorded per call regardless of how many
// attempts it took.
func (c *Client) Execute(ctx context.Context, method, path string, params url.Values, body any) (json.RawMessage, error) {
	return c.ExecuteWithRetries(ctx, method, path, params, body, c.MaxRetries)
}

// ExecuteWithRetries is Execute with a per-call retry budget overriding the
// configured default. Negative budgets mean no retries.
func (c *Client) ExecuteWithRetries(ctx context.Context, method, path string, params url.Values, body any, maxRetries int) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	c.inflight.Add(1)
	defer c.inflight.Done()

	category := ClassifyRequest(path, params)
	limiter := c.Limits.Get(string(category))

	start := c.now()
	lastStatus := 0
	errType := ""
	defer func() {
		duration := c.now().Sub(start)
		c.Metrics.Record(path, lastStatus, errType, duration)
		appmetrics.RecordUpstreamRequest(string(category), lastStatus, errType, duration)
	}()

	// One credential fetch per logical call; the manager refreshes ahead of
	// expiry so retries reuse it safely.
	token, err := c.Auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	var bodyBytes []byte
	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, &ValidationError{Field: "body", Message: "not JSON-serializable: " + err.Error()}
		}
	}

	reqURL, err := c.buildURL(path, params)
	if err != nil {
		return nil, &ValidationError{Field: "path", Message: err.Error()}
	}

	var lastErr error
	if maxRetries < 0 {
		maxRetries = 0
	}
	attempts := maxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		admitStart := time.Now()
		if err := limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		if time.Since(admitStart) > 10*time.Millisecond {
			appmetrics.RecordRateLimitWait(string(category))
		}

		res, err := c.attempt(ctx, method, reqURL, token, bodyBytes)
		if err != nil {
			// Transport failure. Retried like a 5xx.
			lastStatus = 0
			errType = metrics.ErrTypeServerError
			lastErr = classifyNetworkErr(err, path)
			if attempt < maxRetries {
				c.logRetry(path, attempt, 0, lastErr)
				if serr := c.sleep(ctx, backoffDelay(attempt)); serr != nil {
					return nil, serr
				}
				continue
			}
			break
		}

		lastStatus = res.status
		if res.status >= 200 && res.status < 300 {
			errType = ""
			if len(res.body) == 0 {
				return nil, nil
			}
			return json.RawMessage(res.body), nil
		}

		attemptErr := classifyStatus(res.status, path, string(res.body))
		wait := backoffDelay(attempt)
		var rl *RateLimitError
		switch {
		case errors.As(attemptErr, &rl):
			rl.RetryAfter = res.retryAfter
			errType = metrics.ErrTypeRateLimit
			wait = c.clampRetryAfter(res.retryAfter)
		case res.status >= 500:
			errType = metrics.ErrTypeServerError
		default:
			errType = metrics.ErrTypeClientError
		}

		if !IsRetriable(attemptErr) {
			// Other 4xx: terminal on first occurrence.
			return nil, attemptErr
		}

		lastErr = attemptErr
		if attempt < maxRetries {
			c.logRetry(path, attempt, res.status, lastErr)
			if serr := c.sleep(ctx, wait); serr != nil {
				return nil, serr
			}
			continue
		}
		break
	}

	return nil, &RetriesExceededError{
		Endpoint:   path,
		Attempts:   attempts,
		LastStatus: lastStatus,
		LastErr:    lastErr,
	}
}

type attemptResult struct {
	status     int
	retryAfter time.Duration
	body       []byte
}

// attempt performs a single network call. The concurrency slot is held only
// while the request is in flight and the body is being read.
func (c *Client) attempt(ctx context.Context, method, reqURL, token string, body []byte) (attemptResult, error) {
	release, err := c.Gate.Acquire(ctx)
	if err != nil {
		return attemptResult{}, err
	}
	defer release()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return attemptResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return attemptResult{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return attemptResult{}, err
	}

	res := attemptResult{status: resp.StatusCode, body: respBody, retryAfter: defaultRetryAfter}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if d, ok := parseRetryAfterHeader(v); ok {
			res.retryAfter = d
		}
	}
	return res, nil
}

// Get issues a GET through the pipeline.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	return c.Execute(ctx, http.MethodGet, path, params, nil)
}

// Post issues a POST through the pipeline.
func (c *Client) Post(ctx context.Context, path string, params url.Values, body any) (json.RawMessage, error) {
	return c.Execute(ctx, http.MethodPost, path, params, body)
}

// Patch issues a PATCH through the pipeline.
func (c *Client) Patch(ctx context.Context, path string, params url.Values, body any) (json.RawMessage, error) {
	return c.Execute(ctx, http.MethodPatch, path, params, body)
}

// Delete issues a DELETE through the pipeline.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Execute(ctx, http.MethodDelete, path, nil, nil)
}

// Close stops accepting new calls and waits for in-flight ones up to the ctx
// deadline, then releases pooled connections.
func (c *Client) Close(ctx context.Context) error {
	c.closed.Store(true)

	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("graph: drain aborted with requests still in flight: %w", ctx.Err())
	}

	c.httpClient().CloseIdleConnections()
	return err
}

func (c *Client) buildURL(path string, params url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("path must start with /: %q", path)
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u := base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u, nil
}

// clampRetryAfter bounds a 429 pause to the configured ceiling.
func (c *Client) clampRetryAfter(wait time.Duration) time.Duration {
	if wait <= 0 {
		wait = defaultRetryAfter
	}
	maxWait := c.RetryMaxWait
	if maxWait <= 0 {
		maxWait = DefaultRetryMaxWait
	}
	if wait > maxWait {
		wait = maxWait
	}
	return wait
}

// backoffDelay is 2^attempt seconds, no jitter.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

func (c *Client) logRetry(path string, attempt, status int, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Warn("Retrying Graph request",
		zap.String("path", path),
		zap.Int("attempt", attempt+1),
		zap.Int("status", status),
		zap.Error(err),
	)
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// parseRetryAfterHeader reads the integer-seconds form of Retry-After.
func parseRetryAfterHeader(v string) (time.Duration, bool) {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
