// Package backend is the HTTP client for the external rokto backend API,
// which owns persistence, donor matching and authentication.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rokto/rokto/internal/platform/telemetry"
)

// Backend endpoint paths, relative to the API base URL.
const (
	PathBloodRequest = "/blood_request/request"
	PathRefreshToken = "/user/refresh-token"
)

// maxResponseBytes bounds how much of a backend response is read.
const maxResponseBytes = 1 << 20

// ErrTransport marks failures where no HTTP response was received: DNS,
// connection, timeout, cancelled context, or an unreadable body.
var ErrTransport = errors.New("backend transport failure")

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ServerError reports whether the status code is 5xx.
func (r *Response) ServerError() bool {
	return r.StatusCode >= 500
}

// Client posts JSON to the backend. Each call carries its own deadline.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *telemetry.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records every call into m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a Client for baseURL (no trailing slash).
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger.With().Str("component", "backend").Logger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PostJSON marshals body, posts it to path and reads the response. bearer,
// when non-empty, is sent as an Authorization header. A non-2xx status is
// not an error; callers inspect the Response. Errors wrap ErrTransport
// unless the request could not be built.
func (c *Client) PostJSON(ctx context.Context, path string, body any, bearer string) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(path, "error", start)
		c.logger.Warn().Err(err).Str("path", path).Msg("backend request failed")
		return nil, fmt.Errorf("%w: POST %s: %v", ErrTransport, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.observe(path, "error", start)
		return nil, fmt.Errorf("%w: read response of POST %s: %v", ErrTransport, path, err)
	}

	out := &Response{StatusCode: resp.StatusCode, Body: data}
	outcome := "ok"
	if !out.OK() {
		outcome = fmt.Sprintf("status_%dxx", resp.StatusCode/100)
		c.logger.Warn().Str("path", path).Int("status", resp.StatusCode).Msg("backend returned non-2xx")
	}
	c.observe(path, outcome, start)
	return out, nil
}

func (c *Client) observe(path, outcome string, start time.Time) {
	c.metrics.ObserveBackend(path, outcome, time.Since(start))
}
