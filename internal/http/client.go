package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedsharma/companionctl/internal/model"
)

const (
	// MaxResponseSize limits response body to 50MB to prevent memory exhaustion
	MaxResponseSize = 50 * 1024 * 1024

	// RequestIDHeader carries a per-call id so backend logs can be correlated
	RequestIDHeader = "X-Request-ID"
)

// Client talks to the companion backend REST API
type Client struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
	maxBody int64
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the backend at baseURL.
// No timeout is set beyond the transport default; callers bound calls with ctx.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if err := validateBaseURL(baseURL); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
		log:     zap.NewNop(),
		maxBody: MaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized backend URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do executes a request against the backend and returns the raw response.
// Only transport failures are returned as errors; status handling is left to callers.
func (c *Client) do(ctx context.Context, method, path string, payload any) (*model.Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	// Read response body with size limit to prevent memory exhaustion
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, err
	}

	// Check if response was truncated
	truncated := int64(len(respBody)) > c.maxBody
	if truncated {
		respBody = respBody[:c.maxBody]
		c.log.Warn("response body truncated",
			zap.String("path", path),
			zap.Int64("limit_bytes", c.maxBody),
			zap.String("request_id", requestID))
	}

	respHeaders := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			respHeaders[key] = values[0]
		}
	}

	c.log.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
		zap.String("request_id", requestID))

	return &model.Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    respHeaders,
		Body:       string(respBody),
		DurationMs: duration.Milliseconds(),
		Truncated:  truncated,
	}, nil
}

// validateBaseURL checks that the backend URL is an absolute http(s) URL
func validateBaseURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported server URL scheme: %q (only http and https are allowed)", parsed.Scheme)
	}

	if parsed.Hostname() == "" {
		return fmt.Errorf("server URL must have a hostname")
	}

	return nil
}

// segment escapes a single path segment
func segment(s string) string {
	return url.PathEscape(s)
}
