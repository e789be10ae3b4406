package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	custom_error "toolroom/pkg/errors"
)

const (
	SessionHeader   = "X-Session-ID"
	RequestIDHeader = "X-Request-ID"

	DefaultTimeout = 15 * time.Second
)

// TokenSource yields the current session token at call time.
type TokenSource interface {
	Token() (string, bool)
}

// Invalidator is implemented by token sources that can drop a token the
// backend no longer accepts.
type Invalidator interface {
	Invalidate()
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call performs an authenticated request. Without a session token it fails
// before any network traffic.
func (c *Client) Call(ctx context.Context, method, path string, body, out any) error {
	token, ok := c.tokens.Token()
	if !ok || token == "" {
		return custom_error.ErrNotAuthenticated
	}

	err := c.do(ctx, method, path, token, body, out)
	if err != nil {
		var apiErr *custom_error.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			if inv, ok := c.tokens.(Invalidator); ok {
				inv.Invalidate()
			}
		}
	}
	return err
}

// CallAnonymous performs a request without a session header.
func (c *Client) CallAnonymous(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, "", body, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(SessionHeader, token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return &custom_error.ConnectionError{Cause: err}
	}
	defer resp.Body.Close()

	c.log.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &custom_error.ConnectionError{Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response from %s %s: %w", method, path, err)
	}
	return nil
}
