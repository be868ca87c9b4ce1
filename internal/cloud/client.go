// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/parley-tui/internal/session"
)

// Configuration constants for the chat endpoint.
const (
	// DefaultBaseURL is the base URL of the hosted chat function.
	DefaultBaseURL = "https://us-central1-meta-plus-86284.cloudfunctions.net/api"

	// DefaultChatPath is appended to the base URL for chat requests.
	DefaultChatPath = "/chat"

	// DefaultTimeout is the default timeout for one HTTP attempt.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxAttempts is one: a submission maps to a single request
	// unless retries are configured.
	DefaultMaxAttempts = 1

	// DefaultUserAgent identifies the client.
	DefaultUserAgent = "parley/0.1.0"

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// PERFORMANCE: one pooled transport for every Client.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 4,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// Error variables for common endpoint errors.
var (
	// ErrMalformedResponse is returned when a 2xx body lacks generated text.
	ErrMalformedResponse = session.ErrMalformedResponse

	// ErrRateLimited is returned for HTTP 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrResponseTooLarge is returned when the body exceeds MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"sessionId"`
}

// Generation is one element of the response's message list.
type Generation struct {
	GeneratedText *string `json:"generated_text"`
}

// ChatResponse is the body of a successful reply.
type ChatResponse struct {
	Message []Generation `json:"message"`
}

// Text returns message[0].generated_text. ok is false if the field is absent.
func (r *ChatResponse) Text() (text string, ok bool) {
	if r == nil || len(r.Message) == 0 || r.Message[0].GeneratedText == nil {
		return "", false
	}
	return *r.Message[0].GeneratedText, true
}

// apiErrorResponse covers the error shapes the endpoint and its hosting
// platform produce: {"message": "..."}, {"error": "..."} and
// {"error": {"message": "..."}}.
type apiErrorResponse struct {
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// APIError is a non-2xx reply.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chat endpoint error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("chat endpoint error (HTTP %d)", e.Status)
}

// StatusCode returns the HTTP status.
func (e *APIError) StatusCode() int {
	return e.Status
}

// ServerMessage returns the server-supplied message, if any.
func (e *APIError) ServerMessage() string {
	return e.Message
}

// ServerMessage extracts the server-supplied message from err.
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat endpoint. It is safe for concurrent use once
// configured.
type Client struct {
	baseURL     string
	chatPath    string
	userAgent   string
	httpClient  *http.Client
	maxAttempts int
	limiter     *rate.Limiter
	logger      *slog.Logger
	retryBase   time.Duration
}

// NewClient creates a client for the default endpoint.
func NewClient() *Client {
	return &Client{
		baseURL:   DefaultBaseURL,
		chatPath:  DefaultChatPath,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   DefaultTimeout,
		},
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
		retryBase:   retryBaseDelay,
	}
}

// WithBaseURL sets a custom base URL.
func (c *Client) WithBaseURL(url string) *Client {
	if url = strings.TrimSpace(url); url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// WithChatPath sets the path appended to the base URL.
func (c *Client) WithChatPath(path string) *Client {
	if path = strings.TrimSpace(path); path != "" {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		c.chatPath = path
	}
	return c
}

// WithTimeout sets the per-attempt timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithMaxAttempts sets the total number of attempts per call.
func (c *Client) WithMaxAttempts(n int) *Client {
	if n < 1 {
		n = 1
	}
	c.maxAttempts = n
	return c
}

// WithRateLimit caps outbound requests per minute. Zero disables the limit.
func (c *Client) WithRateLimit(perMinute int) *Client {
	if perMinute <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	return c
}

// WithUserAgent sets the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Endpoint returns the full chat URL.
func (c *Client) Endpoint() string {
	return c.baseURL + c.chatPath
}

// Generate implements session.Generator.
func (c *Client) Generate(ctx context.Context, req session.Request) (string, error) {
	resp, err := c.Chat(ctx, ChatRequest{Prompt: req.Prompt, SessionID: req.SessionID})
	if err != nil {
		return "", err
	}
	text, _ := resp.Text()
	return text, nil
}

// Chat sends one prompt and returns the decoded reply.
//
// Only transport errors, 429 and 5xx are retried, and only when
// MaxAttempts > 1. The returned response always carries generated text.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			c.logger.Debug("retrying chat request", "attempt", attempt+1, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		resp, err := c.doRequest(ctx, body)
		if err == nil {
			return resp, nil
		}
		if !c.isRetryable(ctx, err) {
			return nil, err
		}
		lastErr = err
	}

	if c.maxAttempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max attempts exceeded: %w", lastErr)
}

// doRequest performs a single HTTP attempt.
func (c *Client) doRequest(ctx context.Context, body []byte) (*ChatResponse, error) {
	url := c.Endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("chat request failed", "method", req.Method, "path", req.URL.Path, "duration", time.Since(start), "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Only status and timing are logged, never prompt or reply content.
	c.logger.Debug("chat response", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "duration", time.Since(start))

	data, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, handleErrorResponse(resp.StatusCode, data)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if _, ok := chatResp.Text(); !ok {
		return nil, fmt.Errorf("%w: missing message[0].generated_text", ErrMalformedResponse)
	}
	return &chatResp, nil
}

// readResponse reads the body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrResponseTooLarge, MaxResponseSize)
	}
	return data, nil
}

// handleErrorResponse converts a non-2xx reply into an *APIError.
func handleErrorResponse(status int, body []byte) error {
	apiErr := &APIError{Status: status, Message: extractMessage(body)}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrRateLimited, apiErr)
	}
	return apiErr
}

// extractMessage pulls a human-readable message out of an error body.
func extractMessage(body []byte) string {
	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if msg := rawString(parsed.Message); msg != "" {
		return msg
	}
	if msg := rawString(parsed.Error); msg != "" {
		return msg
	}
	var nested struct {
		Message string `json:"message"`
	}
	if len(parsed.Error) > 0 && json.Unmarshal(parsed.Error, &nested) == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}

// rawString decodes raw as a JSON string, or returns "".
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// isRetryable reports whether err may succeed on another attempt.
func (c *Client) isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrResponseTooLarge) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}
	// Transport failure.
	return true
}

// calculateBackoff returns the delay before the given attempt.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := c.retryBase * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
