// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/parley-tui/internal/cloud/cloudtest"
	"github.com/jeranaias/parley-tui/internal/session"
)

// newTestClient points a client at a fake endpoint mounted under /api.
func newTestClient(t *testing.T) (*Client, *cloudtest.Server) {
	t.Helper()
	srv := cloudtest.NewServer("/api")
	t.Cleanup(srv.Close)

	client := NewClient().
		WithBaseURL(srv.BaseURL("/api")).
		WithTimeout(5 * time.Second)
	client.retryBase = time.Millisecond
	return client, srv
}

func TestClient_Defaults(t *testing.T) {
	c := NewClient()
	assert.Equal(t, DefaultBaseURL+"/chat", c.Endpoint())
	assert.Equal(t, DefaultMaxAttempts, c.maxAttempts)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	assert.Nil(t, c.limiter)
}

func TestClient_Builders(t *testing.T) {
	c := NewClient().
		WithBaseURL("http://example.test/api/ ").
		WithChatPath("talk").
		WithMaxAttempts(0).
		WithUserAgent("").
		WithTimeout(-1)

	assert.Equal(t, "http://example.test/api/talk", c.Endpoint())
	assert.Equal(t, 1, c.maxAttempts)
	assert.Equal(t, DefaultUserAgent, c.userAgent)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)

	c.WithBaseURL("   ")
	assert.Equal(t, "http://example.test/api/talk", c.Endpoint())
}

func TestClient_ChatSuccess(t *testing.T) {
	client, srv := newTestClient(t)
	srv.Enqueue(cloudtest.Generated("Hello there"))

	resp, err := client.Chat(context.Background(), ChatRequest{Prompt: "Hi", SessionID: "s-1"})
	require.NoError(t, err)

	text, ok := resp.Text()
	assert.True(t, ok)
	assert.Equal(t, "Hello there", text)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Hi", reqs[0].Prompt)
	assert.Equal(t, "s-1", reqs[0].SessionID)
}

func TestClient_GenerateSendsPromptVerbatim(t *testing.T) {
	client, srv := newTestClient(t)

	text, err := client.Generate(context.Background(), session.Request{Prompt: "  spaced  ", SessionID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "echo:   spaced  ", text)
	assert.Equal(t, "  spaced  ", srv.Requests()[0].Prompt)
}

func TestClient_EmptyGeneratedTextIsSuccess(t *testing.T) {
	client, srv := newTestClient(t)
	srv.Enqueue(cloudtest.Raw(http.StatusOK, `{"message":[{"generated_text":""}]}`))

	text, err := client.Generate(context.Background(), session.Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestClient_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"empty message list", `{"message":[]}`},
		{"missing generated_text", `{"message":[{"text":"hi"}]}`},
		{"message not a list", `{"message":"hi"}`},
		{"not json", `<html>oops</html>`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, srv := newTestClient(t)
			client.WithMaxAttempts(3)
			srv.Enqueue(cloudtest.Raw(http.StatusOK, tc.body))

			_, err := client.Generate(context.Background(), session.Request{Prompt: "x"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.ErrorIs(t, err, session.ErrMalformedResponse)
			assert.Equal(t, 1, srv.Count(), "malformed replies are not retried")
		})
	}
}

func TestClient_ErrorResponseMessage(t *testing.T) {
	client, srv := newTestClient(t)
	srv.Enqueue(cloudtest.Failure(http.StatusBadRequest, "Prompt is required"))

	_, err := client.Generate(context.Background(), session.Request{Prompt: "x"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode())
	assert.Equal(t, "Prompt is required", apiErr.ServerMessage())

	msg, ok := ServerMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Prompt is required", msg)
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"bad prompt"}`, "bad prompt"},
		{"error string", `{"error":"quota exceeded"}`, "quota exceeded"},
		{"nested error", `{"error":{"code":7,"message":"denied"}}`, "denied"},
		{"message wins", `{"message":"first","error":"second"}`, "first"},
		{"trimmed", `{"message":"  padded  "}`, "padded"},
		{"non-string message", `{"message":42}`, ""},
		{"plain text", `Internal Server Error`, ""},
		{"empty", ``, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractMessage([]byte(tc.body)))
		})
	}
}

func TestClient_NoMessageFallsThrough(t *testing.T) {
	client, srv := newTestClient(t)
	srv.Enqueue(cloudtest.Raw(http.StatusInternalServerError, `Internal Server Error`))

	_, err := client.Generate(context.Background(), session.Request{Prompt: "x"})
	require.Error(t, err)
	_, ok := ServerMessage(err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestClient_SingleAttemptByDefault(t *testing.T) {
	client, srv := newTestClient(t)
	srv.Enqueue(cloudtest.Failure(http.StatusServiceUnavailable, "busy"))

	_, err := client.Generate(context.Background(), session.Request{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, 1, srv.Count())
	assert.NotContains(t, err.Error(), "max attempts")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	client, srv := newTestClient(t)
	client.WithMaxAttempts(3)
	srv.Enqueue(
		cloudtest.Failure(http.StatusBadGateway, "gateway"),
		cloudtest.Failure(http.StatusServiceUnavailable, "busy"),
		cloudtest.Generated("finally"),
	)

	text, err := client.Generate(context.Background(), session.Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "finally", text)
	assert.Equal(t, 3, srv.Count())
}

func TestClient_RetriesExhausted(t *testing.T) {
	client, srv := newTestClient(t)
	client.WithMaxAttempts(2)
	srv.SetFallback(func(cloudtest.Request) cloudtest.Reply {
		return cloudtest.Failure(http.StatusInternalServerError, "down")
	})

	_, err := client.Generate(context.Background(), session.Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max attempts exceeded")
	assert.Equal(t, 2, srv.Count())

	msg, ok := ServerMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "down", msg)
}

func TestClient_ClientErrorsNotRetried(t *testing.T) {
	client, srv := newTestClient(t)
	client.WithMaxAttempts(3)
	srv.Enqueue(cloudtest.Failure(http.StatusBadRequest, "nope"))

	_, err := client.Generate(context.Background(), session.Request{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, 1, srv.Count())
}

func TestClient_RateLimitedIsWrapped(t *testing.T) {
	client, srv := newTestClient(t)
	srv.Enqueue(cloudtest.Failure(http.StatusTooManyRequests, "slow down"))

	_, err := client.Generate(context.Background(), session.Request{Prompt: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	msg, ok := ServerMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "slow down", msg)
}

func TestClient_LocalRateLimit(t *testing.T) {
	client, srv := newTestClient(t)
	client.WithRateLimit(1)

	_, err := client.Generate(context.Background(), session.Request{Prompt: "first"})
	require.NoError(t, err)

	// The bucket is empty for the next minute; a short deadline cannot be met.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Generate(ctx, session.Request{Prompt: "second"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
	assert.Equal(t, 1, srv.Count())

	client.WithRateLimit(0)
	assert.Nil(t, client.limiter)
}

func TestClient_ContextCanceled(t *testing.T) {
	client, srv := newTestClient(t)
	client.WithMaxAttempts(3)
	srv.Enqueue(cloudtest.Reply{Status: http.StatusOK, Body: `{}`, Delay: 2 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.Generate(ctx, session.Request{Prompt: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, session.FailureCanceled, session.Classify(err))
}

func TestCalculateBackoff(t *testing.T) {
	c := NewClient()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{3, 2 * time.Second},
		{5, 8 * time.Second},
		{6, retryMaxDelay},
		{10, retryMaxDelay},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, c.calculateBackoff(tc.attempt), "attempt %d", tc.attempt)
	}
}

func TestChatResponse_Text(t *testing.T) {
	var nilResp *ChatResponse
	_, ok := nilResp.Text()
	assert.False(t, ok)

	hello := "hello"
	resp := &ChatResponse{Message: []Generation{{GeneratedText: &hello}, {}}}
	text, ok := resp.Text()
	assert.True(t, ok)
	assert.Equal(t, "hello", text)
}

// The client drives a session end to end: one request per submission, the
// session id carried on every request and server messages surfaced as notices.
func TestClient_WithController(t *testing.T) {
	client, srv := newTestClient(t)
	notices := &session.NoticeLog{}
	ctrl := session.NewController(client, session.Options{Notifier: notices})
	defer ctrl.Close()

	call, err := ctrl.Submit("What is Go?")
	require.NoError(t, err)
	out := <-ctrl.Go(context.Background(), call)
	require.True(t, out.OK())
	assert.Equal(t, "echo: What is Go?", out.Turn.Content)

	srv.Enqueue(cloudtest.Failure(http.StatusInternalServerError, "model overloaded"))
	call, err = ctrl.Submit("Again")
	require.NoError(t, err)
	out = <-ctrl.Go(context.Background(), call)
	require.Error(t, out.Err)
	require.NotNil(t, out.Notice)
	assert.Equal(t, session.DefaultErrorTitle, out.Notice.Title)
	assert.Equal(t, "model overloaded", out.Notice.Description)
	assert.Equal(t, session.FailureProtocol, session.Classify(out.Err))

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, ctrl.SessionID(), reqs[0].SessionID)
	assert.Equal(t, reqs[0].SessionID, reqs[1].SessionID)

	snap := ctrl.Snapshot()
	assert.Equal(t, 3, snap.Len())
	assert.False(t, snap.Pending)
}
