// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the HTTP client for the remote chat endpoint.
//
// The endpoint accepts POST {base}/chat with {"prompt", "sessionId"} and
// answers {"message": [{"generated_text": "..."}]}. Anything else is an
// error: non-2xx statuses become *APIError (carrying the server's message
// field when present) and a 2xx body without generated text wraps
// ErrMalformedResponse.
//
// # Key Types
//
//   - Client: endpoint client with timeout, retry and rate limiting
//   - ChatRequest / ChatResponse: wire shapes
//   - APIError: non-2xx reply with status and server message
//
// # Usage
//
//	client := cloud.NewClient().WithBaseURL(cfg.API.BaseURL)
//	resp, err := client.Chat(ctx, cloud.ChatRequest{Prompt: "Hi", SessionID: id})
//	if err != nil {
//	    msg, _ := cloud.ServerMessage(err)
//	    ...
//	}
//	text, _ := resp.Text()
//
// Client also satisfies session.Generator, so it plugs straight into a
// session.Controller.
package cloud
