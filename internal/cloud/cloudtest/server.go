// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloudtest provides a scripted fake of the chat endpoint for tests.
package cloudtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Request is a decoded POST /chat body.
type Request struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"sessionId"`
}

// Reply is one scripted response.
type Reply struct {
	Status int
	Body   string
	Delay  time.Duration
}

// Generated replies 200 with {"message":[{"generated_text": text}]}.
func Generated(text string) Reply {
	body, _ := json.Marshal(map[string]any{
		"message": []map[string]string{{"generated_text": text}},
	})
	return Reply{Status: http.StatusOK, Body: string(body)}
}

// Failure replies with status and {"message": msg}.
func Failure(status int, msg string) Reply {
	body, _ := json.Marshal(map[string]string{"message": msg})
	return Reply{Status: status, Body: string(body)}
}

// Raw replies with status and a literal body.
func Raw(status int, body string) Reply {
	return Reply{Status: status, Body: body}
}

// Echo is the default responder: it answers with the prompt prefixed by "echo: ".
func Echo(req Request) Reply {
	return Generated("echo: " + req.Prompt)
}

// Server is an httptest server routing POST {prefix}/chat through chi.
// Scripted replies are served in order; once exhausted the fallback answers.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	script   []Reply
	fallback func(Request) Reply
}

// NewServer starts a fake endpoint mounted at prefix (for example "/api").
func NewServer(prefix string) *Server {
	s := &Server{fallback: Echo}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if prefix == "" || prefix == "/" {
		r.Post("/chat", s.handleChat)
	} else {
		r.Route(prefix, func(api chi.Router) {
			api.Post("/chat", s.handleChat)
		})
	}

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL returns the URL to configure the client with.
func (s *Server) BaseURL(prefix string) string {
	return s.URL + prefix
}

// Enqueue appends scripted replies.
func (s *Server) Enqueue(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, replies...)
}

// SetFallback replaces the responder used when the script is empty.
func (s *Server) SetFallback(fn func(Request) Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = fn
}

// Requests returns the decoded requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns the number of requests received.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReply(w, Failure(http.StatusBadRequest, "invalid request body"))
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	var reply Reply
	if len(s.script) > 0 {
		reply, s.script = s.script[0], s.script[1:]
	} else {
		reply = s.fallback(req)
	}
	s.mu.Unlock()

	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-r.Context().Done():
			return
		}
	}
	writeReply(w, reply)
}

func writeReply(w http.ResponseWriter, reply Reply) {
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(reply.Body))
}
