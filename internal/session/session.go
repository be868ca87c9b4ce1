// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/parley-tui/internal/model"
)

// =============================================================================
// SESSION
// =============================================================================

// Session is the state for one mounted chat view: the transcript, the
// pending flag and the correlation ID sent with every request.
//
// Session has no locking of its own. It is owned by exactly one Controller.
type Session struct {
	id         string
	createdAt  time.Time
	transcript *model.Transcript
	pending    bool
	closed     bool
}

// NewSession creates a session with a fresh ID. Seed turns, if any, are
// copied into the transcript in order.
func NewSession(seed ...model.Turn) *Session {
	return &Session{
		id:         uuid.NewString(),
		createdAt:  time.Now(),
		transcript: model.NewTranscript(seed...),
	}
}

// ID returns the session identifier. It never changes.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// snapshot copies the current state.
func (s *Session) snapshot() Snapshot {
	return Snapshot{
		SessionID: s.id,
		Turns:     s.transcript.Turns(),
		Pending:   s.pending,
	}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is an immutable copy of session state handed to the presentation
// layer after every transition.
type Snapshot struct {
	SessionID string
	Turns     []model.Turn
	Pending   bool
}

// Len returns the number of turns.
func (s Snapshot) Len() int {
	return len(s.Turns)
}

// ShowWelcome reports whether the empty-state screen should be shown.
func (s Snapshot) ShowWelcome() bool {
	return len(s.Turns) == 0 && !s.Pending
}

// LastAssistant returns the most recent assistant turn.
func (s Snapshot) LastAssistant() (model.Turn, bool) {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].IsAssistant() {
			return s.Turns[i], true
		}
	}
	return model.Turn{}, false
}

// Find returns the turn with the given ID and its index.
func (s Snapshot) Find(id string) (model.Turn, int, bool) {
	for i, t := range s.Turns {
		if t.ID == id {
			return t, i, true
		}
	}
	return model.Turn{}, -1, false
}
