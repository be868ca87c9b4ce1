// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for turns and transcripts.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one message in a conversation.
//
// Turns are values. A Transcript hands out copies, so a turn's content can
// never be edited in place; replacing a reply means truncating and appending.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTurn creates a turn with a fresh ID and the current time.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewUserTurn creates a new user turn.
func NewUserTurn(content string) Turn {
	return NewTurn(RoleUser, content)
}

// NewAssistantTurn creates a new assistant turn.
func NewAssistantTurn(content string) Turn {
	return NewTurn(RoleAssistant, content)
}

// IsUser returns true if this is a user turn.
func (t Turn) IsUser() bool {
	return t.Role == RoleUser
}

// IsAssistant returns true if this is an assistant turn.
func (t Turn) IsAssistant() bool {
	return t.Role == RoleAssistant
}

// FormatTime returns the creation time formatted for display.
func (t Turn) FormatTime() string {
	return t.CreatedAt.Format("15:04")
}
