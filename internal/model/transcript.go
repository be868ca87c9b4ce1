// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the ordered list of turns in a session. Insertion order is
// conversation order. It is append-only except for TruncateAt.
//
// Roles are expected to alternate user/assistant but the transcript does not
// enforce it; see Alternates.
//
// A Transcript is not safe for concurrent use. The chat controller guards it.
type Transcript struct {
	turns []Turn
}

// NewTranscript creates a transcript seeded with the given turns.
func NewTranscript(turns ...Turn) *Transcript {
	t := &Transcript{turns: make([]Turn, 0, len(turns))}
	t.turns = append(t.turns, turns...)
	return t
}

// Append adds a turn to the end of the transcript. It never fails.
func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
}

// TruncateAt removes the turn at index and every turn after it.
// An out-of-range index is a no-op. Returns true if any turn was removed.
func (t *Transcript) TruncateAt(index int) bool {
	if index < 0 || index >= len(t.turns) {
		return false
	}
	// Zero the tail so dropped content can be collected.
	for i := index; i < len(t.turns); i++ {
		t.turns[i] = Turn{}
	}
	t.turns = t.turns[:index]
	return true
}

// FindLastUserBefore scans backward from index-1 and returns the nearest user
// turn and its position. ok is false when no user turn precedes index.
// An index past the end is treated as Len. The transcript is not modified.
func (t *Transcript) FindLastUserBefore(index int) (turn Turn, pos int, ok bool) {
	if index > len(t.turns) {
		index = len(t.turns)
	}
	for i := index - 1; i >= 0; i-- {
		if t.turns[i].Role == RoleUser {
			return t.turns[i], i, true
		}
	}
	return Turn{}, -1, false
}

// IndexOf returns the position of the turn with the given ID, or -1.
func (t *Transcript) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range t.turns {
		if t.turns[i].ID == id {
			return i
		}
	}
	return -1
}

// At returns the turn at index.
func (t *Transcript) At(index int) (Turn, bool) {
	if index < 0 || index >= len(t.turns) {
		return Turn{}, false
	}
	return t.turns[index], true
}

// Get returns the turn with the given ID.
func (t *Transcript) Get(id string) (Turn, bool) {
	return t.At(t.IndexOf(id))
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// IsEmpty returns true if the transcript has no turns.
func (t *Transcript) IsEmpty() bool {
	return len(t.turns) == 0
}

// Turns returns a copy of all turns in order.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Last returns the most recent turn.
func (t *Transcript) Last() (Turn, bool) {
	return t.At(len(t.turns) - 1)
}

// LastAssistant returns the most recent assistant turn.
func (t *Transcript) LastAssistant() (Turn, bool) {
	for i := len(t.turns) - 1; i >= 0; i-- {
		if t.turns[i].Role == RoleAssistant {
			return t.turns[i], true
		}
	}
	return Turn{}, false
}

// Clone returns an independent copy of the transcript.
func (t *Transcript) Clone() *Transcript {
	return NewTranscript(t.turns...)
}

// Alternates reports whether the transcript starts with a user turn and
// strictly alternates roles from there. An empty transcript alternates.
//
// Nothing in the package requires this to hold. Two consecutive user turns
// (a failed request followed by a new prompt) are a normal state.
func (t *Transcript) Alternates() bool {
	want := RoleUser
	for _, turn := range t.turns {
		if turn.Role != want {
			return false
		}
		if want == RoleUser {
			want = RoleAssistant
		} else {
			want = RoleUser
		}
	}
	return true
}
