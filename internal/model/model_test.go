// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
)

// buildTranscript creates a transcript from alternating role/content pairs.
func buildTranscript(pairs ...string) *Transcript {
	tr := NewTranscript()
	for i := 0; i+1 < len(pairs); i += 2 {
		tr.Append(NewTurn(Role(pairs[i]), pairs[i+1]))
	}
	return tr
}

func contents(tr *Transcript) []string {
	var out []string
	for _, t := range tr.Turns() {
		out = append(out, t.Content)
	}
	return out
}

// =============================================================================
// TURN TESTS
// =============================================================================

func TestNewTurn(t *testing.T) {
	a := NewUserTurn("hello")
	b := NewUserTurn("hello")

	if a.ID == "" {
		t.Error("NewUserTurn() should assign an ID")
	}
	if a.ID == b.ID {
		t.Errorf("turn IDs should be unique, both were %q", a.ID)
	}
	if a.Role != RoleUser {
		t.Errorf("Role = %q, want %q", a.Role, RoleUser)
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if !NewAssistantTurn("x").IsAssistant() {
		t.Error("NewAssistantTurn() should create an assistant turn")
	}
}

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
		ok   bool
	}{
		{RoleUser, "You", true},
		{RoleAssistant, "Assistant", true},
		{Role("system"), "system", false},
	}
	for _, tc := range tests {
		if got := tc.role.DisplayName(); got != tc.want {
			t.Errorf("%q.DisplayName() = %q, want %q", tc.role, got, tc.want)
		}
		if got := tc.role.Valid(); got != tc.ok {
			t.Errorf("%q.Valid() = %v, want %v", tc.role, got, tc.ok)
		}
	}
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_Append(t *testing.T) {
	tr := NewTranscript()
	if !tr.IsEmpty() {
		t.Fatal("new transcript should be empty")
	}

	tr.Append(NewUserTurn("A"))
	tr.Append(NewAssistantTurn("B"))

	if tr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tr.Len())
	}
	last, ok := tr.Last()
	if !ok || last.Content != "B" {
		t.Errorf("Last() = %q, %v, want B, true", last.Content, ok)
	}
}

func TestTranscript_TurnsReturnsCopy(t *testing.T) {
	tr := buildTranscript("user", "A")

	turns := tr.Turns()
	turns[0].Content = "edited"

	got, _ := tr.At(0)
	if got.Content != "A" {
		t.Errorf("stored content changed to %q through a returned copy", got.Content)
	}
}

func TestTranscript_TruncateAt(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		want    []string
		changed bool
	}{
		{"middle", 2, []string{"A", "B"}, true},
		{"first", 0, nil, true},
		{"last", 3, []string{"A", "B", "C"}, true},
		{"negative is no-op", -1, []string{"A", "B", "C", "D"}, false},
		{"past end is no-op", 4, []string{"A", "B", "C", "D"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := buildTranscript("user", "A", "assistant", "B", "user", "C", "assistant", "D")
			changed := tr.TruncateAt(tc.index)
			if changed != tc.changed {
				t.Errorf("TruncateAt(%d) = %v, want %v", tc.index, changed, tc.changed)
			}
			got := contents(tr)
			if len(got) != len(tc.want) {
				t.Fatalf("after TruncateAt(%d) = %v, want %v", tc.index, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("turn %d = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestTranscript_FindLastUserBefore(t *testing.T) {
	tr := buildTranscript("user", "A", "assistant", "B", "user", "C", "assistant", "D")

	tests := []struct {
		name    string
		index   int
		want    string
		wantPos int
		wantOK  bool
	}{
		{"before last assistant", 3, "C", 2, true},
		{"before first assistant", 1, "A", 0, true},
		{"index is a user turn itself", 2, "A", 0, true},
		{"at zero", 0, "", -1, false},
		{"past end clamps", 10, "C", 2, true},
		{"negative", -3, "", -1, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			turn, pos, ok := tr.FindLastUserBefore(tc.index)
			if ok != tc.wantOK || pos != tc.wantPos || turn.Content != tc.want {
				t.Errorf("FindLastUserBefore(%d) = (%q, %d, %v), want (%q, %d, %v)",
					tc.index, turn.Content, pos, ok, tc.want, tc.wantPos, tc.wantOK)
			}
		})
	}
}

func TestTranscript_FindLastUserBeforeIsPure(t *testing.T) {
	tr := buildTranscript("user", "A", "assistant", "B", "user", "C", "assistant", "D")
	before := contents(tr)

	first, p1, ok1 := tr.FindLastUserBefore(3)
	second, p2, ok2 := tr.FindLastUserBefore(3)

	if first != second || p1 != p2 || ok1 != ok2 {
		t.Errorf("repeated calls differ: (%v,%d,%v) vs (%v,%d,%v)", first, p1, ok1, second, p2, ok2)
	}
	after := contents(tr)
	if len(before) != len(after) {
		t.Errorf("transcript changed from %v to %v", before, after)
	}
}

func TestTranscript_FindLastUserBeforeNoUser(t *testing.T) {
	tr := buildTranscript("assistant", "orphan", "assistant", "another")
	if _, _, ok := tr.FindLastUserBefore(1); ok {
		t.Error("FindLastUserBefore() should report none when no user turn precedes")
	}
}

func TestTranscript_IndexOfAndGet(t *testing.T) {
	tr := buildTranscript("user", "A", "assistant", "B")
	b, _ := tr.At(1)

	if idx := tr.IndexOf(b.ID); idx != 1 {
		t.Errorf("IndexOf() = %d, want 1", idx)
	}
	if idx := tr.IndexOf("missing"); idx != -1 {
		t.Errorf("IndexOf(missing) = %d, want -1", idx)
	}
	if idx := tr.IndexOf(""); idx != -1 {
		t.Errorf("IndexOf(\"\") = %d, want -1", idx)
	}
	if got, ok := tr.Get(b.ID); !ok || got.Content != "B" {
		t.Errorf("Get() = %q, %v", got.Content, ok)
	}
}

func TestTranscript_LastAssistant(t *testing.T) {
	tr := buildTranscript("user", "A", "assistant", "B", "user", "C")
	got, ok := tr.LastAssistant()
	if !ok || got.Content != "B" {
		t.Errorf("LastAssistant() = %q, %v, want B, true", got.Content, ok)
	}

	if _, ok := NewTranscript().LastAssistant(); ok {
		t.Error("LastAssistant() on empty transcript should be false")
	}
}

func TestTranscript_Clone(t *testing.T) {
	tr := buildTranscript("user", "A", "assistant", "B")
	clone := tr.Clone()
	clone.TruncateAt(0)

	if tr.Len() != 2 {
		t.Errorf("original Len() = %d after truncating clone, want 2", tr.Len())
	}
}

func TestTranscript_Alternates(t *testing.T) {
	tests := []struct {
		name string
		tr   *Transcript
		want bool
	}{
		{"empty", NewTranscript(), true},
		{"proper", buildTranscript("user", "A", "assistant", "B", "user", "C"), true},
		{"double user", buildTranscript("user", "A", "user", "C"), false},
		{"starts with assistant", buildTranscript("assistant", "B"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tr.Alternates(); got != tc.want {
				t.Errorf("Alternates() = %v, want %v", got, tc.want)
			}
		})
	}
}
