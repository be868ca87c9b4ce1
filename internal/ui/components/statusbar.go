// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status is the chat state shown on the left of the status bar.
type Status int

const (
	StatusReady Status = iota
	StatusWaiting
	StatusClosed
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusWaiting:
		return "Waiting for reply"
	case StatusClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// IdleShortcuts are shown while the user can type.
var IdleShortcuts = []Shortcut{
	{"enter", "send"},
	{"alt+up/down", "select"},
	{"ctrl+r", "regenerate"},
	{"ctrl+y", "copy"},
	{"ctrl+l", "new chat"},
	{"ctrl+c", "quit"},
}

// PendingShortcuts are shown while a reply is pending.
var PendingShortcuts = []Shortcut{
	{"esc", "cancel"},
	{"pgup/pgdn", "scroll"},
	{"ctrl+c", "quit"},
}

// StatusBar is the bottom line: status, turn count and key hints.
type StatusBar struct {
	Status    Status
	TurnCount int
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth updates the width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the bar. Shortcuts are dropped from the end until the line
// fits.
func (s *StatusBar) View() string {
	width := max(s.Width, 20)

	left := s.theme.ShortcutDesc.Render(s.Status.String())
	if s.TurnCount > 0 {
		left += s.theme.ShortcutDesc.Render(fmt.Sprintf(" | %d turns", s.TurnCount))
	}

	shortcuts := IdleShortcuts
	if s.Status == StatusWaiting {
		shortcuts = PendingShortcuts
	}

	// StatusBar padding takes two cells.
	room := width - 2 - lipgloss.Width(left) - 2
	var right string
	for n := len(shortcuts); n > 0; n-- {
		right = renderShortcuts(s.theme, shortcuts[:n])
		if lipgloss.Width(right) <= room {
			break
		}
		right = ""
	}

	gap := max(width-2-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return s.theme.StatusBar.Width(width).MaxWidth(width).Render(left + strings.Repeat(" ", gap) + right)
}

func renderShortcuts(theme *styles.Theme, shortcuts []Shortcut) string {
	parts := make([]string, len(shortcuts))
	for i, sc := range shortcuts {
		parts[i] = theme.ShortcutKey.Render(sc.Key) + " " + theme.ShortcutDesc.Render(sc.Desc)
	}
	return strings.Join(parts, "  ")
}
