// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styling for CLI output, drawn from the TUI palette.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(12)

	// ValueStyle is used for regular values and text
	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	// PromptStyle is the chat REPL prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// RoleStyle labels turns in /history
	RoleStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// SeparatorStyle is used for visual separators
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)
)

// RenderSeparator renders a horizontal separator line of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 40
	}
	return SeparatorStyle.Render(strings.Repeat("-", width))
}

// RenderField renders "label  value" with the shared label width.
func RenderField(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}

// RenderNotice renders a notice with the status marker of its severity.
func RenderNotice(n session.Notice) string {
	text := n.Title
	if n.Description != "" {
		text += ": " + n.Description
	}
	switch n.Severity {
	case session.SeverityError:
		return styles.RenderError(text)
	case session.SeverityWarning:
		return styles.RenderWarning(text)
	case session.SeveritySuccess:
		return styles.RenderSuccess(text)
	default:
		return styles.RenderInfo(text)
	}
}
