// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// All colors are AdaptiveColor so light and dark terminals both read well.

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Blue - Header bar, user turns, focus
var Blue = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}

// BlueDeep - Header background
var BlueDeep = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#1E3A8A"}

// Purple - Assistant turns, selections
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Commands, hints, sample questions
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Emerald - Success notices
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Error notices
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, canceled requests
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE AND TEXT
// =============================================================================

var (
	Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#45475A"}

	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
	TextInverse   = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#F8FAFC"}
)

// =============================================================================
// TURN BUBBLES
// =============================================================================

// User turns sit on the right in blue; assistant turns on the left in violet.
var (
	UserBubbleFg     = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
	UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

	AssistantBubbleFg     = lipgloss.AdaptiveColor{Light: "#5B4B8A", Dark: "#E9E4F5"}
	AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#C4B5FD", Dark: "#A78BFA"}

	SelectedBorder = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
)

// =============================================================================
// ACCESSIBILITY
// =============================================================================

// StatusIndicatorSet holds text markers shown next to colored states so
// meaning never depends on color alone.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
}

// StatusIndicators are ASCII-only for maximum terminal compatibility.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
}

// RenderSuccess renders a success line with its marker.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Bold(true).Render(StatusIndicators.Success + " " + message)
}

// RenderError renders an error line with its marker.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders a warning line with its marker.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Amber).Bold(true).Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders an info line with its marker.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(Cyan).Bold(true).Render(StatusIndicators.Info + " " + message)
}
