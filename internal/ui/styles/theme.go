// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Mode is the requested mode: "dark", "light" or "auto".
	Mode         string
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderModel lipgloss.Style

	// ==========================================================================
	// TURN STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	TurnLabel       lipgloss.Style
	TurnTime        lipgloss.Style
	TurnActions     lipgloss.Style

	// ==========================================================================
	// WELCOME STYLES
	// ==========================================================================

	WelcomeTitle    lipgloss.Style
	WelcomeSubtitle lipgloss.Style
	SampleQuestion  lipgloss.Style
	SampleKey       lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	StatusBar      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style

	// ==========================================================================
	// INDICATOR AND NOTICE STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	TypingText   lipgloss.Style
	ToastBox     lipgloss.Style
	ToastTitle   lipgloss.Style
	ToastMessage lipgloss.Style

	// ==========================================================================
	// CODE BLOCK STYLES
	// ==========================================================================

	CodeBlock     lipgloss.Style
	CodeLangBadge lipgloss.Style
}

// NewTheme creates a theme for mode ("dark", "light" or "auto"). Unknown
// modes are treated as "auto".
func NewTheme(mode string) *Theme {
	mode = strings.ToLower(strings.TrimSpace(mode))
	isDark := true
	switch mode {
	case "dark":
	case "light":
		isDark = false
	default:
		mode = "auto"
		isDark = termenv.HasDarkBackground()
	}
	// AdaptiveColor resolves against the default renderer.
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		Mode:         mode,
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(BlueDeep).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(BlueDeep)

	t.HeaderModel = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(BlueDeep).
		Italic(true)

	// Turns
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1)

	t.TurnLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.TurnTime = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.TurnActions = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Welcome
	t.WelcomeTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Blue).
		MarginBottom(1)

	t.WelcomeSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.SampleQuestion = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SampleKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Blue).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Indicator and notices
	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.TypingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.ToastBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1)

	t.ToastTitle = lipgloss.NewStyle().
		Bold(true)

	t.ToastMessage = lipgloss.NewStyle().
		Foreground(TextPrimary)

	// Code blocks
	t.CodeBlock = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Overlay).
		PaddingLeft(1)

	t.CodeLangBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 1)
}

// SeverityColor maps a notice severity name to its accent color.
func SeverityColor(severity string) lipgloss.AdaptiveColor {
	switch severity {
	case "success":
		return Emerald
	case "warning":
		return Amber
	case "error":
		return Rose
	default:
		return Cyan
	}
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth returns the maximum width of a turn bubble for the theme's
// current width.
func (t *Theme) BubbleWidth() int {
	return BubbleWidthFor(t.Width)
}

// BubbleWidthFor returns the maximum bubble width in a row of width cells:
// most of the row, leaving an indent that shows which side the turn is on.
func BubbleWidthFor(width int) int {
	switch layoutModeFor(width) {
	case LayoutNarrow:
		return max(width-2, 10)
	case LayoutMedium:
		return width * 85 / 100
	default:
		return width * 75 / 100
	}
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	return layoutModeFor(t.Width)
}

func layoutModeFor(width int) LayoutMode {
	if width < 60 {
		return LayoutNarrow
	}
	if width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
