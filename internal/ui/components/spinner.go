// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// TYPING INDICATOR
// =============================================================================

// DefaultTypingLabels are the labels the indicator cycles through.
var DefaultTypingLabels = []string{"Typing", "Thinking"}

// TypingIndicator is the animated "Typing..." / "Thinking..." line shown
// while a reply is pending. It owns no request state: the chat model starts
// and stops it from the controller's indicator.
type TypingIndicator struct {
	spinner spinner.Model

	labels    []string
	interval  time.Duration
	startTime time.Time
	showTimer bool

	isActive bool
	theme    *styles.Theme
}

// NewTypingIndicator creates an inactive indicator.
func NewTypingIndicator(theme *styles.Theme) TypingIndicator {
	s := spinner.New()
	s.Spinner = styles.DotsSpinner.Spinner()

	return TypingIndicator{
		spinner:   s,
		labels:    DefaultTypingLabels,
		interval:  styles.TypingLabelInterval,
		showTimer: true,
		theme:     theme,
	}
}

// SetShowTimer enables or disables the elapsed time display.
func (t *TypingIndicator) SetShowTimer(show bool) {
	t.showTimer = show
}

// Start activates the indicator and returns the first spinner tick. Starting
// an active indicator keeps the original start time.
func (t *TypingIndicator) Start() tea.Cmd {
	if !t.isActive {
		t.isActive = true
		t.startTime = time.Now()
	}
	return t.spinner.Tick
}

// Stop deactivates the indicator.
func (t *TypingIndicator) Stop() {
	t.isActive = false
	t.startTime = time.Time{}
}

// IsActive returns whether the indicator is running.
func (t TypingIndicator) IsActive() bool {
	return t.isActive
}

// Elapsed returns the time since Start.
func (t TypingIndicator) Elapsed() time.Duration {
	if t.startTime.IsZero() {
		return 0
	}
	return time.Since(t.startTime)
}

// Label returns the label shown right now.
func (t TypingIndicator) Label() string {
	return t.LabelAt(t.Elapsed())
}

// LabelAt returns the label shown after elapsed: each label holds for one
// interval, then the next one takes over.
func (t TypingIndicator) LabelAt(elapsed time.Duration) string {
	if len(t.labels) == 0 {
		return ""
	}
	if t.interval <= 0 || elapsed < 0 {
		return t.labels[0]
	}
	return t.labels[int(elapsed/t.interval)%len(t.labels)]
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Update advances the spinner. Ticks are dropped while inactive so the
// animation loop ends on its own.
func (t TypingIndicator) Update(msg tea.Msg) (TypingIndicator, tea.Cmd) {
	if !t.isActive {
		return t, nil
	}
	var cmd tea.Cmd
	t.spinner, cmd = t.spinner.Update(msg)
	return t, cmd
}

// View renders the indicator, or nothing when inactive.
func (t TypingIndicator) View() string {
	if !t.isActive {
		return ""
	}

	result := t.theme.TypingText.Render(t.Label()) + t.theme.Spinner.Render(t.spinner.View())

	if t.showTimer {
		if elapsed := t.Elapsed(); elapsed >= 2*time.Second {
			result += t.theme.TurnTime.Render(" (" + formatElapsed(elapsed) + ")")
		}
	}
	return result
}

// formatElapsed formats a duration for display.
func formatElapsed(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
