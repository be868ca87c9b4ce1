// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// =============================================================================
// SPINNER ANIMATIONS
// =============================================================================

// SpinnerConfig holds the frames of a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// Duration returns the duration of each frame.
func (s SpinnerConfig) Duration() time.Duration {
	if s.FPS <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(s.FPS)
}

// Spinner converts the config to a bubbles spinner.
func (s SpinnerConfig) Spinner() spinner.Spinner {
	return spinner.Spinner{Frames: s.Frames, FPS: s.Duration()}
}

// DotsSpinner - Classic three-dot animation for the typing indicator
var DotsSpinner = SpinnerConfig{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    6,
}

// LineSpinner - Simple line rotation for the line-mode REPL
var LineSpinner = SpinnerConfig{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    10,
}

// =============================================================================
// TIMINGS
// =============================================================================

// TypingLabelInterval is how long each typing-indicator label is shown.
const TypingLabelInterval = time.Second

// RevealInterval is the delay between characters of the typing effect.
const RevealInterval = 50 * time.Millisecond

// ToastDuration is how long a notice stays on screen.
const ToastDuration = 5 * time.Second

// TypingCursor is appended to text that is still being revealed.
const TypingCursor = "_"
