// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the parley CLI.
//
// USABILITY: TTY detection for proper terminal handling
//
// Interactive terminals get colors, markdown and the spinner. Piped output
// gets plain text so it stays greppable.

package cli

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// isTerminal reports whether v is an *os.File attached to a terminal.
// Buffers and pipes are never terminals.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && f != nil && term.IsTerminal(int(f.Fd()))
}

// =============================================================================
// TERMINAL WIDTH DETECTION
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width we'll use for wrapping
	MinTerminalWidth = 40
)

// TerminalWidth returns the width of w when it is a terminal, else
// DefaultTerminalWidth. The result is never below MinTerminalWidth.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return max(width, MinTerminalWidth)
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var (
	colorMu       sync.RWMutex
	colorsEnabled = true
)

// ConfigureColor decides whether output is colored and sets the lipgloss
// profile to match. NO_COLOR and --no-color disable colors; FORCE_COLOR
// enables them for non-TTY output.
// See https://no-color.org/ for the NO_COLOR specification.
func ConfigureColor(noColorFlag bool) {
	enabled := colorDecision(noColorFlag, os.Getenv("NO_COLOR"), os.Getenv("FORCE_COLOR"), IsStdoutTTY())

	colorMu.Lock()
	colorsEnabled = enabled
	colorMu.Unlock()

	if enabled {
		lipgloss.SetColorProfile(termenv.ColorProfile())
	} else {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

func colorDecision(noColorFlag bool, noColorEnv, forceColorEnv string, stdoutTTY bool) bool {
	switch {
	case noColorFlag, noColorEnv != "":
		return false
	case forceColorEnv != "":
		return true
	default:
		return stdoutTTY
	}
}

// ColorsEnabled returns the last decision of ConfigureColor.
func ColorsEnabled() bool {
	colorMu.RLock()
	defer colorMu.RUnlock()
	return colorsEnabled
}
