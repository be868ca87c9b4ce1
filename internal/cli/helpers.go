// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared helpers for the ask and chat commands.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/util"
)

// MaxStdinPrompt caps a prompt read from standard input (64KB).
const MaxStdinPrompt = 64 * 1024

// formatDuration formats an elapsed time for display.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// formatDurationShort formats a latency.
func formatDurationShort(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

// readPrompt reads a prompt from r, up to MaxStdinPrompt bytes.
func readPrompt(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxStdinPrompt+1))
	if err != nil {
		return "", fmt.Errorf("failed to read prompt: %w", err)
	}
	if len(data) > MaxStdinPrompt {
		return "", NewValidationErrorWithExample("prompt", "", fmt.Sprintf("longer than %d bytes", MaxStdinPrompt), "")
	}
	return util.NormalizeInput(strings.TrimRight(string(data), "\r\n")), nil
}

// =============================================================================
// SPINNER
// =============================================================================

// startSpinner animates label on w until the returned stop function is
// called. stop clears the line and is safe to call more than once.
func startSpinner(w io.Writer, label string) (stop func()) {
	frames := styles.LineSpinner.Frames
	interval := styles.LineSpinner.Duration()
	style := DimStyle

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		start := time.Now()
		for i := 0; ; i++ {
			text := fmt.Sprintf("%s %s", frames[i%len(frames)], label)
			if elapsed := time.Since(start); elapsed >= 2*time.Second {
				text += fmt.Sprintf(" (%s)", formatDuration(elapsed))
			}
			fmt.Fprintf(w, "\r%s", style.Render(text))
			select {
			case <-done:
				fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", util.StringWidth(text)))
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
