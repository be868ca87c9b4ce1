// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import "time"

// DefaultRevealInterval is the typing-effect speed: one rune per 50ms.
const DefaultRevealInterval = 50 * time.Millisecond

// Reveal returns the prefix of text visible after elapsed, at one rune per
// interval, and whether the whole text is shown.
func Reveal(text string, elapsed, interval time.Duration) (string, bool) {
	if interval <= 0 {
		interval = DefaultRevealInterval
	}
	if elapsed < 0 {
		elapsed = 0
	}
	n := int(elapsed / interval)

	count := 0
	for i := range text {
		if count == n {
			return text[:i], false
		}
		count++
	}
	return text, true
}

// RevealDuration is how long Reveal takes to show all of text.
func RevealDuration(text string, interval time.Duration) time.Duration {
	if interval <= 0 {
		interval = DefaultRevealInterval
	}
	n := 0
	for range text {
		n++
	}
	return time.Duration(n) * interval
}
