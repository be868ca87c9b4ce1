// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// UNICODE: every helper here counts runes or display cells, never bytes,
// so multi-byte characters are never split.

// TruncateRunes truncates s to maxRunes characters, appending "..." when
// something was cut and there is room for it.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateWidth truncates s to maxWidth terminal cells. Wide characters
// (CJK, most emoji) take two cells.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// StringWidth returns the display width of s in terminal cells.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadRight pads s with spaces to width cells.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}

// FirstLine returns the first non-empty line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// NormalizeInput converts terminal input to NFC so composed and decomposed
// forms of the same text compare equal. Content is otherwise unchanged.
func NormalizeInput(s string) string {
	return norm.NFC.String(s)
}

// Preview returns a single-line preview of s at most maxWidth cells wide.
func Preview(s string, maxWidth int) string {
	return TruncateWidth(strings.Join(strings.Fields(s), " "), maxWidth)
}
