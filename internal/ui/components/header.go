// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// DefaultHeaderTitle is the title shown on the left of the header bar.
const DefaultHeaderTitle = "Ai Assistant"

// Header is the one-line title bar: the title on the left, the model label
// on the right.
type Header struct {
	Title      string
	ModelLabel string
	Width      int
	theme      *styles.Theme
}

// NewHeader creates a header with the default title.
func NewHeader(theme *styles.Theme, modelLabel string) *Header {
	return &Header{
		Title:      DefaultHeaderTitle,
		ModelLabel: modelLabel,
		Width:      80,
		theme:      theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetModelLabel updates the model label.
func (h *Header) SetModelLabel(label string) {
	h.ModelLabel = label
}

// View renders the header across the full width.
func (h *Header) View() string {
	width := max(h.Width, 20)
	// Header padding takes two cells.
	inner := width - 2

	title := h.theme.HeaderTitle.Render(h.Title)
	titleWidth := lipgloss.Width(title)

	label := strings.TrimSpace(h.ModelLabel)
	var right string
	if label != "" {
		// Keep at least two cells between title and label.
		room := inner - titleWidth - 2
		if room >= 4 {
			right = h.theme.HeaderModel.Render(util.TruncateWidth(label, room))
		}
	}

	gap := max(inner-titleWidth-lipgloss.Width(right), 0)
	fill := h.theme.HeaderTitle.UnsetBold().Render(strings.Repeat(" ", gap))

	return h.theme.Header.Width(width).MaxWidth(width).Render(title + fill + right)
}
