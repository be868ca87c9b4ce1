// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/render"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// TURN BUBBLE
// =============================================================================

// SelectionMarker prefixes the header of the selected turn.
const SelectionMarker = "> "

// TurnBubble renders one transcript turn: a header with the role label and
// time, then the content in a bordered bubble. User turns sit on the right,
// assistant turns on the left.
type TurnBubble struct {
	Turn          model.Turn
	Width         int
	Selected      bool
	ShowTimestamp bool

	// content overrides Turn.Content while the typing effect is running.
	content   string
	revealing bool

	theme    *styles.Theme
	renderer render.Renderer
}

// NewTurnBubble creates a bubble for turn. A nil renderer renders plain text.
func NewTurnBubble(turn model.Turn, theme *styles.Theme, renderer render.Renderer) *TurnBubble {
	if renderer == nil {
		renderer = render.Plain{NoColor: true}
	}
	return &TurnBubble{
		Turn:          turn,
		Width:         render.DefaultWidth,
		ShowTimestamp: true,
		theme:         theme,
		renderer:      renderer,
	}
}

// SetWidth sets the row width.
func (b *TurnBubble) SetWidth(width int) {
	b.Width = width
}

// SetSelected marks the bubble as the current selection.
func (b *TurnBubble) SetSelected(selected bool) {
	b.Selected = selected
}

// SetReveal shows a partial reply while the typing effect runs. Pass done
// once the full text is visible.
func (b *TurnBubble) SetReveal(partial string, done bool) {
	if done {
		b.content, b.revealing = "", false
		return
	}
	b.content, b.revealing = partial, true
}

// View renders the bubble.
func (b *TurnBubble) View() string {
	width := b.Width
	if width <= 0 {
		width = render.DefaultWidth
	}
	bubbleWidth := styles.BubbleWidthFor(width)

	var bubbleStyle lipgloss.Style
	if b.Turn.IsUser() {
		bubbleStyle = b.theme.UserBubble
	} else {
		bubbleStyle = b.theme.AssistantBubble
	}
	if b.Selected {
		bubbleStyle = bubbleStyle.BorderForeground(styles.SelectedBorder)
	}
	// Border and padding take four cells.
	contentWidth := max(bubbleWidth-4, 1)

	body := b.renderBody(contentWidth)
	bubble := bubbleStyle.MaxWidth(bubbleWidth).Render(body)

	lines := []string{b.renderHeader(), bubble}
	if b.Selected && !b.revealing {
		lines = append(lines, b.theme.TurnActions.Render(b.actionHint()))
	}

	align := lipgloss.Left
	if b.Turn.IsUser() {
		align = lipgloss.Right
	}
	block := lipgloss.JoinVertical(align, lines...)
	return lipgloss.PlaceHorizontal(width, align, block)
}

func (b *TurnBubble) renderHeader() string {
	parts := make([]string, 0, 3)
	if b.Selected {
		parts = append(parts, b.theme.SampleKey.Render(strings.TrimSpace(SelectionMarker)))
	}
	parts = append(parts, b.theme.TurnLabel.Render(b.Turn.Role.DisplayName()))
	if b.ShowTimestamp && !b.Turn.CreatedAt.IsZero() {
		parts = append(parts, b.theme.TurnTime.Render(b.Turn.FormatTime()))
	}
	return strings.Join(parts, " ")
}

func (b *TurnBubble) renderBody(width int) string {
	if b.revealing {
		// Partial markdown renders badly; wrap the raw text until done.
		return wordwrap.String(b.content, width) + styles.TypingCursor
	}

	content := b.Turn.Content
	if strings.TrimSpace(content) == "" {
		return b.theme.TurnTime.Render("(empty)")
	}
	if b.Turn.IsUser() {
		return wordwrap.String(content, width)
	}
	return b.renderer.Render(content, width)
}

func (b *TurnBubble) actionHint() string {
	if b.Turn.IsUser() {
		return "ctrl+y copy"
	}
	hint := "ctrl+r regenerate  ctrl+y copy"
	if len(render.CodeBlocks(b.Turn.Content)) > 0 {
		hint += "  ctrl+k copy code"
	}
	return hint + "  +/- feedback"
}
