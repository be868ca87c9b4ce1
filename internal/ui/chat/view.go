// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/render"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	snap := m.ctrl.Snapshot()

	var body string
	if snap.ShowWelcome() {
		body = m.welcome.View()
	} else {
		body = m.viewport.View()
	}
	body = lipgloss.NewStyle().Height(m.viewport.Height).MaxHeight(m.viewport.Height).Render(body)

	if toasts := m.toasts.Toasts(); len(toasts) > 0 {
		body = overlayBottom(body, components.RenderToastStack(m.theme, toasts, m.width))
	}

	// The indicator line is always reserved so the layout does not jump.
	indicator := " " + m.indicator.View()

	input := m.theme.InputContainer.Width(m.width).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		indicator,
		input,
		m.status.View(),
	)
}

// syncView rebuilds the transcript from a fresh snapshot.
func (m *Model) syncView() {
	snap := m.ctrl.Snapshot()

	m.status.TurnCount = snap.Len()
	if snap.Pending {
		m.status.Status = components.StatusWaiting
	} else {
		m.status.Status = components.StatusReady
	}

	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript(snap))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// renderTranscript renders every turn as a bubble, separated by blank lines.
func (m *Model) renderTranscript(snap session.Snapshot) string {
	if snap.Len() == 0 {
		return ""
	}

	selectedIdx := m.selectedIndex(snap)
	parts := make([]string, 0, snap.Len())
	for i, turn := range snap.Turns {
		parts = append(parts, m.renderTurn(turn, i == selectedIdx))
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderTurn(turn model.Turn, selected bool) string {
	revealing := m.reveal.turnID == turn.ID
	key := bubbleKey{turnID: turn.ID, width: m.width, selected: selected}
	if !revealing {
		if cached, ok := m.bubbleCache[key]; ok {
			return cached
		}
	}

	bubble := components.NewTurnBubble(turn, m.theme, m.contentRenderer())
	bubble.SetWidth(m.width)
	bubble.SetSelected(selected)
	bubble.ShowTimestamp = m.showTimestamps
	if revealing {
		partial, done := render.Reveal(turn.Content, time.Since(m.reveal.started), m.revealInterval)
		bubble.SetReveal(partial, done)
	}

	out := bubble.View()
	if !revealing {
		m.bubbleCache[key] = out
	}
	return out
}

// contentRenderer applies the configured word wrap cap to the renderer.
func (m *Model) contentRenderer() render.Renderer {
	if m.wordWrap <= 0 {
		return m.renderer
	}
	limit, inner := m.wordWrap, m.renderer
	return render.Func(func(content string, width int) string {
		return inner.Render(content, min(width, limit))
	})
}

// overlayBottom replaces the last lines of base with the lines of overlay.
// Overlay lines are already padded to the full width.
func overlayBottom(base, overlay string) string {
	if overlay == "" {
		return base
	}
	baseLines := strings.Split(base, "\n")
	overLines := strings.Split(overlay, "\n")
	if len(overLines) > len(baseLines) {
		overLines = overLines[len(overLines)-len(baseLines):]
	}
	start := len(baseLines) - len(overLines)
	copy(baseLines[start:], overLines)
	return strings.Join(baseLines, "\n")
}
