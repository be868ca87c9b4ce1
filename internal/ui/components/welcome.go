// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// SAMPLE QUESTIONS
// =============================================================================

// SampleQuestions are offered on the welcome screen. Pressing 1-4 submits
// the matching question.
var SampleQuestions = []string{
	`What are more efficient alternatives to a "for loop" in Python?`,
	"What is the Transformers architecture?",
	"Create a chart of the top NLP use-cases for foundation models.",
	"Describe generative AI using emojis.",
}

// SampleQuestion returns the n-th sample question, counting from 1.
func SampleQuestion(n int) (string, bool) {
	if n < 1 || n > len(SampleQuestions) {
		return "", false
	}
	return SampleQuestions[n-1], true
}

// =============================================================================
// WELCOME SCREEN MODEL
// =============================================================================

const (
	welcomeTitle    = "Customize your chat"
	welcomeSubtitle = "Type a message below to start chatting, or pick one of the sample questions."
	samplesHeading  = "Sample questions"
)

// Welcome is the empty-state screen shown while the transcript is empty and
// nothing is pending.
type Welcome struct {
	width  int
	height int
	theme  *styles.Theme
}

// NewWelcome creates a new welcome screen.
func NewWelcome(theme *styles.Theme) Welcome {
	return Welcome{theme: theme}
}

// SetSize updates the dimensions.
func (w *Welcome) SetSize(width, height int) {
	w.width = width
	w.height = height
}

// Update handles messages.
func (w Welcome) Update(msg tea.Msg) (Welcome, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		w.width = msg.Width
		w.height = msg.Height
	}
	return w, nil
}

// View renders the welcome screen.
func (w Welcome) View() string {
	width := w.width
	if width <= 0 {
		width = 80
	}
	boxWidth := min(width-4, 72)
	if boxWidth < 20 {
		boxWidth = 20
	}
	// Sample boxes: border and padding take four cells, the key prefix four.
	textWidth := max(boxWidth-8, 8)

	lines := []string{
		w.theme.WelcomeTitle.Render(welcomeTitle),
		w.theme.WelcomeSubtitle.Width(boxWidth).Render(welcomeSubtitle),
		"",
		w.theme.TurnLabel.Render(samplesHeading),
	}
	for i, q := range SampleQuestions {
		key := w.theme.SampleKey.Render("[" + strconv.Itoa(i+1) + "]")
		text := q
		if w.height > 0 && w.height < 20 {
			// Short terminals get one line per question.
			text = util.TruncateWidth(q, textWidth)
		}
		lines = append(lines, w.theme.SampleQuestion.Width(boxWidth-2).Render(key+" "+text))
	}

	content := strings.Join(lines, "\n")
	if w.height > 0 && lipgloss.Height(content) < w.height {
		return lipgloss.Place(width, w.height, lipgloss.Center, lipgloss.Center, content)
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, content)
}
