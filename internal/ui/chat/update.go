// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/render"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/util"
)

// Notice texts for the copy actions.
const (
	CopiedTitle       = "Copied to clipboard"
	CopiedDescription = "The content has been copied to your clipboard."
)

// Fixed rows around the transcript: header, indicator line, input and its
// top border, status bar.
const chromeHeight = 5

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case replyMsg:
		return m.handleReply(msg)

	case revealTickMsg:
		return m.handleRevealTick(msg)

	case components.ToastTickMsg:
		m.toasts.Tick()
		if m.toasts.HasToasts() {
			return m, components.ToastTickCmd()
		}
		m.toastTicking = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.indicator, cmd = m.indicator.Update(msg)
		return m, cmd

	case ConfigChangedMsg:
		return m.handleConfigChanged(msg)
	}

	// Cursor blink and anything else the input understands.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height = msg.Width, msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.header.SetWidth(msg.Width)
	m.status.SetWidth(msg.Width)

	bodyHeight := max(msg.Height-chromeHeight, 1)
	m.welcome.SetSize(msg.Width, bodyHeight)
	m.viewport.Width = msg.Width
	m.viewport.Height = bodyHeight
	// Input container padding and prompt.
	m.input.Width = max(msg.Width-6, 10)

	m.ready = true
	m.syncView()
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		return m.handleCancel()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		m.follow = false
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		m.follow = m.viewport.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		return m.startNewSession()

	case key.Matches(msg, m.keys.SelectUp):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.SelectDown):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.Regenerate):
		return m.regenerate()

	case key.Matches(msg, m.keys.Copy):
		return m.copySelected()

	case key.Matches(msg, m.keys.CopyCode):
		return m.copySelectedCode()
	}

	// Input is disabled while a reply is pending.
	if m.ctrl.Pending() {
		return m, nil
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.submit(m.input.Value())
	}

	if m.input.Value() == "" {
		switch {
		case key.Matches(msg, m.keys.Sample) && m.ctrl.Snapshot().ShowWelcome():
			if q, ok := components.SampleQuestion(int(msg.String()[0] - '0')); ok {
				return m.submit(q)
			}
		case key.Matches(msg, m.keys.ThumbsUp, m.keys.ThumbsDown):
			if turn, ok := m.SelectedTurn(); ok && turn.IsAssistant() {
				return m.feedback(turn, key.Matches(msg, m.keys.ThumbsUp))
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleCancel cancels the pending call, else dismisses the newest toast,
// else finishes the typing effect.
func (m Model) handleCancel() (tea.Model, tea.Cmd) {
	if m.ctrl.Pending() && m.cancelMgr.cancelCurrent() {
		// The reply arrives as a canceled outcome and is reconciled there.
		m.logger.Debug("request canceled by user", "session_id", m.ctrl.SessionID())
		return m, nil
	}
	if m.toasts.DismissNewest() {
		return m, nil
	}
	if m.reveal.active() {
		m.reveal = revealState{}
		m.syncView()
	}
	return m, nil
}

func (m *Model) moveSelection(delta int) {
	snap := m.ctrl.Snapshot()
	if snap.Len() == 0 {
		return
	}
	idx := m.selectedIndex(snap)
	if idx < 0 {
		idx = snap.Len()
	}
	idx = min(max(idx+delta, 0), snap.Len()-1)
	m.selectedID = snap.Turns[idx].ID
	m.syncView()
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	call, err := m.ctrl.Submit(util.NormalizeInput(text))
	if err != nil {
		// Empty and pending submissions are ignored like the send button
		// ignores them; a closed session cannot take input at all.
		if !errors.Is(err, session.ErrEmptyPrompt) && !errors.Is(err, session.ErrPending) {
			m.logger.Warn("submit rejected", "error", err)
		}
		return m, nil
	}
	m.input.Reset()
	m.selectedID = ""
	m.follow = true
	return m, m.startCall(call)
}

func (m Model) regenerate() (tea.Model, tea.Cmd) {
	turn, ok := m.SelectedTurn()
	if !ok {
		return m, nil
	}
	call, err := m.ctrl.Regenerate(turn.ID)
	if err != nil {
		m.logger.Debug("regenerate rejected", "error", err)
		return m, nil
	}
	if call == nil {
		// Not an assistant turn, or nothing to resend.
		return m, nil
	}
	m.selectedID = ""
	m.follow = true
	if m.reveal.turnID == turn.ID {
		m.reveal = revealState{}
	}
	return m, m.startCall(call)
}

// startCall locks the input, starts the indicator and runs the call.
func (m *Model) startCall(call *session.Call) tea.Cmd {
	ctx := m.cancelMgr.start(call)
	m.input.Blur()
	m.status.Status = components.StatusWaiting
	m.syncView()
	return tea.Batch(m.indicator.Start(), runCall(ctx, call))
}

func (m Model) handleReply(msg replyMsg) (tea.Model, tea.Cmd) {
	m.cancelMgr.release(msg.call)
	out := msg.outcome
	if out.Discarded {
		// A reply for a session that is already gone.
		return m, nil
	}

	m.indicator.Stop()
	m.input.Focus()
	m.status.Status = components.StatusReady

	var cmds []tea.Cmd
	if out.OK() && m.typingEffect && out.Turn.Content != "" {
		m.reveal = revealState{turnID: out.Turn.ID, started: time.Now()}
		cmds = append(cmds, revealTick(out.Turn.ID, m.revealInterval))
	}
	m.syncView()
	cmds = append(cmds, m.ensureToastTick())
	return m, tea.Batch(cmds...)
}

func (m Model) handleRevealTick(msg revealTickMsg) (tea.Model, tea.Cmd) {
	if msg.turnID != m.reveal.turnID {
		return m, nil
	}
	turn, ok := m.ctrl.Turn(msg.turnID)
	if !ok {
		m.reveal = revealState{}
		return m, nil
	}
	_, done := render.Reveal(turn.Content, time.Since(m.reveal.started), m.revealInterval)
	if done {
		m.reveal = revealState{}
	}
	m.syncView()
	if done {
		return m, nil
	}
	return m, revealTick(msg.turnID, m.revealInterval)
}

func (m Model) startNewSession() (tea.Model, tea.Cmd) {
	m.cancelMgr.cancelCurrent()
	old := m.ctrl
	old.Close()
	m.ctrl = m.newSession()
	m.logger.Info("new session", "previous", old.SessionID(), "session_id", m.ctrl.SessionID())

	m.indicator.Stop()
	m.input.Reset()
	m.input.Focus()
	m.status.Status = components.StatusReady
	m.selectedID = ""
	m.reveal = revealState{}
	m.follow = true
	m.bubbleCache = make(map[bubbleKey]string)
	m.syncView()
	return m, nil
}

// =============================================================================
// TURN ACTIONS
// =============================================================================

func (m Model) copySelected() (tea.Model, tea.Cmd) {
	turn, ok := m.SelectedTurn()
	if !ok {
		return m, nil
	}
	return m.copyText(turn.Content)
}

func (m Model) copySelectedCode() (tea.Model, tea.Cmd) {
	turn, ok := m.SelectedTurn()
	if !ok {
		return m, nil
	}
	block, ok := render.LastCodeBlock(turn.Content)
	if !ok {
		m.toasts.Add("No code block", "The selected turn has no code block to copy.", components.ToastKindInfo)
		return m, m.ensureToastTick()
	}
	return m.copyText(block.Code)
}

func (m Model) copyText(text string) (tea.Model, tea.Cmd) {
	if err := m.clipboard(text); err != nil {
		m.logger.Warn("clipboard write failed", "error", err)
		m.toasts.Add("Copy failed", err.Error(), components.ToastKindError)
		return m, m.ensureToastTick()
	}
	m.toasts.Add(CopiedTitle, CopiedDescription, components.ToastKindSuccess)
	return m, m.ensureToastTick()
}

// feedback records a rating for an assistant turn. It is only logged.
func (m Model) feedback(turn model.Turn, positive bool) (tea.Model, tea.Cmd) {
	rating := "down"
	if positive {
		rating = "up"
	}
	m.logger.Info("feedback",
		"session_id", m.ctrl.SessionID(),
		"turn_id", turn.ID,
		"rating", rating)
	m.toasts.Add("Thanks for the feedback", "", components.ToastKindInfo)
	return m, m.ensureToastTick()
}

// ensureToastTick starts the expiry loop if toasts are showing and no loop
// is running.
func (m *Model) ensureToastTick() tea.Cmd {
	if m.toastTicking || !m.toasts.HasToasts() {
		return nil
	}
	m.toastTicking = true
	return components.ToastTickCmd()
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func (m Model) handleConfigChanged(msg ConfigChangedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn("config reload failed", "error", msg.Err)
		m.toasts.Add("Config reload failed", msg.Err.Error(), components.ToastKindWarning)
		return m, m.ensureToastTick()
	}
	cfg := msg.Config
	if cfg == nil {
		return m, nil
	}

	// Components share the theme pointer, so replacing its value restyles
	// all of them.
	*m.theme = *styles.NewTheme(cfg.UI.Theme)
	m.theme.SetSize(m.width, m.height)
	m.input.Prompt = m.theme.InputPrompt.Render("> ")

	if style := strings.TrimSpace(cfg.UI.MarkdownStyle); style != "" && style != m.markdownStyle {
		if _, isMarkdown := m.renderer.(*render.Markdown); isMarkdown {
			m.renderer = render.NewMarkdown(style).WithLogger(m.logger)
			m.markdownStyle = style
		}
	}
	m.header.SetModelLabel(cfg.UI.ModelLabel)
	m.typingEffect = cfg.UI.TypingEffect
	if !m.typingEffect {
		m.reveal = revealState{}
	}
	m.showTimestamps = cfg.UI.ShowTimestamps
	m.wordWrap = cfg.UI.WordWrap

	m.bubbleCache = make(map[bubbleKey]string)
	m.syncView()
	m.logger.Info("config reloaded")
	return m, nil
}
