// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/render"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// SessionFactory creates the controller for a fresh chat session. It is
// called once at startup and again for every "new chat".
type SessionFactory func() *session.Controller

// Options configures the chat model. Zero values get defaults.
type Options struct {
	Theme    *styles.Theme
	Renderer render.Renderer

	// Toasts is the notification surface. It should be the same manager the
	// controllers were given as their Notifier.
	Toasts *components.ToastManager

	ModelLabel     string
	TypingEffect   bool
	ShowTimestamps bool
	// WordWrap caps the content width of replies; 0 means no cap.
	WordWrap int

	RevealInterval time.Duration
	Logger         *slog.Logger

	// Clipboard writes text to the system clipboard.
	Clipboard func(string) error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen. Transcript state lives
// in the session controller; the model only holds presentation state and
// rebuilds the transcript view from controller snapshots.
type Model struct {
	ctrl       *session.Controller
	newSession SessionFactory
	cancelMgr  *cancelManager

	theme    *styles.Theme
	renderer render.Renderer
	toasts   *components.ToastManager
	keys     KeyMap

	header    *components.Header
	status    *components.StatusBar
	welcome   components.Welcome
	indicator components.TypingIndicator
	input     textinput.Model
	viewport  viewport.Model

	// selectedID is the selected turn; "" follows the latest assistant turn.
	selectedID string
	reveal     revealState
	follow     bool

	typingEffect   bool
	showTimestamps bool
	wordWrap       int
	revealInterval time.Duration
	markdownStyle  string

	// PERFORMANCE: rendered bubbles keyed by turn and layout
	bubbleCache map[bubbleKey]string

	toastTicking bool
	width        int
	height       int
	ready        bool
	quitting     bool

	logger    *slog.Logger
	clipboard func(string) error
}

// revealState tracks the typing effect of the newest reply.
type revealState struct {
	turnID  string
	started time.Time
}

func (r revealState) active() bool {
	return r.turnID != ""
}

type bubbleKey struct {
	turnID   string
	width    int
	selected bool
}

// New creates the chat model and starts the first session.
func New(newSession SessionFactory, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.Plain{}
	}
	toasts := opts.Toasts
	if toasts == nil {
		toasts = components.NewToastManager()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	interval := opts.RevealInterval
	if interval <= 0 {
		interval = styles.RevealInterval
	}
	markdownStyle := ""
	if md, ok := renderer.(*render.Markdown); ok {
		markdownStyle = md.Style()
	}

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Prompt = theme.InputPrompt.Render("> ")
	input.Focus()

	return Model{
		ctrl:           newSession(),
		newSession:     newSession,
		cancelMgr:      newCancelManager(),
		theme:          theme,
		renderer:       renderer,
		toasts:         toasts,
		keys:           DefaultKeyMap(),
		header:         components.NewHeader(theme, opts.ModelLabel),
		status:         components.NewStatusBar(theme),
		welcome:        components.NewWelcome(theme),
		indicator:      components.NewTypingIndicator(theme),
		input:          input,
		viewport:       viewport.New(80, 20),
		follow:         true,
		typingEffect:   opts.TypingEffect,
		showTimestamps: opts.ShowTimestamps,
		wordWrap:       opts.WordWrap,
		revealInterval: interval,
		markdownStyle:  markdownStyle,
		bubbleCache:    make(map[bubbleKey]string),
		logger:         logger,
		clipboard:      copyFn,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Controller returns the controller of the current session.
func (m Model) Controller() *session.Controller {
	return m.ctrl
}

// Snapshot returns the current session state.
func (m Model) Snapshot() session.Snapshot {
	return m.ctrl.Snapshot()
}

// InputValue returns the text in the input line.
func (m Model) InputValue() string {
	return m.input.Value()
}

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool {
	return m.quitting
}

// Close cancels any in-flight call and closes the session. It is safe to
// call more than once.
func (m Model) Close() {
	m.cancelMgr.cancelCurrent()
	m.ctrl.Close()
}

// SelectedTurn returns the selected turn: the explicitly selected one if it
// is still in the transcript, else the latest assistant turn.
func (m Model) SelectedTurn() (model.Turn, bool) {
	snap := m.ctrl.Snapshot()
	if m.selectedID != "" {
		if t, _, ok := snap.Find(m.selectedID); ok {
			return t, true
		}
	}
	return snap.LastAssistant()
}

// selectedIndex returns the index of the selected turn, or -1.
func (m Model) selectedIndex(snap session.Snapshot) int {
	t, ok := m.SelectedTurn()
	if !ok {
		return -1
	}
	_, idx, _ := snap.Find(t.ID)
	return idx
}
