// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/render"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

type harness struct {
	model       Model
	toasts      *components.ToastManager
	controllers []*session.Controller

	mu     sync.Mutex
	copied []string
}

func newHarness(t *testing.T, gen session.Generator, tweak func(*Options)) *harness {
	t.Helper()
	h := &harness{toasts: components.NewToastManager()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	factory := func() *session.Controller {
		ctrl := session.NewController(gen, session.Options{Notifier: h.toasts, Logger: logger})
		h.controllers = append(h.controllers, ctrl)
		return ctrl
	}
	opts := Options{
		Theme:          styles.NewTheme("dark"),
		Renderer:       render.Plain{NoColor: true},
		Toasts:         h.toasts,
		ModelLabel:     "test-model",
		ShowTimestamps: true,
		Logger:         logger,
		Clipboard: func(s string) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.copied = append(h.copied, s)
			return nil
		},
	}
	if tweak != nil {
		tweak(&opts)
	}
	h.model = New(factory, opts)
	t.Cleanup(func() { h.model.Close() })

	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

// send delivers msg and returns the resulting command.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) press(k tea.KeyType) tea.Cmd {
	return h.send(tea.KeyMsg{Type: k})
}

func (h *harness) lastCopied() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.copied) == 0 {
		return ""
	}
	return h.copied[len(h.copied)-1]
}

// awaitReply runs cmd and its batched children concurrently and returns the
// first reply message. Timer commands are left running in the background.
func awaitReply(t *testing.T, cmd tea.Cmd) replyMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	replies := make(chan replyMsg, 1)
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() {
			switch msg := c().(type) {
			case tea.BatchMsg:
				for _, child := range msg {
					run(child)
				}
			case replyMsg:
				replies <- msg
			}
		}()
	}
	run(cmd)

	select {
	case msg := <-replies:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reply")
		return replyMsg{}
	}
}

// exchange submits prompt and applies the reply.
func (h *harness) exchange(t *testing.T, prompt string) {
	t.Helper()
	h.typeText(prompt)
	h.send(awaitReply(t, h.press(tea.KeyEnter)))
}

func echo() session.Generator {
	return session.GeneratorFunc(func(ctx context.Context, req session.Request) (string, error) {
		return "reply to " + req.Prompt, nil
	})
}

func toastTitles(m *components.ToastManager) []string {
	var titles []string
	for _, toast := range m.Toasts() {
		titles = append(titles, toast.Title)
	}
	return titles
}

func hasToast(m *components.ToastManager, title string) bool {
	for _, got := range toastTitles(m) {
		if got == title {
			return true
		}
	}
	return false
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestModel_NotReady(t *testing.T) {
	m := New(func() *session.Controller { return session.NewController(echo(), session.Options{}) }, Options{})
	defer m.Close()
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() before resize = %q", got)
	}
}

func TestModel_WelcomeScreen(t *testing.T) {
	h := newHarness(t, echo(), nil)

	view := h.model.View()
	for _, want := range []string{"Ai Assistant", "test-model", "Sample questions", "What is the Transformers architecture?"} {
		if !strings.Contains(view, want) {
			t.Errorf("welcome view missing %q", want)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines != 40 {
		t.Errorf("view has %d lines, want 40", lines)
	}
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestModel_SubmitAndReply(t *testing.T) {
	h := newHarness(t, echo(), nil)

	h.typeText("hello")
	if got := h.model.InputValue(); got != "hello" {
		t.Fatalf("input = %q, want hello", got)
	}
	cmd := h.press(tea.KeyEnter)

	snap := h.model.Snapshot()
	if snap.Len() != 1 || !snap.Pending {
		t.Fatalf("after submit: len=%d pending=%v", snap.Len(), snap.Pending)
	}
	if snap.Turns[0].Content != "hello" {
		t.Errorf("user turn = %q", snap.Turns[0].Content)
	}
	if h.model.InputValue() != "" {
		t.Error("input should be cleared after submit")
	}
	if !h.model.indicator.IsActive() {
		t.Error("typing indicator should be visible while pending")
	}

	// Input is disabled while pending.
	h.typeText("more")
	if h.model.InputValue() != "" {
		t.Error("typing while pending should be ignored")
	}

	h.send(awaitReply(t, cmd))

	snap = h.model.Snapshot()
	if snap.Len() != 2 || snap.Pending {
		t.Fatalf("after reply: len=%d pending=%v", snap.Len(), snap.Pending)
	}
	if got := snap.Turns[1].Content; got != "reply to hello" {
		t.Errorf("assistant turn = %q", got)
	}
	if h.model.indicator.IsActive() {
		t.Error("indicator should stop after the reply")
	}
	if view := h.model.View(); !strings.Contains(view, "reply to hello") {
		t.Error("view should show the reply")
	}
}

func TestModel_EmptySubmitIgnored(t *testing.T) {
	h := newHarness(t, echo(), nil)

	h.typeText("   ")
	if cmd := h.press(tea.KeyEnter); cmd != nil {
		t.Error("blank submit should not start a call")
	}
	if h.model.Snapshot().Len() != 0 {
		t.Error("blank submit should not add a turn")
	}
}

func TestModel_SampleQuestion(t *testing.T) {
	h := newHarness(t, echo(), nil)

	h.send(awaitReply(t, h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})))

	snap := h.model.Snapshot()
	if snap.Len() != 2 || snap.Turns[0].Content != "What is the Transformers architecture?" {
		t.Fatalf("sample question not submitted: %+v", snap.Turns)
	}

	// Digits are ordinary input once the welcome screen is gone.
	h.typeText("3")
	if h.model.InputValue() != "3" {
		t.Errorf("input = %q, want 3", h.model.InputValue())
	}
}

func TestModel_FailureNotice(t *testing.T) {
	gen := session.GeneratorFunc(func(ctx context.Context, req session.Request) (string, error) {
		return "", errors.New("connection refused")
	})
	h := newHarness(t, gen, nil)

	h.exchange(t, "hi")

	snap := h.model.Snapshot()
	if snap.Len() != 1 || snap.Pending {
		t.Fatalf("after failure: len=%d pending=%v", snap.Len(), snap.Pending)
	}
	toasts := h.toasts.Toasts()
	if len(toasts) != 1 {
		t.Fatalf("got %d toasts, want 1", len(toasts))
	}
	if toasts[0].Title != "AI Chat Error" || toasts[0].Message != "An error occurred" || toasts[0].Kind != components.ToastKindError {
		t.Errorf("unexpected toast %+v", toasts[0])
	}
	if !h.model.toastTicking {
		t.Error("toast expiry loop should be running")
	}
	if view := h.model.View(); !strings.Contains(view, "AI Chat Error") {
		t.Error("toast should be drawn")
	}
}

// =============================================================================
// REGENERATE AND SELECTION TESTS
// =============================================================================

func TestModel_Regenerate(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	gen := session.GeneratorFunc(func(ctx context.Context, req session.Request) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return req.Prompt + " #" + string(rune('0'+calls)), nil
	})
	h := newHarness(t, gen, nil)

	h.exchange(t, "A")
	h.exchange(t, "C")
	before := h.model.Snapshot()
	if before.Len() != 4 {
		t.Fatalf("setup: %d turns", before.Len())
	}

	cmd := h.press(tea.KeyCtrlR)
	mid := h.model.Snapshot()
	if mid.Len() != 3 || !mid.Pending || mid.Turns[2].Content != "C" {
		t.Fatalf("during regenerate: %+v pending=%v", mid.Turns, mid.Pending)
	}

	h.send(awaitReply(t, cmd))
	after := h.model.Snapshot()
	if after.Len() != 4 || after.Turns[3].Content != "C #3" {
		t.Errorf("after regenerate: %+v", after.Turns)
	}
	if after.Turns[3].ID == before.Turns[3].ID {
		t.Error("regenerated reply should be a new turn")
	}
}

func TestModel_SelectionAndCopy(t *testing.T) {
	h := newHarness(t, echo(), nil)
	h.exchange(t, "first")
	h.exchange(t, "second")

	// Default selection is the latest reply.
	h.press(tea.KeyCtrlY)
	if got := h.lastCopied(); got != "reply to second" {
		t.Errorf("copied %q", got)
	}
	if !hasToast(h.toasts, CopiedTitle) {
		t.Errorf("missing copy toast, have %v", toastTitles(h.toasts))
	}
	if toasts := h.toasts.Toasts(); toasts[0].Message != CopiedDescription {
		t.Errorf("copy toast message = %q", toasts[0].Message)
	}

	// Move up onto the user turn "second".
	h.send(tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	turn, ok := h.model.SelectedTurn()
	if !ok || turn.Content != "second" {
		t.Fatalf("selected %+v", turn)
	}
	h.press(tea.KeyCtrlY)
	if got := h.lastCopied(); got != "second" {
		t.Errorf("copied %q", got)
	}

	// Regenerating a user turn is a silent no-op.
	if cmd := h.press(tea.KeyCtrlR); cmd != nil {
		t.Error("regenerate on a user turn should not start a call")
	}
	if h.model.Snapshot().Len() != 4 {
		t.Error("transcript should be unchanged")
	}

	// Selection stops at both ends.
	for i := 0; i < 10; i++ {
		h.send(tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	}
	if turn, _ := h.model.SelectedTurn(); turn.Content != "first" {
		t.Errorf("top selection = %q", turn.Content)
	}
	for i := 0; i < 10; i++ {
		h.send(tea.KeyMsg{Type: tea.KeyDown, Alt: true})
	}
	if turn, _ := h.model.SelectedTurn(); turn.Content != "reply to second" {
		t.Errorf("bottom selection = %q", turn.Content)
	}
}

func TestModel_CopyCode(t *testing.T) {
	gen := session.GeneratorFunc(func(ctx context.Context, req session.Request) (string, error) {
		if req.Prompt == "code" {
			return "Here:\n```go\nfmt.Println(\"hi\")\n```\nDone.", nil
		}
		return "no code here", nil
	})
	h := newHarness(t, gen, nil)

	h.exchange(t, "plain")
	h.press(tea.KeyCtrlK)
	if h.lastCopied() != "" {
		t.Error("nothing should be copied without a code block")
	}
	if !hasToast(h.toasts, "No code block") {
		t.Errorf("missing no-code toast, have %v", toastTitles(h.toasts))
	}

	h.exchange(t, "code")
	h.press(tea.KeyCtrlK)
	if got := h.lastCopied(); got != "fmt.Println(\"hi\")" {
		t.Errorf("copied code %q", got)
	}
}

func TestModel_CopyFailure(t *testing.T) {
	h := newHarness(t, echo(), func(o *Options) {
		o.Clipboard = func(string) error { return errors.New("no clipboard utility") }
	})
	h.exchange(t, "hi")

	h.press(tea.KeyCtrlY)
	toasts := h.toasts.Toasts()
	if len(toasts) == 0 || toasts[0].Title != "Copy failed" || toasts[0].Kind != components.ToastKindError {
		t.Errorf("unexpected toasts %+v", toasts)
	}
}

func TestModel_Feedback(t *testing.T) {
	h := newHarness(t, echo(), nil)

	// Without a reply "+" is ordinary input.
	h.typeText("+")
	if h.model.InputValue() != "+" {
		t.Fatalf("input = %q", h.model.InputValue())
	}
	h.press(tea.KeyBackspace)

	h.exchange(t, "hi")
	h.typeText("+")
	if h.model.InputValue() != "" {
		t.Error("feedback key should not reach the input")
	}
	if !hasToast(h.toasts, "Thanks for the feedback") {
		t.Errorf("missing feedback toast, have %v", toastTitles(h.toasts))
	}
}

// =============================================================================
// CANCEL AND SESSION TESTS
// =============================================================================

// blockingGen waits until released or canceled.
type blockingGen struct {
	release chan struct{}
}

func (g blockingGen) Generate(ctx context.Context, req session.Request) (string, error) {
	select {
	case <-g.release:
		return "late reply", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestModel_EscCancelsPending(t *testing.T) {
	gen := blockingGen{release: make(chan struct{})}
	h := newHarness(t, gen, nil)

	h.typeText("slow")
	cmd := h.press(tea.KeyEnter)
	h.press(tea.KeyEsc)
	h.send(awaitReply(t, cmd))

	snap := h.model.Snapshot()
	if snap.Pending || snap.Len() != 1 {
		t.Fatalf("after cancel: len=%d pending=%v", snap.Len(), snap.Pending)
	}
	toasts := h.toasts.Toasts()
	if len(toasts) != 1 || toasts[0].Kind != components.ToastKindWarning {
		t.Errorf("cancel should raise a warning toast, got %+v", toasts)
	}

	// A second esc dismisses the toast.
	h.press(tea.KeyEsc)
	if h.toasts.HasToasts() {
		t.Error("esc should dismiss the toast")
	}
}

func TestModel_NewSessionDiscardsLateReply(t *testing.T) {
	gen := blockingGen{release: make(chan struct{})}
	h := newHarness(t, gen, nil)

	h.typeText("question")
	cmd := h.press(tea.KeyEnter)
	oldID := h.model.Controller().SessionID()

	h.press(tea.KeyCtrlL)
	if len(h.controllers) != 2 {
		t.Fatalf("got %d controllers, want 2", len(h.controllers))
	}
	if !h.controllers[0].Closed() {
		t.Error("old controller should be closed")
	}
	if h.model.Controller().SessionID() == oldID {
		t.Error("new chat should have a new session id")
	}

	close(gen.release)
	reply := awaitReply(t, cmd)
	if !reply.outcome.Discarded {
		t.Fatal("late reply should be discarded")
	}
	h.send(reply)

	snap := h.model.Snapshot()
	if snap.Len() != 0 || snap.Pending {
		t.Errorf("new session touched by late reply: len=%d pending=%v", snap.Len(), snap.Pending)
	}
	if h.toasts.HasToasts() {
		t.Error("discarded reply should not notify")
	}
	if !strings.Contains(h.model.View(), "Sample questions") {
		t.Error("new session should show the welcome screen")
	}
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t, echo(), nil)

	cmd := h.press(tea.KeyCtrlC)
	if cmd == nil {
		t.Fatal("ctrl+c should return tea.Quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
	if !h.model.Quitting() || !h.model.Controller().Closed() {
		t.Error("quit should close the controller")
	}
	if h.model.View() != "" {
		t.Error("view should be empty after quit")
	}
}

// =============================================================================
// TYPING EFFECT TESTS
// =============================================================================

func TestModel_TypingEffect(t *testing.T) {
	h := newHarness(t, echo(), func(o *Options) {
		o.TypingEffect = true
		o.RevealInterval = time.Millisecond
	})

	h.exchange(t, "hi")
	if !h.model.reveal.active() {
		t.Fatal("reveal should start after a reply")
	}
	turnID := h.model.reveal.turnID

	time.Sleep(50 * time.Millisecond)
	if cmd := h.send(revealTickMsg{turnID: turnID}); cmd != nil {
		t.Error("reveal should finish once the whole reply is visible")
	}
	if h.model.reveal.active() {
		t.Error("reveal should be done")
	}

	// Ticks for other turns are ignored.
	if cmd := h.send(revealTickMsg{turnID: "other"}); cmd != nil {
		t.Error("stale tick should be ignored")
	}
}

func TestModel_EscSkipsTypingEffect(t *testing.T) {
	h := newHarness(t, echo(), func(o *Options) {
		o.TypingEffect = true
		o.RevealInterval = time.Hour
	})

	h.exchange(t, "hi")
	if !h.model.reveal.active() {
		t.Fatal("reveal should start")
	}
	h.press(tea.KeyEsc)
	if h.model.reveal.active() {
		t.Error("esc should finish the reveal")
	}
	if !strings.Contains(h.model.View(), "reply to hi") {
		t.Error("full reply should be visible")
	}
}

// =============================================================================
// CONFIG RELOAD TESTS
// =============================================================================

func TestModel_ConfigChanged(t *testing.T) {
	h := newHarness(t, echo(), nil)

	cfg := config.Default()
	cfg.UI.ModelLabel = "reloaded-model"
	cfg.UI.Theme = "light"
	cfg.UI.TypingEffect = true
	cfg.UI.WordWrap = 40
	h.send(ConfigChangedMsg{Config: cfg})

	if !strings.Contains(h.model.View(), "reloaded-model") {
		t.Error("header should show the new model label")
	}
	if h.model.theme.IsDark {
		t.Error("theme should switch to light")
	}
	if h.model.theme.Width != 100 {
		t.Errorf("theme width = %d, want 100", h.model.theme.Width)
	}
	if !h.model.typingEffect || h.model.wordWrap != 40 {
		t.Error("ui settings should apply")
	}

	h.send(ConfigChangedMsg{Err: errors.New("bad toml")})
	if !hasToast(h.toasts, "Config reload failed") {
		t.Errorf("missing reload toast, have %v", toastTitles(h.toasts))
	}
}

func TestModel_WordWrapCapsRenderer(t *testing.T) {
	var widths []int
	h := newHarness(t, echo(), func(o *Options) {
		o.WordWrap = 30
		o.Renderer = render.Func(func(content string, width int) string {
			widths = append(widths, width)
			return content
		})
	})
	h.exchange(t, "hi")

	if len(widths) == 0 {
		t.Fatal("renderer was not called")
	}
	for _, w := range widths {
		if w > 30 {
			t.Errorf("render width %d exceeds cap", w)
		}
	}
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestOverlayBottom(t *testing.T) {
	tests := []struct {
		base, overlay, want string
	}{
		{"a\nb\nc", "", "a\nb\nc"},
		{"a\nb\nc", "X", "a\nb\nX"},
		{"a\nb\nc", "X\nY", "a\nX\nY"},
		{"a\nb", "X\nY\nZ", "Y\nZ"},
	}
	for _, tt := range tests {
		if got := overlayBottom(tt.base, tt.overlay); got != tt.want {
			t.Errorf("overlayBottom(%q, %q) = %q, want %q", tt.base, tt.overlay, got, tt.want)
		}
	}
}

func TestCancelManager(t *testing.T) {
	cm := newCancelManager()
	if cm.cancelCurrent() {
		t.Error("nothing to cancel yet")
	}

	first := &session.Call{}
	ctx1 := cm.start(first)
	second := &session.Call{}
	ctx2 := cm.start(second)
	if ctx1.Err() == nil {
		t.Error("starting a new call should cancel the previous context")
	}

	cm.release(first)
	if ctx2.Err() != nil {
		t.Error("releasing an older call must not cancel the current one")
	}

	cm.release(second)
	if ctx2.Err() == nil {
		t.Error("release should free the current context")
	}
	if cm.cancelCurrent() {
		t.Error("released call should not be cancellable")
	}
}
