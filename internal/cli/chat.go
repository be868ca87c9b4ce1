// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat command.
//
// USABILITY: Markdown rendering and history for better CLI experience
//
// Command: chat
// Short:   Start a line-mode chat session
// Aliases: c
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /regen [n], /r      Regenerate the last reply, or turn n
//   /copy [n], /y       Copy the last reply, or turn n
//   /history            Show the turns of this session
//   /new                Start a new session
//   /stats, /s          Show session statistics
//   /quit, /q           Exit chat
//   1-4                 Ask a sample question (empty session only)
//   Ctrl+C              Cancel the pending request
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"

	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader is the input side of the REPL.
type lineReader interface {
	ReadInput(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor backed by historyFile.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	cli := &ChatCLI{line: line, historyFile: historyFile}
	cli.LoadHistory()
	return cli
}

// HistoryPath returns the chat history file in the config directory,
// falling back to the temp directory.
func HistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chat_history")
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with 0600 permissions.
func (c *ChatCLI) SaveHistory() error {
	var buf strings.Builder
	if _, err := c.line.WriteHistory(&buf); err != nil {
		return err
	}
	return util.AtomicWriteFileWithDir(c.historyFile, []byte(buf.String()), 0600, 0700)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	err := c.SaveHistory()
	c.line.Close()
	return err
}

// =============================================================================
// SESSION STATE
// =============================================================================

// noticePrinter writes notices to a stream as they arrive.
type noticePrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *noticePrinter) Notify(n session.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, RenderNotice(n))
}

// chatStats counts the calls of one REPL run.
type chatStats struct {
	Requests int
	OK       int
	Canceled int
	Latency  time.Duration // total over successful calls
}

func (s *chatStats) record(out session.Outcome, elapsed time.Duration) {
	if out.Discarded {
		return
	}
	s.Requests++
	switch {
	case out.OK():
		s.OK++
		s.Latency += elapsed
	case session.Classify(out.Err) == session.FailureCanceled:
		s.Canceled++
	}
}

// ChatSession holds the state of an interactive chat.
type ChatSession struct {
	env      *Env
	ctrl     *session.Controller
	notifier session.Notifier
	quiet    bool

	// Clipboard writes text to the system clipboard.
	Clipboard func(string) error

	started time.Time
	stats   chatStats

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewChatSession starts a session printing notices to the env's stderr.
func NewChatSession(env *Env, args Args) *ChatSession {
	notifier := &noticePrinter{w: env.stderr()}
	return &ChatSession{
		env:       env,
		ctrl:      env.NewController(notifier),
		notifier:  notifier,
		quiet:     args.Quiet,
		Clipboard: clipboard.WriteAll,
		started:   time.Now(),
	}
}

// Controller returns the controller of the current session.
func (s *ChatSession) Controller() *session.Controller {
	return s.ctrl
}

// CancelPending cancels the in-flight request, if any.
func (s *ChatSession) CancelPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	return true
}

// Close cancels any request and closes the session.
func (s *ChatSession) Close() {
	s.CancelPending()
	s.ctrl.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the line-mode chat until the user quits.
func HandleChat(ctx context.Context, env *Env, args Args) error {
	s := NewChatSession(env, args)
	defer s.Close()

	input := NewChatCLI(HistoryPath())
	defer func() {
		if err := input.Close(); err != nil {
			env.logger().Warn("failed to save chat history", "error", err)
		}
	}()

	// Ctrl+C at the prompt is handled by liner; while a request is pending
	// the terminal is cooked and it arrives as a signal.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if s.CancelPending() {
				fmt.Fprintln(env.stderr())
			}
		}
	}()

	return s.Run(ctx, input)
}

// Run is the REPL loop. It returns nil when the user quits or input ends.
func (s *ChatSession) Run(ctx context.Context, in lineReader) error {
	out := s.env.stdout()
	if !s.quiet {
		s.printWelcome()
	}

	for ctx.Err() == nil {
		raw, err := in.ReadInput(PromptStyle.Render("you> "))
		if err != nil {
			// liner.ErrPromptAborted (Ctrl+C) or io.EOF (Ctrl+D)
			fmt.Fprintln(out)
			s.printExitSummary()
			return nil
		}

		input := strings.TrimSpace(raw)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			keepGoing, err := s.handleSlashCommand(ctx, input)
			if err != nil {
				fmt.Fprintln(s.env.stderr(), styles.RenderError(err.Error()))
			}
			if !keepGoing {
				s.printExitSummary()
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			s.printExitSummary()
			return nil
		}

		prompt := util.NormalizeInput(raw)
		if n, err := strconv.Atoi(input); err == nil && s.ctrl.Snapshot().ShowWelcome() {
			if q, ok := components.SampleQuestion(n); ok {
				fmt.Fprintln(out, DimStyle.Render("> "+q))
				prompt = q
			}
		}
		s.submit(ctx, prompt)
	}
	return nil
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

func (s *ChatSession) submit(ctx context.Context, prompt string) session.Outcome {
	call, err := s.ctrl.Submit(prompt)
	if err != nil {
		fmt.Fprintln(s.env.stderr(), styles.RenderWarning(err.Error()))
		return session.Outcome{Err: err}
	}
	return s.run(ctx, call)
}

// run performs call with a cancelable context and prints the reply.
// Failures are printed by the notifier.
func (s *ChatSession) run(ctx context.Context, call *session.Call) session.Outcome {
	callCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	stop := func() {}
	if !s.quiet && isTerminal(s.env.stderr()) {
		stop = startSpinner(s.env.stderr(), "Thinking")
	}
	started := time.Now()
	out := call.Do(callCtx)
	stop()

	s.stats.record(out, time.Since(started))
	if out.OK() {
		fmt.Fprintln(s.env.stdout())
		displayResponse(s.env, out.Turn.Content)
		fmt.Fprintln(s.env.stdout())
	}
	return out
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs a slash command. It returns false to end the chat.
func (s *ChatSession) handleSlashCommand(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(input)
	cmd, rest := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "/help", "/h", "/?":
		s.printHelp()

	case "/regen", "/r":
		turn, err := s.resolveTurn(rest, true)
		if err != nil {
			return true, err
		}
		call, err := s.ctrl.Regenerate(turn.ID)
		if err != nil {
			return true, err
		}
		if call == nil {
			return true, errors.New("nothing to regenerate")
		}
		s.run(ctx, call)

	case "/copy", "/y":
		turn, err := s.resolveTurn(rest, false)
		if err != nil {
			return true, err
		}
		if err := s.Clipboard(turn.Content); err != nil {
			return true, fmt.Errorf("copy failed: %w", err)
		}
		fmt.Fprintln(s.env.stdout(), styles.RenderSuccess("Copied to clipboard"))

	case "/history", "/hist":
		s.printHistory()

	case "/new", "/clear":
		s.CancelPending()
		s.ctrl.Close()
		s.ctrl = s.env.NewController(s.notifier)
		s.env.logger().Info("new session")
		fmt.Fprintln(s.env.stdout(), styles.RenderInfo("Started a new session"))

	case "/stats", "/s":
		s.printStats()

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (try /help)", cmd)
	}
	return true, nil
}

// resolveTurn picks turn n (1-based, as listed by /history), or the latest
// assistant turn when no number is given.
func (s *ChatSession) resolveTurn(args []string, assistantOnly bool) (model.Turn, error) {
	snap := s.ctrl.Snapshot()
	if len(args) == 0 {
		t, ok := snap.LastAssistant()
		if !ok {
			return model.Turn{}, errors.New("no reply yet")
		}
		return t, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > snap.Len() {
		return model.Turn{}, ErrNotFound("turn", args[0])
	}
	t := snap.Turns[n-1]
	if assistantOnly && !t.IsAssistant() {
		return model.Turn{}, fmt.Errorf("turn %d is not a reply", n)
	}
	return t, nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func (s *ChatSession) printWelcome() {
	w := s.env.stdout()
	fmt.Fprintln(w, TitleStyle.Render(components.DefaultHeaderTitle))
	fmt.Fprintln(w, DimStyle.Render(s.env.Client.Endpoint()))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sample questions:")
	for i, q := range components.SampleQuestions {
		fmt.Fprintf(w, "  %s %s\n", DimStyle.Render(fmt.Sprintf("[%d]", i+1)), q)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, DimStyle.Render("Type /help for commands, /quit to exit."))
	fmt.Fprintln(w)
}

func (s *ChatSession) printHelp() {
	w := s.env.stdout()
	fmt.Fprintln(w, TitleStyle.Render("Commands"))
	for _, line := range [][2]string{
		{"/help", "Show this help"},
		{"/regen [n]", "Regenerate the last reply, or turn n"},
		{"/copy [n]", "Copy the last reply, or turn n"},
		{"/history", "List the turns of this session"},
		{"/new", "Start a new session"},
		{"/stats", "Show session statistics"},
		{"/quit", "Exit chat"},
		{"Ctrl+C", "Cancel the pending request"},
	} {
		fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render(line[0]), line[1])
	}
}

func (s *ChatSession) printHistory() {
	w := s.env.stdout()
	snap := s.ctrl.Snapshot()
	if snap.Len() == 0 {
		fmt.Fprintln(w, DimStyle.Render("No messages yet."))
		return
	}
	width := TerminalWidth(w)
	for i, t := range snap.Turns {
		label := fmt.Sprintf("%3d. %-9s %s", i+1, t.Role.DisplayName(), t.FormatTime())
		preview := util.Preview(t.Content, max(width-util.StringWidth(label)-2, 10))
		fmt.Fprintf(w, "%s  %s\n", RoleStyle.Render(label), preview)
	}
}

func (s *ChatSession) printStats() {
	w := s.env.stdout()
	snap := s.ctrl.Snapshot()
	fmt.Fprintln(w, RenderField("Session", snap.SessionID))
	fmt.Fprintln(w, RenderField("Turns", strconv.Itoa(snap.Len())))
	fmt.Fprintln(w, RenderField("Requests", fmt.Sprintf("%d (%d ok, %d canceled)", s.stats.Requests, s.stats.OK, s.stats.Canceled)))
	if s.stats.OK > 0 {
		fmt.Fprintln(w, RenderField("Avg reply", formatDurationShort(s.stats.Latency/time.Duration(s.stats.OK))))
	}
	fmt.Fprintln(w, RenderField("Elapsed", formatDuration(time.Since(s.started))))
}

func (s *ChatSession) printExitSummary() {
	if s.quiet {
		return
	}
	fmt.Fprintln(s.env.stdout(), DimStyle.Render(fmt.Sprintf("%d requests in %s. Goodbye.",
		s.stats.Requests, formatDuration(time.Since(s.started)))))
}
