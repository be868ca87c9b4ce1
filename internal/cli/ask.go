// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// Command: ask
// Short:   Ask a single question and print the reply
// Aliases: a
//
// Examples:
//   parley ask "What is the Transformers architecture?"
//   echo "Describe generative AI using emojis." | parley ask
//   parley ask --json "Hello"            Reply and session id as JSON
//
// The reply is rendered as markdown when stdout is a terminal and printed
// verbatim otherwise. A failed call prints the failure notice to stderr and
// exits with the network (5) or timeout (8) code.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/parley-tui/internal/render"
	"github.com/jeranaias/parley-tui/internal/session"
)

// AskData is the JSON payload of "parley ask --json".
type AskData struct {
	SessionID  string `json:"session_id"`
	TurnID     string `json:"turn_id"`
	Reply      string `json:"reply"`
	DurationMs int64  `json:"duration_ms"`
}

// HandleAsk submits one prompt and prints the reply.
func HandleAsk(ctx context.Context, env *Env, args Args) error {
	prompt := args.Query
	if strings.TrimSpace(prompt) == "" && !isTerminal(env.stdin()) {
		var err error
		if prompt, err = readPrompt(env.stdin()); err != nil {
			return err
		}
	}

	notices := &session.NoticeLog{}
	ctrl := env.NewController(notices)
	defer ctrl.Close()

	call, err := ctrl.Submit(prompt)
	if err != nil {
		if errors.Is(err, session.ErrEmptyPrompt) {
			return ErrMissingArgument("prompt", `parley ask "What is the Transformers architecture?"`)
		}
		return NewCommandError("ask", "", err.Error(), err)
	}

	stop := func() {}
	if !args.Quiet && !args.JSON && isTerminal(env.stderr()) {
		stop = startSpinner(env.stderr(), "Thinking")
	}
	started := time.Now()
	out := call.Do(ctx)
	stop()

	if !out.OK() {
		reason := env.config().Notify.FallbackMessage
		if out.Notice != nil {
			reason = out.Notice.Title + ": " + out.Notice.Description
		}
		return &CommandError{Command: "ask", Reason: reason, Err: out.Err, Code: exitCodeForCall(out.Err)}
	}

	if args.JSON {
		return NewJSONResponse("ask", AskData{
			SessionID:  ctrl.SessionID(),
			TurnID:     out.Turn.ID,
			Reply:      out.Turn.Content,
			DurationMs: time.Since(started).Milliseconds(),
		}).Print(env.stdout())
	}

	displayResponse(env, out.Turn.Content)
	return nil
}

// displayResponse prints a reply. Markdown is rendered only for color
// terminals so piped output stays verbatim.
func displayResponse(env *Env, content string) {
	w := env.stdout()
	if isTerminal(w) && ColorsEnabled() {
		md := render.NewMarkdown(env.config().UI.MarkdownStyle).WithLogger(env.logger())
		content = md.Render(content, TerminalWidth(w))
	}
	fmt.Fprint(w, content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Fprintln(w)
	}
}
