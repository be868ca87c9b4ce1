// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/session"
)

// =============================================================================
// REQUEST MESSAGES
// =============================================================================

// replyMsg carries a reconciled call back into the update loop.
type replyMsg struct {
	call    *session.Call
	outcome session.Outcome
}

// runCall performs one network call off the update loop.
func runCall(ctx context.Context, call *session.Call) tea.Cmd {
	return func() tea.Msg {
		return replyMsg{call: call, outcome: call.Do(ctx)}
	}
}

// =============================================================================
// TYPING EFFECT MESSAGES
// =============================================================================

// revealTickMsg advances the typing effect of one turn.
type revealTickMsg struct {
	turnID string
}

func revealTick(turnID string, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return revealTickMsg{turnID: turnID}
	})
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigChangedMsg is sent by the config watcher after the file changed.
// Err is set when the new file could not be loaded.
type ConfigChangedMsg struct {
	Config *config.Config
	Err    error
}
