// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat screen.
type KeyMap struct {
	Submit     key.Binding
	Cancel     key.Binding
	Quit       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	SelectUp   key.Binding
	SelectDown key.Binding
	Regenerate key.Binding
	Copy       key.Binding
	CopyCode   key.Binding
	NewChat    key.Binding
	ThumbsUp   key.Binding
	ThumbsDown key.Binding
	Sample     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel request / dismiss"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		SelectUp: key.NewBinding(
			key.WithKeys("alt+up", "ctrl+p"),
			key.WithHelp("alt+up", "select previous turn"),
		),
		SelectDown: key.NewBinding(
			key.WithKeys("alt+down", "ctrl+n"),
			key.WithHelp("alt+down", "select next turn"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "regenerate reply"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy turn"),
		),
		CopyCode: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("ctrl+k", "copy code block"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "new chat"),
		),
		// Feedback and sample keys only apply while the input is empty.
		ThumbsUp: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "good reply"),
		),
		ThumbsDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "bad reply"),
		),
		Sample: key.NewBinding(
			key.WithKeys("1", "2", "3", "4"),
			key.WithHelp("1-4", "ask a sample question"),
		),
	}
}

// ShortHelp returns the bindings shown in compact help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Regenerate, k.Copy, k.NewChat, k.Quit}
}

// FullHelp returns all bindings grouped by column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Cancel, k.Quit, k.NewChat},
		{k.PageUp, k.PageDown, k.SelectUp, k.SelectDown},
		{k.Regenerate, k.Copy, k.CopyCode, k.ThumbsUp, k.ThumbsDown, k.Sample},
	}
}
