// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual pieces of the parley chat screen.

Components are built on Bubble Tea and Lip Gloss and take their styles from
a shared *styles.Theme. None of them hold request state: the chat model
derives everything they show from session snapshots.

# Components

Header (header.go) - Title bar with the "Ai Assistant" title and model label.
TurnBubble (turn.go) - One transcript turn with role label, time, rendered
content and a selection marker.
Welcome (welcome.go) - Empty-state screen with numbered sample questions.
TypingIndicator (spinner.go) - Spinner whose label alternates between
"Typing" and "Thinking" while a reply is pending.
ToastManager (toast.go) - The notification surface; implements
session.Notifier.
StatusBar (statusbar.go) - Status, turn count and key hints.

# Usage

	theme := styles.NewTheme("auto")
	toasts := components.NewToastManager()
	ctrl := session.NewController(client, session.Options{Notifier: toasts})

	indicator := components.NewTypingIndicator(theme)
	cmd := indicator.Start()

	view := components.RenderToastStack(theme, toasts.Tick(), width)
*/
package components
