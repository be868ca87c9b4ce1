// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea model for the parley chat screen.

The model owns presentation state only. Transcript, pending flag and session
id live in a session.Controller; after every transition the model asks the
controller for a snapshot and rebuilds the transcript view from it.

# Layout

	header         "Ai Assistant" and the model label
	transcript     welcome screen, or the scrollable turn bubbles
	indicator      "Typing..." / "Thinking..." while a reply is pending
	input          single-line text input, disabled while pending
	status bar     status, turn count and key hints

Toasts from the controller's notifier are drawn over the bottom of the
transcript and expire on their own.

# Requests

Submitting or regenerating returns a *session.Call. The model runs
call.Do in a tea.Cmd and receives the reconciled outcome as a message, so
the update loop never blocks on the network. Esc cancels the in-flight call;
starting a new chat closes the old controller, and any late reply for it
arrives discarded.

# Key Bindings

  - enter: send
  - 1-4: ask a sample question (welcome screen, empty input)
  - alt+up / alt+down: select a turn
  - ctrl+r: regenerate the selected reply
  - ctrl+y: copy the selected turn
  - ctrl+k: copy the last code block of the selected turn
  - + / -: rate the selected reply (logged only)
  - pgup / pgdn: scroll
  - ctrl+l: new chat
  - esc: cancel request, dismiss toast or skip the typing effect
  - ctrl+c: quit

# Hot Reload

The config watcher delivers ConfigChangedMsg. Theme, markdown style, model
label, word wrap, timestamps and the typing effect apply immediately.
*/
package chat
