// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the chat session state machine.
//
// A Session owns one Transcript, one pending flag and one session ID that is
// generated at creation and attached to every outbound request. A Controller
// drives the session: Submit and Regenerate validate and mutate synchronously,
// then hand back a Call that performs the single network request and
// reconciles the reply.
//
// # Single-flight
//
// At most one Call is in flight per session. Submit or Regenerate while a
// call is pending returns ErrPending without touching the transcript.
//
// # Failure policy
//
// A failed call (transport error, non-2xx status, malformed body) appends no
// assistant turn, clears pending, and sends a Notice to the Notifier. The
// user's turn stays in the transcript.
//
// # Usage
//
//	ctrl := session.NewController(client, session.Options{Notifier: toasts})
//	call, err := ctrl.Submit("What is the Transformers architecture?")
//	if err != nil {
//	    return err // ErrEmptyPrompt, ErrPending or ErrClosed
//	}
//	out := call.Do(ctx)
//	fmt.Println(len(out.Snapshot.Turns))
package session
