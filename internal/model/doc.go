// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for turns and transcripts.
//
// # Key Types
//
//   - Role: who authored a turn (user or assistant)
//   - Turn: one immutable message with ID, role, content and creation time
//   - Transcript: ordered turns with append, truncate and backward search
//
// # Usage
//
//	tr := model.NewTranscript()
//	tr.Append(model.NewUserTurn("What is a transformer?"))
//	tr.Append(model.NewAssistantTurn("A transformer is..."))
//
//	if user, _, ok := tr.FindLastUserBefore(1); ok {
//	    fmt.Println(user.Content)
//	}
package model
