// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides a local call journal for parley.
//
// Every reconciled chat call is appended to a SQLite database as one row:
// session id, call kind, start time, duration, outcome and failure kind.
// The journal backs `parley stats` and the /stats REPL command.
//
// # Key Types
//
//   - Journal: SQLite-backed store implementing session.Recorder
//   - Summary: aggregated counts and latency percentiles
//   - DailyStats: per-day breakdown
//
// # Usage
//
//	journal, err := telemetry.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer journal.Close()
//	ctrl := session.NewController(client, session.Options{Recorder: journal})
//
// # Privacy
//
// The journal is local-only and does not transmit any data.
// Prompt and reply content is never stored.
package telemetry
