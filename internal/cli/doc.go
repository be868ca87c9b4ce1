// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of
// parley.
//
// # Commands
//
//   - tui (default): handled by main with the ui/chat model
//   - ask: one prompt, one printed reply
//   - chat: line-mode REPL with history and slash commands
//   - config: show, path, init, get, set
//   - stats: summary of the local call journal
//   - version, help
//
// # Usage
//
//	cmd, args, err := cli.Parse()
//	if err != nil {
//	    cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
//	    os.Exit(cli.GetExitCode(err))
//	}
//	env, err := cli.NewEnv(cmd, args)
//	...
//	err = cli.HandleAsk(ctx, env, args)
//
// Handlers return errors and never exit. GetExitCode maps an error to the
// exit code: usage 2, config 3, network 5, not found 7, timeout 8.
package cli
