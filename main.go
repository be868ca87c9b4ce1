// parley - A terminal chat client for a hosted AI chat endpoint.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/cli"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/render"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/ui/chat"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

// run dispatches the parsed command and returns the process exit code.
func run() int {
	cmd, args, err := cli.Parse()
	if err != nil {
		if errors.Is(err, cli.ErrHelpRequested) {
			cli.PrintUsage(os.Stdout)
			return cli.ExitSuccess
		}
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		if !args.JSON {
			fmt.Fprintln(os.Stderr, "Run 'parley help' for usage.")
		}
		return cli.GetExitCode(err)
	}

	cli.ConfigureColor(args.NoColor)

	// Commands that need neither an endpoint nor a log file
	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		return exitWith(cmd, args, cli.HandleVersion(os.Stdout, args))
	case cli.CmdConfig:
		return exitWith(cmd, args, cli.HandleConfig(os.Stdout, args))
	}

	env, err := cli.NewEnv(cmd, args)
	if err != nil {
		return exitWith(cmd, args, err)
	}
	defer func() {
		if err := env.Close(); err != nil {
			fmt.Fprintln(os.Stderr, styles.RenderWarning(err.Error()))
		}
	}()

	switch cmd {
	case cli.CmdAsk:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		err = cli.HandleAsk(ctx, env, args)
	case cli.CmdChat:
		err = cli.HandleChat(context.Background(), env, args)
	case cli.CmdStats:
		err = cli.HandleStats(context.Background(), env, args)
	default:
		err = runTUI(env)
	}
	return exitWith(cmd, args, err)
}

func exitWith(cmd cli.Command, args cli.Args, err error) int {
	if err == nil {
		return cli.ExitSuccess
	}
	cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
	return cli.GetExitCode(err)
}

// =============================================================================
// TUI
// =============================================================================

// runTUI runs the full-screen chat until the user quits.
func runTUI(env *cli.Env) error {
	cfg := env.Config
	logger := env.Logger

	toasts := components.NewToastManager()
	newSession := func() *session.Controller {
		return session.NewController(env.Client, session.Options{
			Notifier:        toasts,
			Recorder:        env.Recorder(),
			Logger:          logger,
			ErrorTitle:      cfg.Notify.ErrorTitle,
			FallbackMessage: cfg.Notify.FallbackMessage,
		})
	}

	m := chat.New(newSession, chat.Options{
		Theme:          styles.NewTheme(cfg.UI.Theme),
		Renderer:       render.NewMarkdown(cfg.UI.MarkdownStyle).WithLogger(logger),
		Toasts:         toasts,
		ModelLabel:     cfg.UI.ModelLabel,
		TypingEffect:   cfg.UI.TypingEffect,
		ShowTimestamps: cfg.UI.ShowTimestamps,
		WordWrap:       cfg.UI.WordWrap,
		Logger:         logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Hot reload: presentation settings follow edits to the config file.
	if env.ConfigPath != "" {
		watcher, err := config.NewWatcher(env.ConfigPath, config.DefaultDebounce, func(c *config.Config, err error) {
			p.Send(chat.ConfigChangedMsg{Config: c, Err: err})
		})
		if err != nil {
			logger.Warn("config watcher unavailable", "error", err)
		} else {
			watcher.WithLogger(logger)
			if err := watcher.Watch(); err != nil {
				logger.Warn("config watcher unavailable", "path", env.ConfigPath, "error", err)
			}
			defer watcher.Close()
		}
	}

	logger.Info("tui started", "endpoint", env.Client.Endpoint())
	final, err := p.Run()
	if fm, ok := final.(chat.Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
