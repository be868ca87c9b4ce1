// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Shared wiring for commands that talk to the chat endpoint.

package cli

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/jeranaias/parley-tui/internal/cloud"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/logging"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/telemetry"
)

// Env carries the configuration and collaborators of a command run.
// Zero-valued writers and logger fall back to the process defaults.
type Env struct {
	Config     *config.Config
	ConfigPath string

	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Client  *cloud.Client
	Journal *telemetry.Journal // nil when telemetry is disabled

	closers []io.Closer
}

// NewEnv loads configuration, applies flag overrides, and opens the logger,
// the call journal and the endpoint client.
func NewEnv(cmd Command, args Args) (*Env, error) {
	cfg, path, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}

	env := &Env{
		Config:     cfg,
		ConfigPath: path,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}

	logOpts := logging.Options{Stderr: args.Verbose && cmd != CmdTUI}
	if args.Verbose {
		logOpts.Level = "debug"
	}
	logger, logCloser, err := logging.Setup(cfg, logOpts)
	if err != nil {
		return nil, &CommandError{Command: cmd.String(), Reason: "failed to open log", Err: err, Code: ExitConfigError}
	}
	env.Logger = logger
	env.closers = append(env.closers, logCloser)

	if cfg.Telemetry.Enabled {
		if dbPath, err := cfg.TelemetryPath(); err != nil {
			logger.Warn("telemetry disabled", "error", err)
		} else if journal, err := telemetry.Open(dbPath); err != nil {
			// RELIABILITY: a broken journal never blocks chatting
			logger.Warn("telemetry disabled", "path", dbPath, "error", err)
		} else {
			env.Journal = journal
			env.closers = append(env.closers, journal)
		}
	}

	env.Client = NewClient(cfg, logger)
	logger.Debug("environment ready", "command", cmd.String(), "endpoint", env.Client.Endpoint(), "config", path)
	return env, nil
}

// LoadConfig loads the config file named by --config (or the default
// location) and applies --url and --timeout on top.
func LoadConfig(args Args) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path = args.ConfigPath
		err  error
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		path, _ = config.ConfigPath()
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, path, &CommandError{Command: "config", Action: "load", Reason: err.Error(), Err: err, Code: ExitConfigError}
	}

	if args.URL != "" {
		cfg.API.BaseURL = args.URL
	}
	if args.Timeout > 0 {
		cfg.API.TimeoutSecs = max(1, int(args.Timeout.Seconds()))
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, &CommandError{Command: "config", Action: "load", Reason: err.Error(), Err: err, Code: ExitConfigError}
	}
	return cfg, path, nil
}

// NewClient builds the endpoint client from cfg.
func NewClient(cfg *config.Config, logger *slog.Logger) *cloud.Client {
	return cloud.NewClient().
		WithBaseURL(cfg.API.BaseURL).
		WithChatPath(cfg.API.ChatPath).
		WithTimeout(cfg.Timeout()).
		WithMaxAttempts(cfg.API.MaxAttempts).
		WithRateLimit(cfg.API.RequestsPerMinute).
		WithUserAgent(cfg.API.UserAgent).
		WithLogger(logger)
}

// Recorder returns the journal as a session.Recorder, or nil.
func (e *Env) Recorder() session.Recorder {
	if e.Journal == nil {
		return nil
	}
	return e.Journal
}

// NewController starts a session whose failures are reported to notifier.
func (e *Env) NewController(notifier session.Notifier) *session.Controller {
	cfg := e.config()
	return session.NewController(e.Client, session.Options{
		Notifier:        notifier,
		Recorder:        e.Recorder(),
		Logger:          e.logger(),
		ErrorTitle:      cfg.Notify.ErrorTitle,
		FallbackMessage: cfg.Notify.FallbackMessage,
	})
}

// Close releases the journal and the log file.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

func (e *Env) config() *config.Config {
	if e.Config == nil {
		return config.Default()
	}
	return e.Config
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Env) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func (e *Env) stderr() io.Writer {
	if e.Stderr == nil {
		return os.Stderr
	}
	return e.Stderr
}

func (e *Env) stdin() io.Reader {
	if e.Stdin == nil {
		return os.Stdin
	}
	return e.Stdin
}
