// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide structured logger.
//
// The TUI owns the terminal, so logs go to a file by default
// (~/.parley/parley.log). CLI commands may log to stderr instead.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/parley-tui/internal/config"
)

// Options adjusts Setup.
type Options struct {
	// Stderr logs to standard error instead of the log file.
	Stderr bool
	// Level overrides the configured level when non-empty.
	Level string
}

// ParseLevel maps a config level name to a slog.Level. Unknown names map
// to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds a logger from cfg, installs it as slog.Default and returns
// it with a closer for the underlying file. The closer is a no-op for stderr.
func Setup(cfg *config.Config, opts Options) (*slog.Logger, io.Closer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	level := cfg.Log.Level
	if opts.Level != "" {
		level = opts.Level
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if !opts.Stderr {
		path, err := cfg.LogPath()
		if err != nil {
			return nil, nil, err
		}
		f, err := OpenFile(path)
		if err != nil {
			return nil, nil, err
		}
		w, closer = f, f
	}

	logger := New(w, ParseLevel(level))
	slog.SetDefault(logger)
	return logger, closer, nil
}

// New returns a text logger writing to w at level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// OpenFile opens path for appending with 0600 permissions, creating
// parent directories as needed.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
