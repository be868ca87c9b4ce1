// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// =============================================================================
// CONFIG WATCHER
// =============================================================================

// Watcher reloads a config file when it changes on disk and passes the
// result to a callback. The parent directory is watched so that editors
// which replace the file (write temp, rename) are seen too.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*Config, error)
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// NewWatcher creates a watcher for path. onChange receives the reloaded
// config, or the load error; it runs on the watcher goroutine.
func NewWatcher(path string, debounce time.Duration, onChange func(*Config, error)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     filepath.Clean(abs),
		debounce: debounce,
		onChange: onChange,
		logger:   slog.Default(),
		watcher:  fw,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// WithLogger sets the logger.
func (w *Watcher) WithLogger(logger *slog.Logger) *Watcher {
	if logger != nil {
		w.logger = logger
	}
	return w
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Watch starts watching. It returns once the directory is registered.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	go w.processEvents()
	return nil
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	select {
	case <-w.done:
	case <-time.After(time.Second):
	}
	return err
}

func (w *Watcher) processEvents() {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("config watcher panic", "panic", r)
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// schedule (re)arms the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}
	cfg, err := LoadFromPath(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", "path", w.path, "error", err)
	} else {
		w.logger.Info("config reloaded", "path", w.path)
	}
	if w.onChange != nil {
		w.onChange(cfg, err)
	}
}
