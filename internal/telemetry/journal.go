// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/parley-tui/internal/session"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrClosed is returned by operations on a closed journal.
	ErrClosed = errors.New("journal is closed")
)

// =============================================================================
// JOURNAL
// =============================================================================

// Journal is an append-only SQLite log of chat calls. It implements
// session.Recorder and is safe for concurrent use.
type Journal struct {
	db     *sql.DB
	path   string
	mu     sync.RWMutex
	closed bool
}

var _ session.Recorder = (*Journal)(nil)

// Open opens (creating if needed) the journal at path. ":memory:" opens a
// private in-memory journal.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps an
	// in-memory database alive for the journal's lifetime.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Journal{db: db, path: path}, nil
}

// Path returns the database path.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database. Further calls return ErrClosed.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

// RecordCall appends one call. It implements session.Recorder.
func (j *Journal) RecordCall(ctx context.Context, rec session.CallRecord) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrClosed
	}

	ok := 0
	if rec.OK {
		ok = 1
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO calls (session_id, kind, started_at, duration_ms, ok, failure) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID, string(rec.Kind), rec.Started.UnixMilli(), rec.Duration.Milliseconds(), ok, string(rec.Failure),
	)
	if err != nil {
		return fmt.Errorf("failed to record call: %w", err)
	}
	return nil
}

// Recent returns up to limit calls, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]session.CallRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT session_id, kind, started_at, duration_ms, ok, failure FROM calls ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	var out []session.CallRecord
	for rows.Next() {
		var (
			rec                  session.CallRecord
			kind, failure        string
			startedMs, durMs, ok int64
		)
		if err := rows.Scan(&rec.SessionID, &kind, &startedMs, &durMs, &ok, &failure); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		rec.Kind = session.CallKind(kind)
		rec.Started = time.UnixMilli(startedMs)
		rec.Duration = time.Duration(durMs) * time.Millisecond
		rec.OK = ok == 1
		rec.Failure = session.FailureKind(failure)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes calls that started before cutoff and returns the count.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return 0, ErrClosed
	}
	res, err := j.db.ExecContext(ctx, `DELETE FROM calls WHERE started_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune calls: %w", err)
	}
	return res.RowsAffected()
}
