// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

// SchemaVersion tracks the journal schema for migrations.
const SchemaVersion = 1

// Schema creates the journal tables.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS calls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    kind TEXT NOT NULL,          -- submit, regenerate
    started_at INTEGER NOT NULL, -- Unix milliseconds
    duration_ms INTEGER NOT NULL,
    ok INTEGER NOT NULL,         -- 1 success, 0 failure
    failure TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_calls_started_at ON calls(started_at);
CREATE INDEX IF NOT EXISTS idx_calls_session_id ON calls(session_id);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
