// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for scripting against the CLI.
//
// Every --json command writes exactly one envelope to stdout (errors go to
// stderr) so scripts can pipe the result into jq:
//
//	parley ask --json "hi" | jq -r .data.reply
package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the envelope of every --json command.
type JSONResponse struct {
	Success bool   `json:"success"`
	Command string `json:"command,omitempty"`
	Data    any    `json:"data"`

	// Error is null on success.
	Error *string `json:"error"`
	// ExitCode mirrors the process exit status on failure.
	ExitCode int `json:"exit_code,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// NewJSONResponse wraps the data of a successful command.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Command:   command,
		Data:      data,
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
}

// NewJSONErrorResponse wraps a failed command's error and exit code.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Command:   command,
		Error:     &msg,
		ExitCode:  GetExitCode(err),
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
}

// Print writes the indented envelope to w.
func (r *JSONResponse) Print(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}
