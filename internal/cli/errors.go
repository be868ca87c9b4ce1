// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for CLI commands.
//
// Command handlers return errors and never exit. main displays the error with
// DisplayError and exits with GetExitCode.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jeranaias/parley-tui/internal/cloud"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates a failed call to the chat endpoint
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// ErrHelpRequested is returned by ParseArgs for -h/--help.
var ErrHelpRequested = errors.New("help requested")

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "ask", "config")
	Action  string // Action being performed (e.g., "set"), may be empty
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
	Code    int    // Exit code; 0 derives it from Err
}

func (e *CommandError) Error() string {
	name := e.Command
	if e.Action != "" {
		name += " " + e.Action
	}
	if e.Err != nil && e.Reason == "" {
		return fmt.Sprintf("%s failed: %v", name, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", name, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationErrorWithExample(argName, "", "required argument missing", usage)
}

// ErrInvalidFormat creates an error for invalid format.
func ErrInvalidFormat(field, value, expected string) error {
	return NewValidationErrorWithExample(field, value, "invalid format", expected)
}

// ErrUnknownCommand creates an error for an unrecognized command name.
func ErrUnknownCommand(name string) error {
	return NewValidationErrorWithExample("command", name, "unknown command", "parley help")
}

// ErrUnknownSubcommand creates an error for an unrecognized subcommand.
func ErrUnknownSubcommand(command, name string, valid []string) error {
	return NewValidationErrorWithExample(command+" subcommand", name, "unknown subcommand",
		"one of: "+strings.Join(valid, ", "))
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w. In JSON mode it writes an error response.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Print(w)
		return
	}
	fmt.Fprintln(w, styles.RenderError(err.Error()))
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil || errors.Is(err, ErrHelpRequested) {
		return ExitSuccess
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code != 0 {
		return cmdErr.Code
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return ExitNotFoundError
	}

	var cfgErrs config.ValidateErrors
	var cfgErr config.ValidationError
	if errors.As(err, &cfgErrs) || errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	if isTimeout(err) {
		return ExitTimeoutError
	}

	var apiErr *cloud.APIError
	var netErr net.Error
	if errors.As(err, &apiErr) || errors.As(err, &netErr) ||
		errors.Is(err, session.ErrMalformedResponse) || errors.Is(err, cloud.ErrRateLimited) {
		return ExitNetworkError
	}

	return ExitGeneralError
}

// exitCodeForCall maps a failed generator call to an exit code.
func exitCodeForCall(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case isTimeout(err):
		return ExitTimeoutError
	case errors.Is(err, context.Canceled):
		return ExitGeneralError
	default:
		return ExitNetworkError
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
