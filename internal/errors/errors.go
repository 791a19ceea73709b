// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured error handling for the graphload CLI.
//
// This package defines UserError, a type that carries structured error information
// including what went wrong, why it happened, and how to fix it. It also defines
// consistent exit codes for different error categories.
//
// # Usage Example
//
//	err := errors.NewNetworkError(
//	    "Cannot reach the engine",
//	    "GET https://engine:4443/v1/version: connection refused",
//	    "Check the --url value or start graphload-engine",
//	    underlyingErr,
//	)
//	return errors.Exit(stderr, err, false)
//
// # Formatted Output
//
// The Format() method provides colored terminal output:
//
//	// Error: Cannot reach the engine
//	// Cause: GET https://engine:4443/v1/version: connection refused
//	// Fix:   Check the --url value or start graphload-engine
//
// # Exit Codes
//
//   - ExitSuccess (0): Successful execution
//   - ExitConfig (1): Configuration errors (bad optsfile, alias file)
//   - ExitIO (2): Local file errors (input, log file)
//   - ExitNetwork (3): Engine unreachable or connection lost
//   - ExitInput (4): Invalid user input (bad arguments, bad view)
//   - ExitNotFound (6): Resource not found (script, alias)
//   - ExitVersion (7): Engine version outside the supported range
//   - ExitEngine (8): The engine refused the request
//   - ExitInternal (10): Internal errors (bugs, panics)
package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitConfig indicates configuration errors (unreadable or malformed files).
	ExitConfig = 1

	// ExitIO indicates local file errors while reading input or writing the log.
	ExitIO = 2

	// ExitNetwork indicates the engine could not be reached or the stream broke.
	ExitNetwork = 3

	// ExitInput indicates invalid user input (bad arguments, validation errors).
	ExitInput = 4

	// ExitNotFound indicates resource not found errors (script, alias, etc.).
	ExitNotFound = 6

	// ExitVersion indicates the engine reported an unsupported version.
	ExitVersion = 7

	// ExitEngine indicates the engine rejected the script or its options.
	ExitEngine = 8

	// ExitInternal indicates internal errors (bugs, unexpected panics).
	// Exit code 10 signals "this is a bug that should be reported".
	ExitInternal = 10
)

// UserError represents an error with structured context for end users.
//
// It provides three levels of information:
//   - Message: What went wrong (user-facing error description)
//   - Cause: Why it happened (diagnostic information)
//   - Fix: How to fix it (actionable suggestion)
type UserError struct {
	// Message describes what went wrong in user-friendly language.
	Message string

	// Cause explains why the error occurred (diagnostic information).
	Cause string

	// Fix provides an actionable suggestion on how to resolve the error.
	Fix string

	// ExitCode is the exit code that should be used when exiting due to this error.
	ExitCode int

	// Err is the underlying error that caused this error (optional).
	Err error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *UserError) Unwrap() error {
	return e.Err
}

func newError(code int, msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: code, Err: err}
}

// NewConfigError creates a configuration error with exit code ExitConfig.
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return newError(ExitConfig, msg, cause, fix, err)
}

// NewIOError creates a local file error with exit code ExitIO.
func NewIOError(msg, cause, fix string, err error) *UserError {
	return newError(ExitIO, msg, cause, fix, err)
}

// NewNetworkError creates a network error with exit code ExitNetwork.
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return newError(ExitNetwork, msg, cause, fix, err)
}

// NewInputError creates an input validation error with exit code ExitInput.
// Input errors typically do not wrap an underlying error.
//
// Example:
//
//	return NewInputError(
//	    "View is not a guid 1234",
//	    "Views are identified by 32 lowercase hex characters",
//	    "Pass the view iden exactly as the engine reports it",
//	)
func NewInputError(msg, cause, fix string) *UserError {
	return newError(ExitInput, msg, cause, fix, nil)
}

// NewNotFoundError creates a resource not found error with exit code ExitNotFound.
func NewNotFoundError(msg, cause, fix string) *UserError {
	return newError(ExitNotFound, msg, cause, fix, nil)
}

// NewVersionError creates a version mismatch error with exit code ExitVersion.
func NewVersionError(msg, cause, fix string, err error) *UserError {
	return newError(ExitVersion, msg, cause, fix, err)
}

// NewEngineError creates an engine rejection error with exit code ExitEngine.
func NewEngineError(msg, cause, fix string, err error) *UserError {
	return newError(ExitEngine, msg, cause, fix, err)
}

// NewInternalError creates an internal error with exit code ExitInternal.
//
// Use this for unexpected errors that indicate bugs in the program.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return newError(ExitInternal, msg, cause, fix, err)
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display.
//
// Color output respects the NO_COLOR environment variable and can be
// explicitly disabled with the noColor parameter. Empty Cause or Fix
// fields are omitted.
//
// Note: This method temporarily modifies the global color.NoColor state
// and restores it after formatting.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// Exit writes err to w and returns the exit code the process should use.
// A nil error returns ExitSuccess and writes nothing. Errors that are not
// a *UserError are reported as internal errors.
func Exit(w io.Writer, err error, noColor bool) int {
	if err == nil {
		return ExitSuccess
	}

	if ue, ok := err.(*UserError); ok {
		fmt.Fprint(w, ue.Format(noColor))
		return ue.ExitCode
	}

	fmt.Fprintf(w, "Error: %v\n", err)
	return ExitInternal
}
