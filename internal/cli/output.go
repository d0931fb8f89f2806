// Package cli renders tokamak command results and errors in either
// plain text or a JSON envelope, and maps failures to the process exit
// code a calling shell or CI step checks.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for tokamak subcommands.
const (
	ExitSuccess      = 0 // strand completed and, for replay, verified deterministic
	ExitFailure      = 1 // strand failed, or replay found a determinism error
	ExitCommandError = 2 // the command itself couldn't run (bad path, database open failure, ...)
)

// ExitError pairs an error with the process exit code it should produce,
// so a subcommand's RunE can return a plain error while main still maps
// it to the right code via GetExitCode.
type ExitError struct {
	Code    int
	Message string
	Err     error // underlying cause, if any
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError builds an ExitError with no underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError builds an ExitError wrapping err as its cause.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode unwraps err looking for an ExitError and returns its
// code, or ExitFailure if err doesn't carry one.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders a subcommand's result as either a line of
// text or a StrandResponse JSON envelope, depending on the --format
// flag every tokamak subcommand shares.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose/diagnostic output; defaults to Writer
	Verbose   bool
}

// StrandResponse is the JSON envelope every tokamak subcommand's
// --format json output is wrapped in, whether the payload is a run
// result, a replay summary, or a trace timeline.
type StrandResponse struct {
	Status string       `json:"status"` // "ok" or "error"
	Data   interface{}  `json:"data,omitempty"`
	Error  *StrandError `json:"error,omitempty"`
}

// StrandError is the error shape nested in a StrandResponse: a stable
// code (e.g. "E_SCENARIO", "E_DETERMINISM") a caller can branch on,
// plus a human-readable message and optional detail payload.
type StrandError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success writes data as the payload of a successful result: a
// StrandResponse envelope in JSON mode, or just the value's default
// text representation otherwise.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(StrandResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes a failed result: a StrandResponse with its Error field
// populated in JSON mode, or a "code: message" line otherwise, with
// details appended only when Verbose is set.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(StrandResponse{
			Status: "error",
			Error: &StrandError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog writes a diagnostic line — e.g. per-attempt replay
// progress — when Verbose is set, and is silent otherwise. It always
// targets GetErrWriter, so a verbose run in --format json doesn't
// interleave log lines into the StrandResponse stream on Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer, so callers
// writing diagnostics don't need to duplicate the fallback themselves.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
