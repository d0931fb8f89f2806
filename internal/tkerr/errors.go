// Package tkerr defines the error taxonomy shared across the runtime:
// programmer errors (IllegalStateError) and the user-visible replay
// contract violation (DeterminismError).
package tkerr

import (
	"errors"
	"fmt"
)

// IllegalStateError signals misuse of the API by the embedding program:
// a negative capture depth, missing source metadata, Await/Once used
// outside a Run invocation, or an attempt that breaks with no pending
// futures. Trace operations never return it; recording into a
// committed Trace is not rejected.
//
// These are programmer errors. They propagate synchronously to the
// caller and are never routed through the replay break/retry machinery.
type IllegalStateError struct {
	Message string
}

func (e *IllegalStateError) Error() string {
	return "tokamak: illegal state: " + e.Message
}

// NewIllegalState builds an IllegalStateError from a format string.
func NewIllegalState(format string, args ...any) *IllegalStateError {
	return &IllegalStateError{Message: fmt.Sprintf(format, args...)}
}

// IsIllegalState reports whether err is (or wraps) an IllegalStateError.
func IsIllegalState(err error) bool {
	var e *IllegalStateError
	return errors.As(err, &e)
}

// DeterminismError is raised when a replay attempt's call-site sequence
// diverges from the sequence observed on a prior attempt, or when an
// attempt returns before retracing the prior attempt's full operation
// sequence. It is the only error the replay driver surfaces to the
// user as a result of trace bookkeeping (as opposed to the closure's
// own errors).
type DeterminismError struct {
	Message string
}

func (e *DeterminismError) Error() string {
	return e.Message
}

// NewDeterminismError wraps a pre-rendered diagnostic body (built by
// internal/diagfmt, which owns the exact wording and ordering) into a
// DeterminismError.
func NewDeterminismError(body string) *DeterminismError {
	return &DeterminismError{Message: body}
}

// IsDeterminismError reports whether err is (or wraps) a DeterminismError.
func IsDeterminismError(err error) bool {
	var e *DeterminismError
	return errors.As(err, &e)
}
