// Package tokamak implements a deterministic-replay coroutine model:
// a closure is re-run from the top on every attempt, and each await or
// once call site is memoized against an ordered trace so that only the
// newly reached operations actually do work. See SPEC_FULL.md for the
// full design.
package tokamak

import (
	"github.com/roach88/tokamak/future"
	"github.com/roach88/tokamak/internal/driver"
	"github.com/roach88/tokamak/internal/tkerr"
	"github.com/roach88/tokamak/op"
	"github.com/roach88/tokamak/strand"
)

// DeterminismError reports that a closure's replay diverged from a
// prior attempt: a different call site at the same position, or an
// early return before the prior attempt's operations were exhausted.
type DeterminismError = tkerr.DeterminismError

// IllegalStateError reports caller misuse unrelated to determinism,
// such as a negative frame depth.
type IllegalStateError = tkerr.IllegalStateError

// IsDeterminismError reports whether err is or wraps a DeterminismError.
func IsDeterminismError(err error) bool { return tkerr.IsDeterminismError(err) }

// IsIllegalStateError reports whether err is or wraps an IllegalStateError.
func IsIllegalStateError(err error) bool { return tkerr.IsIllegalState(err) }

// Run starts a new strand for fn, acquiring the calling goroutine's
// pooled Context. It returns immediately with a Future that resolves
// once fn completes — which may take several replay attempts as the
// futures it awaits resolve one at a time.
func Run[T any](fn func() (T, error)) future.Future[T] {
	rc := strand.Acquire()
	return driver.Run(rc, fn)
}

// Await resolves f against the ambient strand Context bound by the
// enclosing Run call. It must only be called from within a closure
// passed to Run.
func Await[T any](f future.Future[T]) (T, error) {
	rc := mustCurrent()
	return op.AwaitValue(op.Default, rc, f)
}

// AwaitWith is Await with an explicit retry Operation.
func AwaitWith[T any](o *op.Operation, f future.Future[T]) (T, error) {
	rc := mustCurrent()
	return op.AwaitValue(o, rc, f)
}

// Once runs fn exactly once across the whole replay of the enclosing
// strand, memoizing its result for every subsequent attempt.
func Once[T any](fn func() (T, error)) (T, error) {
	rc := mustCurrent()
	return op.PerformOnce(op.Default, rc, fn)
}

// OnceWith is Once with an explicit retry Operation.
func OnceWith[T any](o *op.Operation, fn func() (T, error)) (T, error) {
	rc := mustCurrent()
	return op.PerformOnce(o, rc, fn)
}

// OnceVoid is Once specialized to side effects that return only an error.
func OnceVoid(fn func() error) error {
	rc := mustCurrent()
	return op.PerformOnceVoid(op.Default, rc, fn)
}

// OnceVoidWith is OnceVoid with an explicit retry Operation.
func OnceVoidWith(o *op.Operation, fn func() error) error {
	rc := mustCurrent()
	return op.PerformOnceVoid(o, rc, fn)
}

// NewOperationBuilder returns a Builder for a custom retry Operation,
// for use with AwaitWith/OnceWith/OnceVoidWith.
func NewOperationBuilder() *op.Builder {
	return op.NewBuilder()
}

func mustCurrent() *strand.Context {
	rc, ok := strand.Current()
	if !ok {
		panic(tkerr.NewIllegalState(
			"tokamak: Await/Once called outside of a Run closure"))
	}
	return rc
}
