// Package op implements the operation facade: await_value and
// perform_once (§4.5, §7 of the design), generalized over a retry
// policy. Go does not allow generic methods, so these are free
// functions parameterized over the result type rather than methods on
// Operation.
package op

import (
	"github.com/roach88/tokamak/future"
	"github.com/roach88/tokamak/internal/breaksig"
	"github.com/roach88/tokamak/strand"
	"github.com/roach88/tokamak/trace"
)

// userFrameSkip is the number of internal frames between a user
// closure's call site and the call to Trace.Record: the public
// tokamak.Await/tokamak.Once wrapper, and this package's AwaitValue/
// PerformOnce function itself. It is a constant because every entry
// point goes through exactly those two frames before reaching Record.
const userFrameSkip = 2

// Policy controls whether a failed operation is retried in place (its
// memo cleared and the attempt re-run immediately) or memoized as a
// permanent failure returned to the caller.
type Policy struct {
	retryOn func(error) bool
}

func (p Policy) shouldRetry(err error) bool {
	return err != nil && p.retryOn != nil && p.retryOn(err)
}

// Operation bundles a Policy for use at one or more call sites.
type Operation struct {
	policy Policy
}

// Builder constructs an Operation with a fluent, functional-options-style
// API.
type Builder struct {
	policy Policy
}

// NewBuilder returns a Builder for an Operation that, by default,
// never retries: any error is memoized and returned to the caller.
func NewBuilder() *Builder {
	return &Builder{}
}

// RetryOn registers a predicate: errors it accepts cause the operation
// to be re-attempted rather than memoized as final.
func (b *Builder) RetryOn(pred func(error) bool) *Builder {
	b.policy.retryOn = pred
	return b
}

// Build finalizes the Operation.
func (b *Builder) Build() *Operation {
	return &Operation{policy: b.policy}
}

// Default is the no-retry Operation used by the package-level
// tokamak.Await/tokamak.Once helpers that don't need a custom policy.
var Default = NewBuilder().Build()

// AwaitValue resolves f against the strand's trace at the caller's
// call site. On first reaching this call site, if f is already
// resolved its outcome is memoized and returned directly; if not, f is
// kept in the record, registered in rc's pending set, and
// breaksig.Signal is returned to unwind the attempt. A later attempt
// that reaches a record still holding a pending future checks that
// stored future rather than the f it was passed, so a closure that
// builds a fresh future on every attempt still makes progress. On
// replay, a memoized outcome is returned
// without re-touching f at all — the whole point of the trace is that
// f need not even be recreated identically, only the call site must
// match.
func AwaitValue[T any](o *Operation, rc *strand.Context, f future.Future[T]) (T, error) {
	var zero T

	rec, err := rc.Trace().Record(userFrameSkip)
	if err != nil {
		return zero, err
	}

	if rec.Kind == trace.Payload {
		v, _ := rec.Value.(T)
		return v, rec.Err
	}

	if rec.Kind == trace.Pending {
		if prior, ok := rec.Value.(future.Future[T]); ok {
			f = prior
		}
	}

	if !f.Ready() {
		rec.Kind = trace.Pending
		rec.Value = f
		rc.Pending().Add(f)
		return zero, breaksig.Signal
	}

	v, ferr := f.Result()
	if o.policy.shouldRetry(ferr) {
		rec.Kind = trace.Unset
		rec.Value = nil
		rec.Err = nil
		rc.Pending().Add(future.Immediate())
		return zero, breaksig.Signal
	}

	rec.Kind = trace.Payload
	rec.Value = v
	rec.Err = ferr
	return v, ferr
}

// PerformOnce runs fn exactly once per logical call site across the
// whole replay, memoizing its (value, error) result so later attempts
// see the same outcome without re-running fn. Unlike AwaitValue, fn is
// synchronous: there is nothing to wait on, so the only way this call
// site breaks an attempt is a retry-eligible error.
func PerformOnce[T any](o *Operation, rc *strand.Context, fn func() (T, error)) (T, error) {
	var zero T

	rec, err := rc.Trace().Record(userFrameSkip)
	if err != nil {
		return zero, err
	}

	if rec.Kind == trace.Payload {
		v, _ := rec.Value.(T)
		return v, rec.Err
	}

	v, ferr := fn()
	if o.policy.shouldRetry(ferr) {
		rec.Kind = trace.Unset
		rec.Value = nil
		rec.Err = nil
		rc.Pending().Add(future.Immediate())
		return zero, breaksig.Signal
	}

	rec.Kind = trace.Payload
	rec.Value = v
	rec.Err = ferr
	return v, ferr
}

// PerformOnceVoid is PerformOnce specialized to side-effecting
// operations that return only an error. It does not delegate to
// PerformOnce, so that it sits at the same frame depth below the
// user's call site as every other entry point (userFrameSkip assumes
// exactly two internal frames regardless of which facade function is
// used).
func PerformOnceVoid(o *Operation, rc *strand.Context, fn func() error) error {
	rec, err := rc.Trace().Record(userFrameSkip)
	if err != nil {
		return err
	}

	if rec.Kind == trace.Payload {
		return rec.Err
	}

	ferr := fn()
	if o.policy.shouldRetry(ferr) {
		rec.Kind = trace.Unset
		rec.Value = nil
		rec.Err = nil
		rc.Pending().Add(future.Immediate())
		return breaksig.Signal
	}

	rec.Kind = trace.Payload
	rec.Err = ferr
	return ferr
}
