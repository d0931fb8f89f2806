// Package future provides the asynchronous value abstraction operations
// await (§4.3, §5 of the design): a generic, cancellable, completion
// notifiable handle on a result that may not be ready yet. It is
// intentionally minimal — this is not a general-purpose async
// framework, only the handful of primitives the replay driver needs to
// race a set of pending values and find out which one woke it up.
package future

import "sync"

// Awaiter is the untyped half of Future: the replay driver only needs
// readiness and completion notification, never the payload type, so
// PendingSet can hold a homogeneous collection of these regardless of
// what each Future[T] resolves to.
type Awaiter interface {
	// Ready reports whether the value has resolved, successfully or not.
	Ready() bool
	// OnComplete registers fn to run once the value resolves. If it has
	// already resolved, fn runs synchronously before OnComplete returns.
	// fn may be called more than once is never true: every Awaiter
	// fires its completion callbacks exactly once.
	OnComplete(fn func())
	// Cancel advises the producer that the result is no longer wanted.
	// Cancellation is best-effort: a Future that has already resolved,
	// or whose underlying work cannot be interrupted, silently ignores
	// it.
	Cancel()
}

// Future is an Awaiter that, once resolved, yields a typed result.
type Future[T any] interface {
	Awaiter
	// Result returns the resolved value and error. Calling it before
	// Ready reports true yields the zero value and a nil error; callers
	// must check Ready (or wait for OnComplete) first.
	Result() (T, error)
}

// promise is the shared implementation backing every constructor below.
type promise[T any] struct {
	mu        sync.Mutex
	done      bool
	value     T
	err       error
	callbacks []func()
	cancel    func()
}

func newPromise[T any]() *promise[T] {
	return &promise[T]{}
}

func (p *promise[T]) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *promise[T]) Result() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}

func (p *promise[T]) OnComplete(fn func()) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		fn()
		return
	}
	p.callbacks = append(p.callbacks, fn)
	p.mu.Unlock()
}

func (p *promise[T]) Cancel() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()
	if !done && cancel != nil {
		cancel()
	}
}

// resolve completes the promise exactly once; subsequent calls are
// no-ops, so a cancelled-then-completed race settles on whichever
// arrived first.
func (p *promise[T]) resolve(value T, err error) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	p.done = true
	p.value = value
	p.err = err
	callbacks := p.callbacks
	p.callbacks = nil
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

// Promise is a Future whose resolution is driven by an external
// caller rather than by one of the constructors below. The replay
// driver uses it to produce the Future it hands back from Run: the
// driver alone knows when the strand has truly finished, across
// however many attempts that takes.
type Promise[T any] struct {
	*promise[T]
}

// NewPromise returns an unresolved Promise. onCancel, if non-nil, is
// invoked each time Cancel is called before the promise resolves.
func NewPromise[T any](onCancel func()) *Promise[T] {
	p := newPromise[T]()
	p.cancel = onCancel
	return &Promise[T]{promise: p}
}

// Resolve completes the promise with (value, err). Only the first
// call has any effect.
func (p *Promise[T]) Resolve(value T, err error) {
	p.resolve(value, err)
}

// Go starts fn on a new goroutine and returns a Future that resolves
// with its result. Cancel has no effect: Go offers no cooperative
// cancellation hook into fn, matching the advisory nature of Cancel
// documented on Awaiter.
func Go[T any](fn func() (T, error)) Future[T] {
	p := newPromise[T]()
	go func() {
		v, err := fn()
		p.resolve(v, err)
	}()
	return p
}

// Completed returns a Future that is already resolved with value.
func Completed[T any](value T) Future[T] {
	p := newPromise[T]()
	p.done = true
	p.value = value
	return p
}

// Failed returns a Future that is already resolved with err.
func Failed[T any](err error) Future[T] {
	p := newPromise[T]()
	p.done = true
	p.err = err
	return p
}

// Immediate returns an always-ready Future[struct{}]{} used purely as a
// wakeup signal: the operation facade (package op) registers it in a
// strand's pending set on a retry-eligible failure, so the driver
// re-attempts immediately without special-casing the
// "nothing is actually pending" branch (§7, retry-on-error policy).
func Immediate() Future[struct{}] {
	return Completed(struct{}{})
}

// After wraps an already-produced (value, err) pair coming from a
// channel-based or callback-based source; ch is read exactly once.
func After[T any](ch <-chan Result[T]) Future[T] {
	p := newPromise[T]()
	go func() {
		r := <-ch
		p.resolve(r.Value, r.Err)
	}()
	return p
}

// Result pairs a value and error for use with After.
type Result[T any] struct {
	Value T
	Err   error
}
