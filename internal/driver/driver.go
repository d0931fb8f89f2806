// Package driver implements the replay attempt loop (§4.4, §5 of the
// design): run a closure against a strand's Context, and whenever it
// breaks out waiting on one or more futures, install a completion
// handler on each of them; the first handler to fire cancels the
// others and re-enters the closure from the top.
package driver

import (
	"sync/atomic"

	"github.com/roach88/tokamak/future"
	"github.com/roach88/tokamak/internal/breaksig"
	"github.com/roach88/tokamak/internal/tkerr"
	"github.com/roach88/tokamak/strand"
)

// Run drives fn to completion across as many replay attempts as it
// takes, returning a Future that resolves once fn returns without
// hitting breaksig.Signal: with fn's result, or with a
// DeterminismError if that attempt left some of the prior attempt's
// recorded operations unreplayed. An attempt that breaks with no
// pending futures resolves it with an IllegalStateError.
func Run[T any](rc *strand.Context, fn func() (T, error)) future.Future[T] {
	out := future.NewPromise[T](nil)
	attempt(rc, fn, out)
	return out
}

// attempt runs one replay pass of fn with rc bound as the ambient
// strand Context. It first rolls the strand's Trace back to the
// beginning — cursor to zero, committed records kept — so this
// attempt replays against exactly what the previous attempt recorded,
// rather than appending past it; on the very first attempt this is a
// no-op against an empty Trace. If fn completes (with or without an
// error that isn't the break signal), attempt checks for an early
// return before resolving out; if fn broke out on a pending await,
// attempt installs a wakeup and returns without resolving anything yet.
func attempt[T any](rc *strand.Context, fn func() (T, error), out *future.Promise[T]) {
	rc.Rollback()

	var (
		value T
		err   error
	)

	strand.Bind(rc, func() {
		value, err = fn()
	})

	if breaksig.Is(err) {
		installWakeup(rc, fn, out)
		return
	}

	if derr := rc.Trace().EarlyReturnError(); derr != nil {
		out.Resolve(value, derr)
		return
	}

	out.Resolve(value, err)
}

// installWakeup races every future the just-finished attempt
// registered as pending. The first one to complete re-enters attempt
// once, with rc rebound as the ambient Context for that re-entry; the
// rest are cancelled, since only one retry is needed per break.
func installWakeup[T any](rc *strand.Context, fn func() (T, error), out *future.Promise[T]) {
	pending := rc.Pending().Snapshot()
	if len(pending) == 0 {
		out.Resolve(*new(T), tkerr.NewIllegalState(
			"driver: attempt broke out of replay with no pending futures registered"))
		return
	}

	var claimed atomic.Bool

	for _, awaiter := range pending {
		a := awaiter
		a.OnComplete(func() {
			if !claimed.CompareAndSwap(false, true) {
				return
			}

			for _, other := range pending {
				if other != a {
					other.Cancel()
				}
			}

			attempt(rc, fn, out)
		})
	}
}
