// Package strand holds the per-execution-strand state a replayed
// closure runs against: its Trace and the set of futures its last
// attempt is waiting on (§4.3, §4.4 of the design). "Strand" names an
// independent line of replay, as distinguished from a goroutine: a
// strand's Context is pinned to whichever goroutine is currently
// driving it, but the same pool slot is reused across attempts rather
// than rebuilt, matching the documented property that re-running a
// strand resets its Context instead of allocating a fresh one.
package strand

import (
	"sync"

	"github.com/roach88/tokamak/future"
	"github.com/roach88/tokamak/internal/gls"
	"github.com/roach88/tokamak/trace"
)

// Context is the ambient state bound to one strand for the duration of
// an attempt. It is not safe for concurrent use from more than one
// goroutine at a time; ownership passes from the driver's goroutine to
// whichever goroutine races a completion callback, one at a time.
type Context struct {
	mu      sync.Mutex
	trace   *trace.Trace
	pending *PendingSet
}

// New returns a Context with a fresh Trace and empty PendingSet.
func New() *Context {
	return &Context{
		trace:   trace.New(),
		pending: newPendingSet(),
	}
}

// Trace returns the strand's call record.
func (c *Context) Trace() *trace.Trace {
	return c.trace
}

// Pending returns the strand's set of futures the last attempt parked
// on.
func (c *Context) Pending() *PendingSet {
	return c.pending
}

// reset prepares the Context for an entirely new strand: the Trace's
// committed records are discarded along with the cursor, and the
// pending set is cleared, so a pooled Context reused by Acquire for an
// unrelated Run call doesn't inherit stale records or memo bleed from
// whatever strand last ran on this goroutine.
func (c *Context) reset() {
	c.trace.Reset()
	c.pending.clear()
}

// Rollback prepares the Context for the next replay attempt of the
// *same* strand: the Trace's cursor is rewound to the beginning without
// discarding its committed records — those are exactly what the new
// attempt must replay against — and the pending set is cleared, since
// the new attempt will repopulate it with whatever it awaits this time.
// The driver calls this once at the top of every attempt, including the
// first, where it is a no-op against an empty Trace and PendingSet.
func (c *Context) Rollback() {
	c.trace.Rollback()
	c.pending.clear()
}

// PendingSet is the collection of Awaiters the most recent attempt
// registered interest in before breaking out. The driver installs a
// completion callback on each member and reacts only to whichever
// resolves first.
type PendingSet struct {
	mu    sync.Mutex
	items []future.Awaiter
}

func newPendingSet() *PendingSet {
	return &PendingSet{}
}

// Add registers a, to be raced against the rest of the set once the
// current attempt breaks out.
func (p *PendingSet) Add(a future.Awaiter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, a)
}

// Snapshot returns the Awaiters registered so far, safe to range over
// without holding the set's lock.
func (p *PendingSet) Snapshot() []future.Awaiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]future.Awaiter, len(p.items))
	copy(out, p.items)
	return out
}

// Empty reports whether nothing has been registered.
func (p *PendingSet) Empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items) == 0
}

func (p *PendingSet) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = nil
}

// pool holds the one Context reused across every attempt of the
// strand currently running on a given goroutine. active is a separate
// slot: it is bound only for the synchronous extent of Bind, so that
// Current can distinguish "no strand is running here" from "a strand
// is running, and this is its state" even while pool's entry persists
// between attempts.
var pool = gls.NewSlot()
var active = gls.NewSlot()

// Acquire returns the Context pooled for the calling goroutine,
// creating one on first use. Subsequent calls on the same goroutine
// return the same instance, reset for a new strand (records and
// pending set discarded) rather than replaced — callers that need a
// brand new Context instance should
// discard the goroutine (the pool is keyed per goroutine, not
// globally) or call Release first.
func Acquire() *Context {
	if v, ok := pool.Get(); ok {
		rc := v.(*Context)
		rc.reset()
		return rc
	}
	rc := New()
	pool.Set(rc)
	return rc
}

// Release drops the calling goroutine's pooled Context, so the next
// Acquire starts a genuinely new strand.
func Release() {
	pool.Clear()
}

// Current returns the Context bound for the extent of the innermost
// Bind call on the calling goroutine, if any. Operation code calls
// this to find the ambient strand it is running under; it is not
// itself the pool — a goroutine can be between attempts (pooled, but
// not bound) and Current correctly reports false in that window.
func Current() (*Context, bool) {
	v, ok := active.Get()
	if !ok {
		return nil, false
	}
	return v.(*Context), true
}

// Bind installs rc as the ambient Context for the duration of fn, then
// restores whatever was previously bound (nil, for a top-level attempt;
// the enclosing strand's Context, for a nested re-entry). This is the
// save/install/restore pattern that stands in for goroutine-local
// rebinding across the synchronous portion of one attempt.
func Bind(rc *Context, fn func()) {
	prev, hadPrev := active.Get()
	active.Set(rc)
	defer func() {
		if hadPrev {
			active.Set(prev)
		} else {
			active.Clear()
		}
	}()
	fn()
}
