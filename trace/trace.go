// Package trace implements the ordered record of every await/once
// operation a replayed closure has issued so far (§4.2 of the design).
// A Trace is replayed from the beginning on each attempt; Record
// advances a cursor through the previously committed entries,
// detecting the two ways an attempt can diverge from its predecessor:
// executing a different call site at the same position (Mismatch), or
// returning before the prior attempt's entries are exhausted
// (EarlyReturn, checked by the driver via Remaining).
package trace

import (
	"github.com/roach88/tokamak/callsite"
	"github.com/roach88/tokamak/internal/diagfmt"
	"github.com/roach88/tokamak/internal/tkerr"
)

// MemoKind distinguishes what, if anything, a Record has resolved to.
type MemoKind int

const (
	// Unset means the operation has not yet resolved on any attempt
	// seen so far (including a retry-eligible failure that was
	// deliberately cleared back to Unset).
	Unset MemoKind = iota
	// Payload means the operation resolved to a concrete value or
	// error, memoized verbatim for replay.
	Payload
	// Pending means the operation is still awaiting a future that has
	// not completed; Value holds that future so the next attempt checks
	// the same one again.
	Pending
)

// Record is one entry in a Trace: the call site the operation was
// issued from, plus whatever has been memoized about its outcome.
type Record struct {
	Site    callsite.CallSite
	Kind    MemoKind
	Value   any
	Err     error
}

// Trace is the append-and-replay log for a single logical strand of
// execution (§4.2, §4.4). It is not safe for concurrent use; callers
// synchronize access via the owning strand Context.
type Trace struct {
	records   []Record
	cursor    int
	committed bool
}

// New returns an empty, uncommitted Trace.
func New() *Trace {
	return &Trace{}
}

// Len reports how many records have been committed so far.
func (t *Trace) Len() int {
	return len(t.records)
}

// Committed reports whether the current attempt has finished replaying
// every previously committed record and is now free to append new
// ones without an equality check.
func (t *Trace) Committed() bool {
	return t.committed
}

// Rollback rewinds the cursor to the beginning for a fresh replay
// attempt, without discarding the committed records — those are what
// the new attempt must replay against. This is the operation the
// driver invokes on every re-entry after a break, as distinct from
// Reset, which discards the records entirely for a brand new strand.
func (t *Trace) Rollback() {
	t.cursor = 0
	t.committed = t.cursor >= len(t.records)
}

// Reset discards every committed record along with the cursor,
// returning the Trace to the same state New() would produce. Used when
// a pooled strand Context is reused for an unrelated invocation, so
// that invocation doesn't replay against another strand's records.
func (t *Trace) Reset() {
	t.records = nil
	t.cursor = 0
	t.committed = false
}

// Record advances the trace by one operation captured skip frames above
// its caller. If the cursor has not yet reached the end of the
// previously committed records, the newly captured site must match the
// one recorded there; a mismatch is a determinism violation. Once the
// cursor reaches the end, new records are appended.
//
// Returns the Record so the caller can inspect or update its memo.
func (t *Trace) Record(skip int) (*Record, error) {
	site, err := callsite.Capture(skip + 1)
	if err != nil {
		return nil, err
	}

	if t.cursor < len(t.records) {
		existing := &t.records[t.cursor]
		if !existing.Site.Equal(site) {
			body := diagfmt.Mismatch(t.cursor, site, t.sitesFrom(t.cursor))
			return nil, tkerr.NewDeterminismError(body)
		}
		t.cursor++
		if t.cursor >= len(t.records) {
			t.committed = true
		}
		return existing, nil
	}

	t.records = append(t.records, Record{Site: site, Kind: Unset})
	t.cursor++
	t.committed = true
	return &t.records[len(t.records)-1], nil
}

// Remaining returns the call sites, if any, that the prior attempt
// recorded beyond the current cursor. A non-empty result after the
// closure has returned or completed indicates an early return: the
// attempt gave up before reaching operations it previously reached.
func (t *Trace) Remaining() []callsite.CallSite {
	return t.sitesFrom(t.cursor)
}

// sitesFrom returns the call sites of every record from index to the
// end, or nil if index is already at or past the end.
func (t *Trace) sitesFrom(index int) []callsite.CallSite {
	if index >= len(t.records) {
		return nil
	}
	out := make([]callsite.CallSite, 0, len(t.records)-index)
	for _, r := range t.records[index:] {
		out = append(out, r.Site)
	}
	return out
}

// EarlyReturnError builds the DeterminismError for the case described
// by Remaining, or returns nil if there is nothing remaining.
func (t *Trace) EarlyReturnError() error {
	remaining := t.Remaining()
	if len(remaining) == 0 {
		return nil
	}
	body := diagfmt.EarlyReturn(t.cursor, len(t.records), remaining)
	return tkerr.NewDeterminismError(body)
}

// ClearAt resets the memo of the record at index back to Unset, used
// when a retry-eligible failure must be re-attempted rather than
// permanently memoized (§7, retry policy).
func (t *Trace) ClearAt(index int) {
	if index < 0 || index >= len(t.records) {
		return
	}
	t.records[index].Kind = Unset
	t.records[index].Value = nil
	t.records[index].Err = nil
}

// At returns the record at index, if any.
func (t *Trace) At(index int) (*Record, bool) {
	if index < 0 || index >= len(t.records) {
		return nil, false
	}
	return &t.records[index], true
}
