// Package gls implements a minimal goroutine-local slot. It is the
// building block the strand package uses to bind exactly one tokamak
// Context per execution strand (§4.3, §5 of the design): Go has no
// native thread-local/goroutine-local storage, and none of the
// repository's third-party dependencies provide one, so this is a
// small self-contained implementation of the well-known technique of
// keying a map off the running goroutine's id (as parsed from its own
// stack dump header).
package gls

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// Slot is a map from goroutine id to an arbitrary bound value, guarded
// by a single mutex. Slots are cheap to create; one Slot instance
// services every goroutine in the process.
type Slot struct {
	mu   sync.RWMutex
	vals map[uint64]any
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{vals: make(map[uint64]any)}
}

// Get returns the value bound to the calling goroutine, if any.
func (s *Slot) Get() (any, bool) {
	id := goroutineID()
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vals[id]
	return v, ok
}

// Set binds v to the calling goroutine, replacing any prior binding.
func (s *Slot) Set(v any) {
	id := goroutineID()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[id] = v
}

// Clear removes any binding for the calling goroutine.
func (s *Slot) Clear() {
	id := goroutineID()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vals, id)
}

// goroutineID parses the numeric id out of the calling goroutine's own
// stack trace header ("goroutine 123 [running]: ..."). This is the
// standard trick for approximating goroutine-local storage; it costs a
// small stack capture on every Get, Set and Clear, including the
// strand.Current lookup each Await/Once call makes.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	const prefix = "goroutine "
	buf = bytes.TrimPrefix(buf, []byte(prefix))

	if idx := bytes.IndexByte(buf, ' '); idx >= 0 {
		buf = buf[:idx]
	}

	id, err := strconv.ParseUint(string(buf), 10, 64)
	if err != nil {
		// Should be unreachable on any supported Go runtime; fall back
		// to a fixed id rather than panicking from a diagnostics helper.
		return 0
	}
	return id
}
