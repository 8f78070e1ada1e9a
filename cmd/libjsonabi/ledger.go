package main

import (
	"sync"

	"github.com/wippyai/jsonabi/errors"
)

// ledger tracks C heap blocks handed to the caller by address and length.
type ledger struct {
	live  map[uintptr]uintptr
	mu    sync.Mutex
	bytes uintptr
	limit uintptr
}

func newLedger(limit uintptr) *ledger {
	return &ledger{live: make(map[uintptr]uintptr), limit: limit}
}

// reserve checks that size more bytes fit under the limit.
func (l *ledger) reserve(size uintptr) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.limit > 0 && l.bytes+size > l.limit {
		return errors.AllocationFailed(errors.PhaseAlloc, int(size))
	}
	return nil
}

func (l *ledger) add(addr, n uintptr) {
	l.mu.Lock()
	l.live[addr] = n
	l.bytes += n + 1
	l.mu.Unlock()
}

// take forgets addr if it was recorded with length n.
func (l *ledger) take(addr, n uintptr) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	got, ok := l.live[addr]
	if !ok || got != n {
		return errors.InvalidHandle(errors.PhaseDrop, "string", addr)
	}
	delete(l.live, addr)
	l.bytes -= n + 1
	return nil
}

func (l *ledger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live)
}
