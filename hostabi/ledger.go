package hostabi

import "github.com/wippyai/jsonabi/engine"

// ledger records what one guest owns: value handles and the Owned-Strings
// carved out of its memory, keyed by address.
type ledger struct {
	strings map[uint32]uint32
	values  map[engine.ValueHandle]struct{}
}

func newLedger() *ledger {
	return &ledger{
		strings: make(map[uint32]uint32),
		values:  make(map[engine.ValueHandle]struct{}),
	}
}

func (l *ledger) addString(buf, n uint32) { l.strings[buf] = n }

// takeString removes buf if it was handed out with exactly n bytes.
func (l *ledger) takeString(buf, n uint32) bool {
	got, ok := l.strings[buf]
	if !ok || got != n {
		return false
	}
	delete(l.strings, buf)
	return true
}

func (l *ledger) addValue(h engine.ValueHandle) { l.values[h] = struct{}{} }

func (l *ledger) ownsValue(h engine.ValueHandle) bool {
	_, ok := l.values[h]
	return ok
}

func (l *ledger) takeValue(h engine.ValueHandle) bool {
	if !l.ownsValue(h) {
		return false
	}
	delete(l.values, h)
	return true
}
