package main

import (
	"testing"

	"github.com/wippyai/jsonabi/errors"
)

func TestLedger(t *testing.T) {
	l := newLedger(0)
	l.add(0x1000, 3)
	l.add(0x2000, 0)
	if l.len() != 2 || l.bytes != 5 {
		t.Fatalf("len = %d bytes = %d", l.len(), l.bytes)
	}

	tests := []struct {
		name string
		addr uintptr
		n    uintptr
		kind errors.Kind
	}{
		{"wrong length", 0x1000, 2, errors.KindInvalidHandle},
		{"unknown", 0x3000, 0, errors.KindInvalidHandle},
		{"exact", 0x1000, 3, ""},
		{"twice", 0x1000, 3, errors.KindInvalidHandle},
		{"empty string", 0x2000, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.take(tt.addr, tt.n)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("take: %v", err)
				}
				return
			}
			if errors.KindOf(err) != tt.kind {
				t.Fatalf("err = %v, want kind %s", err, tt.kind)
			}
		})
	}
	if l.len() != 0 || l.bytes != 0 {
		t.Errorf("after drops len = %d bytes = %d", l.len(), l.bytes)
	}
}

func TestLedger_Limit(t *testing.T) {
	l := newLedger(8)
	if err := l.reserve(5); err != nil {
		t.Fatal(err)
	}
	l.add(0x10, 4)
	if err := l.reserve(4); errors.KindOf(err) != errors.KindAllocation {
		t.Fatalf("over-limit reserve err = %v", err)
	}
	if err := l.take(0x10, 4); err != nil {
		t.Fatal(err)
	}
	if err := l.reserve(8); err != nil {
		t.Errorf("reserve after take: %v", err)
	}
}
