package hostabi

import (
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/jsonabi/engine"
	"github.com/wippyai/jsonabi/errors"
)

// fakeMemory is a fixed-size guest memory.
type fakeMemory struct {
	data []byte
}

func (m *fakeMemory) check(off, n uint32) error {
	if uint64(off)+uint64(n) > uint64(len(m.data)) {
		return fmt.Errorf("out of bounds: %d+%d", off, n)
	}
	return nil
}

func (m *fakeMemory) Read(off, n uint32) ([]byte, error) {
	if err := m.check(off, n); err != nil {
		return nil, err
	}
	return m.data[off : off+n], nil
}

func (m *fakeMemory) Write(off uint32, p []byte) error {
	if err := m.check(off, uint32(len(p))); err != nil {
		return err
	}
	copy(m.data[off:], p)
	return nil
}

func (m *fakeMemory) ReadU32(off uint32) (uint32, error) {
	b, err := m.Read(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *fakeMemory) ReadU64(off uint32) (uint64, error) {
	b, err := m.Read(off, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *fakeMemory) WriteU32(off, v uint32) error {
	return m.Write(off, binary.LittleEndian.AppendUint32(nil, v))
}

func (m *fakeMemory) WriteU64(off uint32, v uint64) error {
	return m.Write(off, binary.LittleEndian.AppendUint64(nil, v))
}

// fakeAllocator bumps from next and records frees.
type fakeAllocator struct {
	next  uint32
	limit uint32
	freed map[uint32]uint32
}

func (a *fakeAllocator) Alloc(size, align uint32) (uint32, error) {
	p := (a.next + align - 1) &^ (align - 1)
	if p+size > a.limit {
		return 0, fmt.Errorf("out of guest memory")
	}
	a.next = p + size
	return p, nil
}

func (a *fakeAllocator) Free(ptr, size, _ uint32) error {
	if a.freed == nil {
		a.freed = make(map[uint32]uint32)
	}
	a.freed[ptr] = size
	return nil
}

func newFakeGuest(size uint32) (guest, *fakeMemory, *fakeAllocator) {
	mem := &fakeMemory{data: make([]byte, size)}
	alloc := &fakeAllocator{next: 1024, limit: size}
	return guest{mem: mem, alloc: alloc, led: newLedger(), name: "fake"}, mem, alloc
}

func readString(t *testing.T, mem *fakeMemory, buf, n uint32) string {
	t.Helper()
	b, err := mem.Read(buf, n+1)
	if err != nil {
		t.Fatal(err)
	}
	if b[n] != 0 {
		t.Errorf("string at %d not nul terminated", buf)
	}
	return string(b[:n])
}

func TestHost_DeserializeSerialize(t *testing.T) {
	h := New(nil)
	defer h.Close()
	g, mem, alloc := newFakeGuest(4096)

	input := `{"a": 1, "b": [2, 3]}`
	mem.Write(100, []byte(input))

	h.deserialize(g, 100, uint32(len(input)), 0, 16)
	v, _ := mem.ReadU64(16)
	errBuf, _ := mem.ReadU32(24)
	if v == 0 || errBuf != 0 {
		t.Fatalf("value = %d, err.buf = %d", v, errBuf)
	}
	if !g.led.ownsValue(engine.ValueHandle(v)) {
		t.Error("value not recorded in ledger")
	}

	h.serialize(g, engine.ValueHandle(v), uint64(engine.SerializePretty), 32)
	jsonBuf, _ := mem.ReadU32(32)
	jsonLen, _ := mem.ReadU32(36)
	errBuf, _ = mem.ReadU32(40)
	if errBuf != 0 {
		t.Fatalf("serialize failed")
	}
	want := "{\n  \"a\": 1,\n  \"b\": [\n    2,\n    3\n  ]\n}"
	if got := readString(t, mem, jsonBuf, jsonLen); got != want {
		t.Errorf("json = %q, want %q", got, want)
	}
	if h.Engine().LiveStrings() != 0 {
		t.Error("host-side string not dropped after copy")
	}

	h.dropString(g, jsonBuf, jsonLen)
	if alloc.freed[jsonBuf] != jsonLen+1 {
		t.Errorf("freed = %v", alloc.freed)
	}
	h.dropValue(g.led, g.name, engine.ValueHandle(v))
	if h.Engine().LiveValues() != 0 {
		t.Error("value not dropped")
	}
}

func TestHost_DeserializeError(t *testing.T) {
	h := New(nil)
	defer h.Close()
	g, mem, _ := newFakeGuest(4096)

	input := "[1,\n 2,]"
	mem.Write(100, []byte(input))
	h.deserialize(g, 100, uint32(len(input)), 0, 16)

	v, _ := mem.ReadU64(16)
	errBuf, _ := mem.ReadU32(24)
	errLen, _ := mem.ReadU32(28)
	if v != 0 || errBuf == 0 {
		t.Fatalf("value = %d, err.buf = %d", v, errBuf)
	}
	msg := readString(t, mem, errBuf, errLen)
	if !strings.HasPrefix(msg, "[deserialize] syntax") || !strings.Contains(msg, "line 2") {
		t.Errorf("error = %q", msg)
	}
	if len(g.led.strings) != 1 {
		t.Errorf("ledger strings = %d", len(g.led.strings))
	}
}

func TestHost_Ownership(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := New(&Config{Logger: zap.New(core)})
	defer h.Close()
	owner, mem, _ := newFakeGuest(4096)
	other, otherMem, alloc := newFakeGuest(4096)

	mem.Write(100, []byte(`true`))
	h.deserialize(owner, 100, 4, 0, 16)
	v, _ := mem.ReadU64(16)

	// another guest can neither read nor release the value
	h.serialize(other, engine.ValueHandle(v), 0, 32)
	errBuf, _ := otherMem.ReadU32(40)
	errLen, _ := otherMem.ReadU32(44)
	if msg := readString(t, otherMem, errBuf, errLen); !strings.Contains(msg, "invalid_handle") {
		t.Errorf("error = %q", msg)
	}
	h.dropValue(other.led, other.name, engine.ValueHandle(v))
	if h.Engine().LiveValues() != 1 {
		t.Error("foreign drop released the value")
	}

	// unknown string and wrong length are refused
	h.dropString(other, 9999, 3)
	h.dropString(other, errBuf, errLen+1)
	if len(alloc.freed) != 0 {
		t.Errorf("refused drops freed memory: %v", alloc.freed)
	}

	if n := logs.Len(); n != 4 {
		t.Errorf("warnings = %d, want 4", n)
	}
}

func TestHost_OutOfBoundsTraps(t *testing.T) {
	h := New(nil)
	defer h.Close()
	g, _, alloc := newFakeGuest(256)
	alloc.next = 64

	tests := []struct {
		name string
		call func()
	}{
		{"input", func() { h.deserialize(g, 250, 10, 0, 16) }},
		{"ret area", func() { h.deserialize(g, 0, 0, 0, 252) }},
		{"serialize ret", func() { h.serialize(g, 12345, 0, 250) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected a trap")
				}
				err, ok := r.(error)
				if !ok {
					t.Fatalf("panic value %T", r)
				}
				if k := errors.KindOf(err); k != errors.KindOutOfBounds && k != errors.KindAllocation {
					t.Errorf("kind = %s", k)
				}
			}()
			tt.call()
		})
	}
}

func TestHost_SharedEngine(t *testing.T) {
	e := engine.New(nil)
	defer e.Close()
	h := New(&Config{Engine: e})

	g, mem, _ := newFakeGuest(4096)
	mem.Write(100, []byte(`[1]`))
	h.deserialize(g, 100, 3, 0, 16)
	h.deserialize(g, 100, 3, 0, 16)

	if e.LiveValues() != 2 {
		t.Fatalf("LiveValues = %d", e.LiveValues())
	}
	for v := range g.led.values {
		h.dropValue(g.led, g.name, v)
		break
	}
	if e.LiveValues() != 1 {
		t.Fatalf("LiveValues = %d", e.LiveValues())
	}

	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if e.LiveValues() != 1 {
		t.Error("Close of a host with a shared engine touched the engine")
	}
}
