package resource

import (
	"errors"
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable[string]()

	h := table.Insert("test")
	if h.IsNull() {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := table.Get(h)
	if !ok || val != "test" {
		t.Fatalf("Get = %q, %v", val, ok)
	}

	val, err := table.Remove(h)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}

	if _, err := table.Remove(h); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("second Remove err = %v, want ErrInvalidHandle", err)
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable[string]()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Insert("test")
	if len(obs.events) != 1 || obs.events[0].Type != EventCreated || obs.events[0].Handle != h {
		t.Fatalf("unexpected events %+v", obs.events)
	}

	table.Borrow(h)
	table.Release(h)
	table.Remove(h)

	want := []EventType{EventCreated, EventBorrowed, EventBorrowReturned, EventDropped}
	if len(obs.events) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(obs.events))
	}
	for i, typ := range want {
		if obs.events[i].Type != typ {
			t.Errorf("event %d = %v, want %v", i, obs.events[i].Type, typ)
		}
	}

	table.Unsubscribe(obs)
	table.Insert("test2")
	if len(obs.events) != len(want) {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}

func TestTable_Borrow(t *testing.T) {
	table := NewTable[int]()
	h := table.Insert(7)

	v, ok := table.Borrow(h)
	if !ok || v != 7 {
		t.Fatalf("Borrow = %d, %v", v, ok)
	}

	if _, err := table.Remove(h); !errors.Is(err, ErrOutstandingBorrow) {
		t.Fatalf("Remove while borrowed err = %v, want ErrOutstandingBorrow", err)
	}

	if !table.Release(h) {
		t.Fatal("Release failed")
	}
	if table.Release(h) {
		t.Fatal("Release without borrow should fail")
	}
	if _, err := table.Remove(h); err != nil {
		t.Fatalf("Remove after Release: %v", err)
	}
	if _, ok := table.Borrow(h); ok {
		t.Fatal("Borrow of dropped handle should fail")
	}
}

func TestTable_Clear(t *testing.T) {
	table := NewTable[string]()

	table.Insert("a")
	pinned := table.Insert("b")
	table.Insert("c")
	table.Borrow(pinned)

	if n := table.Clear(); n != 2 {
		t.Fatalf("Clear dropped %d, want 2", n)
	}
	if table.Len() != 1 {
		t.Fatalf("borrowed value should survive Clear, Len = %d", table.Len())
	}

	table.Release(pinned)
	if n := table.Clear(); n != 1 || table.Len() != 0 {
		t.Fatalf("Clear dropped %d, Len = %d", n, table.Len())
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable[string]()

	table.Insert("a")
	table.Insert("b")

	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if h := table.Insert("c"); h != 0 {
		t.Fatal("Expected Insert to fail after Close")
	}
}

type dropCounter struct {
	count int
}

func (d *dropCounter) Drop() {
	d.count++
}

func TestTable_DropperInterface(t *testing.T) {
	table := NewTable[*dropCounter]()
	d := &dropCounter{}

	h := table.Insert(d)
	table.Remove(h)

	if d.count != 1 {
		t.Fatalf("Expected Drop() to be called once, called %d times", d.count)
	}

	leaked := &dropCounter{}
	table.Insert(leaked)
	table.Close()
	if leaked.count != 1 {
		t.Fatalf("Close should drop live values, called %d times", leaked.count)
	}
}

func TestHandle_Layout(t *testing.T) {
	h := MakeHandle(3, 9)
	if h.Slot() != 3 || h.Generation() != 9 {
		t.Fatalf("Slot/Generation = %d/%d", h.Slot(), h.Generation())
	}
	if uint64(h) != 9<<32|3 {
		t.Fatalf("raw = %#x", uint64(h))
	}
	if h.String() != "handle(3@9)" {
		t.Errorf("String = %q", h.String())
	}
	if Handle(0).String() != "handle(null)" || !Handle(0).IsNull() {
		t.Error("zero handle should be null")
	}
}
