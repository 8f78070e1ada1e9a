package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend[string]()

	handle, err := b.Create("test value")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := b.Get(handle)
	if !ok || val != "test value" {
		t.Fatalf("Get = %q, %v", val, ok)
	}

	val, err = b.Drop(handle)
	if err != nil || val != "test value" {
		t.Fatalf("Drop = %q, %v", val, err)
	}

	if _, ok = b.Get(handle); ok {
		t.Fatal("Expected Get to fail after Drop")
	}
}

func TestLocalBackend_StaleHandle(t *testing.T) {
	b := NewLocalBackend[string]()

	first, _ := b.Create("first")
	if _, err := b.Drop(first); err != nil {
		t.Fatal(err)
	}

	second, _ := b.Create("second")
	if second.Slot() != first.Slot() {
		t.Fatalf("slot should be reused: %v vs %v", first, second)
	}
	if second == first {
		t.Fatal("reused slot must carry a new generation")
	}

	if _, ok := b.Get(first); ok {
		t.Fatal("stale handle resolved to the new value")
	}
	if _, err := b.Drop(first); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("stale Drop err = %v, want ErrInvalidHandle", err)
	}
	if v, ok := b.Get(second); !ok || v != "second" {
		t.Fatalf("Get(second) = %q, %v", v, ok)
	}
}

func TestLocalBackend_InvalidHandles(t *testing.T) {
	b := NewLocalBackend[int]()
	b.Create(1)

	for _, h := range []Handle{0, MakeHandle(0, 1), MakeHandle(2, 1), MakeHandle(1, 2)} {
		if _, ok := b.Get(h); ok {
			t.Errorf("Get(%v) should fail", h)
		}
		if _, err := b.Drop(h); !errors.Is(err, ErrInvalidHandle) {
			t.Errorf("Drop(%v) err = %v", h, err)
		}
		if b.Borrow(h) {
			t.Errorf("Borrow(%v) should fail", h)
		}
	}
}

func TestLocalBackend_Borrows(t *testing.T) {
	b := NewLocalBackend[string]()
	h, _ := b.Create("v")

	if !b.Borrow(h) || !b.Borrow(h) {
		t.Fatal("Borrow failed")
	}
	if _, err := b.Drop(h); !errors.Is(err, ErrOutstandingBorrow) {
		t.Fatalf("Drop err = %v, want ErrOutstandingBorrow", err)
	}
	b.ReturnBorrow(h)
	if _, err := b.Drop(h); !errors.Is(err, ErrOutstandingBorrow) {
		t.Fatal("one borrow still outstanding")
	}
	b.ReturnBorrow(h)
	if b.ReturnBorrow(h) {
		t.Fatal("ReturnBorrow below zero should fail")
	}
	if _, err := b.Drop(h); err != nil {
		t.Fatalf("Drop: %v", err)
	}
}

func TestLocalBackend_EachAndLen(t *testing.T) {
	b := NewLocalBackend[int]()
	h1, _ := b.Create(1)
	b.Create(2)
	b.Create(3)
	b.Drop(h1)

	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}

	sum := 0
	b.Each(func(_ Handle, v int) bool {
		sum += v
		return true
	})
	if sum != 5 {
		t.Fatalf("sum = %d, want 5", sum)
	}

	visits := 0
	b.Each(func(Handle, int) bool {
		visits++
		return false
	})
	if visits != 1 {
		t.Fatalf("Each should stop early, visited %d", visits)
	}
}

func TestLocalBackend_Close(t *testing.T) {
	b := NewLocalBackend[string]()
	b.Create("a")

	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal("second Close should be a no-op")
	}
	if _, err := b.Create("b"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Create after Close err = %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("Len after Close = %d", b.Len())
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend[int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				h, err := b.Create(g*1000 + i)
				if err != nil {
					t.Error(err)
					return
				}
				if v, ok := b.Get(h); !ok || v != g*1000+i {
					t.Errorf("Get(%v) = %d, %v", h, v, ok)
					return
				}
				if _, err := b.Drop(h); err != nil {
					t.Error(err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if b.Len() != 0 {
		t.Fatalf("Len = %d after all drops", b.Len())
	}
}
