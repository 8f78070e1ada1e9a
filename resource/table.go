package resource

import (
	"sync"
)

// Table maps handles to values of one type and notifies observers about
// their lifecycle.
type Table[T any] struct {
	backend   Backend[T]
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a table backed by a LocalBackend.
func NewTable[T any]() *Table[T] {
	return NewTableWithBackend[T](NewLocalBackend[T]())
}

// NewTableWithBackend creates a table over an existing backend.
func NewTableWithBackend[T any](b Backend[T]) *Table[T] {
	return &Table[T]{backend: b}
}

// Insert adds a value and returns its handle, or 0 once the table is closed.
func (t *Table[T]) Insert(value T) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(value)
	if err != nil {
		return 0
	}

	t.notify(Event{Type: EventCreated, Handle: handle, Value: value})
	return handle
}

// Get retrieves a value by handle.
func (t *Table[T]) Get(handle Handle) (T, bool) {
	return t.backend.Get(handle)
}

// Remove drops a value and returns it.
func (t *Table[T]) Remove(handle Handle) (T, error) {
	value, err := t.backend.Drop(handle)
	if err != nil {
		return value, err
	}

	if d, ok := any(value).(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{Type: EventDropped, Handle: handle, Value: value})
	return value, nil
}

// Borrow pins a value so Remove refuses it until Release.
func (t *Table[T]) Borrow(handle Handle) (T, bool) {
	var zero T
	if !t.backend.Borrow(handle) {
		return zero, false
	}
	value, ok := t.backend.Get(handle)
	if !ok {
		t.backend.ReturnBorrow(handle)
		return zero, false
	}
	t.notify(Event{Type: EventBorrowed, Handle: handle, Value: value})
	return value, true
}

// Release returns a borrow taken with Borrow.
func (t *Table[T]) Release(handle Handle) bool {
	if !t.backend.ReturnBorrow(handle) {
		return false
	}
	t.notify(Event{Type: EventBorrowReturned, Handle: handle})
	return true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[T]) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table[T]) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live values.
func (t *Table[T]) Len() int {
	return t.backend.Len()
}

// Each iterates over live values.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.backend.Each(fn)
}

// Clear drops every value that is not borrowed and returns how many were
// dropped.
func (t *Table[T]) Clear() int {
	// Collect handles first to avoid holding the backend lock during Remove
	var handles []Handle
	t.backend.Each(func(h Handle, _ T) bool {
		handles = append(handles, h)
		return true
	})
	n := 0
	for _, h := range handles {
		if _, err := t.Remove(h); err == nil {
			n++
		}
	}
	return n
}

// Close releases all values and stops accepting inserts.
func (t *Table[T]) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.backend.Close()
}

func (t *Table[T]) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
