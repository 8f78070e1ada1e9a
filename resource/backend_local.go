package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed            = errors.New("resource backend closed")
	ErrInvalidHandle     = errors.New("handle is not live")
	ErrOutstandingBorrow = errors.New("cannot drop value with outstanding borrows")
)

// LocalBackend is an in-memory backend with borrow tracking and
// generation-checked handles.
type LocalBackend[T any] struct {
	entries  []entry[T]
	freeList []uint32
	mu       sync.RWMutex
	live     int
	closed   bool
}

type entry[T any] struct {
	value       T
	generation  uint32
	borrowCount uint32
	valid       bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend[T any]() *LocalBackend[T] {
	return &LocalBackend[T]{
		entries:  make([]entry[T], 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Create stores a value and returns a handle.
func (b *LocalBackend[T]) Create(value T) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	b.live++

	if n := len(b.freeList); n > 0 {
		slot := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		e := &b.entries[slot-1]
		e.value = value
		e.valid = true
		return MakeHandle(slot, e.generation), nil
	}

	b.entries = append(b.entries, entry[T]{value: value, generation: 1, valid: true})
	return MakeHandle(uint32(len(b.entries)), 1), nil
}

// lookup returns the live entry for handle. Callers hold b.mu.
func (b *LocalBackend[T]) lookup(handle Handle) *entry[T] {
	slot := handle.Slot()
	if slot == 0 || int(slot) > len(b.entries) {
		return nil
	}
	e := &b.entries[slot-1]
	if !e.valid || e.generation != handle.Generation() {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (b *LocalBackend[T]) Get(handle Handle) (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var zero T
	e := b.lookup(handle)
	if e == nil {
		return zero, false
	}
	return e.value, true
}

// Drop removes a value. The slot's generation is bumped so the handle, and
// any copy of it, is rejected from now on.
func (b *LocalBackend[T]) Drop(handle Handle) (T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	e := b.lookup(handle)
	if e == nil {
		return zero, ErrInvalidHandle
	}
	if e.borrowCount > 0 {
		return zero, ErrOutstandingBorrow
	}

	value := e.value
	e.value = zero
	e.valid = false
	e.generation++
	if e.generation == 0 {
		e.generation = 1
	}
	b.live--
	b.freeList = append(b.freeList, handle.Slot())

	return value, nil
}

// Borrow increments the borrow count for a handle.
func (b *LocalBackend[T]) Borrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return false
	}
	e.borrowCount++
	return true
}

// ReturnBorrow decrements the borrow count for a handle.
func (b *LocalBackend[T]) ReturnBorrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil || e.borrowCount == 0 {
		return false
	}
	e.borrowCount--
	return true
}

// Len returns the number of live values.
func (b *LocalBackend[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// Each iterates over live values in slot order.
func (b *LocalBackend[T]) Each(fn func(Handle, T) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i := range b.entries {
		e := &b.entries[i]
		if e.valid {
			if !fn(MakeHandle(uint32(i+1), e.generation), e.value) {
				break
			}
		}
	}
}

// Close releases all values.
func (b *LocalBackend[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.entries {
		if b.entries[i].valid {
			if d, ok := any(b.entries[i].value).(Dropper); ok {
				d.Drop()
			}
		}
	}

	b.entries = nil
	b.freeList = nil
	b.live = 0
	return nil
}
