package resource

import "fmt"

// Handle is an opaque reference to a value in a table.
// The low 32 bits hold the slot index plus one, the high 32 bits the slot
// generation. Handle 0 is reserved and always invalid.
type Handle uint64

// MakeHandle builds a handle from a 1-based slot and a generation.
func MakeHandle(slot, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(slot))
}

// Slot returns the 1-based slot number, 0 for the null handle.
func (h Handle) Slot() uint32 { return uint32(h) }

// Generation returns the generation the handle was issued under.
func (h Handle) Generation() uint32 { return uint32(h >> 32) }

// IsNull reports whether h is the reserved zero handle.
func (h Handle) IsNull() bool { return h == 0 }

func (h Handle) String() string {
	if h == 0 {
		return "handle(null)"
	}
	return fmt.Sprintf("handle(%d@%d)", h.Slot(), h.Generation())
}

// Event types for lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventBorrowed
	EventBorrowReturned
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow_returned"
	}
	return "unknown"
}

// Event represents a lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives notifications about lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Backend provides the underlying storage for a table.
type Backend[T any] interface {
	// Create stores a value and returns a handle.
	Create(value T) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (T, bool)

	// Drop removes a value. It fails with ErrInvalidHandle for unknown or
	// stale handles and ErrOutstandingBorrow while the value is borrowed.
	Drop(handle Handle) (T, error)

	// Borrow increments the borrow count for a handle.
	Borrow(handle Handle) bool

	// ReturnBorrow decrements the borrow count for a handle.
	ReturnBorrow(handle Handle) bool

	// Len returns the number of live values.
	Len() int

	// Each iterates over live values.
	Each(func(Handle, T) bool)

	// Close releases all values held by the backend.
	Close() error
}

// Dropper is optionally implemented by values that need cleanup when they
// leave the table.
type Dropper interface {
	Drop()
}
