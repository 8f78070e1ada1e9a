package engine

import (
	"sync"
	"unsafe"

	"github.com/wippyai/jsonabi/errors"
)

// OwnedString is an engine-allocated byte buffer with an explicit length.
// The byte at Buf+Len is always 0, so Buf can also be read as a C string.
// The zero value is the empty sentinel used for the unpopulated arm of a
// result.
type OwnedString struct {
	Buf unsafe.Pointer
	Len uintptr
}

// IsEmpty reports whether s is the empty sentinel.
func (s OwnedString) IsEmpty() bool { return s.Buf == nil }

// Bytes returns a view of the buffer without the trailing nul. The view is
// valid until the string is dropped.
func (s OwnedString) Bytes() []byte {
	if s.Buf == nil {
		return nil
	}
	return unsafe.Slice((*byte)(s.Buf), s.Len)
}

// String copies the contents into a Go string.
func (s OwnedString) String() string {
	return string(s.Bytes())
}

// StringAllocator owns the memory behind Owned-Strings. Allocation and
// release of one string always go through the same allocator.
type StringAllocator interface {
	// Alloc returns a buffer of len(data)+1 bytes holding data followed by
	// a nul byte.
	Alloc(data []byte) (unsafe.Pointer, error)
	// Free releases a buffer returned by Alloc. n is the length that was
	// reported alongside the buffer.
	Free(buf unsafe.Pointer, n uintptr) error
	// Live returns the number of outstanding buffers.
	Live() int
}

// Pinner is implemented by allocators that can hold a buffer for their
// whole lifetime. Pinned buffers are never freed and not counted by Live.
// The engine pins its out-of-memory message this way; allocators without
// Pin get a Go static buffer instead.
type Pinner interface {
	Pin(data []byte) (unsafe.Pointer, error)
}

// fallbackMessage is reported when not even a short error text can be
// allocated.
const fallbackMessage = "[alloc] allocation: no memory left for the error message"

var fallbackText = []byte(fallbackMessage + "\x00")

func staticFallback() OwnedString {
	return OwnedString{Buf: unsafe.Pointer(&fallbackText[0]), Len: uintptr(len(fallbackMessage))}
}

// Arena is the default StringAllocator. Buffers live on the Go heap and stay
// referenced from the arena until freed, so their addresses remain valid.
type Arena struct {
	bufs  map[unsafe.Pointer][]byte
	mu    sync.Mutex
	bytes int
	limit int
}

// NewArena creates an arena. limit bounds the total bytes outstanding at
// once; zero means unlimited.
func NewArena(limit int) *Arena {
	return &Arena{
		bufs:  make(map[unsafe.Pointer][]byte),
		limit: limit,
	}
}

// Alloc copies data into a new nul-terminated buffer.
func (a *Arena) Alloc(data []byte) (unsafe.Pointer, error) {
	size := len(data) + 1

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.limit > 0 && a.bytes+size > a.limit {
		return nil, errors.AllocationFailed(errors.PhaseAlloc, size)
	}

	b := make([]byte, size)
	copy(b, data)
	p := unsafe.Pointer(&b[0])

	a.bufs[p] = b
	a.bytes += size
	return p, nil
}

// Free releases buf. Unknown buffers and length mismatches are refused
// without touching memory.
func (a *Arena) Free(buf unsafe.Pointer, n uintptr) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.bufs[buf]
	if !ok {
		return errors.InvalidHandle(errors.PhaseDrop, "string", buf)
	}
	if uintptr(len(b)-1) != n {
		return errors.New(errors.PhaseDrop, errors.KindInvalidHandle).
			Detail("string %p has length %d, not %d", buf, len(b)-1, n).
			Value(buf).
			Build()
	}

	delete(a.bufs, buf)
	a.bytes -= len(b)
	return nil
}

// Live returns the number of outstanding buffers.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bufs)
}

// Bytes returns the total size of outstanding buffers, terminators included.
func (a *Arena) Bytes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bytes
}

// Reset releases every outstanding buffer and returns how many there were.
func (a *Arena) Reset() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.bufs)
	clear(a.bufs)
	a.bytes = 0
	return n
}
