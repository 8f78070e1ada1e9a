package runtime

import (
	"github.com/wippyai/jsonabi/engine"
	"github.com/wippyai/jsonabi/errors"
	"github.com/wippyai/jsonabi/value"
)

// Document owns one engine value. It is released exactly once, by Close,
// or handed to another Document by Move. Not safe for concurrent use.
type Document struct {
	rt     *Runtime
	handle engine.ValueHandle
}

// Handle returns the underlying value handle, or 0 once released.
func (d *Document) Handle() engine.ValueHandle {
	return d.handle
}

// Released reports whether the document no longer owns a value.
func (d *Document) Released() bool {
	return d.handle.IsNull()
}

// Value returns a read view of the tree. The view is only valid until the
// document is closed.
func (d *Document) Value() (*value.Value, error) {
	if d.Released() {
		return nil, ErrReleased
	}
	v, ok := d.rt.engine.Value(d.handle)
	if !ok {
		return nil, errors.InvalidHandle(errors.PhaseLookup, "value", d.handle)
	}
	return v, nil
}

// With calls fn with the tree pinned. Close is refused until fn returns.
func (d *Document) With(fn func(*value.Value) error) error {
	if d.Released() {
		return ErrReleased
	}
	v, release, ok := d.rt.engine.Borrow(d.handle)
	if !ok {
		return errors.InvalidHandle(errors.PhaseLookup, "value", d.handle)
	}
	defer release()
	return fn(v)
}

// Lookup resolves a JSON pointer against the document.
func (d *Document) Lookup(ptr string) (*value.Value, error) {
	v, err := d.Value()
	if err != nil {
		return nil, err
	}
	return v.Pointer(ptr)
}

// Marshal renders the document.
func (d *Document) Marshal(flags engine.SerializeFlags) ([]byte, error) {
	return d.AppendTo(nil, flags)
}

// AppendTo appends the rendered document to dst.
func (d *Document) AppendTo(dst []byte, flags engine.SerializeFlags) ([]byte, error) {
	if d.Released() {
		return dst, ErrReleased
	}
	return d.rt.engine.AppendJSON(dst, d.handle, flags)
}

// Text renders the document through the boundary Serialize, copying the
// Owned-String out and dropping it before returning.
func (d *Document) Text(flags engine.SerializeFlags) (string, error) {
	if d.Released() {
		return "", ErrReleased
	}
	e := d.rt.engine
	res := e.Serialize(d.handle, flags)
	if !res.OK() {
		return "", e.TakeError(res.Err)
	}
	text := res.JSON.String()
	if err := e.Drop(res.JSON); err != nil {
		return "", err
	}
	return text, nil
}

// Move transfers ownership to a new Document and empties d.
func (d *Document) Move() *Document {
	moved := &Document{rt: d.rt, handle: d.handle}
	d.handle = 0
	return moved
}

// Close releases the value. Closing twice returns ErrReleased. A refused
// drop leaves the document owning the value, so Close can be retried.
func (d *Document) Close() error {
	if d.Released() {
		return ErrReleased
	}
	if err := d.rt.engine.DropValue(d.handle); err != nil {
		return err
	}
	d.handle = 0
	return nil
}
