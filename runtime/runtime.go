package runtime

import (
	stderrors "errors"

	"github.com/wippyai/jsonabi/engine"
	"github.com/wippyai/jsonabi/errors"
)

// ErrReleased is returned by Document methods after Close or Move.
var ErrReleased = stderrors.New("runtime: document already released")

// Runtime wraps an engine with an ownership-checked document API.
type Runtime struct {
	engine *engine.Engine
}

// New creates a runtime backed by a fresh engine.
func New(cfg *engine.Config) *Runtime {
	return &Runtime{engine: engine.New(cfg)}
}

// Engine returns the underlying engine for boundary-level access.
func (r *Runtime) Engine() *engine.Engine {
	return r.engine
}

// Parse deserializes data into a Document owned by the caller.
func (r *Runtime) Parse(data []byte, flags engine.DeserializeFlags) (*Document, error) {
	h, err := r.engine.Open(data, flags)
	if err != nil {
		return nil, err
	}
	return &Document{rt: r, handle: h}, nil
}

// Validate reports whether data parses under flags. The value is dropped
// before returning.
func (r *Runtime) Validate(data []byte, flags engine.DeserializeFlags) error {
	doc, err := r.Parse(data, flags)
	if err != nil {
		return err
	}
	return doc.Close()
}

// Format parses data and renders it again in one call.
func (r *Runtime) Format(data []byte, df engine.DeserializeFlags, sf engine.SerializeFlags) ([]byte, error) {
	doc, err := r.Parse(data, df)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return doc.Marshal(sf)
}

// Close releases every document still open and logs the leak count.
func (r *Runtime) Close() error {
	if err := r.engine.Close(); err != nil {
		return errors.Internal(errors.PhaseHost, err)
	}
	return nil
}
