package engine

import "github.com/wippyai/jsonabi/resource"

// ValueHandle is the opaque reference to a parsed document handed across the
// boundary. The zero handle is null.
type ValueHandle = resource.Handle

// DeserializeResult carries exactly one of a Value handle or an error string.
type DeserializeResult struct {
	Value ValueHandle
	Err   OwnedString
}

// OK reports whether the value arm is populated.
func (r DeserializeResult) OK() bool { return r.Err.IsEmpty() }

// SerializeResult carries exactly one of the JSON text or an error string.
type SerializeResult struct {
	JSON OwnedString
	Err  OwnedString
}

// OK reports whether the JSON arm is populated.
func (r SerializeResult) OK() bool { return r.Err.IsEmpty() }

// BoundaryError is an error message copied out of an Owned-String error arm.
// The text is for people; it carries no stable structure.
type BoundaryError struct {
	Message string
}

func (e *BoundaryError) Error() string { return e.Message }

// TakeError copies s into a BoundaryError and drops it.
func (e *Engine) TakeError(s OwnedString) error {
	msg := s.String()
	if err := e.Drop(s); err != nil {
		return err
	}
	return &BoundaryError{Message: msg}
}
