package engine

import "github.com/wippyai/jsonabi/errors"

// Op names a boundary operation.
type Op uint8

const (
	OpDeserialize Op = iota
	OpSerialize
	OpDropValue
	OpDropString
)

var opNames = [...]string{
	OpDeserialize: "deserialize",
	OpSerialize:   "serialize",
	OpDropValue:   "drop_value",
	OpDropString:  "drop_string",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// Event describes one completed boundary call.
type Event struct {
	// Kind is empty on success and the error kind otherwise.
	Kind errors.Kind
	// Bytes is the input size for deserialize and the output size for a
	// successful serialize.
	Bytes  int
	Handle ValueHandle
	Op     Op
	// String reports that the call handed out an Owned-String, either the
	// JSON text or an error message.
	String bool
	// Swept marks a drop performed by Close for a resource the caller
	// never released.
	Swept bool
}

// OK reports whether the call succeeded.
func (e Event) OK() bool { return e.Kind == "" }

// Observer receives an Event after every boundary call. OnEvent runs on the
// caller's goroutine and must not call back into the engine.
type Observer interface {
	OnEvent(Event)
}
