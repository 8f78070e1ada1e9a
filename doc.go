// Package jsonabi is a JSON engine exposed through an opaque-value boundary.
//
// A caller hands raw JSON bytes across the boundary and receives either an
// opaque Value handle or an Owned-String error message. Values are rendered
// back to text on request, and every Value and Owned-String is released
// exactly once by the side that received it.
//
// # Architecture Overview
//
//	jsonabi/             Root package with the guest Memory and Allocator interfaces
//	├── engine/          Boundary operations, Owned-Strings, configuration bitmask
//	├── runtime/         Move-only Document API for Go callers
//	├── hostabi/         wazero host module exposing the boundary to wasm guests
//	├── value/           In-memory document tree
//	├── parser/          JSON text to Value
//	├── writer/          Value to JSON text
//	├── resource/        Generation-checked handle table
//	├── metrics/         Prometheus collector fed by engine events
//	├── bench/           Parse-only throughput harness against other engines
//	├── errors/          Structured error types
//	└── cmd/             jsonabi CLI and the libjsonabi C library
//
// # Quick Start
//
//	e := engine.New(nil)
//	defer e.Close()
//
//	res := e.Deserialize([]byte(`{"a":1}`), engine.DeserializeRawNumber)
//	if !res.OK() {
//	    msg := res.Err.String()
//	    e.Drop(res.Err)
//	    log.Fatal(msg)
//	}
//	defer e.DropValue(res.Value)
//
//	out := e.Serialize(res.Value, engine.SerializePretty)
//	...
//	e.Drop(out.JSON)
//
// Go programs usually prefer the runtime package, which returns structured
// errors and releases values through Document.Close.
//
// # Configuration Bits
//
// Deserialize: 1 raw numbers, 2 raw values (implies raw numbers), 4 lossy
// UTF-8. Serialize: 1 pretty. Unknown bits are ignored.
package jsonabi
