// Package errors provides structured error types for the jsonabi engine.
//
// Every Error names the Phase that failed (deserialize, serialize, drop,
// host, bench) and a Kind such as syntax, eof or invalid_handle.
// Deserialize errors also carry the byte offset, line, column and a short
// context snippet with a caret under the failing byte.
//
// Build errors with New and the chained setters:
//
//	err := errors.New(errors.PhaseDeserialize, errors.KindSyntax).
//		Detail("expected ':' while parsing").
//		At(input, 12).
//		Build()
//
// The parser mostly goes through the shorthand constructors:
//
//	err := errors.Truncated(input, "an object")
//	err := errors.TrailingData(input, offset)
//
// KindOf and PhaseOf unwrap any error chain.
// The rendered message is meant for humans; match on Kind, not on text.
package errors
