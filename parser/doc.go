// Package parser decodes JSON text into value.Value trees.
//
// The parser is a single-pass recursive descent scanner. It keeps object
// members in input order, retains duplicate keys, and can preserve the
// exact source text of numbers and strings:
//
//	v, err := parser.Parse(data, parser.Options{RawNumber: true})
//
// Errors are *errors.Error values in PhaseDeserialize carrying the byte
// offset, line, column and a context snippet.
package parser
