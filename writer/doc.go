// Package writer serializes value.Value trees to JSON text.
//
// Compact output carries no insignificant whitespace. Pretty output uses a
// two-space indent, a ": " separator, one member or element per line, and
// "[]" or "{}" for empty containers. Raw numbers and raw strings are
// emitted exactly as they were read.
package writer
