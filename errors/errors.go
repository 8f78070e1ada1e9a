package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDeserialize Phase = "deserialize" // JSON text to Value
	PhaseSerialize   Phase = "serialize"   // Value to JSON text
	PhaseDrop        Phase = "drop"        // handle and string release
	PhaseHost        Phase = "host"        // wasm host functions
	PhaseLookup      Phase = "lookup"      // pointer and accessor lookups
	PhaseLoad        Phase = "load"        // reading input files
	PhaseBench       Phase = "bench"       // benchmark harness
	PhaseAlloc       Phase = "alloc"       // Owned-String allocators
)

// Kind categorizes the error
type Kind string

const (
	KindSyntax         Kind = "syntax"
	KindTruncated      Kind = "truncated"
	KindTrailingData   Kind = "trailing_data"
	KindInvalidUTF8    Kind = "invalid_utf8"
	KindEmptyInput     Kind = "empty_input"
	KindDepthExceeded  Kind = "depth_exceeded"
	KindNumberRange    Kind = "number_range"
	KindTooLarge       Kind = "too_large"
	KindAllocation     Kind = "allocation"
	KindInternal       Kind = "internal"
	KindInvalidData    Kind = "invalid_data"
	KindInvalidHandle  Kind = "invalid_handle"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindNotFound       Kind = "not_found"
	KindTypeMismatch   Kind = "type_mismatch"
	KindInvalidInput   Kind = "invalid_input"
	KindInstantiation  Kind = "instantiation"
	KindRegistration   Kind = "registration"
	KindNotInitialized Kind = "not_initialized"
)

// NoOffset marks an error that has no input position.
const NoOffset = -1

// Error is the structured error type used throughout the engine
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Detail  string
	Snippet string
	Path    []string
	Offset  int
	Line    int
	Column  int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at /")
		b.WriteString(strings.Join(e.Path, "/"))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Line > 0 {
		b.WriteString(" at line ")
		b.WriteString(strconv.Itoa(e.Line))
		b.WriteString(" column ")
		b.WriteString(strconv.Itoa(e.Column))
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	if e.Snippet != "" {
		b.WriteString("\n\n")
		b.WriteString(e.Snippet)
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// HasPosition reports whether the error carries an input offset.
func (e *Error) HasPosition() bool {
	return e.Offset >= 0 && e.Line > 0
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: NoOffset,
		},
	}
}

// Path sets the lookup path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// At records the byte offset into input, deriving line, column and the
// context snippet from it.
func (b *Builder) At(input []byte, offset int) *Builder {
	if offset < 0 {
		return b
	}
	if offset > len(input) {
		offset = len(input)
	}
	b.err.Offset = offset
	b.err.Line, b.err.Column = Position(input, offset)
	b.err.Snippet = Snippet(input, offset)
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Position converts a byte offset into a 1-based line and a column counting
// the bytes consumed on that line.
func Position(input []byte, offset int) (line, column int) {
	if offset > len(input) {
		offset = len(input)
	}
	line = 1
	for _, c := range input[:offset] {
		if c == '\n' {
			line++
			column = 0
		} else {
			column++
		}
	}
	return line, column
}

// Snippet renders up to 8 bytes on each side of offset, widened to whole
// UTF-8 sequences, with a caret line underneath pointing at offset.
func Snippet(input []byte, offset int) string {
	if len(input) == 0 {
		return ""
	}
	if offset > len(input) {
		offset = len(input)
	}

	start := offset - 8
	if start < 0 {
		start = 0
	}
	end := offset + 8
	if end > len(input) {
		end = len(input)
	}
	for start > 0 && offset-start <= 16 && isContinuation(input[start]) {
		start--
	}
	for end < len(input) && end-offset <= 16 && isContinuation(input[end]) {
		end++
	}

	fragment := strings.ToValidUTF8(string(input[start:end]), "�")
	fragment = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, fragment)

	right := 0
	if end-offset > 1 {
		right = end - offset - 1
	}
	mask := strings.Repeat(".", offset-start) + "^" + strings.Repeat(".", right)

	return "\t" + fragment + "\n\t" + mask + "\n"
}

func isContinuation(c byte) bool {
	return c&0xC0 == 0x80
}

// Convenience constructors for common error patterns

// Syntax creates a syntax error positioned in input
func Syntax(input []byte, offset int, detail string) *Error {
	return New(PhaseDeserialize, KindSyntax).Detail("%s", detail).At(input, offset).Build()
}

// Truncated creates an end-of-input error; what names the construct that
// was left open.
func Truncated(input []byte, what string) *Error {
	return New(PhaseDeserialize, KindTruncated).
		Detail("EOF while parsing %s", what).
		At(input, len(input)).
		Build()
}

// TrailingData creates an error for content after a complete document
func TrailingData(input []byte, offset int) *Error {
	return New(PhaseDeserialize, KindTrailingData).
		Detail("JSON has non-whitespace trailing characters after the value").
		At(input, offset).
		Build()
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(input []byte, offset int, detail string) *Error {
	if detail == "" {
		end := offset + 4
		if end > len(input) {
			end = len(input)
		}
		detail = fmt.Sprintf("invalid UTF-8 sequence: %x", input[offset:end])
	}
	return New(PhaseDeserialize, KindInvalidUTF8).Detail("%s", detail).At(input, offset).Build()
}

// EmptyInput creates the error for zero-length input
func EmptyInput() *Error {
	return &Error{
		Phase:  PhaseDeserialize,
		Kind:   KindEmptyInput,
		Detail: "input is empty",
		Offset: NoOffset,
	}
}

// DepthExceeded creates a nesting limit error
func DepthExceeded(input []byte, offset, limit int) *Error {
	return New(PhaseDeserialize, KindDepthExceeded).
		Detail("encountered nesting of JSON maps and arrays more than %d layers deep", limit).
		Value(limit).
		At(input, offset).
		Build()
}

// NumberRange creates an error for a number literal outside float64 range
func NumberRange(input []byte, offset int) *Error {
	return New(PhaseDeserialize, KindNumberRange).
		Detail("number is bigger than the maximum value of its type").
		At(input, offset).
		Build()
}

// TooLarge creates a size limit error
func TooLarge(phase Phase, size, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTooLarge,
		Detail: fmt.Sprintf("%d bytes exceeds limit of %d", size, limit),
		Value:  size,
		Offset: NoOffset,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
		Value:  size,
		Offset: NoOffset,
	}
}

// InvalidHandle creates an error for a handle or string the engine does not own
func InvalidHandle(phase Phase, what string, handle any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("%s %v is not live", what, handle),
		Value:  handle,
		Offset: NoOffset,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("range [%d, %d) out of bounds", offset, uint64(offset)+uint64(length)),
		Value:  offset,
		Offset: NoOffset,
	}
}

// NotFound creates a lookup miss error
func NotFound(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseLookup,
		Kind:   KindNotFound,
		Path:   path,
		Detail: detail,
		Offset: NoOffset,
	}
}

// TypeMismatch creates an error for an accessor used on the wrong kind
func TypeMismatch(path []string, want, got string) *Error {
	return &Error{
		Phase:  PhaseLookup,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("expected %s, found %s", want, got),
		Offset: NoOffset,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
		Offset: NoOffset,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
		Offset: NoOffset,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
		Offset: NoOffset,
	}
}

// Registration creates a host registration error
func Registration(namespace, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s#%s", namespace, name),
		Cause:  cause,
		Offset: NoOffset,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
		Offset: NoOffset,
	}
}

// Load creates an input loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
		Offset: NoOffset,
	}
}

// Internal wraps an unexpected failure inside the engine
func Internal(phase Phase, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInternal,
		Detail: "internal error",
		Cause:  cause,
		Offset: NoOffset,
	}
}

// KindOf returns the Kind of err if it is an *Error, or KindInternal.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return KindInternal
}

// PhaseOf returns the Phase of err if it is an *Error, or PhaseHost.
func PhaseOf(err error) Phase {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Phase
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return PhaseHost
}
