package engine

import (
	stderrors "errors"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/jsonabi/errors"
	"github.com/wippyai/jsonabi/resource"
	"github.com/wippyai/jsonabi/value"
	"github.com/wippyai/jsonabi/writer"
)

// DefaultMaxDepth is the nesting limit used when Config.MaxDepth is zero.
const DefaultMaxDepth = 128

// Config holds engine settings. A nil *Config means all defaults.
type Config struct {
	// Logger overrides the package logger for this engine.
	Logger *zap.Logger

	// Allocator owns Owned-String memory. Nil means a private Arena.
	Allocator StringAllocator

	// Observers receive an Event after every boundary call.
	Observers []Observer

	// MaxDepth limits container nesting during deserialize.
	// 0 means DefaultMaxDepth, negative means unlimited.
	MaxDepth int

	// MaxInputBytes rejects larger deserialize inputs. 0 means unlimited.
	MaxInputBytes int

	// MaxOutputBytes rejects larger serialize outputs. 0 means unlimited.
	MaxOutputBytes int
}

// Engine implements the four boundary operations. It is safe for concurrent
// use; each ValueHandle is owned by one caller at a time.
type Engine struct {
	values    *resource.Table[*value.Value]
	strings   StringAllocator
	log       *zap.Logger
	observers []Observer
	fallback  OwnedString
	ownsAlloc bool
	maxDepth  int
	maxIn     int
	maxOut    int
}

// New creates an engine.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}

	e := &Engine{
		values:    resource.NewTable[*value.Value](),
		strings:   cfg.Allocator,
		log:       cfg.Logger,
		observers: append([]Observer(nil), cfg.Observers...),
		maxDepth:  cfg.MaxDepth,
		maxIn:     cfg.MaxInputBytes,
		maxOut:    cfg.MaxOutputBytes,
	}
	if e.log == nil {
		e.log = Logger()
	}
	if e.strings == nil {
		e.strings = NewArena(0)
		e.ownsAlloc = true
	}
	if e.maxDepth == 0 {
		e.maxDepth = DefaultMaxDepth
	}
	e.fallback = staticFallback()
	if p, ok := e.strings.(Pinner); ok {
		if buf, err := p.Pin([]byte(fallbackMessage)); err == nil {
			e.fallback = OwnedString{Buf: buf, Len: uintptr(len(fallbackMessage))}
		}
	}
	e.values.Subscribe(lifecycleLogger{log: e.log})

	return e
}

// Deserialize parses json into a new Value. On failure the result holds an
// error string and a null handle.
func (e *Engine) Deserialize(json []byte, flags DeserializeFlags) DeserializeResult {
	h, err := e.open(json, flags)
	if err != nil {
		e.notify(Event{Op: OpDeserialize, Bytes: len(json), Kind: errors.KindOf(err), String: true})
		return DeserializeResult{Err: e.errorString(err)}
	}
	e.notify(Event{Op: OpDeserialize, Bytes: len(json), Handle: h})
	return DeserializeResult{Value: h}
}

// Open is Deserialize for Go callers: failures come back as *errors.Error
// and no error string is allocated.
func (e *Engine) Open(json []byte, flags DeserializeFlags) (ValueHandle, error) {
	h, err := e.open(json, flags)
	e.notify(Event{Op: OpDeserialize, Bytes: len(json), Handle: h, Kind: kindOrEmpty(err)})
	return h, err
}

func (e *Engine) open(json []byte, flags DeserializeFlags) (ValueHandle, error) {
	if e.maxIn > 0 && len(json) > e.maxIn {
		return 0, errors.TooLarge(errors.PhaseDeserialize, len(json), e.maxIn)
	}

	opts := flags.Options()
	opts.MaxDepth = e.maxDepth

	p := getParser(json, opts)
	v, err := p.Parse()
	putParser(p)
	if err != nil {
		return 0, err
	}

	h := e.values.Insert(&v)
	if h.IsNull() {
		return 0, errors.NotInitialized(errors.PhaseDeserialize, "engine")
	}
	return h, nil
}

// Serialize renders the Value behind h. The handle stays valid and is
// borrowed for the duration of the call.
func (e *Engine) Serialize(h ValueHandle, flags SerializeFlags) SerializeResult {
	buf := getOut()
	defer putOut(buf)

	out, err := e.render((*buf)[:0], h, flags)
	*buf = out
	if err != nil {
		e.notify(Event{Op: OpSerialize, Handle: h, Kind: errors.KindOf(err), String: true})
		return SerializeResult{Err: e.errorString(err)}
	}

	p, err := e.alloc(errors.PhaseSerialize, out)
	if err != nil {
		e.notify(Event{Op: OpSerialize, Handle: h, Kind: errors.KindOf(err), String: true})
		return SerializeResult{Err: e.errorString(err)}
	}

	e.notify(Event{Op: OpSerialize, Handle: h, Bytes: len(out), String: true})
	return SerializeResult{JSON: OwnedString{Buf: p, Len: uintptr(len(out))}}
}

// AppendJSON is Serialize for Go callers: the text is appended to dst
// instead of being handed out as an Owned-String.
func (e *Engine) AppendJSON(dst []byte, h ValueHandle, flags SerializeFlags) ([]byte, error) {
	start := len(dst)
	out, err := e.render(dst, h, flags)
	e.notify(Event{Op: OpSerialize, Handle: h, Bytes: len(out) - start, Kind: kindOrEmpty(err)})
	return out, err
}

func (e *Engine) render(dst []byte, h ValueHandle, flags SerializeFlags) ([]byte, error) {
	v, ok := e.values.Borrow(h)
	if !ok {
		e.log.Warn("serialize of unknown value handle", zap.Stringer("handle", h))
		return dst, errors.InvalidHandle(errors.PhaseSerialize, "value", h)
	}
	defer e.values.Release(h)

	opts := flags.Options()
	opts.MaxBytes = e.maxOut
	return writer.Append(dst, v, opts)
}

// DropValue releases the Value behind h. Dropping an unknown, stale or
// borrowed handle is refused and reported.
func (e *Engine) DropValue(h ValueHandle) error {
	if _, err := e.values.Remove(h); err != nil {
		derr := errors.InvalidHandle(errors.PhaseDrop, "value", h)
		derr.Cause = err
		e.log.Warn("drop_value refused", zap.Stringer("handle", h), zap.Error(err))
		e.notify(Event{Op: OpDropValue, Handle: h, Kind: derr.Kind})
		return derr
	}
	e.notify(Event{Op: OpDropValue, Handle: h})
	return nil
}

// DropString releases an Owned-String produced by this engine. n is
// authoritative; the nul terminator is not consulted.
func (e *Engine) DropString(buf unsafe.Pointer, n uintptr) error {
	if buf == e.fallback.Buf && n == e.fallback.Len {
		e.notify(Event{Op: OpDropString, Bytes: int(n)})
		return nil
	}
	if err := e.strings.Free(buf, n); err != nil {
		e.log.Warn("drop_string refused", zap.Uintptr("buf", uintptr(buf)), zap.Uintptr("len", n), zap.Error(err))
		e.notify(Event{Op: OpDropString, Bytes: int(n), Kind: errors.KindOf(err)})
		return err
	}
	e.notify(Event{Op: OpDropString, Bytes: int(n)})
	return nil
}

// Drop releases an Owned-String value. Dropping the empty sentinel is a
// no-op.
func (e *Engine) Drop(s OwnedString) error {
	if s.IsEmpty() {
		return nil
	}
	return e.DropString(s.Buf, s.Len)
}

// Value returns the tree behind h for reading. The pointer must not be used
// after h is dropped.
func (e *Engine) Value(h ValueHandle) (*value.Value, bool) {
	return e.values.Get(h)
}

// Borrow pins the Value behind h until release is called. DropValue
// refuses a pinned handle.
func (e *Engine) Borrow(h ValueHandle) (v *value.Value, release func(), ok bool) {
	v, ok = e.values.Borrow(h)
	if !ok {
		return nil, nil, false
	}
	return v, func() { e.values.Release(h) }, true
}

// LiveValues returns the number of handles not yet dropped.
func (e *Engine) LiveValues() int { return e.values.Len() }

// LiveStrings returns the number of Owned-Strings not yet dropped.
func (e *Engine) LiveStrings() int { return e.strings.Live() }

// Close drops every live value and, when the engine owns its allocator,
// every live string. Leaks are logged and reported to observers as swept
// drops.
func (e *Engine) Close() error {
	leakedValues := e.values.Clear()
	leakedStrings := e.strings.Live()
	sweptStrings := 0
	if a, ok := e.strings.(*Arena); ok && e.ownsAlloc {
		sweptStrings = a.Reset()
	}
	for range leakedValues {
		e.notify(Event{Op: OpDropValue, Swept: true})
	}
	for range sweptStrings {
		e.notify(Event{Op: OpDropString, Swept: true})
	}
	if leakedValues > 0 || leakedStrings > 0 {
		e.log.Warn("engine closed with live resources",
			zap.Int("values", leakedValues),
			zap.Int("strings", leakedStrings))
	}
	return e.values.Close()
}

// errorString renders err into an Owned-String, falling back to a short
// message without detail when the full text cannot be allocated, and to the
// pinned fallback message when not even that fits. The fallback is never
// freed; DropString accepts it any number of times.
func (e *Engine) errorString(err error) OwnedString {
	msg := err.Error()
	p, aerr := e.alloc(errors.PhaseOf(err), []byte(msg))
	if aerr != nil {
		msg = "[" + string(errors.PhaseOf(err)) + "] " + string(errors.KindOf(err))
		p, aerr = e.alloc(errors.PhaseOf(err), []byte(msg))
	}
	if aerr != nil {
		e.log.Warn("error string allocation failed", zap.Error(err), zap.NamedError("alloc", aerr))
		return e.fallback
	}
	return OwnedString{Buf: p, Len: uintptr(len(msg))}
}

// alloc copies data into a new Owned-String buffer. Failures are reported
// in phase, the operation that needed the string.
func (e *Engine) alloc(phase errors.Phase, data []byte) (unsafe.Pointer, error) {
	p, err := e.strings.Alloc(data)
	if err == nil {
		return p, nil
	}
	ae := errors.AllocationFailed(phase, len(data)+1)
	if errors.KindOf(err) != errors.KindAllocation {
		ae.Cause = err
	}
	return nil, ae
}

func kindOrEmpty(err error) errors.Kind {
	if err == nil {
		return ""
	}
	return errors.KindOf(err)
}

func (e *Engine) notify(ev Event) {
	for _, o := range e.observers {
		o.OnEvent(ev)
	}
}

// lifecycleLogger traces handle events at debug level.
type lifecycleLogger struct {
	log *zap.Logger
}

func (l lifecycleLogger) OnResourceEvent(ev resource.Event) {
	if ce := l.log.Check(zap.DebugLevel, "value "+ev.Type.String()); ce != nil {
		ce.Write(zap.Stringer("handle", ev.Handle))
	}
}

// IsInvalidHandle reports whether err is a refused drop or serialize of a
// handle or string the engine does not own.
func IsInvalidHandle(err error) bool {
	var e *errors.Error
	return stderrors.As(err, &e) && e.Kind == errors.KindInvalidHandle
}
