package hostabi

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/jsonabi/engine"
	"github.com/wippyai/jsonabi/errors"
	"github.com/wippyai/jsonabi/internal/guestshim"
	"github.com/wippyai/jsonabi/internal/memory"
)

// Loopback drives the host module through a generated guest that
// re-exports its functions. Every call crosses the wasm boundary twice, so
// Go code can exercise the guest view of the protocol end to end.
// Calls are serialized.
type Loopback struct {
	mu      sync.Mutex
	rt      wazero.Runtime
	host    *Host
	guest   api.Module
	mem     *memory.Wrapper
	realloc api.Function

	deserialize api.Function
	serialize   api.Function
	dropValue   api.Function
	dropString  api.Function
}

// NewLoopback starts a wazero runtime with the host module and one
// loopback guest.
func NewLoopback(ctx context.Context, cfg *Config) (*Loopback, error) {
	host := New(cfg)
	rt := wazero.NewRuntime(ctx)

	if _, err := host.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		host.Close()
		return nil, err
	}

	guest, err := rt.InstantiateWithConfig(ctx, LoopbackModule(host.Name()),
		wazero.NewModuleConfig().WithName("loopback"))
	if err != nil {
		rt.Close(ctx)
		host.Close()
		return nil, errors.Instantiation(err)
	}

	return &Loopback{
		rt:          rt,
		host:        host,
		guest:       guest,
		mem:         memory.WrapMemory(guest.Memory()),
		realloc:     guest.ExportedFunction(guestshim.ReallocName),
		deserialize: guest.ExportedFunction("deserialize"),
		serialize:   guest.ExportedFunction("serialize"),
		dropValue:   guest.ExportedFunction("drop_value"),
		dropString:  guest.ExportedFunction("drop_string"),
	}, nil
}

// LoopbackModule builds the loopback guest importing from hostModule.
func LoopbackModule(hostModule string) []byte {
	b := guestshim.NewBuilder(hostModule)
	for _, s := range signatures {
		b.AddFunc(s.name, s.params, s.results)
	}
	return b.Build()
}

// Host returns the host behind the loopback.
func (l *Loopback) Host() *Host { return l.host }

// Deserialize parses json inside the guest boundary. The returned handle is
// owned by the loopback guest and released with DropValue.
func (l *Loopback) Deserialize(ctx context.Context, json []byte, flags engine.DeserializeFlags) (engine.ValueHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// The guest heap only rewinds on LIFO frees, so the aligned return area
	// goes first and the unaligned input on top of it.
	alloc := memory.WrapAllocator(ctx, l.realloc)
	ret, err := alloc.Alloc(retSize, retAlign)
	if err != nil {
		return 0, errors.Internal(errors.PhaseHost, err)
	}
	defer alloc.Free(ret, retSize, retAlign)

	in, err := l.copyIn(alloc, json)
	if err != nil {
		return 0, err
	}
	defer alloc.Free(in, uint32(len(json)), 1)

	if _, err := l.deserialize.Call(ctx, uint64(in), uint64(len(json)), uint64(flags), uint64(ret)); err != nil {
		return 0, errors.Internal(errors.PhaseHost, err)
	}

	v, err := l.mem.ReadU64(ret + deserializeLayout.offs["value"])
	if err != nil {
		return 0, errors.Internal(errors.PhaseHost, err)
	}
	if gerr := l.takeError(ctx, ret+deserializeLayout.offs["err"]); gerr != nil {
		return 0, gerr
	}
	return engine.ValueHandle(v), nil
}

// Serialize renders the value behind h inside the guest boundary.
func (l *Loopback) Serialize(ctx context.Context, h engine.ValueHandle, flags engine.SerializeFlags) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	alloc := memory.WrapAllocator(ctx, l.realloc)
	ret, err := alloc.Alloc(retSize, retAlign)
	if err != nil {
		return nil, errors.Internal(errors.PhaseHost, err)
	}
	defer alloc.Free(ret, retSize, retAlign)

	if _, err := l.serialize.Call(ctx, uint64(h), uint64(flags), uint64(ret)); err != nil {
		return nil, errors.Internal(errors.PhaseHost, err)
	}

	if gerr := l.takeError(ctx, ret+serializeLayout.offs["err"]); gerr != nil {
		return nil, gerr
	}
	return l.takeString(ctx, ret+serializeLayout.offs["json"])
}

// DropValue releases a handle returned by Deserialize.
func (l *Loopback) DropValue(ctx context.Context, h engine.ValueHandle) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.dropValue.Call(ctx, uint64(h)); err != nil {
		return errors.Internal(errors.PhaseHost, err)
	}
	return nil
}

// Parse deserializes json and drops the value, reporting only success.
func (l *Loopback) Parse(ctx context.Context, json []byte, flags engine.DeserializeFlags) error {
	h, err := l.Deserialize(ctx, json, flags)
	if err != nil {
		return err
	}
	return l.DropValue(ctx, h)
}

// Close releases the guest, the runtime and a private engine.
func (l *Loopback) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.host.Release(l.guest)
	if err := l.rt.Close(ctx); err != nil {
		l.host.Close()
		return errors.Internal(errors.PhaseHost, err)
	}
	return l.host.Close()
}

// CallRaw invokes a guest export with raw arguments. Tests use it to
// reach the host functions with arguments a well-behaved caller would
// never pass.
func (l *Loopback) CallRaw(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fn := l.guest.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("loopback: no export %q", name)
	}
	return fn.Call(ctx, args...)
}

func (l *Loopback) copyIn(alloc *memory.AllocatorWrapper, data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, nil
	}
	p, err := alloc.Alloc(uint32(len(data)), 1)
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseHost, len(data))
	}
	if err := l.mem.Write(p, data); err != nil {
		return 0, errors.Internal(errors.PhaseHost, err)
	}
	return p, nil
}

// takeString copies the Owned-String described at off out of the guest and
// releases it through the guest's drop_string.
func (l *Loopback) takeString(ctx context.Context, off uint32) ([]byte, error) {
	buf, err := l.mem.ReadU32(off)
	if err != nil {
		return nil, errors.Internal(errors.PhaseHost, err)
	}
	n, err := l.mem.ReadU32(off + 4)
	if err != nil {
		return nil, errors.Internal(errors.PhaseHost, err)
	}
	view, err := l.mem.Read(buf, n)
	if err != nil {
		return nil, errors.Internal(errors.PhaseHost, err)
	}
	out := append([]byte(nil), view...)

	if _, err := l.dropString.Call(ctx, uint64(buf), uint64(n)); err != nil {
		return nil, errors.Internal(errors.PhaseHost, err)
	}
	return out, nil
}

// takeError returns the error arm at off as a BoundaryError, or nil when
// the arm is empty.
func (l *Loopback) takeError(ctx context.Context, off uint32) error {
	buf, err := l.mem.ReadU32(off)
	if err != nil {
		return errors.Internal(errors.PhaseHost, err)
	}
	if buf == 0 {
		return nil
	}
	msg, err := l.takeString(ctx, off)
	if err != nil {
		return err
	}
	return &engine.BoundaryError{Message: string(msg)}
}
