package hostabi

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/jsonabi/engine"
	"github.com/wippyai/jsonabi/errors"
)

type function struct {
	name    string
	fn      api.GoModuleFunc
	params  []api.ValueType
	results []api.ValueType
}

func (h *Host) functions() []function {
	handlers := map[string]api.GoModuleFunc{
		"deserialize": func(ctx context.Context, mod api.Module, stack []uint64) {
			h.deserialize(h.guestOf(ctx, mod), uint32(stack[0]), uint32(stack[1]), stack[2], uint32(stack[3]))
		},
		"serialize": func(ctx context.Context, mod api.Module, stack []uint64) {
			h.serialize(h.guestOf(ctx, mod), engine.ValueHandle(stack[0]), stack[1], uint32(stack[2]))
		},
		"drop_value": func(ctx context.Context, mod api.Module, stack []uint64) {
			h.dropValue(h.ledgerFor(mod), mod.Name(), engine.ValueHandle(stack[0]))
		},
		"drop_string": func(ctx context.Context, mod api.Module, stack []uint64) {
			h.dropString(h.guestOf(ctx, mod), uint32(stack[0]), uint32(stack[1]))
		},
	}

	fns := make([]function, 0, len(signatures))
	for _, s := range signatures {
		fns = append(fns, function{name: s.name, fn: handlers[s.name], params: s.params, results: s.results})
	}
	return fns
}

func (h *Host) deserialize(g guest, ptr, n uint32, cfg uint64, ret uint32) {
	data, err := g.mem.Read(ptr, n)
	if err != nil {
		panic(errors.New(errors.PhaseHost, errors.KindOutOfBounds).
			Detail("deserialize input [%d, %d)", ptr, uint64(ptr)+uint64(n)).Cause(err).Build())
	}

	res := h.engine.Deserialize(data, engine.DeserializeFlags(cfg))
	if res.OK() {
		g.led.addValue(res.Value)
		h.writeDeserializeRet(g, ret, uint64(res.Value), 0, 0)
		return
	}

	buf, l := h.moveString(g, res.Err)
	h.writeDeserializeRet(g, ret, 0, buf, l)
}

func (h *Host) serialize(g guest, v engine.ValueHandle, cfg uint64, ret uint32) {
	if !g.led.ownsValue(v) {
		h.log.Warn("serialize of value not owned by guest", zap.String("guest", g.name), zap.Stringer("handle", v))
		buf, l := h.putString(g, []byte(errors.InvalidHandle(errors.PhaseHost, "value", v).Error()))
		h.writeSerializeRet(g, ret, 0, 0, buf, l)
		return
	}

	res := h.engine.Serialize(v, engine.SerializeFlags(cfg))
	if !res.OK() {
		buf, l := h.moveString(g, res.Err)
		h.writeSerializeRet(g, ret, 0, 0, buf, l)
		return
	}
	buf, l := h.moveString(g, res.JSON)
	h.writeSerializeRet(g, ret, buf, l, 0, 0)
}

func (h *Host) writeDeserializeRet(g guest, ret uint32, v uint64, errBuf, errLen uint32) {
	h.putU64(g, ret+deserializeLayout.offs["value"], v)
	h.putPair(g, ret+deserializeLayout.offs["err"], errBuf, errLen)
}

func (h *Host) writeSerializeRet(g guest, ret, jsonBuf, jsonLen, errBuf, errLen uint32) {
	h.putPair(g, ret+serializeLayout.offs["json"], jsonBuf, jsonLen)
	h.putPair(g, ret+serializeLayout.offs["err"], errBuf, errLen)
}

func (h *Host) dropValue(led *ledger, name string, v engine.ValueHandle) {
	if !led.takeValue(v) {
		h.log.Warn("drop_value of value not owned by guest", zap.String("guest", name), zap.Stringer("handle", v))
		return
	}
	if err := h.engine.DropValue(v); err != nil {
		h.log.Warn("drop_value refused", zap.String("guest", name), zap.Error(err))
	}
}

func (h *Host) dropString(g guest, buf, n uint32) {
	if !g.led.takeString(buf, n) {
		h.log.Warn("drop_string of string not owned by guest",
			zap.String("guest", g.name), zap.Uint32("buf", buf), zap.Uint32("len", n))
		return
	}
	if err := g.alloc.Free(buf, n+1, 1); err != nil {
		panic(errors.Internal(errors.PhaseHost, err))
	}
}

// moveString copies an engine Owned-String into guest memory and drops the
// engine's copy.
func (h *Host) moveString(g guest, s engine.OwnedString) (uint32, uint32) {
	buf, n := h.putString(g, s.Bytes())
	if err := h.engine.Drop(s); err != nil {
		h.log.Warn("drop of host string failed", zap.Error(err))
	}
	return buf, n
}

// putString allocates len(data)+1 bytes in the guest, copies data with a
// trailing nul and records the string in the ledger.
func (h *Host) putString(g guest, data []byte) (uint32, uint32) {
	n := uint32(len(data))
	buf, err := g.alloc.Alloc(n+1, 1)
	if err != nil {
		ae := errors.AllocationFailed(errors.PhaseHost, int(n)+1)
		ae.Cause = err
		panic(ae)
	}
	if err := g.mem.Write(buf, data); err != nil {
		panic(errors.OutOfBounds(errors.PhaseHost, buf, n))
	}
	if err := g.mem.Write(buf+n, []byte{0}); err != nil {
		panic(errors.OutOfBounds(errors.PhaseHost, buf+n, 1))
	}
	g.led.addString(buf, n)
	return buf, n
}

func (h *Host) putU32(g guest, off, v uint32) {
	if err := g.mem.WriteU32(off, v); err != nil {
		panic(errors.OutOfBounds(errors.PhaseHost, off, 4))
	}
}

func (h *Host) putU64(g guest, off uint32, v uint64) {
	if err := g.mem.WriteU64(off, v); err != nil {
		panic(errors.OutOfBounds(errors.PhaseHost, off, 8))
	}
}

func (h *Host) putPair(g guest, off, buf, n uint32) {
	h.putU32(g, off, buf)
	h.putU32(g, off+4, n)
}
