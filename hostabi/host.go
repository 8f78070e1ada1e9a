package hostabi

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/jsonabi"
	"github.com/wippyai/jsonabi/engine"
	"github.com/wippyai/jsonabi/errors"
	"github.com/wippyai/jsonabi/internal/guestshim"
	"github.com/wippyai/jsonabi/internal/memory"
)

// DefaultModuleName is the import module guests link the functions from.
const DefaultModuleName = "jsonabi"

// Config holds host module settings. A nil *Config means all defaults.
type Config struct {
	// Engine is shared with other callers. Nil creates a private engine
	// from EngineConfig that Close shuts down.
	Engine       *engine.Engine
	EngineConfig *engine.Config

	// Logger overrides the package logger.
	Logger *zap.Logger

	// ModuleName defaults to DefaultModuleName.
	ModuleName string

	// ReallocName is the guest export used to allocate Owned-Strings.
	// Defaults to cabi_realloc.
	ReallocName string
}

// Host exposes an engine to wasm guests as a wazero host module. Every
// Owned-String it hands a guest lives in that guest's memory, and every
// value and string is tracked per guest so one guest cannot release or
// read what another owns.
type Host struct {
	engine     *engine.Engine
	ownsEngine bool
	log        *zap.Logger
	name       string
	realloc    string

	mu     sync.Mutex
	guests map[api.Module]*ledger
}

// New creates a host.
func New(cfg *Config) *Host {
	if cfg == nil {
		cfg = &Config{}
	}

	h := &Host{
		engine:  cfg.Engine,
		log:     cfg.Logger,
		name:    cfg.ModuleName,
		realloc: cfg.ReallocName,
		guests:  make(map[api.Module]*ledger),
	}
	if h.log == nil {
		h.log = Logger()
	}
	if h.engine == nil {
		h.engine = engine.New(cfg.EngineConfig)
		h.ownsEngine = true
	}
	if h.name == "" {
		h.name = DefaultModuleName
	}
	if h.realloc == "" {
		h.realloc = guestshim.ReallocName
	}
	return h
}

// Engine returns the engine behind the host.
func (h *Host) Engine() *engine.Engine { return h.engine }

// Name returns the host module name.
func (h *Host) Name() string { return h.name }

// Instantiate registers the host module in r.
func (h *Host) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(h.name)
	for _, f := range h.functions() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			Export(f.name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Registration(h.name, "module", err)
	}
	h.log.Debug("host module registered", zap.String("module", h.name))
	return mod, nil
}

// Release forgets a guest, dropping every value it still owns. Strings in
// its memory die with the guest. Release must not run concurrently with
// calls from that guest.
func (h *Host) Release(mod api.Module) (values, strings int) {
	h.mu.Lock()
	led, ok := h.guests[mod]
	delete(h.guests, mod)
	h.mu.Unlock()
	if !ok {
		return 0, 0
	}

	for v := range led.values {
		if err := h.engine.DropValue(v); err == nil {
			values++
		}
	}
	strings = len(led.strings)
	if values > 0 || strings > 0 {
		h.log.Warn("guest released with live resources",
			zap.String("guest", mod.Name()),
			zap.Int("values", values),
			zap.Int("strings", strings))
	}
	return values, strings
}

// Guests returns the number of guests that have called into the host.
func (h *Host) Guests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.guests)
}

// Close shuts down a private engine. A shared engine is left to its owner.
func (h *Host) Close() error {
	h.mu.Lock()
	clear(h.guests)
	h.mu.Unlock()
	if h.ownsEngine {
		return h.engine.Close()
	}
	return nil
}

func (h *Host) ledgerFor(mod api.Module) *ledger {
	h.mu.Lock()
	defer h.mu.Unlock()
	led, ok := h.guests[mod]
	if !ok {
		led = newLedger()
		h.guests[mod] = led
	}
	return led
}

// guest is the host's view of one calling module.
type guest struct {
	mem   jsonabi.Memory
	alloc jsonabi.Allocator
	led   *ledger
	name  string
}

// guestOf resolves the caller's memory and allocator. A guest without
// either cannot take part in the protocol and traps.
func (h *Host) guestOf(ctx context.Context, mod api.Module) guest {
	mem := memory.WrapMemory(mod.Memory())
	if mem == nil {
		panic(errors.NotInitialized(errors.PhaseHost, "guest memory"))
	}
	fn := mod.ExportedFunction(h.realloc)
	if fn == nil {
		panic(errors.NotInitialized(errors.PhaseHost, "guest "+h.realloc))
	}
	return guest{
		mem:   mem,
		alloc: memory.WrapAllocator(ctx, fn),
		led:   h.ledgerFor(mod),
		name:  mod.Name(),
	}
}
