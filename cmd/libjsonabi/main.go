// Command libjsonabi builds the engine as a C shared library:
//
//	go build -buildmode=c-shared -o libjsonabi.so ./cmd/libjsonabi
//
// The generated libjsonabi.h declares the four boundary functions plus
// jsonabi_parse_dom for benchmark drivers. Owned-Strings are allocated with
// malloc and must be returned through jsonabi_drop_string. Set JSONABI_LOG
// to enable development logging on stderr.
package main

/*
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>

#define JSONABI_DESERIALIZE_RAW_NUMBER 1
#define JSONABI_DESERIALIZE_RAW_VALUE 2
#define JSONABI_DESERIALIZE_UTF8_LOSSY 4
#define JSONABI_SERIALIZE_PRETTY 1

typedef struct JsonabiString {
	const void *buf;
	uintptr_t len;
} JsonabiString;

typedef struct JsonabiDeserializeRet {
	uint64_t value;
	JsonabiString err;
} JsonabiDeserializeRet;

typedef struct JsonabiSerializeRet {
	JsonabiString json;
	JsonabiString err;
} JsonabiSerializeRet;
*/
import "C"

import (
	"os"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/jsonabi/bench"
	"github.com/wippyai/jsonabi/engine"
	"github.com/wippyai/jsonabi/errors"
)

var (
	once sync.Once
	eng  *engine.Engine
)

func shared() *engine.Engine {
	once.Do(func() {
		cfg := &engine.Config{Allocator: &cAllocator{led: newLedger(0)}}
		if os.Getenv("JSONABI_LOG") != "" {
			if log, err := zap.NewDevelopment(); err == nil {
				cfg.Logger = log
			}
		}
		eng = engine.New(cfg)
	})
	return eng
}

// cAllocator hands out malloc'd buffers the caller may hold across calls.
type cAllocator struct {
	led *ledger
}

func (a *cAllocator) Alloc(data []byte) (unsafe.Pointer, error) {
	size := uintptr(len(data)) + 1
	if err := a.led.reserve(size); err != nil {
		return nil, err
	}
	p := C.malloc(C.size_t(size))
	if p == nil {
		return nil, errors.AllocationFailed(errors.PhaseAlloc, int(size))
	}
	buf := unsafe.Slice((*byte)(p), size)
	copy(buf, data)
	buf[len(data)] = 0
	a.led.add(uintptr(p), uintptr(len(data)))
	return p, nil
}

// Pin returns a malloc'd copy of data that is never freed.
func (a *cAllocator) Pin(data []byte) (unsafe.Pointer, error) {
	size := uintptr(len(data)) + 1
	p := C.malloc(C.size_t(size))
	if p == nil {
		return nil, errors.AllocationFailed(errors.PhaseAlloc, int(size))
	}
	buf := unsafe.Slice((*byte)(p), size)
	copy(buf, data)
	buf[len(data)] = 0
	return p, nil
}

func (a *cAllocator) Free(buf unsafe.Pointer, n uintptr) error {
	if err := a.led.take(uintptr(buf), n); err != nil {
		return err
	}
	C.free(buf)
	return nil
}

func (a *cAllocator) Live() int { return a.led.len() }

func cString(s engine.OwnedString) C.JsonabiString {
	return C.JsonabiString{buf: s.Buf, len: C.uintptr_t(s.Len)}
}

func input(json *C.char, n C.uintptr_t) []byte {
	if json == nil {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(json)), int(n))
}

//export jsonabi_deserialize_value
func jsonabi_deserialize_value(json *C.char, n C.uintptr_t, cfg C.uint64_t) C.JsonabiDeserializeRet {
	r := shared().Deserialize(input(json, n), engine.DeserializeFlags(cfg))
	return C.JsonabiDeserializeRet{value: C.uint64_t(r.Value), err: cString(r.Err)}
}

//export jsonabi_serialize_value
func jsonabi_serialize_value(value C.uint64_t, cfg C.uint64_t) C.JsonabiSerializeRet {
	r := shared().Serialize(engine.ValueHandle(value), engine.SerializeFlags(cfg))
	return C.JsonabiSerializeRet{json: cString(r.JSON), err: cString(r.Err)}
}

//export jsonabi_drop_value
func jsonabi_drop_value(value C.uint64_t) {
	_ = shared().DropValue(engine.ValueHandle(value))
}

//export jsonabi_drop_string
func jsonabi_drop_string(buf unsafe.Pointer, n C.uint64_t) {
	_ = shared().DropString(buf, uintptr(n))
}

//export jsonabi_parse_dom
func jsonabi_parse_dom(json *C.char, n C.uintptr_t) C.bool {
	pr := probes.Get().(bench.Probe)
	ok := pr.Parse(input(json, n))
	probes.Put(pr)
	return C.bool(ok)
}

var probes = sync.Pool{New: func() any { return bench.Native(0) }}

func main() {}
