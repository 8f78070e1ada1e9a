// Package guestshim emits small wasm guest modules byte by byte.
//
// The generated guest imports a set of host functions, re-exports them
// under the same names, and exports its memory with a cabi_realloc bump
// allocator. Host code can then drive the host functions through a real
// guest boundary without a toolchain-built module.
//
//	b := guestshim.NewBuilder("jsonabi")
//	b.AddFunc("drop_value", []api.ValueType{api.ValueTypeI64}, nil)
//	wasm := b.Build()
package guestshim
