// Package memory adapts wazero guest memory and cabi_realloc to the root
// Memory and Allocator interfaces.
//
//	mem := memory.WrapMemory(mod.Memory())
//	alloc := memory.WrapAllocator(ctx, mod.ExportedFunction("cabi_realloc"))
//
// This package is internal to the host ABI and should not be used directly.
package memory
