// Package hostabi exposes the engine to WebAssembly guests as a wazero host
// module.
//
// # Functions
//
// Guests import these from the "jsonabi" module:
//
//	deserialize(json_ptr i32, json_len i32, cfg i64, ret_ptr i32)
//	    ret: value u64 @0, err.buf u32 @8, err.len u32 @12
//	serialize(value i64, cfg i64, ret_ptr i32)
//	    ret: json.buf u32 @0, json.len u32 @4, err.buf u32 @8, err.len u32 @12
//	drop_value(value i64)
//	drop_string(buf i32, len i32)
//
// These are the canonical ABI lowering of
//
//	deserialize: func(json: list<u8>, cfg: u64) -> record { value: u64, err: string }
//	serialize: func(value: u64, cfg: u64) -> record { json: string, err: string }
//
// with each record returned through ret_ptr.
//
// Exactly one arm of each result is populated; an empty arm is all zeros.
// Owned-Strings are allocated in guest memory through the guest's
// cabi_realloc(0, 0, 1, len+1), carry a trailing nul, and go back through
// drop_string, which frees them with cabi_realloc(buf, len+1, 1, 0).
//
// # Ownership
//
// The host keeps a ledger per guest. A guest can only serialize or drop
// values it created and drop strings it was given; anything else is
// refused with a warning. Memory accesses out of bounds trap the call.
//
//	host := hostabi.New(nil)
//	if _, err := host.Instantiate(ctx, rt); err != nil {
//	    return err
//	}
//	mod, err := rt.Instantiate(ctx, guestWasm)
//	...
//	host.Release(mod)
//
// # Loopback
//
// Loopback pairs the host module with a generated guest that re-exports
// the four functions, so Go code can run the guest side of the protocol:
//
//	lb, err := hostabi.NewLoopback(ctx, nil)
//	h, err := lb.Deserialize(ctx, data, engine.DeserializeRawNumber)
//	out, err := lb.Serialize(ctx, h, engine.SerializePretty)
//	lb.DropValue(ctx, h)
package hostabi
