// Package engine implements the opaque-value boundary protocol.
//
// Four operations make up the whole surface:
//
//	res := eng.Deserialize(data, engine.DeserializeRawNumber)
//	if !res.OK() {
//		log.Print(res.Err.String())
//		eng.Drop(res.Err)
//		return
//	}
//	out := eng.Serialize(res.Value, engine.SerializePretty)
//	fmt.Println(out.JSON.String())
//	eng.Drop(out.JSON)
//	eng.DropValue(res.Value)
//
// # Ownership
//
// Every result carries exactly one populated arm. The caller owns whatever
// was handed out and releases it exactly once: values through DropValue,
// Owned-Strings through DropString with the same pointer and length. Strings
// are allocated by the engine's StringAllocator and always end in a nul byte
// that is not counted in Len.
//
// The protocol leaves double drops and foreign handles undefined. This
// engine detects them through generation-checked handles and an allocation
// registry, logs a warning and returns an invalid_handle error.
//
// # Configuration
//
// DeserializeFlags and SerializeFlags are separate bit namespaces. They are
// decoded into parser and writer options at the start of each call, and
// unknown bits are ignored.
package engine
