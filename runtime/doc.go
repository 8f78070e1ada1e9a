// Package runtime provides an ownership-checked Go API over the engine.
//
// # Quick Start
//
//	rt := runtime.New(nil)
//	defer rt.Close()
//
//	doc, err := rt.Parse([]byte(`{"a":1}`), engine.DeserializeRawNumber)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
//	out, err := doc.Marshal(engine.SerializePretty)
//
// # Ownership
//
// A Document owns exactly one engine value. Close releases it; a second
// Close returns ErrReleased without touching the engine. Move hands the
// value to a new Document and leaves the source empty, so a value passed
// to another goroutine or stored elsewhere has a single owner:
//
//	owned := doc.Move()
//	go consume(owned) // doc.Close() is now a harmless ErrReleased
//
// Errors from Parse and Marshal are *errors.Error values; branch on their
// Kind, not their text. Text goes through the boundary Serialize and
// reports failures as an engine.BoundaryError holding the engine's message.
package runtime
