// Package resource provides handle tables for values that cross an
// ownership boundary.
//
// A Table maps opaque 64-bit handles to Go values. Callers receive a
// handle on Insert and must Remove it exactly once; the table never frees a
// value on its own.
//
//	table := resource.NewTable[*Document]()
//	h := table.Insert(doc)
//	doc, ok := table.Get(h)
//	doc, err := table.Remove(h)
//
// # Handles
//
// The low 32 bits of a handle are the slot number plus one, the high 32
// bits the slot generation. Removing a value bumps the generation, so a
// second Remove, or a Get through a stale copy of the handle, fails with
// ErrInvalidHandle even after the slot has been reused.
//
// # Borrows
//
// Borrow pins a value for the duration of an operation. Remove refuses a
// borrowed value with ErrOutstandingBorrow until every borrow is released.
//
// # Observers
//
// Observers receive created, dropped, borrowed and borrow_returned events:
//
//	table.Subscribe(myObserver)
//
// Values implementing Dropper have Drop called when they leave the table,
// including through Close.
package resource
