/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package exceptions bridges jcvm-internal failure kinds (package
// vmerrors, package excnames) to the bytecode-visible Throws flow: it
// allocates a (schema-less, minimal) throwable instance on the heap, the
// way `new java/lang/ArithmeticException` would, without requiring the
// full standard-library class hierarchy to already be loaded -- a
// DomainError raised deep in array-bounds checking can't first go load
// and initialize ArrayIndexOutOfBoundsException's real class file if the
// bootstrap classpath isn't wired up yet (e.g. in unit tests that drive
// the interpreter directly against hand-built Code arrays).
package exceptions

import (
	"jcvm/src/excnames"
	"jcvm/src/heap"
	"jcvm/src/types"
	"jcvm/src/value"
)

// minimalSchema satisfies heap.Schema for a synthetic throwable record
// that carries nothing but its class name and message -- enough for
// catch-type matching and for java/lang/Throwable.getMessage() to work
// once the gfunction shims are wired to read MessageSlot.
type minimalSchema struct {
	className string
}

func (m *minimalSchema) Name() string            { return m.className }
func (m *minimalSchema) InstanceSlotCount() int   { return 1 } // slot 0 = message

const MessageSlot = 0

// Registry is the minimal dependency exceptions needs to manufacture a
// throwable: a heap to allocate into. It's a tiny interface (rather than
// a concrete *heap.Heap) purely so tests can fake it cheaply.
type Registry interface {
	AllocateInstance(schema heap.Schema, slotKinds []value.Kind) types.ObjectHandle
}

// messages holds the string payload for synthetic throwables, keyed by
// handle, since the minimal schema has no backing java/lang/String
// instance to point the reference slot at until the string-construction
// machinery (gfunction's java/lang/String shims) is wired to a live
// heap. This is a deliberate seam: once bootstrap brings up a real
// java/lang/String class, New should construct one and store its handle
// in MessageSlot instead of this side table.
var messages = map[types.ObjectHandle]string{}

// New allocates a minimal throwable of the named JVM class, with its
// message stashed for later retrieval, and returns its handle.
func New(h Registry, className, message string) types.ObjectHandle {
	handle := h.AllocateInstance(&minimalSchema{className: className}, []value.Kind{value.KReference})
	messages[handle] = message
	return handle
}

// Of is a convenience wrapper for the common case of raising one of
// jcvm's own well-known exception kinds (package excnames).
func Of(h Registry, kind excnames.ExceptionType, message string) types.ObjectHandle {
	return New(h, excnames.Name(kind), message)
}

// Message returns the text stashed for a throwable minted by New.
func Message(handle types.ObjectHandle) (string, bool) {
	m, ok := messages[handle]
	return m, ok
}

// ClassNameOf returns the class name a handle minted by New (or a real
// instance, once wired) was raised as. For a synthetic throwable, this
// is the schema's own Name(); for a real loaded-class instance, callers
// should instead use the instance's heap.Object.Schema.Name().
func ClassNameOf(handle types.ObjectHandle) string {
	o := heap.Deref(handle)
	if o.Schema != nil {
		return o.Schema.Name()
	}
	return ""
}
