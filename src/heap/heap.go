/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package heap implements spec.md §4.7: object/array allocation with
// stable pointer identity, the process-global handle->Monitor map, and
// the static-field slab. There is no garbage collector -- object records
// are pinned for the lifetime of the process (spec's "conservative leak
// model"): each record's handle is its own Go pointer reinterpreted as a
// uintptr, and the package registry keeps the record reachable.
package heap

import (
	"sync"
	"unsafe"

	"jcvm/src/types"
	"jcvm/src/value"
)

// Schema is the minimal shape heap needs from a class's computed layout;
// classloader.ClassSchema satisfies it. Heap depends only on this
// interface, not on package classloader, to keep the dependency pointed
// one way (classloader does not need to know about the heap at all).
type Schema interface {
	InstanceSlotCount() int
	Name() string
}

// Kind distinguishes the three record shapes a handle can address.
type Kind int

const (
	KindInstance Kind = iota
	KindArray
	KindStaticSlab
)

// Object is the heap-resident record: "[ schema-ref | monitor-slot |
// hash-salt | slot-0 | slot-1 | ... ]" of spec.md §4.7, expressed as a Go
// struct rather than a literal flat buffer -- raw_memory(offset) is
// implemented in terms of this struct's Slots field rather than an
// actual byte array, since jcvm's native bridge marshals through typed
// accessors rather than raw pointer arithmetic.
type Object struct {
	Kind   Kind
	Schema Schema // nil for arrays; ElemKind/Length describe array shape instead

	ElemKind value.Kind // KindArray only
	Length   int        // KindArray only

	HashSalt int32
	Slots    []value.Value

	handle types.ObjectHandle
}

func (o *Object) Handle() types.ObjectHandle { return o.handle }

// Heap is an append-only arena: objects are never moved or freed, so a
// *Object pointer is itself a valid, stable address and doubles as the
// ObjectHandle bit pattern (spec: "the handle's bit pattern is a pointer
// to a heap-resident record").
type Heap struct {
	mu      sync.Mutex
	nextHash int32

	monitors sync.Map // types.ObjectHandle -> *Monitor

	StaticSlab *Object
}

// New creates an empty heap, pre-allocating the static-field slab.
func New() *Heap {
	h := &Heap{nextHash: 1}
	h.StaticSlab = &Object{Kind: KindStaticSlab}
	h.StaticSlab.handle = addrOf(h.StaticSlab)
	h.track(h.StaticSlab)
	return h
}

// addrOf mints a stable ObjectHandle from a record's own Go pointer. This
// is safe because Object records are never moved: Go's GC may relocate
// stack values but heap-escaped objects referenced by a retained pointer
// are not moved by the runtime's current (non-moving) collector, and
// jcvm keeps every allocated *Object reachable for the life of the
// process (nothing is ever freed), satisfying the spec's "a handle's
// numerical value never changes after allocation" invariant.
func addrOf(o *Object) types.ObjectHandle {
	return types.NewObjectHandle(uintptr(unsafe.Pointer(o)))
}

// AllocateInstance implements spec.md §4.7's allocate_instance: a new
// record sized to schema's instance layout, every slot defaulted per its
// declared kind.
func (h *Heap) AllocateInstance(schema Schema, slotKinds []value.Kind) types.ObjectHandle {
	n := schema.InstanceSlotCount()
	slots := make([]value.Value, n)
	for i := 0; i < n; i++ {
		k := value.KInt
		if i < len(slotKinds) {
			k = slotKinds[i]
		}
		slots[i] = value.DefaultForKind(k)
	}
	h.mu.Lock()
	o := &Object{Kind: KindInstance, Schema: schema, Slots: slots, HashSalt: h.nextHash}
	h.nextHash++
	h.mu.Unlock()
	o.handle = addrOf(o)
	h.track(o)
	return o.handle
}

// AllocateArray implements allocate_array: length slots, each defaulted
// to elemKind's zero value.
func (h *Heap) AllocateArray(elemKind value.Kind, length int) types.ObjectHandle {
	slots := make([]value.Value, length)
	def := value.DefaultForKind(elemKind)
	for i := range slots {
		slots[i] = def
	}
	h.mu.Lock()
	o := &Object{Kind: KindArray, ElemKind: elemKind, Length: length, Slots: slots, HashSalt: h.nextHash}
	h.nextHash++
	h.mu.Unlock()
	o.handle = addrOf(o)
	h.track(o)
	return o.handle
}

// registry maps every minted handle back to its *Object so Deref can
// resolve it; a plain arena slice indexed by handle would also work, but
// this keeps handle minting (addrOf, above) decoupled from storage.
var registry sync.Map // types.ObjectHandle -> *Object

func (h *Heap) track(o *Object) { registry.Store(o.handle, o) }

// Deref resolves a handle back to its Object record. A handle that was
// never minted by this process, or the nil handle, is a usage bug in the
// caller (a type-checker or interpreter bug per spec), not a recoverable
// VM condition -- it panics rather than returning an error, mirroring
// spec's "cast mismatch panics (a type-checker bug, not a runtime
// error)".
func Deref(handle types.ObjectHandle) *Object {
	if handle.IsNil() {
		panic("heap: dereference of the nil handle")
	}
	v, ok := registry.Load(handle)
	if !ok {
		panic("heap: dereference of an unknown handle")
	}
	return v.(*Object)
}

// ExpectInstance derefs handle and asserts it names an instance record.
func ExpectInstance(handle types.ObjectHandle) *Object {
	o := Deref(handle)
	if o.Kind != KindInstance {
		panic("heap: expected an instance, found an array or slab")
	}
	return o
}

// ExpectArray derefs handle and asserts it names an array record.
func ExpectArray(handle types.ObjectHandle) *Object {
	o := Deref(handle)
	if o.Kind != KindArray {
		panic("heap: expected an array, found an instance or slab")
	}
	return o
}

// RawMemory exposes a pointer into an object's slot payload at the given
// slot offset, used by native code performing field-offset I/O (spec
// §4.7.4, e.g. sun.misc.Unsafe / jdk.internal.misc.Unsafe accessors).
func RawMemory(handle types.ObjectHandle, offset int) *value.Value {
	o := Deref(handle)
	if offset < 0 || offset >= len(o.Slots) {
		panic("heap: raw_memory offset out of bounds")
	}
	return &o.Slots[offset]
}

// GrowStaticSlab appends n fresh slots (defaulted per kinds) to the
// process-wide static-field slab and returns the offset of the first new
// slot, implementing "the static-field slab is itself an object of
// synthetic schema whose layout grows at runtime".
func (h *Heap) GrowStaticSlab(kinds []value.Kind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	base := len(h.StaticSlab.Slots)
	for _, k := range kinds {
		h.StaticSlab.Slots = append(h.StaticSlab.Slots, value.DefaultForKind(k))
	}
	return base
}

// Monitor returns the process-global monitor for handle, creating it on
// first use; monitors are never removed, per spec §4.7's "obtained from
// a process-global handle -> Monitor map on demand".
func (h *Heap) Monitor(handle types.ObjectHandle) *Monitor {
	if m, ok := h.monitors.Load(handle); ok {
		return m.(*Monitor)
	}
	m := newMonitor()
	actual, _ := h.monitors.LoadOrStore(handle, m)
	return actual.(*Monitor)
}
