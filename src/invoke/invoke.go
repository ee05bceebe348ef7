/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package invoke implements spec.md §4.9: method resolution (static,
// special, virtual, interface), frame construction, and native-vs-
// bytecode dispatch. It is the concrete interp.Runtime -- the seam
// flowcontrol.go's doc comment describes -- so this package imports
// interp and calls interp.Run to execute a callee's bytecode, while
// interp itself never imports invoke.
package invoke

import (
	"jcvm/src/classfile"
	"jcvm/src/classloader"
	"jcvm/src/exceptions"
	"jcvm/src/excnames"
	"jcvm/src/heap"
	"jcvm/src/interp"
	"jcvm/src/thread"
	"jcvm/src/types"
	"jcvm/src/value"
)

// NativeDispatcher is the native bridge's entry point, implemented by
// package native; kept as an interface here (rather than a direct
// import) for the same reason interp.Runtime is an interface --
// package native will need to call back into package invoke to resolve
// JNI-style object operations, so invoke cannot import native directly.
type NativeDispatcher interface {
	CallNative(className, methodName, methodDesc string, self types.ObjectHandle, args []value.Value, iv *Invoker) (value.Value, bool, error)
}

// Invoker is the per-thread execution context: one Invoker drives one
// thread's call stack, sharing the process-wide Loader/Heap with every
// other thread's Invoker.
type Invoker struct {
	Loader *classloader.Loader
	Heap   *heap.Heap
	Thread *thread.Info
	Native NativeDispatcher

	inInit map[string]bool // classes this thread is already initializing (reentrant clinit guard)
}

// New creates an Invoker bound to one thread.
func New(loader *classloader.Loader, h *heap.Heap, t *thread.Info, native NativeDispatcher) *Invoker {
	return &Invoker{Loader: loader, Heap: h, Thread: t, Native: native, inInit: make(map[string]bool)}
}

// ForThread returns a new Invoker sharing this one's Loader/Heap/Native
// but bound to a different thread, for spawning a new Java thread.
func (iv *Invoker) ForThread(t *thread.Info) *Invoker {
	return New(iv.Loader, iv.Heap, t, iv.Native)
}

func (iv *Invoker) ThreadInfo() *thread.Info { return iv.Thread }

func (iv *Invoker) NewException(kind excnames.ExceptionType, message string) types.ObjectHandle {
	return exceptions.Of(iv.Heap, kind, message)
}

// --- Class initialization trigger (spec.md §4.8.5 / §4.6) ---

// ensureInitialized drives className through Unloaded->Loaded (via the
// classloader, recursively loading supers) and then, the first time
// anyone asks, Loaded->Initializing->Initialized: materializing its own
// static-field storage and running <clinit> if present. It returns the
// loaded entry, or a non-nil FlowControl if loading or <clinit> itself
// raised an exception.
// EnsureInitialized exposes ensureInitialized to callers outside this
// package -- src/bootstrap drives the five core classes of spec.md's
// Bootstrap row (§2) through loading and <clinit> before any
// application bytecode runs, with no field/method/new opcode of its own
// to trigger the same lazy path.
func (iv *Invoker) EnsureInitialized(className string) (*classloader.Entry, interp.FlowControl) {
	return iv.ensureInitialized(className)
}

func (iv *Invoker) ensureInitialized(className string) (*classloader.Entry, interp.FlowControl) {
	entry, res := iv.Loader.AttemptLoad(className)
	if res != classloader.Loaded {
		return nil, interp.Throws(iv.NewException(excnames.NoSuchMethodError, "cannot load class "+className))
	}
	if entry.Schema.Parent != nil {
		if _, fc := iv.ensureInitialized(entry.Schema.Parent.ClassName); fc.Kind == interp.FlowThrows {
			return nil, fc
		}
	}
	if !entry.BeginInitializing() {
		return entry, interp.FlowControl{}
	}
	iv.materializeStatics(entry.Schema)
	if entry.ClInit == types.ClInitNotRun {
		if iv.inInit[className] {
			entry.FinishInitializing()
			return entry, interp.FlowControl{}
		}
		iv.inInit[className] = true
		fc := iv.runClinit(entry)
		delete(iv.inInit, className)
		entry.ClInit = types.ClInitRun
		if fc.Kind == interp.FlowThrows {
			entry.FinishInitializing()
			return nil, fc
		}
	}
	entry.FinishInitializing()
	return entry, interp.FlowControl{}
}

// materializeStatics grows the static slab for schema's own static
// fields, exactly once, and records their offsets in schema.StaticFields.
func (iv *Invoker) materializeStatics(schema *classloader.Schema) {
	if len(schema.OwnStaticFields) == 0 {
		return
	}
	kinds := make([]value.Kind, len(schema.OwnStaticFields))
	for i, f := range schema.OwnStaticFields {
		kinds[i] = f.Kind
	}
	base := iv.Heap.GrowStaticSlab(kinds)
	for i, f := range schema.OwnStaticFields {
		schema.StaticFields[f.Name] = base + i
	}
}

func (iv *Invoker) runClinit(entry *classloader.Entry) interp.FlowControl {
	for _, m := range entry.File.Methods {
		if m.Name == "<clinit>" && m.Descriptor == "()V" {
			return iv.invokeMethodInfo(entry.File, &m, nil, types.NilHandle)
		}
	}
	return interp.FlowControl{}
}

// --- Field access ---

func (iv *Invoker) GetField(handle types.ObjectHandle, cpIndex int, pool *classfile.ClassFile) (value.Value, interp.FlowControl) {
	_, name, _, err := pool.Pool.RefClassAndNameAndType(uint16(cpIndex))
	if err != nil {
		return value.Value{}, interp.Throws(iv.NewException(excnames.NoSuchFieldError, err.Error()))
	}
	obj := heap.ExpectInstance(handle)
	cs, ok := obj.Schema.(*classloader.Schema)
	if !ok {
		return value.Value{}, interp.Throws(iv.NewException(excnames.NoSuchFieldError, name))
	}
	idx, ok := cs.SlotIndex(name)
	if !ok {
		return value.Value{}, interp.Throws(iv.NewException(excnames.NoSuchFieldError, name))
	}
	return obj.Slots[idx], interp.FlowControl{}
}

func (iv *Invoker) PutField(handle types.ObjectHandle, v value.Value, cpIndex int, pool *classfile.ClassFile) interp.FlowControl {
	_, name, _, err := pool.Pool.RefClassAndNameAndType(uint16(cpIndex))
	if err != nil {
		return interp.Throws(iv.NewException(excnames.NoSuchFieldError, err.Error()))
	}
	obj := heap.ExpectInstance(handle)
	cs, ok := obj.Schema.(*classloader.Schema)
	if !ok {
		return interp.Throws(iv.NewException(excnames.NoSuchFieldError, name))
	}
	idx, ok := cs.SlotIndex(name)
	if !ok {
		return interp.Throws(iv.NewException(excnames.NoSuchFieldError, name))
	}
	obj.Slots[idx] = v
	return interp.FlowControl{}
}

func (iv *Invoker) GetStatic(cpIndex int, pool *classfile.ClassFile) (value.Value, interp.FlowControl) {
	class, name, _, err := pool.Pool.RefClassAndNameAndType(uint16(cpIndex))
	if err != nil {
		return value.Value{}, interp.Throws(iv.NewException(excnames.NoSuchFieldError, err.Error()))
	}
	entry, fc := iv.ensureInitialized(class)
	if fc.Kind == interp.FlowThrows {
		return value.Value{}, fc
	}
	_, offset, ok := entry.Schema.StaticSlotIndex(name)
	if !ok {
		return value.Value{}, interp.Throws(iv.NewException(excnames.NoSuchFieldError, name))
	}
	return *heap.RawMemory(iv.Heap.StaticSlab.Handle(), offset), interp.FlowControl{}
}

func (iv *Invoker) PutStatic(v value.Value, cpIndex int, pool *classfile.ClassFile) interp.FlowControl {
	class, name, _, err := pool.Pool.RefClassAndNameAndType(uint16(cpIndex))
	if err != nil {
		return interp.Throws(iv.NewException(excnames.NoSuchFieldError, err.Error()))
	}
	entry, fc := iv.ensureInitialized(class)
	if fc.Kind == interp.FlowThrows {
		return fc
	}
	_, offset, ok := entry.Schema.StaticSlotIndex(name)
	if !ok {
		return interp.Throws(iv.NewException(excnames.NoSuchFieldError, name))
	}
	*heap.RawMemory(iv.Heap.StaticSlab.Handle(), offset) = v
	return interp.FlowControl{}
}

// --- Object allocation, casts, monitors ---

func (iv *Invoker) New(cpIndex int, pool *classfile.ClassFile) (types.ObjectHandle, interp.FlowControl) {
	className, err := pool.Pool.ClassName(uint16(cpIndex))
	if err != nil {
		return types.NilHandle, interp.Throws(iv.NewException(excnames.NoSuchMethodError, err.Error()))
	}
	entry, fc := iv.ensureInitialized(className)
	if fc.Kind == interp.FlowThrows {
		return types.NilHandle, fc
	}
	h := iv.Heap.AllocateInstance(entry.Schema, entry.Schema.SlotKinds())
	return h, interp.FlowControl{}
}

func (iv *Invoker) CheckCast(handle types.ObjectHandle, cpIndex int, pool *classfile.ClassFile) interp.FlowControl {
	className, err := pool.Pool.ClassName(uint16(cpIndex))
	if err != nil {
		return interp.Throws(iv.NewException(excnames.ClassCastException, err.Error()))
	}
	ok, fc := iv.InstanceOf(handle, cpIndex, pool)
	if fc.Kind == interp.FlowThrows {
		return fc
	}
	if !ok {
		return interp.Throws(iv.NewException(excnames.ClassCastException, className))
	}
	return interp.FlowControl{}
}

func (iv *Invoker) InstanceOf(handle types.ObjectHandle, cpIndex int, pool *classfile.ClassFile) (bool, interp.FlowControl) {
	className, err := pool.Pool.ClassName(uint16(cpIndex))
	if err != nil {
		return false, interp.Throws(iv.NewException(excnames.NoSuchMethodError, err.Error()))
	}
	return iv.IsSubtypeOf(handle, className), interp.FlowControl{}
}

// IsSubtypeOf implements the hook interp.isSubtypeOf reaches for via a
// type assertion on Runtime, so the exception-table scan's catch-type
// test never needs a direct heap/classloader import from package interp.
func (iv *Invoker) IsSubtypeOf(handle types.ObjectHandle, className string) bool {
	o := heap.Deref(handle)
	if o.Kind == heap.KindArray {
		return className == "java/lang/Object"
	}
	cs, ok := o.Schema.(*classloader.Schema)
	if !ok {
		return false
	}
	return cs.IsSubtypeOf(className)
}

func (iv *Invoker) MonitorEnter(handle types.ObjectHandle) interp.FlowControl {
	iv.Heap.Monitor(handle).Enter(iv.Thread.ID)
	return interp.FlowControl{}
}

func (iv *Invoker) MonitorExit(handle types.ObjectHandle) interp.FlowControl {
	m := iv.Heap.Monitor(handle)
	if !m.HeldBy(iv.Thread.ID) {
		return interp.Throws(iv.NewException(excnames.IllegalMonitorStateException, "monitorexit by a thread that does not own the monitor"))
	}
	m.Exit(iv.Thread.ID)
	return interp.FlowControl{}
}

// --- Arrays ---

func (iv *Invoker) NewArray(atype int, length int32) (types.ObjectHandle, interp.FlowControl) {
	k := atypeToKind(atype)
	return iv.Heap.AllocateArray(k, int(length)), interp.FlowControl{}
}

func (iv *Invoker) ANewArray(cpIndex int, length int32, pool *classfile.ClassFile) (types.ObjectHandle, interp.FlowControl) {
	return iv.Heap.AllocateArray(value.KReference, int(length)), interp.FlowControl{}
}

func (iv *Invoker) MultiANewArray(cpIndex int, dims []int32, pool *classfile.ClassFile) (types.ObjectHandle, interp.FlowControl) {
	return iv.buildDimension(dims)
}

func (iv *Invoker) buildDimension(dims []int32) (types.ObjectHandle, interp.FlowControl) {
	if dims[0] < 0 {
		return types.NilHandle, interp.Throws(iv.NewException(excnames.NegativeArraySizeException, "multianewarray with negative dimension"))
	}
	n := int(dims[0])
	if len(dims) == 1 {
		h := iv.Heap.AllocateArray(value.KReference, n)
		return h, interp.FlowControl{}
	}
	h := iv.Heap.AllocateArray(value.KReference, n)
	arr := heap.ExpectArray(h)
	for i := 0; i < n; i++ {
		sub, fc := iv.buildDimension(dims[1:])
		if fc.Kind == interp.FlowThrows {
			return types.NilHandle, fc
		}
		arr.Slots[i] = value.Reference(sub)
	}
	return h, interp.FlowControl{}
}

func (iv *Invoker) ArrayLength(handle types.ObjectHandle) (int32, interp.FlowControl) {
	arr := heap.ExpectArray(handle)
	return int32(arr.Length), interp.FlowControl{}
}

func (iv *Invoker) ArrayLoad(handle types.ObjectHandle, index int32) (value.Value, interp.FlowControl) {
	arr := heap.ExpectArray(handle)
	if index < 0 || int(index) >= arr.Length {
		return value.Value{}, interp.Throws(iv.NewException(excnames.ArrayIndexOutOfBoundsException, "array index out of range"))
	}
	return arr.Slots[index], interp.FlowControl{}
}

func (iv *Invoker) ArrayStore(handle types.ObjectHandle, index int32, v value.Value) interp.FlowControl {
	arr := heap.ExpectArray(handle)
	if index < 0 || int(index) >= arr.Length {
		return interp.Throws(iv.NewException(excnames.ArrayIndexOutOfBoundsException, "array index out of range"))
	}
	arr.Slots[index] = v
	return interp.FlowControl{}
}

func atypeToKind(atype int) value.Kind {
	switch atype {
	case 4:
		return value.KBoolean
	case 5:
		return value.KChar
	case 6:
		return value.KFloat
	case 7:
		return value.KDouble
	case 8:
		return value.KByte
	case 9:
		return value.KShort
	case 10:
		return value.KInt
	case 11:
		return value.KLong
	default:
		return value.KInt
	}
}

// --- Load constant ---

func (iv *Invoker) LoadConstant(cpIndex int, wide bool, pool *classfile.ClassFile) (value.Value, interp.FlowControl) {
	return iv.loadConstantImpl(cpIndex, pool)
}
