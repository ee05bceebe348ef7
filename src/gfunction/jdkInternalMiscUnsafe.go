/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"sync"

	"jcvm/src/heap"
	"jcvm/src/invoke"
	"jcvm/src/native"
	"jcvm/src/types"
	"jcvm/src/value"
)

// registerUnsafe wires the subset of sun/misc/Unsafe (mirrored verbatim
// on jdk/internal/misc/Unsafe in modern JDKs) that operates on jcvm's
// own heap.RawMemory offsets, grounded on rust_jvm's java_unsafe.rs --
// the object+offset get/put family, a CAS family built on a package
// mutex rather than rust_jvm's per-field atomics (jcvm's Value slots
// aren't independently atomic-addressable the way a Rust AtomicI32
// transmute is), and the handful of sizing/fence/monitor natives that
// are pure constants or already-built heap.Monitor calls. Reflection-
// backed entry points (objectFieldOffset(Field), staticFieldOffset,
// allocateInstance(Class)) are not wired: they need a java/lang/reflect
// .Field/.Class object model this VM doesn't have yet.
func registerUnsafe(b *native.Bridge) {
	for _, class := range []string{"sun/misc/Unsafe", "jdk/internal/misc/Unsafe"} {
		b.Register(class, "getInt", "(Ljava/lang/Object;J)I", unsafeGetInt)
		b.Register(class, "putInt", "(Ljava/lang/Object;JI)V", unsafePutInt)
		b.Register(class, "getIntVolatile", "(Ljava/lang/Object;J)I", unsafeGetInt)
		b.Register(class, "putIntVolatile", "(Ljava/lang/Object;JI)V", unsafePutInt)
		b.Register(class, "getLong", "(Ljava/lang/Object;J)J", unsafeGetLong)
		b.Register(class, "putLong", "(Ljava/lang/Object;JJ)V", unsafePutLong)
		b.Register(class, "getLongVolatile", "(Ljava/lang/Object;J)J", unsafeGetLong)
		b.Register(class, "putLongVolatile", "(Ljava/lang/Object;JJ)V", unsafePutLong)
		b.Register(class, "getBoolean", "(Ljava/lang/Object;J)Z", unsafeGetBoolean)
		b.Register(class, "putBoolean", "(Ljava/lang/Object;JZ)V", unsafePutBoolean)
		b.Register(class, "getObject", "(Ljava/lang/Object;J)Ljava/lang/Object;", unsafeGetObject)
		b.Register(class, "putObject", "(Ljava/lang/Object;JLjava/lang/Object;)V", unsafePutObject)
		b.Register(class, "getObjectVolatile", "(Ljava/lang/Object;J)Ljava/lang/Object;", unsafeGetObject)
		b.Register(class, "putObjectVolatile", "(Ljava/lang/Object;JLjava/lang/Object;)V", unsafePutObject)

		b.Register(class, "compareAndSwapInt", "(Ljava/lang/Object;JII)Z", unsafeCASInt)
		b.Register(class, "compareAndSwapLong", "(Ljava/lang/Object;JJJ)Z", unsafeCASLong)
		b.Register(class, "compareAndSwapObject", "(Ljava/lang/Object;JLjava/lang/Object;Ljava/lang/Object;)Z", unsafeCASObject)

		b.Register(class, "arrayBaseOffset", "(Ljava/lang/Class;)I", unsafeArrayBaseOffset)
		b.Register(class, "arrayIndexScale", "(Ljava/lang/Class;)I", unsafeArrayIndexScale)
		b.Register(class, "addressSize", "()I", unsafeAddressSize)
		b.Register(class, "pageSize", "()I", unsafePageSize)

		b.Register(class, "loadFence", "()V", unsafeNoopFence)
		b.Register(class, "storeFence", "()V", unsafeNoopFence)
		b.Register(class, "fullFence", "()V", unsafeNoopFence)

		b.Register(class, "monitorEnter", "(Ljava/lang/Object;)V", unsafeMonitorEnter)
		b.Register(class, "monitorExit", "(Ljava/lang/Object;)V", unsafeMonitorExit)
	}
}

func unsafeGetInt(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	slot := heap.RawMemory(args[0].Ref, int(args[1].Int64()))
	return value.Int(slot.Int32()), true, nil
}

func unsafePutInt(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	slot := heap.RawMemory(args[0].Ref, int(args[1].Int64()))
	*slot = value.Int(args[2].Int32())
	return value.Value{}, false, nil
}

func unsafeGetLong(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	slot := heap.RawMemory(args[0].Ref, int(args[1].Int64()))
	return value.Long(slot.Int64()), true, nil
}

func unsafePutLong(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	slot := heap.RawMemory(args[0].Ref, int(args[1].Int64()))
	*slot = value.Long(args[2].Int64())
	return value.Value{}, false, nil
}

func unsafeGetBoolean(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	slot := heap.RawMemory(args[0].Ref, int(args[1].Int64()))
	return value.Boolean(slot.Int64() != 0), true, nil
}

func unsafePutBoolean(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	slot := heap.RawMemory(args[0].Ref, int(args[1].Int64()))
	*slot = value.Boolean(args[2].Int32() != 0)
	return value.Value{}, false, nil
}

func unsafeGetObject(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	slot := heap.RawMemory(args[0].Ref, int(args[1].Int64()))
	return value.Reference(slot.Ref), true, nil
}

func unsafePutObject(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	slot := heap.RawMemory(args[0].Ref, int(args[1].Int64()))
	*slot = value.Reference(args[2].Ref)
	return value.Value{}, false, nil
}

// casMu serializes Unsafe's compare-and-swap family: jcvm's value.Value
// slots have no per-field atomic primitive of their own (unlike
// rust_jvm's AtomicI32/AtomicPtr transmutes), so CAS here is a single
// global-mutex read-compare-write rather than a lock-free one.
var casMu sync.Mutex

func unsafeCASInt(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	casMu.Lock()
	defer casMu.Unlock()
	slot := heap.RawMemory(args[0].Ref, int(args[1].Int64()))
	if slot.Int32() != args[2].Int32() {
		return value.Boolean(false), true, nil
	}
	*slot = value.Int(args[3].Int32())
	return value.Boolean(true), true, nil
}

func unsafeCASLong(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	casMu.Lock()
	defer casMu.Unlock()
	slot := heap.RawMemory(args[0].Ref, int(args[1].Int64()))
	if slot.Int64() != args[2].Int64() {
		return value.Boolean(false), true, nil
	}
	*slot = value.Long(args[3].Int64())
	return value.Boolean(true), true, nil
}

func unsafeCASObject(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	casMu.Lock()
	defer casMu.Unlock()
	slot := heap.RawMemory(args[0].Ref, int(args[1].Int64()))
	if slot.Ref != args[2].Ref {
		return value.Boolean(false), true, nil
	}
	*slot = value.Reference(args[3].Ref)
	return value.Boolean(true), true, nil
}

// unsafeArrayBaseOffset/unsafeArrayIndexScale answer in slot units, not
// bytes: jcvm's arrays are []value.Value, each element one slot
// regardless of its Java element kind, so base offset 0 / scale 1 is
// the faithful analogue of rust_jvm's byte-sized equivalents, and it
// keeps these values usable directly as heap.RawMemory offsets.
func unsafeArrayBaseOffset(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return value.Int(0), true, nil
}

func unsafeArrayIndexScale(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return value.Int(1), true, nil
}

func unsafeAddressSize(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return value.Int(8), true, nil
}

func unsafePageSize(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return value.Int(4096), true, nil
}

func unsafeNoopFence(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return value.Value{}, false, nil
}

func unsafeMonitorEnter(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	iv.Heap.Monitor(args[0].Ref).Enter(iv.Thread.ID)
	return value.Value{}, false, nil
}

func unsafeMonitorExit(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	iv.Heap.Monitor(args[0].Ref).Exit(iv.Thread.ID)
	return value.Value{}, false, nil
}
