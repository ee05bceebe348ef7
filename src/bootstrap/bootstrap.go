/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package bootstrap implements spec.md §2's Bootstrap row: first-class
// initialization of Object/Class/String/Thread/ThreadGroup, the main
// thread's own java/lang/Thread instance, and system-property
// installation, all before any application bytecode runs -- the
// host-side counterpart of jmeggitt/rust_jvm's
// first_time_sys_thread_init.
package bootstrap

import (
	"jcvm/src/classloader"
	"jcvm/src/heap"
	"jcvm/src/interp"
	"jcvm/src/invoke"
	"jcvm/src/native"
	"jcvm/src/thread"
	"jcvm/src/trace"
	"jcvm/src/types"
	"jcvm/src/value"
)

// CoreClasses are driven through loading and <clinit> before anything
// else, per spec.md's Bootstrap row. A class missing from the supplied
// classpath is logged and skipped rather than aborting Init -- a
// minimal test classpath or an embedding caller that only needs a
// subset of these still gets a working VM for whatever it did supply.
var CoreClasses = []string{
	"java/lang/Object",
	"java/lang/Class",
	"java/lang/String",
	"java/lang/Thread",
	"java/lang/ThreadGroup",
}

// VM is the fully bootstrapped process: the shared Loader/Heap/Bridge
// every thread's Invoker is built against, the thread registry, the
// main thread's own Invoker, and the installed system-property table.
type VM struct {
	Loader     *classloader.Loader
	Heap       *heap.Heap
	Bridge     *native.Bridge
	Threads    *thread.Registry
	Main       *invoke.Invoker
	Properties map[string]string
}

// Init brings up a VM over loader: registers the native bridge's core
// intrinsics and registerNatives hooks, loads/initializes CoreClasses,
// installs the system-property table, and wires the main thread's
// java/lang/Thread/ThreadGroup instances when those two classes loaded.
func Init(loader *classloader.Loader) *VM {
	h := heap.New()
	bridge := native.NewBridge()
	native.RegisterCoreIntrinsics(bridge)
	RegisterHooks(bridge)

	registry := thread.New()
	mainInfo := registry.Register(types.NilHandle)
	mainInfo.SetName("main")
	mainInfo.SetPriority(thread.NormPriority)

	iv := invoke.New(loader, h, mainInfo, bridge)

	vm := &VM{
		Loader:     loader,
		Heap:       h,
		Bridge:     bridge,
		Threads:    registry,
		Main:       iv,
		Properties: SystemProperties(),
	}

	for _, name := range CoreClasses {
		if _, fc := iv.EnsureInitialized(name); fc.Kind == interp.FlowThrows {
			trace.Warning("bootstrap: " + name + " not found on classpath, continuing without it")
		}
	}

	vm.wireMainThread()
	return vm
}

// wireMainThread allocates the main thread's ThreadGroup and Thread
// instances directly against their loaded schemas and writes their
// name/priority/group fields by slot index rather than by running
// Thread.<init>/ThreadGroup.add() through the interpreter -- the same
// "hard code ... to avoid an infinite loop" shortcut
// first_time_sys_thread_init takes, since those constructors would
// otherwise need a fully running thread to construct the very thread
// that is supposed to be running them. A field absent from whatever
// Thread/ThreadGroup class the caller's classpath actually supplied is
// silently skipped rather than treated as an error.
func (vm *VM) wireMainThread() {
	groupEntry, ok := vm.Loader.Lookup("java/lang/ThreadGroup")
	if !ok || groupEntry.Schema == nil {
		return
	}
	group := vm.Heap.AllocateInstance(groupEntry.Schema, groupEntry.Schema.SlotKinds())

	threadEntry, ok := vm.Loader.Lookup("java/lang/Thread")
	if !ok || threadEntry.Schema == nil {
		return
	}
	threadObj := vm.Heap.AllocateInstance(threadEntry.Schema, threadEntry.Schema.SlotKinds())

	setNamedField(threadObj, threadEntry.Schema, "name", value.Reference(vm.Main.InternString("main")))
	setNamedField(threadObj, threadEntry.Schema, "priority", value.Int(thread.NormPriority))
	setNamedField(threadObj, threadEntry.Schema, "group", value.Reference(group))

	vm.Main.ThreadInfo().BindThreadObject(threadObj)
}

// setNamedField writes v into handle's field slot named name, if
// handle's schema declares one; a schema that doesn't (a trimmed-down
// test Thread/ThreadGroup class, or a different JDK's field layout) is
// not an error here, since bootstrap's job is to wire up what's there,
// not to enforce a specific class shape.
func setNamedField(handle types.ObjectHandle, schema *classloader.Schema, name string, v value.Value) {
	idx, ok := schema.SlotIndex(name)
	if !ok {
		return
	}
	heap.ExpectInstance(handle).Slots[idx] = v
}
