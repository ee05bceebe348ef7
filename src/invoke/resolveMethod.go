/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package invoke

import (
	"jcvm/src/classfile"
	"jcvm/src/classloader"
	"jcvm/src/descriptor"
	"jcvm/src/excnames"
	"jcvm/src/frame"
	"jcvm/src/heap"
	"jcvm/src/interp"
	"jcvm/src/types"
	"jcvm/src/value"
)

// Invoke implements interp.Runtime.Invoke: spec.md §4.9's four-way
// resolution (static/special/virtual/interface), argument popping, frame
// construction, and native-vs-bytecode dispatch.
func (iv *Invoker) Invoke(kind interp.InvokeKind, cpIndex int, callerFrame *frame.Frame, pool *classfile.ClassFile) interp.FlowControl {
	refClass, name, desc, err := pool.Pool.RefClassAndNameAndType(uint16(cpIndex))
	if err != nil {
		return interp.Throws(iv.NewException(excnames.NoSuchMethodError, err.Error()))
	}

	d, err := descriptor.Parse(desc)
	if err != nil || d.Kind != descriptor.KMethod {
		return interp.Throws(iv.NewException(excnames.NoSuchMethodError, desc))
	}

	args := make([]value.Value, len(d.Args))
	for i := len(d.Args) - 1; i >= 0; i-- {
		v, err := callerFrame.Pop()
		if err != nil {
			return interp.ThreadInterrupt()
		}
		args[i] = v
	}

	var self types.ObjectHandle
	var resolveClass string
	if kind != interp.InvokeStatic {
		v, err := callerFrame.Pop()
		if err != nil {
			return interp.ThreadInterrupt()
		}
		if v.IsNull() {
			return interp.Throws(iv.NewException(excnames.NullPointerException, "invoke on a null reference"))
		}
		self = v.Ref
		resolveClass = refClass
		if kind == interp.InvokeVirtual || kind == interp.InvokeInterface {
			resolveClass = heap.Deref(self).Schema.Name()
		}
	} else {
		resolveClass = refClass
	}

	entry, fc := iv.ensureInitialized(resolveClass)
	if fc.Kind == interp.FlowThrows {
		return fc
	}

	owner, ok := entry.Schema.ResolveMethod(name, desc)
	if !ok {
		return interp.Throws(iv.NewException(excnames.NoSuchMethodError, resolveClass+"."+name+desc))
	}
	ownerEntry, res := iv.Loader.AttemptLoad(owner)
	if res != classloader.Loaded {
		return interp.Throws(iv.NewException(excnames.NoSuchMethodError, owner))
	}
	mi := findMethod(ownerEntry.File, name, desc)
	if mi == nil {
		return interp.Throws(iv.NewException(excnames.NoSuchMethodError, owner+"."+name+desc))
	}

	fcRes := iv.invokeMethodInfo(ownerEntry.File, mi, args, self)
	if fcRes.Kind == interp.FlowThrows || fcRes.Kind == interp.FlowThreadInterrupt {
		return fcRes
	}
	if fcRes.HasReturnValue {
		if err := callerFrame.Push(fcRes.ReturnValue); err != nil {
			return interp.ThreadInterrupt()
		}
	}
	return interp.Next()
}

func findMethod(cf *classfile.ClassFile, name, desc string) *classfile.MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name && cf.Methods[i].Descriptor == desc {
			return &cf.Methods[i]
		}
	}
	return nil
}

// invokeMethodInfo runs one resolved method to completion: native
// dispatch if it's a native method, otherwise a fresh frame (args/self
// loaded into locals 0..N per JVM spec §2.6.1) run through interp.Run.
// It always returns a FlowReturn/FlowThrows/FlowThreadInterrupt -- never
// FlowNext/FlowBranch, which are meaningless outside a dispatch loop.
func (iv *Invoker) invokeMethodInfo(cf *classfile.ClassFile, mi *classfile.MethodInfo, args []value.Value, self types.ObjectHandle) interp.FlowControl {
	iv.Thread.PushFrame(cf.ThisClass, mi.Name, mi.Descriptor)
	defer iv.Thread.PopFrame()

	if mi.IsNative() {
		if iv.Native == nil {
			return interp.Throws(iv.NewException(excnames.UnsatisfiedLinkError, cf.ThisClass+"."+mi.Name))
		}
		v, hadValue, err := iv.Native.CallNative(cf.ThisClass, mi.Name, mi.Descriptor, self, args, iv)
		if err != nil {
			return interp.Throws(iv.NewException(excnames.UnsatisfiedLinkError, err.Error()))
		}
		if h, ok := iv.Thread.TakeSticky(); ok {
			return interp.Throws(h)
		}
		if hadValue {
			return interp.ReturnValue(v)
		}
		return interp.ReturnVoid()
	}

	if mi.Code == nil {
		return interp.Throws(iv.NewException(excnames.NoSuchMethodError, "abstract method invoked directly: "+cf.ThisClass+"."+mi.Name))
	}
	method, err := interp.NewMethod(mi.Code, cf)
	if err != nil {
		return interp.Throws(iv.NewException(excnames.ClassFormatError, err.Error()))
	}

	f := frame.New(method.MaxStack, method.MaxLocals)
	li := 0
	if !mi.IsStatic() {
		f.Locals[li] = value.Reference(self)
		li++
	}
	for _, a := range args {
		if err := f.SetLocal(li, a); err != nil {
			return interp.Throws(iv.NewException(excnames.VerifyError, "argument overruns max_locals"))
		}
		li++
		if a.IsCategory2() {
			li++
		}
	}

	return interp.Run(method, f, iv)
}
