/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package native implements spec.md §4.10: the bridge invoke.Invoker
// calls into whenever a resolved method is native. Two dispatch paths
// share one table lookup -- an intrinsic registered directly in Go (the
// common case here, since this VM ships none of the real JDK's native
// libraries) and, for a genuine shared-library symbol, a dlopen/dlsym
// lookup followed by a raw C-ABI call through purego.
package native

import (
	"fmt"

	"github.com/ebitengine/purego"

	"jcvm/src/descriptor"
	"jcvm/src/invoke"
	"jcvm/src/types"
	"jcvm/src/value"
)

// Intrinsic is a native method implemented directly in Go rather than
// resolved through a loaded shared library. self is the zero handle for
// a static method.
type Intrinsic func(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error)

type intrinsicKey struct {
	class, method, desc string
}

// Bridge is the concrete invoke.NativeDispatcher: one Bridge is shared
// by every thread's Invoker, the way one Loader/Heap is.
type Bridge struct {
	libs       *libraryRegistry
	intrinsics map[intrinsicKey]Intrinsic
}

func NewBridge() *Bridge {
	return &Bridge{
		libs:       newLibraryRegistry(),
		intrinsics: make(map[intrinsicKey]Intrinsic),
	}
}

// Register binds a Go-implemented native method, overriding any
// shared-library symbol that would otherwise answer the same
// (class, method, descriptor) triple.
func (b *Bridge) Register(className, methodName, methodDesc string, fn Intrinsic) {
	b.intrinsics[intrinsicKey{className, methodName, methodDesc}] = fn
}

// LoadLibrary dlopens path and adds it to the bridge's symbol search
// order, per spec.md §4.10.1's load_library(path).
func (b *Bridge) LoadLibrary(path string) error {
	return b.libs.Load(path)
}

// CallNative implements invoke.NativeDispatcher. The bool result reports
// whether the method produced a return value (false for a void native);
// a non-nil error is a linkage failure (no intrinsic and no resolvable
// symbol), which invoke surfaces as UnsatisfiedLinkError.
func (b *Bridge) CallNative(className, methodName, methodDesc string, self types.ObjectHandle, args []value.Value, iv *invoke.Invoker) (value.Value, bool, error) {
	if fn, ok := b.intrinsics[intrinsicKey{className, methodName, methodDesc}]; ok {
		return fn(iv, self, args)
	}

	d, err := descriptor.Parse(methodDesc)
	if err != nil || d.Kind != descriptor.KMethod {
		return value.Value{}, false, fmt.Errorf("native: malformed descriptor %q for %s.%s", methodDesc, className, methodName)
	}

	symbol := mangle(className, methodName)
	addr, ok := b.libs.Lookup(symbol)
	if !ok {
		return value.Value{}, false, fmt.Errorf("native: no intrinsic and no loaded library exports %s", symbol)
	}

	callArgs := marshalArgs(self, args)
	r1, _, errno := purego.SyscallN(addr, callArgs...)
	if errno != 0 {
		return value.Value{}, false, fmt.Errorf("native: %s returned errno %d", symbol, errno)
	}

	if d.Returns.Kind == descriptor.KVoid {
		return value.Value{}, false, nil
	}
	return unmarshalReturn(r1, d.Returns), true, nil
}

// marshalArgs flattens self (when present, at index 0, mirroring the
// JVM calling convention's "self first") and the popped argument list
// into the uintptr vector purego.SyscallN expects; category-2 values
// and references are reduced to their single machine-word
// representation the way the JNI's own native signatures do.
func marshalArgs(self types.ObjectHandle, args []value.Value) []uintptr {
	out := make([]uintptr, 0, len(args)+1)
	if !self.IsNil() {
		out = append(out, self.Addr())
	}
	for _, a := range args {
		out = append(out, marshalOne(a))
	}
	return out
}

func marshalOne(v value.Value) uintptr {
	switch v.Kind {
	case value.KReference:
		return v.Ref.Addr()
	case value.KFloat:
		return uintptr(int32FromFloat32(v.Float32()))
	case value.KDouble:
		return uintptr(int64FromFloat64(v.Float64()))
	default:
		return uintptr(v.Int64())
	}
}

func unmarshalReturn(r uintptr, d *descriptor.Descriptor) value.Value {
	switch d.Kind {
	case descriptor.KBoolean:
		return value.Boolean(r != 0)
	case descriptor.KByte:
		return value.Byte(int8(r))
	case descriptor.KChar:
		return value.Char(uint16(r))
	case descriptor.KShort:
		return value.Short(int16(r))
	case descriptor.KInt:
		return value.Int(int32(r))
	case descriptor.KLong:
		return value.Long(int64(r))
	case descriptor.KFloat:
		return value.Float(float32FromInt32(int32(r)))
	case descriptor.KDouble:
		return value.Double(float64FromInt64(int64(r)))
	case descriptor.KObject, descriptor.KArray:
		return value.Reference(types.NewObjectHandle(uintptr(r)))
	default:
		return value.Int(int32(r))
	}
}
