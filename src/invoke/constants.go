/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package invoke

import (
	"sync"

	"jcvm/src/classfile"
	"jcvm/src/cpool"
	"jcvm/src/excnames"
	"jcvm/src/interp"
	"jcvm/src/types"
	"jcvm/src/value"
)

// mirrorSchema satisfies heap.Schema for the synthetic string/class
// "mirror" instances ldc needs to push a reference-kind constant before
// the real java/lang/String and java/lang/Class classes are loaded and
// wired up by bootstrap -- the same deliberate seam package exceptions
// uses for synthetic throwables, applied here to constant-pool String
// and Class entries.
type mirrorSchema struct{ className string }

func (m *mirrorSchema) Name() string           { return m.className }
func (m *mirrorSchema) InstanceSlotCount() int { return 0 }

var (
	mirrorMu      sync.Mutex
	stringMirrors = map[string]types.ObjectHandle{} // literal text -> interned handle
	stringTexts   = map[types.ObjectHandle]string{} // handle -> literal text
	classMirrors  = map[string]types.ObjectHandle{} // class name -> mirror handle
)

// StringText returns the literal text a ldc'd String constant (or a
// runtime-interned string) carries, for native code and gfunction shims
// that need the Go string out of a java/lang/String handle.
func StringText(handle types.ObjectHandle) (string, bool) {
	mirrorMu.Lock()
	defer mirrorMu.Unlock()
	s, ok := stringTexts[handle]
	return s, ok
}

// InternString exposes internString to callers outside this package
// that need to hand the interpreter a Java string without going through
// ldc -- src/bootstrap building the main thread's name before any
// bytecode has run.
func (iv *Invoker) InternString(s string) types.ObjectHandle {
	return iv.internString(s)
}

func (iv *Invoker) internString(s string) types.ObjectHandle {
	mirrorMu.Lock()
	if h, ok := stringMirrors[s]; ok {
		mirrorMu.Unlock()
		return h
	}
	mirrorMu.Unlock()

	h := iv.Heap.AllocateInstance(&mirrorSchema{className: "java/lang/String"}, nil)

	mirrorMu.Lock()
	stringMirrors[s] = h
	stringTexts[h] = s
	mirrorMu.Unlock()
	return h
}

func (iv *Invoker) classMirror(className string) types.ObjectHandle {
	mirrorMu.Lock()
	if h, ok := classMirrors[className]; ok {
		mirrorMu.Unlock()
		return h
	}
	mirrorMu.Unlock()

	h := iv.Heap.AllocateInstance(&mirrorSchema{className: "java/lang/Class"}, nil)

	mirrorMu.Lock()
	classMirrors[className] = h
	mirrorMu.Unlock()
	return h
}

// loadConstantImpl implements ldc/ldc_w/ldc2_w (spec.md §4.8.3): Integer/
// Float push directly; Long/Double (ldc2_w only) push directly; String
// interns a mirror instance; Class pushes a class-mirror handle.
func (iv *Invoker) loadConstantImpl(cpIndex int, pool *classfile.ClassFile) (value.Value, interp.FlowControl) {
	idx := uint16(cpIndex)
	if idx == 0 || int(idx) >= len(pool.Pool.Entries) {
		return value.Value{}, interp.Throws(iv.NewException(excnames.ClassFormatError, "ldc index out of range"))
	}
	e := pool.Pool.Entries[idx]
	switch e.Tag {
	case cpool.TagInteger:
		return value.Int(e.Int32Val), interp.FlowControl{}
	case cpool.TagFloat:
		return value.Float(e.Float32Val), interp.FlowControl{}
	case cpool.TagLong:
		return value.Long(e.Int64Val), interp.FlowControl{}
	case cpool.TagDouble:
		return value.Double(e.Float64Val), interp.FlowControl{}
	case cpool.TagString:
		s, err := pool.Pool.Utf8(e.StringIdx)
		if err != nil {
			return value.Value{}, interp.Throws(iv.NewException(excnames.ClassFormatError, err.Error()))
		}
		return value.Reference(iv.internString(s)), interp.FlowControl{}
	case cpool.TagClass:
		name, err := pool.Pool.ClassName(idx)
		if err != nil {
			return value.Value{}, interp.Throws(iv.NewException(excnames.ClassFormatError, err.Error()))
		}
		return value.Reference(iv.classMirror(name)), interp.FlowControl{}
	case cpool.TagMethodHandle:
		h, fc := iv.resolveMethodHandle(cpIndex, pool)
		if fc.Kind == interp.FlowThrows {
			return value.Value{}, fc
		}
		return value.Reference(h), interp.FlowControl{}
	case cpool.TagMethodType:
		h, fc := iv.resolveMethodType(cpIndex, pool)
		if fc.Kind == interp.FlowThrows {
			return value.Value{}, fc
		}
		return value.Reference(h), interp.FlowControl{}
	default:
		return value.Value{}, interp.Throws(iv.NewException(excnames.ClassFormatError, "unsupported ldc constant kind"))
	}
}
