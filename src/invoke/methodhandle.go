/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package invoke

import (
	"strconv"
	"sync"

	"jcvm/src/classfile"
	"jcvm/src/cpool"
	"jcvm/src/descriptor"
	"jcvm/src/excnames"
	"jcvm/src/frame"
	"jcvm/src/interp"
	"jcvm/src/types"
	"jcvm/src/value"
)

// methodHandleSchema/methodTypeSchema are mirror instances, the same
// deliberate seam mirrorSchema uses for ldc'd String/Class constants:
// a slotless heap.Schema whose real metadata lives in a side table
// keyed by handle, since neither java.lang.invoke.MethodHandle nor
// MethodType has a bytecode-defined field layout here.
type methodHandleSchema struct{}

func (methodHandleSchema) Name() string           { return "java/lang/invoke/MethodHandle" }
func (methodHandleSchema) InstanceSlotCount() int { return 0 }

type methodTypeSchema struct{}

func (methodTypeSchema) Name() string           { return "java/lang/invoke/MethodType" }
func (methodTypeSchema) InstanceSlotCount() int { return 0 }

// methodHandleInfo records what a CONSTANT_MethodHandle_info entry
// pointed at: the reference_kind (JVM Spec §5.4.3.5, 1-9) and the
// field/method it resolves to.
type methodHandleInfo struct {
	refKind byte
	class   string
	member  string
	desc    string
}

var (
	mhMu    sync.Mutex
	mhInfos = map[types.ObjectHandle]methodHandleInfo{}
	mtDescs = map[types.ObjectHandle]string{}
)

// callSiteKey identifies one CONSTANT_InvokeDynamic slot within one
// class's pool. Every invokedynamic instruction naming the same slot
// shares one cache entry; instructions naming different slots get their
// own, even when they share a bootstrap method.
type callSiteKey struct {
	pool *cpool.Pool
	idx  uint16
}

// linkedCallSite is what InvokeDynamic caches after its first
// resolution of a given pool slot: the recognized bootstrap kind, so
// every later execution naming that slot skips re-walking the
// BootstrapMethods table and re-resolving the handle.
type linkedCallSite struct {
	isConcat       bool
	unsupportedMsg string // non-empty if resolution determined this site can't be linked
}

var (
	callSiteMu  sync.Mutex
	linkedSites = map[callSiteKey]linkedCallSite{}
)

// resolveMethodHandle implements ldc's CONSTANT_MethodHandle_info case:
// look up the reference_kind and the Fieldref/Methodref/
// InterfaceMethodref it names, and hand back a mirror instance carrying
// that resolution.
func (iv *Invoker) resolveMethodHandle(cpIndex int, pool *classfile.ClassFile) (types.ObjectHandle, interp.FlowControl) {
	idx := uint16(cpIndex)
	if idx == 0 || int(idx) >= len(pool.Pool.Entries) {
		return types.ObjectHandle{}, interp.Throws(iv.NewException(excnames.ClassFormatError, "MethodHandle index out of range"))
	}
	e := pool.Pool.Entries[idx]
	if e.Tag != cpool.TagMethodHandle {
		return types.ObjectHandle{}, interp.Throws(iv.NewException(excnames.ClassFormatError, "index does not reference a MethodHandle entry"))
	}
	class, member, desc, err := pool.Pool.RefClassAndNameAndType(e.RefIndex)
	if err != nil {
		return types.ObjectHandle{}, interp.Throws(iv.NewException(excnames.ClassFormatError, err.Error()))
	}

	h := iv.Heap.AllocateInstance(methodHandleSchema{}, nil)
	mhMu.Lock()
	mhInfos[h] = methodHandleInfo{refKind: e.RefKind, class: class, member: member, desc: desc}
	mhMu.Unlock()
	return h, interp.FlowControl{}
}

// resolveMethodType implements ldc's CONSTANT_MethodType_info case: the
// descriptor string itself is the whole resolution, so the mirror just
// remembers it for MethodType.parameterCount/etc. callers.
func (iv *Invoker) resolveMethodType(cpIndex int, pool *classfile.ClassFile) (types.ObjectHandle, interp.FlowControl) {
	idx := uint16(cpIndex)
	if idx == 0 || int(idx) >= len(pool.Pool.Entries) {
		return types.ObjectHandle{}, interp.Throws(iv.NewException(excnames.ClassFormatError, "MethodType index out of range"))
	}
	e := pool.Pool.Entries[idx]
	if e.Tag != cpool.TagMethodType {
		return types.ObjectHandle{}, interp.Throws(iv.NewException(excnames.ClassFormatError, "index does not reference a MethodType entry"))
	}
	desc, err := pool.Pool.Utf8(e.DescriptorIdx)
	if err != nil {
		return types.ObjectHandle{}, interp.Throws(iv.NewException(excnames.ClassFormatError, err.Error()))
	}

	h := iv.Heap.AllocateInstance(methodTypeSchema{}, nil)
	mhMu.Lock()
	mtDescs[h] = desc
	mhMu.Unlock()
	return h, interp.FlowControl{}
}

// InvokeDynamic implements interp.Runtime.InvokeDynamic: resolve the
// call site's bootstrap method and static arguments, then run whichever
// bootstrap pattern it recognizes. Only
// java/lang/invoke/StringConcatFactory's makeConcat family -- the
// call site javac emits for every string-concatenation expression since
// Java 9 (JEP 280) -- is actually executed; any other bootstrap class
// is a genuinely unsupported dynamic call site, not a silently wrong
// one, so it throws rather than guesses.
func (iv *Invoker) InvokeDynamic(cpIndex int, callerFrame *frame.Frame, pool *classfile.ClassFile) interp.FlowControl {
	idx := uint16(cpIndex)
	if idx == 0 || int(idx) >= len(pool.Pool.Entries) {
		return interp.Throws(iv.NewException(excnames.ClassFormatError, "invokedynamic index out of range"))
	}
	e := pool.Pool.Entries[idx]
	if e.Tag != cpool.TagInvokeDynamic {
		return interp.Throws(iv.NewException(excnames.ClassFormatError, "index does not reference an InvokeDynamic entry"))
	}
	_, desc, err := pool.Pool.NameAndType(e.NatIdxOfDynOrID)
	if err != nil {
		return interp.Throws(iv.NewException(excnames.ClassFormatError, err.Error()))
	}
	d, err := descriptor.Parse(desc)
	if err != nil || d.Kind != descriptor.KMethod {
		return interp.Throws(iv.NewException(excnames.ClassFormatError, "invokedynamic call site has a malformed descriptor"))
	}

	args := make([]value.Value, len(d.Args))
	for i := len(d.Args) - 1; i >= 0; i-- {
		v, err := callerFrame.Pop()
		if err != nil {
			return interp.ThreadInterrupt()
		}
		args[i] = v
	}

	site, fc := iv.linkCallSite(pool, idx, e)
	if fc.Kind == interp.FlowThrows {
		return fc
	}
	if site.unsupportedMsg != "" {
		return interp.Throws(iv.NewException(excnames.UnsupportedOperationException, site.unsupportedMsg))
	}

	h, fc := iv.concatDynamicArgs(args)
	if fc.Kind == interp.FlowThrows {
		return fc
	}
	if err := callerFrame.Push(value.Reference(h)); err != nil {
		return interp.ThreadInterrupt()
	}
	return interp.Next()
}

// linkCallSite resolves one CONSTANT_InvokeDynamic slot's bootstrap
// method once, caching the outcome under (pool, index) -- every later
// execution naming that slot reuses the cached classification instead
// of re-walking BootstrapMethods.
func (iv *Invoker) linkCallSite(pool *classfile.ClassFile, idx uint16, e cpool.Entry) (linkedCallSite, interp.FlowControl) {
	key := callSiteKey{pool: pool.Pool, idx: idx}

	callSiteMu.Lock()
	if site, ok := linkedSites[key]; ok {
		callSiteMu.Unlock()
		return site, interp.FlowControl{}
	}
	callSiteMu.Unlock()

	if int(e.BootstrapIdx) >= len(pool.BootstrapMethods) {
		return linkedCallSite{}, interp.Throws(iv.NewException(excnames.ClassFormatError, "bootstrap method index out of range"))
	}
	bsm := pool.BootstrapMethods[e.BootstrapIdx]
	if int(bsm.MethodRefIdx) >= len(pool.Pool.Entries) || pool.Pool.Entries[bsm.MethodRefIdx].Tag != cpool.TagMethodHandle {
		return linkedCallSite{}, interp.Throws(iv.NewException(excnames.ClassFormatError, "bootstrap method is not a MethodHandle"))
	}
	bsmHandle := pool.Pool.Entries[bsm.MethodRefIdx]
	bsmClass, bsmName, _, err := pool.Pool.RefClassAndNameAndType(bsmHandle.RefIndex)
	if err != nil {
		return linkedCallSite{}, interp.Throws(iv.NewException(excnames.ClassFormatError, err.Error()))
	}

	var site linkedCallSite
	if bsmClass == "java/lang/invoke/StringConcatFactory" &&
		(bsmName == "makeConcatWithConstants" || bsmName == "makeConcat") {
		site = linkedCallSite{isConcat: true}
	} else {
		site = linkedCallSite{unsupportedMsg: "unsupported invokedynamic bootstrap: " + bsmClass + "." + bsmName}
	}

	callSiteMu.Lock()
	linkedSites[key] = site
	callSiteMu.Unlock()
	return site, interp.FlowControl{}
}

// concatDynamicArgs renders a StringConcatFactory call site's arguments
// to text and interns the joined result, the same text-building behavior
// javac's string-concatenation codegen produces whether it emits
// invokedynamic (the modern path) or StringBuilder chaining (the one
// src/gfunction's javaLangStringBuilder.go already implements).
func (iv *Invoker) concatDynamicArgs(args []value.Value) (types.ObjectHandle, interp.FlowControl) {
	var out string
	for _, a := range args {
		s, fc := iv.stringOf(a)
		if fc.Kind == interp.FlowThrows {
			return types.ObjectHandle{}, fc
		}
		out += s
	}
	return iv.internString(out), interp.FlowControl{}
}

// stringOf renders one operand the way String.valueOf would: object
// references resolve through StringText when they're string mirrors
// (else "null" -- a non-String reference reaching a concat call site is
// outside jcvm's narrower scope), primitives format per Java's textual
// conventions.
func (iv *Invoker) stringOf(v value.Value) (string, interp.FlowControl) {
	switch v.Kind {
	case value.KReference:
		if v.IsNull() {
			return "null", interp.FlowControl{}
		}
		if s, ok := StringText(v.Ref); ok {
			return s, interp.FlowControl{}
		}
		return "null", interp.FlowControl{}
	case value.KInt, value.KShort, value.KByte:
		return strconv.FormatInt(int64(v.Int32()), 10), interp.FlowControl{}
	case value.KLong:
		return strconv.FormatInt(v.Int64(), 10), interp.FlowControl{}
	case value.KChar:
		return string(rune(v.Int32())), interp.FlowControl{}
	case value.KBoolean:
		if v.Int32() != 0 {
			return "true", interp.FlowControl{}
		}
		return "false", interp.FlowControl{}
	case value.KFloat:
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32), interp.FlowControl{}
	case value.KDouble:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64), interp.FlowControl{}
	default:
		return "", interp.Throws(iv.NewException(excnames.ClassFormatError, "unsupported concat argument kind"))
	}
}
