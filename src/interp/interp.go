/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"jcvm/src/classfile"
	"jcvm/src/excnames"
	"jcvm/src/frame"
	"jcvm/src/opcodes"
	"jcvm/src/thread"
	"jcvm/src/types"
	"jcvm/src/value"
)

// checkInterval is K of spec.md §4.8.2: "every K instructions
// (implementation choice; K ≈ 10 000) the dispatcher checks the thread
// state request".
const checkInterval = 10000

// InvokeKind selects which of the Invoker's four resolution strategies
// an invoke* instruction uses (spec.md §4.9).
type InvokeKind int

const (
	InvokeStatic InvokeKind = iota
	InvokeSpecial
	InvokeVirtual
	InvokeInterface
)

// Runtime is everything the dispatch loop needs from the rest of the VM
// besides the frame it's already executing. package invoke implements
// Runtime (and in turn calls Run to execute a callee's bytecode),
// keeping the invoker<->interpreter mutual recursion out of this
// package's import list.
type Runtime interface {
	// Invoke resolves and calls a method reference from the constant
	// pool at cpIndex in the given kind's style, popping arguments (and,
	// for non-static kinds, the receiver) off callerFrame itself. It
	// returns the callee's FlowControl outcome translated into this
	// frame's terms: a FlowThrows if resolution or execution raised one,
	// or a value to push (already pushed onto callerFrame) otherwise.
	Invoke(kind InvokeKind, cpIndex int, callerFrame *frame.Frame, pool *classfile.ClassFile) FlowControl

	// New allocates a fresh, zeroed instance of the class named at
	// cpIndex (a Class pool entry), triggering class initialization
	// first if needed.
	New(cpIndex int, pool *classfile.ClassFile) (types.ObjectHandle, FlowControl)

	// GetField/PutField/GetStatic/PutStatic resolve a Fieldref at
	// cpIndex and perform the access, triggering class initialization
	// of the declaring class first for the static variants.
	GetField(handle types.ObjectHandle, cpIndex int, pool *classfile.ClassFile) (value.Value, FlowControl)
	PutField(handle types.ObjectHandle, v value.Value, cpIndex int, pool *classfile.ClassFile) FlowControl
	GetStatic(cpIndex int, pool *classfile.ClassFile) (value.Value, FlowControl)
	PutStatic(v value.Value, cpIndex int, pool *classfile.ClassFile) FlowControl

	// NewArray/ANewArray/MultiANewArray/ArrayLength/ArrayLoad/ArrayStore
	// implement spec.md §4.8.3's array-access contract.
	NewArray(atype int, length int32) (types.ObjectHandle, FlowControl)
	ANewArray(cpIndex int, length int32, pool *classfile.ClassFile) (types.ObjectHandle, FlowControl)
	MultiANewArray(cpIndex int, dims []int32, pool *classfile.ClassFile) (types.ObjectHandle, FlowControl)
	ArrayLength(handle types.ObjectHandle) (int32, FlowControl)
	ArrayLoad(handle types.ObjectHandle, index int32) (value.Value, FlowControl)
	ArrayStore(handle types.ObjectHandle, index int32, v value.Value) FlowControl

	// CheckCast/InstanceOf implement the schema-chain subtype test.
	CheckCast(handle types.ObjectHandle, cpIndex int, pool *classfile.ClassFile) FlowControl
	InstanceOf(handle types.ObjectHandle, cpIndex int, pool *classfile.ClassFile) (bool, FlowControl)

	// MonitorEnter/MonitorExit take/release the object's monitor for the
	// current thread.
	MonitorEnter(handle types.ObjectHandle) FlowControl
	MonitorExit(handle types.ObjectHandle) FlowControl

	// LoadConstant resolves an ldc/ldc_w/ldc2_w pool index to a pushable
	// Value (Int/Float/Long/Double/a string instance/a class-mirror handle).
	LoadConstant(cpIndex int, wide bool, pool *classfile.ClassFile) (value.Value, FlowControl)

	// InvokeDynamic resolves an InvokeDynamic pool entry's call site,
	// pops its statically-typed arguments off callerFrame, runs it, and
	// pushes the result the same way Invoke does for an ordinary call.
	InvokeDynamic(cpIndex int, callerFrame *frame.Frame, pool *classfile.ClassFile) FlowControl

	// ThreadInfo returns the current thread's registry entry, for the
	// dispatcher's periodic state check and for monitor ownership.
	ThreadInfo() *thread.Info

	// NewException allocates a throwable of the named jcvm-internal kind
	// with the given message, for DomainError sites (array bounds,
	// divide-by-zero, null deref) raised directly by this package.
	NewException(kind excnames.ExceptionType, message string) types.ObjectHandle
}

// Method is the minimal shape Run needs from a decoded method: its Code
// attribute (already decoded into an Instruction list, cached alongside)
// and owning constant pool.
type Method struct {
	Instructions []Instruction
	ByOffset     map[int]int // code offset -> index into Instructions
	Exceptions   []classfile.ExceptionTableEntry
	Pool         *classfile.ClassFile
	MaxStack     int
	MaxLocals    int
}

// NewMethod decodes code's instruction list once, per spec §9's decoded-
// method cache.
func NewMethod(code *classfile.CodeAttribute, pool *classfile.ClassFile) (*Method, error) {
	insts, err := Decode(code.Code)
	if err != nil {
		return nil, err
	}
	byOffset := make(map[int]int, len(insts))
	for i, in := range insts {
		byOffset[in.Offset] = i
	}
	return &Method{
		Instructions: insts,
		ByOffset:     byOffset,
		Exceptions:   code.Exceptions,
		Pool:         pool,
		MaxStack:     code.MaxStack,
		MaxLocals:    code.MaxLocals,
	}, nil
}

// Run dispatches m's instructions against f until a Return or an
// unhandled Throws/ThreadInterrupt propagates out, implementing
// spec.md §4.8.2 in full: branch stepping, exception-table-based
// unwinding, and the periodic thread-state check-in.
func Run(m *Method, f *frame.Frame, rt Runtime) FlowControl {
	idx := 0
	sinceCheck := 0

	for {
		if idx < 0 || idx >= len(m.Instructions) {
			return FlowControl{Kind: FlowThreadInterrupt} // a verifier bug: ran off the end of the method
		}

		sinceCheck++
		if sinceCheck >= checkInterval {
			sinceCheck = 0
			if fc, stop := checkThreadState(rt); stop {
				return fc
			}
		}

		in := m.Instructions[idx]
		fc := exec(in, f, m, rt)

		switch fc.Kind {
		case FlowNext:
			idx++
			continue

		case FlowBranch:
			target := in.Offset + fc.BranchOffset
			ni, ok := m.ByOffset[target]
			if !ok {
				return FlowControl{Kind: FlowThreadInterrupt} // branch to a non-instruction-boundary: verifier bug
			}
			idx = ni
			continue

		case FlowReturn:
			return fc

		case FlowThreadInterrupt:
			return fc

		case FlowThrows:
			handlerIdx, found := findHandler(m, in.Offset, fc.ExceptionHandle, rt)
			if !found {
				return fc // unwinds with the same Throws
			}
			if err := f.SetRawSlots(nil); err != nil {
				return fc
			}
			if err := f.Push(value.Reference(fc.ExceptionHandle)); err != nil {
				return FlowControl{Kind: FlowThreadInterrupt}
			}
			idx = handlerIdx
			continue
		}
	}
}

func checkThreadState(rt Runtime) (FlowControl, bool) {
	info := rt.ThreadInfo()
	if info == nil {
		return FlowControl{}, false
	}
	req := info.PollState()
	switch req.Kind {
	case thread.Interrupt:
		return ThreadInterrupt(), true
	case thread.Throw:
		return Throws(req.ThrowTarget), true
	default:
		return FlowControl{}, false
	}
}

// findHandler implements spec.md §4.8.2's exception-table scan: the
// first entry whose [start,end) covers pc and whose catch-type is
// either "any" or a supertype of the thrown exception's class.
func findHandler(m *Method, pc int, exc types.ObjectHandle, rt Runtime) (int, bool) {
	for _, e := range m.Exceptions {
		if pc < e.StartPC || pc >= e.EndPC {
			continue
		}
		if e.CatchType == 0 {
			if idx, ok := m.ByOffset[e.HandlerPC]; ok {
				return idx, true
			}
			continue
		}
		catchClass, err := m.Pool.Pool.ClassName(e.CatchType)
		if err != nil {
			continue
		}
		if isSubtypeOf(rt, exc, catchClass) {
			if idx, ok := m.ByOffset[e.HandlerPC]; ok {
				return idx, true
			}
		}
	}
	return 0, false
}

// isSubtypeOf is satisfied through a narrow hook on Runtime rather than
// a direct heap/classloader import, since that subtype test needs the
// thrown object's schema chain -- which only the invoke package (the
// Runtime implementation) has ready access to without reaching past
// this package's declared dependency edges.
func isSubtypeOf(rt Runtime, handle types.ObjectHandle, className string) bool {
	if st, ok := rt.(interface {
		IsSubtypeOf(types.ObjectHandle, string) bool
	}); ok {
		return st.IsSubtypeOf(handle, className)
	}
	return false
}

// Decode normalizes wide and narrow forms alike into inst.IntImm (and
// iinc's increment into inst.IntImm2), so exec never distinguishes them.
var _ = opcodes.NOP // silence unused-import if opcodes ever trims to zero direct references here
