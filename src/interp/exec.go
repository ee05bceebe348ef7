/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"math"

	"jcvm/src/excnames"
	"jcvm/src/frame"
	"jcvm/src/opcodes"
	"jcvm/src/value"
)

// exec implements the per-instruction contract of spec.md §4.8.2:
// exec(frame, vm) -> Ok(()) | Err(FlowControl), expressed here as always
// returning a FlowControl, with FlowNext standing in for "continue to
// the next instruction" (Ok(())).
func exec(in Instruction, f *frame.Frame, m *Method, rt Runtime) FlowControl {
	switch in.Op {

	case opcodes.NOP:
		return Next()

	case opcodes.ACONST_NULL:
		return pushOrFail(f, value.Null())

	case opcodes.ICONST_M1:
		return pushOrFail(f, value.Int(-1))
	case opcodes.ICONST_0:
		return pushOrFail(f, value.Int(0))
	case opcodes.ICONST_1:
		return pushOrFail(f, value.Int(1))
	case opcodes.ICONST_2:
		return pushOrFail(f, value.Int(2))
	case opcodes.ICONST_3:
		return pushOrFail(f, value.Int(3))
	case opcodes.ICONST_4:
		return pushOrFail(f, value.Int(4))
	case opcodes.ICONST_5:
		return pushOrFail(f, value.Int(5))
	case opcodes.LCONST_0:
		return pushOrFail(f, value.Long(0))
	case opcodes.LCONST_1:
		return pushOrFail(f, value.Long(1))
	case opcodes.FCONST_0:
		return pushOrFail(f, value.Float(0))
	case opcodes.FCONST_1:
		return pushOrFail(f, value.Float(1))
	case opcodes.FCONST_2:
		return pushOrFail(f, value.Float(2))
	case opcodes.DCONST_0:
		return pushOrFail(f, value.Double(0))
	case opcodes.DCONST_1:
		return pushOrFail(f, value.Double(1))

	case opcodes.BIPUSH, opcodes.SIPUSH:
		return pushOrFail(f, value.Int(in.IntImm))

	case opcodes.LDC:
		v, fc := rt.LoadConstant(int(in.IntImm), false, m.Pool)
		if fc.Kind == FlowThrows {
			return fc
		}
		return pushOrFail(f, v)
	case opcodes.LDC_W:
		v, fc := rt.LoadConstant(int(in.IntImm), false, m.Pool)
		if fc.Kind == FlowThrows {
			return fc
		}
		return pushOrFail(f, v)
	case opcodes.LDC2_W:
		v, fc := rt.LoadConstant(int(in.IntImm), true, m.Pool)
		if fc.Kind == FlowThrows {
			return fc
		}
		return pushOrFail(f, v)

	// --- Local loads ---
	case opcodes.ILOAD, opcodes.FLOAD, opcodes.ALOAD:
		return loadLocal(f, int(in.IntImm))
	case opcodes.LLOAD, opcodes.DLOAD:
		return loadLocal(f, int(in.IntImm))
	case opcodes.ILOAD_0, opcodes.FLOAD_0, opcodes.ALOAD_0, opcodes.LLOAD_0, opcodes.DLOAD_0:
		return loadLocal(f, 0)
	case opcodes.ILOAD_1, opcodes.FLOAD_1, opcodes.ALOAD_1, opcodes.LLOAD_1, opcodes.DLOAD_1:
		return loadLocal(f, 1)
	case opcodes.ILOAD_2, opcodes.FLOAD_2, opcodes.ALOAD_2, opcodes.LLOAD_2, opcodes.DLOAD_2:
		return loadLocal(f, 2)
	case opcodes.ILOAD_3, opcodes.FLOAD_3, opcodes.ALOAD_3, opcodes.LLOAD_3, opcodes.DLOAD_3:
		return loadLocal(f, 3)

	// --- Local stores ---
	case opcodes.ISTORE, opcodes.FSTORE, opcodes.ASTORE, opcodes.LSTORE, opcodes.DSTORE:
		return storeLocal(f, int(in.IntImm))
	case opcodes.ISTORE_0, opcodes.FSTORE_0, opcodes.ASTORE_0, opcodes.LSTORE_0, opcodes.DSTORE_0:
		return storeLocal(f, 0)
	case opcodes.ISTORE_1, opcodes.FSTORE_1, opcodes.ASTORE_1, opcodes.LSTORE_1, opcodes.DSTORE_1:
		return storeLocal(f, 1)
	case opcodes.ISTORE_2, opcodes.FSTORE_2, opcodes.ASTORE_2, opcodes.LSTORE_2, opcodes.DSTORE_2:
		return storeLocal(f, 2)
	case opcodes.ISTORE_3, opcodes.FSTORE_3, opcodes.ASTORE_3, opcodes.LSTORE_3, opcodes.DSTORE_3:
		return storeLocal(f, 3)

	// --- Array loads ---
	case opcodes.IALOAD, opcodes.LALOAD, opcodes.FALOAD, opcodes.DALOAD, opcodes.AALOAD,
		opcodes.BALOAD, opcodes.CALOAD, opcodes.SALOAD:
		return arrayLoad(f, rt)

	// --- Array stores ---
	case opcodes.IASTORE, opcodes.LASTORE, opcodes.FASTORE, opcodes.DASTORE, opcodes.AASTORE,
		opcodes.BASTORE, opcodes.CASTORE, opcodes.SASTORE:
		return arrayStore(f, rt)

	// --- Stack shape ---
	case opcodes.POP:
		_, err := f.Pop()
		return errOrNext(err)
	case opcodes.POP2:
		return pop2(f)
	case opcodes.DUP:
		return dup(f)
	case opcodes.DUP_X1:
		return dupX1(f)
	case opcodes.DUP_X2:
		return dupX2(f)
	case opcodes.DUP2:
		return dup2(f)
	case opcodes.DUP2_X1:
		return dup2X1(f)
	case opcodes.DUP2_X2:
		return dup2X2(f)
	case opcodes.SWAP:
		return swap(f)

	// --- Arithmetic ---
	case opcodes.IADD:
		return binInt(f, func(a, b int32) int32 { return a + b })
	case opcodes.ISUB:
		return binInt(f, func(a, b int32) int32 { return a - b })
	case opcodes.IMUL:
		return binInt(f, func(a, b int32) int32 { return a * b })
	case opcodes.IDIV:
		return intDiv(f, rt)
	case opcodes.IREM:
		return intRem(f, rt)
	case opcodes.INEG:
		return unInt(f, func(a int32) int32 { return -a })
	case opcodes.IAND:
		return binInt(f, func(a, b int32) int32 { return a & b })
	case opcodes.IOR:
		return binInt(f, func(a, b int32) int32 { return a | b })
	case opcodes.IXOR:
		return binInt(f, func(a, b int32) int32 { return a ^ b })
	case opcodes.ISHL:
		return binInt(f, func(a, b int32) int32 { return a << (uint32(b) & 31) })
	case opcodes.ISHR:
		return binInt(f, func(a, b int32) int32 { return a >> (uint32(b) & 31) })
	case opcodes.IUSHR:
		return binInt(f, func(a, b int32) int32 { return int32(uint32(a) >> (uint32(b) & 31)) })

	case opcodes.LADD:
		return binLong(f, func(a, b int64) int64 { return a + b })
	case opcodes.LSUB:
		return binLong(f, func(a, b int64) int64 { return a - b })
	case opcodes.LMUL:
		return binLong(f, func(a, b int64) int64 { return a * b })
	case opcodes.LDIV:
		return longDiv(f, rt)
	case opcodes.LREM:
		return longRem(f, rt)
	case opcodes.LNEG:
		return unLong(f, func(a int64) int64 { return -a })
	case opcodes.LAND:
		return binLong(f, func(a, b int64) int64 { return a & b })
	case opcodes.LOR:
		return binLong(f, func(a, b int64) int64 { return a | b })
	case opcodes.LXOR:
		return binLong(f, func(a, b int64) int64 { return a ^ b })
	case opcodes.LSHL:
		return longShift(f, func(a int64, s uint32) int64 { return a << (s & 63) })
	case opcodes.LSHR:
		return longShift(f, func(a int64, s uint32) int64 { return a >> (s & 63) })
	case opcodes.LUSHR:
		return longShift(f, func(a int64, s uint32) int64 { return int64(uint64(a) >> (s & 63)) })

	case opcodes.FADD:
		return binFloat(f, func(a, b float32) float32 { return a + b })
	case opcodes.FSUB:
		return binFloat(f, func(a, b float32) float32 { return a - b })
	case opcodes.FMUL:
		return binFloat(f, func(a, b float32) float32 { return a * b })
	case opcodes.FDIV:
		return binFloat(f, func(a, b float32) float32 { return a / b })
	case opcodes.FREM:
		return binFloat(f, func(a, b float32) float32 { return float32(math.Mod(float64(a), float64(b))) })
	case opcodes.FNEG:
		return unFloat(f, func(a float32) float32 { return -a })

	case opcodes.DADD:
		return binDouble(f, func(a, b float64) float64 { return a + b })
	case opcodes.DSUB:
		return binDouble(f, func(a, b float64) float64 { return a - b })
	case opcodes.DMUL:
		return binDouble(f, func(a, b float64) float64 { return a * b })
	case opcodes.DDIV:
		return binDouble(f, func(a, b float64) float64 { return a / b })
	case opcodes.DREM:
		return binDouble(f, math.Mod)
	case opcodes.DNEG:
		return unDouble(f, func(a float64) float64 { return -a })

	case opcodes.IINC:
		v, err := f.GetLocal(int(in.IntImm))
		if err != nil {
			return ThreadInterrupt()
		}
		if err := f.SetLocal(int(in.IntImm), value.Int(v.Int32()+in.IntImm2)); err != nil {
			return ThreadInterrupt()
		}
		return Next()

	// --- Conversions ---
	case opcodes.I2L:
		return convert(f, func(v value.Value) value.Value { return value.Long(int64(v.Int32())) })
	case opcodes.I2F:
		return convert(f, func(v value.Value) value.Value { return value.Float(float32(v.Int32())) })
	case opcodes.I2D:
		return convert(f, func(v value.Value) value.Value { return value.Double(float64(v.Int32())) })
	case opcodes.I2B:
		return convert(f, func(v value.Value) value.Value { return value.Int(int32(int8(v.Int32()))) })
	case opcodes.I2C:
		return convert(f, func(v value.Value) value.Value { return value.Int(int32(uint16(v.Int32()))) })
	case opcodes.I2S:
		return convert(f, func(v value.Value) value.Value { return value.Int(int32(int16(v.Int32()))) })
	case opcodes.L2I:
		return convert(f, func(v value.Value) value.Value { return value.Int(int32(v.Int64())) })
	case opcodes.L2F:
		return convert(f, func(v value.Value) value.Value { return value.Float(float32(v.Int64())) })
	case opcodes.L2D:
		return convert(f, func(v value.Value) value.Value { return value.Double(float64(v.Int64())) })
	case opcodes.F2I:
		return convert(f, func(v value.Value) value.Value { return value.Int(floatToInt32(v.Float32())) })
	case opcodes.F2L:
		return convert(f, func(v value.Value) value.Value { return value.Long(floatToInt64(v.Float32())) })
	case opcodes.F2D:
		return convert(f, func(v value.Value) value.Value { return value.Double(float64(v.Float32())) })
	case opcodes.D2I:
		return convert(f, func(v value.Value) value.Value { return value.Int(doubleToInt32(v.Float64())) })
	case opcodes.D2L:
		return convert(f, func(v value.Value) value.Value { return value.Long(doubleToInt64(v.Float64())) })
	case opcodes.D2F:
		return convert(f, func(v value.Value) value.Value { return value.Float(float32(v.Float64())) })

	// --- Comparisons producing an int ---
	case opcodes.LCMP:
		return cmpLong(f)
	case opcodes.FCMPL:
		return cmpFloat(f, -1)
	case opcodes.FCMPG:
		return cmpFloat(f, 1)
	case opcodes.DCMPL:
		return cmpDouble(f, -1)
	case opcodes.DCMPG:
		return cmpDouble(f, 1)

	// --- Conditional branches ---
	case opcodes.IFEQ:
		return ifInt(f, in, func(a int32) bool { return a == 0 })
	case opcodes.IFNE:
		return ifInt(f, in, func(a int32) bool { return a != 0 })
	case opcodes.IFLT:
		return ifInt(f, in, func(a int32) bool { return a < 0 })
	case opcodes.IFGE:
		return ifInt(f, in, func(a int32) bool { return a >= 0 })
	case opcodes.IFGT:
		return ifInt(f, in, func(a int32) bool { return a > 0 })
	case opcodes.IFLE:
		return ifInt(f, in, func(a int32) bool { return a <= 0 })
	case opcodes.IFNULL:
		return ifRef(f, in, func(isNull bool) bool { return isNull })
	case opcodes.IFNONNULL:
		return ifRef(f, in, func(isNull bool) bool { return !isNull })

	case opcodes.IF_ICMPEQ:
		return ifIcmp(f, in, func(a, b int32) bool { return a == b })
	case opcodes.IF_ICMPNE:
		return ifIcmp(f, in, func(a, b int32) bool { return a != b })
	case opcodes.IF_ICMPLT:
		return ifIcmp(f, in, func(a, b int32) bool { return a < b })
	case opcodes.IF_ICMPGE:
		return ifIcmp(f, in, func(a, b int32) bool { return a >= b })
	case opcodes.IF_ICMPGT:
		return ifIcmp(f, in, func(a, b int32) bool { return a > b })
	case opcodes.IF_ICMPLE:
		return ifIcmp(f, in, func(a, b int32) bool { return a <= b })
	case opcodes.IF_ACMPEQ:
		return ifAcmp(f, in, true)
	case opcodes.IF_ACMPNE:
		return ifAcmp(f, in, false)

	case opcodes.GOTO:
		return Branch(int(in.IntImm))
	case opcodes.GOTO_W:
		return Branch(int(in.IntImm))

	case opcodes.JSR, opcodes.JSR_W:
		if err := f.Push(value.ReturnAddress(in.Offset + in.Size)); err != nil {
			return ThreadInterrupt()
		}
		return Branch(int(in.IntImm))
	case opcodes.RET:
		v, err := f.GetLocal(int(in.IntImm))
		if err != nil {
			return ThreadInterrupt()
		}
		return Branch(int(v.Int64()) - in.Offset)

	case opcodes.TABLESWITCH:
		v, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		key := v.Int32()
		if key < in.TableLow || key > in.TableHigh {
			return Branch(int(in.DefaultTgt))
		}
		return Branch(int(in.Targets[key-in.TableLow]))

	case opcodes.LOOKUPSWITCH:
		v, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		key := v.Int32()
		for i, k := range in.LookupKeys {
			if k == key {
				return Branch(int(in.Targets[i]))
			}
		}
		return Branch(int(in.DefaultTgt))

	// --- Returns ---
	case opcodes.IRETURN, opcodes.FRETURN, opcodes.ARETURN, opcodes.LRETURN, opcodes.DRETURN:
		v, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		return ReturnValue(v)
	case opcodes.RETURN:
		return ReturnVoid()

	case opcodes.ATHROW:
		v, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		if v.IsNull() {
			return Throws(rt.NewException(excnames.NullPointerException, "athrow of a null reference"))
		}
		return Throws(v.Ref)

	// --- Field access ---
	case opcodes.GETSTATIC:
		v, fc := rt.GetStatic(int(in.IntImm), m.Pool)
		if fc.Kind == FlowThrows {
			return fc
		}
		return pushOrFail(f, v)
	case opcodes.PUTSTATIC:
		v, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		return rt.PutStatic(v, int(in.IntImm), m.Pool)
	case opcodes.GETFIELD:
		ref, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		if ref.IsNull() {
			return Throws(rt.NewException(excnames.NullPointerException, "getfield on a null reference"))
		}
		v, fc := rt.GetField(ref.Ref, int(in.IntImm), m.Pool)
		if fc.Kind == FlowThrows {
			return fc
		}
		return pushOrFail(f, v)
	case opcodes.PUTFIELD:
		v, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		ref, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		if ref.IsNull() {
			return Throws(rt.NewException(excnames.NullPointerException, "putfield on a null reference"))
		}
		return rt.PutField(ref.Ref, v, int(in.IntImm), m.Pool)

	// --- Invocation ---
	case opcodes.INVOKESTATIC:
		return rt.Invoke(InvokeStatic, int(in.IntImm), f, m.Pool)
	case opcodes.INVOKESPECIAL:
		return rt.Invoke(InvokeSpecial, int(in.IntImm), f, m.Pool)
	case opcodes.INVOKEVIRTUAL:
		return rt.Invoke(InvokeVirtual, int(in.IntImm), f, m.Pool)
	case opcodes.INVOKEINTERFACE:
		return rt.Invoke(InvokeInterface, int(in.IntImm), f, m.Pool)
	case opcodes.INVOKEDYNAMIC:
		return rt.InvokeDynamic(int(in.IntImm), f, m.Pool)

	// --- Object / array allocation & type ops ---
	case opcodes.NEW:
		h, fc := rt.New(int(in.IntImm), m.Pool)
		if fc.Kind == FlowThrows {
			return fc
		}
		return pushOrFail(f, value.Reference(h))
	case opcodes.NEWARRAY:
		n, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		if n.Int32() < 0 {
			return Throws(rt.NewException(excnames.NegativeArraySizeException, "newarray with negative length"))
		}
		h, fc := rt.NewArray(int(in.IntImm), n.Int32())
		if fc.Kind == FlowThrows {
			return fc
		}
		return pushOrFail(f, value.Reference(h))
	case opcodes.ANEWARRAY:
		n, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		if n.Int32() < 0 {
			return Throws(rt.NewException(excnames.NegativeArraySizeException, "anewarray with negative length"))
		}
		h, fc := rt.ANewArray(int(in.IntImm), n.Int32(), m.Pool)
		if fc.Kind == FlowThrows {
			return fc
		}
		return pushOrFail(f, value.Reference(h))
	case opcodes.MULTIANEWARRAY:
		dims := make([]int32, in.IntImm2)
		for i := len(dims) - 1; i >= 0; i-- {
			v, err := f.Pop()
			if err != nil {
				return ThreadInterrupt()
			}
			dims[i] = v.Int32()
		}
		h, fc := rt.MultiANewArray(int(in.IntImm), dims, m.Pool)
		if fc.Kind == FlowThrows {
			return fc
		}
		return pushOrFail(f, value.Reference(h))
	case opcodes.ARRAYLENGTH:
		ref, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		if ref.IsNull() {
			return Throws(rt.NewException(excnames.NullPointerException, "arraylength on a null reference"))
		}
		n, fc := rt.ArrayLength(ref.Ref)
		if fc.Kind == FlowThrows {
			return fc
		}
		return pushOrFail(f, value.Int(n))

	case opcodes.CHECKCAST:
		ref, err := f.Peek()
		if err != nil {
			return ThreadInterrupt()
		}
		if ref.IsNull() {
			return Next()
		}
		return rt.CheckCast(ref.Ref, int(in.IntImm), m.Pool)
	case opcodes.INSTANCEOF:
		ref, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		if ref.IsNull() {
			return pushOrFail(f, value.Int(0))
		}
		ok, fc := rt.InstanceOf(ref.Ref, int(in.IntImm), m.Pool)
		if fc.Kind == FlowThrows {
			return fc
		}
		if ok {
			return pushOrFail(f, value.Int(1))
		}
		return pushOrFail(f, value.Int(0))

	case opcodes.MONITORENTER:
		ref, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		if ref.IsNull() {
			return Throws(rt.NewException(excnames.NullPointerException, "monitorenter on a null reference"))
		}
		return rt.MonitorEnter(ref.Ref)
	case opcodes.MONITOREXIT:
		ref, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		if ref.IsNull() {
			return Throws(rt.NewException(excnames.NullPointerException, "monitorexit on a null reference"))
		}
		return rt.MonitorExit(ref.Ref)
	}

	return Throws(rt.NewException(excnames.UnsupportedOperationException, "unimplemented opcode"))
}

func pushOrFail(f *frame.Frame, v value.Value) FlowControl {
	if err := f.Push(v); err != nil {
		return ThreadInterrupt()
	}
	return Next()
}

func errOrNext(err error) FlowControl {
	if err != nil {
		return ThreadInterrupt()
	}
	return Next()
}

func loadLocal(f *frame.Frame, idx int) FlowControl {
	v, err := f.GetLocal(idx)
	if err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, v)
}

func storeLocal(f *frame.Frame, idx int) FlowControl {
	v, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if err := f.SetLocal(idx, v); err != nil {
		return ThreadInterrupt()
	}
	return Next()
}

func floatToInt32(f float32) int32 {
	if f != f {
		return 0
	}
	if f >= float32(math.MaxInt32) {
		return math.MaxInt32
	}
	if f <= float32(math.MinInt32) {
		return math.MinInt32
	}
	return int32(f)
}

func floatToInt64(f float32) int64 {
	if f != f {
		return 0
	}
	if f >= float32(math.MaxInt64) {
		return math.MaxInt64
	}
	if f <= float32(math.MinInt64) {
		return math.MinInt64
	}
	return int64(f)
}

func doubleToInt32(d float64) int32 {
	if d != d {
		return 0
	}
	if d >= float64(math.MaxInt32) {
		return math.MaxInt32
	}
	if d <= float64(math.MinInt32) {
		return math.MinInt32
	}
	return int32(d)
}

func doubleToInt64(d float64) int64 {
	if d != d {
		return 0
	}
	if d >= float64(math.MaxInt64) {
		return math.MaxInt64
	}
	if d <= float64(math.MinInt64) {
		return math.MinInt64
	}
	return int64(d)
}
