/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"math"

	"jcvm/src/excnames"
	"jcvm/src/frame"
	"jcvm/src/value"
)

// --- Stack shape: pop2, dup family, swap ---
//
// These go through Push/Pop and check each popped value's category,
// since the JVM spec defines dup_x1/dup_x2/dup2/dup2_x1/dup2_x2 in terms
// of raw stack words, not value semantics (a dup2 of two category-1
// values moves two independent words; a dup2 of one category-2 value
// moves its single two-word pair) -- grounded on spec.md §4.8.3's stack
// shape table.

func pop2(f *frame.Frame) FlowControl {
	top, err := f.Peek()
	if err != nil {
		return ThreadInterrupt()
	}
	if top.IsCategory2() {
		if _, err := f.Pop(); err != nil {
			return ThreadInterrupt()
		}
		return Next()
	}
	if _, err := f.Pop(); err != nil {
		return ThreadInterrupt()
	}
	if _, err := f.Pop(); err != nil {
		return ThreadInterrupt()
	}
	return Next()
}

func dup(f *frame.Frame) FlowControl {
	v, err := f.Peek()
	if err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, v)
}

func dupX1(f *frame.Frame) FlowControl {
	v1, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	v2, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if err := f.Push(v1); err != nil {
		return ThreadInterrupt()
	}
	if err := f.Push(v2); err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, v1)
}

func dupX2(f *frame.Frame) FlowControl {
	v1, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	v2, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if v2.IsCategory2() {
		if err := f.Push(v1); err != nil {
			return ThreadInterrupt()
		}
		if err := f.Push(v2); err != nil {
			return ThreadInterrupt()
		}
		return pushOrFail(f, v1)
	}
	v3, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if err := f.Push(v1); err != nil {
		return ThreadInterrupt()
	}
	if err := f.Push(v3); err != nil {
		return ThreadInterrupt()
	}
	if err := f.Push(v2); err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, v1)
}

func dup2(f *frame.Frame) FlowControl {
	v1, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if v1.IsCategory2() {
		if err := f.Push(v1); err != nil {
			return ThreadInterrupt()
		}
		return pushOrFail(f, v1)
	}
	v2, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if err := f.Push(v2); err != nil {
		return ThreadInterrupt()
	}
	if err := f.Push(v1); err != nil {
		return ThreadInterrupt()
	}
	if err := f.Push(v2); err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, v1)
}

func dup2X1(f *frame.Frame) FlowControl {
	v1, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if v1.IsCategory2() {
		v2, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		if err := f.Push(v1); err != nil {
			return ThreadInterrupt()
		}
		if err := f.Push(v2); err != nil {
			return ThreadInterrupt()
		}
		return pushOrFail(f, v1)
	}
	v2, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	v3, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	for _, v := range []value.Value{v2, v1, v3, v2, v1} {
		if err := f.Push(v); err != nil {
			return ThreadInterrupt()
		}
	}
	return Next()
}

func dup2X2(f *frame.Frame) FlowControl {
	v1, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	v2, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if v1.IsCategory2() && v2.IsCategory2() {
		if err := f.Push(v1); err != nil {
			return ThreadInterrupt()
		}
		if err := f.Push(v2); err != nil {
			return ThreadInterrupt()
		}
		return pushOrFail(f, v1)
	}
	if v1.IsCategory2() {
		v3, err := f.Pop()
		if err != nil {
			return ThreadInterrupt()
		}
		for _, v := range []value.Value{v1, v3, v2, v1} {
			if err := f.Push(v); err != nil {
				return ThreadInterrupt()
			}
		}
		return Next()
	}
	if v2.IsCategory2() {
		for _, v := range []value.Value{v1, v2, v1} {
			if err := f.Push(v); err != nil {
				return ThreadInterrupt()
			}
		}
		return Next()
	}
	v3, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if v3.IsCategory2() {
		for _, v := range []value.Value{v2, v1, v3, v2, v1} {
			if err := f.Push(v); err != nil {
				return ThreadInterrupt()
			}
		}
		return Next()
	}
	v4, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	for _, v := range []value.Value{v2, v1, v4, v3, v2, v1} {
		if err := f.Push(v); err != nil {
			return ThreadInterrupt()
		}
	}
	return Next()
}

func swap(f *frame.Frame) FlowControl {
	v1, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	v2, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if err := f.Push(v1); err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, v2)
}

// --- Arithmetic helpers ---

func binInt(f *frame.Frame, op func(a, b int32) int32) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, value.Int(op(a.Int32(), b.Int32())))
}

func unInt(f *frame.Frame, op func(a int32) int32) FlowControl {
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, value.Int(op(a.Int32())))
}

func binLong(f *frame.Frame, op func(a, b int64) int64) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, value.Long(op(a.Int64(), b.Int64())))
}

func unLong(f *frame.Frame, op func(a int64) int64) FlowControl {
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, value.Long(op(a.Int64())))
}

// longShift takes the shift count from an int (category-1) operand, per
// spec.md §4.8.4's "lshl/lshr/lushr take an int shift count, masked to 6
// bits, not a long".
func longShift(f *frame.Frame, op func(a int64, shift uint32) int64) FlowControl {
	s, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, value.Long(op(a.Int64(), uint32(s.Int32()))))
}

func binFloat(f *frame.Frame, op func(a, b float32) float32) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, value.Float(op(a.Float32(), b.Float32())))
}

func unFloat(f *frame.Frame, op func(a float32) float32) FlowControl {
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, value.Float(op(a.Float32())))
}

func binDouble(f *frame.Frame, op func(a, b float64) float64) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, value.Double(op(a.Float64(), b.Float64())))
}

func unDouble(f *frame.Frame, op func(a float64) float64) FlowControl {
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, value.Double(op(a.Float64())))
}

func convert(f *frame.Frame, op func(v value.Value) value.Value) FlowControl {
	v, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	return pushOrFail(f, op(v))
}

// --- Integer division/remainder: §4.8.4's divide-by-zero and
// MIN_VALUE/-1 wraparound semantics ---

func intDiv(f *frame.Frame, rt Runtime) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if b.Int32() == 0 {
		return Throws(rt.NewException(excnames.ArithmeticException, "/ by zero"))
	}
	if a.Int32() == math.MinInt32 && b.Int32() == -1 {
		return pushOrFail(f, value.Int(math.MinInt32))
	}
	return pushOrFail(f, value.Int(a.Int32()/b.Int32()))
}

func intRem(f *frame.Frame, rt Runtime) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if b.Int32() == 0 {
		return Throws(rt.NewException(excnames.ArithmeticException, "/ by zero"))
	}
	if a.Int32() == math.MinInt32 && b.Int32() == -1 {
		return pushOrFail(f, value.Int(0))
	}
	return pushOrFail(f, value.Int(a.Int32()%b.Int32()))
}

func longDiv(f *frame.Frame, rt Runtime) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if b.Int64() == 0 {
		return Throws(rt.NewException(excnames.ArithmeticException, "/ by zero"))
	}
	if a.Int64() == math.MinInt64 && b.Int64() == -1 {
		return pushOrFail(f, value.Long(math.MinInt64))
	}
	return pushOrFail(f, value.Long(a.Int64()/b.Int64()))
}

func longRem(f *frame.Frame, rt Runtime) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if b.Int64() == 0 {
		return Throws(rt.NewException(excnames.ArithmeticException, "/ by zero"))
	}
	if a.Int64() == math.MinInt64 && b.Int64() == -1 {
		return pushOrFail(f, value.Long(0))
	}
	return pushOrFail(f, value.Long(a.Int64()%b.Int64()))
}

// --- Comparisons ---

func cmpLong(f *frame.Frame) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	switch {
	case a.Int64() > b.Int64():
		return pushOrFail(f, value.Int(1))
	case a.Int64() < b.Int64():
		return pushOrFail(f, value.Int(-1))
	default:
		return pushOrFail(f, value.Int(0))
	}
}

// cmpFloat/cmpDouble implement the fcmpl/fcmpg/dcmpl/dcmpg pair: both
// agree when neither operand is NaN; nanResult (-1 for the "l" forms, 1
// for the "g" forms) is pushed when either is NaN, per spec.md §4.8.4.
func cmpFloat(f *frame.Frame, nanResult int32) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	af, bf := a.Float32(), b.Float32()
	if af != af || bf != bf {
		return pushOrFail(f, value.Int(nanResult))
	}
	switch {
	case af > bf:
		return pushOrFail(f, value.Int(1))
	case af < bf:
		return pushOrFail(f, value.Int(-1))
	default:
		return pushOrFail(f, value.Int(0))
	}
}

func cmpDouble(f *frame.Frame, nanResult int32) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	ad, bd := a.Float64(), b.Float64()
	if ad != ad || bd != bd {
		return pushOrFail(f, value.Int(nanResult))
	}
	switch {
	case ad > bd:
		return pushOrFail(f, value.Int(1))
	case ad < bd:
		return pushOrFail(f, value.Int(-1))
	default:
		return pushOrFail(f, value.Int(0))
	}
}

// --- Conditional branches ---

func ifInt(f *frame.Frame, in Instruction, pred func(a int32) bool) FlowControl {
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if pred(a.Int32()) {
		return Branch(int(in.IntImm))
	}
	return Next()
}

func ifRef(f *frame.Frame, in Instruction, pred func(isNull bool) bool) FlowControl {
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if pred(a.IsNull()) {
		return Branch(int(in.IntImm))
	}
	return Next()
}

func ifIcmp(f *frame.Frame, in Instruction, pred func(a, b int32) bool) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if pred(a.Int32(), b.Int32()) {
		return Branch(int(in.IntImm))
	}
	return Next()
}

func ifAcmp(f *frame.Frame, in Instruction, wantEqual bool) FlowControl {
	b, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	a, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	equal := a.Ref == b.Ref
	if equal == wantEqual {
		return Branch(int(in.IntImm))
	}
	return Next()
}

// --- Array access ---

func arrayLoad(f *frame.Frame, rt Runtime) FlowControl {
	idx, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	ref, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if ref.IsNull() {
		return Throws(rt.NewException(excnames.NullPointerException, "array load on a null reference"))
	}
	v, fc := rt.ArrayLoad(ref.Ref, idx.Int32())
	if fc.Kind == FlowThrows {
		return fc
	}
	return pushOrFail(f, v)
}

func arrayStore(f *frame.Frame, rt Runtime) FlowControl {
	v, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	idx, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	ref, err := f.Pop()
	if err != nil {
		return ThreadInterrupt()
	}
	if ref.IsNull() {
		return Throws(rt.NewException(excnames.NullPointerException, "array store on a null reference"))
	}
	return rt.ArrayStore(ref.Ref, idx.Int32(), v)
}
