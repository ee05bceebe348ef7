/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package value implements spec.md §3's Value union: the tagged operand
// value every frame slot, field, and array element holds. jcvm favors a
// single strictly-typed union here over the teacher's looser
// interface{}-based operand representation, since the interpreter's
// numeric and category-1/2 invariants are much cheaper to enforce against
// a closed type than against bare interface{} conversions scattered
// through the opcode dispatch.
package value

import "jcvm/src/types"

// Kind tags which field of a Value is meaningful.
type Kind int

const (
	KByte Kind = iota
	KChar
	KShort
	KInt
	KLong
	KFloat
	KDouble
	KBoolean
	KReturnAddress
	KReference
)

// Value is a single JVM operand-stack/local-variable/field slot.
type Value struct {
	Kind Kind

	i int64   // Byte/Char/Short/Int/Long/Boolean/ReturnAddress, sign/zero-extended to 64 bits
	f float64 // Float (stored widened) / Double

	Ref types.ObjectHandle // KReference; the zero handle is null
}

func Int(v int32) Value        { return Value{Kind: KInt, i: int64(v)} }
func Long(v int64) Value       { return Value{Kind: KLong, i: v} }
func Byte(v int8) Value        { return Value{Kind: KByte, i: int64(v)} }
func Short(v int16) Value      { return Value{Kind: KShort, i: int64(v)} }
func Char(v uint16) Value      { return Value{Kind: KChar, i: int64(v)} }
func Boolean(v bool) Value {
	if v {
		return Value{Kind: KBoolean, i: 1}
	}
	return Value{Kind: KBoolean, i: 0}
}
func Float(v float32) Value  { return Value{Kind: KFloat, f: float64(v)} }
func Double(v float64) Value { return Value{Kind: KDouble, f: v} }
func ReturnAddress(pc int) Value { return Value{Kind: KReturnAddress, i: int64(pc)} }
func Reference(h types.ObjectHandle) Value { return Value{Kind: KReference, Ref: h} }
func Null() Value { return Value{Kind: KReference} }

func (v Value) IsNull() bool { return v.Kind == KReference && v.Ref.IsNil() }

// Int32 returns the value truncated/interpreted as a 32-bit int, valid
// for Byte/Char/Short/Int/Boolean/ReturnAddress kinds.
func (v Value) Int32() int32 { return int32(v.i) }

// Int64 returns the raw 64-bit integer payload, valid for Long and, by
// widening, any other integral kind.
func (v Value) Int64() int64 { return v.i }

func (v Value) Float32() float32 { return float32(v.f) }
func (v Value) Float64() float64 { return v.f }

// IsCategory2 reports whether this value occupies two stack/local slots
// (long and double), per spec.md §3.
func (v Value) IsCategory2() bool { return v.Kind == KLong || v.Kind == KDouble }

// DefaultForKind returns the JVM default value for a category's Kind,
// used when allocating zeroed fields, array elements, and locals.
func DefaultForKind(k Kind) Value {
	switch k {
	case KFloat:
		return Float(0)
	case KDouble:
		return Double(0)
	case KReference:
		return Null()
	case KBoolean:
		return Boolean(false)
	default:
		return Value{Kind: k}
	}
}
