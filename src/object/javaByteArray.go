/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object holds small conversions between Go's native byte/string
// types and jcvm's heap-backed byte-array objects -- the same
// "Java byte array as Go string" convenience the teacher's own
// javaByteArray.go provided, rebuilt against heap.Object/value.Value
// array slots instead of the teacher's types.JavaByte/FieldTable/
// stringPool model, which this module doesn't carry.
package object

import (
	"strings"
	"unicode"

	"jcvm/src/heap"
	"jcvm/src/types"
	"jcvm/src/value"
)

// GoStringFromJavaByteArray reads a byte-array object's elements back
// into a Go string, one byte per rune -- the same latin1-width
// assumption the teacher's own conversion made.
func GoStringFromJavaByteArray(handle types.ObjectHandle) string {
	arr := heap.ExpectArray(handle)
	if arr == nil {
		return ""
	}
	var sb strings.Builder
	for _, slot := range arr.Slots {
		sb.WriteByte(byte(slot.Int64()))
	}
	return sb.String()
}

// JavaByteArrayFromGoString allocates a new KByte array object on h
// holding str's bytes.
func JavaByteArrayFromGoString(h *heap.Heap, str string) types.ObjectHandle {
	return JavaByteArrayFromGoByteArray(h, []byte(str))
}

// JavaByteArrayFromGoByteArray allocates a new KByte array object on h
// holding b's contents.
func JavaByteArrayFromGoByteArray(h *heap.Heap, b []byte) types.ObjectHandle {
	handle := h.AllocateArray(value.KByte, len(b))
	arr := heap.ExpectArray(handle)
	for i, c := range b {
		arr.Slots[i] = value.Byte(int8(c))
	}
	return handle
}

// GoByteArrayFromJavaByteArray is GoStringFromJavaByteArray's []byte
// counterpart, for call sites that want raw bytes rather than a string.
func GoByteArrayFromJavaByteArray(handle types.ObjectHandle) []byte {
	arr := heap.ExpectArray(handle)
	if arr == nil {
		return nil
	}
	out := make([]byte, len(arr.Slots))
	for i, slot := range arr.Slots {
		out[i] = byte(slot.Int64())
	}
	return out
}

// JavaByteArrayEquals compares two byte-array objects element by
// element, treating two null handles as equal and a null compared
// against a non-null array as unequal, matching Arrays.equals(byte[],
// byte[])'s defined behavior for null arguments.
func JavaByteArrayEquals(a, b types.ObjectHandle) bool {
	if a.IsNil() || b.IsNil() {
		return a.IsNil() && b.IsNil()
	}
	arrA, arrB := heap.ExpectArray(a), heap.ExpectArray(b)
	if arrA == nil || arrB == nil || len(arrA.Slots) != len(arrB.Slots) {
		return false
	}
	for i, slot := range arrA.Slots {
		if slot.Int64() != arrB.Slots[i].Int64() {
			return false
		}
	}
	return true
}

// JavaByteArrayEqualsIgnoreCase is JavaByteArrayEquals with ASCII
// case-folding applied to each element before comparison, the byte-array
// analogue of String.equalsIgnoreCase.
func JavaByteArrayEqualsIgnoreCase(a, b types.ObjectHandle) bool {
	if a.IsNil() || b.IsNil() {
		return a.IsNil() && b.IsNil()
	}
	arrA, arrB := heap.ExpectArray(a), heap.ExpectArray(b)
	if arrA == nil || arrB == nil || len(arrA.Slots) != len(arrB.Slots) {
		return false
	}
	for i, slot := range arrA.Slots {
		if unicode.ToLower(rune(byte(slot.Int64()))) != unicode.ToLower(rune(byte(arrB.Slots[i].Int64()))) {
			return false
		}
	}
	return true
}
