/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"encoding/binary"
	"testing"
)

// buildTestClassObject hand-assembles the bit-exact byte layout of
// spec.md §6 for a class with no fields, no methods, and no
// attributes -- just enough for loader/schema tests to exercise the
// this/super resolution path. superName == "" produces a root class
// (super_class index 0).
func buildTestClassObject(t *testing.T, name, superName string) []byte {
	t.Helper()

	var cp [][]byte // constant pool entries in order, tag-prefixed
	utf8 := func(s string) int {
		e := make([]byte, 0, 3+len(s))
		e = append(e, 1) // TagUtf8
		e = binary.BigEndian.AppendUint16(e, uint16(len(s)))
		e = append(e, s...)
		cp = append(cp, e)
		return len(cp) // 1-indexed
	}
	classEntry := func(utf8Idx int) int {
		e := make([]byte, 0, 3)
		e = append(e, 7) // TagClass
		e = binary.BigEndian.AppendUint16(e, uint16(utf8Idx))
		cp = append(cp, e)
		return len(cp)
	}

	thisUtf8 := utf8(name)
	thisClass := classEntry(thisUtf8)

	var superClass int
	if superName != "" {
		superUtf8 := utf8(superName)
		superClass = classEntry(superUtf8)
	}

	buf := make([]byte, 0, 64)
	buf = binary.BigEndian.AppendUint32(buf, 0xCAFEBABE)
	buf = binary.BigEndian.AppendUint16(buf, 0)  // minor
	buf = binary.BigEndian.AppendUint16(buf, 52) // major
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(cp)+1))
	for _, e := range cp {
		buf = append(buf, e...)
	}
	buf = binary.BigEndian.AppendUint16(buf, 0x0021) // access: PUBLIC|SUPER
	buf = binary.BigEndian.AppendUint16(buf, uint16(thisClass))
	buf = binary.BigEndian.AppendUint16(buf, uint16(superClass))
	buf = binary.BigEndian.AppendUint16(buf, 0) // interfaces_count
	buf = binary.BigEndian.AppendUint16(buf, 0) // fields_count
	buf = binary.BigEndian.AppendUint16(buf, 0) // methods_count
	buf = binary.BigEndian.AppendUint16(buf, 0) // attributes_count
	return buf
}
