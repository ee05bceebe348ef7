/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package invoke

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcvm/src/classfile"
	"jcvm/src/classloader"
	"jcvm/src/heap"
	"jcvm/src/interp"
	"jcvm/src/thread"
	"jcvm/src/types"
	"jcvm/src/value"
)

// memSource is an in-memory classloader.Source keyed by internal class
// name, the same shape classloader's own tests use.
type memSource map[string][]byte

func (m memSource) ReadClass(internalName string) ([]byte, bool) {
	b, ok := m[internalName+".class"]
	return b, ok
}

// cpBuilder accumulates constant-pool entries in order, 1-indexed, for
// hand-assembling just enough of a class file to exercise one feature at
// a time without needing a real compiler in the test suite.
type cpBuilder struct{ entries [][]byte }

func (b *cpBuilder) utf8(s string) int {
	e := make([]byte, 0, 3+len(s))
	e = append(e, 1) // TagUtf8
	e = binary.BigEndian.AppendUint16(e, uint16(len(s)))
	e = append(e, s...)
	b.entries = append(b.entries, e)
	return len(b.entries)
}

func (b *cpBuilder) class(utf8Idx int) int {
	e := make([]byte, 0, 3)
	e = append(e, 7) // TagClass
	e = binary.BigEndian.AppendUint16(e, uint16(utf8Idx))
	b.entries = append(b.entries, e)
	return len(b.entries)
}

func (b *cpBuilder) nameAndType(nameIdx, descIdx int) int {
	e := make([]byte, 0, 5)
	e = append(e, 12) // TagNameAndType
	e = binary.BigEndian.AppendUint16(e, uint16(nameIdx))
	e = binary.BigEndian.AppendUint16(e, uint16(descIdx))
	b.entries = append(b.entries, e)
	return len(b.entries)
}

func (b *cpBuilder) fieldref(classIdx, natIdx int) int {
	e := make([]byte, 0, 5)
	e = append(e, 9) // TagFieldref
	e = binary.BigEndian.AppendUint16(e, uint16(classIdx))
	e = binary.BigEndian.AppendUint16(e, uint16(natIdx))
	b.entries = append(b.entries, e)
	return len(b.entries)
}

// buildStaticFieldClass hand-assembles a root class (no super) carrying
// one static field and a Fieldref pointing at it, returning the raw
// class bytes, the Fieldref's constant-pool index, and the class's own
// Class-entry index (for New's ClassName lookup).
func buildStaticFieldClass(name, fieldName, fieldDesc string) (raw []byte, fieldrefIdx, classIdx int) {
	var cp cpBuilder
	thisUtf8 := cp.utf8(name)
	thisClass := cp.class(thisUtf8)
	fNameIdx := cp.utf8(fieldName)
	fDescIdx := cp.utf8(fieldDesc)
	natIdx := cp.nameAndType(fNameIdx, fDescIdx)
	fref := cp.fieldref(thisClass, natIdx)

	buf := make([]byte, 0, 96)
	buf = binary.BigEndian.AppendUint32(buf, 0xCAFEBABE)
	buf = binary.BigEndian.AppendUint16(buf, 0)
	buf = binary.BigEndian.AppendUint16(buf, 52)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(cp.entries)+1))
	for _, e := range cp.entries {
		buf = append(buf, e...)
	}
	buf = binary.BigEndian.AppendUint16(buf, 0x0021) // PUBLIC|SUPER
	buf = binary.BigEndian.AppendUint16(buf, uint16(thisClass))
	buf = binary.BigEndian.AppendUint16(buf, 0) // super_class = 0 (root)
	buf = binary.BigEndian.AppendUint16(buf, 0) // interfaces_count
	buf = binary.BigEndian.AppendUint16(buf, 1) // fields_count
	buf = binary.BigEndian.AppendUint16(buf, classfile.FAccStatic)
	buf = binary.BigEndian.AppendUint16(buf, uint16(fNameIdx))
	buf = binary.BigEndian.AppendUint16(buf, uint16(fDescIdx))
	buf = binary.BigEndian.AppendUint16(buf, 0) // field attributes_count
	buf = binary.BigEndian.AppendUint16(buf, 0) // methods_count
	buf = binary.BigEndian.AppendUint16(buf, 0) // attributes_count
	return buf, fref, thisClass
}

func TestMaterializeStatics_GetSetRoundTrip(t *testing.T) {
	raw, fieldrefIdx, _ := buildStaticFieldClass("pkg/Counters", "count", "I")
	src := memSource{"pkg/Counters.class": raw}
	loader := classloader.New(src)
	h := heap.New()
	reg := thread.New()
	threadInfo := reg.Register(types.NilHandle)
	iv := New(loader, h, threadInfo, nil)

	entry, res := loader.AttemptLoad("pkg/Counters")
	require.Equal(t, classloader.Loaded, res)
	require.Len(t, entry.Schema.OwnStaticFields, 1)
	require.Empty(t, entry.Schema.StaticFields, "BuildSchema records only which fields need storage, not offsets")

	v, fc := iv.GetStatic(fieldrefIdx, entry.File)
	require.NotEqual(t, interp.FlowThrows, fc.Kind)
	assert.Equal(t, int32(0), v.Int32(), "a freshly materialized static defaults to zero")

	require.Len(t, entry.Schema.StaticFields, 1, "GetStatic must trigger materialization on first touch")
	offset, ok := entry.Schema.StaticFields["count"]
	require.True(t, ok)
	assert.Equal(t, 0, offset)

	fc = iv.PutStatic(value.Int(42), fieldrefIdx, entry.File)
	require.NotEqual(t, interp.FlowThrows, fc.Kind)

	v, fc = iv.GetStatic(fieldrefIdx, entry.File)
	require.NotEqual(t, interp.FlowThrows, fc.Kind)
	assert.Equal(t, int32(42), v.Int32())
}

func TestNew_AllocatesZeroedInstanceOfLoadedClass(t *testing.T) {
	raw, _, classIdx := buildStaticFieldClass("pkg/Plain", "unused", "I")
	src := memSource{"pkg/Plain.class": raw}
	loader := classloader.New(src)
	h := heap.New()
	reg := thread.New()
	iv := New(loader, h, reg.Register(types.NilHandle), nil)

	entry, res := loader.AttemptLoad("pkg/Plain")
	require.Equal(t, classloader.Loaded, res)

	handle, fc := iv.New(classIdx, entry.File)
	require.NotEqual(t, interp.FlowThrows, fc.Kind)
	assert.False(t, handle.IsNil())
}

func TestInternString_DedupesByLiteralText(t *testing.T) {
	h := heap.New()
	iv := &Invoker{Heap: h}

	h1 := iv.internString("hello")
	h2 := iv.internString("hello")
	h3 := iv.internString("world")

	assert.Equal(t, h1, h2, "interning the same literal text twice must return the same handle")
	assert.NotEqual(t, h1, h3)

	text, ok := StringText(h1)
	require.True(t, ok)
	assert.Equal(t, "hello", text)
}

func TestClassMirror_DedupesByClassName(t *testing.T) {
	h := heap.New()
	iv := &Invoker{Heap: h}

	h1 := iv.classMirror("java/lang/Object")
	h2 := iv.classMirror("java/lang/Object")
	h3 := iv.classMirror("java/lang/String")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestIsSubtypeOf_WalksParentChain(t *testing.T) {
	root := &classloader.Schema{ClassName: "java/lang/Object"}
	base := &classloader.Schema{ClassName: "pkg/Base", Parent: root}
	child := &classloader.Schema{ClassName: "pkg/Child", Parent: base}

	h := heap.New()
	iv := &Invoker{Heap: h}
	handle := h.AllocateInstance(child, nil)

	assert.True(t, iv.IsSubtypeOf(handle, "pkg/Child"))
	assert.True(t, iv.IsSubtypeOf(handle, "pkg/Base"))
	assert.True(t, iv.IsSubtypeOf(handle, "java/lang/Object"))
	assert.False(t, iv.IsSubtypeOf(handle, "pkg/Unrelated"))
}

func TestMonitorEnterExit_UnbalancedExitThrows(t *testing.T) {
	h := heap.New()
	reg := thread.New()
	info := reg.Register(types.NilHandle)
	iv := &Invoker{Heap: h, Thread: info}

	schema := &classloader.Schema{ClassName: "pkg/Lockable"}
	handle := h.AllocateInstance(schema, nil)

	fc := iv.MonitorExit(handle)
	require.Equal(t, interp.FlowThrows, fc.Kind)

	require.Equal(t, interp.FlowControl{}, iv.MonitorEnter(handle))
	require.Equal(t, interp.FlowControl{}, iv.MonitorExit(handle))
}
