/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package bootstrap

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcvm/src/classloader"
	"jcvm/src/heap"
	"jcvm/src/invoke"
	"jcvm/src/native"
	"jcvm/src/types"
	"jcvm/src/value"
)

type memSource map[string][]byte

func (m memSource) ReadClass(internalName string) ([]byte, bool) {
	b, ok := m[internalName+".class"]
	return b, ok
}

// classBuilder hand-assembles just enough of spec.md §6's byte layout to
// exercise bootstrap's field-wiring path: a root or single-super class
// with zero or more non-static instance fields.
type classBuilder struct{ entries [][]byte }

func (b *classBuilder) utf8(s string) int {
	e := make([]byte, 0, 3+len(s))
	e = append(e, 1)
	e = binary.BigEndian.AppendUint16(e, uint16(len(s)))
	e = append(e, s...)
	b.entries = append(b.entries, e)
	return len(b.entries)
}

func (b *classBuilder) class(utf8Idx int) int {
	e := make([]byte, 0, 3)
	e = append(e, 7)
	e = binary.BigEndian.AppendUint16(e, uint16(utf8Idx))
	b.entries = append(b.entries, e)
	return len(b.entries)
}

type fieldSpec struct{ name, desc string }

func buildClass(name, superName string, fields []fieldSpec) []byte {
	var cp classBuilder
	thisClass := cp.class(cp.utf8(name))
	var superClass int
	if superName != "" {
		superClass = cp.class(cp.utf8(superName))
	}

	type fieldIdx struct{ name, desc int }
	idxs := make([]fieldIdx, len(fields))
	for i, f := range fields {
		idxs[i] = fieldIdx{cp.utf8(f.name), cp.utf8(f.desc)}
	}

	buf := make([]byte, 0, 128)
	buf = binary.BigEndian.AppendUint32(buf, 0xCAFEBABE)
	buf = binary.BigEndian.AppendUint16(buf, 0)
	buf = binary.BigEndian.AppendUint16(buf, 52)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(cp.entries)+1))
	for _, e := range cp.entries {
		buf = append(buf, e...)
	}
	buf = binary.BigEndian.AppendUint16(buf, 0x0021) // PUBLIC|SUPER
	buf = binary.BigEndian.AppendUint16(buf, uint16(thisClass))
	buf = binary.BigEndian.AppendUint16(buf, uint16(superClass))
	buf = binary.BigEndian.AppendUint16(buf, 0) // interfaces_count
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(fields)))
	for _, fi := range idxs {
		buf = binary.BigEndian.AppendUint16(buf, 0) // access flags (non-static)
		buf = binary.BigEndian.AppendUint16(buf, uint16(fi.name))
		buf = binary.BigEndian.AppendUint16(buf, uint16(fi.desc))
		buf = binary.BigEndian.AppendUint16(buf, 0) // field attributes_count
	}
	buf = binary.BigEndian.AppendUint16(buf, 0) // methods_count
	buf = binary.BigEndian.AppendUint16(buf, 0) // attributes_count
	return buf
}

func coreClasspath() memSource {
	return memSource{
		"java/lang/Object.class":      buildClass("java/lang/Object", "", nil),
		"java/lang/ThreadGroup.class": buildClass("java/lang/ThreadGroup", "java/lang/Object", nil),
		"java/lang/Thread.class": buildClass("java/lang/Thread", "java/lang/Object", []fieldSpec{
			{"name", "Ljava/lang/String;"},
			{"priority", "I"},
			{"group", "Ljava/lang/ThreadGroup;"},
		}),
	}
}

func TestInit_LoadsCoreClassesAndWiresMainThread(t *testing.T) {
	loader := classloader.New(coreClasspath())
	vm := Init(loader)

	require.False(t, vm.Main.ThreadInfo().ThreadObject.IsNil(), "main thread's Thread instance must be wired")
	assert.Equal(t, "main", vm.Main.ThreadInfo().Name())
	assert.Equal(t, 5, vm.Main.ThreadInfo().Priority())

	threadEntry, res := loader.AttemptLoad("java/lang/Thread")
	require.Equal(t, classloader.Loaded, res)

	nameIdx, ok := threadEntry.Schema.SlotIndex("name")
	require.True(t, ok)
	nameVal := heap.ExpectInstance(vm.Main.ThreadInfo().ThreadObject).Slots[nameIdx]
	text, ok := invoke.StringText(nameVal.Ref)
	require.True(t, ok)
	assert.Equal(t, "main", text)

	prioIdx, ok := threadEntry.Schema.SlotIndex("priority")
	require.True(t, ok)
	assert.Equal(t, int32(5), heap.ExpectInstance(vm.Main.ThreadInfo().ThreadObject).Slots[prioIdx].Int32())

	groupIdx, ok := threadEntry.Schema.SlotIndex("group")
	require.True(t, ok)
	groupVal := heap.ExpectInstance(vm.Main.ThreadInfo().ThreadObject).Slots[groupIdx]
	assert.False(t, groupVal.Ref.IsNil())
}

func TestInit_EmptyClasspathSkipsWiringWithoutPanicking(t *testing.T) {
	loader := classloader.New()
	vm := Init(loader)

	assert.True(t, vm.Main.ThreadInfo().ThreadObject.IsNil())
}

func TestSystemProperties_IncludesPathSeparatorsAndEncoding(t *testing.T) {
	props := SystemProperties()
	assert.NotEmpty(t, props["file.separator"])
	assert.NotEmpty(t, props["path.separator"])
	assert.Equal(t, "UTF-8", props["file.encoding"])
}

func TestRegisterHooks_RegisterNativesIsANoOp(t *testing.T) {
	b := native.NewBridge()
	RegisterHooks(b)

	v, hadValue, err := b.CallNative("java/lang/System", "registerNatives", "()V", types.NilHandle, nil, nil)
	require.NoError(t, err)
	assert.False(t, hadValue)
	assert.Equal(t, value.Value{}, v)
}
