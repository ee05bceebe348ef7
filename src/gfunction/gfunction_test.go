/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcvm/src/classloader"
	"jcvm/src/heap"
	"jcvm/src/invoke"
	"jcvm/src/native"
	"jcvm/src/thread"
	"jcvm/src/types"
	"jcvm/src/value"
)

func newTestInvoker() *invoke.Invoker {
	loader := classloader.New()
	h := heap.New()
	reg := thread.New()
	info := reg.Register(types.NilHandle)
	b := native.NewBridge()
	RegisterAll(b)
	return invoke.New(loader, h, info, b)
}

func str(iv *invoke.Invoker, s string) value.Value {
	return value.Reference(iv.InternString(s))
}

func TestStringLength(t *testing.T) {
	iv := newTestInvoker()
	v, had, err := iv.Native.CallNative("java/lang/String", "length", "()I", iv.InternString("hello"), nil, iv)
	require.NoError(t, err)
	require.True(t, had)
	assert.Equal(t, int32(5), v.Int32())
}

func TestStringCharAtOutOfRangeSetsSticky(t *testing.T) {
	iv := newTestInvoker()
	_, _, err := iv.Native.CallNative("java/lang/String", "charAt", "(I)C", iv.InternString("hi"), []value.Value{value.Int(9)}, iv)
	require.NoError(t, err)
	_, ok := iv.Thread.TakeSticky()
	assert.True(t, ok, "out-of-range charAt must set a sticky exception")
}

func TestStringConcat(t *testing.T) {
	iv := newTestInvoker()
	v, _, err := iv.Native.CallNative("java/lang/String", "concat", "(Ljava/lang/String;)Ljava/lang/String;",
		iv.InternString("foo"), []value.Value{str(iv, "bar")}, iv)
	require.NoError(t, err)
	got, ok := invoke.StringText(v.Ref)
	require.True(t, ok)
	assert.Equal(t, "foobar", got)
}

func TestStringEqualsAndHashCode(t *testing.T) {
	iv := newTestInvoker()
	eq, _, err := iv.Native.CallNative("java/lang/String", "equals", "(Ljava/lang/Object;)Z",
		iv.InternString("abc"), []value.Value{str(iv, "abc")}, iv)
	require.NoError(t, err)
	assert.Equal(t, int64(1), eq.Int64())

	h, _, err := iv.Native.CallNative("java/lang/String", "hashCode", "()I", iv.InternString("abc"), nil, iv)
	require.NoError(t, err)
	// "abc".hashCode() == 96354 per the JDK's defined formula.
	assert.Equal(t, int32(96354), h.Int32())
}

func TestStringSubstringAndToCharArray(t *testing.T) {
	iv := newTestInvoker()
	sub, _, err := iv.Native.CallNative("java/lang/String", "substring", "(II)Ljava/lang/String;",
		iv.InternString("hello world"), []value.Value{value.Int(6), value.Int(11)}, iv)
	require.NoError(t, err)
	got, _ := invoke.StringText(sub.Ref)
	assert.Equal(t, "world", got)

	arr, _, err := iv.Native.CallNative("java/lang/String", "toCharArray", "()[C", iv.InternString("ab"), nil, iv)
	require.NoError(t, err)
	a := heap.ExpectArray(arr.Ref)
	require.Len(t, a.Slots, 2)
	assert.Equal(t, uint16('a'), uint16(a.Slots[0].Int64()))
}

func TestStringValueOfInt(t *testing.T) {
	iv := newTestInvoker()
	v, _, err := iv.Native.CallNative("java/lang/String", "valueOf", "(I)Ljava/lang/String;", types.NilHandle, []value.Value{value.Int(42)}, iv)
	require.NoError(t, err)
	got, _ := invoke.StringText(v.Ref)
	assert.Equal(t, "42", got)
}

// sbObjSchema gives StringBuilder instances real heap identity for
// these tests, mirroring the zero-field synthetic schema every other
// package's tests use for classless objects.
type sbObjSchema struct{}

func (sbObjSchema) Name() string           { return "java/lang/StringBuilder" }
func (sbObjSchema) InstanceSlotCount() int { return 0 }

func TestStringBuilderAppendAndToString(t *testing.T) {
	iv := newTestInvoker()
	self := iv.Heap.AllocateInstance(sbObjSchema{}, nil)

	_, _, err := iv.Native.CallNative("java/lang/StringBuilder", "<init>", "()V", self, nil, iv)
	require.NoError(t, err)

	_, _, err = iv.Native.CallNative("java/lang/StringBuilder", "append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;",
		self, []value.Value{str(iv, "count: ")}, iv)
	require.NoError(t, err)
	_, _, err = iv.Native.CallNative("java/lang/StringBuilder", "append", "(I)Ljava/lang/StringBuilder;",
		self, []value.Value{value.Int(7)}, iv)
	require.NoError(t, err)

	out, _, err := iv.Native.CallNative("java/lang/StringBuilder", "toString", "()Ljava/lang/String;", self, nil, iv)
	require.NoError(t, err)
	got, _ := invoke.StringText(out.Ref)
	assert.Equal(t, "count: 7", got)
}

func TestThreadSleepRejectsNegativeDuration(t *testing.T) {
	iv := newTestInvoker()
	_, _, err := iv.Native.CallNative("java/lang/Thread", "sleep", "(J)V", types.NilHandle, []value.Value{value.Long(-1)}, iv)
	require.NoError(t, err)
	_, ok := iv.Thread.TakeSticky()
	assert.True(t, ok)
}

func TestThreadNameRoundTrip(t *testing.T) {
	iv := newTestInvoker()
	_, _, err := iv.Native.CallNative("java/lang/Thread", "setName", "(Ljava/lang/String;)V", types.NilHandle, []value.Value{str(iv, "worker")}, iv)
	require.NoError(t, err)

	v, _, err := iv.Native.CallNative("java/lang/Thread", "getName", "()Ljava/lang/String;", types.NilHandle, nil, iv)
	require.NoError(t, err)
	got, _ := invoke.StringText(v.Ref)
	assert.Equal(t, "worker", got)
}

func TestHashMapHashOfStringMatchesSpreadFormula(t *testing.T) {
	iv := newTestInvoker()
	v, _, err := iv.Native.CallNative("java/util/HashMap", "hash", "(Ljava/lang/Object;)I", types.NilHandle, []value.Value{str(iv, "abc")}, iv)
	require.NoError(t, err)
	h := int32(96354)
	assert.Equal(t, h^int32(uint32(h)>>16), v.Int32())
}

func TestHashMapHashOfNullIsZero(t *testing.T) {
	iv := newTestInvoker()
	v, _, err := iv.Native.CallNative("java/util/HashMap", "hash", "(Ljava/lang/Object;)I", types.NilHandle, []value.Value{value.Null()}, iv)
	require.NoError(t, err)
	assert.Equal(t, int32(0), v.Int32())
}

func TestUnsafeGetPutIntRoundTrip(t *testing.T) {
	iv := newTestInvoker()
	obj := iv.Heap.AllocateArray(value.KInt, 4)

	_, _, err := iv.Native.CallNative("jdk/internal/misc/Unsafe", "putInt", "(Ljava/lang/Object;JI)V",
		types.NilHandle, []value.Value{value.Reference(obj), value.Long(2), value.Int(99)}, iv)
	require.NoError(t, err)

	v, _, err := iv.Native.CallNative("jdk/internal/misc/Unsafe", "getInt", "(Ljava/lang/Object;J)I",
		types.NilHandle, []value.Value{value.Reference(obj), value.Long(2)}, iv)
	require.NoError(t, err)
	assert.Equal(t, int32(99), v.Int32())
}

func TestUnsafeCompareAndSwapIntFailsOnMismatch(t *testing.T) {
	iv := newTestInvoker()
	obj := iv.Heap.AllocateArray(value.KInt, 1)

	ok, _, err := iv.Native.CallNative("sun/misc/Unsafe", "compareAndSwapInt", "(Ljava/lang/Object;JII)Z",
		types.NilHandle, []value.Value{value.Reference(obj), value.Long(0), value.Int(123), value.Int(5)}, iv)
	require.NoError(t, err)
	assert.False(t, ok.Int64() != 0)
}
