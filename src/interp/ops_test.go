/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcvm/src/classfile"
	"jcvm/src/excnames"
	"jcvm/src/frame"
	"jcvm/src/opcodes"
	"jcvm/src/thread"
	"jcvm/src/types"
	"jcvm/src/value"
)

// fakeRuntime satisfies Runtime with just enough behavior for the
// opcode-level tests in this file: NewException mints a handle tagging
// its kind (no real heap involved), and ArrayLoad/ArrayStore operate
// against an in-memory slice so arrayLoad/arrayStore can be exercised
// without pulling in package heap.
type fakeRuntime struct {
	info    *thread.Info
	arr     []value.Value
	lastErr excnames.ExceptionType
}

func (r *fakeRuntime) Invoke(InvokeKind, int, *frame.Frame, *classfile.ClassFile) FlowControl {
	panic("not used by these tests")
}
func (r *fakeRuntime) New(int, *classfile.ClassFile) (types.ObjectHandle, FlowControl) {
	panic("not used by these tests")
}
func (r *fakeRuntime) GetField(types.ObjectHandle, int, *classfile.ClassFile) (value.Value, FlowControl) {
	panic("not used by these tests")
}
func (r *fakeRuntime) PutField(types.ObjectHandle, value.Value, int, *classfile.ClassFile) FlowControl {
	panic("not used by these tests")
}
func (r *fakeRuntime) GetStatic(int, *classfile.ClassFile) (value.Value, FlowControl) {
	panic("not used by these tests")
}
func (r *fakeRuntime) PutStatic(value.Value, int, *classfile.ClassFile) FlowControl {
	panic("not used by these tests")
}
func (r *fakeRuntime) NewArray(int, int32) (types.ObjectHandle, FlowControl) {
	panic("not used by these tests")
}
func (r *fakeRuntime) ANewArray(int, int32, *classfile.ClassFile) (types.ObjectHandle, FlowControl) {
	panic("not used by these tests")
}
func (r *fakeRuntime) MultiANewArray(int, []int32, *classfile.ClassFile) (types.ObjectHandle, FlowControl) {
	panic("not used by these tests")
}
func (r *fakeRuntime) ArrayLength(types.ObjectHandle) (int32, FlowControl) {
	panic("not used by these tests")
}
func (r *fakeRuntime) ArrayLoad(handle types.ObjectHandle, index int32) (value.Value, FlowControl) {
	if index < 0 || int(index) >= len(r.arr) {
		return value.Value{}, Throws(r.NewException(excnames.ArrayIndexOutOfBoundsException, "index out of range"))
	}
	return r.arr[index], FlowControl{}
}
func (r *fakeRuntime) ArrayStore(handle types.ObjectHandle, index int32, v value.Value) FlowControl {
	if index < 0 || int(index) >= len(r.arr) {
		return Throws(r.NewException(excnames.ArrayIndexOutOfBoundsException, "index out of range"))
	}
	r.arr[index] = v
	return FlowControl{}
}
func (r *fakeRuntime) CheckCast(types.ObjectHandle, int, *classfile.ClassFile) FlowControl {
	panic("not used by these tests")
}
func (r *fakeRuntime) InstanceOf(types.ObjectHandle, int, *classfile.ClassFile) (bool, FlowControl) {
	panic("not used by these tests")
}
func (r *fakeRuntime) MonitorEnter(types.ObjectHandle) FlowControl {
	panic("not used by these tests")
}
func (r *fakeRuntime) MonitorExit(types.ObjectHandle) FlowControl {
	panic("not used by these tests")
}
func (r *fakeRuntime) LoadConstant(int, bool, *classfile.ClassFile) (value.Value, FlowControl) {
	panic("not used by these tests")
}
func (r *fakeRuntime) InvokeDynamic(int, *frame.Frame, *classfile.ClassFile) FlowControl {
	panic("not used by these tests")
}
func (r *fakeRuntime) ThreadInfo() *thread.Info { return r.info }
func (r *fakeRuntime) NewException(kind excnames.ExceptionType, message string) types.ObjectHandle {
	r.lastErr = kind
	return types.NewObjectHandle(1) // any non-nil handle; these tests only check FlowThrows, not identity
}

func newFakeRuntime() *fakeRuntime {
	reg := thread.New()
	info := reg.Register(types.NilHandle)
	return &fakeRuntime{info: info}
}

func TestDup_DuplicatesTopCategory1Value(t *testing.T) {
	f := frame.New(4, 0)
	require.NoError(t, f.Push(value.Int(7)))
	fc := dup(f)
	require.Equal(t, FlowNext, fc.Kind)
	require.Equal(t, 2, f.Depth())
	top, _ := f.Pop()
	assert.Equal(t, int32(7), top.Int32())
	second, _ := f.Pop()
	assert.Equal(t, int32(7), second.Int32())
}

func TestDup2_TwoCategory1ValuesDuplicatesBothWords(t *testing.T) {
	f := frame.New(8, 0)
	require.NoError(t, f.Push(value.Int(1)))
	require.NoError(t, f.Push(value.Int(2)))
	fc := dup2(f)
	require.Equal(t, FlowNext, fc.Kind)
	require.Equal(t, 4, f.Depth())
	got := []int32{}
	for f.Depth() > 0 {
		v, _ := f.Pop()
		got = append(got, v.Int32())
	}
	assert.Equal(t, []int32{2, 1, 2, 1}, got)
}

func TestDup2_OneCategory2ValueDuplicatesThePair(t *testing.T) {
	f := frame.New(4, 0)
	require.NoError(t, f.Push(value.Long(42)))
	fc := dup2(f)
	require.Equal(t, FlowNext, fc.Kind)
	// A long occupies two slots; dup2 of one long duplicates the whole
	// pair, so depth goes from 2 to 4, and popping twice yields the same
	// long value both times.
	require.Equal(t, 4, f.Depth())
	top, _ := f.Pop()
	assert.Equal(t, int64(42), top.Int64())
	bottom, _ := f.Pop()
	assert.Equal(t, int64(42), bottom.Int64())
}

func TestSwap_ExchangesTopTwoValues(t *testing.T) {
	f := frame.New(4, 0)
	require.NoError(t, f.Push(value.Int(1)))
	require.NoError(t, f.Push(value.Int(2)))
	fc := swap(f)
	require.Equal(t, FlowNext, fc.Kind)
	top, _ := f.Pop()
	assert.Equal(t, int32(1), top.Int32())
	bottom, _ := f.Pop()
	assert.Equal(t, int32(2), bottom.Int32())
}

func TestIntDiv_ByZeroThrowsArithmeticException(t *testing.T) {
	rt := newFakeRuntime()
	f := frame.New(4, 0)
	require.NoError(t, f.Push(value.Int(10)))
	require.NoError(t, f.Push(value.Int(0)))
	fc := intDiv(f, rt)
	require.Equal(t, FlowThrows, fc.Kind)
	assert.Equal(t, excnames.ArithmeticException, rt.lastErr)
}

func TestIntDiv_MinValueByNegativeOneWrapsAround(t *testing.T) {
	rt := newFakeRuntime()
	f := frame.New(4, 0)
	const minInt32 = -2147483648
	require.NoError(t, f.Push(value.Int(minInt32)))
	require.NoError(t, f.Push(value.Int(-1)))
	fc := intDiv(f, rt)
	require.Equal(t, FlowNext, fc.Kind)
	top, _ := f.Pop()
	assert.Equal(t, int32(minInt32), top.Int32())
}

func TestIntRem_MinValueByNegativeOneIsZero(t *testing.T) {
	rt := newFakeRuntime()
	f := frame.New(4, 0)
	const minInt32 = -2147483648
	require.NoError(t, f.Push(value.Int(minInt32)))
	require.NoError(t, f.Push(value.Int(-1)))
	fc := intRem(f, rt)
	require.Equal(t, FlowNext, fc.Kind)
	top, _ := f.Pop()
	assert.Equal(t, int32(0), top.Int32())
}

func TestLongShift_MasksShiftCountToSixBits(t *testing.T) {
	f := frame.New(4, 0)
	require.NoError(t, f.Push(value.Long(1)))
	// 64 masked to 6 bits is 0, so this must behave as a no-op shift, not
	// shift the value entirely out (the classic "shift by width" bug).
	require.NoError(t, f.Push(value.Int(64)))
	fc := exec(Instruction{Op: opcodes.LSHL}, f, &Method{}, newFakeRuntime())
	require.Equal(t, FlowNext, fc.Kind)
	top, _ := f.Pop()
	assert.Equal(t, int64(1), top.Int64())
}

func TestCmpFloat_NaNProducesConfiguredResult(t *testing.T) {
	f := frame.New(4, 0)
	nan := float32(0)
	nan = nan / nan
	require.NoError(t, f.Push(value.Float(1)))
	require.NoError(t, f.Push(value.Float(nan)))
	fc := cmpFloat(f, -1)
	require.Equal(t, FlowNext, fc.Kind)
	top, _ := f.Pop()
	assert.Equal(t, int32(-1), top.Int32())
}

func TestArrayLoad_OutOfBoundsThrows(t *testing.T) {
	rt := newFakeRuntime()
	rt.arr = []value.Value{value.Int(1), value.Int(2)}
	f := frame.New(4, 0)
	require.NoError(t, f.Push(value.Reference(types.NewObjectHandle(1))))
	require.NoError(t, f.Push(value.Int(5)))
	fc := arrayLoad(f, rt)
	require.Equal(t, FlowThrows, fc.Kind)
	assert.Equal(t, excnames.ArrayIndexOutOfBoundsException, rt.lastErr)
}

func TestArrayLoad_NullReferenceThrowsNullPointerException(t *testing.T) {
	rt := newFakeRuntime()
	f := frame.New(4, 0)
	require.NoError(t, f.Push(value.Null()))
	require.NoError(t, f.Push(value.Int(0)))
	fc := arrayLoad(f, rt)
	require.Equal(t, FlowThrows, fc.Kind)
	assert.Equal(t, excnames.NullPointerException, rt.lastErr)
}
