/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcvm/src/classloader"
	"jcvm/src/heap"
	"jcvm/src/invoke"
	"jcvm/src/thread"
	"jcvm/src/types"
	"jcvm/src/value"
)

// bareSchema is the smallest heap.Schema that satisfies AllocateInstance
// for a test object with no fields, mirroring the synthetic schemas
// package exceptions and package invoke's ldc mirrors already use.
type bareSchema struct{ name string }

func (s *bareSchema) Name() string           { return s.name }
func (s *bareSchema) InstanceSlotCount() int { return 0 }

func newTestInvoker() *invoke.Invoker {
	loader := classloader.New()
	h := heap.New()
	reg := thread.New()
	info := reg.Register(types.NilHandle)
	return invoke.New(loader, h, info, nil)
}

func TestMangle_EscapesReservedCharacters(t *testing.T) {
	got := mangle("java/util/zip/CRC32", "update")
	assert.Equal(t, "Java_java_util_zip_CRC32_update", got)
}

func TestMangle_UnderscoreEscapesToUnderscoreOne(t *testing.T) {
	got := mangle("pkg/Under_score", "m")
	assert.Equal(t, "Java_pkg_Under_1score_m", got)
}

func TestCallNative_IntrinsicHashCodeReturnsHandleAddress(t *testing.T) {
	b := NewBridge()
	RegisterCoreIntrinsics(b)
	iv := newTestInvoker()

	self := iv.Heap.AllocateInstance(&bareSchema{name: "pkg/Thing"}, nil)

	v, hadValue, err := b.CallNative("java/lang/Object", "hashCode", "()I", self, nil, iv)
	require.NoError(t, err)
	require.True(t, hadValue)
	assert.Equal(t, int32(self.Addr()), v.Int32())
}

func TestCallNative_IdentityHashCodeOfNullArgumentIsZero(t *testing.T) {
	b := NewBridge()
	RegisterCoreIntrinsics(b)
	iv := newTestInvoker()

	v, hadValue, err := b.CallNative("java/lang/System", "identityHashCode", "(Ljava/lang/Object;)I", types.NilHandle, []value.Value{value.Null()}, iv)
	require.NoError(t, err)
	require.True(t, hadValue)
	assert.Equal(t, int32(0), v.Int32())
}

func TestCallNative_UnknownNativeWithNoLibraryReturnsError(t *testing.T) {
	b := NewBridge()
	iv := newTestInvoker()

	_, _, err := b.CallNative("pkg/NoSuchIntrinsic", "doIt", "()V", types.NilHandle, nil, iv)
	require.Error(t, err)
}

func TestCallNative_MalformedDescriptorReturnsError(t *testing.T) {
	b := NewBridge()
	iv := newTestInvoker()

	_, _, err := b.CallNative("pkg/Bad", "m", "not-a-descriptor", types.NilHandle, nil, iv)
	require.Error(t, err)
}
