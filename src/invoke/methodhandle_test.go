/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package invoke

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcvm/src/classfile"
	"jcvm/src/classloader"
	"jcvm/src/cpool"
	"jcvm/src/frame"
	"jcvm/src/heap"
	"jcvm/src/interp"
	"jcvm/src/thread"
	"jcvm/src/types"
	"jcvm/src/value"
)

func newHandleTestInvoker() *Invoker {
	loader := classloader.New()
	h := heap.New()
	reg := thread.New()
	info := reg.Register(types.NilHandle)
	return New(loader, h, info, nil)
}

// cp builds a constant pool directly as a struct literal -- the Pool/
// Entry types are plain data, so these focused tests skip the raw-byte
// encoding invoke_test.go's cpBuilder uses and build the pool shape
// resolveMethodHandle/resolveMethodType/InvokeDynamic actually walk.
func entriesPool(entries ...cpool.Entry) *cpool.Pool {
	return &cpool.Pool{Entries: append([]cpool.Entry{{}}, entries...)}
}

func TestResolveMethodHandleFieldGetter(t *testing.T) {
	iv := newHandleTestInvoker()
	// 1: Utf8 "Counter"; 2: Class -> 1; 3: Utf8 "value"; 4: Utf8 "I";
	// 5: NameAndType(3,4); 6: Fieldref(2,5); 7: MethodHandle(kind=2 REF_getStatic, ref=6)
	pool := entriesPool(
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "Counter"},
		cpool.Entry{Tag: cpool.TagClass, ClassNameIdx: 1},
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "value"},
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "I"},
		cpool.Entry{Tag: cpool.TagNameAndType, NameIdx: 3, DescIdx: 4},
		cpool.Entry{Tag: cpool.TagFieldref, ClassIdx: 2, NameAndTypeIdx: 5},
		cpool.Entry{Tag: cpool.TagMethodHandle, RefKind: 2, RefIndex: 6},
	)
	cf := &classfile.ClassFile{Pool: pool}

	h, fc := iv.resolveMethodHandle(7, cf)
	require.NotEqual(t, interp.FlowThrows, fc.Kind)
	require.False(t, h.IsNil())

	info, ok := mhInfos[h]
	require.True(t, ok)
	assert.Equal(t, byte(2), info.refKind)
	assert.Equal(t, "Counter", info.class)
	assert.Equal(t, "value", info.member)
	assert.Equal(t, "I", info.desc)
}

func TestResolveMethodHandleRejectsNonMethodHandleEntry(t *testing.T) {
	iv := newHandleTestInvoker()
	pool := entriesPool(cpool.Entry{Tag: cpool.TagInteger, Int32Val: 1})
	cf := &classfile.ClassFile{Pool: pool}

	_, fc := iv.resolveMethodHandle(1, cf)
	assert.Equal(t, interp.FlowThrows, fc.Kind)
}

func TestResolveMethodTypeRemembersDescriptor(t *testing.T) {
	iv := newHandleTestInvoker()
	pool := entriesPool(
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "(I)Ljava/lang/String;"},
		cpool.Entry{Tag: cpool.TagMethodType, DescriptorIdx: 1},
	)
	cf := &classfile.ClassFile{Pool: pool}

	h, fc := iv.resolveMethodType(2, cf)
	require.NotEqual(t, interp.FlowThrows, fc.Kind)
	assert.Equal(t, "(I)Ljava/lang/String;", mtDescs[h])
}

func TestInvokeDynamicStringConcatFactory(t *testing.T) {
	iv := newHandleTestInvoker()
	// Bootstrap method handle: MethodHandle(kind=6 REF_invokeStatic) ->
	// Methodref StringConcatFactory.makeConcatWithConstants(...).
	pool := entriesPool(
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "java/lang/invoke/StringConcatFactory"},
		cpool.Entry{Tag: cpool.TagClass, ClassNameIdx: 1},
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "makeConcatWithConstants"},
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "(Ljava/lang/invoke/MethodHandles$Lookup;Ljava/lang/String;Ljava/lang/invoke/MethodType;Ljava/lang/String;[Ljava/lang/Object;)Ljava/lang/invoke/CallSite;"},
		cpool.Entry{Tag: cpool.TagNameAndType, NameIdx: 3, DescIdx: 4},                      // 5
		cpool.Entry{Tag: cpool.TagMethodref, ClassIdx: 2, NameAndTypeIdx: 5},                // 6
		cpool.Entry{Tag: cpool.TagMethodHandle, RefKind: 6, RefIndex: 6},                    // 7
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "concat"},                                  // 8
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "(Ljava/lang/String;I)Ljava/lang/String;"}, // 9
		cpool.Entry{Tag: cpool.TagNameAndType, NameIdx: 8, DescIdx: 9},                      // 10
		cpool.Entry{Tag: cpool.TagInvokeDynamic, BootstrapIdx: 0, NatIdxOfDynOrID: 10},      // 11
	)
	cf := &classfile.ClassFile{
		Pool:             pool,
		BootstrapMethods: []classfile.BootstrapMethod{{MethodRefIdx: 7}},
	}

	f := frame.New(4, 4)
	require.NoError(t, f.Push(value.Reference(iv.InternString("n="))))
	require.NoError(t, f.Push(value.Int(42)))

	fc := iv.InvokeDynamic(11, f, cf)
	require.Equal(t, interp.FlowNext, fc.Kind)

	result, err := f.Pop()
	require.NoError(t, err)
	s, ok := StringText(result.Ref)
	require.True(t, ok)
	assert.Equal(t, "n=42", s)
}

func TestInvokeDynamicRejectsUnknownBootstrap(t *testing.T) {
	iv := newHandleTestInvoker()
	pool := entriesPool(
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "some/Unsupported$Factory"},
		cpool.Entry{Tag: cpool.TagClass, ClassNameIdx: 1},
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "bootstrap"},
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "()Ljava/lang/Object;"},
		cpool.Entry{Tag: cpool.TagNameAndType, NameIdx: 3, DescIdx: 4},
		cpool.Entry{Tag: cpool.TagMethodref, ClassIdx: 2, NameAndTypeIdx: 5},
		cpool.Entry{Tag: cpool.TagMethodHandle, RefKind: 6, RefIndex: 6},
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "go"},
		cpool.Entry{Tag: cpool.TagUtf8, Utf8Str: "()V"},
		cpool.Entry{Tag: cpool.TagNameAndType, NameIdx: 8, DescIdx: 9},
		cpool.Entry{Tag: cpool.TagInvokeDynamic, BootstrapIdx: 0, NatIdxOfDynOrID: 10},
	)
	cf := &classfile.ClassFile{
		Pool:             pool,
		BootstrapMethods: []classfile.BootstrapMethod{{MethodRefIdx: 7}},
	}

	f := frame.New(2, 2)
	fc := iv.InvokeDynamic(11, f, cf)
	assert.Equal(t, interp.FlowThrows, fc.Kind)
}
