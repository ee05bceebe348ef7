/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"strconv"
	"strings"
	"sync"

	"jcvm/src/invoke"
	"jcvm/src/native"
	"jcvm/src/types"
	"jcvm/src/value"
)

// sbSchema satisfies heap.Schema for a StringBuilder instance; the
// builder's actual text lives in the package-level builders side table
// below rather than in a heap slot, the same synthetic-object pattern
// invoke/constants.go's mirrorSchema and package exceptions' minimalSchema
// already use for objects with no backing class file. The teacher's own
// StringBuilder shim went no further than a single isLatin1() stub; this
// fleshes it out into a working mutable-string buffer, since a Java
// program stitching together output via StringBuilder is routine enough
// to be worth supplementing.
type sbSchema struct{}

func (sbSchema) Name() string           { return "java/lang/StringBuilder" }
func (sbSchema) InstanceSlotCount() int { return 0 }

var (
	buildersMu sync.Mutex
	builders   = map[types.ObjectHandle]*strings.Builder{}
)

func registerStringBuilder(b *native.Bridge) {
	b.Register("java/lang/StringBuilder", "<init>", "()V", sbInit)
	b.Register("java/lang/StringBuilder", "<init>", "(Ljava/lang/String;)V", sbInitFromString)
	b.Register("java/lang/StringBuilder", "append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;", sbAppendString)
	b.Register("java/lang/StringBuilder", "append", "(I)Ljava/lang/StringBuilder;", sbAppendInt)
	b.Register("java/lang/StringBuilder", "append", "(J)Ljava/lang/StringBuilder;", sbAppendLong)
	b.Register("java/lang/StringBuilder", "append", "(C)Ljava/lang/StringBuilder;", sbAppendChar)
	b.Register("java/lang/StringBuilder", "append", "(Z)Ljava/lang/StringBuilder;", sbAppendBoolean)
	b.Register("java/lang/StringBuilder", "length", "()I", sbLength)
	b.Register("java/lang/StringBuilder", "toString", "()Ljava/lang/String;", sbToString)
	b.Register("java/lang/StringBuilder", "isLatin1", "()Z", sbIsLatin1)
}

func builderOf(self types.ObjectHandle) *strings.Builder {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	return builders[self]
}

func newBuilder(self types.ObjectHandle, seed string) {
	sb := &strings.Builder{}
	sb.WriteString(seed)
	buildersMu.Lock()
	builders[self] = sb
	buildersMu.Unlock()
}

func sbInit(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	newBuilder(self, "")
	return value.Value{}, false, nil
}

func sbInitFromString(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, _ := text(iv, args[0].Ref)
	newBuilder(self, s)
	return value.Value{}, false, nil
}

func sbAppend(self types.ObjectHandle, s string) (value.Value, bool, error) {
	sb := builderOf(self)
	if sb != nil {
		sb.WriteString(s)
	}
	return value.Reference(self), true, nil
}

func sbAppendString(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, args[0].Ref)
	if !ok {
		s = "null"
	}
	return sbAppend(self, s)
}

func sbAppendInt(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return sbAppend(self, strconv.FormatInt(int64(args[0].Int32()), 10))
}

func sbAppendLong(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return sbAppend(self, strconv.FormatInt(args[0].Int64(), 10))
}

func sbAppendChar(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return sbAppend(self, string(rune(args[0].Int32())))
}

func sbAppendBoolean(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	if args[0].Int32() != 0 {
		return sbAppend(self, "true")
	}
	return sbAppend(self, "false")
}

func sbLength(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	sb := builderOf(self)
	if sb == nil {
		return value.Int(0), true, nil
	}
	return value.Int(int32(len([]rune(sb.String())))), true, nil
}

func sbToString(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	sb := builderOf(self)
	s := ""
	if sb != nil {
		s = sb.String()
	}
	return javaString(iv, s), true, nil
}

// "java/lang/StringBuilder.isLatin1()Z"
func sbIsLatin1(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	// jcvm keeps no separate Latin1/UTF16 representations, and this shim
	// reports every builder as Latin1.
	return value.Boolean(true), true, nil
}
