/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"strconv"
	"strings"

	"jcvm/src/excnames"
	"jcvm/src/heap"
	"jcvm/src/invoke"
	"jcvm/src/native"
	"jcvm/src/types"
	"jcvm/src/value"
)

// registerString wires java/lang/String's natives against the interned
// string-mirror model invoke/constants.go already keeps (StringText /
// Invoker.InternString), rather than a FieldTable-carried byte array --
// there is no real java/lang/String class file backing these handles
// yet, so every method here works directly off the mirror's text.
func registerString(b *native.Bridge) {
	b.Register("java/lang/String", "length", "()I", stringLength)
	b.Register("java/lang/String", "isEmpty", "()Z", stringIsEmpty)
	b.Register("java/lang/String", "charAt", "(I)C", stringCharAt)
	b.Register("java/lang/String", "hashCode", "()I", stringHashCode)
	b.Register("java/lang/String", "concat", "(Ljava/lang/String;)Ljava/lang/String;", stringConcat)
	b.Register("java/lang/String", "equals", "(Ljava/lang/Object;)Z", stringEquals)
	b.Register("java/lang/String", "equalsIgnoreCase", "(Ljava/lang/String;)Z", stringEqualsIgnoreCase)
	b.Register("java/lang/String", "compareTo", "(Ljava/lang/String;)I", stringCompareTo)
	b.Register("java/lang/String", "compareToIgnoreCase", "(Ljava/lang/String;)I", stringCompareToIgnoreCase)
	b.Register("java/lang/String", "contains", "(Ljava/lang/CharSequence;)Z", stringContains)
	b.Register("java/lang/String", "indexOf", "(Ljava/lang/String;)I", stringIndexOf)
	b.Register("java/lang/String", "lastIndexOf", "(Ljava/lang/String;)I", stringLastIndexOf)
	b.Register("java/lang/String", "toLowerCase", "()Ljava/lang/String;", stringToLowerCase)
	b.Register("java/lang/String", "toUpperCase", "()Ljava/lang/String;", stringToUpperCase)
	b.Register("java/lang/String", "trim", "()Ljava/lang/String;", stringTrim)
	b.Register("java/lang/String", "repeat", "(I)Ljava/lang/String;", stringRepeat)
	b.Register("java/lang/String", "replace", "(CC)Ljava/lang/String;", stringReplace)
	b.Register("java/lang/String", "substring", "(I)Ljava/lang/String;", stringSubstringFrom)
	b.Register("java/lang/String", "substring", "(II)Ljava/lang/String;", stringSubstringRange)
	b.Register("java/lang/String", "toCharArray", "()[C", stringToCharArray)
	b.Register("java/lang/String", "valueOf", "(Z)Ljava/lang/String;", valueOfBoolean)
	b.Register("java/lang/String", "valueOf", "(C)Ljava/lang/String;", valueOfChar)
	b.Register("java/lang/String", "valueOf", "(I)Ljava/lang/String;", valueOfInt)
	b.Register("java/lang/String", "valueOf", "(J)Ljava/lang/String;", valueOfLong)
	b.Register("java/lang/String", "valueOf", "(D)Ljava/lang/String;", valueOfDouble)
	b.Register("java/lang/String", "valueOf", "(F)Ljava/lang/String;", valueOfFloat)
}

func stringLength(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, self)
	if !ok {
		return throw(iv, excnames.NullPointerException, "String.length on null")
	}
	return value.Int(int32(len([]rune(s)))), true, nil
}

func stringIsEmpty(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, self)
	if !ok {
		return throw(iv, excnames.NullPointerException, "String.isEmpty on null")
	}
	return value.Boolean(len(s) == 0), true, nil
}

func stringCharAt(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, self)
	if !ok {
		return throw(iv, excnames.NullPointerException, "String.charAt on null")
	}
	runes := []rune(s)
	index := int(args[0].Int32())
	if index < 0 || index >= len(runes) {
		return throw(iv, excnames.IndexOutOfBoundsException, "String.charAt index out of range")
	}
	return value.Char(uint16(runes[index])), true, nil
}

// stringHashCode reproduces String.hashCode()'s defined formula
// (s[0]*31^(n-1) + ... + s[n-1]) rather than the handle-address hash
// package native uses for plain Object.hashCode, since Java code is
// free to depend on String's hash being stable across JVM runs.
func stringHashCode(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, self)
	if !ok {
		return throw(iv, excnames.NullPointerException, "String.hashCode on null")
	}
	var h int32
	for _, r := range s {
		h = 31*h + int32(r)
	}
	return value.Int(h), true, nil
}

func stringConcat(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s1, ok1 := text(iv, self)
	s2, ok2 := text(iv, args[0].Ref)
	if !ok1 || !ok2 {
		return throw(iv, excnames.NullPointerException, "String.concat on null")
	}
	return javaString(iv, s1+s2), true, nil
}

func stringEquals(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s1, ok1 := text(iv, self)
	if !ok1 {
		return throw(iv, excnames.NullPointerException, "String.equals on null")
	}
	s2, ok2 := text(iv, args[0].Ref)
	return value.Boolean(ok2 && s1 == s2), true, nil
}

func stringEqualsIgnoreCase(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s1, ok1 := text(iv, self)
	s2, ok2 := text(iv, args[0].Ref)
	if !ok1 {
		return throw(iv, excnames.NullPointerException, "String.equalsIgnoreCase on null")
	}
	return value.Boolean(ok2 && strings.EqualFold(s1, s2)), true, nil
}

func compareLex(s1, s2 string) int32 {
	if s1 == s2 {
		return 0
	}
	if s1 < s2 {
		return -1
	}
	return 1
}

func stringCompareTo(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s1, ok1 := text(iv, self)
	s2, ok2 := text(iv, args[0].Ref)
	if !ok1 || !ok2 {
		return throw(iv, excnames.NullPointerException, "String.compareTo on null")
	}
	return value.Int(compareLex(s1, s2)), true, nil
}

func stringCompareToIgnoreCase(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s1, ok1 := text(iv, self)
	s2, ok2 := text(iv, args[0].Ref)
	if !ok1 || !ok2 {
		return throw(iv, excnames.NullPointerException, "String.compareToIgnoreCase on null")
	}
	return value.Int(compareLex(strings.ToLower(s1), strings.ToLower(s2))), true, nil
}

func stringContains(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s1, ok1 := text(iv, self)
	s2, ok2 := text(iv, args[0].Ref)
	if !ok1 || !ok2 {
		return throw(iv, excnames.NullPointerException, "String.contains on null")
	}
	return value.Boolean(strings.Contains(s1, s2)), true, nil
}

func stringIndexOf(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s1, ok1 := text(iv, self)
	s2, ok2 := text(iv, args[0].Ref)
	if !ok1 || !ok2 {
		return throw(iv, excnames.NullPointerException, "String.indexOf on null")
	}
	return value.Int(int32(strings.Index(s1, s2))), true, nil
}

func stringLastIndexOf(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s1, ok1 := text(iv, self)
	s2, ok2 := text(iv, args[0].Ref)
	if !ok1 || !ok2 {
		return throw(iv, excnames.NullPointerException, "String.lastIndexOf on null")
	}
	return value.Int(int32(strings.LastIndex(s1, s2))), true, nil
}

func stringToLowerCase(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, self)
	if !ok {
		return throw(iv, excnames.NullPointerException, "String.toLowerCase on null")
	}
	return javaString(iv, strings.ToLower(s)), true, nil
}

func stringToUpperCase(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, self)
	if !ok {
		return throw(iv, excnames.NullPointerException, "String.toUpperCase on null")
	}
	return javaString(iv, strings.ToUpper(s)), true, nil
}

func stringTrim(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, self)
	if !ok {
		return throw(iv, excnames.NullPointerException, "String.trim on null")
	}
	return javaString(iv, strings.TrimSpace(s)), true, nil
}

func stringRepeat(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, self)
	if !ok {
		return throw(iv, excnames.NullPointerException, "String.repeat on null")
	}
	count := int(args[0].Int32())
	if count < 0 {
		return throw(iv, excnames.IllegalArgumentException, "String.repeat count is negative")
	}
	return javaString(iv, strings.Repeat(s, count)), true, nil
}

func stringReplace(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, self)
	if !ok {
		return throw(iv, excnames.NullPointerException, "String.replace on null")
	}
	oldChar := rune(args[0].Int32())
	newChar := rune(args[1].Int32())
	return javaString(iv, strings.ReplaceAll(s, string(oldChar), string(newChar))), true, nil
}

func stringSubstringFrom(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, self)
	if !ok {
		return throw(iv, excnames.NullPointerException, "String.substring on null")
	}
	runes := []rune(s)
	start := int(args[0].Int32())
	if start < 0 || start > len(runes) {
		return throw(iv, excnames.IndexOutOfBoundsException, "String.substring start out of range")
	}
	return javaString(iv, string(runes[start:])), true, nil
}

func stringSubstringRange(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, self)
	if !ok {
		return throw(iv, excnames.NullPointerException, "String.substring on null")
	}
	runes := []rune(s)
	start := int(args[0].Int32())
	end := int(args[1].Int32())
	if start < 0 || end < start || end > len(runes) {
		return throw(iv, excnames.IndexOutOfBoundsException, "String.substring range out of bounds")
	}
	return javaString(iv, string(runes[start:end])), true, nil
}

func stringToCharArray(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	s, ok := text(iv, self)
	if !ok {
		return throw(iv, excnames.NullPointerException, "String.toCharArray on null")
	}
	runes := []rune(s)
	h := iv.Heap.AllocateArray(value.KChar, len(runes))
	slots := heap.ExpectArray(h).Slots
	for i, r := range runes {
		slots[i] = value.Char(uint16(r))
	}
	return value.Reference(h), true, nil
}

func valueOfBoolean(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	if args[0].Int32() != 0 {
		return javaString(iv, "true"), true, nil
	}
	return javaString(iv, "false"), true, nil
}

func valueOfChar(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return javaString(iv, string(rune(args[0].Int32()))), true, nil
}

func valueOfInt(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return javaString(iv, strconv.FormatInt(int64(args[0].Int32()), 10)), true, nil
}

func valueOfLong(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return javaString(iv, strconv.FormatInt(args[0].Int64(), 10)), true, nil
}

func valueOfDouble(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	str := strconv.FormatFloat(args[0].Float64(), 'f', -1, 64)
	if !strings.Contains(str, ".") {
		str += ".0"
	}
	return javaString(iv, str), true, nil
}

func valueOfFloat(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	str := strconv.FormatFloat(float64(args[0].Float32()), 'f', -1, 32)
	if !strings.Contains(str, ".") {
		str += ".0"
	}
	return javaString(iv, str), true, nil
}
