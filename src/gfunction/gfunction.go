/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gfunction holds the Go-implemented standard-library shims
// java/lang/String, StringBuilder, Thread, and friends need before a
// real classpath of compiled JDK classes exists: each file here
// registers a handful of native.Intrinsic functions against one class,
// following the same one-file-per-class, one-function-per-method
// layout the teacher's MethodSignatures table used, adapted from that
// table's (string-key -> GMeth{ParamSlots, GFunction}) shape onto
// jcvm's (class, method, descriptor) -> native.Intrinsic registration.
package gfunction

import (
	"jcvm/src/excnames"
	"jcvm/src/invoke"
	"jcvm/src/native"
	"jcvm/src/types"
	"jcvm/src/value"
)

// RegisterAll wires every class this package knows how to shim into b.
// bootstrap.Init calls this alongside native.RegisterCoreIntrinsics and
// its own RegisterHooks so application bytecode sees a coherent set of
// natives regardless of which package registered them.
func RegisterAll(b *native.Bridge) {
	registerString(b)
	registerStringBuilder(b)
	registerThread(b)
	registerHashMap(b)
	registerInputStreamReader(b)
	registerScopedMemoryAccess(b)
	registerUnsafe(b)
}

// throw sets iv's sticky exception and returns the (zero-value, false,
// nil) triple an Intrinsic hands back when it wants invoke's native
// dispatch to convert this call into a thrown exception rather than a
// normal return -- see invoke/resolveMethod.go's post-CallNative sticky
// check.
func throw(iv *invoke.Invoker, kind excnames.ExceptionType, message string) (value.Value, bool, error) {
	iv.Thread.SetSticky(iv.NewException(kind, message))
	return value.Value{}, false, nil
}

// text extracts a Go string from a java/lang/String handle. It returns
// ("", false) for a null reference or a handle that is not a string
// mirror; it throws nothing itself, so a caller that needs
// NullPointerException raises it on false.
func text(iv *invoke.Invoker, h types.ObjectHandle) (string, bool) {
	if h.IsNil() {
		return "", false
	}
	return invoke.StringText(h)
}

// javaString interns s as a java/lang/String reference Value, the
// return-path counterpart of text.
func javaString(iv *invoke.Invoker, s string) value.Value {
	return value.Reference(iv.InternString(s))
}
