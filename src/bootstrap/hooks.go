/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package bootstrap

import (
	"jcvm/src/invoke"
	"jcvm/src/native"
	"jcvm/src/types"
	"jcvm/src/value"
)

// RegisterHooks pre-registers the handful of native methods that real
// JDK static initializers call purely to wire up a native implementation
// table the JVM itself maintains elsewhere -- registerNatives() has
// nothing to do on a VM that resolves natives by (class, method, desc)
// lookup instead, so every one of these is a no-op shim, grounded on
// jmeggitt/rust_jvm's hooks.rs registering a no-op "empty" function
// against sun/misc/Unsafe's own registerNatives for the same reason.
func RegisterHooks(b *native.Bridge) {
	noop := func(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
		return value.Value{}, false, nil
	}
	b.Register("java/lang/System", "registerNatives", "()V", noop)
	b.Register("java/lang/Thread", "registerNatives", "()V", noop)
	b.Register("java/lang/Class", "registerNatives", "()V", noop)
	b.Register("sun/misc/Unsafe", "registerNatives", "()V", noop)
	b.Register("jdk/internal/misc/Unsafe", "registerNatives", "()V", noop)
}
