/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import (
	"jcvm/src/invoke"
	"jcvm/src/types"
	"jcvm/src/value"
)

// RegisterCoreIntrinsics wires the handful of java/lang natives that are
// native in the real JDK too (Object.hashCode, System.identityHashCode)
// and that jcvm can answer from the heap handle alone, with no
// java/lang/Object class file or shared library required. Bootstrap
// calls this once when it brings up a Bridge.
func RegisterCoreIntrinsics(b *Bridge) {
	b.Register("java/lang/Object", "hashCode", "()I", objectHashCode)
	b.Register("java/lang/System", "identityHashCode", "(Ljava/lang/Object;)I", systemIdentityHashCode)
}

// objectHashCode answers Object.hashCode() with the handle's own
// address: stable for the object's lifetime and never reused, same
// contract the real default implementation gives.
func objectHashCode(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return value.Int(int32(self.Addr())), true, nil
}

func systemIdentityHashCode(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	if len(args) != 1 || args[0].IsNull() {
		return value.Int(0), true, nil
	}
	return value.Int(int32(args[0].Ref.Addr())), true, nil
}
