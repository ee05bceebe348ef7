/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"jcvm/src/invoke"
	"jcvm/src/native"
	"jcvm/src/types"
	"jcvm/src/value"
)

// registerHashMap wires java/util/HashMap's internal hash spreader: the
// bit-mixing step HashMap.putVal/getNode apply to a key's hashCode()
// before indexing into the bucket table (h ^ (h >>> 16), per the JDK's
// own HashMap.hash(Object)), not a full reimplementation of HashMap
// itself.
func registerHashMap(b *native.Bridge) {
	b.Register("java/util/HashMap", "hash", "(Ljava/lang/Object;)I", hashMapHash)
}

// hashMapHash reproduces HashMap.hash(Object): null hashes to 0,
// otherwise the key's own hashCode() XORed with its upper 16 bits
// shifted down. Strings get their String.hashCode() value; every other
// reference falls back to the handle-address hash package native's
// Object.hashCode intrinsic uses, since jcvm has no virtual dispatch
// helper here to call an arbitrary overridden hashCode() from Go.
func hashMapHash(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	key := args[0].Ref
	if key.IsNil() {
		return value.Int(0), true, nil
	}

	var h int32
	if s, ok := invoke.StringText(key); ok {
		for _, r := range s {
			h = 31*h + int32(r)
		}
	} else {
		h = int32(key.Addr())
	}

	return value.Int(h ^ int32(uint32(h)>>16)), true, nil
}
