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

// registerScopedMemoryAccess stubs out jdk/internal/misc/ScopedMemoryAccess's
// class-init path: its own registerNatives()V has nothing to register
// against on this VM (bootstrap.RegisterHooks already no-ops the
// sun.misc/jdk.internal.misc.Unsafe ones), and <clinit>()V just needs to
// be allowed to run to completion rather than fail link-time resolution
// the first time some core class touches scoped memory.
func registerScopedMemoryAccess(b *native.Bridge) {
	noop := func(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
		return value.Value{}, false, nil
	}
	b.Register("jdk/internal/misc/ScopedMemoryAccess", "<clinit>", "()V", noop)
	b.Register("jdk/internal/misc/ScopedMemoryAccess", "registerNatives", "()V", noop)
}
