/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"bufio"
	"os"
	"sync"

	"jcvm/src/excnames"
	"jcvm/src/invoke"
	"jcvm/src/native"
	"jcvm/src/types"
	"jcvm/src/value"
)

// registerInputStreamReader wires java/io/InputStreamReader against
// os.Stdin specifically: jcvm has no general java/io/InputStream/
// FileInputStream object model yet (the teacher's version read a
// FilePath/FileHandle pair off the wrapped InputStream's FieldTable),
// so for now every InputStreamReader instance is assumed to wrap
// System.in, the overwhelmingly common case for a "read console input"
// shim. A real InputStream hierarchy is future work, not something this
// file should fake.
func registerInputStreamReader(b *native.Bridge) {
	b.Register("java/io/InputStreamReader", "<init>", "(Ljava/io/InputStream;)V", isrInit)
	b.Register("java/io/InputStreamReader", "close", "()V", isrClose)
	b.Register("java/io/InputStreamReader", "read", "()I", isrReadOneChar)
	b.Register("java/io/InputStreamReader", "ready", "()Z", isrReady)
}

var (
	readersMu sync.Mutex
	readers   = map[types.ObjectHandle]*bufio.Reader{}
	closed    = map[types.ObjectHandle]bool{}
)

func isrInit(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	readersMu.Lock()
	readers[self] = bufio.NewReader(os.Stdin)
	readersMu.Unlock()
	return value.Value{}, false, nil
}

func isrClose(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	readersMu.Lock()
	closed[self] = true
	readersMu.Unlock()
	return value.Value{}, false, nil
}

// "java/io/InputStreamReader.read()I"
func isrReadOneChar(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	readersMu.Lock()
	r, ok := readers[self]
	isClosed := closed[self]
	readersMu.Unlock()
	if isClosed {
		return throw(iv, excnames.IllegalStateException, "stream closed")
	}
	if !ok {
		return throw(iv, excnames.NullPointerException, "InputStreamReader not initialized")
	}

	ch, _, err := r.ReadRune()
	if err != nil {
		return value.Int(-1), true, nil
	}
	return value.Int(int32(ch)), true, nil
}

func isrReady(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	readersMu.Lock()
	r, ok := readers[self]
	readersMu.Unlock()
	if !ok {
		return value.Boolean(false), true, nil
	}
	return value.Boolean(r.Buffered() > 0), true, nil
}
