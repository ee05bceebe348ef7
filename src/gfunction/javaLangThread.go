/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"time"

	"jcvm/src/excnames"
	"jcvm/src/invoke"
	"jcvm/src/native"
	"jcvm/src/types"
	"jcvm/src/value"
)

// registerThread wires java/lang/Thread's natives. registerNatives()V
// is already handled as a no-op by bootstrap.RegisterHooks; what's left
// here is the handful of Thread methods real Java code actually calls
// at runtime, backed by the thread.Info accessors bootstrap added
// (Name/Priority/Daemon) rather than FieldTable lookups.
func registerThread(b *native.Bridge) {
	b.Register("java/lang/Thread", "sleep", "(J)V", threadSleep)
	b.Register("java/lang/Thread", "getName", "()Ljava/lang/String;", threadGetName)
	b.Register("java/lang/Thread", "setName", "(Ljava/lang/String;)V", threadSetName)
	b.Register("java/lang/Thread", "getPriority", "()I", threadGetPriority)
	b.Register("java/lang/Thread", "setPriority", "(I)V", threadSetPriority)
	b.Register("java/lang/Thread", "isDaemon", "()Z", threadIsDaemon)
	b.Register("java/lang/Thread", "setDaemon", "(Z)V", threadSetDaemon)
	b.Register("java/lang/Thread", "currentThread", "()Ljava/lang/Thread;", threadCurrentThread)
}

// "java/lang/Thread.sleep(J)V"
func threadSleep(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	millis := args[0].Int64()
	if millis < 0 {
		return throw(iv, excnames.IllegalArgumentException, "timeout value is negative")
	}
	time.Sleep(time.Duration(millis) * time.Millisecond)
	return value.Value{}, false, nil
}

func threadGetName(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return javaString(iv, iv.Thread.Name()), true, nil
}

func threadSetName(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	name, ok := text(iv, args[0].Ref)
	if !ok {
		return throw(iv, excnames.NullPointerException, "Thread.setName(null)")
	}
	iv.Thread.SetName(name)
	return value.Value{}, false, nil
}

func threadGetPriority(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return value.Int(int32(iv.Thread.Priority())), true, nil
}

func threadSetPriority(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	iv.Thread.SetPriority(int(args[0].Int32()))
	return value.Value{}, false, nil
}

func threadIsDaemon(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return value.Boolean(iv.Thread.Daemon()), true, nil
}

func threadSetDaemon(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	iv.Thread.SetDaemon(args[0].Int32() != 0)
	return value.Value{}, false, nil
}

// currentThread()Ljava/lang/Thread; returns the calling thread's own
// live Thread instance, wired up by bootstrap.wireMainThread for main
// and (once thread spawning lands) by Thread.start0 for every other
// thread.
func threadCurrentThread(iv *invoke.Invoker, self types.ObjectHandle, args []value.Value) (value.Value, bool, error) {
	return value.Reference(iv.Thread.ThreadObject), true, nil
}
