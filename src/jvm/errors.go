/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package jvm formats the diagnostic a thread prints when an exception
// escapes every handler on its call stack -- the same "uncaught
// exception, here's the thread's frames" report the teacher's own
// showFrameStack produced, rebuilt against jcvm's exceptions/thread
// packages instead of the teacher's frames.Frame/container/list stack.
package jvm

import (
	"fmt"
	"io"

	"jcvm/src/exceptions"
	"jcvm/src/thread"
	"jcvm/src/trace"
	"jcvm/src/types"
)

// ReportUncaught writes a one-line exception summary followed by the
// thread's call stack (innermost frame first) to w. It's the last thing
// that runs for a thread whose FlowThrows result reaches the top of its
// call stack with no handler left to try.
func ReportUncaught(w io.Writer, t *thread.Info, exc types.ObjectHandle) {
	className := exceptions.ClassNameOf(exc)
	message, hasMessage := exceptions.Message(exc)

	if hasMessage && message != "" {
		fmt.Fprintf(w, "Exception in thread \"%s\" %s: %s\n", t.Name(), className, message)
	} else {
		fmt.Fprintf(w, "Exception in thread \"%s\" %s\n", t.Name(), className)
	}

	showCallStack(w, t)
}

// showCallStack prints t's current call stack, or a placeholder if the
// thread has already unwound past every frame by the time the report
// runs (e.g. the exception surfaced after the interpreter loop itself
// returned).
func showCallStack(w io.Writer, t *thread.Info) {
	frames := t.CallStack()
	if len(frames) == 0 {
		fmt.Fprintln(w, "no further data available")
		return
	}

	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		fmt.Fprintf(w, "\tat %s.%s%s\n", f.OwningClass, f.MethodName, f.MethodDesc)
	}
}

// LogUncaught is ReportUncaught's trace.Error-backed counterpart: it
// routes the same report through the structured logger rather than
// writing it straight to a stream. Nothing in this module calls it.
func LogUncaught(t *thread.Info, exc types.ObjectHandle) {
	className := exceptions.ClassNameOf(exc)
	message, _ := exceptions.Message(exc)
	trace.Error(fmt.Sprintf("uncaught %s in thread %q: %s", className, t.Name(), message))
}
