/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"jcvm/src/globals"
	"jcvm/src/trace"
)

// Logging-level aliases, so call sites at this package's top level read
// the same way the teacher's own log.WARNING/log.SEVERE vocabulary did.
const (
	SEVERE     = trace.SEVERE
	WARNING    = trace.WARNING
	INFO       = trace.INFO
	TRACE_INST = trace.TRACE_INST
)

// Global is the VM-wide record the CLI and main() share -- package
// globals' own singleton, not a package-main duplicate of it, so every
// other package that already reads globals.GetGlobalRef() sees the same
// Classpath/StartingClass/AppArgs/ExitNow this package's flags populate.
var Global *globals.Globals

// initGlobals is a thin wrapper the tests call the same way the
// teacher's own cli_test.go did.
func initGlobals(progName string) *globals.Globals {
	return globals.InitGlobals(progName)
}

// SetLogLevel adjusts the package-global trace logger's minimum level.
func SetLogLevel(level trace.Level) {
	trace.SetLevel(level)
}
