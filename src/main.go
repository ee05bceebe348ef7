/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"os"

	"jcvm/src/bootstrap"
	"jcvm/src/classloader"
	"jcvm/src/gfunction"
	"jcvm/src/globals"
	"jcvm/src/interp"
	"jcvm/src/jvm"
	"jcvm/src/shutdown"
	"jcvm/src/trace"
	"jcvm/src/types"
)

func main() {
	Global = initGlobals(os.Args[0])
	SetLogLevel(WARNING)
	LoadOptionsTable(Global)
	HandleCli(os.Args)

	if Global.ExitNow {
		shutdown.Exit(shutdown.OK)
	}
}

// runApplication is rootCmd's Run function: it stands up a VM, loads
// whatever -cp directory was given, then runs the requested main
// class's main(String[]) to completion. Exit codes follow spec.md's
// launcher surface: 0 on normal termination, non-zero on an unhandled
// exception or a class/method resolution failure.
func runApplication(g *globals.Globals, args []string) {
	if len(args) == 0 {
		showUsage()
		shutdown.Exit(shutdown.APP_EXCEPTION)
	}
	mainClass := args[0]
	appArgs := args[1:]
	g.StartingClass = mainClass
	g.AppArgs = appArgs

	loader := classloader.New()
	if cp := rootVip.GetString("classpath"); cp != "" {
		g.Classpath = []string{cp}
		if err := classloader.DirSource(loader, cp); err != nil {
			trace.Error("failed to load classpath " + cp + ": " + err.Error())
			shutdown.Exit(shutdown.APP_EXCEPTION)
		}
	}

	vm := bootstrap.Init(loader)
	gfunction.RegisterAll(vm.Bridge)

	for _, prop := range rootVip.GetStringSlice("D") {
		applySystemProperty(vm, prop)
	}

	argv := make([]types.ObjectHandle, len(appArgs))
	for i, a := range appArgs {
		argv[i] = vm.Main.InternString(a)
	}

	fc := vm.Main.RunMain(mainClass, argv)
	switch fc.Kind {
	case interp.FlowThrows:
		jvm.ReportUncaught(os.Stderr, vm.Main.ThreadInfo(), fc.ExceptionHandle)
		shutdown.Exit(shutdown.JVM_EXCEPTION)
	case interp.FlowThreadInterrupt:
		shutdown.Exit(shutdown.UNCAUGHT_EXCEPTION)
	default:
		shutdown.Exit(shutdown.OK)
	}
}

// applySystemProperty installs one -Dname=value flag into vm's system
// property table; a malformed entry (no "=") is logged and skipped
// rather than aborting startup.
func applySystemProperty(vm *bootstrap.VM, raw string) {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '=' {
			vm.Properties[raw[:i]] = raw[i+1:]
			return
		}
	}
	trace.Warning("ignoring malformed -D option: " + raw)
}
