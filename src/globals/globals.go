/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package globals holds the single root configuration record the rest of
// the VM reads from. Per spec.md §9 Design Notes ("Global mutable state"),
// jcvm exposes one root handle and every sub-component either embeds a
// pointer to it or reaches it through GetGlobalRef. It is not the only
// package-level state: heap's object registry, invoke's mirror and
// call-site tables, gfunction's side tables, stringpool and trace keep
// their own.
package globals

import (
	"strconv"
	"sync"
)

// Globals is the VM-wide configuration and bookkeeping record.
type Globals struct {
	// identity / versioning
	VMName            string
	Version           string
	MaxJavaVersion    int // human-facing (e.g. 17)
	MaxJavaVersionRaw int // class-file major-version ceiling (e.g. 61)

	// environment
	JavaHome      string
	Classpath     []string
	StartingJar   string
	StartingClass string
	AppArgs       []string
	FileEncoding  string

	// diagnostics
	TraceClass  bool // trace class loading
	TraceCloadi bool // trace class-init ordering
	TraceInst   bool // per-instruction tracing

	// test/lifecycle
	ExitNow bool

	// FuncThrowException is a hook for raising a bytecode-visible
	// exception without importing the exceptions package. InitGlobals
	// installs a no-op; nothing in this module replaces or calls it.
	FuncThrowException func(excType int, msg string)

	// LoaderWg is a wait group for background class loads; nothing in
	// this module adds to it or waits on it.
	LoaderWg sync.WaitGroup
}

var (
	mu       sync.RWMutex
	instance *Globals
)

// InitGlobals creates the singleton Globals record, named after the
// running program (argv[0], or "test" under `go test`).
func InitGlobals(vmName string) *Globals {
	mu.Lock()
	defer mu.Unlock()
	instance = &Globals{
		VMName:             vmName,
		Version:            "0.1.0",
		MaxJavaVersion:     17,
		MaxJavaVersionRaw:  61,
		FileEncoding:       "UTF-8",
		FuncThrowException: func(int, string) {},
	}
	return instance
}

// GetGlobalRef returns the singleton, creating a default one if no one
// has called InitGlobals yet (this happens routinely in unit tests that
// exercise a single package in isolation).
func GetGlobalRef() *Globals {
	mu.RLock()
	if instance != nil {
		defer mu.RUnlock()
		return instance
	}
	mu.RUnlock()
	return InitGlobals("jcvm")
}

// GetInstance is an alias for GetGlobalRef, under the name the teacher's
// code used; nothing in this module calls it.
func GetInstance() *Globals { return GetGlobalRef() }

// VersionString renders the VM name, version and Java level as one line.
// The CLI's -showversion prints its own text (showVersion in cli.go), not
// this.
func (g *Globals) VersionString() string {
	return g.VMName + " v." + g.Version + " (Java " + strconv.Itoa(g.MaxJavaVersion) + ")"
}
