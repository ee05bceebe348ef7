/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classloader implements spec.md §4.5's ClassLoader and §4.6's
// ClassSchema builder. The classpath index is built eagerly at startup
// from one or more Sources; attempt_load reads a class lazily, parses
// it, then recursively loads its super-chain before declaring it Loaded,
// matching the ordering invariant that any class returned from
// attempt_load already has a Loaded super.
package classloader

import (
	"sync"

	"jcvm/src/classfile"
	"jcvm/src/stringpool"
	"jcvm/src/trace"
	"jcvm/src/types"
	"jcvm/src/util"
)

// LoadResult mirrors spec.md §4.5's attempt_load outcome.
type LoadResult int

const (
	Loaded LoadResult = iota
	NotFound
	ParseError
)

// Source is a byte source the classpath index resolves class names
// against: a loose file on disk, an entry inside an archive, or an
// in-memory blob (the mmap-go-backed source used for embedded/bootstrap
// classes). The concrete sources in this package are MmapSource (one
// memory-mapped class file) and the per-file MmapSources DirSource
// installs; a recursive file-system walker and an archive reader are
// out of scope (spec §1).
type Source interface {
	// ReadClass returns the raw bytes of internalName + ".class", or
	// (nil, false) if this source does not carry that class.
	ReadClass(internalName string) ([]byte, bool)
}

// Entry is the classloader's cache record for one class.
type Entry struct {
	Name   string
	State  types.ClassInitState
	File   *classfile.ClassFile
	Schema *Schema

	ClInit types.ClInitState

	mu sync.Mutex // guards class-init transition for this entry specifically
}

// Loader indexes one or more classpath Sources and caches decoded
// classes indefinitely once loaded.
type Loader struct {
	mu      sync.RWMutex // guards the cache map, per spec §5's "single writer lock"
	sources []Source
	cache   map[string]*Entry
}

// New creates a Loader over the given sources, consulted in order
// (first hit wins), matching the native bridge's own "first hit wins"
// library-resolution policy for symmetry.
func New(sources ...Source) *Loader {
	return &Loader{sources: sources, cache: make(map[string]*Entry)}
}

// AddSource appends a classpath source, e.g. once the classpath
// file-system walker (out of scope here) has resolved a jar or
// directory into a Source implementation.
func (l *Loader) AddSource(s Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources = append(l.sources, s)
}

// Lookup returns the cached entry for name without attempting a load.
func (l *Loader) Lookup(name string) (*Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.cache[name]
	return e, ok
}

// AttemptLoad implements spec.md §4.5: lazily read, parse, and cache
// name, transitively loading its super-chain first.
func (l *Loader) AttemptLoad(name string) (*Entry, LoadResult) {
	l.mu.RLock()
	if e, ok := l.cache[name]; ok && e.State >= types.ClassLoaded {
		l.mu.RUnlock()
		return e, Loaded
	}
	l.mu.RUnlock()

	raw, found := l.readRaw(name)
	if !found {
		trace.Warning("class not found on classpath: " + name)
		return nil, NotFound
	}

	cf, err := classfile.Parse(raw)
	if err != nil {
		trace.Error("parse error loading " + name + ": " + err.Error())
		return nil, ParseError
	}
	if cf.ThisClass != name {
		trace.Warning("class file this_class (" + cf.ThisClass + ") does not match requested name (" + name + ")")
	}

	e := &Entry{Name: name, State: types.ClassLoading, File: cf}
	l.mu.Lock()
	l.cache[name] = e
	l.mu.Unlock()
	stringpool.GetStringIndex(name)

	var parentSchema *Schema
	if cf.SuperClass != "" {
		superEntry, res := l.AttemptLoad(cf.SuperClass)
		if res != Loaded {
			trace.Error("missing super class " + cf.SuperClass + " for " + name)
			return nil, ParseError
		}
		parentSchema = superEntry.Schema
	}

	ifaceSchemas := make([]*Schema, 0, len(cf.Interfaces))
	for _, ifaceName := range cf.Interfaces {
		ifaceEntry, res := l.AttemptLoad(ifaceName)
		if res != Loaded {
			trace.Error("missing interface " + ifaceName + " for " + name)
			return nil, ParseError
		}
		ifaceSchemas = append(ifaceSchemas, ifaceEntry.Schema)
	}

	schema, err := BuildSchema(cf, parentSchema, ifaceSchemas...)
	if err != nil {
		trace.Error("schema build failed for " + name + ": " + err.Error())
		return nil, ParseError
	}
	e.Schema = schema
	e.ClInit = clinitStateOf(cf)
	e.State = types.ClassLoaded

	trace.Trace("loaded class " + name)
	return e, Loaded
}

func clinitStateOf(cf *classfile.ClassFile) types.ClInitState {
	for _, m := range cf.Methods {
		if m.Name == "<clinit>" && m.Descriptor == "()V" {
			return types.ClInitNotRun
		}
	}
	return types.NoClinit
}

func (l *Loader) readRaw(name string) ([]byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	filename := util.ConvertInternalClassNameToFilename(name)
	for _, src := range l.sources {
		if b, ok := src.ReadClass(name); ok {
			return b, true
		}
		if b, ok := src.ReadClass(filename); ok {
			return b, true
		}
	}
	return nil, false
}

// BeginInitializing transitions e from Loaded to Initializing, returning
// false if another thread already did so (or the class is already
// Initialized/Initializing). The re-entrant "same thread observes
// Initialized" rule is enforced one layer up, by the interpreter's
// class-init trigger, which tracks in-progress initializers per thread;
// this only guards the one-time global transition.
func (e *Entry) BeginInitializing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.State != types.ClassLoaded {
		return false
	}
	e.State = types.ClassInitializing
	return true
}

// FinishInitializing transitions e to Initialized.
func (e *Entry) FinishInitializing() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.State = types.ClassInitialized
}
