/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import (
	"sync"

	"github.com/ebitengine/purego"

	"jcvm/src/vmerrors"
)

// libraryRegistry is the "first hit wins" table the bridge consults for
// a symbol, in the order libraries were loaded, mirroring
// classloader.Loader's own first-hit-wins classpath source order for
// symmetry (spec.md §4.10.2's "load_library(path)").
type libraryRegistry struct {
	mu      sync.RWMutex
	handles []uintptr // purego library handles, load order
}

func newLibraryRegistry() *libraryRegistry {
	return &libraryRegistry{}
}

// Load dlopens path and adds it to the search order.
func (r *libraryRegistry) Load(path string) error {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return vmerrors.Linkage("native: failed to load library " + path + ": " + err.Error())
	}
	r.mu.Lock()
	r.handles = append(r.handles, h)
	r.mu.Unlock()
	return nil
}

// Lookup resolves symbol against every loaded library, first hit wins,
// returning its address or ok=false if no loaded library exports it.
func (r *libraryRegistry) Lookup(symbol string) (uintptr, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.handles {
		if addr, err := purego.Dlsym(h, symbol); err == nil && addr != 0 {
			return addr, true
		}
	}
	return 0, false
}
