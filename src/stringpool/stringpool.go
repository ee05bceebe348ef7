/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package stringpool interns class and UTF-8 names the VM refers to
// repeatedly (class names in particular), so that the rest of the system
// can pass around a cheap uint32 index instead of copying strings. It is
// not the same pool as the per-class constant pool (src/cpool) -- this is
// a single VM-wide table, analogous to the real JVM's interned-string and
// symbol tables combined.
package stringpool

import (
	"sync"

	"jcvm/src/types"
)

var (
	mu      sync.RWMutex
	strings_ []string
	index   map[string]uint32
)

func init() {
	reset()
}

// reset reinitializes the pool with its two well-known entries pinned at
// the indices types.ObjectPoolStringIndex and types.StringPoolStringIndex.
// Exposed for tests that need a clean pool between cases.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	strings_ = []string{"java/lang/Object", "java/lang/String"}
	index = map[string]uint32{
		"java/lang/Object": types.ObjectPoolStringIndex,
		"java/lang/String": types.StringPoolStringIndex,
	}
}

// Reset clears the pool back to its two well-known entries. Test-only.
func Reset() { reset() }

// GetStringIndex interns s, returning its (possibly newly-assigned) index.
func GetStringIndex(s string) uint32 {
	mu.RLock()
	if i, ok := index[s]; ok {
		mu.RUnlock()
		return i
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	// re-check: another goroutine may have interned it while we waited
	if i, ok := index[s]; ok {
		return i
	}
	i := uint32(len(strings_))
	strings_ = append(strings_, s)
	index[s] = i
	return i
}

// GetStringPointer returns a pointer to the interned string at idx, or a
// pointer to "" if idx is out of range.
func GetStringPointer(idx uint32) *string {
	mu.RLock()
	defer mu.RUnlock()
	if int(idx) >= len(strings_) {
		empty := ""
		return &empty
	}
	return &strings_[idx]
}

// GetStringPoolSize returns the current number of interned entries, used
// by callers validating an index before dereferencing it.
func GetStringPoolSize() uint32 {
	mu.RLock()
	defer mu.RUnlock()
	return uint32(len(strings_))
}
