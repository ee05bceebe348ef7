/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource is a classloader.Source backed by an in-memory map, standing
// in for the mmap-go-backed blob source used for the bootstrap classes;
// tests only care about the Source contract, not the backing storage.
type memSource map[string][]byte

func (m memSource) ReadClass(name string) ([]byte, bool) {
	b, ok := m[name+".class"]
	if !ok {
		b, ok = m[name]
	}
	return b, ok
}

func TestAttemptLoad_NotFound(t *testing.T) {
	l := New(memSource{})
	_, res := l.AttemptLoad("com/example/DoesNotExist")
	assert.Equal(t, NotFound, res)
}

func TestAttemptLoad_ParseErrorOnBadMagic(t *testing.T) {
	bad := append([]byte{0xDE, 0xAD, 0xBE, 0xEF}, make([]byte, 20)...)
	l := New(memSource{"Bad.class": bad})
	_, res := l.AttemptLoad("Bad")
	assert.Equal(t, ParseError, res)
}

func TestAttemptLoad_ParseErrorOnTruncation(t *testing.T) {
	full := buildTestClassObject(t, "Truncated", "")
	for cut := 0; cut < len(full); cut += 7 {
		l := New(memSource{"Truncated.class": full[:cut]})
		_, res := l.AttemptLoad("Truncated")
		if cut < len(full) {
			require.NotEqual(t, Loaded, res, "truncated at %d bytes must not parse as Loaded", cut)
		}
	}
}

func TestAttemptLoad_CachesAcrossCalls(t *testing.T) {
	src := memSource{"Cached.class": buildTestClassObject(t, "Cached", "")}
	l := New(src)
	e1, res1 := l.AttemptLoad("Cached")
	require.Equal(t, Loaded, res1)
	e2, res2 := l.AttemptLoad("Cached")
	require.Equal(t, Loaded, res2)
	assert.Same(t, e1, e2, "a second AttemptLoad must return the cached entry, not reparse")
}

func TestAttemptLoad_SuperLoadedBeforeChild(t *testing.T) {
	src := memSource{
		"java/lang/Object.class": buildTestClassObject(t, "java/lang/Object", ""),
		"Child.class":            buildTestClassObject(t, "Child", "java/lang/Object"),
	}
	l := New(src)
	child, res := l.AttemptLoad("Child")
	require.Equal(t, Loaded, res)
	super, ok := l.Lookup("java/lang/Object")
	require.True(t, ok)
	assert.GreaterOrEqual(t, int(super.State), int(child.State)-0) // super reached Loaded no later than child
}
