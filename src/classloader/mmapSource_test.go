/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMmapSourceServesExactName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Hello.class")
	require.NoError(t, os.WriteFile(path, []byte{0xCA, 0xFE, 0xBA, 0xBE}, 0o644))

	src, err := NewMmapSource("Hello", path)
	require.NoError(t, err)
	defer src.Close()

	data, ok := src.ReadClass("Hello")
	require.True(t, ok)
	assert.Equal(t, []byte{0xCA, 0xFE, 0xBA, 0xBE}, data)

	_, ok = src.ReadClass("Other")
	assert.False(t, ok)
}

func TestDirSourceMapsEveryClassFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Foo.class"), []byte{1, 2, 3}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Bar.class"), []byte{4, 5, 6}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignore me"), 0o644))

	l := New()
	require.NoError(t, DirSource(l, dir))

	foundFoo, foundBar := false, false
	for _, s := range l.sources {
		if b, ok := s.ReadClass("Foo"); ok {
			foundFoo = true
			assert.Equal(t, []byte{1, 2, 3}, b)
		}
		if b, ok := s.ReadClass("Bar"); ok {
			foundBar = true
			assert.Equal(t, []byte{4, 5, 6}, b)
		}
	}
	assert.True(t, foundFoo)
	assert.True(t, foundBar)
}
