/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// MmapSource serves one decoded class's raw bytes straight out of a
// memory-mapped file instead of a read-and-copy into a Go slice --
// the "in-memory blob" classpath Source spec.md's attempt_load
// description allows for; DirSource builds one for each .class file of
// a classpath directory, and its bytes are never invalidated. It answers
// for exactly the internal class name it was built with; a directory
// walker or archive reader that maps many files under one Source is
// explicitly out of scope.
type MmapSource struct {
	internalName string
	data         mmap.MMap
	file         *os.File
}

// NewMmapSource maps path into memory and serves its bytes under
// internalName (the class's slash-separated internal name, e.g.
// "java/lang/Object").
func NewMmapSource(internalName, path string) (*MmapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &MmapSource{internalName: internalName, data: m, file: f}, nil
}

// ReadClass implements Source.
func (s *MmapSource) ReadClass(internalName string) ([]byte, bool) {
	if internalName != s.internalName {
		return nil, false
	}
	return []byte(s.data), true
}

// Close unmaps the file and releases its descriptor. Loader itself has
// no notion of closing a Source -- callers that build one directly
// (rather than through a classpath directory helper) own its lifetime.
func (s *MmapSource) Close() error {
	if err := s.data.Unmap(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

// DirSource non-recursively maps every "<name>.class" file in dir into
// one MmapSource each, named by its filename stem, and adds them all to
// l. This is a bounded, single-directory listing -- not the recursive
// filesystem walker or jar/zip unpacker spec.md lists as out of scope --
// enough to point the launcher's -cp flag at a folder of already-
// compiled classes. Since it doesn't recurse into subdirectories, it
// only resolves default-package classes (internal name == file stem,
// no "/"); a package hierarchy needs the (explicitly out of scope)
// real classpath walker.
func DirSource(l *Loader, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || len(name) < 7 || name[len(name)-6:] != ".class" {
			continue
		}
		stem := name[:len(name)-6]
		src, err := NewMmapSource(stem, dir+string(os.PathSeparator)+name)
		if err != nil {
			return err
		}
		l.AddSource(src)
	}
	return nil
}
