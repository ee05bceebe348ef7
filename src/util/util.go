/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package util holds small, dependency-free helpers shared by the
// classloader and interpreter: platform path-separator conversion and the
// handful of byte<->integer conversions the interpreter's numeric opcodes
// lean on.
package util

import (
	"encoding/binary"
	"os"
	"strings"
)

// ConvertToPlatformPathSeparators rewrites the slash-separated class name
// format used throughout the class file format (and this codebase) into
// whatever the host OS's path separator is, for filesystem lookups.
func ConvertToPlatformPathSeparators(name string) string {
	if os.PathSeparator == '/' {
		return name
	}
	return strings.ReplaceAll(name, "/", string(os.PathSeparator))
}

// ConvertInternalClassNameToFilename appends ".class" unless already
// present, after platform path conversion.
func ConvertInternalClassNameToFilename(name string) string {
	fname := ConvertToPlatformPathSeparators(name)
	if !strings.HasSuffix(fname, ".class") {
		fname += ".class"
	}
	return fname
}

// ByteToInt64 sign-extends a single Java byte into an int64, the way the
// interpreter's BASTORE/BALOAD and i2b/b2i family of conversions need.
func ByteToInt64(b byte) int64 {
	if b&0x80 == 0x80 {
		buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, b}
		return int64(binary.BigEndian.Uint64(buf))
	}
	return int64(b)
}

// FourBytesToInt32 assembles four big-endian bytes (as found in a
// bipush/sipush-adjacent immediate, or a class-file constant) into a
// signed int32.
func FourBytesToInt32(b0, b1, b2, b3 byte) int32 {
	return int32(binary.BigEndian.Uint32([]byte{b0, b1, b2, b3}))
}

// TwoBytesToInt16 assembles two big-endian bytes into a signed int16,
// used for the signed branch-offset operand of if*/goto.
func TwoBytesToInt16(hi, lo byte) int16 {
	return int16(binary.BigEndian.Uint16([]byte{hi, lo}))
}
