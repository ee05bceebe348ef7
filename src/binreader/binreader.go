/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package binreader implements spec.md §4.1: big-endian primitive decoding
// over a byte cursor, plus the length-prefixed vector helpers the class
// file format uses throughout (u16-counted tables for the constant pool,
// fields, methods, interfaces and exception table; u32-counted ones for
// code and attribute payloads).
package binreader

import (
	"math"

	"jcvm/src/vmerrors"
)

// Reader is a forward-only big-endian cursor over a byte slice. It does
// not retain ownership of buf -- callers that need a stable, addressable
// backing store (e.g. the classloader's in-memory-blob classpath source)
// arrange that themselves.
type Reader struct {
	buf []byte
	pos int
}

// New wraps buf in a Reader positioned at offset 0.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current cursor offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

// Seek repositions the cursor to an absolute offset, validated against
// buffer bounds.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.buf) {
		return vmerrors.Malformed("seek out of bounds")
	}
	r.pos = pos
	return nil
}

func (r *Reader) need(n int) error {
	if r.Len() < n {
		return vmerrors.Malformed("unexpected end of class file (short read)")
	}
	return nil
}

// U8 reads one unsigned byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// I8 reads one signed byte.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// U16 reads a big-endian unsigned 16-bit value.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := uint16(r.buf[r.pos])<<8 | uint16(r.buf[r.pos+1])
	r.pos += 2
	return v, nil
}

// I16 reads a big-endian signed 16-bit value.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// U32 reads a big-endian unsigned 32-bit value.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := uint32(r.buf[r.pos])<<24 | uint32(r.buf[r.pos+1])<<16 |
		uint32(r.buf[r.pos+2])<<8 | uint32(r.buf[r.pos+3])
	r.pos += 4
	return v, nil
}

// I32 reads a big-endian signed 32-bit value.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// U64 reads a big-endian unsigned 64-bit value.
func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	hi, _ := r.U32WithoutAdvance(r.pos)
	lo, _ := r.U32WithoutAdvance(r.pos + 4)
	r.pos += 8
	return uint64(hi)<<32 | uint64(lo), nil
}

// U32WithoutAdvance is an internal helper for U64/I64 that reads 4 bytes
// at an explicit offset without moving the cursor.
func (r *Reader) U32WithoutAdvance(at int) (uint32, error) {
	if at+4 > len(r.buf) {
		return 0, vmerrors.Malformed("unexpected end of class file (short read)")
	}
	return uint32(r.buf[at])<<24 | uint32(r.buf[at+1])<<16 |
		uint32(r.buf[at+2])<<8 | uint32(r.buf[at+3]), nil
}

// I64 reads a big-endian signed 64-bit value.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// F32 reads an IEEE-754 single-precision float.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// F64 reads an IEEE-754 double-precision float.
func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Bytes reads n raw bytes and advances the cursor past them. The
// returned slice aliases the reader's backing array; callers that need
// to retain it past further reads should copy it.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, vmerrors.Malformed("negative length")
	}
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// SubReader returns a bounded sub-slice reader over the next n bytes,
// advancing this reader's cursor past them, used to recursively parse an
// attribute's payload without letting it read beyond its declared length.
func (r *Reader) SubReader(n int) (*Reader, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return nil, err
	}
	return New(b), nil
}

// Rest returns every unread byte and advances the cursor to the end,
// used once a sub-reader's structured prefix has been consumed and the
// remainder is opaque payload (e.g. an attribute this package doesn't
// reparse).
func (r *Reader) Rest() []byte {
	b := r.buf[r.pos:]
	r.pos = len(r.buf)
	return b
}

// U16Count reads a u16 element count. It's split out from plain U16
// because every u16-counted vector in the class file format (constant
// pool, fields, methods, attributes, interfaces, exception table) funnels
// through this one call, which is a convenient place to hang future
// sanity limits.
func (r *Reader) U16Count() (int, error) {
	v, err := r.U16()
	return int(v), err
}

// U32Count reads a u32 element/length count (used by Code.code_length and
// every attribute_info.attribute_length).
func (r *Reader) U32Count() (int, error) {
	v, err := r.U32()
	return int(v), err
}
