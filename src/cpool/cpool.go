/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package cpool implements spec.md §4.2 / §3 "Constant pool": the typed,
// 1-indexed constant-pool entry table every class file carries, with
// cross-references resolved lazily to strings through the accessor
// methods rather than eagerly during parsing.
package cpool

import (
	"strings"

	"jcvm/src/binreader"
	"jcvm/src/vmerrors"
)

// Tag identifies a constant-pool entry's kind. Values match JVM Spec §4.4.
type Tag byte

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

// Entry is a tagged-union constant-pool slot. Only the fields relevant to
// Tag are populated; the rest are zero.
type Entry struct {
	Tag Tag

	Utf8Bytes []byte // TagUtf8 (modified-UTF-8 raw bytes) + decoded below
	Utf8Str   string // TagUtf8 decoded

	Int32Val   int32   // TagInteger
	Float32Val float32 // TagFloat
	Int64Val   int64   // TagLong (occupies this slot and the next, unusable, slot)
	Float64Val float64 // TagDouble (ditto)

	ClassNameIdx uint16 // TagClass -> Utf8

	StringIdx uint16 // TagString -> Utf8

	ClassIdx       uint16 // TagFieldref/Methodref/InterfaceMethodref
	NameAndTypeIdx uint16

	NameIdx uint16 // TagNameAndType
	DescIdx uint16

	RefKind  byte   // TagMethodHandle: 1-9
	RefIndex uint16 // TagMethodHandle -> a Fieldref/Methodref/InterfaceMethodref depending on RefKind

	DescriptorIdx uint16 // TagMethodType -> Utf8

	BootstrapIdx    uint16 // TagDynamic / TagInvokeDynamic
	NatIdxOfDynOrID uint16
}

// Pool is the parsed, 1-indexed constant pool. Index 0 is reserved and
// invalid; a Long/Double entry occupies its slot and leaves the next slot
// as an unusable placeholder (tag 0), exactly mirroring the class file
// layout so raw indices from method bytecode resolve directly.
type Pool struct {
	Entries []Entry // Entries[0] is the unused placeholder
}

// Parse reads constant_pool_count and then the entries for slots
// 1..count-1; a Long or Double fills two slots, the second left as a
// tag-0 placeholder.
func Parse(r *binreader.Reader) (*Pool, error) {
	count, err := r.U16Count()
	if err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, vmerrors.Malformed("constant_pool_count must be >= 1")
	}

	p := &Pool{Entries: make([]Entry, count)} // index 0 unused

	for i := 1; i < count; i++ {
		tagByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		tag := Tag(tagByte)
		entry, wide, err := parseEntry(r, tag)
		if err != nil {
			return nil, err
		}
		p.Entries[i] = entry
		if wide {
			// long/double: the next slot is reserved and unusable.
			i++
			if i < count {
				p.Entries[i] = Entry{Tag: 0}
			}
		}
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseEntry(r *binreader.Reader, tag Tag) (Entry, bool, error) {
	switch tag {
	case TagUtf8:
		n, err := r.U16Count()
		if err != nil {
			return Entry{}, false, err
		}
		raw, err := r.Bytes(n)
		if err != nil {
			return Entry{}, false, err
		}
		buf := make([]byte, len(raw))
		copy(buf, raw)
		s, err := decodeModifiedUTF8(buf)
		if err != nil {
			return Entry{}, false, vmerrors.Malformed("Utf8 entry is not valid modified UTF-8: " + err.Error())
		}
		return Entry{Tag: tag, Utf8Bytes: buf, Utf8Str: s}, false, nil

	case TagInteger:
		v, err := r.I32()
		return Entry{Tag: tag, Int32Val: v}, false, err

	case TagFloat:
		v, err := r.F32()
		return Entry{Tag: tag, Float32Val: v}, false, err

	case TagLong:
		v, err := r.I64()
		return Entry{Tag: tag, Int64Val: v}, true, err

	case TagDouble:
		v, err := r.F64()
		return Entry{Tag: tag, Float64Val: v}, true, err

	case TagClass:
		v, err := r.U16()
		return Entry{Tag: tag, ClassNameIdx: v}, false, err

	case TagString:
		v, err := r.U16()
		return Entry{Tag: tag, StringIdx: v}, false, err

	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		ci, err := r.U16()
		if err != nil {
			return Entry{}, false, err
		}
		nt, err := r.U16()
		return Entry{Tag: tag, ClassIdx: ci, NameAndTypeIdx: nt}, false, err

	case TagNameAndType:
		ni, err := r.U16()
		if err != nil {
			return Entry{}, false, err
		}
		di, err := r.U16()
		return Entry{Tag: tag, NameIdx: ni, DescIdx: di}, false, err

	case TagMethodHandle:
		kind, err := r.U8()
		if err != nil {
			return Entry{}, false, err
		}
		idx, err := r.U16()
		return Entry{Tag: tag, RefKind: kind, RefIndex: idx}, false, err

	case TagMethodType:
		v, err := r.U16()
		return Entry{Tag: tag, DescriptorIdx: v}, false, err

	case TagDynamic, TagInvokeDynamic:
		bi, err := r.U16()
		if err != nil {
			return Entry{}, false, err
		}
		nt, err := r.U16()
		return Entry{Tag: tag, BootstrapIdx: bi, NatIdxOfDynOrID: nt}, false, err

	case TagModule, TagPackage:
		v, err := r.U16()
		return Entry{Tag: tag, ClassNameIdx: v}, false, err

	default:
		return Entry{}, false, vmerrors.Malformed("unknown constant pool tag")
	}
}

// decodeModifiedUTF8 decodes the class file's modified-UTF-8 byte
// sequence (JVM Spec §4.4.7). Modified UTF-8 differs from ordinary
// UTF-8 in two ways a general-purpose UTF-8 decoder gets wrong: NUL is
// encoded as the overlong two-byte sequence 0xC0 0x80 rather than one
// zero byte, and a supplementary character (above U+FFFF) is encoded as
// its UTF-16 surrogate pair, each surrogate individually 3-byte-encoded,
// rather than as a single 4-byte UTF-8 sequence. Decoding proceeds in
// two passes: first the one/two/three-byte forms are read off into
// UTF-16 code units (a lone 0xC0 0x80 decodes to the unit 0, restoring
// the embedded NUL), then adjacent high/low surrogate units are
// recombined into the one rune they encode.
func decodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		b0 := b[i]
		switch {
		case b0&0x80 == 0:
			units = append(units, uint16(b0))
			i++
		case b0&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", vmerrors.Malformed("modified UTF-8 has a truncated two-byte sequence")
			}
			units = append(units, uint16(b0&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case b0&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", vmerrors.Malformed("modified UTF-8 has a truncated three-byte sequence")
			}
			units = append(units, uint16(b0&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", vmerrors.Malformed("modified UTF-8 has an invalid leading byte")
		}
	}

	var sb strings.Builder
	sb.Grow(len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) {
			if lo := units[i+1]; lo >= 0xDC00 && lo <= 0xDFFF {
				sb.WriteRune(0x10000 + rune(u-0xD800)<<10 + rune(lo-0xDC00))
				i++
				continue
			}
		}
		sb.WriteRune(rune(u))
	}
	return sb.String(), nil
}

// validate checks that every cross-reference resolves to an entry of the
// expected kind, per spec.md §3's constant-pool invariant.
func (p *Pool) validate() error {
	for i := 1; i < len(p.Entries); i++ {
		e := p.Entries[i]
		switch e.Tag {
		case 0:
			continue // second slot of a long/double
		case TagClass, TagModule, TagPackage:
			if !p.isUtf8(e.ClassNameIdx) {
				return vmerrors.Malformed("Class/Module/Package entry does not reference a Utf8 entry")
			}
		case TagString:
			if !p.isUtf8(e.StringIdx) {
				return vmerrors.Malformed("String entry does not reference a Utf8 entry")
			}
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			if !p.isTag(e.ClassIdx, TagClass) || !p.isTag(e.NameAndTypeIdx, TagNameAndType) {
				return vmerrors.Malformed("ref entry has a bad cross-reference")
			}
		case TagNameAndType:
			if !p.isUtf8(e.NameIdx) || !p.isUtf8(e.DescIdx) {
				return vmerrors.Malformed("NameAndType entry has a bad cross-reference")
			}
		case TagMethodType:
			if !p.isUtf8(e.DescriptorIdx) {
				return vmerrors.Malformed("MethodType entry does not reference a Utf8 entry")
			}
		case TagMethodHandle:
			if e.RefKind < 1 || e.RefKind > 9 {
				return vmerrors.Malformed("MethodHandle entry has an invalid reference_kind")
			}
			if !p.isTag(e.RefIndex, TagFieldref) && !p.isTag(e.RefIndex, TagMethodref) && !p.isTag(e.RefIndex, TagInterfaceMethodref) {
				return vmerrors.Malformed("MethodHandle entry does not reference a Fieldref/Methodref/InterfaceMethodref entry")
			}
		case TagDynamic, TagInvokeDynamic:
			if !p.isTag(e.NatIdxOfDynOrID, TagNameAndType) {
				return vmerrors.Malformed("Dynamic/InvokeDynamic entry has a bad NameAndType reference")
			}
		}
	}
	return nil
}

func (p *Pool) inRange(idx uint16) bool {
	return int(idx) >= 1 && int(idx) < len(p.Entries)
}

func (p *Pool) isTag(idx uint16, tag Tag) bool {
	return p.inRange(idx) && p.Entries[idx].Tag == tag
}

func (p *Pool) isUtf8(idx uint16) bool { return p.isTag(idx, TagUtf8) }

// Utf8 returns the decoded string at index i, which must reference a
// TagUtf8 entry.
func (p *Pool) Utf8(i uint16) (string, error) {
	if !p.isUtf8(i) {
		return "", vmerrors.Malformed("index does not reference a Utf8 entry")
	}
	return p.Entries[i].Utf8Str, nil
}

// ClassName follows a TagClass entry's Utf8 reference and returns the
// class name it names.
func (p *Pool) ClassName(i uint16) (string, error) {
	if !p.isTag(i, TagClass) {
		return "", vmerrors.Malformed("index does not reference a Class entry")
	}
	return p.Utf8(p.Entries[i].ClassNameIdx)
}

// NameAndType follows a TagNameAndType entry and returns (name, descriptor).
func (p *Pool) NameAndType(i uint16) (string, string, error) {
	if !p.isTag(i, TagNameAndType) {
		return "", "", vmerrors.Malformed("index does not reference a NameAndType entry")
	}
	e := p.Entries[i]
	name, err := p.Utf8(e.NameIdx)
	if err != nil {
		return "", "", err
	}
	desc, err := p.Utf8(e.DescIdx)
	if err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// RefClassAndNameAndType resolves a Fieldref/Methodref/InterfaceMethodref
// entry down to (className, memberName, descriptor) in one call -- the
// shape every bytecode field/method-resolution site actually wants.
func (p *Pool) RefClassAndNameAndType(i uint16) (class, name, desc string, err error) {
	e := p.Entries[i]
	switch e.Tag {
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
	default:
		return "", "", "", vmerrors.Malformed("index does not reference a ref entry")
	}
	class, err = p.ClassName(e.ClassIdx)
	if err != nil {
		return
	}
	name, desc, err = p.NameAndType(e.NameAndTypeIdx)
	return
}
