/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classfile implements spec.md §4.3: the bit-exact parser for the
// class file container itself -- magic, version, constant pool, access
// flags, this/super, interfaces, fields, methods, and attributes. It
// builds on src/binreader and src/cpool; it does not interpret attribute
// payloads beyond the ones the interpreter and linker need (Code,
// BootstrapMethods), leaving attributes like StackMapTable as opaque
// bytes to be skipped, per spec.
package classfile

import (
	"jcvm/src/binreader"
	"jcvm/src/cpool"
	"jcvm/src/vmerrors"
)

const Magic uint32 = 0xCAFEBABE

// Class access-flag bits (spec.md §6).
const (
	AccPublic     = 0x0001
	AccFinal      = 0x0010
	AccSuper      = 0x0020
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccSynthetic  = 0x1000
	AccAnnotation = 0x2000
	AccEnum       = 0x4000
	AccModule     = 0x8000
)

// Method access-flag bits.
const (
	MAccPublic       = 0x0001
	MAccPrivate      = 0x0002
	MAccProtected    = 0x0004
	MAccStatic       = 0x0008
	MAccFinal        = 0x0010
	MAccSynchronized = 0x0020
	MAccBridge       = 0x0040
	MAccVarargs      = 0x0080
	MAccNative       = 0x0100
	MAccAbstract     = 0x0400
	MAccStrict       = 0x0800
	MAccSynthetic    = 0x1000
)

// Field access-flag bits.
const (
	FAccPublic    = 0x0001
	FAccPrivate   = 0x0002
	FAccProtected = 0x0004
	FAccStatic    = 0x0008
	FAccFinal     = 0x0010
	FAccVolatile  = 0x0040
	FAccTransient = 0x0080
	FAccSynthetic = 0x1000
	FAccEnum      = 0x4000
)

// Known attribute names the interpreter and linker must understand.
const (
	AttrCode               = "Code"
	AttrStackMapTable      = "StackMapTable"
	AttrExceptions         = "Exceptions"
	AttrInnerClasses       = "InnerClasses"
	AttrBootstrapMethods   = "BootstrapMethods"
	AttrLineNumberTable    = "LineNumberTable"
	AttrLocalVariableTable = "LocalVariableTable"
	AttrConstantValue      = "ConstantValue"
	AttrSourceFile         = "SourceFile"
	AttrSignature          = "Signature"
	AttrNestHost           = "NestHost"
	AttrEnclosingMethod    = "EnclosingMethod"
)

// Attribute is a generic name+raw-payload attribute entry. Payloads are
// reparsed lazily according to name by whichever component needs them
// (Code is reparsed eagerly here since the interpreter always needs it;
// StackMapTable and friends are left as raw bytes).
type Attribute struct {
	Name    string
	Payload []byte
}

// ExceptionTableEntry is one row of a Code attribute's exception table.
type ExceptionTableEntry struct {
	StartPC   int // inclusive
	EndPC     int // exclusive
	HandlerPC int
	CatchType uint16 // 0 means "any" (a finally block); else a Class CP index
}

// CodeAttribute is the reparsed form of a method's "Code" attribute.
type CodeAttribute struct {
	MaxStack   int
	MaxLocals  int
	Code       []byte
	Exceptions []ExceptionTableEntry
	Attributes []Attribute
}

// FieldInfo describes one field_info entry.
type FieldInfo struct {
	AccessFlags int
	Name        string
	Descriptor  string
	Attributes  []Attribute
}

// MethodInfo describes one method_info entry.
type MethodInfo struct {
	AccessFlags int
	Name        string
	Descriptor  string
	Attributes  []Attribute
	Code        *CodeAttribute // nil if the method has no Code attribute
}

func (m *MethodInfo) IsNative() bool   { return m.AccessFlags&MAccNative != 0 }
func (m *MethodInfo) IsAbstract() bool { return m.AccessFlags&MAccAbstract != 0 }
func (m *MethodInfo) IsStatic() bool   { return m.AccessFlags&MAccStatic != 0 }

// BootstrapMethod is one row of a class's BootstrapMethods attribute --
// the table invokedynamic instructions index into to find the method
// handle and static arguments a call site's bootstrap method runs with.
type BootstrapMethod struct {
	MethodRefIdx uint16   // CP index of a TagMethodHandle entry
	Args         []uint16 // CP indices of the static bootstrap arguments
}

// ClassFile is the fully-parsed class-file container of spec.md §3/§6.
type ClassFile struct {
	MinorVersion     uint16
	MajorVersion     uint16
	Pool             *cpool.Pool
	AccessFlags      int
	ThisClass        string
	SuperClass       string // "" only for the root class (java/lang/Object)
	Interfaces       []string
	Fields           []FieldInfo
	Methods          []MethodInfo
	Attributes       []Attribute
	BootstrapMethods []BootstrapMethod // reparsed from AttrBootstrapMethods, nil if absent
}

func (c *ClassFile) IsInterface() bool { return c.AccessFlags&AccInterface != 0 }
func (c *ClassFile) IsAbstract() bool  { return c.AccessFlags&AccAbstract != 0 }
func (c *ClassFile) IsEnum() bool      { return c.AccessFlags&AccEnum != 0 }

// Parse decodes a complete class file from raw bytes.
func Parse(raw []byte) (*ClassFile, error) {
	r := binreader.New(raw)

	magic, err := r.U32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, vmerrors.Malformed("bad magic number; not a class file")
	}

	cf := &ClassFile{}
	if cf.MinorVersion, err = r.U16(); err != nil {
		return nil, err
	}
	if cf.MajorVersion, err = r.U16(); err != nil {
		return nil, err
	}

	pool, err := cpool.Parse(r)
	if err != nil {
		return nil, err
	}
	cf.Pool = pool

	flags, err := r.U16()
	if err != nil {
		return nil, err
	}
	cf.AccessFlags = int(flags)

	thisIdx, err := r.U16()
	if err != nil {
		return nil, err
	}
	cf.ThisClass, err = pool.ClassName(thisIdx)
	if err != nil {
		return nil, err
	}

	superIdx, err := r.U16()
	if err != nil {
		return nil, err
	}
	if superIdx == 0 {
		cf.SuperClass = ""
	} else {
		cf.SuperClass, err = pool.ClassName(superIdx)
		if err != nil {
			return nil, err
		}
	}

	nInterfaces, err := r.U16Count()
	if err != nil {
		return nil, err
	}
	for i := 0; i < nInterfaces; i++ {
		idx, err := r.U16()
		if err != nil {
			return nil, err
		}
		name, err := pool.ClassName(idx)
		if err != nil {
			return nil, err
		}
		cf.Interfaces = append(cf.Interfaces, name)
	}

	nFields, err := r.U16Count()
	if err != nil {
		return nil, err
	}
	for i := 0; i < nFields; i++ {
		f, err := parseFieldInfo(r, pool)
		if err != nil {
			return nil, err
		}
		cf.Fields = append(cf.Fields, f)
	}

	nMethods, err := r.U16Count()
	if err != nil {
		return nil, err
	}
	for i := 0; i < nMethods; i++ {
		m, err := parseMethodInfo(r, pool)
		if err != nil {
			return nil, err
		}
		if (m.IsNative() || m.IsAbstract()) && m.Code != nil {
			return nil, vmerrors.Malformed("native or abstract method " + m.Name + " must not carry a Code attribute")
		}
		if !m.IsNative() && !m.IsAbstract() && m.Code == nil {
			return nil, vmerrors.Malformed("non-native, non-abstract method " + m.Name + " must carry exactly one Code attribute")
		}
		cf.Methods = append(cf.Methods, m)
	}

	nAttrs, err := r.U16Count()
	if err != nil {
		return nil, err
	}
	for i := 0; i < nAttrs; i++ {
		a, err := parseAttribute(r, pool)
		if err != nil {
			return nil, err
		}
		if a.Name == AttrBootstrapMethods {
			bms, err := parseBootstrapMethods(a.Payload)
			if err != nil {
				return nil, err
			}
			cf.BootstrapMethods = bms
		}
		cf.Attributes = append(cf.Attributes, a)
	}

	return cf, nil
}

// parseBootstrapMethods reparses a class's BootstrapMethods attribute
// payload, per spec.md §4.7.23: a count followed by that many
// (method_ref, num_args, args...) rows.
func parseBootstrapMethods(payload []byte) ([]BootstrapMethod, error) {
	r := binreader.New(payload)
	n, err := r.U16Count()
	if err != nil {
		return nil, err
	}
	bms := make([]BootstrapMethod, n)
	for i := 0; i < n; i++ {
		methodRef, err := r.U16()
		if err != nil {
			return nil, err
		}
		nArgs, err := r.U16Count()
		if err != nil {
			return nil, err
		}
		args := make([]uint16, nArgs)
		for j := 0; j < nArgs; j++ {
			args[j], err = r.U16()
			if err != nil {
				return nil, err
			}
		}
		bms[i] = BootstrapMethod{MethodRefIdx: methodRef, Args: args}
	}
	return bms, nil
}

func parseAttribute(r *binreader.Reader, pool *cpool.Pool) (Attribute, error) {
	nameIdx, err := r.U16()
	if err != nil {
		return Attribute{}, err
	}
	name, err := pool.Utf8(nameIdx)
	if err != nil {
		return Attribute{}, err
	}
	length, err := r.U32Count()
	if err != nil {
		return Attribute{}, err
	}
	payload, err := r.Bytes(length)
	if err != nil {
		return Attribute{}, err
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return Attribute{Name: name, Payload: buf}, nil
}

func parseFieldInfo(r *binreader.Reader, pool *cpool.Pool) (FieldInfo, error) {
	flags, err := r.U16()
	if err != nil {
		return FieldInfo{}, err
	}
	nameIdx, err := r.U16()
	if err != nil {
		return FieldInfo{}, err
	}
	name, err := pool.Utf8(nameIdx)
	if err != nil {
		return FieldInfo{}, err
	}
	descIdx, err := r.U16()
	if err != nil {
		return FieldInfo{}, err
	}
	desc, err := pool.Utf8(descIdx)
	if err != nil {
		return FieldInfo{}, err
	}
	f := FieldInfo{AccessFlags: int(flags), Name: name, Descriptor: desc}

	nAttrs, err := r.U16Count()
	if err != nil {
		return FieldInfo{}, err
	}
	for i := 0; i < nAttrs; i++ {
		a, err := parseAttribute(r, pool)
		if err != nil {
			return FieldInfo{}, err
		}
		f.Attributes = append(f.Attributes, a)
	}
	return f, nil
}

func parseMethodInfo(r *binreader.Reader, pool *cpool.Pool) (MethodInfo, error) {
	flags, err := r.U16()
	if err != nil {
		return MethodInfo{}, err
	}
	nameIdx, err := r.U16()
	if err != nil {
		return MethodInfo{}, err
	}
	name, err := pool.Utf8(nameIdx)
	if err != nil {
		return MethodInfo{}, err
	}
	descIdx, err := r.U16()
	if err != nil {
		return MethodInfo{}, err
	}
	desc, err := pool.Utf8(descIdx)
	if err != nil {
		return MethodInfo{}, err
	}
	m := MethodInfo{AccessFlags: int(flags), Name: name, Descriptor: desc}

	nAttrs, err := r.U16Count()
	if err != nil {
		return MethodInfo{}, err
	}
	for i := 0; i < nAttrs; i++ {
		nameIdx, err := r.U16()
		if err != nil {
			return MethodInfo{}, err
		}
		attrName, err := pool.Utf8(nameIdx)
		if err != nil {
			return MethodInfo{}, err
		}
		length, err := r.U32Count()
		if err != nil {
			return MethodInfo{}, err
		}
		sub, err := r.SubReader(length)
		if err != nil {
			return MethodInfo{}, err
		}
		if attrName == AttrCode {
			if m.Code != nil {
				return MethodInfo{}, vmerrors.Malformed("method " + name + " carries more than one Code attribute")
			}
			code, err := parseCode(sub, pool)
			if err != nil {
				return MethodInfo{}, err
			}
			m.Code = code
			m.Attributes = append(m.Attributes, Attribute{Name: attrName})
		} else {
			m.Attributes = append(m.Attributes, Attribute{Name: attrName, Payload: sub.Rest()})
		}
	}
	return m, nil
}

// parseCode re-enters the parser for a method's Code attribute, per
// spec.md §4.3: max-stack, max-locals, the code byte array, the ordered
// exception table, and nested attributes.
func parseCode(r *binreader.Reader, pool *cpool.Pool) (*CodeAttribute, error) {
	maxStack, err := r.U16()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.U16()
	if err != nil {
		return nil, err
	}
	codeLen, err := r.U32Count()
	if err != nil {
		return nil, err
	}
	code, err := r.Bytes(codeLen)
	if err != nil {
		return nil, err
	}
	codeCopy := make([]byte, len(code))
	copy(codeCopy, code)

	ca := &CodeAttribute{MaxStack: int(maxStack), MaxLocals: int(maxLocals), Code: codeCopy}

	nExc, err := r.U16Count()
	if err != nil {
		return nil, err
	}
	for i := 0; i < nExc; i++ {
		start, err := r.U16()
		if err != nil {
			return nil, err
		}
		end, err := r.U16()
		if err != nil {
			return nil, err
		}
		handler, err := r.U16()
		if err != nil {
			return nil, err
		}
		catch, err := r.U16()
		if err != nil {
			return nil, err
		}
		ca.Exceptions = append(ca.Exceptions, ExceptionTableEntry{
			StartPC: int(start), EndPC: int(end), HandlerPC: int(handler), CatchType: catch,
		})
	}

	nAttrs, err := r.U16Count()
	if err != nil {
		return nil, err
	}
	for i := 0; i < nAttrs; i++ {
		a, err := parseAttribute(r, pool)
		if err != nil {
			return nil, err
		}
		ca.Attributes = append(ca.Attributes, a)
	}

	return ca, nil
}
