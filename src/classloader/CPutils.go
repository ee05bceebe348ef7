/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

// This file contains the ClassSchema builder (spec.md §4.6). It was
// formerly CpType-oriented constant-pool runtime-access utilities; those
// concerns moved into package cpool's typed accessors, leaving this file
// to own the one runtime computation that genuinely depends on a fully
// loaded super-chain: per-class memory layout.

import (
	"jcvm/src/classfile"
	"jcvm/src/descriptor"
	"jcvm/src/value"
	"jcvm/src/vmerrors"
)

// FieldSlot describes one slot of a schema's instance layout.
type FieldSlot struct {
	Name       string
	Descriptor string
	Kind       value.Kind
	OwnerClass string
}

// MethodKey identifies a (name, descriptor) pair in the method-resolution table.
type MethodKey struct {
	Name       string
	Descriptor string
}

// Schema is the computed per-class memory layout and method-resolution
// table of spec.md §3/§4.6. It satisfies heap.Schema.
type Schema struct {
	ClassName string
	Parent    *Schema

	// Interfaces lists the schemas of this class's own *directly*
	// declared interfaces (classfile.ClassFile.Interfaces, resolved),
	// in declaration order. An interface's own Interfaces lists the
	// super-interfaces it extends, so the transitive implements set is
	// reached by walking this field recursively rather than flattening
	// it at build time.
	Interfaces []*Schema

	Fields []FieldSlot // full layout: parent's fields concatenated with this class's own, in order

	// Methods maps (name, descriptor) to the class that owns the winning
	// implementation; a subclass entry shadows its parent's, and a
	// method resolved only through a superinterface's default method is
	// folded in here too (see BuildSchema), so ResolveMethod never needs
	// a separate interface-scanning path.
	Methods map[MethodKey]string

	// StaticFields maps a field name declared directly on this class to
	// its slot offset within the process-wide static slab (see
	// heap.Heap.GrowStaticSlab); static fields are not part of the
	// per-instance Fields layout. Populated lazily, the first time this
	// class's statics are materialized (see invoke's class-init trigger),
	// not by BuildSchema itself -- BuildSchema only records which fields
	// need slots, in OwnStaticFields below.
	StaticFields map[string]int

	// OwnStaticFields lists this class's own static field declarations
	// (not inherited -- each class owns its static storage independently,
	// unlike instance fields), in declaration order, for whoever
	// materializes this class's static storage to size the slab grow by.
	OwnStaticFields []FieldSlot
}

func (s *Schema) Name() string { return s.ClassName }

// InstanceSlotCount implements heap.Schema.
func (s *Schema) InstanceSlotCount() int { return len(s.Fields) }

// SlotKinds returns the Kind of every instance slot, in layout order, for
// heap.AllocateInstance's default-value initialization.
func (s *Schema) SlotKinds() []value.Kind {
	kinds := make([]value.Kind, len(s.Fields))
	for i, f := range s.Fields {
		kinds[i] = f.Kind
	}
	return kinds
}

// SlotIndex returns the instance-layout offset of name: the first slot in
// layout order with that name, so the most ancestral declaration wins. A
// subclass field that hides a same-named ancestor field gets its own slot
// (BuildSchema appends it), but SlotIndex never returns that slot; the
// owning class is not part of the lookup.
func (s *Schema) SlotIndex(name string) (int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// StaticSlotIndex returns the static-slab offset and declaring class for
// name, searching this class and then its ancestors (a reference to an
// inherited static field through a subclass name resolves to the
// declaring ancestor's own storage).
func (s *Schema) StaticSlotIndex(name string) (owner *Schema, offset int, ok bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if off, present := cur.StaticFields[name]; present {
			return cur, off, true
		}
	}
	return nil, 0, false
}

// ResolveMethod looks up (name, descriptor) in the method-resolution
// table, returning the class that owns the winning implementation.
func (s *Schema) ResolveMethod(name, desc string) (string, bool) {
	owner, ok := s.Methods[MethodKey{name, desc}]
	return owner, ok
}

// IsSubtypeOf walks the parent chain looking for className, and at each
// level also walks that class's own transitively-implemented interface
// set, implementing the schema-chain subtype test instanceof/checkcast
// need (spec §4.8.3's Type ops) for both class and interface targets.
func (s *Schema) IsSubtypeOf(className string) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.ClassName == className {
			return true
		}
		if cur.implementsInterface(className) {
			return true
		}
	}
	return false
}

// implementsInterface tests s's own directly-declared interfaces and,
// recursively, the interfaces those extend, depth-first.
func (s *Schema) implementsInterface(className string) bool {
	for _, iface := range s.Interfaces {
		if iface == nil {
			continue
		}
		if iface.ClassName == className || iface.implementsInterface(className) {
			return true
		}
	}
	return false
}

// BuildSchema implements spec.md §4.6: parent layout concatenated with
// this class's own non-static fields in declaration order, and a
// parent-extended, override-shadowed method-resolution table. interfaces
// gives the already-built schemas of cf.Interfaces, in the class file's
// declared order, so the caller (the classloader, which alone can
// recursively load them) controls the loading, not this function.
func BuildSchema(cf *classfile.ClassFile, parent *Schema, interfaces ...*Schema) (*Schema, error) {
	if cf.SuperClass != "" && parent == nil {
		return nil, vmerrors.Linkage("MissingSuper: " + cf.ThisClass + " super " + cf.SuperClass + " not loaded")
	}

	s := &Schema{
		ClassName:    cf.ThisClass,
		Parent:       parent,
		Interfaces:   interfaces,
		Methods:      make(map[MethodKey]string),
		StaticFields: make(map[string]int),
	}

	if parent != nil {
		s.Fields = append(s.Fields, parent.Fields...)
		for k, v := range parent.Methods {
			s.Methods[k] = v
		}
	}

	for _, f := range cf.Fields {
		desc, err := descriptor.Parse(f.Descriptor)
		if err != nil {
			return nil, err
		}
		slot := FieldSlot{
			Name:       f.Name,
			Descriptor: f.Descriptor,
			Kind:       descriptorValueKind(desc),
			OwnerClass: cf.ThisClass,
		}
		if f.AccessFlags&classfile.FAccStatic != 0 {
			s.OwnStaticFields = append(s.OwnStaticFields, slot)
			continue // static fields live in the process-wide slab, not the instance layout
		}
		s.Fields = append(s.Fields, slot)
	}

	for _, m := range cf.Methods {
		s.Methods[MethodKey{m.Name, m.Descriptor}] = cf.ThisClass
	}

	// invoke_interface resolution (spec §4.9): a method neither declared
	// here nor inherited through the superclass chain may still resolve
	// through a superinterface's default method. Interfaces are folded
	// in declared-interfaces order, first match wins, so the tie-break
	// between interfaces is depth-first pre-order; a class/superclass
	// method already recorded above always takes priority and is never
	// overwritten by an interface default.
	for _, iface := range interfaces {
		if iface == nil {
			continue
		}
		foldInterfaceMethods(s.Methods, iface)
	}

	return s, nil
}

// foldInterfaceMethods merges iface's own resolution table into dst,
// keeping any entry dst already has. iface.Methods already folds in
// iface's own superinterfaces (BuildSchema did the same merge when iface
// itself was built), so this one pass reaches the whole transitive set.
func foldInterfaceMethods(dst map[MethodKey]string, iface *Schema) {
	for k, v := range iface.Methods {
		if _, exists := dst[k]; !exists {
			dst[k] = v
		}
	}
}

// descriptorValueKind maps a field descriptor's Kind onto the Value
// Kind its slot is stored as.
func descriptorValueKind(d *descriptor.Descriptor) value.Kind {
	switch d.Kind {
	case descriptor.KByte:
		return value.KByte
	case descriptor.KChar:
		return value.KChar
	case descriptor.KShort:
		return value.KShort
	case descriptor.KInt:
		return value.KInt
	case descriptor.KBoolean:
		return value.KBoolean
	case descriptor.KLong:
		return value.KLong
	case descriptor.KFloat:
		return value.KFloat
	case descriptor.KDouble:
		return value.KDouble
	default: // KObject, KArray
		return value.KReference
	}
}
