/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package descriptor implements spec.md §4.4: a single-pass recursive
// descent parser for field and method type descriptors, the textual type
// expressions used throughout the class file format (field types,
// method signatures, NameAndType entries).
package descriptor

import (
	"jcvm/src/vmerrors"
)

// Kind enumerates the descriptor variants of spec.md §3.
type Kind int

const (
	KByte Kind = iota
	KChar
	KShort
	KInt
	KLong
	KFloat
	KDouble
	KBoolean
	KObject
	KArray
	KVoid
	KMethod
)

// Descriptor is the parsed type-descriptor tree.
type Descriptor struct {
	Kind Kind

	ClassName string      // KObject: the internal class name, e.g. "java/lang/String"
	Of        *Descriptor // KArray: element descriptor

	Args    []*Descriptor // KMethod
	Returns *Descriptor   // KMethod
}

// IsCategory2 reports whether a non-method descriptor occupies two
// operand-stack / local-variable slots (long and double).
func (d *Descriptor) IsCategory2() bool {
	return d.Kind == KLong || d.Kind == KDouble
}

// Parse parses a field descriptor ("I", "Ljava/lang/String;", "[[D", ...)
// or a method descriptor ("(ID)Ljava/lang/String;").
func Parse(s string) (*Descriptor, error) {
	p := &parser{s: s}
	if len(s) > 0 && s[0] == '(' {
		d, err := p.parseMethod()
		if err != nil {
			return nil, err
		}
		if p.pos != len(p.s) {
			return nil, vmerrors.Malformed("trailing characters after method descriptor")
		}
		return d, nil
	}
	d, err := p.parseField()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.s) {
		return nil, vmerrors.Malformed("trailing characters after field descriptor")
	}
	return d, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.s) {
		return 0, false
	}
	return p.s[p.pos], true
}

func (p *parser) parseMethod() (*Descriptor, error) {
	c, ok := p.peek()
	if !ok || c != '(' {
		return nil, vmerrors.Malformed("method descriptor must start with '('")
	}
	p.pos++
	var args []*Descriptor
	for {
		c, ok := p.peek()
		if !ok {
			return nil, vmerrors.Malformed("unterminated method descriptor argument list")
		}
		if c == ')' {
			p.pos++
			break
		}
		arg, err := p.parseField()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	ret, err := p.parseReturn()
	if err != nil {
		return nil, err
	}
	return &Descriptor{Kind: KMethod, Args: args, Returns: ret}, nil
}

func (p *parser) parseReturn() (*Descriptor, error) {
	c, ok := p.peek()
	if ok && c == 'V' {
		p.pos++
		return &Descriptor{Kind: KVoid}, nil
	}
	return p.parseField()
}

func (p *parser) parseField() (*Descriptor, error) {
	c, ok := p.peek()
	if !ok {
		return nil, vmerrors.Malformed("empty descriptor")
	}
	switch c {
	case 'B':
		p.pos++
		return &Descriptor{Kind: KByte}, nil
	case 'C':
		p.pos++
		return &Descriptor{Kind: KChar}, nil
	case 'D':
		p.pos++
		return &Descriptor{Kind: KDouble}, nil
	case 'F':
		p.pos++
		return &Descriptor{Kind: KFloat}, nil
	case 'I':
		p.pos++
		return &Descriptor{Kind: KInt}, nil
	case 'J':
		p.pos++
		return &Descriptor{Kind: KLong}, nil
	case 'S':
		p.pos++
		return &Descriptor{Kind: KShort}, nil
	case 'Z':
		p.pos++
		return &Descriptor{Kind: KBoolean}, nil
	case 'L':
		p.pos++
		start := p.pos
		for {
			c, ok := p.peek()
			if !ok {
				return nil, vmerrors.Malformed("unterminated object descriptor (missing ';')")
			}
			if c == ';' {
				name := p.s[start:p.pos]
				p.pos++
				return &Descriptor{Kind: KObject, ClassName: name}, nil
			}
			p.pos++
		}
	case '[':
		p.pos++
		of, err := p.parseField()
		if err != nil {
			return nil, err
		}
		return &Descriptor{Kind: KArray, Of: of}, nil
	default:
		return nil, vmerrors.Malformed("unrecognized descriptor character")
	}
}

// String renders the descriptor back to its textual form, used mainly in
// diagnostics.
func (d *Descriptor) String() string {
	switch d.Kind {
	case KByte:
		return "B"
	case KChar:
		return "C"
	case KShort:
		return "S"
	case KInt:
		return "I"
	case KLong:
		return "J"
	case KFloat:
		return "F"
	case KDouble:
		return "D"
	case KBoolean:
		return "Z"
	case KVoid:
		return "V"
	case KObject:
		return "L" + d.ClassName + ";"
	case KArray:
		return "[" + d.Of.String()
	case KMethod:
		s := "("
		for _, a := range d.Args {
			s += a.String()
		}
		s += ")" + d.Returns.String()
		return s
	default:
		return "?"
	}
}
