/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package interp implements spec.md §4.8: the decoded-instruction
// dispatch loop, operand-stack/local-variable frame manipulation,
// numeric semantics, exception-table unwinding, and the class
// initialization trigger. Method invocation itself (virtual dispatch,
// native delegation) is deliberately kept out of this package and
// reached through the Runtime interface below, since the Invoker
// (package invoke) must in turn call back into this package's Run to
// execute a callee's bytecode -- defining the seam here instead of
// importing package invoke directly is what keeps that mutual recursion
// from becoming an import cycle.
package interp

import (
	"jcvm/src/types"
	"jcvm/src/value"
)

// FlowKind tags a FlowControl result, per spec.md §4.8.2.
type FlowKind int

const (
	FlowNext FlowKind = iota // not a spec.md variant; internal "continue dispatch" sentinel
	FlowBranch
	FlowReturn
	FlowThrows
	FlowThreadInterrupt
)

// FlowControl is the per-instruction exec() result of spec.md §4.8.2.
type FlowControl struct {
	Kind FlowKind

	BranchOffset int // FlowBranch: signed offset in bytes from the current instruction

	HasReturnValue bool // FlowReturn
	ReturnValue    value.Value

	ExceptionHandle types.ObjectHandle // FlowThrows; may be the nil handle for an unspecified throw
}

func Next() FlowControl { return FlowControl{Kind: FlowNext} }

func Branch(offset int) FlowControl {
	return FlowControl{Kind: FlowBranch, BranchOffset: offset}
}

func ReturnVoid() FlowControl { return FlowControl{Kind: FlowReturn} }

func ReturnValue(v value.Value) FlowControl {
	return FlowControl{Kind: FlowReturn, HasReturnValue: true, ReturnValue: v}
}

func Throws(handle types.ObjectHandle) FlowControl {
	return FlowControl{Kind: FlowThrows, ExceptionHandle: handle}
}

func ThreadInterrupt() FlowControl { return FlowControl{Kind: FlowThreadInterrupt} }
