/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package vmerrors implements the error-kind table of spec.md §7: each
// Kind names a category of failure and the policy for whether it's
// surfaced to bytecode as a Throws, reported synchronously to a loader
// caller, or fatal.
//
// Every constructor here wraps the message with github.com/pkg/errors so
// a StackViolation or NativeFailure -- jcvm's own bugs, not the guest
// program's -- carries a stack trace from the point of construction,
// not just the caller's immediate file/line the way the teacher's cfe()
// helper captures with runtime.Caller(1).
package vmerrors

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"

	"jcvm/src/trace"
)

type Kind int

const (
	MalformedClassFile Kind = iota
	LinkageFailure
	TypeMismatch
	DomainError
	StackViolation
	NativeFailure
	ThreadInterrupt
)

func (k Kind) String() string {
	switch k {
	case MalformedClassFile:
		return "MalformedClassFile"
	case LinkageFailure:
		return "LinkageFailure"
	case TypeMismatch:
		return "TypeMismatch"
	case DomainError:
		return "DomainError"
	case StackViolation:
		return "StackViolation"
	case NativeFailure:
		return "NativeFailure"
	case ThreadInterrupt:
		return "ThreadInterrupt"
	default:
		return "Unknown"
	}
}

// Fatal reports whether errors of this kind can never be recovered by
// bytecode-visible exception handling and should abort the process.
func (k Kind) Fatal() bool {
	return k == StackViolation || k == NativeFailure
}

// VMError is the concrete error type every constructor below returns.
type VMError struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *VMError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *VMError) Unwrap() error { return e.cause }

// New builds a VMError of the given kind, capturing a stack trace via
// pkg/errors and logging it at SEVERE (fatal kinds) or WARNING otherwise.
// newAt's skip argument lets cfe-style wrappers report *their* caller's
// file/line instead of vmerrors.New's own, matching the teacher's
// runtime.Caller(1)-from-cfe behavior.
func New(kind Kind, msg string) *VMError {
	return newAt(kind, msg, 2)
}

func newAt(kind Kind, msg string, skip int) *VMError {
	located := msg
	if pc, _, _, ok := runtime.Caller(skip); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			file, line := fn.FileLine(pc)
			located = fmt.Sprintf("%s (at %s:%d)", msg, file, line)
		}
	}
	wrapped := errors.WithStack(errors.New(located))
	if kind.Fatal() {
		trace.Error(wrapped.Error())
	} else {
		trace.Warning(wrapped.Error())
	}
	return &VMError{Kind: kind, Message: located, cause: wrapped}
}

// CFE mirrors the teacher's package-level cfe() helper: a ClassFormatError
// (here modeled as MalformedClassFile) with caller file/line attached.
func CFE(msg string) error { return newAt(MalformedClassFile, msg, 2) }

func Malformed(msg string) error  { return newAt(MalformedClassFile, msg, 2) }
func Linkage(msg string) error    { return newAt(LinkageFailure, msg, 2) }
func TypeErr(msg string) error    { return newAt(TypeMismatch, msg, 2) }
func Domain(msg string) error     { return newAt(DomainError, msg, 2) }
func StackFault(msg string) error { return newAt(StackViolation, msg, 2) }
func NativeFault(msg string) error { return newAt(NativeFailure, msg, 2) }
