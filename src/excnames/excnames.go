/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package excnames enumerates the JVM exception and error classes jcvm
// itself can raise (as opposed to ones user bytecode throws explicitly).
// Kept as a flat int-keyed table, mirroring the teacher's excNames
// package, so exceptions.Of and the interpreter's DomainError sites
// can name an exception without spelling out its fully qualified class
// name at every call site.
package excnames

type ExceptionType int

const (
	Unknown ExceptionType = iota
	ArithmeticException
	ArrayIndexOutOfBoundsException
	ArrayStoreException
	ClassCastException
	ClassFormatError
	ClassNotFoundException
	ClassNotLoadedException
	IllegalArgumentException
	IllegalMonitorStateException
	IllegalStateException
	IndexOutOfBoundsException
	InvalidTypeException // internal: a gfunction got a Go type it didn't expect
	LinkageError
	NegativeArraySizeException
	NoSuchFieldError
	NoSuchMethodError
	NullPointerException
	NumberFormatException
	OutOfMemoryError
	StackOverflowError
	UnsatisfiedLinkError // native symbol lookup failure (§4.10.2)
	UnsupportedOperationException
	VerifyError
)

// JVMClassNames maps each ExceptionType to the fully qualified class name
// bytecode expects to see when it catches it.
var JVMClassNames = map[ExceptionType]string{
	ArithmeticException:            "java/lang/ArithmeticException",
	ArrayIndexOutOfBoundsException: "java/lang/ArrayIndexOutOfBoundsException",
	ArrayStoreException:            "java/lang/ArrayStoreException",
	ClassCastException:             "java/lang/ClassCastException",
	ClassFormatError:               "java/lang/ClassFormatError",
	ClassNotFoundException:         "java/lang/ClassNotFoundException",
	ClassNotLoadedException:        "java/lang/ClassNotFoundException",
	IllegalArgumentException:       "java/lang/IllegalArgumentException",
	IllegalMonitorStateException:   "java/lang/IllegalMonitorStateException",
	IllegalStateException:          "java/lang/IllegalStateException",
	IndexOutOfBoundsException:      "java/lang/IndexOutOfBoundsException",
	InvalidTypeException:           "java/lang/InternalError",
	LinkageError:                   "java/lang/LinkageError",
	NegativeArraySizeException:     "java/lang/NegativeArraySizeException",
	NoSuchFieldError:               "java/lang/NoSuchFieldError",
	NoSuchMethodError:              "java/lang/NoSuchMethodError",
	NullPointerException:           "java/lang/NullPointerException",
	NumberFormatException:          "java/lang/NumberFormatException",
	OutOfMemoryError:               "java/lang/OutOfMemoryError",
	StackOverflowError:             "java/lang/StackOverflowError",
	UnsatisfiedLinkError:           "java/lang/UnsatisfiedLinkError",
	UnsupportedOperationException:  "java/lang/UnsupportedOperationException",
	VerifyError:                    "java/lang/VerifyError",
}

// Name returns the JVM class name for t, or "java/lang/Error" if t is
// unrecognized.
func Name(t ExceptionType) string {
	if n, ok := JVMClassNames[t]; ok {
		return n
	}
	return "java/lang/Error"
}
