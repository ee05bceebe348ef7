/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types holds small shared type aliases and sentinel constants used
// across the VM: the JavaByte distinction (Java bytes are signed, Go bytes
// are not), string-pool index sentinels, and the class-descriptor prefix
// strings used when normalizing class references.
package types

// JavaByte is a signed 8-bit value. It's kept distinct from Go's unsigned
// byte because Java byte arithmetic and array storage are sign-extending.
type JavaByte int8

// StringPoolIndexType is the index type used by the stringpool package.
type StringPoolIndexType = uint32

const (
	// InvalidStringIndex marks a stringpool lookup that found nothing.
	InvalidStringIndex StringPoolIndexType = 0xFFFFFFFF

	// ObjectPoolStringIndex is the well-known stringpool index of
	// "java/lang/Object", pre-seeded at pool initialization so the
	// classloader can cheaply test "is this the root class" without a
	// string compare.
	ObjectPoolStringIndex StringPoolIndexType = 0

	// StringPoolStringIndex is the well-known stringpool index of
	// "java/lang/String".
	StringPoolStringIndex StringPoolIndexType = 1
)

// Descriptor prefix strings used when trimming array/reference markers off
// a raw constant-pool class reference.
const (
	RefArray = "[L"
	Array    = "["
)

// ByteArray is the descriptor string of a Java byte[] ("[B"); jcvm's
// byte arrays, like its other arrays, store their elements as
// value.Value slots.
const ByteArray = "[B"

// ClassInitState mirrors the five-state class-initialization machine of
// spec.md §4.8.5. It is stored per-class in the method area.
type ClassInitState byte

const (
	ClassUnloaded ClassInitState = iota
	ClassLoading
	ClassLoaded
	ClassInitializing
	ClassInitialized
)

// ClInit categorizes whether a class carries a <clinit>, and if so whether
// it has executed, independent of the broader ClassInitState machine (a
// class can be Loaded with ClInitNotRun long before anything triggers its
// initialization).
type ClInitState byte

const (
	NoClinit      ClInitState = iota // class has no <clinit> method
	ClInitNotRun                     // has one, hasn't been invoked yet
	ClInitRun                        // has been invoked
)

// ObjectHandle is a stable, pointer-sized identity for a heap object, per
// spec.md §4.7. It lives in this shared package rather than in heap
// itself because both the heap (which mints handles) and the value
// package (whose Reference variant carries one) need the type, and
// heap's object records in turn hold Values -- putting ObjectHandle in
// either of those two packages would create an import cycle.
//
// The handle's numerical value never changes after allocation and
// equality is by address identity, never by the referent's contents.
type ObjectHandle struct {
	addr uintptr
}

// NilHandle is the null reference: IsNil reports true, and dereferencing
// it through heap.Heap is a usage bug, not a recoverable VM condition.
var NilHandle = ObjectHandle{}

func (h ObjectHandle) IsNil() bool { return h.addr == 0 }

// Addr exposes the raw pointer-sized value, used for hashing, identity
// comparison, and handing a reference across the native-bridge FFI
// boundary verbatim as the pointer type a C program expects.
func (h ObjectHandle) Addr() uintptr { return h.addr }

// NewObjectHandle is called only by package heap when minting a handle
// for a freshly allocated record.
func NewObjectHandle(addr uintptr) ObjectHandle { return ObjectHandle{addr: addr} }

// ConvertGoBoolToJavaBool maps a Go bool onto the JVM's int representation
// of boolean (0/1), used whenever a native shim hands back a bool that must
// flow back onto the operand stack as a category-1 int.
func ConvertGoBoolToJavaBool(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
