/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jcvm/src/heap"
	"jcvm/src/types"
)

func TestByteArrayRoundTripsThroughGoString(t *testing.T) {
	h := heap.New()
	handle := JavaByteArrayFromGoString(h, "Hello, Unka Andoo !")
	assert.Equal(t, "Hello, Unka Andoo !", GoStringFromJavaByteArray(handle))
}

func TestByteArrayRoundTripsThroughGoBytes(t *testing.T) {
	h := heap.New()
	want := []byte{0x00, 0x61, 0xff, 0x10}
	handle := JavaByteArrayFromGoByteArray(h, want)
	assert.Equal(t, want, GoByteArrayFromJavaByteArray(handle))
}

func TestJavaByteArrayEquals(t *testing.T) {
	h := heap.New()
	a := JavaByteArrayFromGoString(h, "same")
	b := JavaByteArrayFromGoString(h, "same")
	c := JavaByteArrayFromGoString(h, "diff")

	assert.True(t, JavaByteArrayEquals(a, b))
	assert.False(t, JavaByteArrayEquals(a, c))
	assert.True(t, JavaByteArrayEquals(types.NilHandle, types.NilHandle))
	assert.False(t, JavaByteArrayEquals(types.NilHandle, a))
}

func TestJavaByteArrayEqualsIgnoreCase(t *testing.T) {
	h := heap.New()
	a := JavaByteArrayFromGoString(h, "Hello")
	b := JavaByteArrayFromGoString(h, "hello")
	c := JavaByteArrayFromGoString(h, "world")

	assert.True(t, JavaByteArrayEqualsIgnoreCase(a, b))
	assert.False(t, JavaByteArrayEqualsIgnoreCase(a, c))
}
