/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import "math"

// These reinterpret IEEE-754 bit patterns rather than converting
// numerically, matching how a C ABI passes a float/double argument or
// return value through an integer register when called via a generic
// SyscallN-style dispatcher.
func int32FromFloat32(f float32) int32 { return int32(math.Float32bits(f)) }
func float32FromInt32(v int32) float32 { return math.Float32frombits(uint32(v)) }
func int64FromFloat64(f float64) int64 { return int64(math.Float64bits(f)) }
func float64FromInt64(v int64) float64 { return math.Float64frombits(uint64(v)) }
