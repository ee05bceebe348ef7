/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcvm/src/exceptions"
	"jcvm/src/heap"
	"jcvm/src/thread"
	"jcvm/src/types"
)

func TestReportUncaughtWithEmptyStack(t *testing.T) {
	h := heap.New()
	reg := thread.New()
	info := reg.Register(types.NilHandle)

	exc := exceptions.New(h, "java/lang/ArithmeticException", "/ by zero")

	var buf bytes.Buffer
	ReportUncaught(&buf, info, exc)

	out := buf.String()
	require.True(t, strings.Contains(out, "java/lang/ArithmeticException"))
	require.True(t, strings.Contains(out, "/ by zero"))
	assert.True(t, strings.Contains(out, "no further data available"))
}

func TestReportUncaughtWithFrames(t *testing.T) {
	h := heap.New()
	reg := thread.New()
	info := reg.Register(types.NilHandle)
	info.PushFrame("Main", "main", "([Ljava/lang/String;)V")
	info.PushFrame("Helper", "compute", "(I)I")

	exc := exceptions.New(h, "java/lang/NullPointerException", "")

	var buf bytes.Buffer
	ReportUncaught(&buf, info, exc)

	out := buf.String()
	assert.True(t, strings.Contains(out, "Helper.compute(I)I"))
	assert.True(t, strings.Contains(out, "Main.main([Ljava/lang/String;)V"))
	// innermost frame (Helper.compute) must print before the caller (Main.main)
	assert.True(t, strings.Index(out, "Helper.compute") < strings.Index(out, "Main.main"))
}
