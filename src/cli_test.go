/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// unset all of the JVM environment variables and make sure
// collecting them results in an empty string
func TestGetJVMenvVariablesWhenAbsent(t *testing.T) {
	os.Unsetenv("JAVA_TOOL_OPTIONS")
	os.Unsetenv("_JAVA_OPTIONS")
	os.Unsetenv("JDK_JAVA_OPTIONS")

	assert.Equal(t, "", getEnvArgs())
}

// set two of the JVM environment variables and make sure
// they are fetched correctly and a space is inserted between them
func TestGetJVMenvVariablesWhenTwoArePresent(t *testing.T) {
	os.Unsetenv("JAVA_TOOL_OPTIONS")
	os.Setenv("_JAVA_OPTIONS", "Hello,")
	os.Setenv("JDK_JAVA_OPTIONS", "World!")
	defer os.Unsetenv("_JAVA_OPTIONS")
	defer os.Unsetenv("JDK_JAVA_OPTIONS")

	assert.Equal(t, "Hello, World!", getEnvArgs())
}

// verify the output to stderr when only usage info is requested (i.e., jcvm -help)
func TestHandleUsageMessage(t *testing.T) {
	Global = initGlobals(os.Args[0])
	SetLogLevel(WARNING)
	LoadOptionsTable(Global)

	normalStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	args := []string{"jcvm", "-help"}
	HandleCli(args)

	w.Close()
	os.Stderr = normalStderr
	out, _ := io.ReadAll(r)
	msg := string(out)

	assert.True(t, strings.Contains(msg, "Usage:"))
	assert.True(t, strings.Contains(msg, "where options include"))
	assert.True(t, Global.ExitNow, "'jcvm -help' should have set Global.ExitNow to true to signal end of processing")
}

func TestHandleShowVersionMessage(t *testing.T) {
	Global = initGlobals(os.Args[0])
	SetLogLevel(WARNING)
	LoadOptionsTable(Global)

	normalStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	args := []string{"jcvm", "-showversion"}
	HandleCli(args)

	w.Close()
	os.Stderr = normalStderr
	out, _ := io.ReadAll(r)
	msg := string(out)

	assert.True(t, strings.Contains(msg, "jcvm v."))
}

func TestShowCopyright(t *testing.T) {
	Global = initGlobals(os.Args[0])
	SetLogLevel(WARNING)

	normalStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	showCopyright()

	w.Close()
	os.Stdout = normalStdout
	out, _ := io.ReadAll(r)
	msg := string(out)

	assert.True(t, strings.Contains(msg, "All rights reserved."))
	assert.True(t, strings.Contains(msg, "2021"))
}

func TestRewriteLegacyFlag(t *testing.T) {
	assert.Equal(t, "--classpath", rewriteLegacyFlag("-cp"))
	assert.Equal(t, "--classpath=/lib", rewriteLegacyFlag("-cp=/lib"))
	assert.Equal(t, "--D=os.name=Linux", rewriteLegacyFlag("-Dos.name=Linux"))
	assert.Equal(t, "MyApp", rewriteLegacyFlag("MyApp"))
}
