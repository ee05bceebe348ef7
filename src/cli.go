/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jcvm/src/globals"
	"jcvm/src/trace"
)

const jcvmVersion = "0.1.0"

// rootCmd is the single command jcvm registers -- no subcommand tree,
// since the real java launcher isn't one either. LoadOptionsTable fills
// in its flag set; HandleCli drives it from a raw argv slice the way
// the teacher's own HandleCli(args []string) did.
var rootCmd = &cobra.Command{
	Use:           "jcvm [options] class [args...]",
	Short:         "jcvm -- a JVM class-file interpreter",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// rootVip binds rootCmd's flags to viper. It lives here rather than on
// globals.Globals, which is dependency-free by design.
var rootVip *viper.Viper

// LoadOptionsTable wires rootCmd's flags and binds them through
// rootVip: the cobra+viper counterpart of the teacher's hand-rolled
// option table, one flag per legacy java-launcher option, with viper
// giving explicit-flag > env var > default precedence for free.
func LoadOptionsTable(g *globals.Globals) *cobra.Command {
	rootCmd.ResetFlags()
	flags := rootCmd.Flags()
	flags.Bool("help", false, "print usage information")
	flags.Bool("showversion", false, "print version information and continue")
	flags.String("classpath", "", "application classpath")
	flags.StringArray("D", nil, "set a system property, -Dname=value")
	flags.Bool("verbose", false, "trace-level logging")

	rootVip = viper.New()
	_ = rootVip.BindPFlags(flags)
	rootVip.SetEnvPrefix("jcvm")
	rootVip.AutomaticEnv()

	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		runApplication(g, args)
	}
	return rootCmd
}

// getEnvArgs collects the legacy JVM-launcher environment variables,
// JAVA_TOOL_OPTIONS first (the real launcher's lowest-precedence slot)
// through JDK_JAVA_OPTIONS, space-joined -- the same three variables
// and join behavior the teacher's own getEnvArgs exposed.
func getEnvArgs() string {
	var parts []string
	for _, name := range []string{"JAVA_TOOL_OPTIONS", "_JAVA_OPTIONS", "JDK_JAVA_OPTIONS"} {
		if v := os.Getenv(name); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// HandleCli is the CLI's single entry point. args is a raw argv slice
// including the program name at index 0, matching the teacher's own
// HandleCli(args []string) signature so the adapted cli_test.go can
// call it the same way. It recognizes -help/-showversion directly
// (the real java launcher's single-dash spelling, which pflag's
// double-dash parser doesn't accept) before handing the remainder to
// rootCmd for everything else.
func HandleCli(args []string) {
	if len(args) > 0 {
		args = args[1:]
	}

	if containsAny(args, "-help", "--help", "-h") {
		showUsage()
		Global.ExitNow = true
		return
	}
	if containsAny(args, "-showversion", "--showversion") {
		showVersion()
	}

	rewritten := make([]string, 0, len(args))
	for _, a := range args {
		rewritten = append(rewritten, rewriteLegacyFlag(a))
	}

	rootCmd.SetOut(os.Stderr)
	rootCmd.SetErr(os.Stderr)
	rootCmd.SetArgs(rewritten)

	if err := rootCmd.Execute(); err != nil {
		trace.Error(err.Error())
	}
}

func containsAny(args []string, candidates ...string) bool {
	for _, a := range args {
		for _, c := range candidates {
			if a == c {
				return true
			}
		}
	}
	return false
}

// rewriteLegacyFlag translates one argv token from the real java
// launcher's single-dash spelling (-cp, -Dname=value) into pflag's
// double-dash form; anything else passes through untouched (positional
// args -- the main class name and its own arguments -- must never be
// rewritten).
func rewriteLegacyFlag(a string) string {
	switch {
	case strings.HasPrefix(a, "-D") && len(a) > 2:
		return "--D=" + a[2:]
	case a == "-cp":
		return "--classpath"
	case strings.HasPrefix(a, "-cp="):
		return "--classpath=" + a[4:]
	default:
		return a
	}
}

func showUsage() {
	fmt.Fprintln(os.Stderr, "Usage: jcvm [options] class [args...]")
	fmt.Fprintln(os.Stderr, "where options include:")
	fmt.Fprintln(os.Stderr, "    -cp <path>          application classpath")
	fmt.Fprintln(os.Stderr, "    -Dname=value        set a system property")
	fmt.Fprintln(os.Stderr, "    -showversion        print version information and continue")
	fmt.Fprintln(os.Stderr, "    -help               print this message")
}

func showVersion() {
	fmt.Fprintf(os.Stderr, "jcvm v.%s\n", jcvmVersion)
}

func showCopyright() {
	fmt.Fprintln(os.Stdout, "jcvm -- a JVM class-file interpreter")
	fmt.Fprintln(os.Stdout, "Copyright (c) 2021-2026 by the jcvm authors. All rights reserved.")
}
