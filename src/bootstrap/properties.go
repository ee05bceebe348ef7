/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package bootstrap

import (
	"os"
	"runtime"
)

// SystemProperties builds the system-property table spec.md's Bootstrap
// row calls for, grounded on jmeggitt/rust_jvm's build_system_properties
// (hooks.rs): the same key set, populated from the host Go runtime
// instead of Rust's std::env/whoami. It is kept as a plain Go map rather
// than a live java/util/Properties instance -- the same interim seam
// src/exceptions and src/invoke/constants.go use for synthetic objects
// -- pending a real java/util/Properties class file landing on the
// classpath. No System.getProperty shim reads this table; the launcher
// adds -D properties to it.
func SystemProperties() map[string]string {
	wd, _ := os.Getwd()
	home, _ := os.UserHomeDir()

	props := map[string]string{
		"java.version":       "17",
		"java.vendor":        "jcvm",
		"java.vendor.url":    "https://jcvm.invalid",
		"java.class.version": "61",
		"java.class.path":    ".",
		"os.name":            runtime.GOOS,
		"os.arch":            runtime.GOARCH,
		"user.dir":           wd,
		"user.home":          home,
		"user.name":          os.Getenv("USER"),
		"file.encoding":      "UTF-8",
	}

	if runtime.GOOS == "windows" {
		props["file.separator"] = "\\"
		props["path.separator"] = ";"
		props["line.separator"] = "\r\n"
	} else {
		props["file.separator"] = "/"
		props["path.separator"] = ":"
		props["line.separator"] = "\n"
	}

	return props
}
