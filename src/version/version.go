/*
Package version provides version information and utilities.
*/
package version

import (
	"fmt"
	"io"
	"runtime"
)

// Version stores the current version of sonicd. It is set during building
// with -ldflags "-X github.com/sonicd/sonicd/src/version.Version=...".
var Version = "dev-unreleased"

// Name is the server name reported to clients.
const Name = "sonicd"

// Print writes a plain text version information in out.
func Print(out io.Writer) {
	fmt.Fprintf(out, "%s music server %s\n", Name, Version)
	fmt.Fprintf(out, "Build with %s\n", runtime.Version())
}
