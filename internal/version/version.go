// Package version reports the testrules build.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X" by the magefile build.
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String is the one-line version shown by --version. Binaries installed
// with go install carry no ldflags, so their module version is used.
func String() string {
	v := Version
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return fmt.Sprintf("%s (commit %s, built %s)", v, CommitHash, BuildDate)
}
