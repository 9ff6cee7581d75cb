// Package version holds the build metadata of the docsite binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/docsite/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the one-line version shown by --version. Without ldflags the
// module version recorded by the Go toolchain is used when there is one.
func String() string {
	v := Version
	if v == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
	}
	return fmt.Sprintf("docsite %s (commit %s, built %s)", v, GitCommit, BuildTime)
}
