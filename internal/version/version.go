// Package version holds build metadata injected with ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/campus/internal/version.Version=v1.2.0"
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the release version of the campus binary.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by `campus --version`.
func String() string {
	v, commit := Version, GitCommit
	if v == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	if commit == "unknown" {
		return fmt.Sprintf("campus %s", v)
	}
	return fmt.Sprintf("campus %s (commit %s, built %s)", v, commit, BuildTime)
}
