// Package version holds build metadata injected with -ldflags.
package version

import "fmt"

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X github.com/zqshi/metricstd/internal/version.Version=v1.2.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return "metricstd " + Version
	}
	return fmt.Sprintf("metricstd %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
