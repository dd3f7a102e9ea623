package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	// Version will be set via ldflags during build.
	Version = "dev"
	// Commit will be set via ldflags during build.
	Commit = "none"
	// Date will be set via ldflags during build.
	Date = "unknown"
)

// String is the long version line shown by --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

// UserAgent identifies tally to the API.
func UserAgent() string {
	return fmt.Sprintf("tally/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
