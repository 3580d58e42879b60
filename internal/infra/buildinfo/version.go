package buildinfo

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time.
var (
	// Version is the semantic version.
	Version = "dev"

	// Commit is the git commit hash.
	Commit = "unknown"

	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Info is the build metadata reported by the status endpoint and the
// version commands.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the build information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String formats the build information on one line.
func String() string {
	return fmt.Sprintf("%s (%s) built at %s with %s", Version, Commit, BuildTime, runtime.Version())
}
