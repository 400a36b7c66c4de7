// Package version carries build metadata for the pylens binary.
package version

// Version information for PyLens
const (
	// Version is the current semantic version
	Version = "0.2.0"

	// BuildDate is set during build time (use -ldflags)
	BuildDate = "development"

	// GitCommit is set during build time (use -ldflags)
	GitCommit = "unknown"
)

// Info returns the bare version string.
func Info() string {
	return Version
}

// FullInfo returns detailed version information.
func FullInfo() string {
	return "PyLens " + Version + " (commit: " + GitCommit + ", built: " + BuildDate + ")"
}
