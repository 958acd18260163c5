// Package version provides build-time version information.
// These variables are set via ldflags at build time.
package version

import "fmt"

var (
	// Version is the semantic version (e.g., "1.0.0")
	Version = "dev"

	// Commit is the git commit SHA
	Commit = "none"

	// Date is the build date in RFC3339 format
	Date = "unknown"
)

// IsDev reports whether this is an unreleased build.
func IsDev() bool {
	return Version == "dev"
}

// Full returns the full version string for display.
func Full() string {
	if IsDev() {
		return "backendcheck version dev (built from source)"
	}
	return fmt.Sprintf("backendcheck version %s (commit %s, built %s)", Version, Commit, Date)
}

// UserAgent returns the user agent string sent with every probe request.
func UserAgent() string {
	return "backendcheck/" + Version
}
