// Package version holds build identity injected via -ldflags.
package version

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns the full build identity for logs and status reporting.
func String() string {
	return Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
