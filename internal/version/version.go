// Package version carries build identification, overridden at link time via
// -ldflags "-X github.com/geostk/teamlucc/internal/version.Version=...".
package version

var (
	// Version is the current toolkit version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
)

// String returns "version (sha)".
func String() string {
	return Version + " (" + GitSHA + ")"
}
