// Package version holds the ams-compose build identity reported by
// `ams-compose --version` and embedded in generated SBOMs as the tool
// component's version.
package version

import "fmt"

// Version information - injected by GoReleaser via ldflags during builds.
// Default values are used for development builds (go run, go build).
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// GetVersion returns the version string: "dev" for development builds, or
// the released tag (e.g. "v0.1.0-beta.1").
func GetVersion() string {
	if Version == "dev" {
		return "dev"
	}
	return Version
}

// GetFullVersion returns the version plus build provenance, e.g.
// "v0.1.0-beta.1 (commit: abc123, built: 2024-12-27T10:30:00Z)" — this is
// what `ams-compose version` prints; the SBOM's tool component records
// GetVersion alone.
func GetFullVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
