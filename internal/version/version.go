package version

import "fmt"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	// It is also the version reported to the update host unless the config overrides it.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// userAgentFormat identifies this client to the update host.
const userAgentFormat = "release-channels/%s"

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}

// UserAgent returns the User-Agent header sent with update requests.
func UserAgent() string {
	return fmt.Sprintf(userAgentFormat, Version)
}
