// Package version holds the crcoach build version.
package version

// Version is the build version, set via ldflags at build time and printed by
// crcoach --version.
var Version = "v0.0.0-dev" //nolint:gochecknoglobals // Set by ldflags at build time.
