// Package buildinfo carries build identification stamped in via ldflags.
package buildinfo

var (
	// Version is the release version, set via ldflags.
	Version = "dev"
	// Commit is the git commit hash, set via ldflags.
	Commit = "none"
	// Date is the build timestamp, set via ldflags.
	Date = "unknown"
)
