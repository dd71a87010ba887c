// Package version carries the version stamp of the coxswain binaries.
package version

var (
	// VERSION is the semantic version of this build. It is overridden at
	// build time with -X github.com/coxswain-dev/coxswain/pkg/version.VERSION.
	VERSION = "UNKNOWN"
)
