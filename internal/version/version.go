// Package version exposes the build metadata stamped into the productsearch
// binaries via ldflags; a plain go build leaves the defaults in place.
package version

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
