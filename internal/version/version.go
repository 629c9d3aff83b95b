// Package version exposes build metadata for startup logging.
package version

// Overridden at build time:
//
//	go build -ldflags "-X .../internal/version.Version=v1.2.0 ..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
