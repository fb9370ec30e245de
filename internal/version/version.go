// Package version carries build metadata for trackview, set at link time:
//
//	go build -ldflags "-X github.com/AngelP17/HARPY-sub000/internal/version.Version=v0.3.0" ./cmd/trackview
package version

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the RFC 3339 build timestamp.
	BuildTime = "unknown"
)
