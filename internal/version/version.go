// Package version holds the build version string, stamped with
//
//	-ldflags "-X github.com/reglet-dev/asmbridge/internal/version.Version=v1.2.3"
package version

// Version is the release this binary was built from.
var Version = "v0.0.0-dev"

// String returns Version, or the development placeholder when the
// stamped value is empty.
func String() string {
	if Version == "" {
		return "v0.0.0-dev"
	}
	return Version
}
