package version

import "runtime/debug"

// Version information set via ldflags during build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var readBuildInfo = debug.ReadBuildInfo

// Short returns the bare version, falling back to the module version
// recorded by `go install` when no ldflags were given
func Short() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := readBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// FullVersion returns a formatted version string
func FullVersion() string {
	v := Short()
	if v == "dev" {
		return "epinger development build"
	}
	if GitCommit == "unknown" {
		return "epinger " + v
	}
	return "epinger " + v + " (commit: " + GitCommit + ", built: " + BuildDate + ")"
}
