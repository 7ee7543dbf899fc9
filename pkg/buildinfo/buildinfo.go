// Package buildinfo exposes the version identity stamped into the binary.
package buildinfo

import "runtime/debug"

// Set at build time via -ldflags; BinaryVersion defaults to "dev" for
// local builds.
var (
	BinaryVersion = "dev"
	BuildCommit   = ""
)

// ModuleVersion reports the module version the Go toolchain embedded, or
// "(unknown)" when build info is unavailable.
func ModuleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "(unknown)"
	}
	return info.Main.Version
}

// Commit reports the stamped commit hash, falling back to the VCS revision
// recorded by the toolchain.
func Commit() string {
	if BuildCommit != "" {
		return BuildCommit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return ""
}
