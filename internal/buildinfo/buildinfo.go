// Package buildinfo reports the binary's version from build metadata.
package buildinfo

import "runtime/debug"

// Version returns the module version embedded by the Go toolchain, or
// "devel" for local builds without version stamping.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "devel"
	}
	return info.Main.Version
}
