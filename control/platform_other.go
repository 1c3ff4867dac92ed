//go:build !linux

// control/platform_other.go
// Author: momentics <momentics@gmail.com>
//
// Generic debug introspection points for non-Linux builds.

package control

import (
	"runtime"
)

// RegisterPlatformProbes sets generic debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.os", func() any {
		return runtime.GOOS
	})
}
