//go:build !linux
// +build !linux

// control/platform_other.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"runtime"

	"github.com/momentics/hioload-udp/api"
)

// RegisterPlatformProbes registers host probes and the datagram capabilities.
func RegisterPlatformProbes(dp *DebugProbes, caps api.Capabilities) {
	registerCapabilityProbes(dp, caps)
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
}
