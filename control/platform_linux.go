//go:build linux
// +build linux

// control/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific platform probes.

package control

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/momentics/hioload-udp/api"
)

// RegisterPlatformProbes registers host probes and the datagram capabilities.
func RegisterPlatformProbes(dp *DebugProbes, caps api.Capabilities) {
	registerCapabilityProbes(dp, caps)
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.rmem_max", func() any {
		return readSysctlInt("/proc/sys/net/core/rmem_max")
	})
	dp.RegisterProbe("platform.wmem_max", func() any {
		return readSysctlInt("/proc/sys/net/core/wmem_max")
	})
}

// readSysctlInt returns -1 when the value cannot be read.
func readSysctlInt(path string) int {
	b, err := os.ReadFile(path)
	if err != nil {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return -1
	}
	return n
}
