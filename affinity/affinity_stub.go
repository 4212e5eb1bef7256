//go:build !linux
// +build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>

package affinity

import "github.com/momentics/hioload-udp/api"

func setAffinityPlatform(cpuID int) error {
	return api.ErrNotSupported
}

// CurrentCPUs is not available on this platform.
func CurrentCPUs() ([]int, error) {
	return nil, api.ErrNotSupported
}
