// File: transport/udp/feature_detect.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Advertises the detected datagram I/O capabilities of the host.

package udp

import (
	"runtime"
	"sync"

	"github.com/momentics/hioload-udp/api"
)

var (
	capsOnce sync.Once
	caps     api.Capabilities
)

// DetectCapabilities probes the platform once and returns the cached result.
func DetectCapabilities() api.Capabilities {
	capsOnce.Do(func() {
		caps = detectPlatformCapabilities()
		caps.OS = runtime.GOOS
	})
	return caps
}
