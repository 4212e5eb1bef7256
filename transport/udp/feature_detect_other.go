//go:build !linux

package udp

import "github.com/momentics/hioload-udp/api"

func detectPlatformCapabilities() api.Capabilities {
	return api.Capabilities{}
}
