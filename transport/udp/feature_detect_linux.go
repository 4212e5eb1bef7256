//go:build linux

package udp

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-udp/api"
)

// detectPlatformCapabilities probes recvmmsg/sendmmsg against an invalid
// descriptor: EBADF means the syscall exists, ENOSYS means it does not.
func detectPlatformCapabilities() api.Capabilities {
	_, rerr := recvmmsg(-1, nil, 0)
	_, serr := sendmmsg(-1, nil, 0)
	return api.Capabilities{
		VectorRecv:     rerr != unix.ENOSYS,
		VectorSend:     serr != unix.ENOSYS,
		RecvTimestamps: true,
	}
}
