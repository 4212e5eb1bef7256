// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Platform capability surface shared by datagram transports.

package api

// Capabilities describes which optional OS facilities the transport can use.
// It is resolved once per process; missing facilities degrade to slower paths.
type Capabilities struct {
	// VectorRecv reports recvmmsg(2) availability.
	VectorRecv bool
	// VectorSend reports sendmmsg(2) availability.
	VectorSend bool
	// RecvTimestamps reports kernel receive timestamp delivery (SO_TIMESTAMPNS).
	RecvTimestamps bool
	// OS is runtime.GOOS of the host.
	OS string
}

// Vectorized reports whether both batch directions can use vectorized syscalls.
func (c Capabilities) Vectorized() bool {
	return c.VectorRecv && c.VectorSend
}
