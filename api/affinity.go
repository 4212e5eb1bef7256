// Package api
// Author: momentics@gmail.com
//
// Thread affinity hints for transports driven by a dedicated polling thread.

package api

// Affinity names the driver thread that owns a transport's I/O.
type Affinity int

const (
	AffinitySender Affinity = iota
	AffinityReceiver
	AffinityConductor
)

func (a Affinity) String() string {
	switch a {
	case AffinitySender:
		return "sender"
	case AffinityReceiver:
		return "receiver"
	case AffinityConductor:
		return "conductor"
	default:
		return "unknown"
	}
}

// Pinner locks the calling goroutine to a CPU.
type Pinner interface {
	// Pin locks the current goroutine to its OS thread and binds that thread to cpuID.
	Pin(cpuID int) error
	// Unpin releases the OS thread lock taken by Pin.
	Unpin()
}
