// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for pinning a transport's polling thread. Platform
// implementations live in build-tagged files.

package affinity

import (
	"runtime"

	"github.com/momentics/hioload-udp/api"
)

// SetAffinity binds the current OS thread to a logical CPU on supported
// platforms. The caller must hold runtime.LockOSThread for this to stick.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}

// ThreadPinner implements api.Pinner with LockOSThread plus SetAffinity.
type ThreadPinner struct{}

// Pin locks the goroutine to its thread and binds it to cpuID. On error the
// thread lock is released again.
func (ThreadPinner) Pin(cpuID int) error {
	runtime.LockOSThread()
	if err := SetAffinity(cpuID); err != nil {
		runtime.UnlockOSThread()
		return err
	}
	return nil
}

// Unpin releases the thread lock taken by Pin.
func (ThreadPinner) Unpin() {
	runtime.UnlockOSThread()
}

var _ api.Pinner = ThreadPinner{}
