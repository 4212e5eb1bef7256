//go:build linux

package udp

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const sizeofTimespec = int(unsafe.Sizeof(unix.Timespec{}))

// controlSpace is the ancillary buffer reserved per batch slot.
var controlSpace = unix.CmsgSpace(sizeofTimespec)

// enableRecvTimestamps turns on SO_TIMESTAMPNS and asks for hardware receive
// stamps. The kernel falls back to software stamps on its own, so any
// successful setup reports TimestampMediaReceive.
func enableRecvTimestamps(fd int) (TimestampFlags, error) {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TIMESTAMPNS, 1); err != nil {
		return TimestampNone, &OpError{Op: OpSetsockopt, Option: "SOL_SOCKET/SO_TIMESTAMPNS", Value: "1", FD: fd, Err: err}
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TIMESTAMPING, unix.SOF_TIMESTAMPING_RX_HARDWARE); err != nil {
		return TimestampNone, &OpError{Op: OpSetsockopt, Option: "SOL_SOCKET/SO_TIMESTAMPING", Value: "SOF_TIMESTAMPING_RX_HARDWARE", FD: fd, Err: err}
	}
	return TimestampMediaReceive, nil
}

// extractTimestamp reads an SCM_TIMESTAMPNS value from the first control
// message in control. Anything else, including a length mismatch, is absent.
func extractTimestamp(control []byte, ts *Timestamp) bool {
	if len(control) < unix.SizeofCmsghdr {
		return false
	}
	h := (*unix.Cmsghdr)(unsafe.Pointer(&control[0]))
	if h.Level != unix.SOL_SOCKET || h.Type != unix.SCM_TIMESTAMPNS {
		return false
	}
	if uint64(h.Len) != uint64(unix.CmsgLen(sizeofTimespec)) {
		return false
	}
	off := unix.CmsgLen(0)
	if len(control) < off+sizeofTimespec {
		return false
	}
	tv := (*unix.Timespec)(unsafe.Pointer(&control[off]))
	ts.Sec = int64(tv.Sec)
	ts.Nsec = int64(tv.Nsec)
	return true
}
