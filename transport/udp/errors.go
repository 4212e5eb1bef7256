package udp

import (
	"errors"
	"strings"
	"syscall"

	"github.com/momentics/hioload-udp/api"
)

// Operations named by OpError.
const (
	OpSocket      = "socket"
	OpBind        = "bind"
	OpSetsockopt  = "setsockopt"
	OpJoin        = "join"
	OpNonblock    = "nonblock"
	OpGetsockopt  = "getsockopt"
	OpGetsockname = "getsockname"
	OpRecvmmsg    = "recvmmsg"
	OpRecvmsg     = "recvmsg"
	OpSendmmsg    = "sendmmsg"
	OpSendmsg     = "sendmsg"
)

// OpError is a failed socket call. Err is normally a syscall.Errno.
type OpError struct {
	// Op is one of the Op* constants.
	Op string
	// Option is "LEVEL/NAME" for option and membership failures.
	Option string
	// Value is the formatted option value that was rejected.
	Value string
	// Addr is the formatted endpoint involved, if any.
	Addr string
	// FD is the socket descriptor, -1 when the socket was never created.
	FD  int
	Err error
}

func (e *OpError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.Option != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Option)
		if e.Value != "" {
			sb.WriteString("=")
			sb.WriteString(e.Value)
		}
	}
	if e.Addr != "" {
		sb.WriteString("(")
		sb.WriteString(e.Addr)
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *OpError) Unwrap() error { return e.Err }

// Code classifies the failure: init-time calls are resource errors, polling
// calls are I/O errors.
func (e *OpError) Code() api.ErrorCode {
	switch e.Op {
	case OpRecvmmsg, OpRecvmsg, OpSendmmsg, OpSendmsg:
		return api.ErrCodeIO
	default:
		return api.ErrCodeResource
	}
}

// Errno returns the OS error code, 0 when there is none.
func (e *OpError) Errno() syscall.Errno {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno
	}
	return 0
}

// ErrnoOf extracts the OS error code carried anywhere in err's chain.
func ErrnoOf(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}

var _ api.Coded = (*OpError)(nil)
