//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

// File: transport/udp/socket_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Placeholder for platforms without a POSIX socket backend.

package udp

import (
	"net/netip"

	"github.com/momentics/hioload-udp/api"
)

type batchVec struct{}

func (v *batchVec) init(int) {}

type sendScratch struct{}

func openSocket(Config) (int, TimestampFlags, error) {
	return unboundFD, TimestampNone, api.ErrNotSupported
}

func closeSocket(int) {}

func getRcvBuf(int) (int, error) { return 0, api.ErrNotSupported }

func localAddrPort(int) (netip.AddrPort, error) { return netip.AddrPort{}, api.ErrNotSupported }

func selectBatchIO(bool) batchIO { return unsupportedIO{} }

type unsupportedIO struct{}

func (unsupportedIO) name() string { return "none" }

func (unsupportedIO) recv(*ChannelTransport, *Batch, *int64, RecvFunc, any) (int, error) {
	return 0, api.ErrNotSupported
}

func (unsupportedIO) send(*ChannelTransport, *Batch, int) (int, error) {
	return 0, api.ErrNotSupported
}

func sendOne(*ChannelTransport, []byte, netip.AddrPort) (int, error) {
	return 0, api.ErrNotSupported
}
