//go:build darwin || freebsd || netbsd || openbsd

// File: transport/udp/msg_bsd.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-slot recvmsg/sendmsg strategy for platforms without mmsg syscalls.

package udp

import (
	"net/netip"

	"golang.org/x/sys/unix"
)

type batchVec struct{}

func (v *batchVec) init(int) {}

type sendScratch struct{}

func selectBatchIO(bool) batchIO { return scalarIO{} }

type scalarIO struct{}

func (scalarIO) name() string { return "msg" }

// recv stops at the first would-block; a zero-length datagram is dispatched.
func (scalarIO) recv(t *ChannelTransport, b *Batch, bytesRcved *int64, fn RecvFunc, clientd any) (int, error) {
	count := 0
	for i := 0; i < b.Cap(); i++ {
		s := &b.slots[i]
		n, _, _, from, err := unix.Recvmsg(t.fd, s.Buf, nil, unix.MSG_DONTWAIT)
		if err != nil {
			if isTransient(err) {
				break
			}
			return count, &OpError{Op: OpRecvmsg, FD: t.fd, Err: err}
		}
		s.N = n
		s.Addr = sockaddrToAddrPort(from)
		s.hasTS = false
		fn(t.dataPaths, t, clientd, t.dispatchClientd, t.destinationClientd, s.Buf[:n], s.Addr, nil)
		addBytes(bytesRcved, n)
		count++
	}
	return count, nil
}

func (scalarIO) send(t *ChannelTransport, b *Batch, n int) (int, error) {
	count := 0
	for i := 0; i < n; i++ {
		s := &b.slots[i]
		r, err := sendTo(t, s.Buf[:s.N], s.Addr)
		if err != nil {
			return count, err
		}
		s.Sent = r
		if r == 0 {
			break
		}
		count++
	}
	return count, nil
}

func sendOne(t *ChannelTransport, p []byte, dst netip.AddrPort) (int, error) {
	return sendTo(t, p, dst)
}

func sendTo(t *ChannelTransport, p []byte, dst netip.AddrPort) (int, error) {
	sa, err := toSockaddr(dst, t.is6)
	if err != nil {
		return 0, &OpError{Op: OpSendmsg, Addr: formatAddrPort(dst), FD: t.fd, Err: unix.EAFNOSUPPORT}
	}
	r, err := unix.SendmsgN(t.fd, p, nil, sa, unix.MSG_DONTWAIT)
	if err != nil {
		if isTransient(err) {
			return 0, nil
		}
		return 0, &OpError{Op: OpSendmsg, Addr: formatAddrPort(dst), FD: t.fd, Err: err}
	}
	return r, nil
}
