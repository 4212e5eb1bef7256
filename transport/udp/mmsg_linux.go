//go:build linux

// File: transport/udp/mmsg_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// recvmmsg/sendmmsg strategy and the per-slot recvmsg/sendmsg fallback.

package udp

import (
	"net/netip"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Raw syscalls, replaceable in tests.
var (
	sysRecvmmsg = recvmmsg
	sysSendmmsg = sendmmsg
	sysRecvmsg  = recvmsg
	sysSendmsg  = sendmsg
)

func mmsgSyscall(trap uintptr, fd int, msgvec []mmsghdr, flags int) (int, syscall.Errno) {
	var p unsafe.Pointer
	if len(msgvec) > 0 {
		p = unsafe.Pointer(&msgvec[0])
	}
	r0, _, e1 := unix.Syscall6(trap, uintptr(fd), uintptr(p), uintptr(len(msgvec)), uintptr(flags), 0, 0)
	if e1 != 0 {
		return 0, e1
	}
	return int(r0), 0
}

func recvmmsg(fd int, msgvec []mmsghdr, flags int) (int, syscall.Errno) {
	return mmsgSyscall(unix.SYS_RECVMMSG, fd, msgvec, flags)
}

func sendmmsg(fd int, msgvec []mmsghdr, flags int) (int, syscall.Errno) {
	return mmsgSyscall(unix.SYS_SENDMMSG, fd, msgvec, flags)
}

func recvmsg(fd int, hdr *unix.Msghdr, flags int) (int, syscall.Errno) {
	r0, _, e1 := unix.Syscall(unix.SYS_RECVMSG, uintptr(fd), uintptr(unsafe.Pointer(hdr)), uintptr(flags))
	if e1 != 0 {
		return 0, e1
	}
	return int(r0), 0
}

func sendmsg(fd int, hdr *unix.Msghdr, flags int) (int, syscall.Errno) {
	r0, _, e1 := unix.Syscall(unix.SYS_SENDMSG, uintptr(fd), uintptr(unsafe.Pointer(hdr)), uintptr(flags))
	if e1 != 0 {
		return 0, e1
	}
	return int(r0), 0
}

func transientErrno(errno syscall.Errno) bool {
	return errno == unix.EAGAIN || errno == unix.EWOULDBLOCK || errno == unix.EINTR
}

func selectBatchIO(vector bool) batchIO {
	if vector && DetectCapabilities().Vectorized() {
		return vectorIO{}
	}
	return scalarIO{}
}

// vectorIO moves a whole batch per system call.
type vectorIO struct{}

func (vectorIO) name() string { return "mmsg" }

func (vectorIO) recv(t *ChannelTransport, b *Batch, bytesRcved *int64, fn RecvFunc, clientd any) (int, error) {
	n := b.Cap()
	withControl := t.tsFlags != TimestampNone
	for i := 0; i < n; i++ {
		b.vec.prepareRecv(b, i, withControl)
	}

	r, errno := sysRecvmmsg(t.fd, b.vec.hdrs[:n], unix.MSG_DONTWAIT)
	if errno != 0 {
		if transientErrno(errno) {
			return 0, nil
		}
		return 0, &OpError{Op: OpRecvmmsg, FD: t.fd, Err: errno}
	}

	for i := 0; i < r; i++ {
		ts := b.vec.complete(b, i, int(b.vec.hdrs[i].Len), withControl)
		s := &b.slots[i]
		fn(t.dataPaths, t, clientd, t.dispatchClientd, t.destinationClientd, s.Buf[:s.N], s.Addr, ts)
		addBytes(bytesRcved, s.N)
	}
	return r, nil
}

// send rejects the whole batch before the syscall when any destination does
// not fit the socket's family.
func (vectorIO) send(t *ChannelTransport, b *Batch, n int) (int, error) {
	for i := 0; i < n; i++ {
		if !b.vec.prepareSend(b, i, t.is6) {
			return 0, &OpError{Op: OpSendmmsg, Addr: formatAddrPort(b.slots[i].Addr), FD: t.fd, Err: unix.EAFNOSUPPORT}
		}
	}
	r, errno := sysSendmmsg(t.fd, b.vec.hdrs[:n], unix.MSG_DONTWAIT)
	if errno != 0 {
		if transientErrno(errno) {
			return 0, nil
		}
		return 0, &OpError{Op: OpSendmmsg, FD: t.fd, Err: errno}
	}
	for i := 0; i < r; i++ {
		b.slots[i].Sent = int(b.vec.hdrs[i].Len)
	}
	return r, nil
}

// scalarIO issues one recvmsg/sendmsg per slot. It never delivers receive
// timestamps.
type scalarIO struct{}

func (scalarIO) name() string { return "msg" }

// recv stops at the first would-block; a zero-length datagram is a datagram
// and is dispatched like any other.
func (scalarIO) recv(t *ChannelTransport, b *Batch, bytesRcved *int64, fn RecvFunc, clientd any) (int, error) {
	count := 0
	for i := 0; i < b.Cap(); i++ {
		b.vec.prepareRecv(b, i, false)
		r, errno := sysRecvmsg(t.fd, &b.vec.hdrs[i].Hdr, unix.MSG_DONTWAIT)
		if errno != 0 {
			if transientErrno(errno) {
				break
			}
			return count, &OpError{Op: OpRecvmsg, FD: t.fd, Err: errno}
		}
		b.vec.hdrs[i].Len = uint32(r)
		b.vec.complete(b, i, r, false)
		s := &b.slots[i]
		fn(t.dataPaths, t, clientd, t.dispatchClientd, t.destinationClientd, s.Buf[:s.N], s.Addr, nil)
		addBytes(bytesRcved, r)
		count++
	}
	return count, nil
}

// send stops at the first slot that reports zero bytes sent.
func (scalarIO) send(t *ChannelTransport, b *Batch, n int) (int, error) {
	count := 0
	for i := 0; i < n; i++ {
		if !b.vec.prepareSend(b, i, t.is6) {
			return count, &OpError{Op: OpSendmsg, Addr: formatAddrPort(b.slots[i].Addr), FD: t.fd, Err: unix.EAFNOSUPPORT}
		}
		r, errno := sysSendmsg(t.fd, &b.vec.hdrs[i].Hdr, unix.MSG_DONTWAIT)
		if errno != 0 {
			if !transientErrno(errno) {
				return count, &OpError{Op: OpSendmsg, Addr: formatAddrPort(b.slots[i].Addr), FD: t.fd, Err: errno}
			}
			r = 0
		}
		b.slots[i].Sent = r
		b.vec.hdrs[i].Len = uint32(r)
		if r == 0 {
			break
		}
		count++
	}
	return count, nil
}

// sendScratch is the message header reused by single sends.
type sendScratch struct {
	hdr  unix.Msghdr
	iov  unix.Iovec
	name unix.RawSockaddrAny
}

func sendOne(t *ChannelTransport, p []byte, dst netip.AddrPort) (int, error) {
	sc := &t.one
	namelen, ok := putRawSockaddr(&sc.name, dst, t.is6)
	if !ok {
		return 0, &OpError{Op: OpSendmsg, Addr: formatAddrPort(dst), FD: t.fd, Err: unix.EAFNOSUPPORT}
	}
	setIov(&sc.iov, p)
	sc.hdr.Name = (*byte)(unsafe.Pointer(&sc.name))
	sc.hdr.Namelen = namelen
	sc.hdr.Iov = &sc.iov
	sc.hdr.SetIovlen(1)
	sc.hdr.Control = nil
	sc.hdr.SetControllen(0)
	sc.hdr.Flags = 0

	r, errno := sysSendmsg(t.fd, &sc.hdr, unix.MSG_DONTWAIT)
	if errno != 0 {
		if transientErrno(errno) {
			return 0, nil
		}
		return 0, &OpError{Op: OpSendmsg, Addr: formatAddrPort(dst), FD: t.fd, Err: errno}
	}
	return r, nil
}
