//go:build linux

package udp

import (
	"net/netip"
	"strconv"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmsghdr mirrors struct mmsghdr; trailing padding comes from Go alignment.
type mmsghdr struct {
	Hdr unix.Msghdr
	Len uint32
}

// batchVec holds the OS message vector behind a Batch.
type batchVec struct {
	hdrs  []mmsghdr
	iovs  []unix.Iovec
	names []unix.RawSockaddrAny
	ctrl  []byte
}

func (v *batchVec) init(n int) {
	v.hdrs = make([]mmsghdr, n)
	v.iovs = make([]unix.Iovec, n)
	v.names = make([]unix.RawSockaddrAny, n)
	v.ctrl = alignedControl(n * controlSpace)
	for i := range v.hdrs {
		h := &v.hdrs[i].Hdr
		h.Name = (*byte)(unsafe.Pointer(&v.names[i]))
		h.Iov = &v.iovs[i]
		h.SetIovlen(1)
	}
}

// alignedControl returns a buffer aligned for struct cmsghdr.
func alignedControl(size int) []byte {
	if size == 0 {
		return nil
	}
	words := make([]uint64, (size+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
}

func (v *batchVec) control(i int) []byte {
	return v.ctrl[i*controlSpace : (i+1)*controlSpace]
}

func (v *batchVec) prepareRecv(b *Batch, i int, withControl bool) {
	setIov(&v.iovs[i], b.slots[i].Buf)
	h := &v.hdrs[i]
	h.Hdr.Namelen = unix.SizeofSockaddrAny
	if withControl {
		c := v.control(i)
		h.Hdr.Control = &c[0]
		h.Hdr.SetControllen(len(c))
	} else {
		h.Hdr.Control = nil
		h.Hdr.SetControllen(0)
	}
	h.Hdr.Flags = 0
	h.Len = 0
}

// prepareSend reports false when slot i's destination cannot be encoded
// for the socket's family.
func (v *batchVec) prepareSend(b *Batch, i int, is6 bool) bool {
	s := &b.slots[i]
	h := &v.hdrs[i]
	namelen, ok := putRawSockaddr(&v.names[i], s.Addr, is6)
	if !ok {
		return false
	}
	setIov(&v.iovs[i], s.Buf[:s.N])
	h.Hdr.Namelen = namelen
	h.Hdr.Control = nil
	h.Hdr.SetControllen(0)
	h.Hdr.Flags = 0
	h.Len = 0
	return true
}

// complete fills slot i from a received message header.
func (v *batchVec) complete(b *Batch, i int, n int, withControl bool) *Timestamp {
	s := &b.slots[i]
	s.N = n
	s.Addr = rawToAddrPort(&v.names[i])
	s.hasTS = false
	if withControl {
		h := &v.hdrs[i].Hdr
		if cl := int(h.Controllen); cl > 0 && extractTimestamp(v.control(i)[:cl], &s.ts) {
			s.hasTS = true
			return &s.ts
		}
	}
	return nil
}

func setIov(iov *unix.Iovec, p []byte) {
	if len(p) == 0 {
		iov.Base = nil
		iov.SetLen(0)
		return
	}
	iov.Base = &p[0]
	iov.SetLen(len(p))
}

// putRawSockaddr encodes ap in place and returns the sockaddr length. It
// reports false, leaving rsa untouched, when ap is not a valid destination
// for a socket of the given family.
func putRawSockaddr(rsa *unix.RawSockaddrAny, ap netip.AddrPort, is6 bool) (uint32, bool) {
	if !ap.IsValid() {
		return 0, false
	}
	port := ap.Port()
	if !is6 {
		addr := ap.Addr().Unmap()
		if !addr.Is4() {
			return 0, false
		}
		sa := (*unix.RawSockaddrInet4)(unsafe.Pointer(rsa))
		sa.Family = unix.AF_INET
		p := (*[2]byte)(unsafe.Pointer(&sa.Port))
		p[0], p[1] = byte(port>>8), byte(port)
		sa.Addr = addr.As4()
		sa.Zero = [8]uint8{}
		return unix.SizeofSockaddrInet4, true
	}
	sa := (*unix.RawSockaddrInet6)(unsafe.Pointer(rsa))
	sa.Family = unix.AF_INET6
	p := (*[2]byte)(unsafe.Pointer(&sa.Port))
	p[0], p[1] = byte(port>>8), byte(port)
	sa.Flowinfo = 0
	sa.Addr = ap.Addr().As16()
	sa.Scope_id = 0
	if zone := ap.Addr().Zone(); zone != "" {
		sa.Scope_id = zoneIndex(zone)
	}
	return unix.SizeofSockaddrInet6, true
}

// rawToAddrPort decodes a received sockaddr. A non-zero IPv6 scope id is
// kept as a numeric zone; only that case allocates.
func rawToAddrPort(rsa *unix.RawSockaddrAny) netip.AddrPort {
	switch rsa.Addr.Family {
	case unix.AF_INET:
		sa := (*unix.RawSockaddrInet4)(unsafe.Pointer(rsa))
		p := (*[2]byte)(unsafe.Pointer(&sa.Port))
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(p[0])<<8|uint16(p[1]))
	case unix.AF_INET6:
		sa := (*unix.RawSockaddrInet6)(unsafe.Pointer(rsa))
		p := (*[2]byte)(unsafe.Pointer(&sa.Port))
		addr := netip.AddrFrom16(sa.Addr)
		if addr.Is4In6() {
			addr = addr.Unmap()
		} else if sa.Scope_id != 0 {
			addr = addr.WithZone(strconv.FormatUint(uint64(sa.Scope_id), 10))
		}
		return netip.AddrPortFrom(addr, uint16(p[0])<<8|uint16(p[1]))
	}
	return netip.AddrPort{}
}
