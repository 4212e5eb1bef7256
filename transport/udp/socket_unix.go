//go:build linux || darwin || freebsd || netbsd || openbsd

// File: transport/udp/socket_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket creation and configuration on POSIX platforms.

package udp

import (
	"errors"
	"net"
	"net/netip"
	"strconv"

	"golang.org/x/sys/unix"
)

// openSocket builds a bound, non-blocking datagram socket. Any failure closes
// the partially configured socket before returning.
func openSocket(cfg Config) (fd int, flags TimestampFlags, err error) {
	family := unix.AF_INET
	if cfg.Bind.Is6() {
		family = unix.AF_INET6
	}
	fd, err = unix.Socket(family, unix.SOCK_DGRAM, 0)
	if err != nil {
		return unboundFD, TimestampNone, &OpError{Op: OpSocket, Addr: cfg.Bind.String(), FD: unboundFD, Err: err}
	}
	unix.CloseOnExec(fd)
	defer func() {
		if err != nil {
			_ = unix.Close(fd)
			fd = unboundFD
			flags = TimestampNone
		}
	}()

	if cfg.Bind.IsMulticast() {
		err = bindMulticast(fd, cfg)
	} else {
		err = bindUnicast(fd, cfg.Bind)
	}
	if err != nil {
		return
	}

	if err = setBufferSizes(fd, cfg.RcvBuf, cfg.SndBuf); err != nil {
		return
	}

	if cfg.MediaTimestamps {
		if flags, err = enableRecvTimestamps(fd); err != nil {
			return
		}
	}

	if err = unix.SetNonblock(fd, true); err != nil {
		err = &OpError{Op: OpNonblock, FD: fd, Err: err}
		return
	}
	return fd, flags, nil
}

func bindUnicast(fd int, b BindAddress) error {
	sa, err := toSockaddr(b.AddrPort(), b.Is6())
	if err != nil {
		return err
	}
	if err := unix.Bind(fd, sa); err != nil {
		return &OpError{Op: OpBind, Option: "unicast", Addr: b.String(), FD: fd, Err: err}
	}
	return nil
}

func bindMulticast(fd int, cfg Config) error {
	enableReuse(fd)

	b := cfg.Bind
	sa, err := toSockaddr(b.Wildcard(), b.Is6())
	if err != nil {
		return err
	}
	if err := unix.Bind(fd, sa); err != nil {
		kind := "multicast IPv4"
		if b.Is6() {
			kind = "multicast IPv6"
		}
		return &OpError{Op: OpBind, Option: kind, Addr: b.String(), FD: fd, Err: err}
	}

	if b.Is6() {
		return joinIPv6(fd, b, cfg.MulticastIfIndex, cfg.TTL)
	}
	return joinIPv4(fd, b, cfg.MulticastInterface, cfg.TTL)
}

// enableReuse is best effort: platforms or kernels without the options still
// get a working, if exclusive, endpoint.
func enableReuse(fd int) {
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}

func joinIPv6(fd int, b BindAddress, ifIndex uint32, ttl uint8) error {
	mreq := &unix.IPv6Mreq{Multiaddr: b.Addr().As16(), Interface: ifIndex}
	if err := unix.SetsockoptIPv6Mreq(fd, unix.IPPROTO_IPV6, unix.IPV6_JOIN_GROUP, mreq); err != nil {
		return &OpError{
			Op:     OpJoin,
			Option: "IPPROTO_IPV6/IPV6_JOIN_GROUP",
			Value:  "ipv6_mreq{multiaddr=" + b.Addr().String() + ", interface=" + strconv.FormatUint(uint64(ifIndex), 10) + "}",
			FD:     fd,
			Err:    err,
		}
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_MULTICAST_IF, int(ifIndex)); err != nil {
		return &OpError{Op: OpSetsockopt, Option: "IPPROTO_IPV6/IPV6_MULTICAST_IF", Value: strconv.FormatUint(uint64(ifIndex), 10), FD: fd, Err: err}
	}
	if ttl > 0 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_MULTICAST_HOPS, int(ttl)); err != nil {
			return &OpError{Op: OpSetsockopt, Option: "IPPROTO_IPV6/IPV6_MULTICAST_HOPS", Value: strconv.Itoa(int(ttl)), FD: fd, Err: err}
		}
	}
	return nil
}

func joinIPv4(fd int, b BindAddress, ifAddr netip.Addr, ttl uint8) error {
	var iface [4]byte
	if ifAddr.IsValid() {
		ifAddr = ifAddr.Unmap()
		if !ifAddr.Is4() {
			return &OpError{Op: OpJoin, Option: "IPPROTO_IP/IP_ADD_MEMBERSHIP", Value: "interface=" + ifAddr.String(), FD: fd, Err: unix.EINVAL}
		}
		iface = ifAddr.As4()
	}
	ifStr := netip.AddrFrom4(iface).String()

	mreq := &unix.IPMreq{Multiaddr: b.Addr().As4(), Interface: iface}
	if err := unix.SetsockoptIPMreq(fd, unix.IPPROTO_IP, unix.IP_ADD_MEMBERSHIP, mreq); err != nil {
		return &OpError{
			Op:     OpJoin,
			Option: "IPPROTO_IP/IP_ADD_MEMBERSHIP",
			Value:  "ip_mreq{multiaddr=" + b.Addr().String() + ", interface=" + ifStr + "}",
			FD:     fd,
			Err:    err,
		}
	}
	if err := unix.SetsockoptInet4Addr(fd, unix.IPPROTO_IP, unix.IP_MULTICAST_IF, iface); err != nil {
		return &OpError{Op: OpSetsockopt, Option: "IPPROTO_IP/IP_MULTICAST_IF", Value: ifStr, FD: fd, Err: err}
	}
	if ttl > 0 {
		if err := unix.SetsockoptByte(fd, unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, ttl); err != nil {
			return &OpError{Op: OpSetsockopt, Option: "IPPROTO_IP/IP_MULTICAST_TTL", Value: strconv.Itoa(int(ttl)), FD: fd, Err: err}
		}
	}
	return nil
}

func setBufferSizes(fd, rcvbuf, sndbuf int) error {
	if rcvbuf > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, rcvbuf); err != nil {
			return &OpError{Op: OpSetsockopt, Option: "SOL_SOCKET/SO_RCVBUF", Value: strconv.Itoa(rcvbuf), FD: fd, Err: err}
		}
	}
	if sndbuf > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, sndbuf); err != nil {
			return &OpError{Op: OpSetsockopt, Option: "SOL_SOCKET/SO_SNDBUF", Value: strconv.Itoa(sndbuf), FD: fd, Err: err}
		}
	}
	return nil
}

func closeSocket(fd int) {
	_ = unix.Close(fd)
}

func getRcvBuf(fd int) (int, error) {
	n, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF)
	if err != nil {
		return 0, &OpError{Op: OpGetsockopt, Option: "SOL_SOCKET/SO_RCVBUF", FD: fd, Err: err}
	}
	return n, nil
}

func localAddrPort(fd int) (netip.AddrPort, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return netip.AddrPort{}, &OpError{Op: OpGetsockname, FD: fd, Err: err}
	}
	return sockaddrToAddrPort(sa), nil
}

// toSockaddr converts ap for a socket of the given family. IPv4 peers of an
// IPv6 socket are expressed as v4-mapped addresses.
func toSockaddr(ap netip.AddrPort, is6 bool) (unix.Sockaddr, error) {
	if !ap.IsValid() {
		return nil, &OpError{Op: OpBind, Addr: formatAddrPort(ap), FD: unboundFD, Err: unix.EAFNOSUPPORT}
	}
	addr := ap.Addr()
	if !is6 {
		addr = addr.Unmap()
		if !addr.Is4() {
			return nil, &OpError{Op: OpBind, Addr: formatAddrPort(ap), FD: unboundFD, Err: unix.EAFNOSUPPORT}
		}
		return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: addr.As4()}, nil
	}
	sa := &unix.SockaddrInet6{Port: int(ap.Port()), Addr: addr.As16()}
	if zone := addr.Zone(); zone != "" {
		sa.ZoneId = zoneIndex(zone)
	}
	return sa, nil
}

func sockaddrToAddrPort(sa unix.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *unix.SockaddrInet6:
		addr := netip.AddrFrom16(sa.Addr)
		if addr.Is4In6() {
			addr = addr.Unmap()
		} else if sa.ZoneId != 0 {
			addr = addr.WithZone(strconv.FormatUint(uint64(sa.ZoneId), 10))
		}
		return netip.AddrPortFrom(addr, uint16(sa.Port))
	}
	return netip.AddrPort{}
}

// zoneIndex resolves an IPv6 zone given as an index or an interface name.
func zoneIndex(zone string) uint32 {
	if n, err := strconv.ParseUint(zone, 10, 32); err == nil {
		return uint32(n)
	}
	ifi, err := net.InterfaceByName(zone)
	if err != nil {
		return 0
	}
	return uint32(ifi.Index)
}

// isTransient reports errors that mean "no progress right now".
func isTransient(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR)
}
