// File: cmd/hioload-udp/endpoint.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/momentics/hioload-udp/control"
	"github.com/momentics/hioload-udp/transport/udp"
)

// transportConfig turns an endpoint section into a udp.Config, resolving the
// multicast interface by address or name.
func transportConfig(ep control.EndpointConfig) (udp.Config, error) {
	bind, err := udp.ParseBindAddress(ep.Bind)
	if err != nil {
		return udp.Config{}, fmt.Errorf("endpoint %s: %w", ep.Name, err)
	}
	aff, err := control.ParseAffinity(ep.Affinity)
	if err != nil {
		return udp.Config{}, err
	}
	cfg := udp.Config{
		Bind:            bind,
		TTL:             ep.TTL,
		RcvBuf:          ep.RcvBuf,
		SndBuf:          ep.SndBuf,
		MediaTimestamps: ep.Timestamps,
		Affinity:        aff,
	}
	if iface := strings.TrimSpace(ep.Interface); iface != "" {
		if addr, err := netip.ParseAddr(iface); err == nil {
			cfg.MulticastInterface = addr
		} else {
			idx, addr, err := resolveInterface(iface)
			if err != nil {
				return udp.Config{}, fmt.Errorf("endpoint %s: %w", ep.Name, err)
			}
			cfg.MulticastIfIndex = idx
			cfg.MulticastInterface = addr
		}
	}
	return cfg, nil
}

// resolveInterface returns the index and first IPv4 address of an interface.
func resolveInterface(name string) (uint32, netip.Addr, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return 0, netip.Addr{}, err
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return 0, netip.Addr{}, err
	}
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if addr, ok := netip.AddrFromSlice(ipn.IP); ok && addr.Unmap().Is4() {
			return uint32(ifi.Index), addr.Unmap(), nil
		}
	}
	return uint32(ifi.Index), netip.Addr{}, nil
}
