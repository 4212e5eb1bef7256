package udp

import (
	"fmt"
	"net/netip"

	"github.com/momentics/hioload-udp/api"
)

// BindAddress is an IPv4 or IPv6 endpoint classified as unicast or multicast
// when it is created. It is immutable.
type BindAddress struct {
	ap        netip.AddrPort
	multicast bool
}

// NewBindAddress validates ap and classifies it. IPv4-mapped IPv6 addresses
// are treated as IPv4.
func NewBindAddress(ap netip.AddrPort) (BindAddress, error) {
	if !ap.IsValid() {
		return BindAddress{}, fmt.Errorf("%w: bind address %q", api.ErrInvalidArgument, ap.String())
	}
	addr := ap.Addr().Unmap()
	ap = netip.AddrPortFrom(addr, ap.Port())
	return BindAddress{ap: ap, multicast: addr.IsMulticast()}, nil
}

// ParseBindAddress parses "ip:port" or "[ip6]:port".
func ParseBindAddress(s string) (BindAddress, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return BindAddress{}, fmt.Errorf("%w: %v", api.ErrInvalidArgument, err)
	}
	return NewBindAddress(ap)
}

// MustParseBindAddress is ParseBindAddress that panics on error.
func MustParseBindAddress(s string) BindAddress {
	b, err := ParseBindAddress(s)
	if err != nil {
		panic(err)
	}
	return b
}

func (b BindAddress) AddrPort() netip.AddrPort { return b.ap }
func (b BindAddress) Addr() netip.Addr         { return b.ap.Addr() }
func (b BindAddress) Port() uint16             { return b.ap.Port() }
func (b BindAddress) IsValid() bool            { return b.ap.IsValid() }
func (b BindAddress) Is6() bool                { return b.ap.Addr().Is6() }
func (b BindAddress) IsMulticast() bool        { return b.multicast }

// Wildcard returns the unspecified address of the same family on the same
// port. Multicast endpoints bind here rather than to the group so that
// several endpoints can share the port.
func (b BindAddress) Wildcard() netip.AddrPort {
	if b.Is6() {
		return netip.AddrPortFrom(netip.IPv6Unspecified(), b.Port())
	}
	return netip.AddrPortFrom(netip.IPv4Unspecified(), b.Port())
}

func (b BindAddress) String() string { return formatAddrPort(b.ap) }

// formatAddrPort renders "ip:port" or "[ip6%zone]:port".
func formatAddrPort(ap netip.AddrPort) string {
	if !ap.IsValid() {
		return "<invalid>"
	}
	return ap.String()
}
