// File: transport/udp/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package udp

import (
	"net/netip"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/momentics/hioload-udp/api"
)

// Config describes one channel endpoint for Init.
type Config struct {
	// Bind is the local endpoint, or the group to join for multicast.
	Bind BindAddress
	// MulticastInterface is the IPv4 local address of the interface used to
	// join and send; the unspecified address lets the kernel pick.
	MulticastInterface netip.Addr
	// MulticastIfIndex is the interface index used for IPv6 membership.
	MulticastIfIndex uint32
	// TTL is the multicast TTL / hop limit; zero keeps the OS default.
	TTL uint8
	// RcvBuf and SndBuf are SO_RCVBUF/SO_SNDBUF; zero keeps the OS default.
	RcvBuf int
	SndBuf int
	// MediaTimestamps enables kernel receive timestamps.
	MediaTimestamps bool
	// Affinity names the driver thread that will own this transport.
	Affinity api.Affinity
}

// Option customizes a ChannelTransport at construction.
type Option func(*ChannelTransport)

// WithLogger sets the lifecycle logger. The polling path never logs.
func WithLogger(l *zap.Logger) Option {
	return func(t *ChannelTransport) {
		if l != nil {
			t.log = l
		}
	}
}

// WithVectorIO enables or disables recvmmsg/sendmmsg. When disabled, or when
// the platform lacks them, the scalar per-slot strategy is used.
func WithVectorIO(enabled bool) Option {
	return func(t *ChannelTransport) {
		t.vectorIO = enabled
	}
}

// WithDataPaths attaches the receive interceptor chain. Its interceptors are
// bound after a successful Init and unbound on Close.
func WithDataPaths(dp *DataPaths) Option {
	return func(t *ChannelTransport) {
		t.dataPaths = dp
	}
}

// WithID overrides the generated transport id.
func WithID(id uuid.UUID) Option {
	return func(t *ChannelTransport) {
		t.id = id
	}
}

// WithBindingsClientd stores the bindings client data reference.
func WithBindingsClientd(clientd any) Option {
	return func(t *ChannelTransport) {
		t.bindingsClientd = clientd
	}
}
