// File: transport/udp/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Channel transport handle: socket, lifecycle state and interceptor slots.

package udp

import (
	"fmt"
	"net/netip"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/control"
)

// unboundFD marks the absence of a socket.
const unboundFD = -1

// ChannelTransport owns the socket of one channel endpoint.
// Invariant: fd is valid exactly when state is StateBound.
type ChannelTransport struct {
	fd      int
	state   State
	tsFlags TimestampFlags
	is6     bool
	bind    BindAddress

	interceptorClientds [MaxInterceptors]any
	bindingsClientd     any
	dispatchClientd     any
	destinationClientd  any
	dataPaths           *DataPaths

	affinity api.Affinity
	id       uuid.UUID
	log      *zap.Logger
	vectorIO bool
	io       batchIO
	one      sendScratch
	probes   *control.DebugProbes
}

// New creates an unbound transport.
func New(opts ...Option) *ChannelTransport {
	t := &ChannelTransport{
		fd:       unboundFD,
		state:    StateUnbound,
		log:      zap.NewNop(),
		vectorIO: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.id == uuid.Nil {
		t.id = uuid.New()
	}
	return t
}

// Open is New followed by Init. On failure nothing is left open.
func Open(cfg Config, opts ...Option) (*ChannelTransport, error) {
	t := New(opts...)
	if err := t.Init(cfg); err != nil {
		return nil, err
	}
	return t, nil
}

// Init creates, configures and binds the socket described by cfg. A failed
// Init closes whatever it opened and leaves the transport unbound, so it may
// be retried.
func (t *ChannelTransport) Init(cfg Config) error {
	switch t.state {
	case StateBound:
		return api.ErrAlreadyBound
	case StateClosed:
		return api.ErrTransportClosed
	}
	if !cfg.Bind.IsValid() {
		return fmt.Errorf("%w: missing bind address", api.ErrInvalidArgument)
	}

	t.tsFlags = TimestampNone
	t.affinity = cfg.Affinity

	fd, flags, err := openSocket(cfg)
	if err != nil {
		return err
	}
	t.fd = fd
	t.tsFlags = flags
	t.is6 = cfg.Bind.Is6()
	t.bind = cfg.Bind
	t.state = StateBound
	t.io = selectBatchIO(t.vectorIO)

	if t.dataPaths != nil {
		if err := t.dataPaths.Bind(t); err != nil {
			t.release()
			t.state = StateUnbound
			return err
		}
	}

	t.log.Debug("udp transport bound",
		zap.Stringer("id", t.id),
		zap.Stringer("bind", cfg.Bind),
		zap.Bool("multicast", cfg.Bind.IsMulticast()),
		zap.Stringer("affinity", cfg.Affinity),
		zap.String("io", t.io.name()),
		zap.Bool("timestamps", t.tsFlags != TimestampNone),
	)
	return nil
}

// Close releases the socket and clears the interceptor slots. It always
// returns nil and may be called any number of times; closing an unbound
// transport just makes it terminal.
func (t *ChannelTransport) Close() error {
	if t.state == StateBound {
		if t.dataPaths != nil {
			t.dataPaths.Unbind(t)
		}
		t.release()
		t.log.Debug("udp transport closed", zap.Stringer("id", t.id))
	}
	t.interceptorClientds = [MaxInterceptors]any{}
	if t.probes != nil {
		t.probes.UnregisterPrefix(t.probePrefix() + ".")
		t.probes = nil
	}
	t.state = StateClosed
	return nil
}

func (t *ChannelTransport) release() {
	if t.fd != unboundFD {
		closeSocket(t.fd)
	}
	t.fd = unboundFD
	t.tsFlags = TimestampNone
}

// ReceiveBufferSize returns the socket's current SO_RCVBUF.
func (t *ChannelTransport) ReceiveBufferSize() (int, error) {
	if t.state != StateBound {
		return 0, api.ErrNotBound
	}
	return getRcvBuf(t.fd)
}

// LocalAddrPort returns the address the socket is bound to.
func (t *ChannelTransport) LocalAddrPort() (netip.AddrPort, error) {
	if t.state != StateBound {
		return netip.AddrPort{}, api.ErrNotBound
	}
	return localAddrPort(t.fd)
}

// BoundAddress returns the bound local address formatted as "ip:port".
func (t *ChannelTransport) BoundAddress() (string, error) {
	ap, err := t.LocalAddrPort()
	if err != nil {
		return "", err
	}
	return formatAddrPort(ap), nil
}

func (t *ChannelTransport) State() State                   { return t.state }
func (t *ChannelTransport) FD() int                        { return t.fd }
func (t *ChannelTransport) ID() uuid.UUID                  { return t.id }
func (t *ChannelTransport) TimestampFlags() TimestampFlags { return t.tsFlags }
func (t *ChannelTransport) Affinity() api.Affinity         { return t.affinity }
func (t *ChannelTransport) Bind() BindAddress              { return t.bind }
func (t *ChannelTransport) DataPaths() *DataPaths          { return t.dataPaths }

// IOStrategy names the active batch strategy, "" before Init.
func (t *ChannelTransport) IOStrategy() string {
	if t.io == nil {
		return ""
	}
	return t.io.name()
}

func (t *ChannelTransport) BindingsClientd() any        { return t.bindingsClientd }
func (t *ChannelTransport) SetBindingsClientd(c any)    { t.bindingsClientd = c }
func (t *ChannelTransport) DispatchClientd() any        { return t.dispatchClientd }
func (t *ChannelTransport) SetDispatchClientd(c any)    { t.dispatchClientd = c }
func (t *ChannelTransport) DestinationClientd() any     { return t.destinationClientd }
func (t *ChannelTransport) SetDestinationClientd(c any) { t.destinationClientd = c }

func (t *ChannelTransport) probePrefix() string { return "udp." + t.id.String() }

// RegisterProbes exposes the transport state under "udp.<id>.*". Close
// removes them again.
func (t *ChannelTransport) RegisterProbes(dp *control.DebugProbes) {
	t.probes = dp
	prefix := t.probePrefix()
	dp.RegisterProbe(prefix+".state", func() any { return t.state.String() })
	dp.RegisterProbe(prefix+".bind", func() any { return t.bind.String() })
	dp.RegisterProbe(prefix+".io", func() any { return t.IOStrategy() })
	dp.RegisterProbe(prefix+".rcvbuf", func() any {
		n, err := t.ReceiveBufferSize()
		if err != nil {
			return err.Error()
		}
		return n
	})
}
