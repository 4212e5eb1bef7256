package interceptors

import (
	"fmt"
	"net/netip"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/transport/udp"
)

// Loss drops every Nth received datagram on each transport it is bound to.
// It exists to exercise recovery logic above the transport.
type Loss struct {
	every uint64
}

// LossState is the per-transport state kept in the interceptor slot.
type LossState struct {
	Seen    uint64
	Dropped uint64
}

// NewLoss returns a loss generator dropping every nth datagram.
func NewLoss(n int) (*Loss, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: loss rate 1/%d", api.ErrInvalidArgument, n)
	}
	return &Loss{every: uint64(n)}, nil
}

func (l *Loss) Bind(*udp.ChannelTransport, int) (any, error) {
	return &LossState{}, nil
}

func (l *Loss) Unbind(*udp.ChannelTransport, int) {}

func (l *Loss) Incoming(
	next udp.RecvFunc,
	index int,
	paths *udp.DataPaths,
	t *udp.ChannelTransport,
	clientd, dispatchClientd, destinationClientd any,
	payload []byte,
	from netip.AddrPort,
	ts *udp.Timestamp,
) {
	st, ok := t.Interceptor(index).(*LossState)
	if !ok {
		next(paths, t, clientd, dispatchClientd, destinationClientd, payload, from, ts)
		return
	}
	st.Seen++
	if st.Seen%l.every == 0 {
		st.Dropped++
		return
	}
	next(paths, t, clientd, dispatchClientd, destinationClientd, payload, from, ts)
}

var _ udp.Interceptor = (*Loss)(nil)
