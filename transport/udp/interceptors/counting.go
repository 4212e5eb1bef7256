package interceptors

import (
	"net/netip"

	"github.com/momentics/hioload-udp/control"
	"github.com/momentics/hioload-udp/transport/udp"
)

// Counting publishes per-transport receive counters to a MetricsRegistry as
// "udp.<id>.rx_packets", "udp.<id>.rx_bytes" and "udp.<id>.rx_timestamped".
type Counting struct {
	reg *control.MetricsRegistry
}

// CountingState is the per-transport state kept in the interceptor slot.
type CountingState struct {
	prefix      string
	Packets     *control.Counter
	Bytes       *control.Counter
	Timestamped *control.Counter
}

func NewCounting(reg *control.MetricsRegistry) *Counting {
	return &Counting{reg: reg}
}

func (c *Counting) Bind(t *udp.ChannelTransport, _ int) (any, error) {
	prefix := "udp." + t.ID().String()
	return &CountingState{
		prefix:      prefix,
		Packets:     c.reg.Counter(prefix + ".rx_packets"),
		Bytes:       c.reg.Counter(prefix + ".rx_bytes"),
		Timestamped: c.reg.Counter(prefix + ".rx_timestamped"),
	}, nil
}

// Unbind removes the transport's counters from the registry.
func (c *Counting) Unbind(t *udp.ChannelTransport, index int) {
	st, ok := t.Interceptor(index).(*CountingState)
	if !ok {
		return
	}
	c.reg.Delete(st.prefix + ".rx_packets")
	c.reg.Delete(st.prefix + ".rx_bytes")
	c.reg.Delete(st.prefix + ".rx_timestamped")
}

func (c *Counting) Incoming(
	next udp.RecvFunc,
	index int,
	paths *udp.DataPaths,
	t *udp.ChannelTransport,
	clientd, dispatchClientd, destinationClientd any,
	payload []byte,
	from netip.AddrPort,
	ts *udp.Timestamp,
) {
	st, ok := t.Interceptor(index).(*CountingState)
	if !ok {
		next(paths, t, clientd, dispatchClientd, destinationClientd, payload, from, ts)
		return
	}
	st.Packets.Inc()
	st.Bytes.Add(uint64(len(payload)))
	if ts != nil {
		st.Timestamped.Inc()
	}
	next(paths, t, clientd, dispatchClientd, destinationClientd, payload, from, ts)
}

var _ udp.Interceptor = (*Counting)(nil)
