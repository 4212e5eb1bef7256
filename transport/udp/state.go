package udp

// State is the lifecycle state of a ChannelTransport.
type State uint8

const (
	// StateUnbound is the initial state and the state after a failed Init.
	StateUnbound State = iota
	// StateBound holds an open, configured socket.
	StateBound
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// TimestampFlags records which receive timestamps a transport delivers.
type TimestampFlags uint8

const (
	TimestampNone TimestampFlags = 0
	// TimestampMediaReceive is set whenever kernel receive timestamping was
	// enabled, whatever mechanism the platform used for it.
	TimestampMediaReceive TimestampFlags = 1 << 0
)
