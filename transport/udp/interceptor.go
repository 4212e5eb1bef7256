package udp

import (
	"fmt"

	"github.com/momentics/hioload-udp/api"
)

// MaxInterceptors is the number of interceptor slots on every transport.
const MaxInterceptors = 2

// CheckInterceptorIndex validates an interceptor index coming from outside
// the driver. Trusted callers index the slot table directly.
func CheckInterceptorIndex(i int) error {
	if i < 0 || i >= MaxInterceptors {
		return fmt.Errorf("%w: interceptor index %d outside [0,%d)", api.ErrInvalidArgument, i, MaxInterceptors)
	}
	return nil
}

// Interceptor returns the client data stored in slot i, nil when unset.
// An index outside [0, MaxInterceptors) panics.
func (t *ChannelTransport) Interceptor(i int) any {
	return t.interceptorClientds[i]
}

// SetInterceptor stores clientd in slot i. The transport does not own it.
// Slots keep their values across Init and are cleared by Close.
// An index outside [0, MaxInterceptors) panics.
func (t *ChannelTransport) SetInterceptor(i int, clientd any) {
	t.interceptorClientds[i] = clientd
}
