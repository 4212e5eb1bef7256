// File: transport/udp/datapaths.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Receive interceptor chain shared by the transports of one driver.

package udp

import (
	"fmt"
	"net/netip"

	"github.com/momentics/hioload-udp/api"
)

// Interceptor observes or modifies datagrams ahead of the terminal receive
// function. Its per-transport state lives in the transport's interceptor
// slot at the interceptor's index in the chain.
type Interceptor interface {
	// Bind creates the state for t; the result is stored in slot index.
	Bind(t *ChannelTransport, index int) (any, error)
	// Unbind releases the state previously returned by Bind.
	Unbind(t *ChannelTransport, index int)
	// Incoming handles one datagram and decides whether to pass it to next.
	Incoming(
		next RecvFunc,
		index int,
		paths *DataPaths,
		t *ChannelTransport,
		clientd, dispatchClientd, destinationClientd any,
		payload []byte,
		from netip.AddrPort,
		ts *Timestamp,
	)
}

// DataPaths is an ordered interceptor chain ending in a terminal RecvFunc.
// The chain is composed once; dispatching a datagram does not allocate.
type DataPaths struct {
	interceptors []Interceptor
	terminal     RecvFunc
	recv         RecvFunc
}

// NewDataPaths composes interceptors, outermost first, in front of terminal.
func NewDataPaths(terminal RecvFunc, interceptors ...Interceptor) (*DataPaths, error) {
	if terminal == nil {
		return nil, fmt.Errorf("%w: nil terminal receive function", api.ErrInvalidArgument)
	}
	if len(interceptors) > MaxInterceptors {
		return nil, fmt.Errorf("%w: %d > %d", api.ErrTooManyInterceptors, len(interceptors), MaxInterceptors)
	}
	dp := &DataPaths{
		interceptors: interceptors,
		terminal:     terminal,
	}
	recv := terminal
	for i := len(interceptors) - 1; i >= 0; i-- {
		recv = chain(interceptors[i], i, recv)
	}
	dp.recv = recv
	return dp, nil
}

func chain(ic Interceptor, index int, next RecvFunc) RecvFunc {
	return func(paths *DataPaths, t *ChannelTransport, clientd, dispatchClientd, destinationClientd any, payload []byte, from netip.AddrPort, ts *Timestamp) {
		ic.Incoming(next, index, paths, t, clientd, dispatchClientd, destinationClientd, payload, from, ts)
	}
}

// RecvFunc returns the head of the chain.
func (dp *DataPaths) RecvFunc() RecvFunc { return dp.recv }

// Len returns the number of interceptors.
func (dp *DataPaths) Len() int { return len(dp.interceptors) }

// Bind binds every interceptor to t in order. If one fails, those already
// bound are unbound again and their slots cleared.
func (dp *DataPaths) Bind(t *ChannelTransport) error {
	for i, ic := range dp.interceptors {
		if err := CheckInterceptorIndex(i); err != nil {
			return err
		}
		clientd, err := ic.Bind(t, i)
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				dp.interceptors[j].Unbind(t, j)
				t.SetInterceptor(j, nil)
			}
			return fmt.Errorf("bind interceptor %d: %w", i, err)
		}
		t.SetInterceptor(i, clientd)
	}
	return nil
}

// Unbind releases interceptor state in reverse order and clears the slots.
func (dp *DataPaths) Unbind(t *ChannelTransport) {
	for i := len(dp.interceptors) - 1; i >= 0; i-- {
		dp.interceptors[i].Unbind(t, i)
		t.SetInterceptor(i, nil)
	}
}
