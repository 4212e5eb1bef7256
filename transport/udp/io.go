// File: transport/udp/io.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Strategy-agnostic batch receive and send entry points.

package udp

import (
	"net/netip"

	"github.com/momentics/hioload-udp/api"
)

// RecvFunc receives one datagram. payload and ts point into batch storage and
// are valid only until the callback returns; ts is nil when no receive
// timestamp was delivered. The callback runs on the polling goroutine and
// must not block.
type RecvFunc func(
	paths *DataPaths,
	t *ChannelTransport,
	clientd any,
	dispatchClientd any,
	destinationClientd any,
	payload []byte,
	from netip.AddrPort,
	ts *Timestamp,
)

// batchIO is one of the interchangeable vectorized or scalar strategies.
type batchIO interface {
	name() string
	recv(t *ChannelTransport, b *Batch, bytesRcved *int64, fn RecvFunc, clientd any) (int, error)
	send(t *ChannelTransport, b *Batch, n int) (int, error)
}

func (t *ChannelTransport) ready() error {
	switch t.state {
	case StateBound:
		return nil
	case StateClosed:
		return api.ErrTransportClosed
	default:
		return api.ErrNotBound
	}
}

// RecvBatch receives up to b.Cap() datagrams without blocking and invokes fn
// for each one, adding their sizes to *bytesRcved. A nil fn dispatches to the
// attached DataPaths. It returns the number of datagrams dispatched; zero
// with a nil error means nothing was pending. On a hard error the count of
// datagrams already dispatched is returned alongside the error.
func (t *ChannelTransport) RecvBatch(b *Batch, bytesRcved *int64, fn RecvFunc, clientd any) (int, error) {
	if err := t.ready(); err != nil {
		return 0, err
	}
	if fn == nil {
		if t.dataPaths == nil {
			return 0, api.ErrInvalidArgument
		}
		fn = t.dataPaths.recv
	}
	if b.Cap() == 0 {
		return 0, nil
	}
	return t.io.recv(t, b, bytesRcved, fn, clientd)
}

// SendBatch sends slots [0, n) without blocking and returns how many were
// sent. A slot the OS does not accept ends the batch early with a nil error;
// the caller resubmits the rest. Confirmed sends are never rolled back.
func (t *ChannelTransport) SendBatch(b *Batch, n int) (int, error) {
	if err := t.ready(); err != nil {
		return 0, err
	}
	if n > b.Cap() {
		n = b.Cap()
	}
	if n <= 0 {
		return 0, nil
	}
	return t.io.send(t, b, n)
}

// Send transmits one datagram to dst and returns the bytes sent; zero with a
// nil error means the socket could not accept it now.
func (t *ChannelTransport) Send(p []byte, dst netip.AddrPort) (int, error) {
	if err := t.ready(); err != nil {
		return 0, err
	}
	return sendOne(t, p, dst)
}

func addBytes(counter *int64, n int) {
	if counter != nil {
		*counter += int64(n)
	}
}
