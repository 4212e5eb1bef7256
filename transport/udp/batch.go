// File: transport/udp/batch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-capacity message batch reused across receive and send calls.
// Not thread-safe; owned by the polling goroutine.

package udp

import "net/netip"

// Slot is one message of a Batch.
type Slot struct {
	// Buf is the payload storage. Receives fill up to len(Buf); sends
	// transmit Buf[:N].
	Buf []byte
	// N is the payload length: bytes received, or bytes to send.
	N int
	// Sent is the byte count the OS accepted for this slot on the last send.
	Sent int
	// Addr is the sender on receive and the destination on send.
	Addr netip.AddrPort

	ts    Timestamp
	hasTS bool
}

// Payload returns Buf[:N].
func (s *Slot) Payload() []byte { return s.Buf[:s.N] }

// Timestamp returns the receive timestamp of the last datagram in this slot.
func (s *Slot) Timestamp() (Timestamp, bool) { return s.ts, s.hasTS }

// Batch is a caller-owned sequence of message slots. All per-slot OS
// structures are prepared once here so the I/O path never allocates.
type Batch struct {
	slots []Slot
	vec   batchVec
}

// NewBatch allocates capacity slots with bufSize-byte payload buffers.
func NewBatch(capacity, bufSize int) *Batch {
	bufs := make([][]byte, capacity)
	backing := make([]byte, capacity*bufSize)
	for i := range bufs {
		bufs[i] = backing[i*bufSize : (i+1)*bufSize : (i+1)*bufSize]
	}
	return NewBatchFromBuffers(bufs)
}

// NewBatchFromBuffers builds a batch over caller-provided payload buffers,
// one slot per buffer. The batch keeps references to them.
func NewBatchFromBuffers(bufs [][]byte) *Batch {
	b := &Batch{slots: make([]Slot, len(bufs))}
	for i, buf := range bufs {
		b.slots[i].Buf = buf
	}
	b.vec.init(len(bufs))
	return b
}

// Cap returns the number of slots.
func (b *Batch) Cap() int { return len(b.slots) }

// Slot returns slot i.
func (b *Batch) Slot(i int) *Slot { return &b.slots[i] }

// SetMessage prepares slot i to send p to dst. p is referenced, not copied.
func (b *Batch) SetMessage(i int, p []byte, dst netip.AddrPort) {
	s := &b.slots[i]
	s.Buf = p
	s.N = len(p)
	s.Sent = 0
	s.Addr = dst
}
