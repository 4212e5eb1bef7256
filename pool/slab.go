// File: pool/slab.go
// Contiguous payload slabs for datagram batches.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"fmt"

	"github.com/momentics/hioload-udp/api"
)

// Slab is one contiguous region carved into equally sized buffers. It is
// allocated once per batch and reused for the life of the transport.
type Slab struct {
	mem     []byte
	bufSize int
	count   int
	mapped  bool
}

// NewSlab allocates count buffers of bufSize bytes each. Buffers are rounded
// up to a cache line so neighbouring slots do not share one.
func NewSlab(count, bufSize int) (*Slab, error) {
	if count <= 0 || bufSize <= 0 {
		return nil, fmt.Errorf("%w: slab %dx%d", api.ErrInvalidArgument, count, bufSize)
	}
	stride := alignUp(bufSize, cacheLine)
	mem, mapped, err := allocRegion(count * stride)
	if err != nil {
		return nil, err
	}
	return &Slab{mem: mem, bufSize: stride, count: count, mapped: mapped}, nil
}

const cacheLine = 64

func alignUp(n, a int) int {
	return (n + a - 1) &^ (a - 1)
}

// Buffers returns count slices over the slab, each of length bufSize as
// rounded by NewSlab. The slices are valid until Close.
func (s *Slab) Buffers() [][]byte {
	out := make([][]byte, s.count)
	for i := range out {
		off := i * s.bufSize
		out[i] = s.mem[off : off+s.bufSize : off+s.bufSize]
	}
	return out
}

// Len returns the number of buffers.
func (s *Slab) Len() int { return s.count }

// BufSize returns the per-buffer size after alignment.
func (s *Slab) BufSize() int { return s.bufSize }

// Mapped reports whether the slab is backed by an anonymous mapping.
func (s *Slab) Mapped() bool { return s.mapped }

// Close releases the region. Buffers must not be used afterwards.
func (s *Slab) Close() error {
	if s.mem == nil {
		return nil
	}
	mem := s.mem
	s.mem = nil
	if s.mapped {
		return freeRegion(mem)
	}
	return nil
}
