package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/pool"
)

func TestSlabBuffers(t *testing.T) {
	s, err := pool.NewSlab(4, 1500)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 1536, s.BufSize(), "buffers are rounded to a cache line")

	bufs := s.Buffers()
	require.Len(t, bufs, 4)
	for i, b := range bufs {
		assert.Len(t, b, 1536, i)
		assert.Equal(t, len(b), cap(b), "a buffer must not reach into its neighbour")
		b[0] = byte(i + 1)
		b[len(b)-1] = byte(i + 1)
	}
	for i, b := range s.Buffers() {
		assert.Equal(t, byte(i+1), b[0])
		assert.Equal(t, byte(i+1), b[len(b)-1])
	}
}

func TestSlabRejectsEmptyShapes(t *testing.T) {
	for _, shape := range [][2]int{{0, 64}, {4, 0}, {-1, 64}} {
		_, err := pool.NewSlab(shape[0], shape[1])
		assert.ErrorIs(t, err, api.ErrInvalidArgument)
	}
}

func TestSlabCloseIsIdempotent(t *testing.T) {
	s, err := pool.NewSlab(2, 64)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
