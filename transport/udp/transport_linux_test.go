//go:build linux

package udp_test

import (
	"net"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-udp/transport/udp"
)

func openFDs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("no /proc/self/fd: %v", err)
	}
	return len(entries)
}

func TestDetectCapabilitiesLinux(t *testing.T) {
	caps := udp.DetectCapabilities()
	assert.Equal(t, "linux", caps.OS)
	assert.True(t, caps.RecvTimestamps)
	assert.Equal(t, caps, udp.DetectCapabilities())

	tr := openLoopback(t)
	if caps.Vectorized() {
		assert.Equal(t, "mmsg", tr.IOStrategy())
	} else {
		assert.Equal(t, "msg", tr.IOStrategy())
	}
	assert.Equal(t, "msg", openLoopback(t, udp.WithVectorIO(false)).IOStrategy())
}

func TestMediaReceiveTimestamps(t *testing.T) {
	tr, err := udp.Open(udp.Config{Bind: loopback4, MediaTimestamps: true})
	if err != nil {
		t.Skipf("receive timestamping unavailable: %v", err)
	}
	defer tr.Close()
	assert.Equal(t, udp.TimestampMediaReceive, tr.TimestampFlags())

	src := peer(t, "udp4", "127.0.0.1:0")
	before := time.Now()
	_, err = src.WriteToUDP([]byte("stamp me"), net.UDPAddrFromAddrPort(localAddr(t, tr)))
	require.NoError(t, err)

	b := udp.NewBatch(2, 64)
	var stamps []udp.Timestamp
	fn := func(_ *udp.DataPaths, _ *udp.ChannelTransport, _, _, _ any, _ []byte, _ netip.AddrPort, ts *udp.Timestamp) {
		if ts != nil {
			stamps = append(stamps, *ts)
		}
	}
	n, _ := drain(t, tr, b, 1, fn)
	require.Equal(t, 1, n)
	if tr.IOStrategy() != "mmsg" {
		assert.Empty(t, stamps)
		return
	}
	require.Len(t, stamps, 1)
	assert.WithinDuration(t, before, stamps[0].Time(), time.Minute)

	slotTS, ok := b.Slot(0).Timestamp()
	assert.True(t, ok)
	assert.Equal(t, stamps[0], slotTS)
}

func TestFailedInitLeaksNoDescriptors(t *testing.T) {
	holder := openLoopback(t)
	taken := udp.MustParseBindAddress(localAddr(t, holder).String())

	before := openFDs(t)
	for i := 0; i < 32; i++ {
		tr := udp.New()
		require.Error(t, tr.Init(udp.Config{Bind: taken}))
		require.Equal(t, -1, tr.FD())
	}
	assert.Equal(t, before, openFDs(t))
}

func TestJoinFailureNamesGroupAndOption(t *testing.T) {
	before := openFDs(t)
	_, err := udp.Open(udp.Config{
		Bind:               udp.MustParseBindAddress("239.255.77.9:0"),
		MulticastInterface: netip.MustParseAddr("192.0.2.123"),
	})
	if err == nil {
		t.Skip("kernel accepted a non-local membership interface")
	}
	var opErr *udp.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, udp.OpJoin, opErr.Op)
	assert.Contains(t, err.Error(), "IP_ADD_MEMBERSHIP")
	assert.Contains(t, err.Error(), "239.255.77.9")
	assert.Equal(t, before, openFDs(t))
}
