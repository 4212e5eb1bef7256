package udp_test

import (
	"errors"
	"net/netip"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/transport/udp"
)

func TestNewBatch(t *testing.T) {
	b := udp.NewBatch(3, 16)
	assert.Equal(t, 3, b.Cap())
	for i := 0; i < 3; i++ {
		assert.Len(t, b.Slot(i).Buf, 16)
		assert.Equal(t, 16, cap(b.Slot(i).Buf), "slots must not overlap")
	}
	b.Slot(0).Buf[15] = 0xff
	assert.Zero(t, b.Slot(1).Buf[0])
}

func TestBatchFromBuffersAndSetMessage(t *testing.T) {
	bufs := [][]byte{make([]byte, 8), make([]byte, 8)}
	b := udp.NewBatchFromBuffers(bufs)
	assert.Equal(t, 2, b.Cap())

	dst := netip.MustParseAddrPort("192.0.2.1:7000")
	b.SetMessage(1, []byte("abc"), dst)
	s := b.Slot(1)
	assert.Equal(t, []byte("abc"), s.Payload())
	assert.Equal(t, dst, s.Addr)
	assert.Zero(t, s.Sent)

	_, ok := s.Timestamp()
	assert.False(t, ok)
	assert.Zero(t, udp.NewBatch(0, 8).Cap())
}

func TestTimestampConversions(t *testing.T) {
	ts := udp.Timestamp{Sec: 1_700_000_000, Nsec: 250}
	assert.Equal(t, int64(1_700_000_000_000_000_250), ts.UnixNano())
	assert.True(t, time.Unix(1_700_000_000, 250).Equal(ts.Time()))
}

func TestStateString(t *testing.T) {
	names := map[udp.State]string{
		udp.StateUnbound: "unbound",
		udp.StateBound:   "bound",
		udp.StateClosed:  "closed",
		udp.State(9):     "invalid",
	}
	got := make(map[udp.State]string, len(names))
	for s := range names {
		got[s] = s.String()
	}
	if diff := cmp.Diff(names, got); diff != "" {
		t.Errorf("State.String mismatch (-want +got):\n%s", diff)
	}
}

func TestOpErrorFormatting(t *testing.T) {
	err := &udp.OpError{
		Op:     udp.OpJoin,
		Option: "IPPROTO_IP/IP_ADD_MEMBERSHIP",
		Value:  "ip_mreq{multiaddr=239.1.1.1, interface=0.0.0.0}",
		FD:     7,
		Err:    syscall.ENODEV,
	}
	assert.Equal(t, "join IPPROTO_IP/IP_ADD_MEMBERSHIP=ip_mreq{multiaddr=239.1.1.1, interface=0.0.0.0}: "+syscall.ENODEV.Error(), err.Error())
	assert.Equal(t, api.ErrCodeResource, err.Code())
	assert.Equal(t, syscall.ENODEV, err.Errno())
	assert.ErrorIs(t, err, syscall.ENODEV)

	bind := &udp.OpError{Op: udp.OpBind, Addr: "127.0.0.1:80", FD: 3, Err: syscall.EACCES}
	assert.Equal(t, "bind(127.0.0.1:80): "+syscall.EACCES.Error(), bind.Error())

	recv := &udp.OpError{Op: udp.OpRecvmsg, Err: errors.New("odd")}
	assert.Equal(t, api.ErrCodeIO, recv.Code())
	assert.Zero(t, recv.Errno())
	assert.Zero(t, udp.ErrnoOf(errors.New("plain")))
}
