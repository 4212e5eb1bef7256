//go:build linux

package udp

import (
	"net/netip"
	"syscall"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-udp/api"
)

func openInternal(t *testing.T, vector bool) *ChannelTransport {
	t.Helper()
	tr, err := Open(Config{Bind: MustParseBindAddress("127.0.0.1:0")}, WithVectorIO(vector))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func restoreSyscalls(t *testing.T) {
	t.Cleanup(func() {
		sysRecvmmsg = recvmmsg
		sysSendmmsg = sendmmsg
		sysRecvmsg = recvmsg
		sysSendmsg = sendmsg
	})
}

func fullBatch(n int) *Batch {
	b := NewBatch(n, 0)
	dst := netip.MustParseAddrPort("127.0.0.1:9")
	for i := 0; i < n; i++ {
		b.SetMessage(i, []byte("datagram"), dst)
	}
	return b
}

// scriptedSendmsg accepts every message except at index stop, where it
// reports result/errno instead.
func scriptedSendmsg(calls *int, stop int, result int, errno syscall.Errno) func(int, *unix.Msghdr, int) (int, syscall.Errno) {
	return func(_ int, hdr *unix.Msghdr, _ int) (int, syscall.Errno) {
		i := *calls
		*calls++
		if i == stop {
			return result, errno
		}
		return int(hdr.Iov.Len), 0
	}
}

func TestScalarSendStopsAtZeroByteSend(t *testing.T) {
	restoreSyscalls(t)
	tr := openInternal(t, false)
	var calls int
	sysSendmsg = scriptedSendmsg(&calls, 3, 0, 0)

	b := fullBatch(5)
	n, err := tr.SendBatch(b, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 4, calls)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 8, b.Slot(i).Sent)
	}
	assert.Zero(t, b.Slot(3).Sent)
}

func TestScalarSendWouldBlockEndsBatch(t *testing.T) {
	restoreSyscalls(t)
	tr := openInternal(t, false)
	var calls int
	sysSendmsg = scriptedSendmsg(&calls, 2, 0, unix.EAGAIN)

	n, err := tr.SendBatch(fullBatch(5), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestScalarSendHardErrorKeepsPartialCount(t *testing.T) {
	restoreSyscalls(t)
	tr := openInternal(t, false)
	var calls int
	sysSendmsg = scriptedSendmsg(&calls, 1, 0, unix.EPERM)

	n, err := tr.SendBatch(fullBatch(5), 5)
	assert.Equal(t, 1, n)
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpSendmsg, opErr.Op)
	assert.Equal(t, "127.0.0.1:9", opErr.Addr)
	assert.Equal(t, unix.EPERM, opErr.Errno())
	assert.Equal(t, api.ErrCodeIO, api.CodeOf(err))
}

func TestVectorSendPartial(t *testing.T) {
	restoreSyscalls(t)
	tr := openInternal(t, true)
	if tr.IOStrategy() != "mmsg" {
		t.Skip("sendmmsg unavailable")
	}
	sysSendmmsg = func(_ int, msgvec []mmsghdr, _ int) (int, syscall.Errno) {
		require.Len(t, msgvec, 4)
		msgvec[0].Len = 8
		msgvec[1].Len = 8
		return 2, 0
	}
	b := fullBatch(4)
	n, err := tr.SendBatch(b, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 8, b.Slot(1).Sent)
	assert.Zero(t, b.Slot(2).Sent)

	sysSendmmsg = func(int, []mmsghdr, int) (int, syscall.Errno) { return 0, unix.EAGAIN }
	n, err = tr.SendBatch(b, 4)
	assert.NoError(t, err)
	assert.Zero(t, n)

	sysSendmmsg = func(int, []mmsghdr, int) (int, syscall.Errno) { return 0, unix.ENOBUFS }
	_, err = tr.SendBatch(b, 4)
	assert.Equal(t, unix.ENOBUFS, ErrnoOf(err))
}

func TestVectorRecvErrors(t *testing.T) {
	restoreSyscalls(t)
	tr := openInternal(t, true)
	if tr.IOStrategy() != "mmsg" {
		t.Skip("recvmmsg unavailable")
	}
	called := false
	fn := func(*DataPaths, *ChannelTransport, any, any, any, []byte, netip.AddrPort, *Timestamp) { called = true }

	sysRecvmmsg = func(int, []mmsghdr, int) (int, syscall.Errno) { return 0, unix.EINTR }
	n, err := tr.RecvBatch(NewBatch(4, 64), nil, fn, nil)
	assert.NoError(t, err)
	assert.Zero(t, n)

	sysRecvmmsg = func(int, []mmsghdr, int) (int, syscall.Errno) { return 0, unix.EBADF }
	n, err = tr.RecvBatch(NewBatch(4, 64), nil, fn, nil)
	assert.Zero(t, n)
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpRecvmmsg, opErr.Op)
	assert.Equal(t, api.ErrCodeIO, opErr.Code())
	assert.False(t, called)
}

// fillMessage writes payload and a source address into a receive header the
// way the kernel would.
func fillMessage(hdr *unix.Msghdr, payload string, from netip.AddrPort) int {
	buf := unsafe.Slice(hdr.Iov.Base, int(hdr.Iov.Len))
	n := copy(buf, payload)
	hdr.Namelen, _ = putRawSockaddr((*unix.RawSockaddrAny)(unsafe.Pointer(hdr.Name)), from, false)
	return n
}

func putTimestampCmsg(control []byte, ts unix.Timespec) int {
	h := (*unix.Cmsghdr)(unsafe.Pointer(&control[0]))
	h.Level = unix.SOL_SOCKET
	h.Type = unix.SCM_TIMESTAMPNS
	h.SetLen(unix.CmsgLen(sizeofTimespec))
	*(*unix.Timespec)(unsafe.Pointer(&control[unix.CmsgLen(0)])) = ts
	return unix.CmsgSpace(sizeofTimespec)
}

func TestVectorRecvDecodesTimestampAndSource(t *testing.T) {
	restoreSyscalls(t)
	tr := openInternal(t, true)
	if tr.IOStrategy() != "mmsg" {
		t.Skip("recvmmsg unavailable")
	}
	tr.tsFlags = TimestampMediaReceive
	from := netip.MustParseAddrPort("10.1.2.3:4567")
	sysRecvmmsg = func(_ int, msgvec []mmsghdr, _ int) (int, syscall.Errno) {
		for i := 0; i < 2; i++ {
			h := &msgvec[i].Hdr
			msgvec[i].Len = uint32(fillMessage(h, "abc", from))
			if i == 0 {
				ctrl := unsafe.Slice(h.Control, int(h.Controllen))
				h.SetControllen(putTimestampCmsg(ctrl, unix.NsecToTimespec(12_000_000_034)))
			} else {
				h.SetControllen(0)
			}
		}
		return 2, 0
	}

	var stamps []*Timestamp
	var froms []netip.AddrPort
	var bytes int64
	fn := func(_ *DataPaths, _ *ChannelTransport, _, _, _ any, p []byte, f netip.AddrPort, ts *Timestamp) {
		assert.Equal(t, "abc", string(p))
		froms = append(froms, f)
		stamps = append(stamps, ts)
	}
	n, err := tr.RecvBatch(NewBatch(4, 64), &bytes, fn, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(6), bytes)
	assert.Equal(t, []netip.AddrPort{from, from}, froms)
	require.NotNil(t, stamps[0])
	assert.Equal(t, Timestamp{Sec: 12, Nsec: 34}, *stamps[0])
	assert.Nil(t, stamps[1])
}

func TestScalarRecvPartialCountOnHardError(t *testing.T) {
	restoreSyscalls(t)
	tr := openInternal(t, false)
	from := netip.MustParseAddrPort("10.9.8.7:65000")
	calls := 0
	sysRecvmsg = func(_ int, hdr *unix.Msghdr, _ int) (int, syscall.Errno) {
		calls++
		if calls > 2 {
			return 0, unix.EIO
		}
		return fillMessage(hdr, "ping", from), 0
	}

	var got []string
	fn := func(_ *DataPaths, _ *ChannelTransport, _, _, _ any, p []byte, f netip.AddrPort, ts *Timestamp) {
		assert.Equal(t, from, f)
		assert.Nil(t, ts)
		got = append(got, string(p))
	}
	n, err := tr.RecvBatch(NewBatch(4, 64), nil, fn, nil)
	assert.Equal(t, 2, n)
	assert.Equal(t, unix.EIO, ErrnoOf(err))
	assert.Equal(t, []string{"ping", "ping"}, got)

	sysRecvmsg = func(int, *unix.Msghdr, int) (int, syscall.Errno) { return 0, unix.EAGAIN }
	n, err = tr.RecvBatch(NewBatch(4, 64), nil, fn, nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestExtractTimestamp(t *testing.T) {
	ctrl := alignedControl(controlSpace)
	used := putTimestampCmsg(ctrl, unix.NsecToTimespec(1_500_000_000))

	var ts Timestamp
	require.True(t, extractTimestamp(ctrl[:used], &ts))
	assert.Equal(t, Timestamp{Sec: 1, Nsec: 500_000_000}, ts)
	assert.Equal(t, int64(1_500_000_000), ts.UnixNano())

	assert.False(t, extractTimestamp(ctrl[:unix.SizeofCmsghdr-1], &ts))

	h := (*unix.Cmsghdr)(unsafe.Pointer(&ctrl[0]))
	h.Type = unix.SCM_RIGHTS
	assert.False(t, extractTimestamp(ctrl[:used], &ts))

	h.Type = unix.SCM_TIMESTAMPNS
	h.SetLen(unix.CmsgLen(4))
	assert.False(t, extractTimestamp(ctrl[:used], &ts))
}

func TestRawSockaddrRoundTrip(t *testing.T) {
	cases := []struct {
		ap  string
		is6 bool
	}{
		{"192.168.1.20:40123", false},
		{"[2001:db8::7]:53", true},
		{"10.0.0.1:1", true},
	}
	for _, c := range cases {
		var rsa unix.RawSockaddrAny
		ap := netip.MustParseAddrPort(c.ap)
		n, ok := putRawSockaddr(&rsa, ap, c.is6)
		require.True(t, ok, c.ap)
		if c.is6 {
			assert.Equal(t, uint32(unix.SizeofSockaddrInet6), n)
		} else {
			assert.Equal(t, uint32(unix.SizeofSockaddrInet4), n)
		}
		assert.Equal(t, ap, rawToAddrPort(&rsa), c.ap)
	}
}

func TestRawSockaddrRejectsFamilyMismatch(t *testing.T) {
	cases := []struct {
		ap  netip.AddrPort
		is6 bool
	}{
		{netip.MustParseAddrPort("[2001:db8::7]:53"), false},
		{netip.AddrPort{}, false},
		{netip.AddrPort{}, true},
	}
	for _, c := range cases {
		var rsa unix.RawSockaddrAny
		n, ok := putRawSockaddr(&rsa, c.ap, c.is6)
		assert.False(t, ok, c.ap.String())
		assert.Zero(t, n)
		assert.Zero(t, rsa.Addr.Family)
	}
}

func TestRawSockaddrKeepsScopeID(t *testing.T) {
	var rsa unix.RawSockaddrAny
	sa := (*unix.RawSockaddrInet6)(unsafe.Pointer(&rsa))
	sa.Family = unix.AF_INET6
	sa.Addr = netip.MustParseAddr("fe80::1").As16()
	sa.Scope_id = 7
	p := (*[2]byte)(unsafe.Pointer(&sa.Port))
	p[0], p[1] = 0x1f, 0x90

	got := rawToAddrPort(&rsa)
	assert.Equal(t, netip.MustParseAddrPort("[fe80::1%7]:8080"), got)

	var back unix.RawSockaddrAny
	_, ok := putRawSockaddr(&back, got, true)
	require.True(t, ok)
	assert.Equal(t, uint32(7), (*unix.RawSockaddrInet6)(unsafe.Pointer(&back)).Scope_id)

	sa.Scope_id = 0
	assert.Empty(t, rawToAddrPort(&rsa).Addr().Zone())
}

func TestSendRejectsFamilyMismatchBeforeSyscall(t *testing.T) {
	restoreSyscalls(t)
	calls := 0
	sysSendmsg = func(int, *unix.Msghdr, int) (int, syscall.Errno) { calls++; return 1, 0 }
	sysSendmmsg = func(_ int, msgs []mmsghdr, _ int) (int, syscall.Errno) { calls++; return len(msgs), 0 }

	tr := openInternal(t, false)
	b := NewBatch(3, 0)
	b.SetMessage(0, []byte("a"), netip.MustParseAddrPort("127.0.0.1:9"))
	b.SetMessage(1, []byte("b"), netip.MustParseAddrPort("[::1]:9"))
	b.SetMessage(2, []byte("c"), netip.MustParseAddrPort("127.0.0.1:9"))

	n, err := tr.SendBatch(b, 3)
	assert.Equal(t, 1, n, "scalar keeps the count sent before the bad slot")
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpSendmsg, opErr.Op)
	assert.Equal(t, unix.EAFNOSUPPORT, opErr.Errno())
	assert.Equal(t, 1, calls)
}
