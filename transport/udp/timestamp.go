package udp

import "time"

// Timestamp is a kernel receive timestamp for one datagram.
type Timestamp struct {
	Sec  int64
	Nsec int64
}

// Time converts the timestamp to wall-clock time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Sec, ts.Nsec)
}

// UnixNano returns the timestamp in nanoseconds since the epoch.
func (ts Timestamp) UnixNano() int64 {
	return ts.Sec*int64(time.Second) + ts.Nsec
}
