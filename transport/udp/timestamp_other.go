//go:build !linux

package udp

// No receive timestamp mechanism is wired outside Linux; requesting one is a
// no-op that leaves the capability flag clear.
func enableRecvTimestamps(fd int) (TimestampFlags, error) {
	return TimestampNone, nil
}
