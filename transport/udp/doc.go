// File: transport/udp/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package udp is the datagram channel transport of the media driver.
//
// A ChannelTransport owns one OS socket per channel endpoint. Init binds it
// (joining the multicast group when the bind address is a group), configures
// buffer sizes and optional kernel receive timestamps, and leaves it in
// non-blocking mode. The polling thread then drives RecvBatch and SendBatch,
// which use recvmmsg(2)/sendmmsg(2) where the platform has them and fall back
// to one recvmsg(2)/sendmsg(2) per slot otherwise. Neither path blocks,
// retries or allocates: "no data" and "not ready" surface as zero progress.
//
// A transport is owned by exactly one goroutine at a time and performs no
// internal locking.
package udp
