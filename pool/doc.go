// Package pool
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Payload memory for datagram batches. A Slab is allocated once per batch,
// mapped anonymously on Linux, and handed to udp.NewBatchFromBuffers so the
// polling path never touches the allocator.
package pool
