//go:build linux

package pool

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// allocRegion maps anonymous memory, falling back to the Go heap when the
// mapping is refused.
func allocRegion(size int) ([]byte, bool, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return make([]byte, size), false, nil
	}
	return mem, true, nil
}

func freeRegion(mem []byte) error {
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("munmap slab: %w", err)
	}
	return nil
}
