//go:build linux || darwin || freebsd || netbsd || openbsd

package journal

import (
	"golang.org/x/sys/unix"
)

// mmapMemory maps anonymous private memory outside the Go heap, so a segment's
// pages are returned to the OS the moment it is released.
type mmapMemory struct{}

func (mmapMemory) alloc(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func (mmapMemory) free(buf []byte) error {
	return unix.Munmap(buf)
}

func newMemory(unmanaged bool) memory {
	if unmanaged {
		return mmapMemory{}
	}

	return heapMemory{}
}
