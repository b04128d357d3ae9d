//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package journal

func newMemory(bool) memory {
	return heapMemory{}
}
