//go:build !windows

package heapmem

import "golang.org/x/sys/unix"

// DefaultChunkSize returns the platform page size, rounded up to 16-byte
// alignment, as the allocator's default heap-extension granularity.
func DefaultChunkSize() uintptr {
	pageSize := uintptr(unix.Getpagesize())
	return (pageSize + 15) &^ 15
}
