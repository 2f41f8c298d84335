//go:build windows

package heapmem

// DefaultChunkSize falls back to a fixed 4096-byte granularity on Windows,
// where golang.org/x/sys/unix is unavailable.
func DefaultChunkSize() uintptr {
	return 4096
}
