// Package arena allocates page-aligned memory blocks outside the Go heap
// via anonymous mmap. Blocks are recycled through per-size free lists, so
// steady-state chunk churn performs no syscalls.
package arena

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Arena hands out mmap-backed blocks. The zero value is not usable; create
// instances with New. All methods are safe for concurrent use.
type Arena struct {
	mu     sync.Mutex
	page   int
	free   map[int][][]byte   // rounded size -> reusable blocks
	live   map[uintptr][]byte // block base address -> full mapping
	mapped int64
	closed bool
}

func New() *Arena {
	return &Arena{
		page: os.Getpagesize(),
		free: make(map[int][][]byte),
		live: make(map[uintptr][]byte),
	}
}

// Alloc returns a block of at least size bytes, rounded up to a whole
// number of pages. Fresh mappings are zeroed by the kernel; recycled
// blocks are not re-zeroed.
func (a *Arena) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("arena: invalid allocation size %d", size)
	}
	rounded := a.round(size)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, fmt.Errorf("arena: closed")
	}

	if blocks := a.free[rounded]; len(blocks) > 0 {
		b := blocks[len(blocks)-1]
		a.free[rounded] = blocks[:len(blocks)-1]
		a.live[base(b)] = b
		return b, nil
	}

	b, err := unix.Mmap(-1, 0, rounded, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap %d bytes: %w", rounded, err)
	}
	a.live[base(b)] = b
	a.mapped += int64(rounded)
	return b, nil
}

// Free returns a block to the arena. The slice must begin at an address
// previously returned by Alloc; its length is ignored, which lets callers
// reconstruct a block reference from a stored base pointer.
func (a *Arena) Free(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("arena: free of empty block")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	full, ok := a.live[base(b)]
	if !ok {
		return fmt.Errorf("arena: free of unknown or already freed block %#x", base(b))
	}
	delete(a.live, base(b))
	a.free[len(full)] = append(a.free[len(full)], full)
	return nil
}

// MappedBytes reports the total bytes currently mapped, live and pooled.
func (a *Arena) MappedBytes() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mapped
}

// LiveBlocks reports the number of blocks handed out and not yet freed.
func (a *Arena) LiveBlocks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Close unmaps every block, including ones still live. Outstanding block
// slices must not be touched afterwards.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	var firstErr error
	for _, b := range a.live {
		if err := unix.Munmap(b); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("arena: unmap live block: %w", err)
		}
	}
	a.live = nil
	for _, blocks := range a.free {
		for _, b := range blocks {
			if err := unix.Munmap(b); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("arena: unmap pooled block: %w", err)
			}
		}
	}
	a.free = nil
	a.mapped = 0
	return firstErr
}

func (a *Arena) round(size int) int {
	return (size + a.page - 1) / a.page * a.page
}

func base(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}
