package gantry

// Config holds global configuration for the access layer. Stores snapshot
// it at construction; set fields before creating stores or handles.
var Config config = config{
	accessChecks: true,
	chunkBytes:   16 * 1024,
}

type config struct {
	accessChecks bool
	chunkBytes   int
	allocator    Allocator
}

// SetAccessChecks toggles the aliasing guard. With checks disabled,
// permit acquisition and release reduce to a single branch; conflicting
// access goes undetected. View invalidation on resize stays active.
func (c *config) SetAccessChecks(enabled bool) {
	c.accessChecks = enabled
}

// AccessChecks reports whether the aliasing guard is active.
func (c *config) AccessChecks() bool {
	return c.accessChecks
}

// SetChunkBytes sets the block size used for newly created chunks.
func (c *config) SetChunkBytes(n int) {
	if n > 0 {
		c.chunkBytes = n
	}
}

// ChunkBytes returns the configured chunk block size.
func (c *config) ChunkBytes() int {
	return c.chunkBytes
}

// SetAllocator overrides the block allocator used by new stores. A nil
// allocator restores the default mmap arena.
func (c *config) SetAllocator(a Allocator) {
	c.allocator = a
}
