package gantry

// Access declares the intent a handle carries into the chunk: shared
// read-only access or exclusive read-write access.
type Access int

const (
	Read Access = iota
	ReadWrite
)

func (a Access) String() string {
	if a == ReadWrite {
		return "read-write"
	}
	return "read-only"
}

// Allocator supplies backing storage for chunk blocks and for buffer
// storage grown past its inline capacity. Returned blocks may hold
// arbitrary bytes; consumers zero what they expose. Free accepts any
// slice beginning at an address returned by Alloc; implementations must
// identify blocks by base address, not length, so callers can
// reconstruct a block reference from a stored pointer.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(block []byte) error
}

// Cache is a string-keyed, index-addressable item cache.
type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
}
