package gantry

import (
	"fmt"
	"unsafe"
)

// Chunk is one fixed-capacity block of rows organized per its layout: one
// contiguous column per component type, rows across columns belonging to
// the same entity. The block is owned by the creating Store; chunks only
// compute offsets into it and hand out scoped, non-owning views.
type Chunk struct {
	layout   *Layout
	store    *Store
	block    []byte
	base     unsafe.Pointer
	rows     int
	versions []uint64
	guards   []columnGuard
}

func newChunk(store *Store, layout *Layout) (*Chunk, error) {
	block, err := store.alloc.Alloc(store.chunkBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate chunk block: %w", err)
	}
	return &Chunk{
		layout:   layout,
		store:    store,
		block:    block,
		base:     unsafe.Pointer(&block[0]),
		versions: make([]uint64, layout.Columns()),
		guards:   make([]columnGuard, layout.Columns()),
	}, nil
}

func (c *Chunk) Layout() *Layout {
	return c.layout
}

// Len returns the number of live rows.
func (c *Chunk) Len() int {
	return c.rows
}

// Capacity returns the layout's row capacity for this chunk.
func (c *Chunk) Capacity() int {
	return c.layout.capacity
}

// Contains reports whether the chunk's layout includes the handle's type.
func (c *Chunk) Contains(h *TypeHandle) bool {
	_, ok := h.ColumnIn(c.layout)
	return ok
}

// Extend brings n more rows live. New slots are zeroed and buffer headers
// initialized to their inline capacity.
func (c *Chunk) Extend(n int) error {
	if c.block == nil {
		return InvalidUseError{Op: "chunk", Reason: "chunk has been released"}
	}
	if n < 0 {
		return InvalidUseError{Op: "chunk", Reason: fmt.Sprintf("cannot extend by %d rows", n)}
	}
	if c.rows+n > c.layout.capacity {
		return InvalidUseError{Op: "chunk", Reason: fmt.Sprintf("extend by %d exceeds capacity %d (%d live)", n, c.layout.capacity, c.rows)}
	}

	for col := range c.layout.types {
		stride := c.layout.strides[col]
		if stride == 0 {
			continue
		}
		base := c.columnBase(col)
		fresh := unsafe.Slice((*byte)(unsafe.Add(base, uintptr(c.rows)*stride)), uintptr(n)*stride)
		clear(fresh)

		if ct := c.layout.types[col]; ct.buffer {
			for row := c.rows; row < c.rows+n; row++ {
				headerAt(base, stride, row).capacity = int32(ct.inlineCap)
			}
		}
	}
	c.rows += n
	return nil
}

// Truncate retires rows from n up, releasing any spilled buffer storage
// they own and invalidating outstanding buffer content views over the
// affected columns. Releasing retired rows' storage is the storage
// layer's duty; accessors never free.
func (c *Chunk) Truncate(n int) error {
	if c.block == nil {
		return InvalidUseError{Op: "chunk", Reason: "chunk has been released"}
	}
	if n < 0 || n > c.rows {
		return IndexOutOfRangeError{Index: n, Count: c.rows}
	}
	if n == c.rows {
		return nil
	}

	for col, ct := range c.layout.types {
		if !ct.buffer {
			continue
		}
		base := c.columnBase(col)
		stride := c.layout.strides[col]
		for row := n; row < c.rows; row++ {
			if err := headerAt(base, stride, row).releaseSpill(ct, c.store.alloc); err != nil {
				return fmt.Errorf("failed to release row %d buffer: %w", row, err)
			}
		}
		c.guards[col].bumpGeneration()
	}
	c.rows = n
	return nil
}

// ComponentBytes returns a raw byte view over the handle's column for all
// live rows. See Batch.ComponentBytes for the contract.
func (c *Chunk) ComponentBytes(h *TypeHandle) (*ByteView, error) {
	return Batch{chunk: c, length: c.rows}.ComponentBytes(h)
}

// Buffers returns a buffer accessor over all live rows. See Batch.Buffers
// for the contract.
func (c *Chunk) Buffers(h *TypeHandle) (*BufferAccessor, error) {
	return Batch{chunk: c, length: c.rows}.Buffers(h)
}

// ChangeVersion returns the version last stamped on the handle's column
// by a read-write access, and whether the column exists here.
func (c *Chunk) ChangeVersion(h *TypeHandle) (uint64, bool) {
	column, ok := h.ColumnIn(c.layout)
	if !ok {
		return 0, false
	}
	return c.versions[column], true
}

// DidChange reports whether the handle's column was written since the
// caller last observed version since. Absent columns never change.
func (c *Chunk) DidChange(h *TypeHandle, since uint64) bool {
	column, ok := h.ColumnIn(c.layout)
	if !ok {
		return false
	}
	return c.versions[column] > since
}

func (c *Chunk) columnBase(column int) unsafe.Pointer {
	return unsafe.Add(c.base, c.layout.offsets[column])
}
