package gantry

import (
	"fmt"
	"iter"
	"unsafe"
)

// Batch is a contiguous sub-range of a chunk's live rows. Batches are
// cheap values meant for splitting a chunk across workers; each batch
// resolves columns independently but permits are still per column, so
// two batches of the same chunk cannot write the same type concurrently.
type Batch struct {
	chunk  *Chunk
	offset int
	length int
}

// Batch bounds a sub-range of the chunk's live rows.
func (c *Chunk) Batch(offset, length int) (Batch, error) {
	if offset < 0 || length < 0 || offset+length > c.rows {
		return Batch{}, IndexOutOfRangeError{Index: offset + length, Count: c.rows}
	}
	return Batch{chunk: c, offset: offset, length: length}, nil
}

// Batches partitions the chunk's live rows into batches of at most size
// rows, in row order. A size of zero or less yields a single full batch.
func (c *Chunk) Batches(size int) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		if c.rows == 0 {
			return
		}
		if size <= 0 {
			size = c.rows
		}
		for offset := 0; offset < c.rows; offset += size {
			n := min(size, c.rows-offset)
			if !yield(Batch{chunk: c, offset: offset, length: n}) {
				return
			}
		}
	}
}

func (b Batch) Chunk() *Chunk {
	return b.chunk
}

func (b Batch) Offset() int {
	return b.offset
}

// Len returns the number of rows the batch spans.
func (b Batch) Len() int {
	return b.length
}

// ComponentBytes returns a raw byte view over the handle's column for the
// batch's rows. The view holds the column's access permit until Release.
// Zero-sized and buffer-valued types have no flat byte representation and
// are rejected; a type absent from the chunk's layout yields a valid
// zero-length view. A read-write handle stamps its version on the column.
func (b Batch) ComponentBytes(h *TypeHandle) (*ByteView, error) {
	ct := h.ct
	if ct.zeroSized {
		return nil, InvalidUseError{Op: "component bytes", Reason: fmt.Sprintf("%s is zero-sized and has no byte representation", ct.name)}
	}
	if ct.buffer {
		return nil, InvalidUseError{Op: "component bytes", Reason: fmt.Sprintf("%s is buffer-valued, use Buffers", ct.name)}
	}

	column, ok := h.ColumnIn(b.chunk.layout)
	if !ok {
		return &ByteView{access: h.access}, nil
	}

	guard := &b.chunk.guards[column]
	if err := guard.acquire(ct, h.access); err != nil {
		return nil, err
	}
	if h.access == ReadWrite {
		b.chunk.versions[column] = h.version
	}

	stride := b.chunk.layout.strides[column]
	start := unsafe.Add(b.chunk.columnBase(column), uintptr(b.offset)*stride)
	var data []byte
	if n := b.length * int(stride); n > 0 {
		data = unsafe.Slice((*byte)(start), n)
	}
	return &ByteView{
		data:   data,
		typ:    ct.name,
		access: h.access,
		guard:  guard,
		permit: true,
	}, nil
}

// Buffers returns a per-row buffer accessor over the handle's column for
// the batch's rows. The accessor holds the column's access permit until
// Release. Plain types are rejected; a type absent from the chunk's
// layout yields a valid accessor with zero rows. A read-write handle
// stamps its version on the column.
func (b Batch) Buffers(h *TypeHandle) (*BufferAccessor, error) {
	ct := h.ct
	if !ct.buffer {
		return nil, InvalidUseError{Op: "buffers", Reason: fmt.Sprintf("%s is not buffer-valued, use ComponentBytes", ct.name)}
	}

	column, ok := h.ColumnIn(b.chunk.layout)
	if !ok {
		return &BufferAccessor{ct: ct, column: -1, access: h.access}, nil
	}

	guard := &b.chunk.guards[column]
	if err := guard.acquire(ct, h.access); err != nil {
		return nil, err
	}
	if h.access == ReadWrite {
		b.chunk.versions[column] = h.version
	}

	stride := b.chunk.layout.strides[column]
	return &BufferAccessor{
		chunk:  b.chunk,
		ct:     ct,
		column: column,
		base:   unsafe.Add(b.chunk.columnBase(column), uintptr(b.offset)*stride),
		stride: stride,
		rows:   b.length,
		access: h.access,
		guard:  guard,
		permit: true,
	}, nil
}
