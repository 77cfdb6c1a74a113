package gantry

import (
	"fmt"
	"math"
	"unsafe"
)

// BufferAccessor exposes the per-row variable-length buffers of one
// column. It holds the column's access permit from construction until
// Release; views handed out by Get borrow against that permit and are
// invalidated column-wide by any Resize.
type BufferAccessor struct {
	chunk    *Chunk
	ct       ComponentType
	column   int
	base     unsafe.Pointer
	stride   uintptr
	rows     int
	access   Access
	guard    *columnGuard
	permit   bool
	released bool
}

// RowCount returns the number of rows the accessor spans. An accessor
// over a type absent from the chunk spans zero rows.
func (a *BufferAccessor) RowCount() int {
	return a.rows
}

// ReadOnly reports whether the accessor was opened for reading only.
func (a *BufferAccessor) ReadOnly() bool {
	return a.access == Read
}

// Type returns the buffer-valued component type being accessed.
func (a *BufferAccessor) Type() ComponentType {
	return a.ct
}

// BufferLen returns the element count of the row's buffer.
func (a *BufferAccessor) BufferLen(row int) (int, error) {
	if err := a.bound(row); err != nil {
		return 0, err
	}
	return int(headerAt(a.base, a.stride, row).length), nil
}

// Get returns a view over the row's current buffer content. The view
// does not carry its own permit; it rides on the accessor's and goes
// stale if any buffer in the column is resized after it was taken.
func (a *BufferAccessor) Get(row int) (*ByteView, error) {
	if err := a.bound(row); err != nil {
		return nil, err
	}
	header := headerAt(a.base, a.stride, row)
	return &ByteView{
		data:   header.contentBytes(a.ct.size),
		typ:    a.ct.name,
		access: a.access,
		guard:  a.guard,
		gen:    a.guard.generation(),
		genned: true,
	}, nil
}

// Resize sets the row's buffer to newLen elements. Shrinking and growing
// within capacity only adjust the length; growing past capacity moves
// the content into a larger allocation, preserving every element that
// was live before the call. On failure the buffer is untouched. A
// successful resize invalidates all outstanding content views over the
// column.
func (a *BufferAccessor) Resize(row, newLen int) error {
	if err := a.bound(row); err != nil {
		return err
	}
	if a.access != ReadWrite {
		return InvalidUseError{Op: "buffer resize", Reason: "cannot resize through a read-only accessor"}
	}
	if newLen < 0 || newLen > math.MaxInt32 {
		return InvalidUseError{Op: "buffer resize", Reason: fmt.Sprintf("invalid buffer length %d", newLen)}
	}
	header := headerAt(a.base, a.stride, row)
	if err := growTo(header, newLen, a.ct.size, a.ct.align, a.chunk.store.alloc); err != nil {
		return err
	}
	a.guard.bumpGeneration()
	return nil
}

// Release returns the accessor's permit. Further use of the accessor
// fails; outstanding views keep their staleness semantics. Release is
// idempotent.
func (a *BufferAccessor) Release() {
	if a.released {
		return
	}
	a.released = true
	if a.permit {
		a.guard.release(a.access)
	}
}

func (a *BufferAccessor) bound(row int) error {
	if a.released {
		return InvalidUseError{Op: "buffer accessor", Reason: "accessor has been released"}
	}
	if row < 0 || row >= a.rows {
		return IndexOutOfRangeError{Index: row, Count: a.rows}
	}
	return nil
}
