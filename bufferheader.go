package gantry

import (
	"math"
	"unsafe"

	"go.uber.org/zap"
)

// bufferHeader sits at the head of every buffer-column row slot. While the
// buffer fits its inline capacity, data is nil and elements live directly
// after the header inside the chunk; once grown past it, data points at an
// allocator-owned block. Growth transitions inline to external, never
// back: a logical shrink only lowers length.
type bufferHeader struct {
	data     unsafe.Pointer
	length   int32
	capacity int32
}

const bufferHeaderSize = unsafe.Sizeof(bufferHeader{})

func bufferSlotSize(ct ComponentType) uintptr {
	return alignUp(bufferHeaderSize+uintptr(ct.inlineCap)*ct.size, bufferSlotAlign(ct))
}

func bufferSlotAlign(ct ComponentType) uintptr {
	a := unsafe.Alignof(bufferHeader{})
	if ct.align > a {
		a = ct.align
	}
	return a
}

// headerAt locates a row's header in a column starting at base with the
// given per-row stride.
func headerAt(base unsafe.Pointer, stride uintptr, row int) *bufferHeader {
	return (*bufferHeader)(unsafe.Add(base, stride*uintptr(row)))
}

// elemPointer returns the start of the row's element storage, inline or
// external.
func (h *bufferHeader) elemPointer() unsafe.Pointer {
	if h.data != nil {
		return h.data
	}
	return unsafe.Add(unsafe.Pointer(h), bufferHeaderSize)
}

// contentBytes returns the live element bytes of the buffer.
func (h *bufferHeader) contentBytes(elemSize uintptr) []byte {
	n := int(h.length) * int(elemSize)
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(h.elemPointer()), n)
}

// growTo brings the buffer to newLen elements without ever truncating
// live data: within current capacity only the length moves (bytes past a
// shrunk length are left as they were, not zeroed); past it, a larger
// block is allocated, live elements are copied across, and any previous
// external block is returned to the allocator. On allocation failure the
// header is untouched. Repeating an identical call is a no-op beyond
// re-setting the same length, and on success length == newLen and
// capacity >= newLen always hold.
func growTo(h *bufferHeader, newLen int, elemSize, elemAlign uintptr, alloc Allocator) error {
	if newLen <= int(h.capacity) {
		h.length = int32(newLen)
		return nil
	}

	block, err := alloc.Alloc(newLen * int(elemSize))
	if err != nil {
		return err
	}
	if uintptr(unsafe.Pointer(&block[0]))%elemAlign != 0 {
		_ = alloc.Free(block)
		return InvalidUseError{Op: "buffer grow", Reason: "allocator returned a misaligned block"}
	}
	stats.bufferSpills.Add(1)

	oldExternal := h.data
	oldCapBytes := int(h.capacity) * int(elemSize)
	copy(block, h.contentBytes(elemSize))

	// Header counts are int32; a rounded-up block can hold more.
	capacity := len(block) / int(elemSize)
	if capacity > math.MaxInt32 {
		capacity = math.MaxInt32
	}

	h.data = unsafe.Pointer(&block[0])
	h.capacity = int32(capacity)
	h.length = int32(newLen)

	if oldExternal != nil {
		if err := alloc.Free(unsafe.Slice((*byte)(oldExternal), oldCapBytes)); err != nil {
			Logger().Error("failed to release replaced buffer block", zap.Error(err))
		}
	}
	return nil
}

// releaseSpill returns a buffer's external block to the allocator and
// resets the header to an empty inline state. Called by the storage layer
// when rows are destroyed; the accessor paths never free storage.
func (h *bufferHeader) releaseSpill(ct ComponentType, alloc Allocator) error {
	if h.data == nil {
		return nil
	}
	block := unsafe.Slice((*byte)(h.data), int(h.capacity)*int(ct.size))
	h.data = nil
	h.length = 0
	h.capacity = int32(ct.inlineCap)
	return alloc.Free(block)
}
