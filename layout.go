package gantry

import (
	"fmt"
	"iter"
	"sort"

	"github.com/TheBitDrifter/mask"
)

// zeroSizeRowCap caps the row count of layouts whose types occupy no
// chunk space at all; some bound is still needed for row accounting.
const zeroSizeRowCap = 2048

var _ mask.Maskable = &Layout{}

// Layout is the immutable column plan shared by every chunk of one
// archetype: the ordered component types, each column's base offset and
// per-row stride inside the chunk block, and the row capacity that fits
// the block. Layouts are created and deduplicated by a Store.
type Layout struct {
	id       uint32
	types    []ComponentType
	offsets  []uintptr
	strides  []uintptr
	set      mask.Mask
	capacity int
}

func newLayout(id uint32, blockBytes int, types ...ComponentType) (*Layout, error) {
	ordered := make([]ComponentType, len(types))
	copy(ordered, types)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].id < ordered[j].id })

	var set mask.Mask
	for i, ct := range ordered {
		if !ct.valid() {
			return nil, InvalidUseError{Op: "layout", Reason: "unregistered component type"}
		}
		if i > 0 && ordered[i-1].id == ct.id {
			return nil, InvalidUseError{Op: "layout", Reason: fmt.Sprintf("duplicate component type %s", ct.name)}
		}
		set.Mark(uint32(ct.id))
	}

	offsets, strides, capacity, err := planColumns(blockBytes, ordered)
	if err != nil {
		return nil, err
	}

	return &Layout{
		id:       id,
		types:    ordered,
		offsets:  offsets,
		strides:  strides,
		set:      set,
		capacity: capacity,
	}, nil
}

// planColumns fits the columns into blockBytes: the largest row count is
// found such that every column, aligned to its type's requirement, still
// ends inside the block.
func planColumns(blockBytes int, types []ComponentType) ([]uintptr, []uintptr, int, error) {
	strides := make([]uintptr, len(types))
	aligns := make([]uintptr, len(types))
	var rowBytes uintptr
	for i, ct := range types {
		if ct.buffer {
			strides[i] = bufferSlotSize(ct)
			aligns[i] = bufferSlotAlign(ct)
		} else {
			strides[i] = ct.size
			aligns[i] = ct.align
		}
		rowBytes += strides[i]
	}

	if rowBytes == 0 {
		return make([]uintptr, len(types)), strides, zeroSizeRowCap, nil
	}

	capacity := blockBytes / int(rowBytes)
	for ; capacity > 0; capacity-- {
		offsets := make([]uintptr, len(types))
		var off uintptr
		fits := true
		for i := range types {
			if strides[i] == 0 {
				offsets[i] = off
				continue
			}
			off = alignUp(off, aligns[i])
			offsets[i] = off
			off += uintptr(capacity) * strides[i]
			if off > uintptr(blockBytes) {
				fits = false
				break
			}
		}
		if fits {
			return offsets, strides, capacity, nil
		}
	}
	return nil, nil, 0, InvalidUseError{Op: "layout", Reason: fmt.Sprintf("row size %d exceeds chunk block of %d bytes", rowBytes, blockBytes)}
}

func (l *Layout) ID() uint32 {
	return l.id
}

// Capacity returns the number of rows a chunk with this layout can hold.
func (l *Layout) Capacity() int {
	return l.capacity
}

// Mask returns the set of component types in this layout.
func (l *Layout) Mask() mask.Mask {
	return l.set
}

// Contains reports whether the layout includes the component type.
func (l *Layout) Contains(ct ComponentType) bool {
	return l.set.ContainsAll(ct.bit)
}

// Columns returns the number of columns, one per component type.
func (l *Layout) Columns() int {
	return len(l.types)
}

// TypeAt returns the component type stored in a column.
func (l *Layout) TypeAt(column int) ComponentType {
	return l.types[column]
}

// ComponentTypes iterates the layout's component types in column order.
func (l *Layout) ComponentTypes() iter.Seq[ComponentType] {
	return func(yield func(ComponentType) bool) {
		for _, ct := range l.types {
			if !yield(ct) {
				return
			}
		}
	}
}

// search scans the type list for a component's column. The handle cache in
// front of it makes repeat resolutions O(1); see TypeHandle.ColumnIn.
func (l *Layout) search(ct ComponentType) (int, bool) {
	stats.columnSearches.Add(1)
	for i := range l.types {
		if l.types[i].id == ct.id {
			return i, true
		}
	}
	return -1, false
}

func alignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}
