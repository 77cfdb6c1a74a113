package gantry

import (
	"fmt"
	"unsafe"
)

// Accessor provides typed access to one plain component type. It is the
// statically-checked companion to the byte-level handle path: resolution
// still goes through the layout, but element access skips the permit
// system since the type is fixed at compile time and callers coordinate
// scheduling themselves.
type Accessor[T any] struct {
	ct ComponentType
}

// Type returns the component type the accessor resolves.
func (a Accessor[T]) Type() ComponentType {
	return a.ct
}

// Check reports whether the chunk's layout includes the accessor's type.
func (a Accessor[T]) Check(c *Chunk) bool {
	return c.layout.Contains(a.ct)
}

// Get returns a pointer to the row's component. It panics on misuse the
// way slice indexing does; use GetSafe when presence is uncertain.
func (a Accessor[T]) Get(c *Chunk, row int) *T {
	ok, p := a.GetSafe(c, row)
	if !ok {
		panic(fmt.Sprintf("no %s at row %d", a.ct.name, row))
	}
	return p
}

// GetSafe returns a pointer to the row's component, reporting absence
// and out-of-range rows instead of panicking.
func (a Accessor[T]) GetSafe(c *Chunk, row int) (bool, *T) {
	if row < 0 || row >= c.rows {
		return false, nil
	}
	column, ok := a.column(c.layout)
	if !ok {
		return false, nil
	}
	p := unsafe.Add(c.columnBase(column), uintptr(row)*c.layout.strides[column])
	return true, (*T)(p)
}

// Slice returns the batch's rows of the component as a typed slice
// aliasing chunk storage. A nil slice means the type is absent.
func (a Accessor[T]) Slice(b Batch) []T {
	column, ok := a.column(b.chunk.layout)
	if !ok || b.length == 0 {
		return nil
	}
	start := unsafe.Add(b.chunk.columnBase(column), uintptr(b.offset)*b.chunk.layout.strides[column])
	return unsafe.Slice((*T)(start), b.length)
}

func (a Accessor[T]) column(l *Layout) (int, bool) {
	if !l.Contains(a.ct) {
		return -1, false
	}
	return l.search(a.ct)
}

// ReinterpretSlice reinterprets a view's bytes as a slice of T without
// copying. The view length must be a whole number of elements and the
// window must satisfy T's alignment.
func ReinterpretSlice[T any](v *ByteView) ([]T, error) {
	data, err := v.Bytes()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return nil, InvalidUseError{Op: "reinterpret", Reason: "cannot reinterpret as a zero-sized element"}
	}
	if len(data)%size != 0 {
		return nil, InvalidUseError{Op: "reinterpret", Reason: fmt.Sprintf("view length %d is not a multiple of element size %d", len(data), size)}
	}
	p := unsafe.Pointer(&data[0])
	if uintptr(p)%unsafe.Alignof(zero) != 0 {
		return nil, InvalidUseError{Op: "reinterpret", Reason: fmt.Sprintf("view address is not aligned for element alignment %d", unsafe.Alignof(zero))}
	}
	return unsafe.Slice((*T)(p), len(data)/size), nil
}
