package gantry

import (
	"encoding/binary"
	"testing"
	"unsafe"
)

// TestComponentBytesRejections tests types with no flat byte form
func TestComponentBytesRejections(t *testing.T) {
	tagType := FactoryNewComponentType[Tag]()
	bufType := FactoryNewBufferType[sample](8)

	store := Factory.NewStore()
	defer store.Close()
	chunk := newTestChunk(t, store, tagType, bufType)
	if err := chunk.Extend(2); err != nil {
		t.Fatalf("Failed to extend chunk: %v", err)
	}

	tests := []struct {
		name string
		ct   ComponentType
	}{
		{name: "Zero-sized component", ct: tagType},
		{name: "Buffer-valued component", ct: bufType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, err := Factory.NewTypeHandle(tt.ct, Read, 0)
			if err != nil {
				t.Fatalf("Failed to create handle: %v", err)
			}
			if _, err := chunk.ComponentBytes(&handle); err == nil {
				t.Error("Expected ComponentBytes to fail")
			} else if _, ok := err.(InvalidUseError); !ok {
				t.Errorf("ComponentBytes error: %v, want InvalidUseError", err)
			}
		})
	}
}

// TestComponentBytesAbsent tests views over types outside the layout
func TestComponentBytesAbsent(t *testing.T) {
	posType := FactoryNewComponentType[Position]()
	velType := FactoryNewComponentType[Velocity]()

	store := Factory.NewStore()
	defer store.Close()
	chunk := newTestChunk(t, store, posType)
	if err := chunk.Extend(4); err != nil {
		t.Fatalf("Failed to extend chunk: %v", err)
	}

	handle, err := Factory.NewTypeHandle(velType, Read, 0)
	if err != nil {
		t.Fatalf("Failed to create handle: %v", err)
	}
	view, err := chunk.ComponentBytes(&handle)
	if err != nil {
		t.Fatalf("Absent type produced an error: %v", err)
	}
	defer view.Release()

	if view.Len() != 0 {
		t.Errorf("Absent view length: %d, want 0", view.Len())
	}
	data, err := view.Bytes()
	if err != nil {
		t.Fatalf("Failed to read absent view: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Absent view bytes: %d, want 0", len(data))
	}
}

// TestComponentBytesRoundTrip tests that rows land at offset row*size
func TestComponentBytesRoundTrip(t *testing.T) {
	healthType := FactoryNewComponentType[Health]()
	healthAccess := FactoryNewAccessor[Health]()

	store := Factory.NewStore()
	defer store.Close()
	chunk := newTestChunk(t, store, healthType)

	const rows = 5
	if err := chunk.Extend(rows); err != nil {
		t.Fatalf("Failed to extend chunk: %v", err)
	}

	// Write rows through the erased view
	writer, err := FactoryNewHandle[Health](ReadWrite, 1)
	if err != nil {
		t.Fatalf("Failed to create handle: %v", err)
	}
	view, err := chunk.ComponentBytes(&writer)
	if err != nil {
		t.Fatalf("Failed to open write view: %v", err)
	}

	size := int(unsafe.Sizeof(Health{}))
	if view.Len() != rows*size {
		t.Fatalf("View length: %d, want %d", view.Len(), rows*size)
	}
	data, err := view.Bytes()
	if err != nil {
		t.Fatalf("Failed to get view bytes: %v", err)
	}
	for row := 0; row < rows; row++ {
		binary.NativeEndian.PutUint32(data[row*size:], uint32(row*10))
		binary.NativeEndian.PutUint32(data[row*size+4:], 100)
	}
	view.Release()

	// The typed path observes the same rows
	for row := 0; row < rows; row++ {
		got := *healthAccess.Get(chunk, row)
		if got.Current != int32(row*10) || got.Max != 100 {
			t.Errorf("Row %d: %+v, want {Current:%d Max:100}", row, got, row*10)
		}
	}

	// A fresh read view observes the committed bytes at row offsets
	reader, err := FactoryNewHandle[Health](Read, 0)
	if err != nil {
		t.Fatalf("Failed to create handle: %v", err)
	}
	view, err = chunk.ComponentBytes(&reader)
	if err != nil {
		t.Fatalf("Failed to open read view: %v", err)
	}
	defer view.Release()
	data, err = view.Bytes()
	if err != nil {
		t.Fatalf("Failed to get view bytes: %v", err)
	}
	for row := 0; row < rows; row++ {
		if got := binary.NativeEndian.Uint32(data[row*size:]); got != uint32(row*10) {
			t.Errorf("Row %d first field: %d, want %d", row, got, row*10)
		}
	}
}

// TestBatchComponentBytes tests that batch views start at the batch offset
func TestBatchComponentBytes(t *testing.T) {
	healthType := FactoryNewComponentType[Health]()
	healthAccess := FactoryNewAccessor[Health]()

	store := Factory.NewStore()
	defer store.Close()
	chunk := newTestChunk(t, store, healthType)
	if err := chunk.Extend(6); err != nil {
		t.Fatalf("Failed to extend chunk: %v", err)
	}
	for row := 0; row < 6; row++ {
		healthAccess.Get(chunk, row).Current = int32(row)
	}

	batch, err := chunk.Batch(2, 3)
	if err != nil {
		t.Fatalf("Failed to create batch: %v", err)
	}
	reader, err := FactoryNewHandle[Health](Read, 0)
	if err != nil {
		t.Fatalf("Failed to create handle: %v", err)
	}
	view, err := batch.ComponentBytes(&reader)
	if err != nil {
		t.Fatalf("Failed to open batch view: %v", err)
	}
	defer view.Release()

	size := int(unsafe.Sizeof(Health{}))
	if view.Len() != 3*size {
		t.Fatalf("Batch view length: %d, want %d", view.Len(), 3*size)
	}
	data, err := view.Bytes()
	if err != nil {
		t.Fatalf("Failed to get view bytes: %v", err)
	}
	for i := 0; i < 3; i++ {
		if got := binary.NativeEndian.Uint32(data[i*size:]); got != uint32(i+2) {
			t.Errorf("Batch element %d: %d, want %d", i, got, i+2)
		}
	}
}

// TestByteViewCopies tests CopyTo and CopyFrom
func TestByteViewCopies(t *testing.T) {
	healthType := FactoryNewComponentType[Health]()

	store := Factory.NewStore()
	defer store.Close()
	chunk := newTestChunk(t, store, healthType)
	if err := chunk.Extend(1); err != nil {
		t.Fatalf("Failed to extend chunk: %v", err)
	}

	writer, err := FactoryNewHandle[Health](ReadWrite, 1)
	if err != nil {
		t.Fatalf("Failed to create handle: %v", err)
	}
	view, err := chunk.ComponentBytes(&writer)
	if err != nil {
		t.Fatalf("Failed to open write view: %v", err)
	}

	src := make([]byte, view.Len())
	binary.NativeEndian.PutUint32(src, 7)
	binary.NativeEndian.PutUint32(src[4:], 9)
	if n, err := view.CopyFrom(src); err != nil || n != len(src) {
		t.Fatalf("CopyFrom: %d, %v, want %d, nil", n, err, len(src))
	}

	dst := make([]byte, view.Len())
	if n, err := view.CopyTo(dst); err != nil || n != len(dst) {
		t.Fatalf("CopyTo: %d, %v, want %d, nil", n, err, len(dst))
	}
	if binary.NativeEndian.Uint32(dst) != 7 || binary.NativeEndian.Uint32(dst[4:]) != 9 {
		t.Errorf("Copied bytes: %v, want the written fields", dst)
	}
	view.Release()

	// Read-only views reject CopyFrom
	reader, err := FactoryNewHandle[Health](Read, 0)
	if err != nil {
		t.Fatalf("Failed to create handle: %v", err)
	}
	view, err = chunk.ComponentBytes(&reader)
	if err != nil {
		t.Fatalf("Failed to open read view: %v", err)
	}
	defer view.Release()
	if !view.ReadOnly() {
		t.Error("Read view not marked read-only")
	}
	if _, err := view.CopyFrom(src); err == nil {
		t.Error("Expected CopyFrom through a read-only view to fail")
	}
}

// TestByteViewRelease tests release semantics
func TestByteViewRelease(t *testing.T) {
	posType := FactoryNewComponentType[Position]()

	store := Factory.NewStore()
	defer store.Close()
	chunk := newTestChunk(t, store, posType)
	if err := chunk.Extend(1); err != nil {
		t.Fatalf("Failed to extend chunk: %v", err)
	}

	writer, err := FactoryNewHandle[Position](ReadWrite, 1)
	if err != nil {
		t.Fatalf("Failed to create handle: %v", err)
	}
	view, err := chunk.ComponentBytes(&writer)
	if err != nil {
		t.Fatalf("Failed to open write view: %v", err)
	}

	view.Release()
	if _, err := view.Bytes(); err == nil {
		t.Error("Expected reads through a released view to fail")
	}

	// Release is idempotent and returns the permit exactly once
	view.Release()
	next, err := chunk.ComponentBytes(&writer)
	if err != nil {
		t.Fatalf("Failed to reacquire after release: %v", err)
	}
	next.Release()
}
