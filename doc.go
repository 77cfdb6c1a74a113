// Package gantry provides type-erased access into chunked, columnar
// component storage.
//
// Storage is organized as layouts (immutable column plans over a set of
// registered component types) and chunks (fixed-size memory blocks laid
// out per a layout, one contiguous column per type). Generic tooling
// that cannot know component types at compile time works through
// TypeHandle values, which resolve a type to its column in any layout
// with a last-layout cache, and through ByteView and BufferAccessor
// values, which expose column bytes and per-row variable-length buffers
// without copying. Per-column access permits reject conflicting
// concurrent acquisitions, and buffer resizes invalidate outstanding
// content views instead of leaving them dangling.
//
// Basic usage:
//
//	// Register component types and build a layout.
//	store := gantry.Factory.NewStore()
//	defer store.Close()
//
//	pos := gantry.FactoryNewComponentType[Position]()
//	layout, err := store.NewLayout(pos)
//	if err != nil {
//		// handle error
//	}
//
//	// Allocate a chunk and bring rows live.
//	chunk, err := store.NewChunk(layout)
//	if err != nil {
//		// handle error
//	}
//	chunk.Extend(16)
//
//	// Erased access through a handle.
//	handle, err := gantry.Factory.NewTypeHandle(pos, gantry.ReadWrite, 1)
//	if err != nil {
//		// handle error
//	}
//	view, err := chunk.ComponentBytes(&handle)
//	if err != nil {
//		// handle error
//	}
//	defer view.Release()
package gantry
