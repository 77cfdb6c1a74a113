package gantry

// TypeHandle identifies a component type for runtime-typed access into
// chunks, carrying the access intent and the caller's version stamp for
// write observation. The handle caches its last column resolution, so it
// is cheap to reuse against every chunk sharing one layout. Handles are
// built per access scope and not shared between concurrent callers; each
// caller's copy owns its cache.
type TypeHandle struct {
	ct           ComponentType
	access       Access
	version      uint64
	cachedLayout *Layout
	cachedColumn int
}

func newTypeHandle(ct ComponentType, access Access, version uint64) (TypeHandle, error) {
	if !ct.valid() {
		return TypeHandle{}, InvalidUseError{Op: "handle", Reason: "unregistered component type"}
	}
	return TypeHandle{ct: ct, access: access, version: version, cachedColumn: -1}, nil
}

// Type returns the component type the handle resolves.
func (h *TypeHandle) Type() ComponentType {
	return h.ct
}

// Access returns the intent the handle was created with.
func (h *TypeHandle) Access() Access {
	return h.access
}

// Version returns the write-stamp version supplied at construction.
func (h *TypeHandle) Version() uint64 {
	return h.version
}

// ColumnIn resolves the handle's type to its column index in a layout.
// Absence is reported as ok == false, never as an error: callers branch to
// an empty result. The first resolution against a layout scans its type
// list; repeats are served from the handle's cache.
func (h *TypeHandle) ColumnIn(l *Layout) (int, bool) {
	if !l.set.ContainsAll(h.ct.bit) {
		return -1, false
	}
	if h.cachedLayout == l {
		stats.cacheHits.Add(1)
		return h.cachedColumn, true
	}
	column, ok := l.search(h.ct)
	if !ok {
		return -1, false
	}
	h.cachedLayout = l
	h.cachedColumn = column
	return column, true
}
