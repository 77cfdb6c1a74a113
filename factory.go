package gantry

type factory struct{}

// Factory is the entry point for creating stores, handles, and caches.
var Factory factory

// NewStore creates an empty store using the current Config for its
// allocator and chunk block size.
func (f factory) NewStore() *Store {
	return newStore()
}

// NewTypeHandle creates a handle over a registered component type.
// version is the caller's current change version; read-write handles
// stamp it on every column they acquire.
func (f factory) NewTypeHandle(ct ComponentType, access Access, version uint64) (TypeHandle, error) {
	return newTypeHandle(ct, access, version)
}

// FactoryNewCache creates a SimpleCache with the given maximum capacity.
func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}

// FactoryNewHandle registers T as a plain component type if needed and
// returns a handle over it.
func FactoryNewHandle[T any](access Access, version uint64) (TypeHandle, error) {
	return newTypeHandle(FactoryNewComponentType[T](), access, version)
}

// FactoryNewBufferHandle registers T's element type as buffer-valued if
// needed and returns a handle over it. inlineCap is the per-row inline
// element capacity; zero or less selects the default.
func FactoryNewBufferHandle[T any](inlineCap int, access Access, version uint64) (TypeHandle, error) {
	return newTypeHandle(FactoryNewBufferType[T](inlineCap), access, version)
}

// FactoryNewAccessor registers T as a plain component type if needed and
// returns a typed accessor over it.
func FactoryNewAccessor[T any]() Accessor[T] {
	return Accessor[T]{ct: FactoryNewComponentType[T]()}
}
