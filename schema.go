package gantry

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/mask"
)

// TypeID identifies a registered component type. IDs are assigned in
// registration order and double as the type's bit in layout masks.
type TypeID uint32

const (
	// maxComponentTypes bounds the registry so every type owns one bit in
	// a layout's component mask.
	maxComponentTypes = 64

	// defaultInlineBytes sizes a buffer row's inline element area when a
	// registration does not request an explicit inline capacity.
	defaultInlineBytes = 128
)

// ComponentType carries the runtime metadata for one registered component
// type: identity, memory footprint, and whether rows hold a fixed-size
// value or a variable-length buffer of elements.
type ComponentType struct {
	id        TypeID
	name      string
	size      uintptr
	align     uintptr
	zeroSized bool
	buffer    bool
	inlineCap int
	bit       mask.Mask
}

func (ct ComponentType) ID() TypeID   { return ct.id }
func (ct ComponentType) Name() string { return ct.name }

// Size returns the element byte size. For plain components this is the
// per-row size; for buffer components it is the size of one element.
func (ct ComponentType) Size() uintptr { return ct.size }

func (ct ComponentType) Align() uintptr  { return ct.align }
func (ct ComponentType) ZeroSized() bool { return ct.zeroSized }

// Buffer reports whether rows of this type hold variable-length buffers
// rather than fixed-size values.
func (ct ComponentType) Buffer() bool { return ct.buffer }

// InlineCapacity returns how many elements a buffer row stores inside the
// chunk before spilling to allocator-owned storage. Zero for plain types.
func (ct ComponentType) InlineCapacity() int { return ct.inlineCap }

func (ct ComponentType) valid() bool { return ct.name != "" }

// The registry is global: types are registered during setup and read-only
// afterwards. It is not synchronized; register components before any
// concurrent access.
type registryState struct {
	byType map[reflect.Type]TypeID
	types  *SimpleCache[ComponentType]
	next   TypeID
}

var registry = newRegistryState()

func newRegistryState() registryState {
	return registryState{
		byType: make(map[reflect.Type]TypeID, maxComponentTypes),
		types: &SimpleCache[ComponentType]{
			itemIndices: make(map[string]int, maxComponentTypes),
			maxCapacity: maxComponentTypes,
		},
	}
}

// ResetGlobalRegistry resets the global component registry.
// This is useful for tests that need to re-initialize component state.
func ResetGlobalRegistry() {
	registry = newRegistryState()
}

// FactoryNewComponentType registers T as a plain fixed-size component and
// returns its metadata. Registration is idempotent per Go type.
func FactoryNewComponentType[T any]() ComponentType {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	return register(t, unsafe.Sizeof(zero), unsafe.Alignof(zero), false, 0)
}

// FactoryNewBufferType registers T as the element type of a buffer-valued
// component. Each row stores up to inlineCap elements inside the chunk and
// spills to allocator-owned storage beyond that. inlineCap <= 0 selects a
// default sized to defaultInlineBytes.
func FactoryNewBufferType[T any](inlineCap int) ComponentType {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	size := unsafe.Sizeof(zero)
	if size == 0 {
		panic(fmt.Sprintf("gantry: buffer element type %s has zero size", t))
	}
	if inlineCap <= 0 {
		inlineCap = int(defaultInlineBytes / size)
		if inlineCap < 1 {
			inlineCap = 1
		}
	}
	return register(t, size, unsafe.Alignof(zero), true, inlineCap)
}

// LookupComponentType returns the registration for T without registering.
func LookupComponentType[T any]() (ComponentType, bool) {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	id, ok := registry.byType[t]
	if !ok {
		return ComponentType{}, false
	}
	return *registry.types.GetItem32(uint32(id)), true
}

// TypeByID returns the registration for a TypeID.
func TypeByID(id TypeID) (ComponentType, bool) {
	if uint32(id) >= uint32(registry.next) {
		return ComponentType{}, false
	}
	return *registry.types.GetItem32(uint32(id)), true
}

func register(t reflect.Type, size, align uintptr, buffer bool, inlineCap int) ComponentType {
	if id, ok := registry.byType[t]; ok {
		existing := *registry.types.GetItem32(uint32(id))
		if existing.buffer != buffer {
			panic(fmt.Sprintf("gantry: %s already registered as a %s component", t, kindName(existing.buffer)))
		}
		if buffer && existing.inlineCap != inlineCap {
			panic(fmt.Sprintf("gantry: %s re-registered with inline capacity %d, already %d", t, inlineCap, existing.inlineCap))
		}
		return existing
	}
	if int(registry.next) >= maxComponentTypes {
		panic(fmt.Sprintf("cannot register component %s: maximum number of component types (%d) reached", t, maxComponentTypes))
	}
	name := t.String()
	if _, taken := registry.types.GetIndex(name); taken {
		panic(fmt.Sprintf("gantry: component name %q already registered for a different type", name))
	}

	id := registry.next
	var bit mask.Mask
	bit.Mark(uint32(id))
	ct := ComponentType{
		id:        id,
		name:      name,
		size:      size,
		align:     align,
		zeroSized: size == 0,
		buffer:    buffer,
		inlineCap: inlineCap,
		bit:       bit,
	}
	if _, err := registry.types.Register(name, ct); err != nil {
		panic(fmt.Sprintf("gantry: register %s: %v", t, err))
	}
	registry.byType[t] = id
	registry.next++
	return ct
}

func kindName(buffer bool) string {
	if buffer {
		return "buffer"
	}
	return "plain"
}
