package ecs

import (
	"fmt"
	"reflect"
)

// ComponentId identifies a registered component type. It is derived
// from the type's runtime identity, so the same type always yields the
// same id within a process run.
type ComponentId uint32

// maxComponentTypes matches the width of the mask used for table shape
// matching.
const maxComponentTypes = 256

type componentInfo struct {
	id        ComponentId
	typ       reflect.Type
	bit       uint32 // position in a table's shape mask
	newColumn func() Column
}

// ComponentRegistry records the identity, layout metadata and column
// factory of every component type usable with a Storage. Each Storage
// has its own registry, allowing independent worlds to coexist.
type ComponentRegistry struct {
	byType map[reflect.Type]ComponentId
	infos  DenseMap[ComponentId, *componentInfo]
}

// NewComponentRegistry creates an empty component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		byType: make(map[reflect.Type]ComponentId),
	}
}

// RegisterComponent registers T and returns its id. Registration is
// idempotent: registering a type twice returns the existing id.
func RegisterComponent[T any](r *ComponentRegistry) ComponentId {
	t := reflect.TypeFor[T]()
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
		panic("components cannot be pointers, maps, channels, or functions")
	}

	if id, ok := r.byType[t]; ok {
		return id
	}
	if r.infos.Len() >= maxComponentTypes {
		panic(fmt.Sprintf("ecs: component type limit (%d) exceeded registering %s", maxComponentTypes, t))
	}

	id := ComponentId(typeKey(t))
	info := &componentInfo{
		id:  id,
		typ: t,
		bit: uint32(r.infos.Len()),
		newColumn: func() Column {
			return &column[T]{}
		},
	}
	r.byType[t] = id
	r.infos.Insert(id, info)
	return id
}

// ComponentIdFor returns the id T was registered under.
func ComponentIdFor[T any](r *ComponentRegistry) (ComponentId, bool) {
	id, ok := r.byType[reflect.TypeFor[T]()]
	return id, ok
}

// idOf resolves a reflect.Type to its component id, unwrapping one
// level of pointer so both T and *T land on T.
func (r *ComponentRegistry) idOf(t reflect.Type) (ComponentId, bool) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	id, ok := r.byType[t]
	return id, ok
}

func (r *ComponentRegistry) mustIdOf(t reflect.Type) ComponentId {
	id, ok := r.idOf(t)
	if !ok {
		panic("ecs: component type " + t.String() + " not registered")
	}
	return id
}

func (r *ComponentRegistry) info(id ComponentId) *componentInfo {
	info, ok := r.infos.Get(id)
	if !ok {
		panic(fmt.Sprintf("ecs: component id %d not registered", id))
	}
	return info
}

// TypeOf returns the Go type registered under id.
func (r *ComponentRegistry) TypeOf(id ComponentId) reflect.Type {
	return r.info(id).typ
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int {
	return r.infos.Len()
}
