package ecs

import "reflect"

// ResourceType identifies a resource by its Go type's runtime identity.
type ResourceType uint32

type resourceEntry struct {
	typ   reflect.Type
	value any // always a *R box so references stay stable across replacement
}

// Resources is type-erased singleton storage: exactly one value per
// resource type. The store performs no locking; whether two systems may
// touch the same resource concurrently is decided entirely by the
// scheduler's declared access sets.
type Resources struct {
	entries DenseMap[ResourceType, *resourceEntry]
}

func resourceTypeOf(t reflect.Type) ResourceType {
	return ResourceType(typeKey(t))
}

func (r *Resources) entry(t reflect.Type) *resourceEntry {
	e, _ := r.entries.Get(resourceTypeOf(t))
	return e
}

func (r *Resources) add(t reflect.Type, boxed any) {
	r.entries.Insert(resourceTypeOf(t), &resourceEntry{typ: t, value: boxed})
}

func (r *Resources) remove(t reflect.Type) (any, bool) {
	e, ok := r.entries.Remove(resourceTypeOf(t))
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Len returns the number of stored resources.
func (r *Resources) Len() int {
	return r.entries.Len()
}

// Clear drops every stored resource.
func (r *Resources) Clear() {
	for range r.entries.Drain() {
	}
}

// addResource stores value under R, replacing any prior value. When an
// entry already exists the new value is written into the existing box,
// so cached pointers (Res accessors, references held by systems between
// waves) keep observing the current value.
func addResource[R any](r *Resources, value R) {
	t := reflect.TypeFor[R]()
	if e := r.entry(t); e != nil {
		*(e.value.(*R)) = value
		return
	}
	boxed := new(R)
	*boxed = value
	r.add(t, boxed)
}

func tryResource[R any](r *Resources) (*R, bool) {
	e := r.entry(reflect.TypeFor[R]())
	if e == nil {
		return nil, false
	}
	return e.value.(*R), true
}

func getResource[R any](r *Resources) *R {
	v, ok := tryResource[R](r)
	if !ok {
		panic("ecs: resource " + reflect.TypeFor[R]().String() + " not registered")
	}
	return v
}

func removeResource[R any](r *Resources) (R, bool) {
	var zero R
	boxed, ok := r.remove(reflect.TypeFor[R]())
	if !ok {
		return zero, false
	}
	return *(boxed.(*R)), true
}
