package ecs

import "reflect"

// Res provides cached access to a single resource from inside a system.
// Declare a Res field on a system struct and the scheduler initializes
// it during registration; the scheduler also treats the field as write
// access to the resource when building waves.
type Res[T any] struct {
	store  *Resources
	cached *T
}

// NewRes creates a resource accessor outside the scheduler, creating
// the resource with initializer (or the zero value) if absent, so the
// resource is guaranteed to exist afterwards.
func NewRes[T any](w *World, initializer ...T) *Res[T] {
	r := &Res[T]{store: &w.resources}
	if _, ok := tryResource[T](r.store); !ok {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		addResource(r.store, value)
	}
	r.refresh()
	return r
}

// Init wires the accessor to a world's resource store. Called
// automatically by the scheduler during system registration.
func (r *Res[T]) Init(w *World) {
	r.store = &w.resources
	r.cached = nil
	r.refresh()
}

// Get returns a pointer to the resource, or nil if it was never added.
func (r *Res[T]) Get() *T {
	if r.cached == nil {
		r.refresh()
	}
	return r.cached
}

// Exists reports whether the resource is present in the store.
func (r *Res[T]) Exists() bool {
	return r.Get() != nil
}

// Access reports the accessor's resource write for wave building.
func (r *Res[T]) Access() Access {
	return Access{Writes: []AccessKey{ResourceAccess[T]()}}
}

func (r *Res[T]) refresh() {
	if r.store == nil {
		return
	}
	if e := r.store.entry(reflect.TypeFor[T]()); e != nil {
		r.cached = e.value.(*T)
	}
}
