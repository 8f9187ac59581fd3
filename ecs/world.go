package ecs

import "reflect"

// World composes the allocator, component registry, archetype store,
// resource stores, event bus and scheduler behind the public contract
// consumed by collaborating subsystems. A World owns all component and
// resource data exclusively; the scheduler's declared access sets are
// the sole arbiter of concurrent access to it.
type World struct {
	registry  *ComponentRegistry
	allocator entityAllocator
	storage   *Storage
	resources Resources
	local     Resources
	events    Events
	scheduler *Scheduler
}

// NewWorld creates an empty world with its own component registry.
func NewWorld() *World {
	w := &World{
		registry: NewComponentRegistry(),
	}
	w.storage = NewStorage(w.registry)
	w.scheduler = newScheduler(w)
	return w
}

// Registry returns the world's component registry.
func (w *World) Registry() *ComponentRegistry {
	return w.registry
}

// Storage returns the world's archetype store.
func (w *World) Storage() *Storage {
	return w.storage
}

// Events returns the world's event bus.
func (w *World) Events() *Events {
	return &w.events
}

// Scheduler returns the world's task scheduler.
func (w *World) Scheduler() *Scheduler {
	return w.scheduler
}

// Spawn allocates a fresh entity and places it in the empty-set table.
func (w *World) Spawn() Entity {
	e := w.allocator.Allocate()
	w.storage.AddEntity(e)
	return e
}

// Despawn removes e and all its component data, frees its id back to
// the allocator and bumps the generation so outstanding copies of the
// handle go stale. A stale handle is a silent no-op returning false.
func (w *World) Despawn(e Entity) bool {
	if !w.allocator.Free(e) {
		return false
	}
	w.storage.RemoveEntity(e)
	return true
}

// Alive reports whether e is a live handle.
func (w *World) Alive(e Entity) bool {
	return w.allocator.Alive(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.allocator.Count()
}

// Register registers component type C with the world and returns its
// id. Idempotent.
func Register[C any](w *World) ComponentId {
	return RegisterComponent[C](w.registry)
}

// MustComponentId returns the id C was registered under. An
// unregistered type is an engine wiring bug and panics.
func MustComponentId[C any](w *World) ComponentId {
	id, ok := ComponentIdFor[C](w.registry)
	if !ok {
		panic("ecs: component type " + reflect.TypeFor[C]().String() + " not registered")
	}
	return id
}

// AddComponent attaches value to e, migrating it between tables as
// needed. Returns false for a stale handle.
func AddComponent[C any](w *World, e Entity, value C) bool {
	if !w.allocator.Alive(e) {
		return false
	}
	id, ok := ComponentIdFor[C](w.registry)
	if !ok {
		panic("ecs: component type " + reflect.TypeFor[C]().String() + " not registered")
	}
	return w.storage.AddComponent(e, id, value)
}

// RemoveComponent detaches the component with the given id from e.
// Returns false for a stale handle or an absent component.
func (w *World) RemoveComponent(e Entity, id ComponentId) bool {
	if !w.allocator.Alive(e) {
		return false
	}
	return w.storage.RemoveComponent(e, id)
}

// HasComponent reports whether e currently has component C.
func HasComponent[C any](w *World, e Entity) bool {
	id, ok := ComponentIdFor[C](w.registry)
	if !ok {
		return false
	}
	return w.storage.Has(e, id)
}

// GetComponent returns a pointer to e's component cell. The second
// return is false for a stale handle or an absent component; the
// pointer stays valid until e's next migration.
func GetComponent[C any](w *World, e Entity) (*C, bool) {
	id, ok := ComponentIdFor[C](w.registry)
	if !ok {
		return nil, false
	}
	cell := w.storage.Get(e, id)
	if cell == nil {
		return nil, false
	}
	return cell.(*C), true
}

// Query returns the ids of every table whose shape is a superset of
// include and disjoint from exclude.
func (w *World) Query(include, exclude []ComponentId) []TableId {
	return w.storage.Query(include, exclude)
}

// AddResource stores value as the singleton for type R, replacing any
// prior value in place.
func AddResource[R any](w *World, value R) {
	addResource(&w.resources, value)
}

// Resource returns the singleton of type R. A missing resource is an
// engine wiring bug and panics.
func Resource[R any](w *World) *R {
	return getResource[R](&w.resources)
}

// TryResource returns the singleton of type R if present.
func TryResource[R any](w *World) (*R, bool) {
	return tryResource[R](&w.resources)
}

// RemoveResource removes and returns the singleton of type R.
func RemoveResource[R any](w *World) (R, bool) {
	return removeResource[R](&w.resources)
}

// AddLocalResource stores value in the thread-confined store. Local
// resources are only for the goroutine driving the frame loop; the
// scheduler never exposes them to systems running on the worker pool.
func AddLocalResource[R any](w *World, value R) {
	addResource(&w.local, value)
}

// LocalResource returns the thread-confined singleton of type R,
// panicking if absent.
func LocalResource[R any](w *World) *R {
	return getResource[R](&w.local)
}

// TryLocalResource returns the thread-confined singleton of type R if
// present.
func TryLocalResource[R any](w *World) (*R, bool) {
	return tryResource[R](&w.local)
}

// RemoveLocalResource removes and returns the thread-confined singleton
// of type R.
func RemoveLocalResource[R any](w *World) (R, bool) {
	return removeResource[R](&w.local)
}

// AddSystem registers a system into phase P. The phase must already be
// registered.
func AddSystem[P any](w *World, system System, opts ...SystemOption) {
	w.scheduler.register(PhaseIdFor[P](), system, opts...)
}

// RunPhase executes one phase (and its sub-phases) once, then applies
// the commands its systems buffered.
func RunPhase[P any](w *World, dt float64) {
	frame := newUpdateFrame(dt, w)
	w.scheduler.runPhase(w.scheduler.phases.must(PhaseIdFor[P]()), frame)
	frame.Commands.Flush(w)
}

// RunFrame executes every top-level phase once, in registered order,
// applying buffered commands after each phase so later phases observe
// earlier phases' structural changes.
func (w *World) RunFrame(dt float64) {
	frame := newUpdateFrame(dt, w)
	for _, p := range w.scheduler.phases.order {
		w.scheduler.runPhase(p, frame)
		frame.Commands.Flush(w)
	}
}

// Flush drains the event queue, repeating the invoke-observe-clear
// cycle until observers stop enqueueing new events.
func (w *World) Flush() {
	w.events.Flush(w)
}
