package ecs

// Entity is a generational handle to a spawned game object. The id is
// reused after despawn; the generation is bumped on every reuse, so a
// handle held across a despawn goes stale instead of silently pointing
// at a different entity. The zero Entity is never issued.
type Entity struct {
	id  uint32
	gen uint32
}

// Id returns the numeric id. Ids are dense and reused.
func (e Entity) Id() uint32 {
	return e.id
}

// Generation returns the reuse counter paired with the id.
func (e Entity) Generation() uint32 {
	return e.gen
}

// entityAllocator issues generation-tagged entity handles. Freed ids are
// reused LIFO so recently-vacated slots are filled first.
type entityAllocator struct {
	gens []uint32 // live generation per id
	free []uint32
}

// Allocate returns a fresh Entity in O(1).
func (a *entityAllocator) Allocate() Entity {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return Entity{id: id, gen: a.gens[id]}
	}
	a.gens = append(a.gens, 1)
	return Entity{id: uint32(len(a.gens) - 1), gen: 1}
}

// Free returns e's id to the allocator and bumps its generation,
// invalidating every outstanding copy of the handle. A handle whose
// generation does not match the live one is stale; Free then does
// nothing and reports false.
func (a *entityAllocator) Free(e Entity) bool {
	if !a.Alive(e) {
		return false
	}
	a.gens[e.id]++
	a.free = append(a.free, e.id)
	return true
}

// Alive reports whether e is the currently-live handle for its id.
func (a *entityAllocator) Alive(e Entity) bool {
	return e.gen != 0 && e.id < uint32(len(a.gens)) && a.gens[e.id] == e.gen
}

// Count returns the number of live entities.
func (a *entityAllocator) Count() int {
	return len(a.gens) - len(a.free)
}
