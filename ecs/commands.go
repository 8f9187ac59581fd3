package ecs

import (
	"reflect"
	"sync"
)

// Commands buffers structural changes queued by systems during a wave
// and applies them after the phase's waves have joined, so tables never
// change shape under a running system. Systems run on worker threads,
// so the buffer is mutex-guarded like the event queue.
type Commands struct {
	mu      sync.Mutex
	spawns  []spawnCommand
	deletes []Entity
	adds    []addComponentCommand
	removes []removeComponentCommand
	defers  []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type spawnCommand struct {
	components []any
}

type addComponentCommand struct {
	entity    Entity
	component any
}

type removeComponentCommand struct {
	entity Entity
	typ    reflect.Type
}

// Defer queues an arbitrary function to run after structural changes.
func (c *Commands) Defer(fn func()) {
	c.mu.Lock()
	c.defers = append(c.defers, fn)
	c.mu.Unlock()
}

// Spawn queues an entity spawn with the given components.
func (c *Commands) Spawn(components ...any) {
	c.mu.Lock()
	c.spawns = append(c.spawns, spawnCommand{components: components})
	c.mu.Unlock()
}

// Despawn queues an entity despawn.
func (c *Commands) Despawn(e Entity) {
	c.mu.Lock()
	c.deletes = append(c.deletes, e)
	c.mu.Unlock()
}

// AddComponent queues a component addition.
func (c *Commands) AddComponent(e Entity, component any) {
	c.mu.Lock()
	c.adds = append(c.adds, addComponentCommand{entity: e, component: component})
	c.mu.Unlock()
}

// RemoveComponent queues a component removal by type.
func (c *Commands) RemoveComponent(e Entity, typ reflect.Type) {
	c.mu.Lock()
	c.removes = append(c.removes, removeComponentCommand{entity: e, typ: typ})
	c.mu.Unlock()
}

// Flush applies all buffered commands to the world and resets the
// buffer. Despawns run first so later ops against a despawned entity
// fall through as stale-handle no-ops.
func (c *Commands) Flush(w *World) {
	c.mu.Lock()
	spawns := c.spawns
	deletes := c.deletes
	adds := c.adds
	removes := c.removes
	defers := c.defers
	c.spawns = nil
	c.deletes = nil
	c.adds = nil
	c.removes = nil
	c.defers = nil
	c.mu.Unlock()

	for _, e := range deletes {
		w.Despawn(e)
	}
	for _, cmd := range removes {
		if id, ok := w.registry.idOf(cmd.typ); ok {
			w.RemoveComponent(cmd.entity, id)
		}
	}
	for _, cmd := range adds {
		id := w.registry.mustIdOf(reflect.TypeOf(cmd.component))
		w.storage.AddComponent(cmd.entity, id, cmd.component)
	}
	for _, cmd := range spawns {
		e := w.Spawn()
		for _, component := range cmd.components {
			id := w.registry.mustIdOf(reflect.TypeOf(component))
			w.storage.AddComponent(e, id, component)
		}
	}
	for _, fn := range defers {
		fn()
	}
}
