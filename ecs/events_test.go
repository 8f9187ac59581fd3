package ecs_test

import (
	"sync"
	"testing"

	"github.com/plus3/husk/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type DamageEvent struct {
	Target ecs.Entity
	Amount int
}

type HealEvent struct {
	Target ecs.Entity
	Amount int
}

type LoadFinished struct {
	Asset string
}

type DependentsLoadable struct {
	Parent string
}

func TestEventInvokeRunsPerOccurrence(t *testing.T) {
	w := ecs.NewWorld()

	invoked := 0
	ecs.RegisterEvent(w, 0, func(_ *ecs.World, ev DamageEvent) any {
		invoked++
		return ev.Amount
	})

	w.Events().Add(DamageEvent{Amount: 5})
	w.Events().Add(DamageEvent{Amount: 7})
	w.Events().Add(DamageEvent{Amount: 2})
	w.Flush()

	assert.Equal(t, 3, invoked)
}

func TestObserverRunsOncePerPassWithOutputs(t *testing.T) {
	w := ecs.NewWorld()

	ecs.RegisterEvent(w, 0, func(_ *ecs.World, ev DamageEvent) any {
		return ev.Amount
	})

	var passes int
	var total int
	ecs.Observe[DamageEvent](w, func(_ *ecs.World, outputs []any) {
		passes++
		for _, out := range outputs {
			total += out.(int)
		}
	})

	w.Events().Add(DamageEvent{Amount: 5})
	w.Events().Add(DamageEvent{Amount: 7})
	w.Flush()

	// One pass, one observer call, both outputs accumulated
	assert.Equal(t, 1, passes)
	assert.Equal(t, 12, total)

	// Outputs were cleared: a new flush starts from scratch
	w.Events().Add(DamageEvent{Amount: 1})
	w.Flush()
	assert.Equal(t, 2, passes)
	assert.Equal(t, 13, total)
}

// With priorities 10 and 1, the high-priority type's observers must run
// fully before the low-priority type's, whatever the queue interleaving.
func TestObserverPriorityOrdering(t *testing.T) {
	w := ecs.NewWorld()

	ecs.RegisterEvent[DamageEvent](w, 10, nil)
	ecs.RegisterEvent[HealEvent](w, 1, nil)

	var order []string
	ecs.Observe[DamageEvent](w, func(_ *ecs.World, _ []any) {
		order = append(order, "damage")
	})
	ecs.Observe[HealEvent](w, func(_ *ecs.World, _ []any) {
		order = append(order, "heal")
	})

	w.Events().Add(HealEvent{Amount: 1})
	w.Events().Add(DamageEvent{Amount: 2})
	w.Events().Add(HealEvent{Amount: 3})
	w.Flush()

	require.Equal(t, []string{"damage", "heal"}, order)
}

func TestObserverCascadeDrainsInOneFlush(t *testing.T) {
	w := ecs.NewWorld()

	ecs.RegisterEvent(w, 5, func(_ *ecs.World, ev LoadFinished) any {
		return ev.Asset
	})
	ecs.RegisterEvent[DependentsLoadable](w, 0, nil)

	var loadable []string
	ecs.Observe[LoadFinished](w, func(w *ecs.World, outputs []any) {
		// Each finished load makes its dependents loadable
		for _, out := range outputs {
			ecs.Emit(w, DependentsLoadable{Parent: out.(string)})
		}
	})
	ecs.Observe[DependentsLoadable](w, func(_ *ecs.World, _ []any) {
		loadable = append(loadable, "pass")
	})

	ecs.Emit(w, LoadFinished{Asset: "level1"})
	w.Flush()

	// The cascade was processed by a later pass of the same Flush call
	assert.Equal(t, []string{"pass"}, loadable)
	assert.Equal(t, 0, w.Events().Stats().Pending)
}

func TestFlushEventsProcessesOneTypeOnly(t *testing.T) {
	w := ecs.NewWorld()

	damageInvoked := 0
	healInvoked := 0
	ecs.RegisterEvent(w, 0, func(_ *ecs.World, _ DamageEvent) any {
		damageInvoked++
		return nil
	})
	ecs.RegisterEvent(w, 0, func(_ *ecs.World, _ HealEvent) any {
		healInvoked++
		return nil
	})

	w.Events().Add(DamageEvent{})
	w.Events().Add(HealEvent{})
	w.Events().Add(DamageEvent{})

	ecs.FlushEvents[DamageEvent](w)

	assert.Equal(t, 2, damageInvoked)
	assert.Equal(t, 0, healInvoked)
	assert.Equal(t, 1, w.Events().Stats().Pending)

	w.Flush()
	assert.Equal(t, 1, healInvoked)
}

func TestDuplicateEventRegistrationPanics(t *testing.T) {
	w := ecs.NewWorld()
	ecs.RegisterEvent[DamageEvent](w, 0, nil)

	assert.Panics(t, func() {
		ecs.RegisterEvent[DamageEvent](w, 3, nil)
	})
}

func TestUnregisteredEventAddPanics(t *testing.T) {
	w := ecs.NewWorld()

	assert.Panics(t, func() {
		w.Events().Add(DamageEvent{})
	})
	assert.Panics(t, func() {
		ecs.Observe[DamageEvent](w, func(*ecs.World, []any) {})
	})
}

func TestInvokeMutatesWorldState(t *testing.T) {
	w := newTestWorld()

	ecs.RegisterEvent(w, 0, func(w *ecs.World, ev DamageEvent) any {
		if h, ok := ecs.GetComponent[Health](w, ev.Target); ok {
			h.Current -= ev.Amount
		}
		return nil
	})

	e := w.Spawn()
	ecs.AddComponent(w, e, Health{Current: 100, Max: 100})

	ecs.Emit(w, DamageEvent{Target: e, Amount: 30})
	ecs.Emit(w, DamageEvent{Target: e, Amount: 20})
	w.Flush()

	h, _ := ecs.GetComponent[Health](w, e)
	assert.Equal(t, 50, h.Current)
}

func TestConcurrentProducers(t *testing.T) {
	w := ecs.NewWorld()

	invoked := 0
	ecs.RegisterEvent(w, 0, func(_ *ecs.World, _ DamageEvent) any {
		invoked++
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w.Events().Add(DamageEvent{Amount: j})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, w.Events().Stats().Pending)
	w.Flush()
	assert.Equal(t, 800, invoked)
}
