package ecs_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/plus3/husk/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddGetComponent(t *testing.T) {
	w := newTestWorld()

	e := w.Spawn()
	require.True(t, ecs.AddComponent(w, e, Position{X: 3.0, Y: 4.0}))
	require.True(t, ecs.AddComponent(w, e, Name{Value: "Test Entity"}))

	pos, ok := ecs.GetComponent[Position](w, e)
	require.True(t, ok)
	assert.Equal(t, float32(3.0), pos.X)
	assert.Equal(t, float32(4.0), pos.Y)

	name, ok := ecs.GetComponent[Name](w, e)
	require.True(t, ok)
	assert.Equal(t, "Test Entity", name.Value)

	// Never-added component
	_, ok = ecs.GetComponent[Velocity](w, e)
	assert.False(t, ok)
	assert.False(t, ecs.HasComponent[Velocity](w, e))
}

func TestAddComponentOverwritesInPlace(t *testing.T) {
	w := newTestWorld()

	e := w.Spawn()
	ecs.AddComponent(w, e, Score(10))
	ecs.AddComponent(w, e, Score(99))

	score, ok := ecs.GetComponent[Score](w, e)
	require.True(t, ok)
	assert.Equal(t, Score(99), *score)

	// No second table was created for the same shape
	ids := w.Query([]ecs.ComponentId{ecs.MustComponentId[Score](w)}, nil)
	assert.Len(t, ids, 1)
}

func TestComponentPointerMutation(t *testing.T) {
	w := newTestWorld()

	e := w.Spawn()
	ecs.AddComponent(w, e, Health{Current: 50, Max: 100})

	h, ok := ecs.GetComponent[Health](w, e)
	require.True(t, ok)
	h.Current = 75

	h2, _ := ecs.GetComponent[Health](w, e)
	assert.Equal(t, 75, h2.Current)
}

func TestRemoveComponentMigration(t *testing.T) {
	w := newTestWorld()

	e := w.Spawn()
	ecs.AddComponent(w, e, Position{X: 1, Y: 2})
	ecs.AddComponent(w, e, Velocity{DX: 3, DY: 4})

	velId := ecs.MustComponentId[Velocity](w)
	require.True(t, w.RemoveComponent(e, velId))

	assert.False(t, ecs.HasComponent[Velocity](w, e))
	pos, ok := ecs.GetComponent[Position](w, e)
	require.True(t, ok)
	assert.Equal(t, float32(1), pos.X)

	// Removing again reports absence
	assert.False(t, w.RemoveComponent(e, velId))
}

// Adding then removing a component must leave every other component
// value unchanged and land the entity back in its original table.
func TestMigrationPreservesUnrelatedData(t *testing.T) {
	w := newTestWorld()

	e := w.Spawn()
	ecs.AddComponent(w, e, Position{X: 1.5, Y: -2.5})
	ecs.AddComponent(w, e, Name{Value: "keeper"})
	ecs.AddComponent(w, e, Inventory{Items: []string{"sword", "torch"}})

	posId := ecs.MustComponentId[Position](w)
	nameId := ecs.MustComponentId[Name](w)
	invId := ecs.MustComponentId[Inventory](w)
	startTables := w.Query([]ecs.ComponentId{posId, nameId, invId}, nil)
	require.Len(t, startTables, 1)

	ecs.AddComponent(w, e, Velocity{DX: 1})
	require.True(t, w.RemoveComponent(e, ecs.MustComponentId[Velocity](w)))

	pos, _ := ecs.GetComponent[Position](w, e)
	assert.Equal(t, Position{X: 1.5, Y: -2.5}, *pos)
	name, _ := ecs.GetComponent[Name](w, e)
	assert.Equal(t, "keeper", name.Value)
	inv, _ := ecs.GetComponent[Inventory](w, e)
	assert.Equal(t, []string{"sword", "torch"}, inv.Items)

	endTables := w.Query([]ecs.ComponentId{posId, nameId, invId}, []ecs.ComponentId{ecs.MustComponentId[Velocity](w)})
	require.Len(t, endTables, 1)
	assert.Equal(t, startTables[0], endTables[0])
}

func TestMigrationFixesUpMovedRows(t *testing.T) {
	w := newTestWorld()

	// Three entities share a table; migrating the first one swap-moves
	// the last into its row. The moved entity's data must stay reachable.
	a := w.Spawn()
	b := w.Spawn()
	c := w.Spawn()
	for i, e := range []ecs.Entity{a, b, c} {
		ecs.AddComponent(w, e, Score(i*10))
	}

	ecs.AddComponent(w, a, Tag("migrated"))

	for i, e := range []ecs.Entity{a, b, c} {
		score, ok := ecs.GetComponent[Score](w, e)
		require.True(t, ok, fmt.Sprintf("entity %d lost its score", i))
		assert.Equal(t, Score(i*10), *score)
	}
}

func TestDespawnRemovesRowAndData(t *testing.T) {
	w := newTestWorld()

	e := w.Spawn()
	other := w.Spawn()
	ecs.AddComponent(w, e, Position{X: 1})
	ecs.AddComponent(w, other, Position{X: 2})

	require.True(t, w.Despawn(e))

	_, ok := ecs.GetComponent[Position](w, e)
	assert.False(t, ok)

	// The surviving entity is untouched by the swap-remove
	pos, ok := ecs.GetComponent[Position](w, other)
	require.True(t, ok)
	assert.Equal(t, float32(2), pos.X)
}

func TestCanonicalTableRegardlessOfAddOrder(t *testing.T) {
	w := newTestWorld()

	a := w.Spawn()
	ecs.AddComponent(w, a, Position{})
	ecs.AddComponent(w, a, Velocity{})

	b := w.Spawn()
	ecs.AddComponent(w, b, Velocity{})
	ecs.AddComponent(w, b, Position{})

	ids := w.Query([]ecs.ComponentId{
		ecs.MustComponentId[Position](w),
		ecs.MustComponentId[Velocity](w),
	}, nil)
	require.Len(t, ids, 1)
	assert.Equal(t, 2, w.Storage().Table(ids[0]).Len())
}

// Query results cross-checked against a brute-force scan over a random
// population of component-set shapes.
func TestQueryCompleteness(t *testing.T) {
	w := newTestWorld()
	rng := rand.New(rand.NewSource(7))

	posId := ecs.MustComponentId[Position](w)
	velId := ecs.MustComponentId[Velocity](w)
	aiId := ecs.MustComponentId[AI](w)

	for i := 0; i < 200; i++ {
		e := w.Spawn()
		if rng.Intn(2) == 0 {
			ecs.AddComponent(w, e, Position{X: float32(i)})
		}
		if rng.Intn(2) == 0 {
			ecs.AddComponent(w, e, Velocity{DX: float32(i)})
		}
		if rng.Intn(2) == 0 {
			ecs.AddComponent(w, e, AI{State: i})
		}
		if rng.Intn(2) == 0 {
			ecs.AddComponent(w, e, Score(i))
		}
	}

	got := w.Query([]ecs.ComponentId{posId, velId}, []ecs.ComponentId{aiId})

	want := make([]ecs.TableId, 0)
	for id, table := range w.Storage().Tables() {
		if table.Contains(posId) && table.Contains(velId) && !table.Contains(aiId) {
			want = append(want, id)
		}
	}
	assert.ElementsMatch(t, want, got)

	for _, id := range got {
		table := w.Storage().Table(id)
		for e := range table.Entities() {
			assert.True(t, ecs.HasComponent[Position](w, e))
			assert.True(t, ecs.HasComponent[Velocity](w, e))
			assert.False(t, ecs.HasComponent[AI](w, e))
		}
	}
}

func TestTableBuilderShapes(t *testing.T) {
	w := newTestWorld()
	reg := w.Registry()

	posId := ecs.MustComponentId[Position](w)
	velId := ecs.MustComponentId[Velocity](w)

	a := ecs.NewTableBuilder(reg).With(posId, velId)
	b := ecs.NewTableBuilder(reg).With(velId).With(posId, posId)
	c := ecs.NewTableBuilder(reg).With(posId, velId).Without(velId)

	assert.Equal(t, a.ShapeId(), b.ShapeId())
	assert.NotEqual(t, a.ShapeId(), c.ShapeId())
	assert.Equal(t, ecs.NewTableBuilder(reg).With(posId).ShapeId(), c.ShapeId())
}
