package ecs

import (
	"iter"
	"slices"

	"github.com/TheBitDrifter/mask"
)

// TableId identifies a table by the hash of its sorted component-id
// list, so the same component set always lands on the same table no
// matter the order components were added.
type TableId uint32

// EntityTable stores every entity sharing one exact component set. The
// entity set defines the row numbering; each component type present has
// one column holding exactly one value per row.
type EntityTable struct {
	id       TableId
	ids      []ComponentId // sorted ascending
	shape    mask.Mask
	entities DenseSet[Entity]
	columns  DenseMap[ComponentId, Column]
}

func newEntityTable(id TableId, ids []ComponentId, shape mask.Mask, registry *ComponentRegistry) *EntityTable {
	t := &EntityTable{
		id:    id,
		ids:   ids,
		shape: shape,
	}
	for _, cid := range ids {
		t.columns.Insert(cid, registry.info(cid).newColumn())
	}
	return t
}

// Id returns the table's shape hash.
func (t *EntityTable) Id() TableId {
	return t.id
}

// ComponentIds returns the table's sorted component-id list. The slice
// must not be mutated.
func (t *EntityTable) ComponentIds() []ComponentId {
	return t.ids
}

// Mask returns the table's shape as a bitmask over registry bit
// positions.
func (t *EntityTable) Mask() mask.Mask {
	return t.shape
}

// Len returns the number of rows.
func (t *EntityTable) Len() int {
	return t.entities.Len()
}

// Contains reports whether the table's shape includes the component.
func (t *EntityTable) Contains(id ComponentId) bool {
	return t.columns.Contains(id)
}

// Column returns the storage for one component type, or nil if the
// shape does not include it.
func (t *EntityTable) Column(id ComponentId) Column {
	c, _ := t.columns.Get(id)
	return c
}

// RowOf returns the row currently holding e.
func (t *EntityTable) RowOf(e Entity) (int, bool) {
	return t.entities.IndexOf(e)
}

// EntityAt returns the entity stored at row.
func (t *EntityTable) EntityAt(row int) Entity {
	return t.entities.At(row)
}

// Entities iterates the table's entities in row order.
func (t *EntityTable) Entities() iter.Seq[Entity] {
	return t.entities.Iter()
}

// insert appends e with cells aligned to the table's sorted id list and
// returns the new row. Every column grows by exactly one row, keeping
// the column/entity-set row invariant.
func (t *EntityTable) insert(e Entity, cells []any) int {
	row, added := t.entities.Add(e)
	if !added {
		panic("ecs: entity already present in table")
	}
	for i, cid := range t.ids {
		col, _ := t.columns.Get(cid)
		col.Push(cells[i])
	}
	return row
}

// removeRow swap-removes e's row from the entity set and every column.
// If another entity was moved into the vacated row it is returned so
// the caller can fix up its location.
func (t *EntityTable) removeRow(e Entity) (moved Entity, hasMoved bool, ok bool) {
	row, ok := t.entities.Remove(e)
	if !ok {
		return Entity{}, false, false
	}
	for _, cid := range t.ids {
		col, _ := t.columns.Get(cid)
		col.SwapRemove(row)
	}
	if row < t.entities.Len() {
		return t.entities.At(row), true, true
	}
	return Entity{}, false, true
}

// TableBuilder stages a component set before it is frozen into an
// EntityTable. It is used both when constructing new tables and when
// computing the destination shape for a component add/remove migration.
type TableBuilder struct {
	registry *ComponentRegistry
	ids      []ComponentId
}

// NewTableBuilder creates a builder for an empty component set.
func NewTableBuilder(registry *ComponentRegistry) *TableBuilder {
	return &TableBuilder{registry: registry}
}

// FromTable seeds the builder with an existing table's component set.
func (b *TableBuilder) FromTable(t *EntityTable) *TableBuilder {
	b.ids = append(b.ids[:0], t.ids...)
	return b
}

// With adds component ids to the staged set, ignoring duplicates.
func (b *TableBuilder) With(ids ...ComponentId) *TableBuilder {
	for _, id := range ids {
		if !slices.Contains(b.ids, id) {
			b.ids = append(b.ids, id)
		}
	}
	return b
}

// Without removes component ids from the staged set.
func (b *TableBuilder) Without(ids ...ComponentId) *TableBuilder {
	for _, id := range ids {
		if i := slices.Index(b.ids, id); i >= 0 {
			b.ids = slices.Delete(b.ids, i, i+1)
		}
	}
	return b
}

// ShapeId returns the canonical table id of the staged component set.
func (b *TableBuilder) ShapeId() TableId {
	_, id, _ := b.shape()
	return id
}

// shape canonicalizes the staged set: ids sorted ascending, the table
// id hashed over them, and the registry-bit mask marked for each.
func (b *TableBuilder) shape() ([]ComponentId, TableId, mask.Mask) {
	ids := slices.Clone(b.ids)
	slices.Sort(ids)

	var h uint32 = 2166136261
	const prime uint32 = 16777619
	var m mask.Mask
	for _, id := range ids {
		for shift := 0; shift < 32; shift += 8 {
			h ^= uint32(id) >> shift & 0xFF
			h *= prime
		}
		m.Mark(b.registry.info(id).bit)
	}
	return ids, TableId(h), m
}

// build freezes the staged set into an empty EntityTable, seeding one
// empty column per component type.
func (b *TableBuilder) build() *EntityTable {
	ids, id, m := b.shape()
	return newEntityTable(id, ids, m, b.registry)
}
