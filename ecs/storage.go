package ecs

import (
	"iter"

	"github.com/TheBitDrifter/mask"
	"github.com/kamstrup/intmap"
)

type entityLocation struct {
	table TableId
	row   uint32
}

// Storage groups entities by their exact, unordered component set into
// one EntityTable per distinct set and owns all component data. It
// tracks each entity's table and row so lookups stay O(1) as entities
// migrate between tables.
type Storage struct {
	registry  *ComponentRegistry
	tables    DenseMap[TableId, *EntityTable]
	locations *intmap.Map[uint32, entityLocation]
}

// NewStorage creates an empty archetype store backed by the given
// component registry.
func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		registry:  registry,
		locations: intmap.New[uint32, entityLocation](256),
	}
}

// Registry returns the component registry backing this storage.
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

// AddEntity places a just-allocated entity into the table for the
// empty component set. Components added later migrate it out.
func (s *Storage) AddEntity(e Entity) {
	t := s.getOrBuildTable(NewTableBuilder(s.registry))
	row := t.insert(e, nil)
	s.locations.Put(e.id, entityLocation{table: t.id, row: uint32(row)})
}

// RemoveEntity deletes e's row and all its component data. Returns
// false for a stale or unknown handle.
func (s *Storage) RemoveEntity(e Entity) bool {
	loc, ok := s.locations.Get(e.id)
	if !ok {
		return false
	}
	t, _ := s.tables.Get(loc.table)
	moved, hasMoved, ok := t.removeRow(e)
	if !ok {
		return false
	}
	s.locations.Del(e.id)
	if hasMoved {
		s.locations.Put(moved.id, entityLocation{table: t.id, row: loc.row})
	}
	return true
}

// AddComponent attaches value to e under the given component id. If the
// shape does not already include the component this migrates e: the row
// is inserted into the destination table cell-for-cell, then removed
// from the source, all within this call so e is never in zero or two
// tables. An existing cell is overwritten in place without migration.
func (s *Storage) AddComponent(e Entity, cid ComponentId, value any) bool {
	src, row, ok := s.tableOf(e)
	if !ok {
		return false
	}
	if src.Contains(cid) {
		src.Column(cid).Set(row, value)
		return true
	}
	dst := s.getOrBuildTable(NewTableBuilder(s.registry).FromTable(src).With(cid))
	s.moveRow(e, src, dst, cid, value)
	return true
}

// RemoveComponent detaches a component from e, migrating it to the
// table without that column. Returns false if e is stale or its shape
// lacks the component.
func (s *Storage) RemoveComponent(e Entity, cid ComponentId) bool {
	src, _, ok := s.tableOf(e)
	if !ok || !src.Contains(cid) {
		return false
	}
	dst := s.getOrBuildTable(NewTableBuilder(s.registry).FromTable(src).Without(cid))
	s.moveRow(e, src, dst, cid, nil)
	return true
}

// moveRow copies e's surviving cells from src into dst, then removes
// the stale src row. Insertion happens first: the source pointers stay
// valid until Push has copied each value, and the whole move runs
// synchronously with no suspension point.
func (s *Storage) moveRow(e Entity, src, dst *EntityTable, changed ComponentId, added any) {
	srcRow, _ := src.RowOf(e)
	cells := make([]any, len(dst.ids))
	for i, cid := range dst.ids {
		if cid == changed {
			cells[i] = added
			continue
		}
		cells[i] = src.Column(cid).Row(srcRow)
	}
	dstRow := dst.insert(e, cells)

	moved, hasMoved, _ := src.removeRow(e)
	s.locations.Put(e.id, entityLocation{table: dst.id, row: uint32(dstRow)})
	if hasMoved {
		s.locations.Put(moved.id, entityLocation{table: src.id, row: uint32(srcRow)})
	}
}

// Get returns a pointer (*T as any) to e's component cell, or nil.
func (s *Storage) Get(e Entity, cid ComponentId) any {
	t, row, ok := s.tableOf(e)
	if !ok || !t.Contains(cid) {
		return nil
	}
	return t.Column(cid).Row(row)
}

// Has reports whether e currently has the component.
func (s *Storage) Has(e Entity, cid ComponentId) bool {
	t, _, ok := s.tableOf(e)
	return ok && t.Contains(cid)
}

// Query returns the ids of every table whose component set is a
// superset of include and disjoint from exclude. Matching is a linear
// scan comparing shape masks.
func (s *Storage) Query(include, exclude []ComponentId) []TableId {
	var want, avoid mask.Mask
	for _, cid := range include {
		want.Mark(s.registry.info(cid).bit)
	}
	for _, cid := range exclude {
		avoid.Mark(s.registry.info(cid).bit)
	}

	out := make([]TableId, 0, s.tables.Len())
	for id, t := range s.tables.Iter() {
		if t.shape.ContainsAll(want) && t.shape.ContainsNone(avoid) {
			out = append(out, id)
		}
	}
	return out
}

// Table returns the table with the given id, or nil.
func (s *Storage) Table(id TableId) *EntityTable {
	t, _ := s.tables.Get(id)
	return t
}

// Tables iterates every table in creation order (until table removal,
// which does not happen in practice).
func (s *Storage) Tables() iter.Seq2[TableId, *EntityTable] {
	return s.tables.Iter()
}

// TableCount returns the number of distinct shapes materialized so far.
func (s *Storage) TableCount() int {
	return s.tables.Len()
}

func (s *Storage) tableOf(e Entity) (*EntityTable, int, bool) {
	loc, ok := s.locations.Get(e.id)
	if !ok {
		return nil, 0, false
	}
	t, _ := s.tables.Get(loc.table)
	// A stale handle carries a dead generation and is not in the set.
	row, ok := t.RowOf(e)
	if !ok {
		return nil, 0, false
	}
	return t, row, true
}

func (s *Storage) getOrBuildTable(b *TableBuilder) *EntityTable {
	_, id, _ := b.shape()
	if t, ok := s.tables.Get(id); ok {
		return t
	}
	t := b.build()
	s.tables.Insert(t.id, t)
	return t
}
