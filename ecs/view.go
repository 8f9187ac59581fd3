package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// View represents a query for entities with a specific combination of
// components. The type T should be a struct with pointer fields, one
// per component type; embedded fields are always required, and named
// fields can be marked optional with the `ecs:"optional"` struct tag.
type View[T any] struct {
	storage     *Storage
	ids         []ComponentId
	optional    []bool
	fieldOffset []uintptr
}

// NewView creates a view over storage for struct type T. Every
// component type referenced by T must already be registered.
func NewView[T any](storage *Storage) *View[T] {
	var zero T
	structType := reflect.TypeOf(zero)

	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v := &View[T]{
		storage:     storage,
		ids:         make([]ComponentId, 0, structType.NumField()),
		optional:    make([]bool, 0, structType.NumField()),
		fieldOffset: make([]uintptr, 0, structType.NumField()),
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types")
		}

		v.ids = append(v.ids, storage.registry.mustIdOf(field.Type.Elem()))
		v.fieldOffset = append(v.fieldOffset, field.Offset)

		// Embedded fields (field.Anonymous) are always required.
		isOptional := false
		if !field.Anonymous {
			tag := field.Tag.Get("ecs")
			if tag != "" {
				if tag == "optional" {
					isOptional = true
				} else {
					panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
				}
			}
		}
		v.optional = append(v.optional, isOptional)
	}

	return v
}

// matchesTable reports whether a table's shape carries every required
// component of the view.
func (v *View[T]) matchesTable(t *EntityTable) bool {
	for i, id := range v.ids {
		if !v.optional[i] && !t.Contains(id) {
			return false
		}
	}
	return true
}

// tableColumns resolves each view field to the table's column for that
// component, nil where an optional component is absent.
func (v *View[T]) tableColumns(t *EntityTable) []Column {
	cols := make([]Column, len(v.ids))
	for i, id := range v.ids {
		cols[i] = t.Column(id)
	}
	return cols
}

// populate writes component pointers for one row into the result struct
// at ptr using the pre-computed field offsets, avoiding reflection in
// the hot path. Returns false if a required component is missing.
func (v *View[T]) populate(ptr unsafe.Pointer, cols []Column, row int) bool {
	for i := range v.ids {
		fieldPtr := unsafe.Pointer(uintptr(ptr) + v.fieldOffset[i])

		if cols[i] == nil {
			if !v.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		cell := cols[i].Row(row)
		if cell == nil {
			return false
		}
		// Extract the data pointer from the interface value.
		*(*unsafe.Pointer)(fieldPtr) = (*iface)(unsafe.Pointer(&cell)).data
	}
	return true
}

// Fill populates the provided struct pointer with component pointers
// for the given entity. Returns false if the entity is stale, gone, or
// missing a required component; optional fields are set to nil when
// absent.
func (v *View[T]) Fill(e Entity, ptr *T) bool {
	t, row, ok := v.storage.tableOf(e)
	if !ok {
		return false
	}
	return v.populate(unsafe.Pointer(ptr), v.tableColumns(t), row)
}

// Iter iterates every matching entity across all matching tables. The
// yielded struct's pointer fields alias live column storage; they are
// valid until the next structural change.
func (v *View[T]) Iter() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		for _, t := range v.storage.tables.Iter() {
			if !v.matchesTable(t) {
				continue
			}
			cols := v.tableColumns(t)

			var result T
			resultPtr := unsafe.Pointer(&result)
			for row := 0; row < t.Len(); row++ {
				if !v.populate(resultPtr, cols, row) {
					continue
				}
				if !yield(t.EntityAt(row), result) {
					return
				}
			}
		}
	}
}

// Count returns the number of entities matching the view's required
// set.
func (v *View[T]) Count() int {
	n := 0
	for _, t := range v.storage.tables.Iter() {
		if v.matchesTable(t) {
			n += t.Len()
		}
	}
	return n
}

// Access reports conservative write access to every component type in
// the view, since filled structs hand out mutable pointers.
func (v *View[T]) Access() Access {
	var a Access
	for _, id := range v.ids {
		a.Writes = append(a.Writes, AccessKey{kind: accessComponent, key: uint32(id)})
	}
	return a
}
