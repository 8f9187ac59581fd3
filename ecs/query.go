package ecs

import (
	"iter"
	"unsafe"
)

// Query wraps a View with caching for repeated iteration. Matching
// tables are cached until the table population changes, and entity and
// component arrays are rebuilt once per frame by the scheduler before
// the owning system runs.
type Query[T any] struct {
	view           *View[T]
	storage        *Storage
	cachedTables   []*EntityTable
	lastTableCount int

	cachedEntities   []Entity
	cachedComponents []T
	cacheValid       bool
}

// NewQuery creates a new Query with table-level caching.
func NewQuery[T any](storage *Storage) *Query[T] {
	return &Query[T]{
		view:           NewView[T](storage),
		storage:        storage,
		lastTableCount: -1,
	}
}

// Init initializes or re-initializes the Query with a storage. Called
// by the scheduler during system registration.
func (q *Query[T]) Init(storage *Storage) {
	q.view = NewView[T](storage)
	q.storage = storage
	q.lastTableCount = -1
	q.cacheValid = false
}

// Execute rebuilds the entity and component caches for this frame.
// Called automatically by the scheduler before the owning system runs.
func (q *Query[T]) Execute() {
	q.invalidateIfNeeded()
	q.ensureTableCache()

	q.cachedEntities = q.cachedEntities[:0]
	q.cachedComponents = q.cachedComponents[:0]

	for _, t := range q.cachedTables {
		cols := q.view.tableColumns(t)
		var result T
		resultPtr := unsafe.Pointer(&result)
		for row := 0; row < t.Len(); row++ {
			if !q.view.populate(resultPtr, cols, row) {
				continue
			}
			q.cachedEntities = append(q.cachedEntities, t.EntityAt(row))
			q.cachedComponents = append(q.cachedComponents, result)
		}
	}

	q.cacheValid = true
}

func (q *Query[T]) invalidateIfNeeded() {
	currentCount := q.storage.TableCount()
	if currentCount != q.lastTableCount {
		q.cachedTables = nil
		q.lastTableCount = currentCount
	}
}

func (q *Query[T]) ensureTableCache() {
	if q.cachedTables != nil {
		return
	}
	q.cachedTables = make([]*EntityTable, 0)
	for _, t := range q.storage.tables.Iter() {
		if q.view.matchesTable(t) {
			q.cachedTables = append(q.cachedTables, t)
		}
	}
}

// Iter returns an iterator over entities and component data. Panics if
// Execute has not been called this frame.
func (q *Query[T]) Iter() iter.Seq2[Entity, T] {
	if !q.cacheValid {
		panic("Query.Iter() called before Query.Execute()")
	}
	return func(yield func(Entity, T) bool) {
		for i := range q.cachedEntities {
			if !yield(q.cachedEntities[i], q.cachedComponents[i]) {
				return
			}
		}
	}
}

// Values returns an iterator over component data only. Panics if
// Execute has not been called this frame.
func (q *Query[T]) Values() iter.Seq[T] {
	if !q.cacheValid {
		panic("Query.Values() called before Query.Execute()")
	}
	return func(yield func(T) bool) {
		for i := range q.cachedComponents {
			if !yield(q.cachedComponents[i]) {
				return
			}
		}
	}
}

// Count returns the number of cached matches.
func (q *Query[T]) Count() int {
	return len(q.cachedEntities)
}

// Access reports the view's component writes for wave building.
func (q *Query[T]) Access() Access {
	return q.view.Access()
}
