package ecs

import "iter"

// DenseMap is an array-backed associative container. Values live in a
// contiguous slice in insertion order and a hash index maps each key to
// its slice position, giving O(1) average lookup plus cheap iteration.
// Removal is swap-remove: the last entry moves into the freed slot and
// its index entry is rewritten, so ordering is only stable until the
// first Remove. The zero value is ready to use.
type DenseMap[K comparable, V any] struct {
	keys   []K
	values []V
	index  map[K]int
}

// Insert stores v under k, overwriting in place if k is already
// present. Returns true if a previous value was replaced.
func (m *DenseMap[K, V]) Insert(k K, v V) bool {
	if m.index == nil {
		m.index = make(map[K]int)
	}
	if i, ok := m.index[k]; ok {
		m.values[i] = v
		return true
	}
	m.index[k] = len(m.keys)
	m.keys = append(m.keys, k)
	m.values = append(m.values, v)
	return false
}

// Get returns the value stored under k.
func (m *DenseMap[K, V]) Get(k K) (V, bool) {
	if i, ok := m.index[k]; ok {
		return m.values[i], true
	}
	var zero V
	return zero, false
}

// GetMut returns a pointer to the value stored under k, or nil if k is
// absent. The pointer is invalidated by the next Insert or Remove.
func (m *DenseMap[K, V]) GetMut(k K) *V {
	if i, ok := m.index[k]; ok {
		return &m.values[i]
	}
	return nil
}

// Contains reports whether k is present.
func (m *DenseMap[K, V]) Contains(k K) bool {
	_, ok := m.index[k]
	return ok
}

// IndexOf returns the current slice position of k.
func (m *DenseMap[K, V]) IndexOf(k K) (int, bool) {
	i, ok := m.index[k]
	return i, ok
}

// At returns the key and value at slice position i.
func (m *DenseMap[K, V]) At(i int) (K, V) {
	return m.keys[i], m.values[i]
}

// Remove deletes k via swap-remove and returns the removed value.
func (m *DenseMap[K, V]) Remove(k K) (V, bool) {
	var zero V
	i, ok := m.index[k]
	if !ok {
		return zero, false
	}
	removed := m.values[i]
	last := len(m.keys) - 1
	if i < last {
		m.keys[i] = m.keys[last]
		m.values[i] = m.values[last]
		m.index[m.keys[i]] = i
	}
	m.keys = m.keys[:last]
	m.values[last] = zero
	m.values = m.values[:last]
	delete(m.index, k)
	return removed, true
}

// Len returns the number of entries.
func (m *DenseMap[K, V]) Len() int {
	return len(m.keys)
}

// Iter iterates entries in slice order.
func (m *DenseMap[K, V]) Iter() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := range m.keys {
			if !yield(m.keys[i], m.values[i]) {
				return
			}
		}
	}
}

// Drain iterates all entries and leaves the map empty afterwards.
func (m *DenseMap[K, V]) Drain() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		keys, values := m.keys, m.values
		m.keys = nil
		m.values = nil
		m.index = nil
		for i := range keys {
			if !yield(keys[i], values[i]) {
				return
			}
		}
	}
}

// DenseSet is the value-less counterpart of DenseMap: members live in a
// contiguous slice whose positions double as row numbers for callers
// that index parallel storage. The zero value is ready to use.
type DenseSet[K comparable] struct {
	items []K
	index map[K]int
}

// Add inserts k and returns its slice position. Adding a present member
// is a no-op that reports added=false.
func (s *DenseSet[K]) Add(k K) (pos int, added bool) {
	if s.index == nil {
		s.index = make(map[K]int)
	}
	if i, ok := s.index[k]; ok {
		return i, false
	}
	pos = len(s.items)
	s.index[k] = pos
	s.items = append(s.items, k)
	return pos, true
}

// Contains reports whether k is a member.
func (s *DenseSet[K]) Contains(k K) bool {
	_, ok := s.index[k]
	return ok
}

// IndexOf returns the slice position of k.
func (s *DenseSet[K]) IndexOf(k K) (int, bool) {
	i, ok := s.index[k]
	return i, ok
}

// At returns the member at slice position i.
func (s *DenseSet[K]) At(i int) K {
	return s.items[i]
}

// Remove deletes k via swap-remove and returns the position it
// vacated. The previously-last member now occupies that position.
func (s *DenseSet[K]) Remove(k K) (int, bool) {
	i, ok := s.index[k]
	if !ok {
		return 0, false
	}
	last := len(s.items) - 1
	if i < last {
		s.items[i] = s.items[last]
		s.index[s.items[i]] = i
	}
	var zero K
	s.items[last] = zero
	s.items = s.items[:last]
	delete(s.index, k)
	return i, true
}

// Len returns the number of members.
func (s *DenseSet[K]) Len() int {
	return len(s.items)
}

// Iter iterates members in slice order.
func (s *DenseSet[K]) Iter() iter.Seq[K] {
	return func(yield func(K) bool) {
		for i := range s.items {
			if !yield(s.items[i]) {
				return
			}
		}
	}
}

// Drain iterates all members and leaves the set empty afterwards.
func (s *DenseSet[K]) Drain() iter.Seq[K] {
	return func(yield func(K) bool) {
		items := s.items
		s.items = nil
		s.index = nil
		for i := range items {
			if !yield(items[i]) {
				return
			}
		}
	}
}
