package ecs_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/plus3/husk/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenseMapInsertGet(t *testing.T) {
	var m ecs.DenseMap[string, int]

	assert.False(t, m.Insert("a", 1))
	assert.False(t, m.Insert("b", 2))
	assert.Equal(t, 2, m.Len())

	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// Overwrite in place, no reorder
	assert.True(t, m.Insert("a", 10))
	assert.Equal(t, 2, m.Len())
	v, _ = m.Get("a")
	assert.Equal(t, 10, v)

	i, ok := m.IndexOf("a")
	assert.True(t, ok)
	assert.Equal(t, 0, i)
}

func TestDenseMapSwapRemove(t *testing.T) {
	var m ecs.DenseMap[string, int]
	m.Insert("a", 1)
	m.Insert("b", 2)
	m.Insert("c", 3)

	removed, ok := m.Remove("a")
	require.True(t, ok)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, m.Len())

	// "c" was moved into the freed slot and its index rewritten
	i, ok := m.IndexOf("c")
	require.True(t, ok)
	assert.Equal(t, 0, i)
	k, v := m.At(0)
	assert.Equal(t, "c", k)
	assert.Equal(t, 3, v)

	_, ok = m.Remove("a")
	assert.False(t, ok)
}

func TestDenseMapGetMut(t *testing.T) {
	var m ecs.DenseMap[int, string]
	m.Insert(7, "seven")

	p := m.GetMut(7)
	require.NotNil(t, p)
	*p = "SEVEN"

	v, _ := m.Get(7)
	assert.Equal(t, "SEVEN", v)

	assert.Nil(t, m.GetMut(8))
}

func TestDenseMapDrain(t *testing.T) {
	var m ecs.DenseMap[int, int]
	for i := 0; i < 5; i++ {
		m.Insert(i, i*i)
	}

	count := 0
	for k, v := range m.Drain() {
		assert.Equal(t, k*k, v)
		count++
	}
	assert.Equal(t, 5, count)
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Contains(0))
}

// Random insert/remove sequences must keep index positions consistent
// with slice contents and Len equal to distinct-inserted minus removed.
func TestDenseMapRandomizedInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var m ecs.DenseMap[int, int]
	reference := make(map[int]int)

	for step := 0; step < 2000; step++ {
		k := rng.Intn(100)
		if rng.Intn(3) == 0 {
			_, okGot := m.Remove(k)
			_, okWant := reference[k]
			assert.Equal(t, okWant, okGot)
			delete(reference, k)
		} else {
			v := rng.Int()
			m.Insert(k, v)
			reference[k] = v
		}
	}

	require.Equal(t, len(reference), m.Len())
	for k, want := range reference {
		got, ok := m.Get(k)
		require.True(t, ok, fmt.Sprintf("key %d missing", k))
		assert.Equal(t, want, got)

		i, ok := m.IndexOf(k)
		require.True(t, ok)
		require.Less(t, i, m.Len())
		atKey, atVal := m.At(i)
		assert.Equal(t, k, atKey)
		assert.Equal(t, want, atVal)
	}
}

func TestDenseSet(t *testing.T) {
	var s ecs.DenseSet[string]

	pos, added := s.Add("x")
	assert.True(t, added)
	assert.Equal(t, 0, pos)

	pos, added = s.Add("y")
	assert.True(t, added)
	assert.Equal(t, 1, pos)

	// Re-adding is a no-op reporting the existing position
	pos, added = s.Add("x")
	assert.False(t, added)
	assert.Equal(t, 0, pos)
	assert.Equal(t, 2, s.Len())

	s.Add("z")
	vacated, ok := s.Remove("x")
	require.True(t, ok)
	assert.Equal(t, 0, vacated)
	assert.Equal(t, "z", s.At(0)) // last member moved into the hole
	assert.False(t, s.Contains("x"))

	members := make([]string, 0, s.Len())
	for k := range s.Iter() {
		members = append(members, k)
	}
	assert.ElementsMatch(t, []string{"y", "z"}, members)
}

func TestDenseSetDrain(t *testing.T) {
	var s ecs.DenseSet[int]
	for i := 0; i < 4; i++ {
		s.Add(i)
	}
	seen := 0
	for range s.Drain() {
		seen++
	}
	assert.Equal(t, 4, seen)
	assert.Equal(t, 0, s.Len())
}
