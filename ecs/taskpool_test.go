package ecs_test

import (
	"sync/atomic"
	"testing"

	"github.com/plus3/husk/ecs"
	"github.com/stretchr/testify/assert"
)

func TestScopedTaskPoolRunsAllTasks(t *testing.T) {
	pool := ecs.NewScopedTaskPool(4)

	var sum atomic.Int64
	for i := 1; i <= 100; i++ {
		pool.Go(func() {
			sum.Add(int64(i))
		})
	}
	pool.Wait()

	assert.Equal(t, int64(5050), sum.Load())
}

func TestScopedTaskPoolBoundsParallelism(t *testing.T) {
	pool := ecs.NewScopedTaskPool(2)

	var inFlight atomic.Int64
	var exceeded atomic.Bool
	for i := 0; i < 20; i++ {
		pool.Go(func() {
			if inFlight.Add(1) > 2 {
				exceeded.Store(true)
			}
			inFlight.Add(-1)
		})
	}
	pool.Wait()

	assert.False(t, exceeded.Load())
}

func TestScopedTaskPoolDefaultLimit(t *testing.T) {
	pool := ecs.NewScopedTaskPool(0)

	done := false
	pool.Go(func() { done = true })
	pool.Wait()
	assert.True(t, done)
}
