package ecs

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ScopedTaskPool fans ad-hoc work out across a bounded set of workers
// for the duration of one scope, typically inside a single system body.
// Wait must be called before the scope exits; once submitted, tasks run
// to completion.
type ScopedTaskPool struct {
	g errgroup.Group
}

// NewScopedTaskPool creates a pool bounded by limit workers. A limit
// below one uses the available hardware parallelism.
func NewScopedTaskPool(limit int) *ScopedTaskPool {
	if limit < 1 {
		limit = runtime.GOMAXPROCS(0)
	}
	p := &ScopedTaskPool{}
	p.g.SetLimit(limit)
	return p
}

// Go submits a task, blocking while the pool is saturated.
func (p *ScopedTaskPool) Go(fn func()) {
	p.g.Go(func() error {
		fn()
		return nil
	})
}

// Wait joins every submitted task.
func (p *ScopedTaskPool) Wait() {
	_ = p.g.Wait()
}
