package ecs

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

type queryRefresher interface {
	Execute()
}

type systemEntry struct {
	sys     System
	name    string
	access  Access
	after   []string
	queries []queryRefresher
	stats   *systemStatsInternal
}

// SystemOption adjusts how a system is registered.
type SystemOption func(*systemEntry)

// Named overrides the name derived from the system's type.
func Named(name string) SystemOption {
	return func(e *systemEntry) { e.name = name }
}

// RunAfter adds an explicit ordering edge: the system only runs in a
// wave after the named systems' waves, whether or not their access sets
// conflict.
func RunAfter(names ...string) SystemOption {
	return func(e *systemEntry) { e.after = append(e.after, names...) }
}

// WithAccess merges extra declared access into what the scheduler
// derives from the system's Query and Res fields.
func WithAccess(a Access) SystemOption {
	return func(e *systemEntry) { e.access = e.access.merge(a) }
}

// Scheduler groups each phase's systems into dependency-free waves and
// executes each wave concurrently on a bounded worker pool, joining
// before the next wave starts. Systems across waves always observe all
// writes from earlier waves; systems inside one wave have no relative
// ordering and never conflict by construction.
type Scheduler struct {
	world   *World
	phases  *phaseList
	workers int
	entries []*systemEntry
}

func newScheduler(w *World) *Scheduler {
	return &Scheduler{
		world:   w,
		phases:  &phaseList{},
		workers: runtime.GOMAXPROCS(0),
	}
}

// SetWorkers bounds the per-wave worker pool. Values below one reset to
// the available hardware parallelism.
func (s *Scheduler) SetWorkers(n int) {
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	s.workers = n
}

// register wires a system into a phase: reflection-initializes its
// Query and Res fields, derives the access set, and invalidates the
// phase's cached waves.
func (s *Scheduler) register(phaseId PhaseId, system System, opts ...SystemOption) {
	p := s.phases.must(phaseId)

	entry := &systemEntry{sys: system}

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	entry.name = systemType.Name()

	s.initializeFields(system, entry)
	if declarer, ok := system.(AccessDeclarer); ok {
		entry.access = entry.access.merge(declarer.Access())
	}
	for _, opt := range opts {
		opt(entry)
	}

	entry.stats = &systemStatsInternal{
		name:        entry.name,
		minDuration: time.Duration(1<<63 - 1),
	}

	p.systems = append(p.systems, entry)
	p.wavesDirty = true
	s.entries = append(s.entries, entry)
}

// initializeFields walks the system struct, calling Init on Query and
// Res fields and folding their reported access into the entry.
func (s *Scheduler) initializeFields(system System, entry *systemEntry) {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() == reflect.Ptr {
		systemValue = systemValue.Elem()
	}
	if systemValue.Kind() != reflect.Struct {
		return
	}
	systemType := systemValue.Type()

	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		fieldType := systemType.Field(i)

		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		typeName := field.Type().Name()
		isQuery := strings.HasPrefix(typeName, "Query[")
		isRes := strings.HasPrefix(typeName, "Res[")
		if !isQuery && !isRes {
			continue
		}

		addr := field.Addr()
		initMethod := addr.MethodByName("Init")
		if !initMethod.IsValid() {
			panic("Init method not found on field: " + fieldType.Name)
		}
		if isQuery {
			initMethod.Call([]reflect.Value{reflect.ValueOf(s.world.storage)})
		} else {
			initMethod.Call([]reflect.Value{reflect.ValueOf(s.world)})
		}

		if declarer, ok := addr.Interface().(AccessDeclarer); ok {
			entry.access = entry.access.merge(declarer.Access())
		}
		if q, ok := addr.Interface().(queryRefresher); ok {
			entry.queries = append(entry.queries, q)
		}
	}
}

// runPhase executes a phase's waves, then its sub-phases.
func (s *Scheduler) runPhase(p *phase, frame *UpdateFrame) {
	if p.wavesDirty {
		p.waves = buildWaves(p.systems)
		p.wavesDirty = false
	}

	for _, wave := range p.waves {
		if len(wave) == 1 {
			s.execute(wave[0], frame)
			continue
		}
		var g errgroup.Group
		g.SetLimit(s.workers)
		for _, entry := range wave {
			g.Go(func() error {
				s.execute(entry, frame)
				return nil
			})
		}
		// Waves run to completion; there is no cancellation or timeout.
		_ = g.Wait()
	}

	for _, sub := range p.subs {
		s.runPhase(sub, frame)
	}
}

func (s *Scheduler) execute(entry *systemEntry, frame *UpdateFrame) {
	for _, q := range entry.queries {
		q.Execute()
	}

	start := time.Now()
	entry.sys.Execute(frame)
	duration := time.Since(start)

	stats := entry.stats
	stats.executionCount++
	stats.lastDuration = duration
	stats.totalDuration += duration
	if duration < stats.minDuration {
		stats.minDuration = duration
	}
	if duration > stats.maxDuration {
		stats.maxDuration = duration
	}
}

// buildWaves orients a conflict edge between every conflicting pair of
// systems (registration order decides direction) plus any explicit
// RunAfter edges, then layers the graph: each wave is the set of
// systems whose dependencies have all run. An unsatisfiable ordering is
// an engine wiring bug and panics with the names still blocked.
func buildWaves(entries []*systemEntry) [][]*systemEntry {
	n := len(entries)
	if n == 0 {
		return nil
	}

	byName := make(map[string]int, n)
	for i, e := range entries {
		byName[e.name] = i
	}

	succ := make([][]int, n)
	indegree := make([]int, n)
	edges := make(map[[2]int]struct{})
	addEdge := func(from, to int) {
		if from == to {
			panic("ecs: system " + entries[to].name + " ordered after itself")
		}
		if _, dup := edges[[2]int{from, to}]; dup {
			return
		}
		edges[[2]int{from, to}] = struct{}{}
		succ[from] = append(succ[from], to)
		indegree[to]++
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if entries[i].access.conflicts(entries[j].access) {
				addEdge(i, j)
			}
		}
	}
	for j, e := range entries {
		for _, name := range e.after {
			i, ok := byName[name]
			if !ok {
				panic("ecs: system " + e.name + " runs after unknown system " + name)
			}
			addEdge(i, j)
		}
	}

	var waves [][]*systemEntry
	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	remaining := n
	for remaining > 0 {
		if len(ready) == 0 {
			var blocked []string
			for i := 0; i < n; i++ {
				if indegree[i] > 0 {
					blocked = append(blocked, entries[i].name)
				}
			}
			panic(fmt.Sprintf("ecs: scheduling cycle detected among systems %v", blocked))
		}

		wave := make([]*systemEntry, 0, len(ready))
		var next []int
		for _, i := range ready {
			wave = append(wave, entries[i])
			for _, j := range succ[i] {
				indegree[j]--
				if indegree[j] == 0 {
					next = append(next, j)
				}
			}
		}
		waves = append(waves, wave)
		remaining -= len(wave)
		ready = next
	}
	return waves
}

// WaveLayout returns each wave's system names for a phase, building the
// waves first if the phase changed since the last run.
func (s *Scheduler) WaveLayout(id PhaseId) [][]string {
	p := s.phases.must(id)
	if p.wavesDirty {
		p.waves = buildWaves(p.systems)
		p.wavesDirty = false
	}
	layout := make([][]string, len(p.waves))
	for i, wave := range p.waves {
		for _, entry := range wave {
			layout[i] = append(layout[i], entry.name)
		}
	}
	return layout
}

// Run executes every phase repeatedly at the given interval until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.world.RunFrame(dt)
		}
	}
}

// GetStats returns statistics about system execution across all phases,
// in registration order.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.entries),
		Systems:     make([]SystemStats, len(s.entries)),
	}

	var totalExecs int64
	for i, entry := range s.entries {
		internal := entry.stats
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}

		stats.Systems[i] = SystemStats{
			Name:           internal.name,
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
