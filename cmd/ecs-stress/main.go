package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/husk/ecs"
)

type Transform struct {
	X, Y, Z float64
}

type Motion struct {
	VX, VY, VZ float64
}

type Lifetime struct {
	Remaining float64
}

type Hitpoints struct {
	Current, Max int
}

type Faction int

type SimClock struct {
	Elapsed float64
}

type Simulate struct{}
type Cleanup struct{}

type EntityExpired struct {
	Entity ecs.Entity
}

type movementSystem struct {
	Bodies ecs.Query[struct {
		*Transform
		*Motion
	}]
}

func (s *movementSystem) Execute(frame *ecs.UpdateFrame) {
	for _, body := range s.Bodies.Iter() {
		body.Transform.X += body.Motion.VX * frame.DeltaTime
		body.Transform.Y += body.Motion.VY * frame.DeltaTime
		body.Transform.Z += body.Motion.VZ * frame.DeltaTime
	}
}

type agingSystem struct {
	Aging ecs.Query[struct {
		*Lifetime
	}]
}

func (s *agingSystem) Execute(frame *ecs.UpdateFrame) {
	for e, item := range s.Aging.Iter() {
		item.Lifetime.Remaining -= frame.DeltaTime
		if item.Lifetime.Remaining <= 0 {
			ecs.Emit(frame.World, EntityExpired{Entity: e})
		}
	}
}

type clockSystem struct {
	Clock ecs.Res[SimClock]
}

func (s *clockSystem) Execute(frame *ecs.UpdateFrame) {
	s.Clock.Get().Elapsed += frame.DeltaTime
}

type eventPumpSystem struct{}

func (s *eventPumpSystem) Execute(frame *ecs.UpdateFrame) {
	frame.World.Flush()
}

func spawnRandomEntity(w *ecs.World, rng *rand.Rand) {
	e := w.Spawn()
	ecs.AddComponent(w, e, Transform{X: rng.Float64(), Y: rng.Float64()})
	if rng.Intn(2) == 0 {
		ecs.AddComponent(w, e, Motion{VX: rng.Float64() - 0.5, VY: rng.Float64() - 0.5})
	}
	if rng.Intn(3) == 0 {
		ecs.AddComponent(w, e, Lifetime{Remaining: rng.Float64() * 30})
	}
	if rng.Intn(3) == 0 {
		ecs.AddComponent(w, e, Hitpoints{Current: 100, Max: 100})
	}
	if rng.Intn(4) == 0 {
		ecs.AddComponent(w, e, Faction(rng.Intn(4)))
	}
}

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	workers := flag.Int("workers", 0, "Worker pool size per wave (0 = GOMAXPROCS).")
	cpuProfile := flag.Bool("cpuprofile", false, "Write a CPU profile to the working directory.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	log.Println("Starting ECS stress test...")

	// 1. Set up the world: components, resources, events, phases
	w := ecs.NewWorld()
	ecs.Register[Transform](w)
	ecs.Register[Motion](w)
	ecs.Register[Lifetime](w)
	ecs.Register[Hitpoints](w)
	ecs.Register[Faction](w)
	ecs.AddResource(w, SimClock{})
	w.Scheduler().SetWorkers(*workers)

	ecs.RegisterEvent(w, 0, func(w *ecs.World, ev EntityExpired) any {
		w.Despawn(ev.Entity)
		return nil
	})

	ecs.AddPhase[Simulate](w)
	ecs.AddSubPhase[Simulate, Cleanup](w)
	ecs.AddSystem[Simulate](w, &movementSystem{})
	ecs.AddSystem[Simulate](w, &agingSystem{})
	ecs.AddSystem[Simulate](w, &clockSystem{})
	ecs.AddSystem[Cleanup](w, &eventPumpSystem{})

	// 2. Populate the world
	log.Printf("Populating world with %d entities...\n", *entityCount)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < *entityCount; i++ {
		spawnRandomEntity(w, rng)
	}
	log.Println("Population complete.")

	// 3. Run the simulation loop
	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		Components:     w.Registry().Len(),
		GCPauseMetrics: *gcPauseMetrics,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running simulation for %s...\n", *duration)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	var totalUpdates int64
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			w.RunFrame(float64(deltaTime) / float64(time.Second))
			updateDuration := time.Since(updateStart)

			report.UpdateTime.Samples = append(report.UpdateTime.Samples, updateDuration)
			totalUpdates++

			// Keep the population stable as lifetimes expire
			for w.EntityCount() < *entityCount {
				spawnRandomEntity(w, rng)
			}
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = totalUpdates
	report.Systems = len(w.Scheduler().GetStats().Systems)
	report.FinalEntities = w.EntityCount()
	report.Tables = w.Storage().TableCount()
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Println("Simulation finished.")

	// 4. Generate the report to the console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")

	log.Println("Stress test complete.")
}
