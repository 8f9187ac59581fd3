package ecs_test

import "github.com/plus3/husk/ecs"

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

type AI struct {
	State int
}

// Custom primitive types for testing non-struct components
type Score int32
type Tag string
type Temperature float64

type Inventory struct {
	Items []string
}

func newTestWorld() *ecs.World {
	w := ecs.NewWorld()
	ecs.Register[Position](w)
	ecs.Register[Velocity](w)
	ecs.Register[Name](w)
	ecs.Register[Health](w)
	ecs.Register[PlayerController](w)
	ecs.Register[AI](w)
	ecs.Register[Score](w)
	ecs.Register[Tag](w)
	ecs.Register[Temperature](w)
	ecs.Register[Inventory](w)
	return w
}
