package ecs

// UpdateFrame carries per-frame state into a system's Execute call.
// Commands buffers structural changes until the phase's waves have
// joined; World gives direct access for reads covered by the system's
// declared access set.
type UpdateFrame struct {
	DeltaTime float64
	Commands  *Commands
	World     *World
}

func newUpdateFrame(dt float64, w *World) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Commands:  newCommands(),
		World:     w,
	}
}
