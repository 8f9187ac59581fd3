package ecs

// System represents one unit of per-frame logic. User-defined systems
// implement this interface and may include Query and Res fields, which
// the scheduler initializes on registration, as well as custom state
// fields that persist between frames.
type System interface {
	Execute(frame *UpdateFrame)
}

// AccessDeclarer lets a system declare reads and writes beyond what the
// scheduler derives from its Query and Res fields. Systems that only
// read a resource should declare it here so they can share a wave with
// other readers.
type AccessDeclarer interface {
	Access() Access
}
