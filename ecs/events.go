package ecs

import (
	"reflect"
	"sort"
	"sync"
	"time"
)

// EventType identifies a registered event type by its Go type's runtime
// identity.
type EventType uint32

// EventInvocation records that at least one event of a type was invoked
// during the current flush pass. Invocations are drained in descending
// priority order (stable for equal priority) to decide when each type's
// observers run.
type EventInvocation struct {
	Type     EventType
	Priority int
}

type erasedEvent struct {
	typ   EventType
	value any
	at    time.Time
}

type eventHandler struct {
	typ       EventType
	name      string
	priority  int
	invoke    func(w *World, value any) any
	observers []func(w *World, outputs []any)
	outputs   []any
}

// Events is the typed, priority-ordered message queue shared by every
// producer in a world. Producers may run on worker threads, so the
// queue itself is mutex-guarded; handlers and outputs are only touched
// from Flush, which runs on the frame-loop goroutine.
type Events struct {
	mu       sync.Mutex
	queue    []erasedEvent
	handlers DenseMap[EventType, *eventHandler]
}

// EventStats is a point-in-time snapshot of the queue.
type EventStats struct {
	Pending       int
	OldestPending time.Duration
}

// RegisterEvent registers event type E with a priority and its invoke
// logic. The invoke function runs once per queued occurrence during
// Flush and may mutate world state; a non-nil return value is appended
// to the type's output buffer for observers. Registering the same type
// twice is an engine wiring bug and panics.
func RegisterEvent[E any](w *World, priority int, invoke func(*World, E) any) {
	t := reflect.TypeFor[E]()
	et := EventType(typeKey(t))

	if w.events.handlers.Contains(et) {
		panic("ecs: event type " + t.String() + " already registered")
	}
	h := &eventHandler{
		typ:      et,
		name:     t.String(),
		priority: priority,
	}
	if invoke != nil {
		h.invoke = func(w *World, value any) any {
			return invoke(w, value.(E))
		}
	}
	w.events.handlers.Insert(et, h)
}

// Observe registers a callback for event type E. During each flush pass
// in which at least one E was invoked, the callback runs once with the
// type's accumulated outputs (possibly empty). Observing an
// unregistered type panics.
func Observe[E any](w *World, fn func(w *World, outputs []any)) {
	t := reflect.TypeFor[E]()
	h, ok := w.events.handlers.Get(EventType(typeKey(t)))
	if !ok {
		panic("ecs: cannot observe unregistered event type " + t.String())
	}
	h.observers = append(h.observers, fn)
}

// Emit queues an event of type E. Shorthand for w.Events().Add(event).
func Emit[E any](w *World, event E) {
	w.events.Add(event)
}

// Add appends a type-erased, timestamped event to the queue. The value
// may be an E or *E; either way the event type must have been
// registered first.
func (e *Events) Add(event any) {
	t := reflect.TypeOf(event)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
		event = reflect.ValueOf(event).Elem().Interface()
	}
	et := EventType(typeKey(t))
	if !e.handlers.Contains(et) {
		panic("ecs: event type " + t.String() + " not registered")
	}
	e.mu.Lock()
	e.queue = append(e.queue, erasedEvent{typ: et, value: event, at: time.Now()})
	e.mu.Unlock()
}

// Stats reports the current queue depth and the age of its oldest
// entry.
func (e *Events) Stats() EventStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	stats := EventStats{Pending: len(e.queue)}
	if len(e.queue) > 0 {
		stats.OldestPending = time.Since(e.queue[0].at)
	}
	return stats
}

// Flush drains the queue and processes one invoke-observe-clear pass,
// repeating until the queue stays empty. Observers may enqueue new
// events; those cascades are processed in later passes of the same
// Flush call. A pathological observer cycle that always re-enqueues
// never terminates; that is a documented limitation, not defended
// against here.
func (e *Events) Flush(w *World) {
	for {
		batch := e.take()
		if len(batch) == 0 {
			return
		}
		e.process(w, batch)
	}
}

// FlushEvents drains and fully processes queued events of type E only,
// leaving other pending types untouched. Useful when a caller needs one
// notification chain to complete synchronously.
func FlushEvents[E any](w *World) {
	et := EventType(typeKey(reflect.TypeFor[E]()))
	for {
		batch := w.events.takeType(et)
		if len(batch) == 0 {
			return
		}
		w.events.process(w, batch)
	}
}

func (e *Events) take() []erasedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	batch := e.queue
	e.queue = nil
	return batch
}

func (e *Events) takeType(et EventType) []erasedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var batch, rest []erasedEvent
	for _, ev := range e.queue {
		if ev.typ == et {
			batch = append(batch, ev)
		} else {
			rest = append(rest, ev)
		}
	}
	e.queue = rest
	return batch
}

// process runs one pass: invoke logic once per queued occurrence, then
// drain the recorded invocations in priority order, running each type's
// observer set once over the accumulated outputs before clearing them.
func (e *Events) process(w *World, batch []erasedEvent) {
	invocations := make([]EventInvocation, 0, 4)
	seen := make(map[EventType]struct{}, 4)

	for _, ev := range batch {
		h, _ := e.handlers.Get(ev.typ)
		if h.invoke != nil {
			if out := h.invoke(w, ev.value); out != nil {
				h.outputs = append(h.outputs, out)
			}
		}
		if _, dup := seen[ev.typ]; !dup {
			seen[ev.typ] = struct{}{}
			invocations = append(invocations, EventInvocation{Type: ev.typ, Priority: h.priority})
		}
	}

	sort.SliceStable(invocations, func(i, j int) bool {
		return invocations[i].Priority > invocations[j].Priority
	})

	for _, inv := range invocations {
		h, _ := e.handlers.Get(inv.Type)
		for _, observe := range h.observers {
			observe(w, h.outputs)
		}
		h.outputs = h.outputs[:0]
	}
}
