package ecs

import "reflect"

// PhaseId identifies a phase by the runtime identity of its marker
// type.
type PhaseId uint32

// PhaseIdFor returns the id of phase marker type P.
func PhaseIdFor[P any]() PhaseId {
	return PhaseId(typeKey(reflect.TypeFor[P]()))
}

func phaseName[P any]() string {
	return reflect.TypeFor[P]().Name()
}

type phase struct {
	id      PhaseId
	name    string
	systems []*systemEntry
	subs    []*phase

	waves      [][]*systemEntry
	wavesDirty bool
}

// phaseList keeps the fixed, registered order of top-level phases plus
// an id index over every phase including sub-phases.
type phaseList struct {
	order []*phase
	byId  DenseMap[PhaseId, *phase]
}

func (l *phaseList) add(p *phase) {
	if l.byId.Contains(p.id) {
		panic("ecs: phase " + p.name + " already registered")
	}
	l.byId.Insert(p.id, p)
	l.order = append(l.order, p)
}

func (l *phaseList) addSub(main PhaseId, p *phase) {
	parent := l.must(main)
	if l.byId.Contains(p.id) {
		panic("ecs: phase " + p.name + " already registered")
	}
	l.byId.Insert(p.id, p)
	parent.subs = append(parent.subs, p)
}

func (l *phaseList) insert(p *phase, anchor PhaseId, before bool) {
	target := l.must(anchor)
	if l.byId.Contains(p.id) {
		panic("ecs: phase " + p.name + " already registered")
	}
	at := -1
	for i, existing := range l.order {
		if existing == target {
			at = i
			break
		}
	}
	if at < 0 {
		panic("ecs: phase " + target.name + " is not a top-level phase")
	}
	if !before {
		at++
	}
	l.order = append(l.order, nil)
	copy(l.order[at+1:], l.order[at:])
	l.order[at] = p
	l.byId.Insert(p.id, p)
}

func (l *phaseList) must(id PhaseId) *phase {
	p, ok := l.byId.Get(id)
	if !ok {
		panic("ecs: phase not registered")
	}
	return p
}

// AddPhase registers P as the next top-level phase in frame order.
func AddPhase[P any](w *World) {
	w.scheduler.phases.add(&phase{
		id:         PhaseIdFor[P](),
		name:       phaseName[P](),
		wavesDirty: true,
	})
}

// AddSubPhase registers Sub to run inside Main, after Main's own
// systems. Main must already be registered.
func AddSubPhase[Main, Sub any](w *World) {
	w.scheduler.phases.addSub(PhaseIdFor[Main](), &phase{
		id:         PhaseIdFor[Sub](),
		name:       phaseName[Sub](),
		wavesDirty: true,
	})
}

// InsertPhaseBefore registers P as a top-level phase running just
// before Anchor.
func InsertPhaseBefore[P, Anchor any](w *World) {
	w.scheduler.phases.insert(&phase{
		id:         PhaseIdFor[P](),
		name:       phaseName[P](),
		wavesDirty: true,
	}, PhaseIdFor[Anchor](), true)
}

// InsertPhaseAfter registers P as a top-level phase running just after
// Anchor.
func InsertPhaseAfter[P, Anchor any](w *World) {
	w.scheduler.phases.insert(&phase{
		id:         PhaseIdFor[P](),
		name:       phaseName[P](),
		wavesDirty: true,
	}, PhaseIdFor[Anchor](), false)
}
