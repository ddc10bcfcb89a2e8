package world

import "github.com/embervale/worldserver/internal/core/ecs"

// DeferredKind is the kind of structural change queued mid-tick for
// end-of-tick application (spec §4.8).
type DeferredKind int

const (
	DeferredInsert DeferredKind = iota
	DeferredRemove
	DeferredWarp
)

// InsertSpec carries the placement of a queued Thing insert.
type InsertSpec struct {
	Kind   Kind
	X, Y   int32
	Radius int32
}

// WarpSpec carries the destination of a queued Character warp. DestMapID
// may name a map hosted by a different runtime, in which case applying
// the warp defers to a redirect dialogue instead of a local remove+insert
// (spec §4.10).
type WarpSpec struct {
	DestMapID int32
	DestX     int32
	DestY     int32
}

// DeferredEvent is one structural change queued against an entity.
type DeferredEvent struct {
	Kind   DeferredKind
	Insert InsertSpec
	Warp   WarpSpec
}

// PendingEvent pairs a drained DeferredEvent with the entity it targets.
type PendingEvent struct {
	EntityID ecs.EntityID
	Event    DeferredEvent
}

// DeferredQueue accumulates structural changes (insert Thing, remove
// Thing, warp Character) that a tick in flight must not apply directly,
// so iterators over live component stores stay valid (spec §4.8). At
// most one event survives per entity: the first one queued wins, except
// that a later remove always overwrites whatever was queued for that
// entity, never the reverse (grounded on manaserv's
// GameState::enqueueEvent, original_source/src/game-server/state.cpp,
// which inserts only if absent and force-upgrades an existing entry to
// EVENT_REMOVE when a remove arrives later).
type DeferredQueue struct {
	order  []ecs.EntityID
	events map[ecs.EntityID]DeferredEvent
}

func NewDeferredQueue() *DeferredQueue {
	return &DeferredQueue{events: make(map[ecs.EntityID]DeferredEvent)}
}

func (q *DeferredQueue) enqueue(id ecs.EntityID, e DeferredEvent) {
	existing, ok := q.events[id]
	if !ok {
		q.order = append(q.order, id)
		q.events[id] = e
		return
	}
	if e.Kind == DeferredRemove {
		existing.Kind = DeferredRemove
		q.events[id] = existing
	}
}

// QueueInsert schedules a Thing to be attached/placed at end of tick.
func (q *DeferredQueue) QueueInsert(id ecs.EntityID, spec InsertSpec) {
	q.enqueue(id, DeferredEvent{Kind: DeferredInsert, Insert: spec})
}

// QueueRemove schedules an entity for removal at end of tick.
func (q *DeferredQueue) QueueRemove(id ecs.EntityID) {
	q.enqueue(id, DeferredEvent{Kind: DeferredRemove})
}

// QueueWarp schedules a Character to be warped to a new map/position at
// end of tick.
func (q *DeferredQueue) QueueWarp(id ecs.EntityID, spec WarpSpec) {
	q.enqueue(id, DeferredEvent{Kind: DeferredWarp, Warp: spec})
}

// Pending drains every queued (entity, event) pair in insertion order,
// clearing the queue for the next tick.
func (q *DeferredQueue) Pending() []PendingEvent {
	out := make([]PendingEvent, 0, len(q.order))
	for _, id := range q.order {
		if e, ok := q.events[id]; ok {
			out = append(out, PendingEvent{EntityID: id, Event: e})
		}
	}
	q.order = q.order[:0]
	q.events = make(map[ecs.EntityID]DeferredEvent)
	return out
}

// Len reports the number of entities with a pending event, for tests and
// diagnostics.
func (q *DeferredQueue) Len() int { return len(q.order) }
