package world

import "github.com/embervale/worldserver/internal/core/ecs"

// Map owns one game map's ECS stores, tile grid, and zone index, and is
// the unit of exclusive ownership spec §3 describes: a Thing belongs to
// exactly one Map at a time, moved between maps only by remove-then-insert.
type Map struct {
	ID   int32
	Name string
	PvP  bool

	ecsWorld *ecs.World
	Things   *ecs.PtrComponentStore[Thing]
	Actors   *ecs.PtrComponentStore[Actor]
	Beings   *ecs.PtrComponentStore[Being]
	Chars    *ecs.PtrComponentStore[Character]
	Monsters *ecs.PtrComponentStore[Monster]

	Tiles *TileGrid
	Zones *ZoneIndex

	// Deferred holds this map's structural-change queue for the current
	// tick (spec §4.8): insert Thing, remove Thing, warp Character.
	// Applied during PhaseHousekeeping, after the destroy-queue of the
	// tick before it is no longer in flight.
	Deferred *DeferredQueue
}

func NewMap(id int32, name string, pvp bool, width, height int32, walkable []bool) *Map {
	w := ecs.NewWorld()
	m := &Map{
		ID:       id,
		Name:     name,
		PvP:      pvp,
		ecsWorld: w,
		Things:   ecs.NewPtrComponentStore[Thing](),
		Actors:   ecs.NewPtrComponentStore[Actor](),
		Beings:   ecs.NewPtrComponentStore[Being](),
		Chars:    ecs.NewPtrComponentStore[Character](),
		Monsters: ecs.NewPtrComponentStore[Monster](),
		Tiles:    NewTileGrid(width, height, walkable),
		Zones:    NewZoneIndex(),
		Deferred: NewDeferredQueue(),
	}
	w.Registry().Register(m.Things)
	w.Registry().Register(m.Actors)
	w.Registry().Register(m.Beings)
	w.Registry().Register(m.Chars)
	w.Registry().Register(m.Monsters)
	return m
}

// SpawnThing creates a new entity, attaches Thing+Actor, and reports it
// to the zone index (spec §4.1: "reports its zone coordinates on
// insert").
func (m *Map) SpawnThing(kind Kind, x, y, radius int32) ecs.EntityID {
	id := m.ecsWorld.CreateEntity()
	m.Things.Set(id, &Thing{Kind: kind, MapID: m.ID})
	m.Actors.Set(id, &Actor{X: x, Y: y, DestX: x, DestY: y, Radius: radius})
	m.Zones.Insert(id, kind, x, y)
	return id
}

// Despawn removes an entity from the map: zone index, every component
// store, and queues entity-pool destruction for end of tick.
func (m *Map) Despawn(id ecs.EntityID) {
	m.Zones.Remove(id)
	m.ecsWorld.MarkForDestruction(id)
}

// FlushDestroyed clears queued entities from every component store and
// the entity pool. Call once per tick after systems have run.
func (m *Map) FlushDestroyed() {
	m.ecsWorld.FlushDestroyQueue()
}

// MoveActor applies a new position to an actor's Actor component and
// updates the zone index accordingly, returning the zone the actor
// occupied before the move (spec §4.1/§4.5: used to compute
// entered/left-vision deltas).
func (m *Map) MoveActor(id ecs.EntityID, x, y int32) (old ZoneCoord) {
	if a, ok := m.Actors.Get(id); ok {
		a.X, a.Y = x, y
	}
	return m.Zones.SetPosition(id, x, y)
}

func (m *Map) Alive(id ecs.EntityID) bool { return m.ecsWorld.Alive(id) }

// ApplyInsert finishes a deferred Thing insert: attaches/refreshes the
// Thing and Actor components and publishes the entity to the zone index
// (spec §4.8). id must already exist (created via SpawnThing-style
// allocation before being queued); this only performs the part that was
// deferred to end of tick.
func (m *Map) ApplyInsert(id ecs.EntityID, spec InsertSpec) {
	m.Things.Set(id, &Thing{Kind: spec.Kind, MapID: m.ID})
	if a, ok := m.Actors.Get(id); ok {
		a.X, a.Y, a.DestX, a.DestY, a.Radius = spec.X, spec.Y, spec.X, spec.Y, spec.Radius
	} else {
		m.Actors.Set(id, &Actor{X: spec.X, Y: spec.Y, DestX: spec.X, DestY: spec.Y, Radius: spec.Radius})
	}
	m.Zones.Insert(id, spec.Kind, spec.X, spec.Y)
}
