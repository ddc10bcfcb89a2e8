package system

import (
	"time"

	"github.com/embervale/worldserver/internal/core/ecs"
	coresys "github.com/embervale/worldserver/internal/core/system"
	"github.com/embervale/worldserver/internal/world"
)

// VisibilityDelta is what entered and left a character's zone
// neighborhood this tick (spec §4.5 "per-client visibility deltas").
type VisibilityDelta struct {
	Character ecs.EntityID
	Entered   []ecs.EntityID
	Left      []ecs.EntityID
}

// VisibilitySink receives each character's computed delta; the net
// layer implements it to serialize and send the corresponding packets.
type VisibilitySink interface {
	PublishVisibility(VisibilityDelta)
}

// VisibilitySystem computes, for every character, what became visible or
// invisible this tick by diffing the zone neighborhood before and after
// movement (spec §4.1 AroundCharacter, §4.5).
type VisibilitySystem struct {
	maps        []*world.Map
	sink        VisibilitySink
	radiusZones int32
	lastSeen    map[ecs.EntityID]map[ecs.EntityID]struct{}
}

func NewVisibilitySystem(maps []*world.Map, sink VisibilitySink, radiusZones int32) *VisibilitySystem {
	return &VisibilitySystem{
		maps:        maps,
		sink:        sink,
		radiusZones: radiusZones,
		lastSeen:    make(map[ecs.EntityID]map[ecs.EntityID]struct{}),
	}
}

func (s *VisibilitySystem) Phase() coresys.Phase { return coresys.PhaseVisibility }

func (s *VisibilitySystem) Update(_ time.Duration) {
	for _, m := range s.maps {
		m.Chars.Each(func(id ecs.EntityID, _ *world.Character) {
			s.updateOne(m, id)
		})
	}
}

func (s *VisibilitySystem) updateOne(m *world.Map, id ecs.EntityID) {
	nowVisible := m.Zones.AroundActor(id, s.radiusZones, world.FilterAll)
	nowSet := make(map[ecs.EntityID]struct{}, len(nowVisible))
	for _, v := range nowVisible {
		nowSet[v] = struct{}{}
	}

	prev := s.lastSeen[id]
	var entered, left []ecs.EntityID
	for v := range nowSet {
		if v == id {
			continue
		}
		if _, ok := prev[v]; !ok {
			entered = append(entered, v)
		}
	}
	for v := range prev {
		if _, ok := nowSet[v]; !ok {
			left = append(left, v)
		}
	}
	s.lastSeen[id] = nowSet

	if len(entered) == 0 && len(left) == 0 {
		return
	}
	if s.sink != nil {
		s.sink.PublishVisibility(VisibilityDelta{Character: id, Entered: entered, Left: left})
	}
}

// Forget drops a character's visibility tracking state, called on
// logout or map change.
func (s *VisibilitySystem) Forget(id ecs.EntityID) {
	delete(s.lastSeen, id)
}
