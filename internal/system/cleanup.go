package system

import (
	"time"

	"github.com/embervale/worldserver/internal/core/ecs"
	coresys "github.com/embervale/worldserver/internal/core/system"
	"github.com/embervale/worldserver/internal/world"
)

// CleanupSystem counts down corpse timers registered through
// ScheduleCorpseRemoval, despawning each corpse when its timer runs out,
// and flushes each map's deferred entity-destroy queue at the very end of
// the tick (spec §5 tick order, PhaseCleanup). No code in this repository
// calls ScheduleCorpseRemoval, so a monster's death does not by itself
// start a timer, and MonsterClass.RotTicks is not read.
type CleanupSystem struct {
	maps    []*world.Map
	corpses map[ecs.EntityID]corpseTimer
}

type corpseTimer struct {
	m         *world.Map
	remaining int32
}

func NewCleanupSystem(maps []*world.Map) *CleanupSystem {
	return &CleanupSystem{maps: maps, corpses: make(map[ecs.EntityID]corpseTimer)}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

// ScheduleCorpseRemoval registers a dead monster for removal after
// rotTicks more ticks of this system running.
func (s *CleanupSystem) ScheduleCorpseRemoval(m *world.Map, id ecs.EntityID, rotTicks int32) {
	s.corpses[id] = corpseTimer{m: m, remaining: rotTicks}
}

func (s *CleanupSystem) Update(_ time.Duration) {
	for id, timer := range s.corpses {
		timer.remaining--
		if timer.remaining <= 0 {
			timer.m.Despawn(id)
			delete(s.corpses, id)
			continue
		}
		s.corpses[id] = timer
	}
	for _, m := range s.maps {
		m.FlushDestroyed()
	}
}
