package system

import (
	"time"

	"github.com/embervale/worldserver/internal/core/ecs"
	coresys "github.com/embervale/worldserver/internal/core/system"
	"github.com/embervale/worldserver/internal/pathfind"
	"github.com/embervale/worldserver/internal/world"
)

// MonsterAISystem drives every monster's per-tick behavior (spec §4.4
// Monster AI): skip while mid-attack, scan for characters within track
// range, prioritize by anger, path to an attack position, fall back to
// wandering with an idle counter.
type MonsterAISystem struct {
	maps []*world.Map
	attk *CombatSystem
}

func NewMonsterAISystem(maps []*world.Map, attk *CombatSystem) *MonsterAISystem {
	return &MonsterAISystem{maps: maps, attk: attk}
}

func (s *MonsterAISystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *MonsterAISystem) Update(_ time.Duration) {
	for _, m := range s.maps {
		m.Monsters.Each(func(id ecs.EntityID, mon *world.Monster) {
			s.tick(m, id, mon)
		})
	}
}

func (s *MonsterAISystem) tick(m *world.Map, id ecs.EntityID, mon *world.Monster) {
	being, ok := m.Beings.Get(id)
	if !ok || being.Action == world.ActionDead {
		return
	}
	if being.Action == world.ActionAttack {
		return // attack in progress; resolved by CombatSystem this tick
	}
	actor, ok := m.Actors.Get(id)
	if !ok {
		return
	}

	target, found := s.pickTarget(m, id, mon, actor)
	if !found {
		s.wander(m, id, mon, actor)
		return
	}

	targetActor, ok := m.Actors.Get(target)
	if !ok {
		s.wander(m, id, mon, actor)
		return
	}

	if s.inAttackRange(actor, targetActor, mon) {
		s.attk.QueueAttack(AttackRequest{
			Map:      m,
			Attacker: id,
			Zone:     mon.Class.Attacks[mon.CurrentAttackOrFirst()].Zone,
			Damage:   mon.Class.Attacks[mon.CurrentAttackOrFirst()].Damage,
		})
		being.Action = world.ActionAttack
		mon.IdleCounter = 0
		return
	}

	start := world.TileCoord{X: actor.X / world.TileSize, Y: actor.Y / world.TileSize}
	goal := world.TileCoord{X: targetActor.X / world.TileSize, Y: targetActor.Y / world.TileSize}
	maxCost := int64(mon.Class.StrollRange) * 362
	path := pathfind.FindPath(m.Tiles, start, goal, world.WalkMaskDefault, maxCost)
	if len(path) == 0 {
		mon.ClearAngerFor(target)
		s.wander(m, id, mon, actor)
		return
	}
	actor.Path = path
	actor.Speed = mon.Class.Speed
	mon.IdleCounter = 0
}

// pickTarget scans for characters within track range and returns the
// highest-anger one, falling back to the nearest if no anger has
// accumulated yet (spec §4.4 "anger-based target priority").
func (s *MonsterAISystem) pickTarget(m *world.Map, id ecs.EntityID, mon *world.Monster, actor *world.Actor) (ecs.EntityID, bool) {
	radiusZones := mon.Class.TrackRange/world.ZoneEdge + 1
	nearby := m.Zones.AroundActor(id, radiusZones, world.FilterCharactersOnly)

	var best ecs.EntityID
	var bestAnger int32 = -1
	var bestDist int32
	var haveBest bool
	for _, candidate := range nearby {
		cActor, ok := m.Actors.Get(candidate)
		if !ok {
			continue
		}
		dx := cActor.X - actor.X
		dy := cActor.Y - actor.Y
		distSq := dx*dx + dy*dy
		if distSq > mon.Class.TrackRange*mon.Class.TrackRange {
			continue
		}
		if cBeing, ok := m.Beings.Get(candidate); !ok || cBeing.Action == world.ActionDead {
			continue
		}
		anger := mon.Anger[candidate]
		if !mon.Class.Aggressive && anger == 0 {
			continue
		}
		if !haveBest || anger > bestAnger || (anger == bestAnger && distSq < bestDist) {
			best, bestAnger, bestDist, haveBest = candidate, anger, distSq, true
		}
	}
	return best, haveBest
}

func (s *MonsterAISystem) inAttackRange(attacker, target *world.Actor, mon *world.Monster) bool {
	if len(mon.Class.Attacks) == 0 {
		return false
	}
	rng := mon.Class.Attacks[mon.CurrentAttackOrFirst()].Zone.Range
	dx := target.X - attacker.X
	dy := target.Y - attacker.Y
	return dx*dx+dy*dy <= rng*rng
}

// wander lets an idle monster drift within its stroll range, resetting
// after a cooldown of ticks (spec §4.4 "wander fallback with idle
// counter").
func (s *MonsterAISystem) wander(m *world.Map, id ecs.EntityID, mon *world.Monster, actor *world.Actor) {
	mon.IdleCounter++
	const wanderCooldownTicks = 30
	if mon.IdleCounter < wanderCooldownTicks || len(actor.Path) > 0 {
		return
	}
	mon.IdleCounter = 0

	dx := (int32(id) % 7) - 3
	dy := (int32(id>>8) % 7) - 3
	goal := world.TileCoord{
		X: (mon.SpawnX / world.TileSize) + dx,
		Y: (mon.SpawnY / world.TileSize) + dy,
	}
	start := world.TileCoord{X: actor.X / world.TileSize, Y: actor.Y / world.TileSize}
	if !m.Tiles.InBounds(goal) {
		return
	}
	path := pathfind.FindPath(m.Tiles, start, goal, world.WalkMaskDefault, 0)
	if len(path) == 0 {
		return
	}
	actor.Path = path
	actor.Speed = mon.Class.Speed
}
