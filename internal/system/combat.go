package system

import (
	"math"
	"math/rand"
	"time"

	"github.com/embervale/worldserver/internal/core/ecs"
	coresys "github.com/embervale/worldserver/internal/core/system"
	"github.com/embervale/worldserver/internal/world"
)

// AttackRequest is queued by the input/handler layer and resolved during
// PhaseAttacks, so damage always uses pre-movement positions (spec §5
// tick order).
type AttackRequest struct {
	Map      *world.Map
	Attacker ecs.EntityID
	Zone     world.AttackZone
	Damage   world.DamageRecord
}

// CombatSystem resolves queued attacks against candidates selected by
// the zone index and the attack's geometry (spec §4.3 "Combat
// resolution").
type CombatSystem struct {
	requests []AttackRequest
	rng      *rand.Rand
}

func NewCombatSystem() *CombatSystem {
	return &CombatSystem{rng: rand.New(rand.NewSource(1))}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseAttacks }

// QueueAttack enqueues an attack for resolution this tick.
func (s *CombatSystem) QueueAttack(req AttackRequest) {
	s.requests = append(s.requests, req)
}

func (s *CombatSystem) Update(_ time.Duration) {
	for _, req := range s.requests {
		s.resolve(req)
	}
	s.requests = s.requests[:0]
}

func (s *CombatSystem) resolve(req AttackRequest) {
	m := req.Map
	attackerActor, ok := m.Actors.Get(req.Attacker)
	if !ok {
		return
	}

	radiusZones := req.Zone.Range/world.ZoneEdge + 1
	candidates := m.Zones.AroundActor(req.Attacker, radiusZones, world.FilterAll)
	for _, target := range candidates {
		if target == req.Attacker {
			continue
		}
		targetActor, ok := m.Actors.Get(target)
		if !ok {
			continue
		}
		if !inZone(attackerActor, targetActor, req.Zone) {
			continue
		}
		s.applyDamage(m, target, req.Damage)
		if !req.Zone.MultiTarget {
			return
		}
	}
}

// inZone tests a target position against an attack zone's shape,
// centered on and facing the direction implied by the attacker's actor
// (spec §4.3 "attack zone: shape, multi-target, range, angle").
func inZone(attacker, target *world.Actor, zone world.AttackZone) bool {
	dx := target.X - attacker.X
	dy := target.Y - attacker.Y
	distSq := dx*dx + dy*dy
	if distSq > zone.Range*zone.Range {
		return false
	}
	switch zone.Shape {
	case world.ZoneRectangle:
		return absI32(dx) <= zone.Range && absI32(dy) <= zone.Range
	case world.ZoneCone:
		// Cone with half-angle zone.Angle/2 degrees centered on the
		// attacker-facing axis approximated by the attacker's current
		// destination vector.
		fx := attacker.DestX - attacker.X
		fy := attacker.DestY - attacker.Y
		if fx == 0 && fy == 0 || distSq == 0 || zone.Angle >= 360 {
			return true
		}
		dot := float64(fx)*float64(dx) + float64(fy)*float64(dy)
		norm := math.Hypot(float64(fx), float64(fy)) * math.Sqrt(float64(distSq))
		return dot >= norm*math.Cos(float64(zone.Angle)*math.Pi/360)
	default:
		return false
	}
}

func absI32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// applyDamage runs the full damage-application pipeline (spec §4.3):
// evade roll, base+delta roll, element-resistance percentage,
// physical/magical resistance, enqueue hit record, decrement HP, fire
// died() at most once.
func (s *CombatSystem) applyDamage(m *world.Map, target ecs.EntityID, dmg world.DamageRecord) {
	being, ok := m.Beings.Get(target)
	if !ok {
		return
	}

	if s.rng.Int31n(100) < being.Modified(world.AttrEvade) {
		return
	}

	amount := dmg.Base
	if dmg.Delta > 0 {
		amount += s.rng.Int31n(dmg.Delta + 1)
	}

	resistAttr := world.ElementAttribute(dmg.Element)
	elemResist := being.Modified(resistAttr)
	amount -= amount * elemResist / 100

	if dmg.Physical {
		amount -= amount * being.Modified(world.AttrPhysResist) / 100
	} else {
		amount -= amount * being.Modified(world.AttrMagicalResist) / 100
	}
	if amount < 0 {
		amount = 0
	}

	being.HitsTaken = append(being.HitsTaken, world.HitRecord{Amount: amount, Element: dmg.Element})
	if died := being.ApplyDamage(amount); died {
		if mon, ok := m.Monsters.Get(target); ok {
			mon.ClearAllAnger()
		}
	}
}
