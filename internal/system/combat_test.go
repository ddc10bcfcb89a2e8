package system

import (
	"testing"

	"github.com/embervale/worldserver/internal/core/ecs"
	"github.com/embervale/worldserver/internal/world"
)

func spawnBeing(m *world.Map, x, y int32, hp int32) (id ecs.EntityID, b *world.Being) {
	eid := m.SpawnThing(world.KindMonster, x, y, 1)
	var attrs [world.AttributeCount]int32
	attrs[world.AttrHP] = hp
	being := &world.Being{Base: attrs, CurrentHP: hp, MaxHP: hp}
	m.Beings.Set(eid, being)
	return eid, being
}

// TestDamageMonotonicityThroughCombatSystem exercises the
// damage-monotonicity testable property end to end through the combat
// system: HP strictly decreases (or holds, on a dodge) and never exceeds
// MaxHP.
func TestDamageMonotonicityThroughCombatSystem(t *testing.T) {
	m := newTestMap()
	attackerID, _ := spawnBeing(m, 0, 0, 100)
	targetID, target := spawnBeing(m, 0, 0, 50)
	// No evasion and no resistances so the hit is guaranteed and unreduced.
	target.Base[world.AttrEvade] = 0

	sys := NewCombatSystem()
	before := target.CurrentHP
	sys.QueueAttack(AttackRequest{
		Map:      m,
		Attacker: attackerID,
		Zone:     world.AttackZone{Shape: world.ZoneRectangle, Range: 100, MultiTarget: true},
		Damage:   world.DamageRecord{Base: 10, Physical: true},
	})
	sys.Update(0)

	if target.CurrentHP >= before {
		t.Fatalf("expected hp to strictly decrease from an unresisted, unevaded hit, before=%d after=%d", before, target.CurrentHP)
	}
	if target.CurrentHP < 0 || target.CurrentHP > target.MaxHP {
		t.Fatalf("hp out of [0, MaxHP] bounds: %d", target.CurrentHP)
	}
	_ = targetID
}

func TestDamageResistanceReducesButNeverReversesDamage(t *testing.T) {
	m := newTestMap()
	attackerID, _ := spawnBeing(m, 0, 0, 100)
	_, target := spawnBeing(m, 0, 0, 1000)
	target.Base[world.AttrEvade] = 0
	target.Base[world.AttrPhysResist] = 50 // 50% physical resistance

	sys := NewCombatSystem()
	sys.QueueAttack(AttackRequest{
		Map:      m,
		Attacker: attackerID,
		Zone:     world.AttackZone{Shape: world.ZoneRectangle, Range: 100},
		Damage:   world.DamageRecord{Base: 20, Physical: true},
	})
	sys.Update(0)

	dealt := 1000 - target.CurrentHP
	if dealt <= 0 {
		t.Fatalf("expected some damage to land, dealt=%d", dealt)
	}
	if dealt >= 20 {
		t.Fatalf("expected resistance to reduce a 20-base hit below 20, dealt=%d", dealt)
	}
}

func TestCombatSystemSkipsSelfAndOutOfZoneTargets(t *testing.T) {
	m := newTestMap()
	attackerID, _ := spawnBeing(m, 0, 0, 100)
	_, farTarget := spawnBeing(m, 10000, 10000, 100)

	sys := NewCombatSystem()
	sys.QueueAttack(AttackRequest{
		Map:      m,
		Attacker: attackerID,
		Zone:     world.AttackZone{Shape: world.ZoneRectangle, Range: 32},
		Damage:   world.DamageRecord{Base: 999, Physical: true},
	})
	sys.Update(0)

	if farTarget.CurrentHP != 100 {
		t.Fatalf("expected an out-of-zone target to take no damage, hp=%d", farTarget.CurrentHP)
	}
}
