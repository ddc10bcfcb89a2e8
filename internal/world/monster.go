package world

import "github.com/embervale/worldserver/internal/core/ecs"

// ZoneShape is the attack-zone shape used both by combat resolution and
// a monster's attack-list entries (spec §4.3, §3 Monster).
type ZoneShape int

const (
	ZoneCone ZoneShape = iota
	ZoneRectangle
)

// AttackZone describes the candidate-selection geometry of one attack.
type AttackZone struct {
	Shape       ZoneShape
	MultiTarget bool
	Range       int32
	Angle       int32 // degrees for Cone; half-width unit for Rectangle
}

// DamageRecord is the input to combat resolution (spec §4.3).
type DamageRecord struct {
	Base      int32
	Delta     int32
	HitChance int32
	Element   Element
	Physical  bool // false = magical
	SkillUsed int32
}

// DropEntry is one row of a Monster-Class's drop table: an item id and
// its probability out of 10000 (spec §3, §4.4 "roll the drop table").
type DropEntry struct {
	ItemID      int32
	Probability int32 // per 10000
}

// MonsterAttack is one entry of a Monster-Class's attack list.
type MonsterAttack struct {
	Zone        AttackZone
	DelayPreMS  int32
	DelayPostMS int32
	DamageFactor float64
	Damage      DamageRecord
}

// MonsterClass is the shared, read-only template a Monster is built from
// (spec §3 Monster).
type MonsterClass struct {
	ID          int32
	Name        string
	Drops       []DropEntry
	BaseAttrs   [AttributeCount]int32
	Speed       int32
	Size        int32
	ExpReward   int32
	Aggressive  bool
	TrackRange  int32
	StrollRange int32
	Attacks     []MonsterAttack
	RotTicks    int32
	ScriptRef   string // NPC script body (spec §6 "Map format"); empty = none
}

// Monster is a Being built from a MonsterClass, with per-target anger and
// a current-attack pointer (spec §3 Monster).
type Monster struct {
	Class         *MonsterClass
	Anger         map[ecs.EntityID]int32
	CurrentAttack int // index into Class.Attacks, -1 = none
	SpawnX        int32
	SpawnY        int32
	IdleCounter   int32
}

func NewMonster(class *MonsterClass) *Monster {
	return &Monster{Class: class, Anger: make(map[ecs.EntityID]int32), CurrentAttack: -1}
}

// ClearAngerFor drops an anger entry, called when a target leaves the map
// or dies (spec §3 Monster invariant).
func (m *Monster) ClearAngerFor(target ecs.EntityID) {
	delete(m.Anger, target)
}

// ClearAllAnger empties the anger map on death (spec §4.4 "Death").
func (m *Monster) ClearAllAnger() {
	for k := range m.Anger {
		delete(m.Anger, k)
	}
}

// CurrentAttackOrFirst returns CurrentAttack if one is selected,
// otherwise the first entry of the class's attack list.
func (m *Monster) CurrentAttackOrFirst() int {
	if m.CurrentAttack >= 0 && m.CurrentAttack < len(m.Class.Attacks) {
		return m.CurrentAttack
	}
	return 0
}
