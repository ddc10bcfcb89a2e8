// Package world holds the per-tick simulation data model: the ECS
// components attached to map entities (Thing/Actor/Being/Character/
// Monster), the spatial zone index, inventory/equipment, and the
// attribute modifier layer (spec §3, §4.1, §4.6, §4.7).
package world

import "time"

// Kind tags a Thing's entity type (spec §3 Entity/Thing).
type Kind int

const (
	KindItem Kind = iota
	KindActor
	KindNPC
	KindMonster
	KindCharacter
	KindEphemeral
)

// Thing is the root component every map-owned entity carries.
type Thing struct {
	Kind  Kind
	MapID int32
}

// ActionState is a Being's coarse animation/behavior state.
type ActionState int

const (
	ActionStand ActionState = iota
	ActionWalk
	ActionAttack
	ActionSit
	ActionDead
	ActionHurt
)

// Direction is a facing in the four cardinal directions.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// ActorFlags accumulate over a tick and are cleared once visibility
// deltas have been built and flushed (spec §3 Actor, §4.5).
type ActorFlags struct {
	NewOnMap        bool
	NewDestination  bool
	Attacking       bool
	ActionChanged   bool
	LooksChanged    bool
	DirectionChanged bool
	HealthChanged   bool
	Removed         bool
}

func (f *ActorFlags) Clear() { *f = ActorFlags{} }

// Actor is the spatial component: a pixel-space position, a map-local
// public id, a bounding radius, and the per-tick dirty flags.
type Actor struct {
	X, Y     int32 // pixel-space position
	DestX    int32
	DestY    int32
	PublicID uint16 // 16-bit, unique within the owning map
	Radius   int32
	ZoneX    int32 // last-reported zone coordinate, for move-between-zones bookkeeping
	ZoneY    int32
	Flags    ActorFlags

	Speed      int32 // ms/tile — lower is faster
	ResidualMS int32 // leftover action-time from the previous tick
	Path       []TileCoord
}

// TileCoord is an integer tile-grid coordinate.
type TileCoord struct{ X, Y int32 }

// HitRecord is one damage application queued for a Being this tick,
// consumed by the attribute-modifier/visibility pass (spec §4.3 step 5).
type HitRecord struct {
	Amount int32
	Element Element
}

// Being is the fighting component: action state, facing, the base
// attribute vector plus its modifier layers, and this tick's hits.
type Being struct {
	Action ActionState
	Facing Direction

	Base      [AttributeCount]int32
	Modifiers [AttributeCount][]ModifierLayer

	CurrentHP int32
	MaxHP     int32

	HitsTaken []HitRecord

	diedFired bool
}

// Modified returns the attribute's current value after applying its
// modifier stack (spec §4.7).
func (b *Being) Modified(a Attribute) int32 {
	return applyLayers(b.Base[a], b.Modifiers[a])
}

// ApplyDamage clamps HP into [0, MaxHP] and fires died exactly once when
// it reaches 0 (spec §3 Being invariant).
func (b *Being) ApplyDamage(amount int32) (died bool) {
	b.CurrentHP -= amount
	if b.CurrentHP < 0 {
		b.CurrentHP = 0
	}
	if b.CurrentHP > b.MaxHP {
		b.CurrentHP = b.MaxHP
	}
	if b.CurrentHP == 0 && b.Action != ActionDead {
		b.Action = ActionDead
		if !b.diedFired {
			b.diedFired = true
			return true
		}
	}
	return false
}

// ModifierLayer is one entry in an attribute's modifier stack (spec §4.7).
type ModifierLayer struct {
	Stack     StackKind
	Effect    EffectKind
	Value     float64
	ExpiresAt time.Time // zero means permanent

	cached     float64
	cacheValid bool
}

// applyLayers folds a stack of modifier layers over a base value. Every
// layer is recomputed on each call and its result stored in the layer's
// cache fields; the cached values are not read back to skip unchanged
// layers.
func applyLayers(base int32, layers []ModifierLayer) int32 {
	value := float64(base)
	for i := range layers {
		l := &layers[i]
		prev := value
		switch l.Stack {
		case StackNonStackable:
			value = maxFloat(value, l.combine(float64(base)))
		case StackNonStackableBonus:
			value = maxFloat(value, l.combine(prev))
		default: // StackStackable
			value = l.combine(prev)
		}
		l.cached = value
		l.cacheValid = true
	}
	return int32(value)
}

func (l *ModifierLayer) combine(input float64) float64 {
	switch l.Effect {
	case EffectMultiply:
		return input * l.Value
	default:
		return input + l.Value
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// ExpireModifiers drops layers whose ExpiresAt has passed and
// invalidates every downstream cache for that attribute.
func (b *Being) ExpireModifiers(now time.Time) {
	for a := range b.Modifiers {
		layers := b.Modifiers[a]
		kept := layers[:0]
		changed := false
		for _, l := range layers {
			if !l.ExpiresAt.IsZero() && !l.ExpiresAt.After(now) {
				changed = true
				continue
			}
			kept = append(kept, l)
		}
		b.Modifiers[a] = kept
		if changed {
			for i := range b.Modifiers[a] {
				b.Modifiers[a][i].cacheValid = false
			}
		}
	}
}
