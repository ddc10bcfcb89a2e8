package system

import (
	"time"

	"github.com/embervale/worldserver/internal/core/ecs"
	coresys "github.com/embervale/worldserver/internal/core/system"
	"github.com/embervale/worldserver/internal/world"
)

// RegenSystem applies passive HP regeneration and expires modifier
// layers each tick (spec §3 Being "HP-regen" attribute, §4.7 modifier
// layer expiry), as part of "update-all-things" (spec §5 tick order).
type RegenSystem struct {
	maps []*world.Map
	now  func() time.Time
}

func NewRegenSystem(maps []*world.Map, now func() time.Time) *RegenSystem {
	return &RegenSystem{maps: maps, now: now}
}

func (s *RegenSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *RegenSystem) Update(_ time.Duration) {
	t := s.now()
	for _, m := range s.maps {
		m.Beings.Each(func(_ ecs.EntityID, b *world.Being) {
			b.ExpireModifiers(t)
			if b.Action == world.ActionDead || b.CurrentHP <= 0 {
				return
			}
			regen := b.Modified(world.AttrHPRegen)
			if regen <= 0 {
				return
			}
			b.CurrentHP += regen
			if b.CurrentHP > b.MaxHP {
				b.CurrentHP = b.MaxHP
			}
		})
	}
}
