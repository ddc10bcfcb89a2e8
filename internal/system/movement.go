// Package system holds the tick-phase systems that drive the game world
// simulation (spec §4.2–§4.5, §5 tick order), registered with a
// core/system.Runner in declaration order matching core/system.Phase.
package system

import (
	"time"

	"github.com/embervale/worldserver/internal/core/ecs"
	coresys "github.com/embervale/worldserver/internal/core/system"
	"github.com/embervale/worldserver/internal/world"
)

// MovementSystem advances every actor with a pending path one tile per
// Speed milliseconds (spec §4.2 "movement step", E2: "speed 100 ms/tile
// ... position advances one tile per tick"), carrying over unconsumed
// time via Actor.ResidualMS so speeds that don't divide the tick length
// evenly still average out correctly (Testable Property 1, "movement
// coherence").
type MovementSystem struct {
	maps []*world.Map
}

func NewMovementSystem(maps []*world.Map) *MovementSystem {
	return &MovementSystem{maps: maps}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *MovementSystem) Update(dt time.Duration) {
	budget := int32(dt.Milliseconds())
	for _, m := range s.maps {
		type move struct {
			id   ecs.EntityID
			x, y int32
		}
		var moved []move
		m.Actors.Each(func(id ecs.EntityID, a *world.Actor) {
			a.Flags.NewDestination = false
			if len(a.Path) == 0 || a.Speed <= 0 {
				// Property 1: empty path resets destination to source.
				if a.DestX != a.X || a.DestY != a.Y {
					a.DestX, a.DestY = a.X, a.Y
				}
				return
			}

			remaining := budget + a.ResidualMS
			steppedAny := false
			for remaining >= a.Speed && len(a.Path) > 0 {
				next := a.Path[0]
				a.Path = a.Path[1:]
				a.X = next.X*world.TileSize + world.TileSize/2
				a.Y = next.Y*world.TileSize + world.TileSize/2
				remaining -= a.Speed
				steppedAny = true
			}
			a.ResidualMS = remaining
			if len(a.Path) == 0 {
				a.DestX, a.DestY = a.X, a.Y
			}
			if steppedAny {
				a.Flags.NewOnMap = true
				moved = append(moved, move{id: id, x: a.X, y: a.Y})
			}
		})
		for _, mv := range moved {
			m.Zones.SetPosition(mv.id, mv.x, mv.y)
		}
	}
}
