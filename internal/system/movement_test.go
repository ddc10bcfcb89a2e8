package system

import (
	"testing"
	"time"

	"github.com/embervale/worldserver/internal/world"
)

func newTestMap() *world.Map {
	const w, h = 10, 10
	walkable := make([]bool, w*h)
	for i := range walkable {
		walkable[i] = true
	}
	return world.NewMap(1, "test", false, w, h, walkable)
}

// TestMovementCoherenceCarriesResidualTime exercises the movement-coherence
// testable property: an actor whose Speed does not evenly divide the tick
// length still advances at the correct long-run rate via Actor.ResidualMS,
// rather than losing or gaining fractional ticks.
func TestMovementCoherenceCarriesResidualTime(t *testing.T) {
	m := newTestMap()
	id := m.SpawnThing(world.KindMonster, 0, 0, 1)
	actor, _ := m.Actors.Get(id)
	actor.Speed = 300 // ms/tile
	actor.Path = []world.TileCoord{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}

	sys := NewMovementSystem([]*world.Map{m})

	// Three 100ms ticks accumulate to exactly one 300ms step.
	sys.Update(100 * time.Millisecond)
	if len(actor.Path) != 3 {
		t.Fatalf("expected no step yet after 100ms against a 300ms speed, path len %d", len(actor.Path))
	}
	sys.Update(100 * time.Millisecond)
	if len(actor.Path) != 3 {
		t.Fatalf("expected still no step after 200ms accumulated, path len %d", len(actor.Path))
	}
	sys.Update(100 * time.Millisecond)
	if len(actor.Path) != 2 {
		t.Fatalf("expected exactly one step once 300ms accumulated, path len %d", len(actor.Path))
	}
	if actor.X != world.TileSize+world.TileSize/2 {
		t.Fatalf("expected actor to land on tile 1's center, got x=%d", actor.X)
	}
}

func TestMovementEmptyPathSnapsDestinationToSource(t *testing.T) {
	m := newTestMap()
	id := m.SpawnThing(world.KindMonster, 64, 64, 1)
	actor, _ := m.Actors.Get(id)
	actor.DestX, actor.DestY = 500, 500 // stale destination, no path

	sys := NewMovementSystem([]*world.Map{m})
	sys.Update(100 * time.Millisecond)

	if actor.DestX != actor.X || actor.DestY != actor.Y {
		t.Fatalf("expected destination reset to current position when path is empty, got dest=(%d,%d) pos=(%d,%d)", actor.DestX, actor.DestY, actor.X, actor.Y)
	}
}

func TestMovementConsumesMultipleStepsInOneTickWhenBudgetAllows(t *testing.T) {
	m := newTestMap()
	id := m.SpawnThing(world.KindMonster, 0, 0, 1)
	actor, _ := m.Actors.Get(id)
	actor.Speed = 50
	actor.Path = []world.TileCoord{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}

	sys := NewMovementSystem([]*world.Map{m})
	sys.Update(160 * time.Millisecond) // budget for 3 full steps, 10ms residual

	if len(actor.Path) != 0 {
		t.Fatalf("expected all three steps consumed in one tick, path len %d", len(actor.Path))
	}
	if actor.ResidualMS != 10 {
		t.Fatalf("expected 10ms residual left over, got %d", actor.ResidualMS)
	}
	if actor.X != 3*world.TileSize+world.TileSize/2 {
		t.Fatalf("expected actor at tile 3's center, got x=%d", actor.X)
	}
}
