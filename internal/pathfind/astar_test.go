package pathfind

import (
	"testing"

	"github.com/embervale/worldserver/internal/world"
)

func allWalkable(w, h int32) []bool {
	out := make([]bool, w*h)
	for i := range out {
		out[i] = true
	}
	return out
}

// TestFindPathIsContiguousAndAvoidsWalls exercises the path-validity
// testable property: every returned path step is adjacent (including
// diagonals) to the previous one, terminates at goal, and never crosses a
// blocked tile.
func TestFindPathIsContiguousAndAvoidsWalls(t *testing.T) {
	const w, h = 10, 10
	walkable := allWalkable(w, h)
	grid := world.NewTileGrid(w, h, walkable)

	// Build a wall spanning the grid except for one gap, forcing a detour.
	for x := int32(0); x < w; x++ {
		if x == 5 {
			continue
		}
		grid.At(world.TileCoord{X: x, Y: 4}).PermanentWalkable = false
	}

	start := world.TileCoord{X: 0, Y: 0}
	goal := world.TileCoord{X: 0, Y: 9}

	path := FindPath(grid, start, goal, world.WalkMaskDefault, 0)
	if len(path) == 0 {
		t.Fatalf("expected a path to exist through the gap at x=5")
	}
	if path[len(path)-1] != goal {
		t.Fatalf("expected path to terminate at goal, got %v", path[len(path)-1])
	}

	prev := start
	for _, step := range path {
		dx := absI(step.X - prev.X)
		dy := absI(step.Y - prev.Y)
		if dx > 1 || dy > 1 {
			t.Fatalf("non-adjacent step from %v to %v", prev, step)
		}
		if grid.Blocked(step, world.WalkMaskDefault) {
			t.Fatalf("path crosses a blocked tile at %v", step)
		}
		prev = step
	}
}

func TestFindPathReturnsEmptyWhenUnreachable(t *testing.T) {
	const w, h = 5, 5
	walkable := allWalkable(w, h)
	grid := world.NewTileGrid(w, h, walkable)

	for x := int32(0); x < w; x++ {
		grid.At(world.TileCoord{X: x, Y: 2}).PermanentWalkable = false
	}

	path := FindPath(grid, world.TileCoord{X: 0, Y: 0}, world.TileCoord{X: 0, Y: 4}, world.WalkMaskDefault, 0)
	if path != nil {
		t.Fatalf("expected no path across a sealed wall, got %v", path)
	}
}

func TestFindPathRespectsMaxCost(t *testing.T) {
	const w, h = 20, 1
	walkable := allWalkable(w, h)
	grid := world.NewTileGrid(w, h, walkable)

	// A long straight run costs straightCost per step; cap the budget well
	// under what reaching the far goal would need.
	path := FindPath(grid, world.TileCoord{X: 0, Y: 0}, world.TileCoord{X: 19, Y: 0}, world.WalkMaskDefault, straightCost*3)
	if path != nil {
		t.Fatalf("expected maxCost to abandon a pursuit past budget, got %v", path)
	}
}

func TestFindPathSameStartAndGoalIsEmpty(t *testing.T) {
	const w, h = 5, 5
	grid := world.NewTileGrid(w, h, allWalkable(w, h))
	c := world.TileCoord{X: 2, Y: 2}
	if path := FindPath(grid, c, c, world.WalkMaskDefault, 0); path != nil {
		t.Fatalf("expected no-op path when start==goal, got %v", path)
	}
}

func TestFindPathDisallowsCuttingDiagonalThroughTwoWalls(t *testing.T) {
	const w, h = 3, 3
	grid := world.NewTileGrid(w, h, allWalkable(w, h))
	// Block the two orthogonal neighbors of the diagonal from (0,0) to (1,1).
	grid.At(world.TileCoord{X: 1, Y: 0}).PermanentWalkable = false
	grid.At(world.TileCoord{X: 0, Y: 1}).PermanentWalkable = false

	path := FindPath(grid, world.TileCoord{X: 0, Y: 0}, world.TileCoord{X: 1, Y: 1}, world.WalkMaskDefault, 0)
	for _, step := range path {
		if step == (world.TileCoord{X: 1, Y: 0}) || step == (world.TileCoord{X: 0, Y: 1}) {
			t.Fatalf("path should not route through a blocked orthogonal, got %v", path)
		}
	}
}
