// Package pathfind implements A* search over a Map's tile grid (spec
// §4.1 "Pathfinding"): octile heuristic, a 362/256 approximation of the
// diagonal step cost, and a cost-bounded variant used by monster AI to
// abandon unprofitable pursuits.
package pathfind

import (
	"container/heap"

	"github.com/embervale/worldserver/internal/world"
)

const (
	straightCost = 256
	diagonalCost = 362 // base-step * 362/256, an approximation of sqrt(2)
)

var neighborOffsets = [8]world.TileCoord{
	{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: -1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: 1, Y: 1},
}

func isDiagonal(i int) bool { return i >= 4 }

type openEntry struct {
	tile world.TileCoord
	f    int64
	g    int64
	idx  int
}

type openHeap []*openEntry

func (h openHeap) Len() int            { return len(h) }
func (h openHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h openHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].idx = i; h[j].idx = j }
func (h *openHeap) Push(x any)         { e := x.(*openEntry); e.idx = len(*h); *h = append(*h, e) }
func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// octile is the admissible heuristic for 8-directional movement with the
// 362/256 diagonal cost approximation.
func octile(a, b world.TileCoord) int64 {
	dx := absI(a.X - b.X)
	dy := absI(a.Y - b.Y)
	if dx > dy {
		return int64(dx-dy)*straightCost + int64(dy)*diagonalCost
	}
	return int64(dy-dx)*straightCost + int64(dx)*diagonalCost
}

func absI(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// FindPath runs A* from start to goal respecting mask. On success it
// returns an ordered sequence of tile coordinates terminating at goal;
// on failure (no path, or maxCost exceeded) it returns an empty slice —
// the caller must treat that as "stay in place" (spec §4.1).
//
// maxCost <= 0 means unbounded; a positive maxCost implements the "find
// simple path with max cost" variant used by monster AI to abandon
// unprofitable pursuits (spec §4.1, §4.4).
func FindPath(grid *world.TileGrid, start, goal world.TileCoord, mask world.WalkMask, maxCost int64) []world.TileCoord {
	if !grid.InBounds(start) || !grid.InBounds(goal) {
		return nil
	}
	if start == goal {
		return nil
	}

	grid.BeginPathfind()

	open := &openHeap{}
	heap.Init(open)
	startEntry := &openEntry{tile: start, f: octile(start, goal), g: 0}
	heap.Push(open, startEntry)
	grid.MarkOpen(start, 0)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*openEntry)
		if grid.IsClosed(cur.tile) {
			continue
		}
		grid.MarkClosed(cur.tile)

		if cur.tile == goal {
			return reconstruct(grid, goal)
		}

		for i, off := range neighborOffsets {
			next := world.TileCoord{X: cur.tile.X + off.X, Y: cur.tile.Y + off.Y}
			if !grid.InBounds(next) || grid.IsClosed(next) {
				continue
			}
			if grid.Blocked(next, mask) {
				continue
			}
			if isDiagonal(i) {
				// Disallow cutting a diagonal through two blocked orthogonals.
				side1 := world.TileCoord{X: cur.tile.X + off.X, Y: cur.tile.Y}
				side2 := world.TileCoord{X: cur.tile.X, Y: cur.tile.Y + off.Y}
				if grid.Blocked(side1, mask) && grid.Blocked(side2, mask) {
					continue
				}
			}

			step := int64(straightCost)
			if isDiagonal(i) {
				step = diagonalCost
			}
			tentativeG := cur.g + step
			if maxCost > 0 && tentativeG > maxCost {
				continue
			}
			if existingG, ok := grid.OpenG(next); ok && existingG <= tentativeG {
				continue
			}

			grid.MarkOpen(next, tentativeG)
			grid.SetParent(next, cur.tile)
			heap.Push(open, &openEntry{tile: next, g: tentativeG, f: tentativeG + octile(next, goal)})
		}
	}
	return nil
}

func reconstruct(grid *world.TileGrid, goal world.TileCoord) []world.TileCoord {
	var path []world.TileCoord
	cur := goal
	for {
		path = append(path, cur)
		parent, ok := grid.Parent(cur)
		if !ok {
			break
		}
		cur = parent
	}
	// reverse into start->goal order
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
