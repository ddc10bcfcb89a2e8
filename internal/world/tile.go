package world

// TileSize is the pixel edge length of one map tile, used to convert
// between an actor's pixel-space Actor.X/Y and the TileCoord grid a Map's
// TileGrid and the pathfind package operate on.
const TileSize = 32

// BlockerKind flags what a metatile is currently blocked by, beyond its
// permanent terrain walkability (spec §3 Map, §4.1 "walk mask").
type BlockerKind uint8

const (
	BlockWall BlockerKind = 1 << iota
	BlockMonster
	BlockCharacter
)

// WalkMask is the set of BlockerKinds a given mover must respect.
// Walls are always respected; monsters/characters depend on mover kind
// (spec §4.1).
type WalkMask uint8

const (
	WalkMaskDefault WalkMask = WalkMask(BlockWall | BlockMonster | BlockCharacter)
	WalkMaskGhost   WalkMask = WalkMask(BlockWall)
)

// Metatile is one cell of a Map's tile grid.
type Metatile struct {
	PermanentWalkable bool
	Blockers          BlockerKind // tick-local; cleared and rebuilt each tick

	// Pathfinding scratch (spec §3 Map: "ephemeral pathfinding scratch").
	scratchGen   uint32
	gScore       int64
	open, closed bool
	parent       TileCoord
	hasParent    bool
}

// Blocked reports whether the tile is impassable to a mover respecting
// mask, combining permanent terrain and this tick's dynamic blockers.
func (t *Metatile) Blocked(mask WalkMask) bool {
	if !t.PermanentWalkable {
		return true
	}
	return BlockerKind(mask)&t.Blockers != 0
}

// TileGrid is the collision layer of a Map: width x height metatiles
// (spec §3 Map, §6 "Map format" — the fourth Tiled layer by index).
type TileGrid struct {
	Width, Height int32
	tiles         []Metatile
	gen           uint32 // bumped each pathfind call to lazily reset scratch
}

func NewTileGrid(width, height int32, walkable []bool) *TileGrid {
	g := &TileGrid{Width: width, Height: height, tiles: make([]Metatile, width*height)}
	if walkable != nil {
		for i := range g.tiles {
			if i < len(walkable) {
				g.tiles[i].PermanentWalkable = walkable[i]
			}
		}
	}
	return g
}

func (g *TileGrid) InBounds(c TileCoord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width && c.Y < g.Height
}

func (g *TileGrid) idx(c TileCoord) int32 { return c.Y*g.Width + c.X }

func (g *TileGrid) At(c TileCoord) *Metatile {
	return &g.tiles[g.idx(c)]
}

// ClearTickBlockers resets every tile's dynamic blocker bits at the start
// of a tick, before movers re-report their occupied tiles.
func (g *TileGrid) ClearTickBlockers() {
	for i := range g.tiles {
		g.tiles[i].Blockers = 0
	}
}

// SetBlocker marks a tile occupied by a blocker kind this tick.
func (g *TileGrid) SetBlocker(c TileCoord, kind BlockerKind) {
	if !g.InBounds(c) {
		return
	}
	g.At(c).Blockers |= kind
}

// nextGen bumps the scratch generation; a tile's scratch fields are only
// meaningful when its scratchGen matches the grid's current gen, so this
// is an O(1) "reset all scratch" without zeroing the whole grid.
func (g *TileGrid) nextGen() uint32 {
	g.gen++
	return g.gen
}

func (g *TileGrid) scratch(c TileCoord) *Metatile {
	t := g.At(c)
	if t.scratchGen != g.gen {
		t.scratchGen = g.gen
		t.gScore = 0
		t.open = false
		t.closed = false
		t.hasParent = false
	}
	return t
}

// Blocked reports whether c is impassable to a mover respecting mask.
func (g *TileGrid) Blocked(c TileCoord, mask WalkMask) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.At(c).Blocked(mask)
}

// BeginPathfind bumps the scratch generation, lazily invalidating every
// tile's open/closed/parent/cost scratch without zeroing the grid (spec
// §3 Map "ephemeral pathfinding scratch").
func (g *TileGrid) BeginPathfind() {
	g.nextGen()
}

// MarkOpen marks c open with the given tentative cost.
func (g *TileGrid) MarkOpen(c TileCoord, cost int64) {
	t := g.scratch(c)
	t.open = true
	t.gScore = cost
}

// OpenG returns a tile's tentative cost, if it has been opened this
// pathfind generation.
func (g *TileGrid) OpenG(c TileCoord) (int64, bool) {
	t := g.scratch(c)
	if !t.open {
		return 0, false
	}
	return t.gScore, true
}

// MarkClosed marks c closed (removed from the open set, finalized).
func (g *TileGrid) MarkClosed(c TileCoord) {
	g.scratch(c).closed = true
}

// IsClosed reports whether c has been finalized this pathfind generation.
func (g *TileGrid) IsClosed(c TileCoord) bool {
	return g.scratch(c).closed
}

// SetParent records the predecessor on the best path found so far to c.
func (g *TileGrid) SetParent(c, parent TileCoord) {
	t := g.scratch(c)
	t.parent = parent
	t.hasParent = true
}

// Parent returns c's predecessor, if any, in the current pathfind
// generation's search tree.
func (g *TileGrid) Parent(c TileCoord) (TileCoord, bool) {
	t := g.scratch(c)
	if !t.hasParent {
		return TileCoord{}, false
	}
	return t.parent, true
}
