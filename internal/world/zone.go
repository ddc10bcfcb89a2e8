package world

import "github.com/embervale/worldserver/internal/core/ecs"

// ZoneEdge is the fixed edge length (in pixels) zones are tiled with
// (spec §4.1 "Zone partition"; the teacher's AOIGrid used a 20px cell
// for the same reason — dense enough that a small neighborhood covers
// the visibility range).
const ZoneEdge = 256

// zoneSet holds the three kind-partitioned id sets a zone tracks (spec
// §4.1: "character ids, moving-non-character ids, fixed-object ids").
type zoneSet struct {
	characters map[ecs.EntityID]struct{}
	movers     map[ecs.EntityID]struct{} // monsters, NPCs
	fixed      map[ecs.EntityID]struct{} // items
}

func newZoneSet() *zoneSet {
	return &zoneSet{
		characters: make(map[ecs.EntityID]struct{}),
		movers:     make(map[ecs.EntityID]struct{}),
		fixed:      make(map[ecs.EntityID]struct{}),
	}
}

func (z *zoneSet) setFor(kind Kind) map[ecs.EntityID]struct{} {
	switch kind {
	case KindCharacter:
		return z.characters
	case KindMonster, KindNPC:
		return z.movers
	default:
		return z.fixed
	}
}

func (z *zoneSet) empty() bool {
	return len(z.characters) == 0 && len(z.movers) == 0 && len(z.fixed) == 0
}

// ZoneCoord is a zone grid coordinate.
type ZoneCoord struct{ X, Y int32 }

func zoneCoordOf(pixelX, pixelY int32) ZoneCoord {
	return ZoneCoord{X: floorDiv(pixelX, ZoneEdge), Y: floorDiv(pixelY, ZoneEdge)}
}

func floorDiv(v, d int32) int32 {
	if v < 0 {
		return (v - d + 1) / d
	}
	return v / d
}

// ZoneIndex is a map's spatial index: the zone partition plus the
// iteration contracts of spec §4.1.
type ZoneIndex struct {
	zones map[ZoneCoord]*zoneSet
	kinds map[ecs.EntityID]Kind
	coord map[ecs.EntityID]ZoneCoord
}

func NewZoneIndex() *ZoneIndex {
	return &ZoneIndex{
		zones: make(map[ZoneCoord]*zoneSet),
		kinds: make(map[ecs.EntityID]Kind),
		coord: make(map[ecs.EntityID]ZoneCoord),
	}
}

// Insert reports an actor's initial zone coordinates (spec §4.1: "An
// actor reports its zone coordinates on insert, setPosition, and remove").
func (zi *ZoneIndex) Insert(id ecs.EntityID, kind Kind, pixelX, pixelY int32) {
	zc := zoneCoordOf(pixelX, pixelY)
	zi.kinds[id] = kind
	zi.coord[id] = zc
	zi.zoneAt(zc).setFor(kind)[id] = struct{}{}
}

// Remove drops the actor from its current zone.
func (zi *ZoneIndex) Remove(id ecs.EntityID) {
	kind, ok := zi.kinds[id]
	if !ok {
		return
	}
	zc := zi.coord[id]
	z := zi.zones[zc]
	if z != nil {
		delete(z.setFor(kind), id)
		if z.empty() {
			delete(zi.zones, zc)
		}
	}
	delete(zi.kinds, id)
	delete(zi.coord, id)
}

// SetPosition moves an actor between zones when its new zone differs
// from its old one, computed after motion is applied each tick (spec
// §4.1). Returns the old zone so callers building "entered/left vision"
// deltas (§4.5) can union both.
func (zi *ZoneIndex) SetPosition(id ecs.EntityID, pixelX, pixelY int32) (old ZoneCoord) {
	kind, ok := zi.kinds[id]
	if !ok {
		return ZoneCoord{}
	}
	old = zi.coord[id]
	next := zoneCoordOf(pixelX, pixelY)
	if next == old {
		return old
	}
	if z := zi.zones[old]; z != nil {
		delete(z.setFor(kind), id)
		if z.empty() {
			delete(zi.zones, old)
		}
	}
	zi.zoneAt(next).setFor(kind)[id] = struct{}{}
	zi.coord[id] = next
	return old
}

func (zi *ZoneIndex) zoneAt(zc ZoneCoord) *zoneSet {
	z := zi.zones[zc]
	if z == nil {
		z = newZoneSet()
		zi.zones[zc] = z
	}
	return z
}

// Rect is an axis-aligned pixel-space rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY int32
}

func (r Rect) zoneRange() (minZ, maxZ ZoneCoord) {
	return zoneCoordOf(r.MinX, r.MinY), zoneCoordOf(r.MaxX, r.MaxY)
}

// Filter narrows an iterator to one or more of the three zone sets.
type Filter struct {
	Characters bool
	Movers     bool
	Fixed      bool
}

var FilterAll = Filter{Characters: true, Movers: true, Fixed: true}
var FilterCharactersOnly = Filter{Characters: true}
var FilterMoversOnly = Filter{Movers: true}
var FilterFixedOnly = Filter{Fixed: true}

func (f Filter) collect(z *zoneSet, out map[ecs.EntityID]struct{}) {
	if f.Characters {
		for id := range z.characters {
			out[id] = struct{}{}
		}
	}
	if f.Movers {
		for id := range z.movers {
			out[id] = struct{}{}
		}
	}
	if f.Fixed {
		for id := range z.fixed {
			out[id] = struct{}{}
		}
	}
}

// WholeMap visits every tracked entity matching filter.
func (zi *ZoneIndex) WholeMap(filter Filter) []ecs.EntityID {
	out := make(map[ecs.EntityID]struct{})
	for _, z := range zi.zones {
		filter.collect(z, out)
	}
	return keys(out)
}

// InsideRectangle visits the union of zones whose rectangle intersects
// the query rectangle (spec §4.1).
func (zi *ZoneIndex) InsideRectangle(r Rect, filter Filter) []ecs.EntityID {
	minZ, maxZ := r.zoneRange()
	out := make(map[ecs.EntityID]struct{})
	for zx := minZ.X; zx <= maxZ.X; zx++ {
		for zy := minZ.Y; zy <= maxZ.Y; zy++ {
			if z, ok := zi.zones[ZoneCoord{X: zx, Y: zy}]; ok {
				filter.collect(z, out)
			}
		}
	}
	return keys(out)
}

// AroundPoint visits the union of zones within Manhattan radius r of a
// pixel-space point, expressed in zones (spec §4.1).
func (zi *ZoneIndex) AroundPoint(pixelX, pixelY int32, radiusZones int32, filter Filter) []ecs.EntityID {
	center := zoneCoordOf(pixelX, pixelY)
	out := make(map[ecs.EntityID]struct{})
	for dx := -radiusZones; dx <= radiusZones; dx++ {
		for dy := -radiusZones; dy <= radiusZones; dy++ {
			if absInt32(dx)+absInt32(dy) > radiusZones {
				continue
			}
			if z, ok := zi.zones[ZoneCoord{X: center.X + dx, Y: center.Y + dy}]; ok {
				filter.collect(z, out)
			}
		}
	}
	return keys(out)
}

// AroundActor is AroundPoint centered on an already-tracked actor's
// current zone.
func (zi *ZoneIndex) AroundActor(id ecs.EntityID, radiusZones int32, filter Filter) []ecs.EntityID {
	zc, ok := zi.coord[id]
	if !ok {
		return nil
	}
	return zi.AroundPoint(zc.X*ZoneEdge, zc.Y*ZoneEdge, radiusZones, filter)
}

// AroundCharacter unions the zones around both an old and new position —
// "who entered or left this character's vision this tick" (spec §4.1, §4.5).
func (zi *ZoneIndex) AroundCharacter(oldPixelX, oldPixelY, newPixelX, newPixelY int32, radiusZones int32, filter Filter) []ecs.EntityID {
	out := make(map[ecs.EntityID]struct{})
	for _, id := range zi.AroundPoint(oldPixelX, oldPixelY, radiusZones, filter) {
		out[id] = struct{}{}
	}
	for _, id := range zi.AroundPoint(newPixelX, newPixelY, radiusZones, filter) {
		out[id] = struct{}{}
	}
	return keys(out)
}

func keys(m map[ecs.EntityID]struct{}) []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
