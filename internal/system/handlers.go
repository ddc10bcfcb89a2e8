package system

import (
	"github.com/embervale/worldserver/internal/core/ecs"
	gonet "github.com/embervale/worldserver/internal/net"
	"github.com/embervale/worldserver/internal/net/packet"
	"github.com/embervale/worldserver/internal/pathfind"
	"github.com/embervale/worldserver/internal/scripting"
	"github.com/embervale/worldserver/internal/world"
	"go.uber.org/zap"
)

// maxPathCost bounds a single player-requested path search (spec §4.1
// "Pathfinding"); a cost this high is reachable only by a path spanning
// most of a map, at which point giving up and letting the client
// re-request is cheaper than searching further.
const maxPathCost int64 = 1 << 30

// WorldHandlerDeps bundles everything the runtime's message handlers
// need to reach from a bare session: which map/entity/character it
// controls, the shared item catalog, and the systems that own combat,
// persistence, and GM commands (spec §6).
type WorldHandlerDeps struct {
	Maps      map[int32]*world.Map
	Bindings  *SessionBindings
	Combat    *CombatSystem
	Classes   *world.ItemClassTable
	Persist   *PersistenceSystem
	Commands  *CommandSystem
	Scripting *scripting.Engine
	Log       *zap.Logger
}

// RegisterWorldHandlers wires every spec §6 runtime message family into
// registry (movement, combat, items, trade/shop, chat/command).
func RegisterWorldHandlers(registry *packet.Registry, deps *WorldHandlerDeps) {
	inWorld := []packet.SessionState{packet.StateInWorld}

	registry.Register(packet.MsgWalk, inWorld, deps.handleMove)
	registry.Register(packet.MsgAttack, inWorld, deps.handleAttack)
	registry.Register(packet.MsgItemEquip, inWorld, deps.handleItemEquip)
	registry.Register(packet.MsgItemUnequip, inWorld, deps.handleItemUnequip)
	registry.Register(packet.MsgItemUse, inWorld, deps.handleItemUse)
	registry.Register(packet.MsgTradeRequest, inWorld, deps.handleTradeRequest)
	registry.Register(packet.MsgTradeAddItem, inWorld, deps.handleTradeAddItem)
	registry.Register(packet.MsgTradeSetMoney, inWorld, deps.handleTradeSetMoney)
	registry.Register(packet.MsgTradeConfirm, inWorld, deps.handleTradeConfirm)
	registry.Register(packet.MsgTradeCancel, inWorld, deps.handleTradeCancel)
	registry.Register(packet.MsgShopBuy, inWorld, deps.handleShopBuy)
	registry.Register(packet.MsgShopSell, inWorld, deps.handleShopSell)
	registry.Register(packet.MsgChatLine, inWorld, deps.handleChatLine)
}

// resolved is what every handler needs once a session's binding has
// been looked up: the map, entity id, and world Character it controls.
type resolved struct {
	sess *gonet.Session
	m    *world.Map
	id   ecs.EntityID
	char *world.Character
}

func (d *WorldHandlerDeps) resolve(sessAny any) (resolved, bool) {
	sess, ok := sessAny.(*gonet.Session)
	if !ok {
		return resolved{}, false
	}
	bind, ok := d.Bindings.Get(sess.ID)
	if !ok {
		return resolved{}, false
	}
	char, ok := bind.Map.Chars.Get(bind.EntityID)
	if !ok {
		return resolved{}, false
	}
	return resolved{sess: sess, m: bind.Map, id: bind.EntityID, char: char}, true
}

// peerOnMap resolves another character on the same map by entity id, used by
// the trade handlers to reach both sides of an exchange.
func (d *WorldHandlerDeps) peerOnMap(m *world.Map, id ecs.EntityID) (*world.Character, bool) {
	return m.Chars.Get(id)
}

// handleMove services a walk request: the client names a destination
// tile, the server paths to it and installs the path on the actor for
// MovementSystem to consume (spec §4.1/§4.2).
func (d *WorldHandlerDeps) handleMove(sessAny any, r *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok {
		return
	}
	dx, dy := r.ReadTile()
	actor, ok := res.m.Actors.Get(res.id)
	if !ok {
		return
	}
	start := world.TileCoord{X: actor.X / world.TileSize, Y: actor.Y / world.TileSize}
	goal := world.TileCoord{X: int32(dx), Y: int32(dy)}
	path := pathfind.FindPath(res.m.Tiles, start, goal, world.WalkMaskDefault, maxPathCost)
	if len(path) == 0 {
		return
	}
	actor.Path = path
	last := path[len(path)-1]
	actor.DestX = last.X*world.TileSize + world.TileSize/2
	actor.DestY = last.Y*world.TileSize + world.TileSize/2
	actor.Flags.NewDestination = true
}

// handleAttack services a melee/ranged/spell attack request. Damage is
// always computed server-side from the attacker's own attribute vector,
// never trusted from the wire — the client only names the zone geometry
// and whether the attack is physical or magical (spec §4.3).
func (d *WorldHandlerDeps) handleAttack(sessAny any, r *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok {
		return
	}
	being, ok := res.m.Beings.Get(res.id)
	if !ok {
		return
	}
	shape := world.ZoneShape(r.ReadByte())
	multiTarget := r.ReadByte() != 0
	zoneRange := r.ReadInt32()
	angle := r.ReadInt32()
	physical := r.ReadByte() != 0
	element := world.Element(r.ReadByte())
	skillUsed := r.ReadInt32()

	dmg := world.DamageRecord{Element: element, Physical: physical, SkillUsed: skillUsed}
	if physical {
		dmg.Base = being.Modified(world.AttrPhysAtkMin)
		dmg.Delta = being.Modified(world.AttrPhysAtkDelta)
	} else {
		dmg.Base = being.Modified(world.AttrMagicalAttack)
	}

	d.Combat.QueueAttack(AttackRequest{
		Map:      res.m,
		Attacker: res.id,
		Zone:     world.AttackZone{Shape: shape, MultiTarget: multiTarget, Range: zoneRange, Angle: angle},
		Damage:   dmg,
	})
	being.Action = world.ActionAttack
}

// handleItemEquip moves an inventory slot into its equip slot, looked up
// from the shared Item-Class table (spec §4.6).
func (d *WorldHandlerDeps) handleItemEquip(sessAny any, r *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok || res.char.Inventory == nil || res.char.Equipment == nil {
		return
	}
	invSlot := int(r.ReadByte())
	itemID := r.ReadInt32()
	class, ok := d.Classes.Get(itemID)
	if !ok || class.Type != world.ItemEquipment {
		return
	}
	if err := world.Equip(res.char.Inventory, res.char.Equipment, invSlot, itemID, class.EquipCategory); err != nil {
		d.Log.Debug("equip failed", zap.Error(err), zap.Int32("char_id", res.char.CharID))
	}
}

// handleItemUnequip moves an equipped item back to inventory.
func (d *WorldHandlerDeps) handleItemUnequip(sessAny any, r *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok || res.char.Inventory == nil || res.char.Equipment == nil {
		return
	}
	slot := world.EquipSlot(r.ReadByte())
	if err := world.Unequip(res.char.Inventory, res.char.Equipment, slot); err != nil {
		d.Log.Debug("unequip failed", zap.Error(err), zap.Int32("char_id", res.char.CharID))
	}
}

// handleItemUse consumes one unit of a usable item from inventory and
// invokes its Item-Class script hook, if any (spec §3 Item-Class
// ScriptRef; grounded on internal/scripting.Engine.OnUse, the same
// "<ref>_on_use" convention UpdateTick/OnDeath use for map scripts).
func (d *WorldHandlerDeps) handleItemUse(sessAny any, r *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok || res.char.Inventory == nil {
		return
	}
	slot := int(r.ReadByte())
	if slot < 0 || slot >= len(res.char.Inventory.Slots) {
		return
	}
	s := res.char.Inventory.Slots[slot]
	if s.Empty() {
		return
	}
	class, ok := d.Classes.Get(s.ItemID)
	if !ok || class.Type != world.ItemUsable {
		return
	}
	res.char.Inventory.RemoveBySlot(slot, 1)
	if class.ScriptRef != "" && d.Scripting != nil {
		if _, err := d.Scripting.OnUse(class.ScriptRef, uint64(res.id)); err != nil && err != scripting.ErrNotDefined {
			d.Log.Error("item use script error", zap.Error(err), zap.Int32("item_id", s.ItemID))
		}
	}
}

// handleTradeRequest opens a trade between the caller and the named
// target entity, both on the same map (spec §3.13, §6).
func (d *WorldHandlerDeps) handleTradeRequest(sessAny any, r *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok {
		return
	}
	targetID := ecs.EntityID(r.ReadUint32())
	target, ok := d.peerOnMap(res.m, targetID)
	if !ok || target.CharID == res.char.CharID {
		return
	}
	world.StartTrade(res.char, target)
}

func (d *WorldHandlerDeps) tradePeer(res resolved) (*world.Character, bool) {
	if res.char.Tx == nil || res.char.Tx.Kind != world.TxTrade {
		return nil, false
	}
	var peer *world.Character
	res.m.Chars.Each(func(_ ecs.EntityID, c *world.Character) {
		if c.CharID == res.char.Tx.PeerCharID {
			peer = c
		}
	})
	if peer == nil {
		return nil, false
	}
	return peer, true
}

func (d *WorldHandlerDeps) handleTradeAddItem(sessAny any, r *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok {
		return
	}
	peer, ok := d.tradePeer(res)
	if !ok {
		return
	}
	itemID := r.ReadInt32()
	amount := r.ReadInt32()
	world.TradeAddItem(res.char, peer, itemID, amount)
}

func (d *WorldHandlerDeps) handleTradeSetMoney(sessAny any, r *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok {
		return
	}
	peer, ok := d.tradePeer(res)
	if !ok {
		return
	}
	amount := r.ReadInt32()
	world.TradeSetMoney(res.char, peer, amount)
}

func (d *WorldHandlerDeps) handleTradeConfirm(sessAny any, _ *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok {
		return
	}
	peer, ok := d.tradePeer(res)
	if !ok {
		return
	}
	world.TradeConfirm(res.char, peer)
}

func (d *WorldHandlerDeps) handleTradeCancel(sessAny any, _ *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok {
		return
	}
	peer, _ := d.tradePeer(res)
	world.CancelTrade(res.char, peer)
}

func (d *WorldHandlerDeps) handleShopBuy(sessAny any, r *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok {
		return
	}
	itemID := r.ReadInt32()
	amount := r.ReadInt32()
	world.ShopBuy(res.char, itemID, amount)
}

func (d *WorldHandlerDeps) handleShopSell(sessAny any, r *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok {
		return
	}
	itemID := r.ReadInt32()
	amount := r.ReadInt32()
	world.ShopSell(res.char, itemID, amount)
}

// handleChatLine routes a '.'-prefixed chat line to the worldserver
// command dispatcher; anything else is plain chat, left to a future
// broadcast system (spec §3.13 "Command syntax").
func (d *WorldHandlerDeps) handleChatLine(sessAny any, r *packet.Reader) {
	res, ok := d.resolve(sessAny)
	if !ok {
		return
	}
	line := r.ReadString()
	if d.Commands == nil {
		return
	}
	d.Commands.Dispatch(res.sess, res.m, res.id, res.char, line)
}
