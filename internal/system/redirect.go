package system

import (
	"context"
	"time"

	"github.com/embervale/worldserver/internal/core/ecs"
	coresys "github.com/embervale/worldserver/internal/core/system"
	gonet "github.com/embervale/worldserver/internal/net"
	"github.com/embervale/worldserver/internal/net/packet"
	"github.com/embervale/worldserver/internal/resultcode"
	"github.com/embervale/worldserver/internal/world"
	"go.uber.org/zap"
)

// RedirectClient is the runtime's caller-side handle to the Broker's
// redirect RPC, satisfied by broker.RedirectRPCClient. Declared as an
// interface here so tests can fake it without dialing a real listener.
type RedirectClient interface {
	Redirect(ctx context.Context, charID, destMapID int32, destX, destY int16) (RedirectOutcome, error)
}

// RedirectOutcome is the caller-relevant shape of broker.RedirectRPCResponse.
type RedirectOutcome struct {
	Code  resultcode.Code
	Host  string
	Port  int
	Token [32]byte
}

// RedirectSystem applies every map's deferred structural-change queue at
// PhaseHousekeeping (spec §4.8): Thing insert/remove are purely local,
// while a Character warp either moves the character to a map this same
// runtime hosts, or — when the destination belongs to another runtime —
// drives the Broker's redirect RPC and disconnects the client toward it
// (spec §3.11/§4.10, grounded on original_source/src/game-server's
// warp handling and closing the maintainer review's gap (d): nothing
// else applies a warp this system's own QueueWarp enqueues).
type RedirectSystem struct {
	maps     []*world.Map
	byID     map[int32]*world.Map
	bindings *SessionBindings
	sessions *gonet.SessionStore
	persist  *PersistenceSystem
	client   RedirectClient
	log      *zap.Logger
}

func NewRedirectSystem(
	maps []*world.Map,
	bindings *SessionBindings,
	sessions *gonet.SessionStore,
	persist *PersistenceSystem,
	client RedirectClient,
	log *zap.Logger,
) *RedirectSystem {
	byID := make(map[int32]*world.Map, len(maps))
	for _, m := range maps {
		byID[m.ID] = m
	}
	return &RedirectSystem{maps: maps, byID: byID, bindings: bindings, sessions: sessions, persist: persist, client: client, log: log}
}

func (s *RedirectSystem) Phase() coresys.Phase { return coresys.PhaseHousekeeping }

func (s *RedirectSystem) Update(_ time.Duration) {
	for _, m := range s.maps {
		for _, pe := range m.Deferred.Pending() {
			switch pe.Event.Kind {
			case world.DeferredRemove:
				m.Despawn(pe.EntityID)
			case world.DeferredInsert:
				m.ApplyInsert(pe.EntityID, pe.Event.Insert)
			case world.DeferredWarp:
				s.applyWarp(m, pe.EntityID, pe.Event.Warp)
			}
		}
	}
}

// applyWarp flushes the character's snapshot before anything else
// happens, so a crash mid-warp never loses the authoritative position
// (spec §4.10's ordering guarantee), then resolves the destination
// either locally or via the Broker.
func (s *RedirectSystem) applyWarp(m *world.Map, id ecs.EntityID, warp world.WarpSpec) {
	char, ok := m.Chars.Get(id)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := s.persist.FlushNow(ctx, m, id)
	cancel()
	if err != nil {
		s.log.Error("warp: snapshot flush failed", zap.Int32("char_id", char.CharID), zap.Error(err))
		return
	}

	if dest, ok := s.byID[warp.DestMapID]; ok {
		s.localWarp(m, dest, id, char, warp)
		return
	}
	s.crossRuntimeWarp(m, id, char, warp)
}

// localWarp removes the character from src and recreates it on dest,
// carrying over the Being component and the Character itself (its
// Inventory/Equipment live inline on the Character, so no separate
// carry-over is needed for those); the session binding is repointed at
// the new map/entity id.
func (s *RedirectSystem) localWarp(src, dest *world.Map, id ecs.EntityID, char *world.Character, warp world.WarpSpec) {
	being, hasBeing := src.Beings.Get(id)
	sessID, hasSession := s.bindings.SessionFor(id)

	src.Despawn(id)
	if hasSession {
		s.bindings.Unbind(sessID)
	}

	newID := dest.SpawnThing(world.KindCharacter, warp.DestX, warp.DestY, 1)
	if hasBeing {
		dest.Beings.Set(newID, being)
	}
	if actor, ok := dest.Actors.Get(newID); ok {
		actor.Speed = world.DefaultCharacterSpeed
	}
	char.MapID = dest.ID
	dest.Chars.Set(newID, char)

	if hasSession {
		s.bindings.Bind(sessID, CharacterBinding{Map: dest, EntityID: newID, CharID: char.CharID})
	}
}

// crossRuntimeWarp asks the Broker to move the character's authoritative
// record to the destination map's runtime and, on success, disconnects
// the client with the destination's address and handoff token so it can
// reconnect there (spec §4.10 steps 2-4).
func (s *RedirectSystem) crossRuntimeWarp(m *world.Map, id ecs.EntityID, char *world.Character, warp world.WarpSpec) {
	sessID, hasSession := s.bindings.SessionFor(id)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	outcome, err := s.client.Redirect(ctx, char.CharID, warp.DestMapID, int16(warp.DestX), int16(warp.DestY))
	cancel()
	if err != nil || outcome.Code != resultcode.OK {
		s.log.Error("cross-runtime redirect failed", zap.Int32("char_id", char.CharID), zap.Error(err))
		return
	}

	m.Despawn(id)
	if !hasSession {
		return
	}
	sess := s.sessions.Get(sessID)
	s.bindings.Unbind(sessID)
	if sess == nil {
		return
	}
	w := packet.NewWriter()
	w.WriteString(outcome.Host)
	w.WriteUint16(uint16(outcome.Port))
	w.WriteBytes(outcome.Token[:])
	sess.SendDisconnect(packet.MsgSessionRedirect, w.Bytes())
}
