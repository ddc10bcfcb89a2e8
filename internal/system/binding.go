package system

import (
	"sync"

	"github.com/embervale/worldserver/internal/core/ecs"
	"github.com/embervale/worldserver/internal/world"
)

// CharacterBinding ties a connected session to the map and entity its
// character occupies, so a packet handler (which only sees a session)
// can reach the Character component and its Map (spec §3/§6).
type CharacterBinding struct {
	Map      *world.Map
	EntityID ecs.EntityID
	CharID   int32
}

// SessionBindings indexes the live session<->character bindings in both
// directions: by session id, for handler dispatch, and by entity id, so
// a system iterating a Map's component stores (e.g. RedirectSystem) can
// find the session that owns an entity without a reverse scan.
type SessionBindings struct {
	mu       sync.RWMutex
	byID     map[uint64]CharacterBinding
	byEntity map[ecs.EntityID]uint64
}

func NewSessionBindings() *SessionBindings {
	return &SessionBindings{
		byID:     make(map[uint64]CharacterBinding),
		byEntity: make(map[ecs.EntityID]uint64),
	}
}

// Bind records that sessionID's client controls the given character.
func (b *SessionBindings) Bind(sessionID uint64, bind CharacterBinding) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byID[sessionID] = bind
	b.byEntity[bind.EntityID] = sessionID
}

// Unbind drops a session's binding, e.g. on disconnect or map transfer.
func (b *SessionBindings) Unbind(sessionID uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bind, ok := b.byID[sessionID]
	if !ok {
		return
	}
	delete(b.byID, sessionID)
	delete(b.byEntity, bind.EntityID)
}

func (b *SessionBindings) Get(sessionID uint64) (CharacterBinding, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bind, ok := b.byID[sessionID]
	return bind, ok
}

// SessionFor reports which session, if any, controls the given entity.
func (b *SessionBindings) SessionFor(id ecs.EntityID) (uint64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sid, ok := b.byEntity[id]
	return sid, ok
}
