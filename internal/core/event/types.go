package event

import "github.com/embervale/worldserver/internal/core/ecs"

// Events are emitted during one tick and delivered at the start of the
// next (Bus is double-buffered — see bus.go). Handlers must not assume
// same-tick delivery.

// PlayerLoggedIn fires once a token handoff (§4.9) has admitted a
// character onto a map owned by this runtime.
type PlayerLoggedIn struct {
	EntityID    ecs.EntityID
	AccountName string
	CharacterID int32
}

// PlayerDisconnected fires when a session's transport goroutine detects
// a closed connection. Any active transaction must be cancelled.
type PlayerDisconnected struct {
	EntityID  ecs.EntityID
	SessionID uint64
}

// BeingDied fires exactly once per being, the tick HP reaches 0 (§3 Being
// invariant). Drops, xp, and corpse scheduling are driven from here.
type BeingDied struct {
	Victim ecs.EntityID
	Killer ecs.EntityID // zero if none (environment/expire)
	MapID  int32
}

// CharacterWarped fires when a warp event is applied (§4.10), whether
// local (same runtime) or cross-runtime.
type CharacterWarped struct {
	EntityID     ecs.EntityID
	FromMapID    int32
	ToMapID      int32
	CrossRuntime bool
}

// RedirectRequested fires when a runtime asks the broker to mint a new
// token for a cross-runtime warp (§4.10 step 1).
type RedirectRequested struct {
	CharacterID int32
	DestMapID   int32
}
