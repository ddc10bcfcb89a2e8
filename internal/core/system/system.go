package system

import "time"

// Phase defines execution ordering within a single tick. The order
// mirrors §5 of the simulation spec: update-all-things, resolve-attacks,
// move-all-movers, process-deaths, map housekeeping.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain packet queues, deliver last tick's deferred events
	PhasePreUpdate               // 1: update-all-things (buffs, regen, AI target selection)
	PhaseAttacks                 // 2: resolve-attacks (damage uses pre-movement positions)
	PhaseMovement                // 3: move-all-movers
	PhaseDeaths                  // 4: process-deaths (drops, xp, corpse scheduling)
	PhaseHousekeeping            // 5: map housekeeping (respawns, zone reindex, deferred queue apply)
	PhaseVisibility              // 6: build per-client visibility deltas
	PhaseOutput                  // 7: flush outbound packets
	PhasePersist                 // 8: snapshot flush to the Gateway
	PhaseCleanup                 // 9: destroy queued entities
)

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
