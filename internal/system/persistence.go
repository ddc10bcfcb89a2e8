package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/embervale/worldserver/internal/core/ecs"
	coresys "github.com/embervale/worldserver/internal/core/system"
	"github.com/embervale/worldserver/internal/persist"
	"github.com/embervale/worldserver/internal/world"
)

// SnapshotBuilder turns a live Character (plus its Being/Inventory/
// Equipment components) into the canonical persisted byte layout (spec
// §6 "Persisted state").
type SnapshotBuilder func(m *world.Map, id ecs.EntityID, c *world.Character) *persist.CharacterSnapshot

// PersistenceSystem flushes character snapshots to the Gateway: at once
// through FlushNow (used on warp) and FlushAllNow (shutdown), and every
// N ticks for the characters passed to MarkDirty. No code in this
// repository calls MarkDirty, so stat, inventory and quest mutations do
// not by themselves trigger a flush.
type PersistenceSystem struct {
	maps    []*world.Map
	repo    *persist.CharacterRepo
	build   SnapshotBuilder
	log     *zap.Logger
	dirty   map[ecs.EntityID]*world.Map
	ticks   int
	every   int
}

func NewPersistenceSystem(maps []*world.Map, repo *persist.CharacterRepo, build SnapshotBuilder, log *zap.Logger, flushEveryTicks int) *PersistenceSystem {
	return &PersistenceSystem{
		maps:  maps,
		repo:  repo,
		build: build,
		log:   log,
		dirty: make(map[ecs.EntityID]*world.Map),
		every: flushEveryTicks,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

// MarkDirty schedules a character for snapshot flush at the next
// periodic sweep, or immediately via FlushNow for map-change/logout.
func (s *PersistenceSystem) MarkDirty(m *world.Map, id ecs.EntityID) {
	s.dirty[id] = m
}

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.ticks++
	if s.ticks < s.every {
		return
	}
	s.ticks = 0
	s.flushAll(context.Background())
}

func (s *PersistenceSystem) flushAll(ctx context.Context) {
	for id, m := range s.dirty {
		s.flushOne(ctx, m, id)
		delete(s.dirty, id)
	}
}

// FlushAllNow forces an immediate flush of every dirty character and
// every live character on every map, for use during graceful shutdown.
func (s *PersistenceSystem) FlushAllNow(ctx context.Context) {
	s.flushAll(ctx)
	for _, m := range s.maps {
		m.Chars.Each(func(id ecs.EntityID, _ *world.Character) {
			s.flushOne(ctx, m, id)
		})
	}
}

// FlushNow writes one character's snapshot synchronously, used for
// logout and cross-map transfer where the write must complete before
// the character's components are torn down.
func (s *PersistenceSystem) FlushNow(ctx context.Context, m *world.Map, id ecs.EntityID) error {
	delete(s.dirty, id)
	return s.flushOne(ctx, m, id)
}

func (s *PersistenceSystem) flushOne(ctx context.Context, m *world.Map, id ecs.EntityID) error {
	c, ok := m.Chars.Get(id)
	if !ok {
		return nil
	}
	snap := s.build(m, id, c)
	if err := s.repo.UpdateSnapshot(ctx, c.CharID, snap); err != nil {
		if s.log != nil {
			s.log.Error("snapshot flush failed", zap.Int32("char_id", c.CharID), zap.Error(err))
		}
		return err
	}
	return nil
}
