package system

import (
	"testing"

	"github.com/embervale/worldserver/internal/core/ecs"
	"github.com/embervale/worldserver/internal/world"
)

type recordingSink struct {
	deltas []VisibilityDelta
}

func (s *recordingSink) PublishVisibility(d VisibilityDelta) {
	s.deltas = append(s.deltas, d)
}

func (s *recordingSink) find(char ecs.EntityID) (VisibilityDelta, bool) {
	for _, d := range s.deltas {
		if d.Character == char {
			return d, true
		}
	}
	return VisibilityDelta{}, false
}

// TestVisibilityEnterLeaveSymmetry exercises the visibility-symmetry
// testable property: when an entity moves into a character's
// neighborhood it is reported as Entered exactly once, and when it later
// leaves it is reported as Left exactly once — never both in the tick it
// only entered, and never neither.
func TestVisibilityEnterLeaveSymmetry(t *testing.T) {
	m := newTestMap()
	charID := m.SpawnThing(world.KindCharacter, 0, 0, 1)
	m.Chars.Set(charID, &world.Character{CharID: 1})

	monID := m.SpawnThing(world.KindMonster, world.ZoneEdge*5, world.ZoneEdge*5, 1)

	sink := &recordingSink{}
	sys := NewVisibilitySystem([]*world.Map{m}, sink, 2)

	// Tick 1: monster is far outside the neighborhood, no delta expected.
	sys.Update(0)
	if _, ok := sink.find(charID); ok {
		t.Fatalf("expected no delta while nothing is nearby")
	}

	// Move the monster into the character's neighborhood.
	m.MoveActor(monID, 0, 0)
	sys.Update(0)
	d, ok := sink.find(charID)
	if !ok {
		t.Fatalf("expected a delta once the monster entered the neighborhood")
	}
	if !containsID(d.Entered, monID) {
		t.Fatalf("expected monster in Entered, got %+v", d)
	}
	if len(d.Left) != 0 {
		t.Fatalf("expected nothing in Left on the entering tick, got %+v", d)
	}

	// Move it back out.
	sink.deltas = nil
	m.MoveActor(monID, world.ZoneEdge*5, world.ZoneEdge*5)
	sys.Update(0)
	d, ok = sink.find(charID)
	if !ok {
		t.Fatalf("expected a delta once the monster left the neighborhood")
	}
	if !containsID(d.Left, monID) {
		t.Fatalf("expected monster in Left, got %+v", d)
	}
	if len(d.Entered) != 0 {
		t.Fatalf("expected nothing in Entered on the leaving tick, got %+v", d)
	}
}

func TestVisibilityForgetClearsTrackingState(t *testing.T) {
	m := newTestMap()
	charID := m.SpawnThing(world.KindCharacter, 0, 0, 1)
	m.Chars.Set(charID, &world.Character{CharID: 1})
	m.SpawnThing(world.KindMonster, 0, 0, 1)

	sink := &recordingSink{}
	sys := NewVisibilitySystem([]*world.Map{m}, sink, 2)
	sys.Update(0)
	if _, ok := sink.find(charID); !ok {
		t.Fatalf("expected initial delta for the nearby monster")
	}

	sys.Forget(charID)
	sink.deltas = nil
	sys.Update(0)
	d, ok := sink.find(charID)
	if !ok {
		t.Fatalf("expected forgetting to replay the same entities as freshly Entered")
	}
	if len(d.Entered) == 0 {
		t.Fatalf("expected Forget to reset tracking so the next tick re-reports Entered, got %+v", d)
	}
}

func containsID(ids []ecs.EntityID, target ecs.EntityID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
