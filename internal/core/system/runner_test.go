package system

import (
	"testing"
	"time"
)

type recordingSystem struct {
	phase Phase
	log   *[]Phase
}

func (s recordingSystem) Phase() Phase { return s.phase }
func (s recordingSystem) Update(time.Duration) {
	*s.log = append(*s.log, s.phase)
}

func TestRunnerExecutesSystemsInPhaseOrder(t *testing.T) {
	var log []Phase
	r := NewRunner()
	// Register deliberately out of order.
	r.Register(recordingSystem{phase: PhaseCleanup, log: &log})
	r.Register(recordingSystem{phase: PhaseInput, log: &log})
	r.Register(recordingSystem{phase: PhaseAttacks, log: &log})
	r.Register(recordingSystem{phase: PhaseMovement, log: &log})

	r.Tick(0)

	want := []Phase{PhaseInput, PhaseAttacks, PhaseMovement, PhaseCleanup}
	if len(log) != len(want) {
		t.Fatalf("expected %d system runs, got %d", len(want), len(log))
	}
	for i, p := range want {
		if log[i] != p {
			t.Fatalf("expected phase order %v, got %v", want, log)
		}
	}
}

func TestRunnerStableAcrossRepeatedTicks(t *testing.T) {
	var log []Phase
	r := NewRunner()
	r.Register(recordingSystem{phase: PhaseVisibility, log: &log})
	r.Register(recordingSystem{phase: PhasePreUpdate, log: &log})

	r.Tick(0)
	r.Tick(0)

	want := []Phase{PhasePreUpdate, PhaseVisibility, PhasePreUpdate, PhaseVisibility}
	if len(log) != len(want) {
		t.Fatalf("expected %d runs across two ticks, got %d", len(want), len(log))
	}
	for i, p := range want {
		if log[i] != p {
			t.Fatalf("expected %v, got %v", want, log)
		}
	}
}
