package protocol

import "testing"

func TestStageMachine_BeginTransitionsToInProgress(t *testing.T) {
	m := NewStageMachine()
	m.Begin(StageLoadAssets)

	if !m.IsInProgress(StageLoadAssets) {
		t.Fatalf("expected load-assets to be in_progress")
	}
	if m.IsComplete(StageLoadAssets) {
		t.Fatalf("expected load-assets to not be complete yet")
	}
}

func TestStageMachine_CompleteIsMonotone(t *testing.T) {
	m := NewStageMachine()
	m.Begin(StageCreateActors)
	m.Complete(StageCreateActors)

	if m.IsInProgress(StageCreateActors) {
		t.Fatalf("expected create-actors to leave in_progress once complete")
	}
	if !m.IsComplete(StageCreateActors) {
		t.Fatalf("expected create-actors to be complete")
	}

	// Re-entering a completed stage must not un-complete it (invariant 2).
	m.Begin(StageCreateActors)
	if !m.IsComplete(StageCreateActors) {
		t.Fatalf("expected create-actors to remain complete after a second Begin")
	}
	if m.IsInProgress(StageCreateActors) {
		t.Fatalf("expected a completed stage to never re-enter in_progress")
	}
}

func TestStageMachine_NeverInBothSets(t *testing.T) {
	m := NewStageMachine()
	for _, s := range Sequence {
		m.Begin(s)
		if m.IsInProgress(s) == m.IsComplete(s) && m.IsComplete(s) {
			t.Fatalf("stage %s reported in both in_progress and complete", s)
		}
		m.Complete(s)
		if m.IsInProgress(s) {
			t.Fatalf("stage %s still in_progress after Complete", s)
		}
	}
}
