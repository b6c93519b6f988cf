package orchestrator

import (
	"testing"
	"time"

	"github.com/holthome/backupctl/internal/types"
)

func TestRegistryAddDuplicate(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.Add("a.service", types.StageSnapshot); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := registry.Add("a.service", types.StageSnapshot); err == nil {
		t.Fatal("duplicate Add did not fail")
	}
}

func TestRegistryTransitions(t *testing.T) {
	tests := []struct {
		name  string
		steps []types.UnitState
		valid bool
	}{
		{"full success path", []types.UnitState{types.UnitRunning, types.UnitSuccess}, true},
		{"failure path", []types.UnitState{types.UnitRunning, types.UnitFailed}, true},
		{"timeout path", []types.UnitState{types.UnitRunning, types.UnitTimedOut}, true},
		{"skip path", []types.UnitState{types.UnitSkipped}, true},
		{"rejected trigger", []types.UnitState{types.UnitFailed}, true},
		{"skip then run", []types.UnitState{types.UnitSkipped, types.UnitRunning}, false},
		{"success then failed", []types.UnitState{types.UnitRunning, types.UnitSuccess, types.UnitFailed}, false},
		{"pending to success", []types.UnitState{types.UnitSuccess}, false},
		{"running twice", []types.UnitState{types.UnitRunning, types.UnitRunning}, false},
	}

	now := time.Now()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			if _, err := registry.Add("u.service", types.StageSnapshot); err != nil {
				t.Fatal(err)
			}

			var err error
			for _, next := range tt.steps {
				if err = registry.Transition("u.service", next, now); err != nil {
					break
				}
			}

			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("invalid transition sequence accepted")
			}
		})
	}
}

func TestRegistryTransitionUnknownUnit(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Transition("ghost.service", types.UnitRunning, time.Now()); err == nil {
		t.Fatal("transition of unregistered unit accepted")
	}
}

func TestRegistryTimestamps(t *testing.T) {
	registry := NewRegistry()
	registry.Add("u.service", types.StageDatabase)

	start := time.Date(2026, 8, 27, 3, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)

	registry.Transition("u.service", types.UnitRunning, start)
	registry.Transition("u.service", types.UnitSuccess, end)

	rec := registry.Get("u.service")
	if !rec.StartedAt.Equal(start) || !rec.FinishedAt.Equal(end) {
		t.Errorf("timestamps = %v / %v", rec.StartedAt, rec.FinishedAt)
	}
}

func TestRegistryOrderAndByStage(t *testing.T) {
	registry := NewRegistry()
	registry.Add("snap.service", types.StageSnapshot)
	registry.Add("sync-b.service", types.StageReplication)
	registry.Add("sync-a.service", types.StageReplication)

	all := registry.All()
	if len(all) != 3 || all[0].Name != "snap.service" || all[1].Name != "sync-b.service" {
		t.Errorf("All() order wrong: %v", names(all))
	}

	repl := registry.ByStage(types.StageReplication)
	if len(repl) != 2 || repl[0].Name != "sync-b.service" || repl[1].Name != "sync-a.service" {
		t.Errorf("ByStage() = %v, want discovery order", names(repl))
	}
}

func TestRegistryCounts(t *testing.T) {
	registry := NewRegistry()
	now := time.Now()

	registry.Add("a.service", types.StageReplication)
	registry.Add("b.service", types.StageReplication)
	registry.Add("c.service", types.StageReplication)

	registry.Transition("a.service", types.UnitRunning, now)
	registry.Transition("a.service", types.UnitSuccess, now)
	registry.Transition("b.service", types.UnitSkipped, now)

	counts := registry.Counts()
	if counts[types.UnitSuccess] != 1 || counts[types.UnitSkipped] != 1 || counts[types.UnitPending] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if registry.Len() != 3 {
		t.Errorf("Len = %d", registry.Len())
	}
}

func names(records []*UnitRecord) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Name
	}
	return out
}
