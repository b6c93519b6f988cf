package orchestrator

import (
	"fmt"
	"time"

	"github.com/holthome/backupctl/internal/types"
)

// UnitRecord tracks one backup job under coordination for the duration of a
// run. Records are created at discovery and mutated only by the supervisor
// and the interrupt cleanup; state moves strictly forward.
type UnitRecord struct {
	Name       string
	Stage      types.Stage
	State      types.UnitState
	ResultCode string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Registry holds every UnitRecord of a run, in discovery order. It is owned
// exclusively by the sequencer/supervisor pairing: the coordinator is a
// single polling loop, so no locking is needed or provided.
type Registry struct {
	order   []string
	records map[string]*UnitRecord
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]*UnitRecord),
	}
}

// Add registers a freshly discovered unit in Pending state.
func (r *Registry) Add(name string, stage types.Stage) (*UnitRecord, error) {
	if _, exists := r.records[name]; exists {
		return nil, fmt.Errorf("unit %s already registered", name)
	}
	rec := &UnitRecord{
		Name:  name,
		Stage: stage,
		State: types.UnitPending,
	}
	r.order = append(r.order, name)
	r.records[name] = rec
	return rec, nil
}

// Get returns the record for name, or nil.
func (r *Registry) Get(name string) *UnitRecord {
	return r.records[name]
}

// All returns every record in discovery order.
func (r *Registry) All() []*UnitRecord {
	out := make([]*UnitRecord, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.records[name])
	}
	return out
}

// ByStage returns the records of one stage in discovery order.
func (r *Registry) ByStage(stage types.Stage) []*UnitRecord {
	var out []*UnitRecord
	for _, name := range r.order {
		if rec := r.records[name]; rec.Stage == stage {
			out = append(out, rec)
		}
	}
	return out
}

// Transition moves a unit to a new state, enforcing the forward-only state
// machine: Pending -> {Skipped | Running} -> {Success | Failed | TimedOut}.
func (r *Registry) Transition(name string, next types.UnitState, now time.Time) error {
	rec, ok := r.records[name]
	if !ok {
		return fmt.Errorf("unit %s not registered", name)
	}
	if !validTransition(rec.State, next) {
		return fmt.Errorf("unit %s: invalid transition %s -> %s", name, rec.State, next)
	}

	rec.State = next
	switch next {
	case types.UnitRunning:
		rec.StartedAt = now
	case types.UnitSuccess, types.UnitFailed, types.UnitTimedOut, types.UnitSkipped:
		rec.FinishedAt = now
	}
	return nil
}

// SetResult stores the raw external result string on a record.
func (r *Registry) SetResult(name, result string) {
	if rec, ok := r.records[name]; ok {
		rec.ResultCode = result
	}
}

// Counts tallies records per state.
func (r *Registry) Counts() map[types.UnitState]int {
	counts := make(map[types.UnitState]int)
	for _, rec := range r.records {
		counts[rec.State]++
	}
	return counts
}

// Len returns the number of tracked units.
func (r *Registry) Len() int {
	return len(r.order)
}

func validTransition(from, to types.UnitState) bool {
	switch from {
	case types.UnitPending:
		// Pending -> Failed covers a trigger that the process manager
		// rejects outright; the unit never ran.
		return to == types.UnitSkipped || to == types.UnitRunning || to == types.UnitFailed
	case types.UnitRunning:
		return to == types.UnitSuccess || to == types.UnitFailed || to == types.UnitTimedOut
	}
	return false
}
