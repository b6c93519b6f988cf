package orchestrator

import (
	"sort"
	"time"
)

// Pool bounds how many units of a stage may be Running at once and tracks
// each running unit's per-stage deadline. The supervisor polls the tracked
// units on every iteration and releases slots as completions are observed.
type Pool struct {
	limit   int
	running map[string]time.Time
}

// NewPool creates a pool. A limit of 0 means unbounded.
func NewPool(limit int) *Pool {
	return &Pool{
		limit:   limit,
		running: make(map[string]time.Time),
	}
}

// HasSlot reports whether another unit may be admitted.
func (p *Pool) HasSlot() bool {
	return p.limit <= 0 || len(p.running) < p.limit
}

// Track admits a unit with its timeout deadline.
func (p *Pool) Track(name string, deadline time.Time) {
	p.running[name] = deadline
}

// Release frees the unit's slot.
func (p *Pool) Release(name string) {
	delete(p.running, name)
}

// Deadline returns the tracked deadline for a unit.
func (p *Pool) Deadline(name string) time.Time {
	return p.running[name]
}

// Size returns the number of tracked units.
func (p *Pool) Size() int {
	return len(p.running)
}

// Names returns the tracked unit names, sorted for deterministic polling.
func (p *Pool) Names() []string {
	names := make([]string, 0, len(p.running))
	for name := range p.running {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
