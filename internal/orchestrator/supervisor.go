package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/holthome/backupctl/internal/logging"
	"github.com/holthome/backupctl/internal/systemd"
	"github.com/holthome/backupctl/internal/types"
)

// Supervisor owns the life cycle of a stage's units: idle-check, trigger,
// poll, and timeout-or-classify. The coordinator is a single polling loop;
// parallelism comes from triggering several external units and polling them
// together, never from goroutines of its own.
type Supervisor struct {
	source       systemd.UnitSource
	registry     *Registry
	logger       *logging.Logger
	clock        Clock
	pollInterval time.Duration
}

// NewSupervisor creates a supervisor over the shared registry.
func NewSupervisor(source systemd.UnitSource, registry *Registry, logger *logging.Logger, clock Clock, pollInterval time.Duration) *Supervisor {
	return &Supervisor{
		source:       source,
		registry:     registry,
		logger:       logger,
		clock:        clock,
		pollInterval: pollInterval,
	}
}

// RunStage drives every unit of the stage to a terminal or skipped state.
// It returns only a cancellation error; individual unit failures never
// abort a stage. Sequential stages run with an effective pool limit of 1,
// which also serializes completions.
func (s *Supervisor) RunStage(ctx context.Context, stage StageDescriptor, units []string) error {
	limit := stage.Limit
	if stage.Mode == types.ModeSequential {
		limit = 1
	}

	pool := NewPool(limit)
	pending := append([]string(nil), units...)

	for len(pending) > 0 || pool.Size() > 0 {
		// Admit while slots are free; start order follows discovery order.
		for len(pending) > 0 && pool.HasSlot() {
			name := pending[0]
			pending = pending[1:]

			started, err := s.launch(ctx, name)
			if err != nil {
				return err
			}
			if started {
				pool.Track(name, s.clock.Now().Add(stage.Timeout))
			}
		}

		if pool.Size() == 0 {
			continue
		}

		if err := s.clock.Sleep(ctx, s.pollInterval); err != nil {
			return err
		}

		if err := s.reconcile(ctx, pool); err != nil {
			return err
		}
	}

	return nil
}

// launch performs the idle-check and trigger for one unit. It returns true
// if the unit is now Running and must be polled.
func (s *Supervisor) launch(ctx context.Context, name string) (bool, error) {
	active, err := s.source.IsActive(ctx, name)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.markFailed(name, fmt.Sprintf("state query failed: %v", err))
		return false, nil
	}

	if active {
		// An independent trigger (usually the unit's own timer) beat us
		// to it; defer to it rather than double-starting.
		s.logger.Skip("%s is already active, deferring to its own trigger", name)
		s.transition(name, types.UnitSkipped)
		return false, nil
	}

	if err := s.source.Start(ctx, name); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.markFailed(name, fmt.Sprintf("start rejected: %v", err))
		return false, nil
	}

	s.logger.Info("Started %s", name)
	s.transition(name, types.UnitRunning)
	return true, nil
}

// reconcile queries every tracked unit once, classifying completions and
// forcing a stop on units past their deadline.
func (s *Supervisor) reconcile(ctx context.Context, pool *Pool) error {
	for _, name := range pool.Names() {
		active, err := s.source.IsActive(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Transient query failure: keep the unit tracked, the
			// deadline still applies.
			s.logger.Warning("State query for %s failed: %v", name, err)
			active = true
		}

		if !active {
			s.classify(ctx, name)
			pool.Release(name)
			continue
		}

		if !s.clock.Now().Before(pool.Deadline(name)) {
			s.forceTimeout(ctx, name)
			pool.Release(name)
		}
	}
	return nil
}

// classify reads the unit's terminal result and records Success or Failed.
func (s *Supervisor) classify(ctx context.Context, name string) {
	result, err := s.source.Result(ctx, name)
	if err != nil {
		result = fmt.Sprintf("unknown (%v)", err)
	}
	s.registry.SetResult(name, result)

	if result == systemd.ResultSuccess {
		s.logger.Info("%s completed successfully", name)
		s.transition(name, types.UnitSuccess)
		return
	}

	s.logger.Warning("%s finished with result %q", name, result)
	s.transition(name, types.UnitFailed)
}

// forceTimeout stops a unit whose deadline elapsed. No classification is
// attempted after a timeout.
func (s *Supervisor) forceTimeout(ctx context.Context, name string) {
	s.logger.Warning("%s exceeded its deadline, stopping it", name)
	if err := s.source.Stop(ctx, name); err != nil {
		s.logger.Warning("Stop of timed-out %s failed: %v", name, err)
	}
	s.registry.SetResult(name, "timeout")
	s.transition(name, types.UnitTimedOut)
}

func (s *Supervisor) markFailed(name, reason string) {
	s.logger.Warning("%s: %s", name, reason)
	s.registry.SetResult(name, reason)
	s.transition(name, types.UnitFailed)
}

func (s *Supervisor) transition(name string, next types.UnitState) {
	if err := s.registry.Transition(name, next, s.clock.Now()); err != nil {
		// A transition error is a coordinator bug, not a unit failure.
		s.logger.Error("registry: %v", err)
	}
}
