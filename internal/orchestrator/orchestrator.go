// Package orchestrator coordinates the pre-deployment backup pipeline:
// snapshot, replication, database backup, and file backups, in that order,
// with a hard barrier between stages.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/holthome/backupctl/internal/checks"
	"github.com/holthome/backupctl/internal/config"
	"github.com/holthome/backupctl/internal/logging"
	"github.com/holthome/backupctl/internal/systemd"
	"github.com/holthome/backupctl/internal/types"
)

// cleanupTimeout bounds the best-effort stop sweep after an interrupt; the
// run's own context is already cancelled by then.
const cleanupTimeout = 15 * time.Second

// Orchestrator sequences the fixed backup pipeline over an external unit
// source and produces the run's verdict.
type Orchestrator struct {
	logger   *logging.Logger
	cfg      *config.Config
	source   systemd.UnitSource
	checker  *checks.Checker
	clock    Clock
	registry *Registry
	dryRun   bool

	startTime time.Time
}

// New creates a new Orchestrator.
func New(logger *logging.Logger, cfg *config.Config, source systemd.UnitSource, dryRun bool) *Orchestrator {
	return &Orchestrator{
		logger:   logger,
		cfg:      cfg,
		source:   source,
		clock:    realClock{},
		registry: NewRegistry(),
		dryRun:   dryRun,
	}
}

// SetChecker attaches the preflight checker.
func (o *Orchestrator) SetChecker(checker *checks.Checker) {
	o.checker = checker
}

// SetClock injects a clock (used by tests).
func (o *Orchestrator) SetClock(clock Clock) {
	o.clock = clock
}

// Registry exposes the unit registry for reporting.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Run executes preflight and every stage, then aggregates the verdict. The
// returned report always carries the process exit code; a cancelled context
// yields the interrupted code after a best-effort cleanup sweep.
func (o *Orchestrator) Run(ctx context.Context) *RunReport {
	o.startTime = o.clock.Now()

	// Registered once, executes on every exit path. Outside a dry run it
	// stops whatever the registry still believes is Running.
	defer o.cleanup()

	if code, aborted := o.runPreflight(); aborted {
		return o.finishForced(code)
	}

	pipeline := BuildPipeline(o.cfg)

	// Every stage's unit set is resolved and registered before anything is
	// triggered: a pattern matching zero units anywhere in the pipeline
	// aborts the run with no unit ever started.
	stageUnits := make(map[types.Stage][]string, len(pipeline))
	for _, stage := range pipeline {
		units, err := o.discover(ctx, stage)
		if err != nil {
			if ctx.Err() != nil {
				return o.finishForced(types.ExitInterrupted)
			}
			if o.dryRun {
				o.logger.Warning("Discovery for %s failed: %v", stage.ID, err)
				continue
			}
			o.logger.Critical("Discovery for %s failed: %v", stage.ID, err)
			return o.finishForced(types.ExitCritical)
		}
		stageUnits[stage.ID] = units

		if o.dryRun {
			continue
		}
		for _, unit := range units {
			if _, err := o.registry.Add(unit, stage.ID); err != nil {
				o.logger.Critical("Discovery for %s: %v", stage.ID, err)
				return o.finishForced(types.ExitCritical)
			}
		}
	}

	if o.dryRun {
		for _, stage := range pipeline {
			o.logger.Stage("%s (%s, timeout %s)", stageDisplayName(stage.ID), stage.Mode, stage.Timeout)
			for _, unit := range stageUnits[stage.ID] {
				o.logger.Info("[DRY RUN] Would start %s and wait up to %s", unit, stage.Timeout)
			}
		}
		return o.finish()
	}

	supervisor := NewSupervisor(o.source, o.registry, o.logger, o.clock, o.cfg.PollInterval)

	for _, stage := range pipeline {
		o.logger.Stage("%s (%s, timeout %s)", stageDisplayName(stage.ID), stage.Mode, stage.Timeout)

		// Hard barrier: RunStage returns only once every unit of the
		// stage is terminal or skipped.
		if err := supervisor.RunStage(ctx, stage, stageUnits[stage.ID]); err != nil {
			o.logger.Warning("Run interrupted during %s stage", stage.ID)
			return o.finishForced(types.ExitInterrupted)
		}
	}

	return o.finish()
}

// runPreflight evaluates the capacity gate. It reports whether the run must
// abort; under dry-run the check still runs but can never abort.
func (o *Orchestrator) runPreflight() (types.ExitCode, bool) {
	if o.checker == nil {
		o.logger.Debug("No preflight checker configured")
		return types.ExitSuccess, false
	}

	o.logger.Stage("Preflight")

	results, err := o.checker.RunAll()
	for _, result := range results {
		if result.Passed {
			o.logger.Info("✓ %s: %s", result.Name, result.Message)
		} else {
			o.logger.Error("✗ %s: %s", result.Name, result.Message)
		}
	}

	if err != nil {
		if o.dryRun {
			o.logger.Warning("Preflight failed (ignored in dry run): %v", err)
			return types.ExitSuccess, false
		}
		o.logger.Critical("Preflight failed, aborting before any unit is touched: %v", err)
		return types.ExitCritical, true
	}

	return types.ExitSuccess, false
}

// discover resolves a stage's unit set. Zero units where units are expected
// is always a misconfiguration, never "nothing to do": silent zero-unit
// stages have masked broken scheduling before.
func (o *Orchestrator) discover(ctx context.Context, stage StageDescriptor) ([]string, error) {
	names, err := o.source.List(ctx, stage.Pattern)
	if err != nil {
		return nil, err
	}

	units := names[:0]
	for _, name := range names {
		if excluded(name, stage.Excludes) {
			o.logger.Debug("Excluding helper unit %s", name)
			continue
		}
		units = append(units, name)
	}

	if len(units) == 0 {
		return nil, &DiscoveryError{Stage: stage.ID, Pattern: stage.Pattern}
	}

	o.logger.Debug("Discovered %d unit(s) for %s", len(units), stage.ID)
	return units, nil
}

func excluded(name string, substrings []string) bool {
	for _, sub := range substrings {
		if sub != "" && strings.Contains(name, sub) {
			return true
		}
	}
	return false
}

// cleanup issues a best-effort stop to every unit the registry still
// believes is Running, across all stages. Already-terminal units keep their
// state; partial backups remain valid outputs of their subsystems.
func (o *Orchestrator) cleanup() {
	if o.dryRun {
		return
	}

	var active []*UnitRecord
	for _, rec := range o.registry.All() {
		if rec.State == types.UnitRunning {
			active = append(active, rec)
		}
	}
	if len(active) == 0 {
		return
	}

	o.logger.Warning("Stopping %d still-active unit(s)", len(active))
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	for _, rec := range active {
		if err := o.source.Stop(ctx, rec.Name); err != nil {
			o.logger.Warning("Stop of %s failed: %v", rec.Name, err)
		}
	}
}

// finish aggregates the registry into the terminal report.
func (o *Orchestrator) finish() *RunReport {
	return Aggregate(o.registry, o.dryRun, o.startTime, o.clock.Now())
}

// finishForced aggregates but overrides the computed classification with a
// critical abort or interruption code.
func (o *Orchestrator) finishForced(code types.ExitCode) *RunReport {
	report := o.finish()
	report.ExitCode = code.Int()
	return report
}
