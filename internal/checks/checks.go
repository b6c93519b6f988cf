// Package checks performs the preflight validation gate that runs before
// any backup unit is touched. A failed check aborts the whole run.
package checks

import (
	"fmt"
	"syscall"

	"github.com/holthome/backupctl/internal/config"
	"github.com/holthome/backupctl/internal/logging"
)

// statfsFunc is an indirection over syscall.Statfs so tests can inject
// controlled capacity numbers without touching real filesystems.
var statfsFunc = syscall.Statfs

// Checker validates environmental preconditions for a run.
type Checker struct {
	logger  *logging.Logger
	targets []config.PreflightTarget
	dryRun  bool
}

// CheckResult holds the result of a single validation check.
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	Err     error
}

// NewChecker creates a new preflight checker.
func NewChecker(logger *logging.Logger, targets []config.PreflightTarget, dryRun bool) *Checker {
	return &Checker{
		logger:  logger,
		targets: targets,
		dryRun:  dryRun,
	}
}

// RunAll evaluates every preflight check. The capacity check is evaluated
// against real state even under dry-run; dry-run only changes whether a
// failure can abort the run (the caller decides that).
func (c *Checker) RunAll() ([]CheckResult, error) {
	c.logger.Debug("Running preflight checks")

	var results []CheckResult

	capResult := c.CheckCapacity()
	results = append(results, capResult)
	if !capResult.Passed {
		return results, fmt.Errorf("preflight capacity check failed: %s", capResult.Message)
	}

	c.logger.Debug("All preflight checks passed")
	return results, nil
}

// CheckCapacity verifies every configured backup target has at least its
// required free capacity.
func (c *Checker) CheckCapacity() CheckResult {
	result := CheckResult{
		Name:   "Capacity",
		Passed: false,
	}

	if len(c.targets) == 0 {
		result.Passed = true
		result.Message = "No capacity targets configured"
		return result
	}

	for _, target := range c.targets {
		if target.Path == "" || target.MinGB <= 0 {
			continue
		}
		availableGB, err := availableSpaceGB(target.Path)
		if err != nil {
			result.Err = fmt.Errorf("capacity check failed for %s: %w", target.Path, err)
			result.Message = result.Err.Error()
			c.logger.Error("%s", result.Message)
			return result
		}
		c.logger.Debug("%s: %.2f GB available, %.2f GB required", target.Path, availableGB, target.MinGB)
		if availableGB < target.MinGB {
			result.Err = fmt.Errorf("insufficient capacity on %s: %.2f GB available, %.2f GB required",
				target.Path, availableGB, target.MinGB)
			result.Message = result.Err.Error()
			c.logger.Error("%s", result.Message)
			return result
		}
	}

	result.Passed = true
	result.Message = "Sufficient capacity on all backup targets"
	c.logger.Debug("%s", result.Message)
	return result
}

func availableSpaceGB(path string) (float64, error) {
	var stat syscall.Statfs_t
	if err := statfsFunc(path, &stat); err != nil {
		return 0, err
	}
	return float64(stat.Bavail*uint64(stat.Bsize)) / (1024 * 1024 * 1024), nil
}
