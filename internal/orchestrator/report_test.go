package orchestrator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/holthome/backupctl/internal/types"
)

// fillRegistry builds a registry with the given number of units per state.
func fillRegistry(t *testing.T, success, failed, timedOut, skipped int) *Registry {
	t.Helper()
	registry := NewRegistry()
	now := time.Now()
	i := 0

	add := func(count int, terminal types.UnitState) {
		for j := 0; j < count; j++ {
			name := fmt.Sprintf("u%02d.service", i)
			i++
			if _, err := registry.Add(name, types.StageReplication); err != nil {
				t.Fatal(err)
			}
			if terminal == types.UnitSkipped {
				registry.Transition(name, types.UnitSkipped, now)
				continue
			}
			registry.Transition(name, types.UnitRunning, now)
			registry.Transition(name, terminal, now)
		}
	}

	add(success, types.UnitSuccess)
	add(failed, types.UnitFailed)
	add(timedOut, types.UnitTimedOut)
	add(skipped, types.UnitSkipped)
	return registry
}

func TestAggregateClassification(t *testing.T) {
	tests := []struct {
		name     string
		success  int
		failed   int
		timedOut int
		skipped  int
		dryRun   bool
		wantCode int
		wantRate int
	}{
		{name: "all success", success: 5, wantCode: 0, wantRate: 0},
		{name: "one failure of nine", success: 8, failed: 1, wantCode: 1, wantRate: 11},
		{name: "half failed is still partial", success: 2, failed: 2, wantCode: 1, wantRate: 50},
		{name: "exactly half of many is partial", success: 25, failed: 25, wantCode: 1, wantRate: 50},
		// 26/51 = 50.98%: the integer percent truncates to 50 but the
		// classification must still be critical.
		{name: "just over half is critical", success: 25, failed: 26, wantCode: 2, wantRate: 50},
		{name: "just over half with timeouts", success: 25, timedOut: 26, wantCode: 2, wantRate: 50},
		{name: "majority failed is critical", success: 1, failed: 2, wantCode: 2, wantRate: 66},
		{name: "timeouts count as failures", success: 1, timedOut: 2, wantCode: 2, wantRate: 66},
		{name: "zero executed is critical", skipped: 4, wantCode: 2, wantRate: 0},
		{name: "empty registry is critical", wantCode: 2, wantRate: 0},
		{name: "skipped excluded from rate", success: 1, failed: 1, skipped: 8, wantCode: 1, wantRate: 50},
		{name: "dry run always succeeds", dryRun: true, wantCode: 0, wantRate: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := fillRegistry(t, tt.success, tt.failed, tt.timedOut, tt.skipped)
			report := Aggregate(registry, tt.dryRun, time.Now(), time.Now())

			if report.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", report.ExitCode, tt.wantCode)
			}
			if report.FailureRatePercent != tt.wantRate {
				t.Errorf("FailureRatePercent = %d, want %d", report.FailureRatePercent, tt.wantRate)
			}
		})
	}
}

func TestReportJSONShape(t *testing.T) {
	registry := fillRegistry(t, 3, 1, 1, 2)
	report := Aggregate(registry, false, time.Now(), time.Now())

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	want := map[string]float64{
		"total_services":       7,
		"successful":           3,
		"failed":               1,
		"timed_out":            1,
		"skipped":              2,
		"failure_rate_percent": 40,
		"exit_code":            1,
	}
	for key, value := range want {
		got, ok := decoded[key].(float64)
		if !ok || got != value {
			t.Errorf("%s = %v, want %v", key, decoded[key], value)
		}
	}
	if len(decoded) != len(want) {
		t.Errorf("JSON has %d keys, want exactly %d: %v", len(decoded), len(want), decoded)
	}
}

func TestWriteSummary(t *testing.T) {
	registry := NewRegistry()
	now := time.Now()

	registry.Add("sanoid.service", types.StageSnapshot)
	registry.Transition("sanoid.service", types.UnitRunning, now)
	registry.Transition("sanoid.service", types.UnitSuccess, now.Add(time.Minute))

	registry.Add("syncoid-tank.service", types.StageReplication)
	registry.Transition("syncoid-tank.service", types.UnitRunning, now)
	registry.Transition("syncoid-tank.service", types.UnitTimedOut, now.Add(time.Hour))
	registry.SetResult("syncoid-tank.service", "timeout")

	registry.Add("restic-backup-web.service", types.StageFileBackup)
	registry.Transition("restic-backup-web.service", types.UnitSkipped, now)

	report := Aggregate(registry, false, now, now.Add(time.Hour))

	var buf bytes.Buffer
	WriteSummary(&buf, registry, report)
	out := buf.String()

	for _, want := range []string{
		"Snapshot (1 units)",
		"ok      sanoid.service",
		"TIMEOUT syncoid-tank.service",
		"skipped restic-backup-web.service",
		"File Backup (1 units)",
		"Verdict:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestExecuted(t *testing.T) {
	report := &RunReport{Successful: 2, Failed: 1, TimedOut: 1, Skipped: 5}
	if report.Executed() != 4 {
		t.Errorf("Executed = %d, want 4", report.Executed())
	}
}
