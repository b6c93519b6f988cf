package orchestrator

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/holthome/backupctl/internal/types"
)

// RunReport is the terminal snapshot of a full run. The JSON shape is a
// fixed contract consumed by the deployment automation.
type RunReport struct {
	TotalServices      int `json:"total_services"`
	Successful         int `json:"successful"`
	Failed             int `json:"failed"`
	TimedOut           int `json:"timed_out"`
	Skipped            int `json:"skipped"`
	FailureRatePercent int `json:"failure_rate_percent"`
	ExitCode           int `json:"exit_code"`

	StartedAt  time.Time `json:"-"`
	FinishedAt time.Time `json:"-"`
	DryRun     bool      `json:"-"`
}

// Executed returns the number of units that actually ran to a terminal
// state; skipped units are excluded from failure accounting entirely.
func (r *RunReport) Executed() int {
	return r.Successful + r.Failed + r.TimedOut
}

// Aggregate tallies the registry and classifies the run's verdict:
//
//   - zero executed units outside a dry run is critical (everything already
//     running usually signals a scheduling conflict, not success);
//   - no failures and no timeouts is success;
//   - a failure rate above 50% of executed units is critical;
//   - anything else is a partial failure a deployment may proceed over.
func Aggregate(reg *Registry, dryRun bool, start, end time.Time) *RunReport {
	counts := reg.Counts()

	report := &RunReport{
		TotalServices: reg.Len(),
		Successful:    counts[types.UnitSuccess],
		Failed:        counts[types.UnitFailed],
		TimedOut:      counts[types.UnitTimedOut],
		Skipped:       counts[types.UnitSkipped],
		StartedAt:     start,
		FinishedAt:    end,
		DryRun:        dryRun,
	}

	executed := report.Executed()
	failures := report.Failed + report.TimedOut
	if executed > 0 {
		report.FailureRatePercent = failures * 100 / executed
	}

	switch {
	case dryRun:
		report.ExitCode = types.ExitSuccess.Int()
	case executed == 0:
		report.ExitCode = types.ExitCritical.Int()
	case failures == 0:
		report.ExitCode = types.ExitSuccess.Int()
	// Exact comparison: the truncated percent would call 50.98% "50" and
	// misclassify it. failures/executed > 1/2 without division.
	case failures*2 > executed:
		report.ExitCode = types.ExitCritical.Int()
	default:
		report.ExitCode = types.ExitPartial.Int()
	}

	return report
}

// WriteJSON emits the machine-readable report.
func (r *RunReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(r)
}

var stageTitle = cases.Title(language.English)

func stageDisplayName(stage types.Stage) string {
	return stageTitle.String(strings.ReplaceAll(stage.String(), "-", " "))
}

// WriteSummary renders the human-readable, stage-grouped breakdown. Every
// non-success unit is itemized with its captured result string.
func WriteSummary(w io.Writer, reg *Registry, report *RunReport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Backup run summary")
	fmt.Fprintln(w, strings.Repeat("-", 50))

	for _, stage := range []types.Stage{
		types.StageSnapshot,
		types.StageReplication,
		types.StageDatabase,
		types.StageFileBackup,
	} {
		records := reg.ByStage(stage)
		if len(records) == 0 {
			continue
		}

		fmt.Fprintf(w, "%s (%d units)\n", stageDisplayName(stage), len(records))
		for _, rec := range records {
			switch rec.State {
			case types.UnitSuccess:
				fmt.Fprintf(w, "  ok      %-40s %s\n", rec.Name, formatDuration(rec))
			case types.UnitSkipped:
				fmt.Fprintf(w, "  skipped %-40s already active\n", rec.Name)
			case types.UnitTimedOut:
				fmt.Fprintf(w, "  TIMEOUT %-40s after %s\n", rec.Name, formatDuration(rec))
			default:
				fmt.Fprintf(w, "  FAILED  %-40s result=%q\n", rec.Name, rec.ResultCode)
			}
		}
	}

	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "Total: %d  ok: %d  failed: %d  timed out: %d  skipped: %d\n",
		report.TotalServices, report.Successful, report.Failed, report.TimedOut, report.Skipped)
	if report.Executed() > 0 {
		fmt.Fprintf(w, "Failure rate: %d%% of %d executed\n", report.FailureRatePercent, report.Executed())
	}
	fmt.Fprintf(w, "Verdict: %s\n", types.ExitCode(report.ExitCode))
}

func formatDuration(rec *UnitRecord) string {
	if rec.StartedAt.IsZero() || rec.FinishedAt.IsZero() {
		return "-"
	}
	return rec.FinishedAt.Sub(rec.StartedAt).Truncate(time.Second).String()
}
