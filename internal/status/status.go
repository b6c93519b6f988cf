package status

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/holthome/backupctl/pkg/utils"
)

// StaleThreshold is how old a last-success timestamp may be before a backup
// is reported as stale. Daily jobs get a two-hour grace period.
const StaleThreshold = 26 * time.Hour

// Health classifies one backup target's state.
type Health string

const (
	HealthOK      Health = "OK"
	HealthStale   Health = "STALE"
	HealthFailed  Health = "FAILED"
	HealthRunning Health = "RUNNING"
)

// Row is one line of the dashboard.
type Row struct {
	System  string `json:"system"`
	Target  string `json:"target"`
	Kind    string `json:"kind"`
	Health  Health `json:"health"`
	Age     string `json:"last_success"`
	Details string `json:"details"`
}

// PromQL expressions matching the metrics the hosts' exporters publish.
var queries = map[string]string{
	"pgbackrest_age":    "time() - pgbackrest_backup_last_good_completion_seconds",
	"pgbackrest_errors": "pgbackrest_repo_status != 0",
	"pgbackrest_info":   "pgbackrest_repo_info",
	"syncoid_age":       "time() - syncoid_replication_last_success_timestamp",
	"syncoid_status":    "syncoid_replication_status",
	"restic_age":        "time() - restic_backup_last_success_timestamp",
	"restic_status":     "restic_backup_status",
}

// Collect queries every backup system and assembles the dashboard rows.
func Collect(ctx context.Context, client *Client) ([]Row, error) {
	results := make(map[string][]Sample, len(queries))
	for name, query := range queries {
		samples, err := client.Query(ctx, query)
		if err != nil {
			return nil, err
		}
		results[name] = samples
	}

	var rows []Row
	rows = append(rows, pgbackrestRows(results)...)
	rows = append(rows, syncoidRows(results)...)
	rows = append(rows, resticRows(results)...)
	return rows, nil
}

func ageHealth(age time.Duration) (Health, string) {
	if age > StaleThreshold {
		return HealthStale, fmt.Sprintf("last success > %s ago", StaleThreshold)
	}
	return HealthOK, "healthy"
}

func pgbackrestRows(results map[string][]Sample) []Row {
	// Repo display names come from the info metric when present.
	repoNames := make(map[string]string)
	for _, s := range results["pgbackrest_info"] {
		key := s.Metric["repo_key"]
		name := s.Metric["repo_name"]
		if location := s.Metric["repo_location"]; location != "" {
			name = fmt.Sprintf("%s (%s)", name, location)
		}
		repoNames[key] = name
	}

	erroredRepos := make(map[string]bool)
	for _, s := range results["pgbackrest_errors"] {
		erroredRepos[s.Metric["repo_key"]] = true
	}

	var rows []Row
	for _, s := range results["pgbackrest_age"] {
		repo := s.Metric["repo_key"]
		display := repoNames[repo]
		if display == "" {
			display = "repo" + repo
		}
		age := time.Duration(s.Value) * time.Second

		health, details := ageHealth(age)
		if erroredRepos[repo] {
			health, details = HealthFailed, "repository error"
		}

		rows = append(rows, Row{
			System:  "pgBackRest",
			Target:  display,
			Kind:    s.Metric["type"],
			Health:  health,
			Age:     utils.HumanizeAge(age),
			Details: details,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Target != rows[j].Target {
			return rows[i].Target < rows[j].Target
		}
		return rows[i].Kind < rows[j].Kind
	})
	return rows
}

func syncoidRows(results map[string][]Sample) []Row {
	statusByDataset := make(map[string]float64)
	for _, s := range results["syncoid_status"] {
		statusByDataset[s.Metric["dataset"]] = s.Value
	}

	var rows []Row
	for _, s := range results["syncoid_age"] {
		dataset := s.Metric["dataset"]
		target := s.Metric["target_name"]
		if location := s.Metric["target_location"]; location != "" {
			target = fmt.Sprintf("%s (%s)", target, location)
		}
		age := time.Duration(s.Value) * time.Second

		var health Health
		var details string
		switch current, ok := statusByDataset[dataset]; {
		case ok && current == 0:
			health, details = HealthFailed, "last run failed"
		case ok && current == 2:
			health, details = HealthRunning, "in progress"
		default:
			health, details = ageHealth(age)
		}

		rows = append(rows, Row{
			System:  "Syncoid",
			Target:  target,
			Kind:    shortDataset(dataset),
			Health:  health,
			Age:     utils.HumanizeAge(age),
			Details: details,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Kind < rows[j].Kind })
	return rows
}

func resticRows(results map[string][]Sample) []Row {
	statusByJob := make(map[string]float64)
	for _, s := range results["restic_status"] {
		statusByJob[s.Metric["backup_job"]] = s.Value
	}

	var rows []Row
	for _, s := range results["restic_age"] {
		job := s.Metric["backup_job"]
		target := s.Metric["repository"]
		if name, location := s.Metric["repository_name"], s.Metric["repository_location"]; name != "" && location != "" {
			target = fmt.Sprintf("%s (%s)", name, location)
		}
		age := time.Duration(s.Value) * time.Second

		var health Health
		var details string
		switch current, ok := statusByJob[job]; {
		case ok && current == 0:
			health, details = HealthFailed, "last run failed"
		default:
			health, details = ageHealth(age)
		}

		rows = append(rows, Row{
			System:  "Restic",
			Target:  target,
			Kind:    job,
			Health:  health,
			Age:     utils.HumanizeAge(age),
			Details: details,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Kind < rows[j].Kind })
	return rows
}

func shortDataset(dataset string) string {
	for i := len(dataset) - 1; i >= 0; i-- {
		if dataset[i] == '/' {
			return dataset[i+1:]
		}
	}
	return dataset
}
