package orchestrator

import (
	"time"

	"github.com/holthome/backupctl/internal/config"
	"github.com/holthome/backupctl/internal/types"
)

// StageDescriptor is the execution policy for one pipeline stage.
type StageDescriptor struct {
	ID      types.Stage
	Mode    types.ExecutionMode
	Limit   int // parallel stages only; 0 = unbounded
	Timeout time.Duration

	// Pattern is matched against the unit namespace; Excludes removes
	// helper units whose names contain any of the substrings.
	Pattern  string
	Excludes []string
}

// BuildPipeline returns the fixed stage order. Database backup is strictly
// sequential: a second physical backup must never race the stanza lock, and
// file backups wait for the database's consistent backup to finish.
func BuildPipeline(cfg *config.Config) []StageDescriptor {
	return []StageDescriptor{
		{
			ID:      types.StageSnapshot,
			Mode:    types.ModeSequential,
			Timeout: cfg.SnapshotTimeout,
			Pattern: cfg.SnapshotUnit,
		},
		{
			ID:       types.StageReplication,
			Mode:     types.ModeParallel,
			Limit:    cfg.ReplicationLimit,
			Timeout:  cfg.ReplicationTimeout,
			Pattern:  cfg.ReplicationPattern,
			Excludes: cfg.ReplicationExcludes,
		},
		{
			ID:      types.StageDatabase,
			Mode:    types.ModeSequential,
			Timeout: cfg.DatabaseTimeout,
			Pattern: cfg.DatabaseUnit,
		},
		{
			ID:       types.StageFileBackup,
			Mode:     types.ModeParallel,
			Limit:    cfg.FileBackupLimit,
			Timeout:  cfg.FileBackupTimeout,
			Pattern:  cfg.FileBackupPattern,
		},
	}
}
