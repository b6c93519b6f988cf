package types

// UnitState represents the lifecycle state of one coordinated backup unit.
// Transitions are monotonic: Pending -> {Skipped | Running} -> {Success |
// Failed | TimedOut}. Skipped is terminal.
type UnitState string

const (
	// UnitPending - Discovered, not yet handled by the supervisor.
	UnitPending UnitState = "pending"

	// UnitSkipped - Already active via an independent trigger; not started.
	UnitSkipped UnitState = "skipped"

	// UnitRunning - Started by the orchestrator, still active.
	UnitRunning UnitState = "running"

	// UnitSuccess - Finished with the external success sentinel.
	UnitSuccess UnitState = "success"

	// UnitFailed - Finished with a non-success result.
	UnitFailed UnitState = "failed"

	// UnitTimedOut - Deadline elapsed while still active; a stop was forced.
	UnitTimedOut UnitState = "timed-out"
)

// String returns the string representation of the unit state.
func (s UnitState) String() string {
	return string(s)
}

// Terminal reports whether the state admits no further transitions.
func (s UnitState) Terminal() bool {
	switch s {
	case UnitSkipped, UnitSuccess, UnitFailed, UnitTimedOut:
		return true
	}
	return false
}

// Stage identifies a phase of the fixed backup pipeline.
type Stage string

const (
	// StageSnapshot - ZFS snapshot creation (sanoid).
	StageSnapshot Stage = "snapshot"

	// StageReplication - ZFS replication to remote targets (syncoid).
	StageReplication Stage = "replication"

	// StageDatabase - Physical database backup (pgBackRest full).
	StageDatabase Stage = "database"

	// StageFileBackup - Per-service file-level backups (restic).
	StageFileBackup Stage = "file-backup"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// ExecutionMode controls how a stage's units are dispatched.
type ExecutionMode int

const (
	// ModeSequential - One unit at a time, in discovery order.
	ModeSequential ExecutionMode = iota

	// ModeParallel - All units triggered up front, bounded by the stage's
	// pool limit (limit 0 means unbounded).
	ModeParallel
)

// String returns the string representation of the execution mode.
func (m ExecutionMode) String() string {
	switch m {
	case ModeSequential:
		return "sequential"
	case ModeParallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// LogLevel represents the logging level.
type LogLevel int

const (
	// LogLevelDebug - Debug logs (maximum detail)
	LogLevelDebug LogLevel = 5

	// LogLevelInfo - General information
	LogLevelInfo LogLevel = 4

	// LogLevelWarning - Warnings
	LogLevelWarning LogLevel = 3

	// LogLevelError - Errors
	LogLevelError LogLevel = 2

	// LogLevelCritical - Critical errors
	LogLevelCritical LogLevel = 1

	// LogLevelNone - No logs
	LogLevelNone LogLevel = 0
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelError:
		return "ERROR"
	case LogLevelCritical:
		return "CRITICAL"
	case LogLevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}
