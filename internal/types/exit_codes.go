// Package types defines shared application data types.
package types

// ExitCode represents the application's exit codes.
type ExitCode int

const (
	// ExitSuccess - All executed units finished successfully.
	ExitSuccess ExitCode = 0

	// ExitPartial - Some units failed or timed out, but the failure rate is
	// acceptable (<= 50% of executed units). A deployment may proceed.
	ExitPartial ExitCode = 1

	// ExitCritical - Preflight failure, zero-unit discovery, zero executed
	// units, or failure rate above 50%.
	ExitCritical ExitCode = 2

	// ExitInterrupted - Run cancelled by signal (128 + SIGINT).
	ExitInterrupted ExitCode = 130
)

// String returns a human-readable description of the exit code.
func (e ExitCode) String() string {
	switch e {
	case ExitSuccess:
		return "success"
	case ExitPartial:
		return "partial failure"
	case ExitCritical:
		return "critical failure"
	case ExitInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Int returns the exit code as an integer.
func (e ExitCode) Int() int {
	return int(e)
}
