package orchestrator

import (
	"fmt"

	"github.com/holthome/backupctl/internal/types"
)

// DiscoveryError reports a stage whose pattern resolved to zero units.
type DiscoveryError struct {
	Stage   types.Stage
	Pattern string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("no units found for %s stage (pattern %q)", e.Stage, e.Pattern)
}
