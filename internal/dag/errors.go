package dag

import (
	"fmt"
	"strings"
)

// CycleError reports that the job graph is not acyclic. Jobs lists exactly
// the jobs on the cycle, in the order the dependency chain visits them.
type CycleError struct {
	Jobs []string
}

// Error implements the error interface for CycleError.
func (e *CycleError) Error() string {
	if len(e.Jobs) == 1 {
		return fmt.Sprintf("dependency cycle detected: job '%s' references its own output", e.Jobs[0])
	}
	return fmt.Sprintf("dependency cycle detected between jobs: %s -> %s", strings.Join(e.Jobs, " -> "), e.Jobs[0])
}
