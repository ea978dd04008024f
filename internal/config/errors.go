package config

import (
	"fmt"
	"strings"
)

// SpecError reports a malformed pipeline description. It aggregates every
// problem found so a single load reports them all at once.
type SpecError struct {
	Pipeline string
	Problems []string
}

// Error implements the error interface for SpecError.
func (e *SpecError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("invalid pipeline '%s': %s", e.Pipeline, e.Problems[0])
	}
	return fmt.Sprintf("invalid pipeline '%s':\n- %s", e.Pipeline, strings.Join(e.Problems, "\n- "))
}

// NewSpecError creates a SpecError with a single formatted problem.
func NewSpecError(pipeline, format string, args ...any) *SpecError {
	return &SpecError{Pipeline: pipeline, Problems: []string{fmt.Sprintf(format, args...)}}
}
