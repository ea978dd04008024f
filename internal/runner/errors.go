package runner

import (
	"errors"
	"fmt"
)

// ErrRemoteNotImplemented is returned when the remote execution mode is requested.
var ErrRemoteNotImplemented = errors.New("remote execution backend is not implemented; use --mode local")

// ComponentFailure records that a component returned an error or panicked
// while executing a job.
type ComponentFailure struct {
	Job       string
	Component string
	Err       error
}

// Error implements the error interface for ComponentFailure.
func (e *ComponentFailure) Error() string {
	return fmt.Sprintf("component '%s' failed for job '%s': %v", e.Component, e.Job, e.Err)
}

// Unwrap returns the component's own error.
func (e *ComponentFailure) Unwrap() error {
	return e.Err
}
