package runner

import (
	"fmt"
	"time"
)

// Status is the state of a job within a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusResolving Status = "resolving"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

// transitions is the per-job state machine.
var transitions = map[Status][]Status{
	StatusPending:   {StatusResolving, StatusSkipped},
	StatusResolving: {StatusRunning, StatusFailed},
	StatusRunning:   {StatusSucceeded, StatusFailed},
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job    string
	Status Status
	// Outputs holds output locations of a succeeded job.
	Outputs map[string]string
	// Err describes why a job failed.
	Err error
	// Cause names the failed upstream job a skipped job was skipped for.
	Cause    string
	Duration time.Duration
}

// Detail renders the outcome-specific part of the result for reports.
func (r *JobResult) Detail() string {
	switch r.Status {
	case StatusFailed:
		if r.Err != nil {
			return r.Err.Error()
		}
		return "failed"
	case StatusSkipped:
		return fmt.Sprintf("skipped due to upstream failure of '%s'", r.Cause)
	default:
		return ""
	}
}

// RunResult is the terminal per-job report of one pipeline run.
type RunResult struct {
	Pipeline string
	RunID    string
	// Order is the execution order the scheduler produced.
	Order []string
	Jobs  map[string]*JobResult
}

func newRunResult(pipeline, runID string, order []string) *RunResult {
	res := &RunResult{
		Pipeline: pipeline,
		RunID:    runID,
		Order:    order,
		Jobs:     make(map[string]*JobResult, len(order)),
	}
	for _, name := range order {
		res.Jobs[name] = &JobResult{Job: name, Status: StatusPending}
	}
	return res
}

// Job returns the result of the named job.
func (r *RunResult) Job(name string) (*JobResult, bool) {
	jr, ok := r.Jobs[name]
	return jr, ok
}

// Results returns every job result in execution order.
func (r *RunResult) Results() []*JobResult {
	out := make([]*JobResult, 0, len(r.Order))
	for _, name := range r.Order {
		out = append(out, r.Jobs[name])
	}
	return out
}

// Count returns the number of jobs in the given state.
func (r *RunResult) Count(s Status) int {
	n := 0
	for _, jr := range r.Jobs {
		if jr.Status == s {
			n++
		}
	}
	return n
}

// Failed reports whether any job of the run failed.
func (r *RunResult) Failed() bool {
	return r.Count(StatusFailed) > 0
}

// Statuses returns a job name to status map, convenient for assertions and reports.
func (r *RunResult) Statuses() map[string]Status {
	out := make(map[string]Status, len(r.Jobs))
	for name, jr := range r.Jobs {
		out[name] = jr.Status
	}
	return out
}
