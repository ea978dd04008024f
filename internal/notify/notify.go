// Package notify publishes job state transitions of a pipeline run. The
// runner reports every transition to a Notifier; what a notifier does with
// it never changes a job's outcome.
package notify

import (
	"context"
	"time"

	"github.com/vk/forecastgrid/internal/ctxlog"
)

// Event is one job state transition.
type Event struct {
	Pipeline string    `json:"pipeline"`
	RunID    string    `json:"run_id"`
	Job      string    `json:"job"`
	Status   string    `json:"status"`
	Detail   string    `json:"detail,omitempty"`
	Time     time.Time `json:"time"`
}

// Notifier receives job state transitions.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// LogNotifier writes every transition to the context logger at debug level.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(ctx context.Context, e Event) {
	ctxlog.FromContext(ctx).Debug("Job state transition.",
		"pipeline", e.Pipeline,
		"run_id", e.RunID,
		"job", e.Job,
		"status", e.Status,
		"detail", e.Detail,
	)
}

// Multi fans an event out to several notifiers in order.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, e Event) {
	for _, n := range m {
		n.Notify(ctx, e)
	}
}

// Recorder keeps every event in memory, in arrival order.
type Recorder struct {
	Events []Event
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, e Event) {
	r.Events = append(r.Events, e)
}

// Statuses returns the sequence of statuses recorded for a job.
func (r *Recorder) Statuses(job string) []string {
	var out []string
	for _, e := range r.Events {
		if e.Job == job {
			out = append(out, e.Status)
		}
	}
	return out
}
