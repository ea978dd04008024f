package runner

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/vk/forecastgrid/internal/artifact"
	"github.com/vk/forecastgrid/internal/component"
	"github.com/vk/forecastgrid/internal/config"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/dag"
	"github.com/vk/forecastgrid/internal/execctx"
	"github.com/vk/forecastgrid/internal/notify"
	"github.com/vk/forecastgrid/internal/resolver"
)

// Runner drives the jobs of one pipeline run, one at a time, in scheduler order.
type Runner struct {
	backend  Backend
	notifier notify.Notifier
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithNotifier sets the notifier job state transitions are reported to.
func WithNotifier(n notify.Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// New creates a Runner that executes invocations on the given backend.
func New(backend Backend, opts ...Option) *Runner {
	r := &Runner{
		backend:  backend,
		notifier: notify.LogNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a validated pipeline within the given execution context.
//
// A *dag.CycleError or an unbound external input is returned before any
// job runs. Otherwise the returned RunResult describes every job: a failing
// job marks all of its transitive dependents skipped, while jobs that do not
// depend on it still run.
func (r *Runner) Run(ctx context.Context, p *config.Pipeline, ec *execctx.Context) (*RunResult, error) {
	ctx = ctxlog.With(ctx, "pipeline", p.Name, "run_id", ec.RunID())
	logger := ctxlog.FromContext(ctx)

	graph, err := dag.Build(p)
	if err != nil {
		return nil, err
	}
	order, err := graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	logger.Debug("Execution order computed.", "order", order)

	if err := ec.CheckInputs(p); err != nil {
		return nil, fmt.Errorf("failed to bind external inputs: %w", err)
	}

	res := newRunResult(p.Name, ec.RunID(), order)
	table := artifact.NewTable()

	logger.Info("🚀 Starting pipeline run.", "jobs", len(order), "environment", ec.Environment(), "output_dir", ec.RunDir())
	for _, name := range order {
		job, ok := p.Job(name)
		if !ok {
			panic(fmt.Sprintf("runner: scheduled job '%s' is not part of pipeline '%s'", name, p.Name))
		}
		jobCtx := ctxlog.With(ctx, "job", name, "component", job.Component)
		r.runJob(jobCtx, p, job, graph, res, table, ec)
	}

	logger.Info("🏁 Pipeline run finished.",
		"succeeded", res.Count(StatusSucceeded),
		"failed", res.Count(StatusFailed),
		"skipped", res.Count(StatusSkipped),
	)
	return res, nil
}

func (r *Runner) runJob(ctx context.Context, p *config.Pipeline, job *config.Job, graph *dag.Graph, res *RunResult, table *artifact.Table, ec *execctx.Context) {
	logger := ctxlog.FromContext(ctx)
	jr := res.Jobs[job.Name]

	deps, err := graph.Dependencies(job.Name)
	if err != nil {
		panic(fmt.Sprintf("runner: %v", err))
	}
	if cause, blocked := upstreamFailure(deps, res); blocked {
		jr.Cause = cause
		r.transition(ctx, res, jr, StatusSkipped)
		logger.Warn("⏭️ Job skipped.", "cause", cause)
		return
	}

	start := r.now()
	fail := func(err error) {
		jr.Err = err
		jr.Duration = r.now().Sub(start)
		r.transition(ctx, res, jr, StatusFailed)
		logger.Error("❌ Job failed.", "error", err, "duration", jr.Duration)
	}

	r.transition(ctx, res, jr, StatusResolving)
	inputs, err := resolver.Resolve(p, job, table, ec)
	if err != nil {
		fail(err)
		return
	}

	r.transition(ctx, res, jr, StatusRunning)
	logger.Info("▶️ Running job.")
	inv := &component.Invocation{
		Pipeline:    p.Name,
		RunID:       ec.RunID(),
		Environment: string(ec.Environment()),
		Job:         job.Name,
		Component:   job.Component,
		Inputs:      inputs,
		Outputs:     ec.ArtifactPaths(job),
	}
	if err := r.backend.Invoke(ctx, job, inv); err != nil {
		fail(err)
		return
	}

	table.RecordAll(job.Name, inv.Outputs)
	jr.Outputs = maps.Clone(inv.Outputs)
	jr.Duration = r.now().Sub(start)
	r.transition(ctx, res, jr, StatusSucceeded)
	logger.Info("✅ Job succeeded.", "duration", jr.Duration, "outputs", len(jr.Outputs))
}

// upstreamFailure returns the root failed job that blocks a job with the
// given direct dependencies. Dependencies must already be terminal.
func upstreamFailure(deps []string, res *RunResult) (string, bool) {
	for _, dep := range deps {
		dr := res.Jobs[dep]
		if !dr.Status.Terminal() {
			panic(fmt.Sprintf("runner: dependency '%s' is %s when its dependent is scheduled", dep, dr.Status))
		}
		switch dr.Status {
		case StatusFailed:
			return dep, true
		case StatusSkipped:
			return dr.Cause, true
		}
	}
	return "", false
}

// transition moves a job to the next state and reports it. An illegal
// transition is an engine bug and panics.
func (r *Runner) transition(ctx context.Context, res *RunResult, jr *JobResult, to Status) {
	if !canTransition(jr.Status, to) {
		panic(fmt.Sprintf("runner: illegal transition of job '%s' from %s to %s", jr.Job, jr.Status, to))
	}
	jr.Status = to
	r.notifier.Notify(ctx, notify.Event{
		Pipeline: res.Pipeline,
		RunID:    res.RunID,
		Job:      jr.Job,
		Status:   string(to),
		Detail:   jr.Detail(),
		Time:     r.now(),
	})
}
