package app

import (
	"context"
	"fmt"

	"github.com/vk/forecastgrid/internal/execctx"
	"github.com/vk/forecastgrid/internal/notify"
	"github.com/vk/forecastgrid/internal/runner"
)

// Result is the outcome of every requested pipeline, in the order they ran.
type Result struct {
	Runs []*runner.RunResult
}

// Failed reports whether any job of any run failed.
func (r *Result) Failed() bool {
	for _, res := range r.Runs {
		if res.Failed() {
			return true
		}
	}
	return false
}

// Validate loads and validates the requested pipelines and prints their
// execution order. Nothing runs.
func (a *App) Validate(ctx context.Context) ([]*Plan, error) {
	ctx = a.Context(ctx)
	plans, err := a.prepare(ctx)
	if err != nil {
		return nil, err
	}
	for _, plan := range plans {
		PrintPlan(a.outW, plan)
	}
	return plans, nil
}

// Run executes the requested pipelines sequentially. Load, validation and
// backend errors are returned before any job runs. A pipeline whose jobs
// fail does not stop the pipelines after it; a run-fatal error such as an
// unbound external input stops everything and is returned together with the
// runs completed so far.
func (a *App) Run(ctx context.Context) (*Result, error) {
	ctx = a.Context(ctx)
	logger := a.logger
	logger.Debug("App.Run method started.")

	backend, err := runner.NewBackend(runner.Mode(a.config.Mode), a.registry)
	if err != nil {
		return nil, err
	}
	plans, err := a.prepare(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := a.contextOptions(ctx)
	if err != nil {
		return nil, err
	}

	board := newStatusBoard()
	notifiers := notify.Multi{notify.LogNotifier{}, board}
	if a.config.EventsURL != "" {
		sio, err := notify.DialSocketIO(ctx, notify.SocketIOOptions{
			URL:       a.config.EventsURL,
			Namespace: a.config.EventsNamespace,
		})
		if err != nil {
			logger.Warn("Run events will not be streamed.", "events_url", a.config.EventsURL, "error", err)
		} else {
			defer sio.Close()
			notifiers = append(notifiers, sio)
		}
	}
	if a.config.HealthcheckPort > 0 {
		stop := a.startHealthcheckServer(ctx, a.config.HealthcheckPort, board)
		defer stop()
	}

	r := runner.New(backend, runner.WithNotifier(notifiers))
	result := &Result{}
	for _, plan := range plans {
		ec, err := execctx.New(opts)
		if err != nil {
			return result, err
		}
		res, err := r.Run(ctx, plan.Pipeline, ec)
		if err != nil {
			return result, fmt.Errorf("pipeline '%s': %w", plan.Pipeline.Name, err)
		}
		result.Runs = append(result.Runs, res)
		PrintSummary(a.outW, res)
	}

	logger.Debug("App.Run method finished.", "runs", len(result.Runs), "failed", result.Failed())
	return result, nil
}
