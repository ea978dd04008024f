package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/forecastgrid/internal/component"
	"github.com/vk/forecastgrid/internal/config"
	"github.com/vk/forecastgrid/internal/dag"
	"github.com/vk/forecastgrid/internal/execctx"
	"github.com/vk/forecastgrid/internal/notify"
	"github.com/vk/forecastgrid/internal/testutil"
)

func newExecContext(t *testing.T, root, runID string) *execctx.Context {
	t.Helper()
	ec, err := execctx.New(execctx.Options{
		RunID:       runID,
		Environment: execctx.Dev,
		OutputRoot:  root,
		Defaults:    map[string]any{"target_column": "Quantity"},
	})
	require.NoError(t, err)
	return ec
}

// preprocessing is the ingest -> clean -> split pipeline.
func preprocessing() *config.Pipeline {
	return &config.Pipeline{
		Name: "preprocessing",
		Jobs: []*config.Job{
			{Name: "ingest", Component: "ingest", Inputs: map[string]config.InputValue{}, Outputs: []string{"raw"}},
			{Name: "clean", Component: "clean", Inputs: map[string]config.InputValue{
				"input_data": config.Ref("ingest", "raw"),
			}, Outputs: []string{"cleaned"}},
			{Name: "split", Component: "split", Inputs: map[string]config.InputValue{
				"input_data": config.Ref("clean", "cleaned"),
			}, Outputs: []string{"train", "test"}},
		},
	}
}

func TestRunSucceedsInDependencyOrder(t *testing.T) {
	// --- Arrange ---
	var logs testutil.SafeBuffer
	calls := &testutil.CallLog{}
	reg := testutil.NewRegistry(map[string]component.Component{
		"ingest": calls.Writer(),
		"clean":  calls.Writer(),
		"split":  calls.Writer(),
	})
	root := t.TempDir()
	ec := newExecContext(t, root, "run-1")

	// --- Act ---
	res, err := New(NewLocalBackend(reg)).Run(logs.Context(), preprocessing(), ec)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"ingest", "clean", "split"}, calls.Jobs())
	assert.Equal(t, map[string]Status{
		"ingest": StatusSucceeded,
		"clean":  StatusSucceeded,
		"split":  StatusSucceeded,
	}, res.Statuses())
	assert.False(t, res.Failed())

	cleanCall, ok := calls.Call("clean")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "run-1", "ingest", "raw"), cleanCall.Inputs["input_data"])

	split, _ := res.Job("split")
	assert.Equal(t, map[string]string{
		"train": filepath.Join(root, "run-1", "split", "train"),
		"test":  filepath.Join(root, "run-1", "split", "test"),
	}, split.Outputs)
	assert.FileExists(t, split.Outputs["train"])
	assert.Contains(t, logs.String(), "Pipeline run finished")
}

func TestRunFailedJobSkipsDependents(t *testing.T) {
	// --- Arrange ---
	var logs testutil.SafeBuffer
	calls := &testutil.CallLog{}
	reg := testutil.NewRegistry(map[string]component.Component{
		"ingest": calls.Writer(),
		"clean":  calls.Failing(errors.New("bad rows")),
		"split":  calls.Writer(),
	})
	recorder := &notify.Recorder{}

	// --- Act ---
	res, err := New(NewLocalBackend(reg), WithNotifier(recorder)).Run(logs.Context(), preprocessing(), newExecContext(t, t.TempDir(), "r"))

	// --- Assert ---
	require.NoError(t, err, "a job failure is reported in the result, not as an error")
	assert.Equal(t, map[string]Status{
		"ingest": StatusSucceeded,
		"clean":  StatusFailed,
		"split":  StatusSkipped,
	}, res.Statuses())
	assert.True(t, res.Failed())
	assert.Equal(t, 0, calls.Count("split"), "a skipped job's component is never invoked")

	clean, _ := res.Job("clean")
	var failure *ComponentFailure
	require.True(t, errors.As(clean.Err, &failure))
	assert.Equal(t, "clean", failure.Job)
	assert.ErrorContains(t, clean.Err, "bad rows")

	split, _ := res.Job("split")
	assert.Equal(t, "clean", split.Cause)
	assert.Equal(t, "skipped due to upstream failure of 'clean'", split.Detail())

	assert.Equal(t, []string{"resolving", "running", "succeeded"}, recorder.Statuses("ingest"))
	assert.Equal(t, []string{"resolving", "running", "failed"}, recorder.Statuses("clean"))
	assert.Equal(t, []string{"skipped"}, recorder.Statuses("split"))
}

func TestRunIndependentBranchesContinueAfterFailure(t *testing.T) {
	// --- Arrange ---
	var logs testutil.SafeBuffer
	calls := &testutil.CallLog{}
	reg := testutil.NewRegistry(map[string]component.Component{
		"clean":    calls.Writer(),
		"forecast": calls.Writer(),
		"broken":   calls.Failing(errors.New("not enough history for DK")),
		"report":   calls.Writer(),
	})
	p := &config.Pipeline{
		Name: "forecasting",
		Jobs: []*config.Job{
			{Name: "clean", Component: "clean", Outputs: []string{"cleaned"}},
			{Name: "forecast_DK", Component: "broken", Inputs: map[string]config.InputValue{
				"input_data": config.Ref("clean", "cleaned"),
				"country":    config.Literal("Denmark"),
			}, Outputs: []string{"model"}},
			{Name: "forecast_DE", Component: "forecast", Inputs: map[string]config.InputValue{
				"input_data": config.Ref("clean", "cleaned"),
				"country":    config.Literal("Germany"),
			}, Outputs: []string{"model"}},
			{Name: "report_DK", Component: "report", Inputs: map[string]config.InputValue{
				"model": config.Ref("forecast_DK", "model"),
			}, Outputs: []string{"report"}},
			{Name: "publish_DK", Component: "report", Inputs: map[string]config.InputValue{
				"report": config.Ref("report_DK", "report"),
			}, Outputs: []string{"receipt"}},
		},
	}

	// --- Act ---
	res, err := New(NewLocalBackend(reg)).Run(logs.Context(), p, newExecContext(t, t.TempDir(), "r"))

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, map[string]Status{
		"clean":       StatusSucceeded,
		"forecast_DK": StatusFailed,
		"forecast_DE": StatusSucceeded,
		"report_DK":   StatusSkipped,
		"publish_DK":  StatusSkipped,
	}, res.Statuses())
	assert.Equal(t, 1, calls.Count("forecast_DE"))
	assert.Equal(t, 1, calls.Count("forecast_DK"))

	publish, _ := res.Job("publish_DK")
	assert.Equal(t, "forecast_DK", publish.Cause, "transitive skips name the root failure")

	for _, jr := range res.Results() {
		assert.True(t, jr.Status.Terminal(), "job %s ended %s", jr.Job, jr.Status)
	}
}

func TestRunCycleAbortsBeforeAnyJob(t *testing.T) {
	var logs testutil.SafeBuffer
	calls := &testutil.CallLog{}
	reg := testutil.NewRegistry(map[string]component.Component{"c": calls.Writer()})
	p := &config.Pipeline{
		Name: "cyclic",
		Jobs: []*config.Job{
			{Name: "independent", Component: "c", Outputs: []string{"out"}},
			{Name: "A", Component: "c", Inputs: map[string]config.InputValue{"x": config.Ref("C", "out")}, Outputs: []string{"out"}},
			{Name: "B", Component: "c", Inputs: map[string]config.InputValue{"x": config.Ref("A", "out")}, Outputs: []string{"out"}},
			{Name: "C", Component: "c", Inputs: map[string]config.InputValue{"x": config.Ref("B", "out")}, Outputs: []string{"out"}},
		},
	}

	res, err := New(NewLocalBackend(reg)).Run(logs.Context(), p, newExecContext(t, t.TempDir(), "r"))

	assert.Nil(t, res)
	var cycleErr *dag.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.ElementsMatch(t, []string{"A", "B", "C"}, cycleErr.Jobs)
	assert.Empty(t, calls.Jobs(), "no job may execute when the graph has a cycle")
}

func TestRunOutputMismatchFailsJob(t *testing.T) {
	var logs testutil.SafeBuffer
	calls := &testutil.CallLog{}
	reg := testutil.NewRegistry(map[string]component.Component{
		"ingest": calls.Silent(),
		"clean":  calls.Writer(),
		"split":  calls.Writer(),
	})

	res, err := New(NewLocalBackend(reg)).Run(logs.Context(), preprocessing(), newExecContext(t, t.TempDir(), "r"))

	require.NoError(t, err)
	ingest, _ := res.Job("ingest")
	assert.Equal(t, StatusFailed, ingest.Status)
	var specErr *config.SpecError
	require.True(t, errors.As(ingest.Err, &specErr))
	assert.Contains(t, specErr.Problems[0], "did not produce declared output 'raw'")
	assert.Equal(t, StatusSkipped, res.Jobs["clean"].Status)
	assert.Equal(t, StatusSkipped, res.Jobs["split"].Status)
}

func TestRunMissingConfigFailsOnlyTheJob(t *testing.T) {
	var logs testutil.SafeBuffer
	calls := &testutil.CallLog{}
	reg := testutil.NewRegistry(map[string]component.Component{"c": calls.Writer()})
	p := &config.Pipeline{
		Name: "config",
		Jobs: []*config.Job{
			{Name: "needs_config", Component: "c", Inputs: map[string]config.InputValue{
				"table": config.ConfigKey("db_table_name"),
			}, Outputs: []string{"out"}},
			{Name: "has_config", Component: "c", Inputs: map[string]config.InputValue{
				"target": config.ConfigKey("target_column"),
			}, Outputs: []string{"out"}},
		},
	}

	res, err := New(NewLocalBackend(reg)).Run(logs.Context(), p, newExecContext(t, t.TempDir(), "r"))

	require.NoError(t, err)
	failed, _ := res.Job("needs_config")
	assert.Equal(t, StatusFailed, failed.Status)
	var cfgErr *execctx.ConfigError
	assert.True(t, errors.As(failed.Err, &cfgErr))
	assert.Equal(t, 0, calls.Count("needs_config"), "a job failing resolution is never invoked")

	assert.Equal(t, StatusSucceeded, res.Jobs["has_config"].Status)
	call, _ := calls.Call("has_config")
	assert.Equal(t, "Quantity", call.Inputs["target"])
}

func TestRunUnboundExternalInputIsRunFatal(t *testing.T) {
	var logs testutil.SafeBuffer
	calls := &testutil.CallLog{}
	reg := testutil.NewRegistry(map[string]component.Component{"c": calls.Writer()})
	p := &config.Pipeline{
		Name:   "inputs",
		Inputs: []*config.ExternalInput{{Name: "db_path"}},
		Jobs: []*config.Job{
			{Name: "ingest", Component: "c", Inputs: map[string]config.InputValue{"db_path": config.External("db_path")}, Outputs: []string{"out"}},
		},
	}

	res, err := New(NewLocalBackend(reg)).Run(logs.Context(), p, newExecContext(t, t.TempDir(), "r"))

	assert.Nil(t, res)
	var cfgErr *execctx.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Empty(t, calls.Jobs())
}

func TestRunComponentPanicIsContained(t *testing.T) {
	var logs testutil.SafeBuffer
	calls := &testutil.CallLog{}
	reg := testutil.NewRegistry(map[string]component.Component{
		"ingest": component.Func(func(ctx context.Context, inv *component.Invocation) error {
			panic("index out of range")
		}),
		"clean": calls.Writer(),
		"split": calls.Writer(),
	})

	res, err := New(NewLocalBackend(reg)).Run(logs.Context(), preprocessing(), newExecContext(t, t.TempDir(), "r"))

	require.NoError(t, err)
	ingest, _ := res.Job("ingest")
	assert.Equal(t, StatusFailed, ingest.Status)
	assert.ErrorContains(t, ingest.Err, "panic: index out of range")
	assert.Empty(t, calls.Jobs())
}

func TestRunCancelledContextFailsJobs(t *testing.T) {
	var logs testutil.SafeBuffer
	calls := &testutil.CallLog{}
	reg := testutil.NewRegistry(map[string]component.Component{
		"ingest": calls.Writer(),
		"clean":  calls.Writer(),
		"split":  calls.Writer(),
	})
	ctx, cancel := context.WithCancel(logs.Context())
	cancel()

	res, err := New(NewLocalBackend(reg)).Run(ctx, preprocessing(), newExecContext(t, t.TempDir(), "r"))

	require.NoError(t, err)
	assert.ErrorIs(t, res.Jobs["ingest"].Err, context.Canceled)
	assert.Equal(t, StatusSkipped, res.Jobs["split"].Status)
	assert.Empty(t, calls.Jobs())
}

func TestRunsWithDifferentRunIDsDoNotOverwriteEachOther(t *testing.T) {
	var logs testutil.SafeBuffer
	root := t.TempDir()
	stamp := "first"
	stamping := component.Func(func(ctx context.Context, inv *component.Invocation) error {
		for _, name := range inv.OutputNames() {
			if err := os.WriteFile(inv.Outputs[name], []byte(stamp), 0o644); err != nil {
				return err
			}
		}
		return nil
	})
	reg := testutil.NewRegistry(map[string]component.Component{"ingest": stamping, "clean": stamping, "split": stamping})
	r := New(NewLocalBackend(reg))

	first, err := r.Run(logs.Context(), preprocessing(), newExecContext(t, root, "run-a"))
	require.NoError(t, err)
	stamp = "second"
	second, err := r.Run(logs.Context(), preprocessing(), newExecContext(t, root, "run-b"))
	require.NoError(t, err)

	for _, job := range []string{"ingest", "clean", "split"} {
		for name, path := range first.Jobs[job].Outputs {
			other := second.Jobs[job].Outputs[name]
			assert.NotEqual(t, path, other)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "first", string(data), "run-a output %s/%s was overwritten", job, name)
		}
	}
}

func TestRunResolvesOnlyAfterDependenciesSucceeded(t *testing.T) {
	var logs testutil.SafeBuffer
	calls := &testutil.CallLog{}
	reg := testutil.NewRegistry(map[string]component.Component{"c": calls.Writer()})
	recorder := &notify.Recorder{}
	p := &config.Pipeline{
		Name: "diamond",
		Jobs: []*config.Job{
			{Name: "report", Component: "c", Inputs: map[string]config.InputValue{
				"model":  config.Ref("train", "model"),
				"scores": config.Ref("backtest", "scores"),
			}, Outputs: []string{"report"}},
			{Name: "backtest", Component: "c", Inputs: map[string]config.InputValue{
				"model": config.Ref("train", "model"),
				"data":  config.Ref("features", "train_targets"),
			}, Outputs: []string{"scores"}},
			{Name: "train", Component: "c", Inputs: map[string]config.InputValue{
				"data": config.Ref("features", "train_targets"),
			}, Outputs: []string{"model"}},
			{Name: "features", Component: "c", Outputs: []string{"train_targets"}},
		},
	}

	_, err := New(NewLocalBackend(reg), WithNotifier(recorder)).Run(logs.Context(), p, newExecContext(t, t.TempDir(), "r"))
	require.NoError(t, err)

	succeeded := map[string]bool{}
	for _, e := range recorder.Events {
		switch e.Status {
		case string(StatusResolving):
			job, _ := p.Job(e.Job)
			for _, ref := range job.References() {
				assert.True(t, succeeded[ref.Job], "%s resolved before %s succeeded", e.Job, ref.Job)
			}
		case string(StatusSucceeded):
			succeeded[e.Job] = true
		}
	}
	assert.Equal(t, []string{"features", "train", "backtest", "report"}, calls.Jobs())
}

func TestNewBackend(t *testing.T) {
	reg := testutil.NewRegistry(nil)

	b, err := NewBackend(ModeLocal, reg)
	require.NoError(t, err)
	assert.IsType(t, &LocalBackend{}, b)

	_, err = NewBackend(ModeRemote, reg)
	assert.ErrorIs(t, err, ErrRemoteNotImplemented)

	m, err := ParseMode("REMOTE")
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, m)
	_, err = ParseMode("cloud")
	assert.ErrorContains(t, err, "invalid mode")
}

func TestTransitionGuardsTheStateMachine(t *testing.T) {
	var logs testutil.SafeBuffer
	r := New(nil, WithNotifier(&notify.Recorder{}))
	res := newRunResult("p", "r", []string{"a"})
	jr := res.Jobs["a"]

	assert.Panics(t, func() { r.transition(logs.Context(), res, jr, StatusSucceeded) })

	r.transition(logs.Context(), res, jr, StatusSkipped)
	assert.Panics(t, func() { r.transition(logs.Context(), res, jr, StatusResolving) })
}
