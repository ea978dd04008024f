package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/forecastgrid/internal/execctx"
	"github.com/vk/forecastgrid/internal/runner"
	"github.com/vk/forecastgrid/internal/testutil"
)

// runFixture lays out a pipelines directory and a config directory.
func runFixture(t *testing.T, pipelines map[string]string) (pipelinesDir, configDir, outputRoot string) {
	t.Helper()
	pipelinesDir, configDir, outputRoot = t.TempDir(), t.TempDir(), t.TempDir()
	writeFiles(t, pipelinesDir, pipelines)
	writeFiles(t, configDir, map[string]string{
		"defaults.hcl": "config = {\n  level = \"info\"\n}\n",
	})
	return pipelinesDir, configDir, outputRoot
}

func TestRun_SucceedsAndPrintsSummary(t *testing.T) {
	// --- Arrange ---
	pipelinesDir, configDir, outputRoot := runFixture(t, map[string]string{"demo.hcl": demoHCL, "demo.yaml": demoYAML})
	calls := &testutil.CallLog{}
	a, out := setupAppTest(t, Config{
		PipelinesDir: pipelinesDir,
		ConfigDir:    configDir,
		OutputRoot:   outputRoot,
		RunID:        "run-42",
		Pipelines:    []string{"demo", "yaml_demo"},
	}, testutil.SimpleModule{"writer": calls.Writer()})

	// --- Act ---
	result, err := a.Run(t.Context())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, result.Runs, 2)
	assert.False(t, result.Failed())
	assert.Equal(t, []string{"first", "second", "only"}, calls.Jobs())

	first, ok := calls.Call("first")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"greeting": "hi", "level": "info"}, first.Inputs)

	second, ok := calls.Call("second")
	require.True(t, ok)
	firstOut := filepath.Join(outputRoot, "run-42", "first", "out")
	assert.Equal(t, map[string]any{"data": firstOut}, second.Inputs)
	_, err = os.Stat(filepath.Join(outputRoot, "run-42", "second", "out"))
	assert.NoError(t, err)

	logs := out.String()
	assert.Contains(t, logs, "Pipeline demo (run run-42)")
	assert.Contains(t, logs, "out="+firstOut)
	assert.Contains(t, logs, "2 succeeded, 0 failed, 0 skipped")
	assert.Contains(t, logs, "Pipeline yaml_demo (run run-42)")
}

func TestRun_FailedJobSkipsDependentsAndContinues(t *testing.T) {
	// --- Arrange ---
	const twoPipelines = `
pipeline "breaks" {
  job "bad" {
    component = "failing"
    outputs   = ["out"]
  }
  job "after" {
    component = "writer"
    inputs {
      x = job.bad.outputs.out
    }
    outputs = ["out"]
  }
}
`
	pipelinesDir, configDir, outputRoot := runFixture(t, map[string]string{"breaks.hcl": twoPipelines, "demo.yaml": demoYAML})
	calls := &testutil.CallLog{}
	a, out := setupAppTest(t, Config{
		PipelinesDir: pipelinesDir,
		ConfigDir:    configDir,
		OutputRoot:   outputRoot,
		Pipelines:    []string{"breaks", "yaml_demo"},
	}, testutil.SimpleModule{
		"writer":  calls.Writer(),
		"failing": calls.Failing(errors.New("boom")),
	})

	// --- Act ---
	result, err := a.Run(t.Context())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, result.Runs, 2)
	assert.True(t, result.Failed())
	assert.Equal(t, map[string]runner.Status{"bad": runner.StatusFailed, "after": runner.StatusSkipped}, result.Runs[0].Statuses())
	assert.Equal(t, map[string]runner.Status{"only": runner.StatusSucceeded}, result.Runs[1].Statuses())
	assert.NotEqual(t, result.Runs[0].RunID, result.Runs[1].RunID, "every pipeline run gets its own run id")
	assert.Contains(t, out.String(), "skipped due to upstream failure of 'bad'")
	assert.Equal(t, 0, calls.Count("after"))
}

func TestRun_RemoteModeFailsBeforeAnyJob(t *testing.T) {
	pipelinesDir, configDir, outputRoot := runFixture(t, map[string]string{"demo.hcl": demoHCL})
	calls := &testutil.CallLog{}
	a, _ := setupAppTest(t, Config{
		PipelinesDir: pipelinesDir,
		ConfigDir:    configDir,
		OutputRoot:   outputRoot,
		Mode:         "remote",
		Pipelines:    []string{"demo"},
	}, testutil.SimpleModule{"writer": calls.Writer()})

	result, err := a.Run(t.Context())

	assert.ErrorIs(t, err, runner.ErrRemoteNotImplemented)
	assert.Nil(t, result)
	assert.Empty(t, calls.Jobs())
}

func TestRun_UnboundInputStopsTheRun(t *testing.T) {
	const needsInput = `
pipeline "needs_input" {
  input "db_path" {}
  job "only" {
    component = "writer"
    inputs {
      db = input.db_path
    }
    outputs = ["out"]
  }
}
`
	pipelinesDir, configDir, outputRoot := runFixture(t, map[string]string{"needs.hcl": needsInput})
	calls := &testutil.CallLog{}
	a, _ := setupAppTest(t, Config{
		PipelinesDir: pipelinesDir,
		ConfigDir:    configDir,
		OutputRoot:   outputRoot,
		Pipelines:    []string{"needs_input"},
	}, testutil.SimpleModule{"writer": calls.Writer()})

	result, err := a.Run(t.Context())

	var cfgErr *execctx.ConfigError
	require.True(t, errors.As(err, &cfgErr), "expected a ConfigError, got %v", err)
	assert.Empty(t, result.Runs)
	assert.Empty(t, calls.Jobs())
}

func TestRun_UnreachableEventsServerDoesNotFailTheRun(t *testing.T) {
	pipelinesDir, configDir, outputRoot := runFixture(t, map[string]string{"demo.yaml": demoYAML})
	a, out := setupAppTest(t, Config{
		PipelinesDir:    pipelinesDir,
		ConfigDir:       configDir,
		OutputRoot:      outputRoot,
		Pipelines:       []string{"yaml_demo"},
		EventsURL:       "ftp://events.invalid",
		EventsNamespace: "/",
	}, writerModule())

	result, err := a.Run(t.Context())

	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.Contains(t, out.String(), "Run events will not be streamed.")
}

func TestValidate_PrintsOrder(t *testing.T) {
	pipelinesDir, _, _ := runFixture(t, map[string]string{"demo.hcl": demoHCL})
	a, out := setupAppTest(t, Config{PipelinesDir: pipelinesDir, Pipelines: []string{"demo"}}, writerModule())

	plans, err := a.Validate(t.Context())

	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Contains(t, out.String(), "Pipeline demo is valid")
	assert.Contains(t, out.String(), "Execution order: first -> second")
}

func TestPrintComponents(t *testing.T) {
	a, out := setupAppTest(t, Config{PipelinesDir: "unused"})

	PrintComponents(out, a.Registry())

	for _, name := range []string{"ingest_data", "clean_data", "split_data", "feature_engineering", "train_model", "backtest_model", "publish_artifact"} {
		assert.Contains(t, out.String(), name)
	}
}
