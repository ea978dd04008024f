package execctx

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/forecastgrid/internal/config"
)

func TestParseEnvironment(t *testing.T) {
	for _, s := range []string{"dev", "test", "prod", " PROD "} {
		_, err := ParseEnvironment(s)
		assert.NoError(t, err, s)
	}

	_, err := ParseEnvironment("staging")
	assert.ErrorContains(t, err, "invalid environment")
}

func TestNew(t *testing.T) {
	t.Run("generates a uuid run id", func(t *testing.T) {
		c, err := New(Options{Environment: Dev, OutputRoot: "out"})
		require.NoError(t, err)
		_, err = uuid.Parse(c.RunID())
		assert.NoError(t, err)
	})

	t.Run("keeps an explicit run id", func(t *testing.T) {
		c, err := New(Options{RunID: "nightly-42", Environment: Test, OutputRoot: "out"})
		require.NoError(t, err)
		assert.Equal(t, "nightly-42", c.RunID())
		assert.Equal(t, Test, c.Environment())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := New(Options{Environment: "qa", OutputRoot: "out"})
		assert.ErrorContains(t, err, "invalid environment")

		_, err = New(Options{Environment: Dev})
		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "output_root", cfgErr.Key)

		_, err = New(Options{RunID: "../escape", Environment: Dev, OutputRoot: "out"})
		assert.ErrorContains(t, err, "invalid run id")
	})

	t.Run("is isolated from later changes to the options", func(t *testing.T) {
		defaults := map[string]any{"horizon": 7}
		c, err := New(Options{Environment: Dev, OutputRoot: "out", Defaults: defaults})
		require.NoError(t, err)

		defaults["horizon"] = 14

		v, err := c.ConfigValue("horizon")
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})
}

func TestArtifactPath(t *testing.T) {
	root := t.TempDir()
	c, err := New(Options{RunID: "r1", Environment: Dev, OutputRoot: root})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "r1", "clean", "output_data"), c.ArtifactPath("clean", "output_data"))
	assert.Equal(t, filepath.Join(root, "r1", "clean"), c.JobDir("clean"))
	assert.Equal(t, filepath.Join(root, "r1"), c.RunDir())

	paths := c.ArtifactPaths(&config.Job{Name: "split", Outputs: []string{"train_targets", "test_targets"}})
	assert.Equal(t, map[string]string{
		"train_targets": filepath.Join(root, "r1", "split", "train_targets"),
		"test_targets":  filepath.Join(root, "r1", "split", "test_targets"),
	}, paths)
}

func TestArtifactPathsAreUniquePerRunJobAndOutput(t *testing.T) {
	root := t.TempDir()
	seen := make(map[string]string)

	for _, runID := range []string{"run-a", "run-b"} {
		c, err := New(Options{RunID: runID, Environment: Prod, OutputRoot: root})
		require.NoError(t, err)
		for _, job := range []string{"ingest", "clean", "split"} {
			for _, out := range []string{"output_data", "train_targets"} {
				key := runID + "/" + job + "/" + out
				path := c.ArtifactPath(job, out)
				prev, dup := seen[path]
				require.False(t, dup, "%s collides with %s", key, prev)
				seen[path] = key
			}
		}
	}
	assert.Len(t, seen, 12)
}

func TestConfigValue(t *testing.T) {
	c, err := New(Options{
		Environment: Prod,
		OutputRoot:  "out",
		Defaults:    map[string]any{"db_table_name": "raw_transactions", "horizon": 7},
		Overrides:   map[string]any{"db_table_name": "processed_transactions"},
	})
	require.NoError(t, err)

	v, err := c.ConfigValue("db_table_name")
	require.NoError(t, err)
	assert.Equal(t, "processed_transactions", v, "override wins over default")

	v, err = c.ConfigValue("horizon")
	require.NoError(t, err)
	assert.Equal(t, 7, v, "default is used when no override exists")

	_, err = c.ConfigValue("missing")
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "missing", cfgErr.Key)
	assert.Equal(t, Prod, cfgErr.Environment)
}

func TestInputValueAndCheckInputs(t *testing.T) {
	c, err := New(Options{
		Environment: Dev,
		OutputRoot:  "out",
		Inputs:      map[string]any{"db_path": "/data/override.db"},
	})
	require.NoError(t, err)

	bound := &config.ExternalInput{Name: "db_path", Default: "data/retail.db", HasDefault: true}
	defaulted := &config.ExternalInput{Name: "days", Default: 28, HasDefault: true}
	unbound := &config.ExternalInput{Name: "countries"}

	v, err := c.InputValue(bound)
	require.NoError(t, err)
	assert.Equal(t, "/data/override.db", v)

	v, err = c.InputValue(defaulted)
	require.NoError(t, err)
	assert.Equal(t, 28, v)

	_, err = c.InputValue(unbound)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "input.countries", cfgErr.Key)

	uses := func(names ...string) []*config.Job {
		inputs := make(map[string]config.InputValue, len(names))
		for _, n := range names {
			inputs[n] = config.External(n)
		}
		return []*config.Job{{Name: "ingest", Component: "ingest_data", Inputs: inputs}}
	}

	assert.NoError(t, c.CheckInputs(&config.Pipeline{
		Inputs: []*config.ExternalInput{bound, defaulted},
		Jobs:   uses("db_path", "days"),
	}))
	assert.Error(t, c.CheckInputs(&config.Pipeline{
		Inputs: []*config.ExternalInput{bound, unbound},
		Jobs:   uses("db_path", "countries"),
	}))
	// A declared input nothing uses does not need a binding.
	assert.NoError(t, c.CheckInputs(&config.Pipeline{
		Inputs: []*config.ExternalInput{bound, unbound},
		Jobs:   uses("db_path"),
	}))
}

func TestArtifactPathRejectsMultiSegmentNames(t *testing.T) {
	root := t.TempDir()
	c, err := New(Options{RunID: "run1", Environment: Dev, OutputRoot: root})
	require.NoError(t, err)

	testCases := []struct {
		job    string
		output string
	}{
		{job: "a", output: "b/c"},
		{job: "a/b", output: "c"},
		{job: "esc", output: "../../escaped"},
		{job: "..", output: "out"},
		{job: "a", output: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.job+"["+tc.output+"]", func(t *testing.T) {
			assert.Panics(t, func() { c.ArtifactPath(tc.job, tc.output) })
		})
	}
}
