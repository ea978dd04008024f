package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/forecastgrid/internal/registry"
	"github.com/vk/forecastgrid/internal/testutil"
)

const demoHCL = `
pipeline "demo" {
  input "greeting" {
    default = "hi"
  }

  job "first" {
    component = "writer"
    inputs {
      greeting = input.greeting
      level    = config.level
    }
    outputs = ["out"]
  }

  job "second" {
    component = "writer"
    inputs {
      data = job.first.outputs.out
    }
    outputs = ["out"]
  }
}
`

const demoYAML = `
name: yaml_demo
jobs:
  only:
    component: writer
    outputs:
      out: {}
`

// writeFiles creates every file of the map below dir.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// setupAppTest validates cfg and creates an app whose logs and reports go to
// the returned buffer.
func setupAppTest(t *testing.T, cfg Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()
	cfg.LogLevel = "debug"
	validated, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &testutil.SafeBuffer{}
	a := NewApp(out, validated, modules...)

	t.Cleanup(func() {
		if os.Getenv("FORECASTGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
		}
	})
	return a, out
}
