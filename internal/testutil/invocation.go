package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/forecastgrid/internal/component"
)

// Invocation builds an invocation of a component for a job named after the
// component, with every listed output placed under a fresh temp directory.
func Invocation(t *testing.T, comp string, inputs map[string]any, outputs ...string) *component.Invocation {
	t.Helper()
	dir := t.TempDir()
	inv := &component.Invocation{
		Pipeline:    "test",
		RunID:       "run-1",
		Environment: "test",
		Job:         comp,
		Component:   comp,
		Inputs:      inputs,
		Outputs:     map[string]string{},
	}
	for _, name := range outputs {
		inv.Outputs[name] = filepath.Join(dir, comp, name)
	}
	return inv
}

// WriteFile writes content to name under a fresh temp directory and returns
// the path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
