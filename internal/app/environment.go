package app

import (
	"context"
	"maps"
	"path/filepath"

	"github.com/vk/forecastgrid/internal/config"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/execctx"
	"github.com/vk/forecastgrid/internal/hcl"
)

// DefaultOutputRoot is used when neither the command line nor an
// environment file sets an output root.
const DefaultOutputRoot = "outputs"

// defaultsFile holds the configuration shared by every environment.
const defaultsFile = "defaults.hcl"

// contextOptions reads <config-dir>/defaults.hcl and
// <config-dir>/<environment>.hcl and layers the command-line overrides on
// top. The run id is left to the caller.
func (a *App) contextOptions(ctx context.Context) (execctx.Options, error) {
	logger := ctxlog.FromContext(ctx)
	env := execctx.Environment(a.config.Environment)

	defaults, overrides := &config.Environment{}, &config.Environment{}
	if dir := a.config.ConfigDir; dir != "" {
		var err error
		if defaults, err = hcl.LoadEnvironment(ctx, filepath.Join(dir, defaultsFile)); err != nil {
			return execctx.Options{}, err
		}
		if overrides, err = hcl.LoadEnvironment(ctx, filepath.Join(dir, string(env)+".hcl")); err != nil {
			return execctx.Options{}, err
		}
	}

	outputRoot := DefaultOutputRoot
	for _, candidate := range []string{defaults.OutputRoot, overrides.OutputRoot, a.config.OutputRoot} {
		if candidate != "" {
			outputRoot = candidate
		}
	}

	inputs := map[string]any{}
	maps.Copy(inputs, defaults.Inputs)
	maps.Copy(inputs, overrides.Inputs)
	maps.Copy(inputs, a.config.Inputs)

	logger.Debug("Environment configuration loaded.",
		"environment", env,
		"output_root", outputRoot,
		"config_keys", len(defaults.Config)+len(overrides.Config),
		"inputs", len(inputs),
	)
	return execctx.Options{
		RunID:       a.config.RunID,
		Environment: env,
		OutputRoot:  outputRoot,
		Defaults:    defaults.Config,
		Overrides:   overrides.Config,
		Inputs:      inputs,
	}, nil
}
