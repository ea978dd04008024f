package hcl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/forecastgrid/internal/config"
	"github.com/vk/forecastgrid/internal/ctxlog"
)

// LoadEnvironment reads an environment file holding the optional
// `output_root` string and `config` and `inputs` objects. A file that does
// not exist yields an empty environment and no error.
func LoadEnvironment(ctx context.Context, path string) (*config.Environment, error) {
	logger := ctxlog.FromContext(ctx).With("path", path)
	env := &config.Environment{
		Config: map[string]any{},
		Inputs: map[string]any{},
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Debug("Environment file not found, skipping.")
		return env, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse environment file %s: %w", path, diags)
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode environment file %s: %w", path, diags)
	}

	for name, attr := range attrs {
		val, diags := attr.Expr.Value(evalContext())
		if diags.HasErrors() {
			return nil, fmt.Errorf("environment file %s: attribute '%s': %w", path, name, diags)
		}
		gv, err := ctyToGo(val)
		if err != nil {
			return nil, fmt.Errorf("environment file %s: attribute '%s': %w", path, name, err)
		}

		switch name {
		case "output_root":
			s, ok := gv.(string)
			if !ok {
				return nil, fmt.Errorf("environment file %s: 'output_root' must be a string", path)
			}
			env.OutputRoot = s
		case "config", "inputs":
			m, ok := gv.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("environment file %s: '%s' must be an object", path, name)
			}
			if name == "config" {
				env.Config = m
			} else {
				env.Inputs = m
			}
		default:
			return nil, fmt.Errorf("environment file %s: unsupported attribute '%s'", path, name)
		}
	}

	logger.Debug("Loaded environment file.", "config_keys", len(env.Config), "inputs", len(env.Inputs))
	return env, nil
}
