// Package execctx provides the ExecutionContext: the run-scoped, immutable
// configuration every job of a pipeline run sees. It owns the run
// identifier, the environment, the output root and the artifact location
// policy, and answers configuration and external input lookups.
package execctx

import (
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vk/forecastgrid/internal/config"
)

// Environment is one of the closed set of deployment environments.
type Environment string

const (
	Dev  Environment = "dev"
	Test Environment = "test"
	Prod Environment = "prod"
)

// Environments lists every valid environment.
var Environments = []Environment{Dev, Test, Prod}

// ParseEnvironment validates an environment name.
func ParseEnvironment(s string) (Environment, error) {
	env := Environment(strings.ToLower(strings.TrimSpace(s)))
	for _, e := range Environments {
		if e == env {
			return env, nil
		}
	}
	return "", fmt.Errorf("invalid environment %q: must be one of dev, test, prod", s)
}

// Options configures a new Context.
type Options struct {
	// RunID is generated when empty.
	RunID       string
	Environment Environment
	OutputRoot  string
	// Defaults are the configuration values shared by every environment.
	Defaults map[string]any
	// Overrides are the environment-specific values merged over Defaults.
	Overrides map[string]any
	// Inputs bind external pipeline inputs by name.
	Inputs map[string]any
}

// Context is the ExecutionContext of one pipeline run. It is immutable
// after construction.
type Context struct {
	runID      string
	env        Environment
	outputRoot string
	defaults   map[string]any
	overrides  map[string]any
	inputs     map[string]any
}

// New validates the options and builds a Context.
func New(opts Options) (*Context, error) {
	if _, err := ParseEnvironment(string(opts.Environment)); err != nil {
		return nil, err
	}
	if opts.OutputRoot == "" {
		return nil, &ConfigError{Key: "output_root", Environment: opts.Environment, Reason: "output root is required"}
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	} else if strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return nil, fmt.Errorf("invalid run id %q: must be a single path segment", runID)
	}

	return &Context{
		runID:      runID,
		env:        opts.Environment,
		outputRoot: filepath.Clean(opts.OutputRoot),
		defaults:   maps.Clone(opts.Defaults),
		overrides:  maps.Clone(opts.Overrides),
		inputs:     maps.Clone(opts.Inputs),
	}, nil
}

// RunID returns the unique identifier of the run.
func (c *Context) RunID() string { return c.runID }

// Environment returns the active environment.
func (c *Context) Environment() Environment { return c.env }

// OutputRoot returns the base directory of every run.
func (c *Context) OutputRoot() string { return c.outputRoot }

// RunDir returns the directory holding every artifact of this run.
func (c *Context) RunDir() string {
	return filepath.Join(c.outputRoot, c.runID)
}

// JobDir returns the directory holding every artifact of a job in this run.
func (c *Context) JobDir(job string) string {
	return filepath.Join(c.RunDir(), job)
}

// ArtifactPath returns the location a job output is materialized at:
// output_root/run_id/job/output. Distinct (run, job, output) triples never
// share a path. Job and output names must pass config.ValidName, which
// config.Validate enforces; anything else panics.
func (c *Context) ArtifactPath(job, output string) string {
	if !config.ValidName(job) || !config.ValidName(output) {
		panic(fmt.Sprintf("execctx: artifact path for job '%s' output '%s' would not be a single path segment each", job, output))
	}
	return filepath.Join(c.JobDir(job), output)
}

// ArtifactPaths returns the locations of every declared output of a job.
func (c *Context) ArtifactPaths(j *config.Job) map[string]string {
	paths := make(map[string]string, len(j.Outputs))
	for _, out := range j.Outputs {
		paths[out] = c.ArtifactPath(j.Name, out)
	}
	return paths
}

// ConfigValue resolves a configuration key: the environment override
// first, then the default. A key absent from both is a *ConfigError.
func (c *Context) ConfigValue(key string) (any, error) {
	if v, ok := c.overrides[key]; ok {
		return v, nil
	}
	if v, ok := c.defaults[key]; ok {
		return v, nil
	}
	return nil, &ConfigError{Key: key, Environment: c.env, Reason: "not set in environment overrides or defaults"}
}

// InputValue resolves a declared external input: the bound value first,
// then the declaration's default.
func (c *Context) InputValue(in *config.ExternalInput) (any, error) {
	if v, ok := c.inputs[in.Name]; ok {
		return v, nil
	}
	if in.HasDefault {
		return in.Default, nil
	}
	return nil, &ConfigError{Key: "input." + in.Name, Environment: c.env, Reason: "external input is not bound and has no default"}
}

// CheckInputs verifies that every external input some job uses can be
// resolved. It is called once before a run starts, making an unbound input
// a run-fatal error instead of a failure of every job using it. Declared
// inputs no job uses are not checked.
func (c *Context) CheckInputs(p *config.Pipeline) error {
	used := make(map[string]bool)
	for _, j := range p.Jobs {
		for _, v := range j.Inputs {
			if v.Kind == config.KindExternal {
				used[v.Name] = true
			}
		}
	}
	for _, in := range p.Inputs {
		if !used[in.Name] {
			continue
		}
		if _, err := c.InputValue(in); err != nil {
			return err
		}
	}
	return nil
}
