package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/forecastgrid/internal/component"
	"github.com/vk/forecastgrid/internal/config"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/registry"
)

// Mode selects where job invocations are executed.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// ParseMode validates an execution mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLocal:
		return ModeLocal, nil
	case ModeRemote:
		return ModeRemote, nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be 'local' or 'remote'", s)
	}
}

// Backend is the boundary between the runner and the place a component
// actually runs. A backend receives a fully resolved invocation and must
// leave every declared output materialized at its location on success.
type Backend interface {
	Invoke(ctx context.Context, j *config.Job, inv *component.Invocation) error
}

// NewBackend returns the backend for the given mode. The remote mode is
// declared but has no implementation.
func NewBackend(mode Mode, reg *registry.Registry) (Backend, error) {
	switch mode {
	case ModeLocal:
		return NewLocalBackend(reg), nil
	case ModeRemote:
		return nil, ErrRemoteNotImplemented
	default:
		return nil, fmt.Errorf("invalid mode %q", mode)
	}
}

// LocalBackend runs components in-process against the local filesystem.
type LocalBackend struct {
	registry *registry.Registry
}

// NewLocalBackend creates a backend that looks components up in reg.
func NewLocalBackend(reg *registry.Registry) *LocalBackend {
	return &LocalBackend{registry: reg}
}

// Invoke prepares the output directories, calls the component and checks
// that every declared output exists afterwards. Component errors and panics
// become a *ComponentFailure; a missing output is a *config.SpecError.
func (b *LocalBackend) Invoke(ctx context.Context, j *config.Job, inv *component.Invocation) error {
	logger := ctxlog.FromContext(ctx)

	c, ok := b.registry.Lookup(j.Component)
	if !ok {
		return config.NewSpecError(inv.Pipeline, "job '%s': unknown component '%s'", j.Name, j.Component)
	}

	for _, name := range inv.OutputNames() {
		dir := filepath.Dir(inv.Outputs[name])
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return &ComponentFailure{Job: j.Name, Component: j.Component, Err: err}
	}

	logger.Debug("Invoking component.", "component", j.Component, "inputs", len(inv.Inputs), "outputs", len(inv.Outputs))
	if err := safeInvoke(ctx, c, inv); err != nil {
		return &ComponentFailure{Job: j.Name, Component: j.Component, Err: err}
	}

	var missing []string
	for _, name := range j.Outputs {
		if _, err := os.Stat(inv.Outputs[name]); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check output '%s': %w", name, err)
			}
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		problems := make([]string, len(missing))
		for i, name := range missing {
			problems[i] = fmt.Sprintf("job '%s': output mismatch: component '%s' did not produce declared output '%s'", j.Name, j.Component, name)
		}
		return &config.SpecError{Pipeline: inv.Pipeline, Problems: problems}
	}
	return nil
}

// safeInvoke converts a component panic into an error so that one broken
// component cannot take the rest of the run down with it.
func safeInvoke(ctx context.Context, c component.Component, inv *component.Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Invoke(ctx, inv)
}
