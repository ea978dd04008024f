// Package testutil holds test doubles shared by the package tests: a
// recording component, a log buffer and small fixture helpers.
package testutil

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/vk/forecastgrid/internal/component"
	"github.com/vk/forecastgrid/internal/registry"
)

// Call is one recorded component invocation.
type Call struct {
	Job       string
	Component string
	Inputs    map[string]any
	Outputs   map[string]string
}

// CallLog records every invocation of the components it creates, in order.
type CallLog struct {
	mu    sync.Mutex
	calls []Call
}

func (l *CallLog) record(inv *component.Invocation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, Call{
		Job:       inv.Job,
		Component: inv.Component,
		Inputs:    maps.Clone(inv.Inputs),
		Outputs:   maps.Clone(inv.Outputs),
	})
}

// Calls returns every recorded invocation.
func (l *CallLog) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// Jobs returns the job names in invocation order.
func (l *CallLog) Jobs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	jobs := make([]string, len(l.calls))
	for i, c := range l.calls {
		jobs[i] = c.Job
	}
	return jobs
}

// Count returns how many times the named job was invoked.
func (l *CallLog) Count(job string) int {
	n := 0
	for _, j := range l.Jobs() {
		if j == job {
			n++
		}
	}
	return n
}

// Call returns the first recorded invocation of a job.
func (l *CallLog) Call(job string) (Call, bool) {
	for _, c := range l.Calls() {
		if c.Job == job {
			return c, true
		}
	}
	return Call{}, false
}

// Writer returns a component that records the call and writes every
// declared output as a small text file naming the job and output.
func (l *CallLog) Writer() component.Component {
	return component.Func(func(ctx context.Context, inv *component.Invocation) error {
		l.record(inv)
		return WriteOutputs(inv)
	})
}

// Failing returns a component that records the call and returns err.
func (l *CallLog) Failing(err error) component.Component {
	return component.Func(func(ctx context.Context, inv *component.Invocation) error {
		l.record(inv)
		return err
	})
}

// Silent returns a component that records the call, succeeds and writes
// nothing.
func (l *CallLog) Silent() component.Component {
	return component.Func(func(ctx context.Context, inv *component.Invocation) error {
		l.record(inv)
		return nil
	})
}

// WriteOutputs materializes every declared output of an invocation.
func WriteOutputs(inv *component.Invocation) error {
	for _, name := range inv.OutputNames() {
		path := inv.Outputs[name]
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(fmt.Sprintf("%s/%s\n", inv.Job, name)), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// SimpleModule is a test helper for registering a fixed set of components.
type SimpleModule map[string]component.Component

// Register implements the registry.Module interface.
func (m SimpleModule) Register(r *registry.Registry) {
	for name, c := range m {
		r.Register(&registry.Registration{Name: name, Component: c})
	}
}

// NewRegistry returns a registry holding the given components.
func NewRegistry(components map[string]component.Component) *registry.Registry {
	r := registry.New()
	SimpleModule(components).Register(r)
	return r
}
