package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/forecastgrid/internal/component"
	"github.com/vk/forecastgrid/internal/config"
	"github.com/vk/forecastgrid/internal/ctxlog"
)

// Module is the interface that all component packages must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registration describes one installed component.
type Registration struct {
	Name        string
	Description string
	// Inputs and Outputs document the names the component reads and writes.
	// They are informational: outputs are verified after each invocation.
	Inputs    []string
	Outputs   []string
	Component component.Component
}

// Registry holds every registered component for a single application instance.
type Registry struct {
	components map[string]*Registration
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		components: make(map[string]*Registration),
	}
}

// Register adds a component. Registering the same name twice or a nil
// component is a programming error and panics.
func (r *Registry) Register(reg *Registration) {
	if reg == nil || reg.Name == "" {
		panic("registry: component registration requires a name")
	}
	if reg.Component == nil {
		panic(fmt.Sprintf("registry: component '%s' has no implementation", reg.Name))
	}
	if _, exists := r.components[reg.Name]; exists {
		panic(fmt.Sprintf("component with name '%s' already registered", reg.Name))
	}
	slog.Debug("Registering component.", "name", reg.Name)
	r.components[reg.Name] = reg
}

// Has reports whether a component is registered. It satisfies config.Catalog.
func (r *Registry) Has(name string) bool {
	_, ok := r.components[name]
	return ok
}

// Lookup returns the registered component with the given name.
func (r *Registry) Lookup(name string) (component.Component, bool) {
	reg, ok := r.components[name]
	if !ok {
		return nil, false
	}
	return reg.Component, true
}

// Describe returns the full registration of a component.
func (r *Registry) Describe(name string) (*Registration, bool) {
	reg, ok := r.components[name]
	return reg, ok
}

// Names returns every registered component name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lint compares a pipeline's jobs against what their components document
// and logs a warning for every input or output name the component does not
// mention. Components without documented names are skipped.
func (r *Registry) Lint(ctx context.Context, p *config.Pipeline) int {
	logger := ctxlog.FromContext(ctx)
	warnings := 0

	for _, j := range p.Jobs {
		reg, ok := r.components[j.Component]
		if !ok {
			continue
		}
		if len(reg.Inputs) > 0 {
			for _, name := range j.InputNames() {
				if !contains(reg.Inputs, name) {
					logger.Warn("Job binds an input its component does not document.", "pipeline", p.Name, "job", j.Name, "component", j.Component, "input", name)
					warnings++
				}
			}
		}
		if len(reg.Outputs) > 0 {
			for _, name := range j.Outputs {
				if !contains(reg.Outputs, name) {
					logger.Warn("Job declares an output its component does not document; the job will fail if it is not produced.", "pipeline", p.Name, "job", j.Name, "component", j.Component, "output", name)
					warnings++
				}
			}
		}
	}
	return warnings
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
