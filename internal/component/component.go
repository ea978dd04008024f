// Package component defines the contract every unit of work satisfies. A
// component is stateless and named; it is invoked with a job's resolved
// inputs and told where to write each declared output.
package component

import (
	"context"
	"fmt"
	"sort"
)

// Component is a stateless unit of work. Invoke must write every output the
// job declares to the path given in inv.Outputs, or return an error.
type Component interface {
	Invoke(ctx context.Context, inv *Invocation) error
}

// Func adapts an ordinary function to the Component interface.
type Func func(ctx context.Context, inv *Invocation) error

// Invoke calls f(ctx, inv).
func (f Func) Invoke(ctx context.Context, inv *Invocation) error {
	return f(ctx, inv)
}

// Invocation carries everything a component sees for one job execution.
type Invocation struct {
	Pipeline    string
	RunID       string
	Environment string
	Job         string
	Component   string
	// Inputs are fully resolved: references are concrete file locations,
	// everything else is a literal value.
	Inputs map[string]any
	// Outputs maps each declared output name to the location it must be
	// written to.
	Outputs map[string]string
}

// Has reports whether an input is bound.
func (inv *Invocation) Has(name string) bool {
	_, ok := inv.Inputs[name]
	return ok
}

// Output returns the location of a declared output.
func (inv *Invocation) Output(name string) (string, error) {
	path, ok := inv.Outputs[name]
	if !ok {
		return "", fmt.Errorf("job '%s' does not declare output '%s' required by component '%s'", inv.Job, name, inv.Component)
	}
	return path, nil
}

// OutputNames returns the declared output names in sorted order.
func (inv *Invocation) OutputNames() []string {
	names := make([]string, 0, len(inv.Outputs))
	for name := range inv.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns a required input as a string. Numbers and booleans are
// formatted.
func (inv *Invocation) String(name string) (string, error) {
	v, err := inv.required(name)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case int, int64, float64, bool:
		return fmt.Sprint(t), nil
	default:
		return "", inv.typeError(name, "a string", v)
	}
}

// OptionalString returns an input as a string, or def when it is unbound.
func (inv *Invocation) OptionalString(name, def string) (string, error) {
	if !inv.Has(name) {
		return def, nil
	}
	return inv.String(name)
}

// Int returns a required input as an integer.
func (inv *Invocation) Int(name string) (int, error) {
	v, err := inv.required(name)
	if err != nil {
		return 0, err
	}
	n, ok := toInt(v)
	if !ok {
		return 0, inv.typeError(name, "an integer", v)
	}
	return n, nil
}

// OptionalInt returns an input as an integer, or def when it is unbound.
func (inv *Invocation) OptionalInt(name string, def int) (int, error) {
	if !inv.Has(name) {
		return def, nil
	}
	return inv.Int(name)
}

// Float returns a required input as a float.
func (inv *Invocation) Float(name string) (float64, error) {
	v, err := inv.required(name)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, inv.typeError(name, "a number", v)
	}
	return f, nil
}

// OptionalFloat returns an input as a float, or def when it is unbound.
func (inv *Invocation) OptionalFloat(name string, def float64) (float64, error) {
	if !inv.Has(name) {
		return def, nil
	}
	return inv.Float(name)
}

// Bool returns an input as a boolean, or def when it is unbound.
func (inv *Invocation) Bool(name string, def bool) (bool, error) {
	if !inv.Has(name) {
		return def, nil
	}
	v := inv.Inputs[name]
	b, ok := toBool(v)
	if !ok {
		return false, inv.typeError(name, "a boolean", v)
	}
	return b, nil
}

// Strings returns an input as a list of strings. A single string is a
// one-element list; an unbound input is a nil list.
func (inv *Invocation) Strings(name string) ([]string, error) {
	v, ok := inv.Inputs[name]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []string:
		return append([]string(nil), t...), nil
	case []any:
		out := make([]string, 0, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("job '%s', input '%s': element %d must be a string, got %T", inv.Job, name, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, inv.typeError(name, "a list of strings", v)
	}
}

func (inv *Invocation) required(name string) (any, error) {
	v, ok := inv.Inputs[name]
	if !ok || v == nil {
		return nil, fmt.Errorf("job '%s': required input '%s' is not set", inv.Job, name)
	}
	return v, nil
}

func (inv *Invocation) typeError(name, want string, got any) error {
	return fmt.Errorf("job '%s', input '%s': must be %s, got %T (%v)", inv.Job, name, want, got, got)
}
