// Package resolver turns a job's symbolic input mapping into the concrete
// values its component is invoked with. Resolution performs no I/O: it is
// a set of lookups in the artifact table and the execution context.
package resolver

import (
	"fmt"

	"github.com/vk/forecastgrid/internal/artifact"
	"github.com/vk/forecastgrid/internal/config"
	"github.com/vk/forecastgrid/internal/execctx"
)

// Resolve returns the concrete inputs of a job:
//
//   - literals are passed through unchanged;
//   - references are looked up in the artifact table;
//   - external inputs are taken from the context's bindings or the
//     pipeline's declared default;
//   - config keys are looked up in the context.
//
// A missing config key or unbound external input is returned as a
// *execctx.ConfigError. A reference with no table entry means the scheduler
// let a job run before its dependency and panics.
func Resolve(p *config.Pipeline, j *config.Job, table *artifact.Table, ec *execctx.Context) (map[string]any, error) {
	resolved := make(map[string]any, len(j.Inputs))

	for _, name := range j.InputNames() {
		v := j.Inputs[name]
		switch v.Kind {
		case config.KindLiteral:
			resolved[name] = v.Literal
		case config.KindReference:
			loc, ok := table.Lookup(v.Ref)
			if !ok {
				panic(fmt.Sprintf("resolver: job '%s' input '%s': no artifact recorded for %s; dependency was not executed first", j.Name, name, v.Ref))
			}
			resolved[name] = loc
		case config.KindExternal:
			in, ok := p.Input(v.Name)
			if !ok {
				panic(fmt.Sprintf("resolver: job '%s' input '%s': external input '%s' is not declared; pipeline was not validated", j.Name, name, v.Name))
			}
			val, err := ec.InputValue(in)
			if err != nil {
				return nil, fmt.Errorf("input '%s': %w", name, err)
			}
			resolved[name] = val
		case config.KindConfig:
			val, err := ec.ConfigValue(v.Name)
			if err != nil {
				return nil, fmt.Errorf("input '%s': %w", name, err)
			}
			resolved[name] = val
		default:
			panic(fmt.Sprintf("resolver: job '%s' input '%s': unknown value kind %s", j.Name, name, v.Kind))
		}
	}

	return resolved, nil
}
