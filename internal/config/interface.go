package config

import "context"

// Loader is the interface for a format-specific pipeline loader.
type Loader interface {
	// Load reads every pipeline declared in the given file and translates
	// it into the format-agnostic model. It performs no semantic validation
	// beyond what the format itself requires; see Validate.
	Load(ctx context.Context, path string) ([]*Pipeline, error)
}

// Catalog answers whether a component name can be invoked. The registry
// satisfies it.
type Catalog interface {
	Has(name string) bool
}

// Environment is the format-agnostic form of an environment configuration
// file: an output root, configuration values and external input bindings.
type Environment struct {
	OutputRoot string
	Config     map[string]any
	Inputs     map[string]any
}
