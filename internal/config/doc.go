// Package config defines the format-agnostic pipeline model for the
// application, along with the Loader interface for reading pipeline
// descriptions from various sources and the validation pass that every
// loaded pipeline goes through before it can be scheduled.
//
// The `config.Pipeline` is the single source of truth for the `dag`,
// `resolver` and `runner` packages. Concrete loaders, such as for HCL and
// YAML, are provided in separate packages.
package config
