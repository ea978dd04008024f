package execctx

import "fmt"

// ConfigError reports a required configuration value that has no value in
// the active environment or its defaults.
type ConfigError struct {
	Key         string
	Environment Environment
	Reason      string
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration '%s' (environment '%s'): %s", e.Key, e.Environment, e.Reason)
}
