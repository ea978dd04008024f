package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/forecastgrid/internal/execctx"
	"github.com/vk/forecastgrid/internal/runner"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinesDir string // .hcl, .yaml and .yml files
	ConfigDir    string // defaults.hcl + <environment>.hcl
	Pipelines    []string

	Environment string
	Mode        string
	OutputRoot  string
	RunID       string
	Inputs      map[string]any

	EventsURL       string
	EventsNamespace string
	HealthcheckPort int

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinesDir == "" {
		return nil, errors.New("PipelinesDir is a required configuration field and cannot be empty")
	}

	if cfg.Environment == "" {
		cfg.Environment = string(execctx.Dev)
	}
	env, err := execctx.ParseEnvironment(cfg.Environment)
	if err != nil {
		return nil, err
	}
	cfg.Environment = string(env)

	if cfg.Mode == "" {
		cfg.Mode = string(runner.ModeLocal)
	}
	mode, err := runner.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	cfg.Mode = string(mode)

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.HealthcheckPort < 0 {
		return nil, fmt.Errorf("invalid healthcheck-port %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
