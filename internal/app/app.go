package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/vk/forecastgrid/internal/config"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/hcl"
	"github.com/vk/forecastgrid/internal/registry"
	"github.com/vk/forecastgrid/internal/yamlspec"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	loaders  map[string]config.Loader
}

// NewApp is the constructor for the main application. It returns an App
// with its own isolated logger and a registry holding the given modules, or
// every core module when none are given.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	yamlLoader := yamlspec.NewLoader()
	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		loaders: map[string]config.Loader{
			".hcl":  hcl.NewLoader(),
			".yaml": yamlLoader,
			".yml":  yamlLoader,
		},
	}
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Context attaches the application's logger to ctx.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

func (a *App) loaderFor(path string) (config.Loader, bool) {
	l, ok := a.loaders[strings.ToLower(filepath.Ext(path))]
	return l, ok
}
