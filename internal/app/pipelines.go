package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/forecastgrid/internal/config"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/dag"
	"github.com/vk/forecastgrid/internal/fsutil"
	"golang.org/x/sync/errgroup"
)

var pipelineExtensions = []string{".hcl", ".yaml", ".yml"}

// maxParallelLoads bounds how many description files are parsed at once.
const maxParallelLoads = 8

// SelectionError reports requested pipelines that cannot be run: unknown
// names and names declared by more than one pipeline.
type SelectionError struct {
	Problems []string
}

func (e *SelectionError) Error() string {
	return "invalid pipeline selection:\n- " + strings.Join(e.Problems, "\n- ")
}

// Catalogue holds every pipeline found under the pipelines directory.
type Catalogue struct {
	pipelines map[string]*config.Pipeline
	// duplicates maps a name declared more than once to its source files.
	duplicates map[string][]string
}

// Names returns the declared pipeline names in sorted order.
func (c *Catalogue) Names() []string {
	names := make([]string, 0, len(c.pipelines))
	for name := range c.pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the named pipelines in the requested order.
func (c *Catalogue) Select(names []string) ([]*config.Pipeline, error) {
	var problems []string
	if len(names) == 0 {
		problems = append(problems, "no pipelines requested")
	}
	seen := map[string]bool{}
	out := make([]*config.Pipeline, 0, len(names))
	for _, name := range names {
		if seen[name] {
			problems = append(problems, fmt.Sprintf("pipeline '%s' is requested more than once", name))
			continue
		}
		seen[name] = true
		if sources, dup := c.duplicates[name]; dup {
			problems = append(problems, fmt.Sprintf("pipeline '%s' is declared more than once: %s", name, strings.Join(sources, ", ")))
			continue
		}
		p, ok := c.pipelines[name]
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown pipeline '%s'; available pipelines: %v", name, c.Names()))
			continue
		}
		out = append(out, p)
	}
	if len(problems) > 0 {
		return nil, &SelectionError{Problems: problems}
	}
	return out, nil
}

// loadCatalogue loads every pipeline description under the configured
// pipelines directory. Files are parsed concurrently; the first load error
// aborts the whole catalogue.
func (a *App) loadCatalogue(ctx context.Context) (*Catalogue, error) {
	logger := ctxlog.FromContext(ctx)
	dir := a.config.PipelinesDir

	files, err := fsutil.FindFilesByExtension(dir, pipelineExtensions...)
	if err != nil {
		return nil, fmt.Errorf("failed to search for pipeline files in %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no pipeline files (%s) found in %s", strings.Join(pipelineExtensions, ", "), dir)
	}
	logger.Debug("Pipeline files found.", "dir", dir, "count", len(files))

	loaded := make([][]*config.Pipeline, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, path := range files {
		loader, ok := a.loaderFor(path)
		if !ok {
			panic(fmt.Sprintf("app: no loader for discovered file %s", path))
		}
		g.Go(func() error {
			pipelines, err := loader.Load(gctx, path)
			if err != nil {
				return err
			}
			loaded[i] = pipelines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Catalogue{pipelines: map[string]*config.Pipeline{}, duplicates: map[string][]string{}}
	for _, pipelines := range loaded {
		for _, p := range pipelines {
			if prev, ok := c.pipelines[p.Name]; ok {
				if _, dup := c.duplicates[p.Name]; !dup {
					c.duplicates[p.Name] = []string{prev.Source}
				}
				c.duplicates[p.Name] = append(c.duplicates[p.Name], p.Source)
				continue
			}
			c.pipelines[p.Name] = p
		}
	}
	logger.Info("Pipelines loaded successfully.", "pipelines", c.Names())
	return c, nil
}

// Plan is a validated pipeline with its execution order.
type Plan struct {
	Pipeline *config.Pipeline
	Order    []string
}

// prepare loads the catalogue, selects the requested pipelines and validates
// each of them against the registry. Nothing is executed and no file is
// written; every selected pipeline must pass before any of them may run.
func (a *App) prepare(ctx context.Context) ([]*Plan, error) {
	logger := ctxlog.FromContext(ctx)

	catalogue, err := a.loadCatalogue(ctx)
	if err != nil {
		return nil, err
	}
	selected, err := catalogue.Select(a.config.Pipelines)
	if err != nil {
		return nil, err
	}

	plans := make([]*Plan, 0, len(selected))
	for _, p := range selected {
		if err := config.Validate(p, a.registry); err != nil {
			return nil, err
		}
		if warnings := a.registry.Lint(ctx, p); warnings > 0 {
			logger.Warn("Pipeline has lint warnings.", "pipeline", p.Name, "warnings", warnings)
		}
		order, err := dag.Order(p)
		if err != nil {
			return nil, fmt.Errorf("pipeline '%s': %w", p.Name, err)
		}
		logger.Debug("Pipeline validated.", "pipeline", p.Name, "order", order)
		plans = append(plans, &Plan{Pipeline: p, Order: order})
	}
	return plans, nil
}
