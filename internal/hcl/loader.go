package hcl

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/forecastgrid/internal/config"
	"github.com/vk/forecastgrid/internal/ctxlog"
)

// Loader implements config.Loader for HCL pipeline files.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses one HCL file and translates every pipeline block in it.
// Translation problems are collected per pipeline and returned as a
// *config.SpecError.
func (l *Loader) Load(ctx context.Context, path string) ([]*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx).With("path", path)
	logger.Debug("Parsing HCL pipeline file.")

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse pipeline file %s: %w", path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode pipeline file %s: %w", path, diags)
	}

	source, _ := filepath.Abs(path)
	pipelines := make([]*config.Pipeline, 0, len(root.Pipelines))
	for _, pb := range root.Pipelines {
		p, err := translatePipeline(pb, source)
		if err != nil {
			return nil, err
		}
		logger.Debug("Translated pipeline.", "pipeline", p.Name, "jobs", len(p.Jobs))
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}

func translatePipeline(pb *pipelineBlock, source string) (*config.Pipeline, error) {
	p := &config.Pipeline{
		Name:   pb.Name,
		Source: source,
	}
	var problems []string

	for _, ib := range pb.Inputs {
		in, err := translateInputBlock(ib)
		if err != nil {
			problems = append(problems, fmt.Sprintf("input '%s': %v", ib.Name, err))
			continue
		}
		p.Inputs = append(p.Inputs, in)
	}

	for _, jb := range pb.Jobs {
		job := &config.Job{
			Name:      jb.Name,
			Component: jb.Component,
			Inputs:    map[string]config.InputValue{},
			Outputs:   append([]string(nil), jb.Outputs...),
		}
		if jb.Inputs != nil {
			attrs, diags := jb.Inputs.Body.JustAttributes()
			if diags.HasErrors() {
				problems = append(problems, fmt.Sprintf("job '%s': %s", jb.Name, diags.Error()))
			}
			for name, attr := range attrs {
				v, err := translateInput(attr.Expr)
				if err != nil {
					problems = append(problems, fmt.Sprintf("job '%s' input '%s': %v", jb.Name, name, err))
					continue
				}
				job.Inputs[name] = v
			}
		}
		p.Jobs = append(p.Jobs, job)
	}

	if len(problems) > 0 {
		// attribute maps have no order
		slices.Sort(problems)
		return nil, &config.SpecError{Pipeline: pb.Name, Problems: problems}
	}
	return p, nil
}

func translateInputBlock(ib *inputBlock) (*config.ExternalInput, error) {
	in := &config.ExternalInput{Name: ib.Name}
	attrs, diags := ib.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	for name, attr := range attrs {
		switch name {
		case "default":
			val, diags := attr.Expr.Value(evalContext())
			if diags.HasErrors() {
				return nil, diags
			}
			def, err := ctyToGo(val)
			if err != nil {
				return nil, err
			}
			in.Default = def
			in.HasDefault = true
		case "description":
		default:
			return nil, fmt.Errorf("unsupported attribute '%s'", name)
		}
	}
	return in, nil
}
