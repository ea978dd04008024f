package yamlspec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vk/forecastgrid/internal/config"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/ref"
	"gopkg.in/yaml.v3"
)

// ignoredKeys are pipeline-job keys that carry no meaning for local runs.
var ignoredKeys = map[string]bool{
	"$schema":         true,
	"type":            true,
	"display_name":    true,
	"description":     true,
	"experiment_name": true,
	"settings":        true,
	"compute":         true,
	"tags":            true,
}

// Loader implements config.Loader for YAML pipeline files.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new YAML loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads every YAML document in the file as one pipeline.
func (l *Loader) Load(ctx context.Context, path string) ([]*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx).With("path", path)
	logger.Debug("Parsing YAML pipeline file.")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file %s: %w", path, err)
	}
	source, _ := filepath.Abs(path)

	var pipelines []*config.Pipeline
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse pipeline file %s: %w", path, err)
		}
		if len(doc.Content) == 0 {
			continue
		}
		p, err := translateDocument(doc.Content[0], source)
		if err != nil {
			return nil, err
		}
		logger.Debug("Translated pipeline.", "pipeline", p.Name, "jobs", len(p.Jobs))
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}

// translator collects problems while a document is walked.
type translator struct {
	problems []string
}

func (t *translator) addf(node *yaml.Node, format string, args ...any) {
	t.problems = append(t.problems, fmt.Sprintf("line %d: ", node.Line)+fmt.Sprintf(format, args...))
}

func translateDocument(root *yaml.Node, source string) (*config.Pipeline, error) {
	if root.Kind != yaml.MappingNode {
		return nil, config.NewSpecError(filepath.Base(source), "line %d: pipeline document must be a mapping", root.Line)
	}

	t := &translator{}
	p := &config.Pipeline{Source: source}
	var jobsNode *yaml.Node

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "name":
			if val.Kind != yaml.ScalarNode {
				t.addf(val, "'name' must be a string")
				continue
			}
			p.Name = val.Value
		case "inputs":
			p.Inputs = t.inputs(val)
		case "jobs":
			jobsNode = val
		default:
			if !ignoredKeys[key.Value] {
				t.addf(key, "unsupported key '%s'", key.Value)
			}
		}
	}
	if jobsNode != nil {
		p.Jobs = t.jobs(jobsNode)
	}

	if len(t.problems) > 0 {
		name := p.Name
		if name == "" {
			name = filepath.Base(source)
		}
		return nil, &config.SpecError{Pipeline: name, Problems: t.problems}
	}
	return p, nil
}

// inputs reads the pipeline inputs mapping. A scalar or sequence value is
// the default; a mapping may carry `default` alongside descriptive keys.
// A null value declares the input without a default.
func (t *translator) inputs(node *yaml.Node) []*config.ExternalInput {
	if node.Kind != yaml.MappingNode {
		t.addf(node, "'inputs' must be a mapping")
		return nil
	}
	var out []*config.ExternalInput
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		in := &config.ExternalInput{Name: key.Value}

		def := val
		if val.Kind == yaml.MappingNode {
			def = nil
			for j := 0; j+1 < len(val.Content); j += 2 {
				if val.Content[j].Value == "default" {
					def = val.Content[j+1]
				}
			}
		}
		if def != nil && !isNull(def) {
			v, err := decodeLiteral(def)
			if err != nil {
				t.addf(def, "input '%s': %v", key.Value, err)
				continue
			}
			in.Default = v
			in.HasDefault = true
		}
		out = append(out, in)
	}
	return out
}

func (t *translator) jobs(node *yaml.Node) []*config.Job {
	if node.Kind != yaml.MappingNode {
		t.addf(node, "'jobs' must be a mapping")
		return nil
	}
	var out []*config.Job
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if job := t.job(key.Value, val); job != nil {
			out = append(out, job)
		}
	}
	return out
}

func (t *translator) job(name string, node *yaml.Node) *config.Job {
	if node.Kind != yaml.MappingNode {
		t.addf(node, "job '%s' must be a mapping", name)
		return nil
	}
	job := &config.Job{Name: name, Inputs: map[string]config.InputValue{}}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "component":
			if val.Kind != yaml.ScalarNode {
				t.addf(val, "job '%s': 'component' must be a string", name)
				continue
			}
			job.Component = val.Value
		case "inputs":
			t.jobInputs(job, val)
		case "outputs":
			t.jobOutputs(job, val)
		default:
			if !ignoredKeys[key.Value] {
				t.addf(key, "job '%s': unsupported key '%s'", name, key.Value)
			}
		}
	}
	return job
}

func (t *translator) jobInputs(job *config.Job, node *yaml.Node) {
	if node.Kind != yaml.MappingNode {
		t.addf(node, "job '%s': 'inputs' must be a mapping", job.Name)
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if _, dup := job.Inputs[key.Value]; dup {
			t.addf(key, "job '%s': input '%s' is declared more than once", job.Name, key.Value)
			continue
		}
		v, err := translateValue(val)
		if err != nil {
			t.addf(val, "job '%s' input '%s': %v", job.Name, key.Value, err)
			continue
		}
		job.Inputs[key.Value] = v
	}
}

// jobOutputs accepts either a mapping of output names (values ignored) or a
// sequence of names.
func (t *translator) jobOutputs(job *config.Job, node *yaml.Node) {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i < len(node.Content); i += 2 {
			job.Outputs = append(job.Outputs, node.Content[i].Value)
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				t.addf(item, "job '%s': output names must be strings", job.Name)
				continue
			}
			job.Outputs = append(job.Outputs, item.Value)
		}
	default:
		t.addf(node, "job '%s': 'outputs' must be a mapping or a list", job.Name)
	}
}

// translateValue turns a job input node into an InputValue. Only a string
// that is exactly one `${{ ... }}` expression is a reference.
func translateValue(node *yaml.Node) (config.InputValue, error) {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!str" {
		if expr, ok := ref.Unwrap(node.Value); ok {
			return ref.Parse(expr)
		}
	}
	v, err := decodeLiteral(node)
	if err != nil {
		return config.InputValue{}, err
	}
	return config.Literal(v), nil
}

// decodeLiteral decodes a node into plain Go values and rejects any
// embedded expression.
func decodeLiteral(node *yaml.Node) (any, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	if hasExpression(v) {
		return nil, fmt.Errorf("expressions must be the whole value of an input; partial interpolation is not supported")
	}
	return v, nil
}

func hasExpression(v any) bool {
	switch tv := v.(type) {
	case string:
		return ref.ContainsExpression(tv)
	case []any:
		for _, item := range tv {
			if hasExpression(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range tv {
			if hasExpression(item) {
				return true
			}
		}
	}
	return false
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}
