package config

import (
	"fmt"
	"sort"
)

// ValueKind identifies how a job input obtains its concrete value.
type ValueKind int

const (
	// KindLiteral values are passed to the component unchanged.
	KindLiteral ValueKind = iota
	// KindReference values point at an output of another job in the pipeline.
	KindReference
	// KindExternal values are bound from the pipeline's declared inputs.
	KindExternal
	// KindConfig values are looked up in the environment configuration.
	KindConfig
)

// String returns the name of the value kind as used in log output.
func (k ValueKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindReference:
		return "reference"
	case KindExternal:
		return "external"
	case KindConfig:
		return "config"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Reference is a symbolic pointer to output `Output` of job `Job`.
type Reference struct {
	Job    string
	Output string
}

// String renders the reference in the canonical `job.<name>.outputs.<output>` form.
func (r Reference) String() string {
	return fmt.Sprintf("job.%s.outputs.%s", r.Job, r.Output)
}

// InputValue is the unresolved value bound to a single job input.
type InputValue struct {
	Kind ValueKind
	// Literal holds the value for KindLiteral. Numbers are float64 or int,
	// lists are []any and objects are map[string]any.
	Literal any
	// Ref holds the target for KindReference.
	Ref Reference
	// Name holds the external input name (KindExternal) or the config key (KindConfig).
	Name string
}

// Literal creates a literal input value.
func Literal(v any) InputValue {
	return InputValue{Kind: KindLiteral, Literal: v}
}

// Ref creates a reference to an output of another job.
func Ref(job, output string) InputValue {
	return InputValue{Kind: KindReference, Ref: Reference{Job: job, Output: output}}
}

// External creates a value bound to a pipeline-level external input.
func External(name string) InputValue {
	return InputValue{Kind: KindExternal, Name: name}
}

// ConfigKey creates a value looked up from the environment configuration.
func ConfigKey(key string) InputValue {
	return InputValue{Kind: KindConfig, Name: key}
}

// String returns a human-readable rendering of the unresolved value.
func (v InputValue) String() string {
	switch v.Kind {
	case KindReference:
		return v.Ref.String()
	case KindExternal:
		return "input." + v.Name
	case KindConfig:
		return "config." + v.Name
	default:
		return fmt.Sprintf("%v", v.Literal)
	}
}

// Job is one node of a pipeline: a named invocation of a component.
type Job struct {
	Name      string
	Component string
	Inputs    map[string]InputValue
	// Outputs preserves the declaration order of the output names.
	Outputs []string
}

// InputNames returns the job's input names in sorted order.
func (j *Job) InputNames() []string {
	names := make([]string, 0, len(j.Inputs))
	for name := range j.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeclaresOutput reports whether the job lists the given output name.
func (j *Job) DeclaresOutput(name string) bool {
	for _, o := range j.Outputs {
		if o == name {
			return true
		}
	}
	return false
}

// References returns every reference in the job's inputs, ordered by input
// name so that graph construction is deterministic.
func (j *Job) References() []Reference {
	var refs []Reference
	for _, name := range j.InputNames() {
		if v := j.Inputs[name]; v.Kind == KindReference {
			refs = append(refs, v.Ref)
		}
	}
	return refs
}

// ExternalInput is a named value supplied to the pipeline from outside.
type ExternalInput struct {
	Name       string
	Default    any
	HasDefault bool
}

// Pipeline is the format-agnostic, in-memory description of a pipeline.
type Pipeline struct {
	Name string
	// Source is the file the pipeline was loaded from, if any.
	Source string
	// Jobs preserves declaration order.
	Jobs   []*Job
	Inputs []*ExternalInput
}

// Job returns the job with the given name.
func (p *Pipeline) Job(name string) (*Job, bool) {
	for _, j := range p.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return nil, false
}

// Input returns the declared external input with the given name.
func (p *Pipeline) Input(name string) (*ExternalInput, bool) {
	for _, in := range p.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return nil, false
}

// JobNames returns the job names in declaration order.
func (p *Pipeline) JobNames() []string {
	names := make([]string, len(p.Jobs))
	for i, j := range p.Jobs {
		names[i] = j.Name
	}
	return names
}
