package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from a pipeline file.
type fileRoot struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

// pipelineBlock is the `pipeline "<name>" { ... }` block.
type pipelineBlock struct {
	Name        string        `hcl:"name,label"`
	Description string        `hcl:"description,optional"`
	Inputs      []*inputBlock `hcl:"input,block"`
	Jobs        []*jobBlock   `hcl:"job,block"`
}

// inputBlock declares an external input. Its body may hold a `default`
// attribute; it is read with JustAttributes so an omitted default can be
// told apart from an explicit null.
type inputBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// jobBlock is the `job "<name>" { ... }` block.
type jobBlock struct {
	Name      string     `hcl:"name,label"`
	Component string     `hcl:"component"`
	Outputs   []string   `hcl:"outputs,optional"`
	Inputs    *argsBlock `hcl:"inputs,block"`
}

// argsBlock is the `inputs { ... }` block of a job; every attribute is one input.
type argsBlock struct {
	Body hcl.Body `hcl:",remain"`
}
