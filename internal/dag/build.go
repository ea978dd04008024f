package dag

import (
	"fmt"

	"github.com/vk/forecastgrid/internal/config"
)

// Build constructs the dependency graph of a pipeline: one node per job in
// declaration order and one edge per referenced job. A job that references
// its own outputs is reported as a single-job CycleError.
func Build(p *config.Pipeline) (*Graph, error) {
	g := New()
	for _, j := range p.Jobs {
		g.AddNode(j.Name)
	}

	for _, j := range p.Jobs {
		for _, r := range j.References() {
			if r.Job == j.Name {
				return nil, &CycleError{Jobs: []string{j.Name}}
			}
			if err := g.AddEdge(r.Job, j.Name); err != nil {
				return nil, fmt.Errorf("job '%s': %w", j.Name, err)
			}
		}
	}
	return g, nil
}

// Order returns the execution order of a pipeline's jobs, or a *CycleError
// naming the jobs on a cycle. It is a pure function of the pipeline.
func Order(p *config.Pipeline) ([]string, error) {
	g, err := Build(p)
	if err != nil {
		return nil, err
	}
	return g.TopologicalOrder()
}
