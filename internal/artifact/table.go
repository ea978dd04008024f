package artifact

import (
	"fmt"
	"sort"

	"github.com/vk/forecastgrid/internal/config"
)

// Table is the ResolvedArtifactTable of one pipeline run.
type Table struct {
	locations map[config.Reference]string
}

// NewTable creates a new, empty artifact table.
func NewTable() *Table {
	return &Table{locations: make(map[config.Reference]string)}
}

// Record stores the location of a job output. Overwriting an existing
// entry breaks the append-only contract and panics.
func (t *Table) Record(job, output, location string) {
	key := config.Reference{Job: job, Output: output}
	if prev, ok := t.locations[key]; ok {
		panic(fmt.Sprintf("artifact: %s already recorded at %q", key, prev))
	}
	t.locations[key] = location
}

// RecordAll stores every output of a job.
func (t *Table) RecordAll(job string, outputs map[string]string) {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.Record(job, name, outputs[name])
	}
}

// Lookup returns the recorded location of a job output.
func (t *Table) Lookup(r config.Reference) (string, bool) {
	loc, ok := t.locations[r]
	return loc, ok
}

// Outputs returns a copy of every recorded output of the given job.
func (t *Table) Outputs(job string) map[string]string {
	out := make(map[string]string)
	for key, loc := range t.locations {
		if key.Job == job {
			out[key.Output] = loc
		}
	}
	return out
}

// Len returns the number of recorded entries.
func (t *Table) Len() int {
	return len(t.locations)
}
