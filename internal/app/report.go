package app

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/vk/forecastgrid/internal/registry"
	"github.com/vk/forecastgrid/internal/runner"
)

// PrintSummary writes a per-job table of a finished run in execution order.
func PrintSummary(w io.Writer, res *runner.RunResult) {
	fmt.Fprintf(w, "\nPipeline %s (run %s)\n", res.Pipeline, res.RunID)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tSTATUS\tDETAIL")
	for _, jr := range res.Results() {
		detail := jr.Detail()
		if jr.Status == runner.StatusSucceeded {
			detail = formatOutputs(jr.Outputs)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", jr.Job, jr.Status, firstLine(detail))
	}
	tw.Flush()
	fmt.Fprintf(w, "%d succeeded, %d failed, %d skipped\n",
		res.Count(runner.StatusSucceeded),
		res.Count(runner.StatusFailed),
		res.Count(runner.StatusSkipped),
	)
}

// PrintPlan writes the execution order of a validated pipeline.
func PrintPlan(w io.Writer, plan *Plan) {
	fmt.Fprintf(w, "Pipeline %s is valid (%s). Execution order: %s\n",
		plan.Pipeline.Name, plan.Pipeline.Source, strings.Join(plan.Order, " -> "))
}

// PrintComponents lists the registered components with their documented
// inputs and outputs.
func PrintComponents(w io.Writer, reg *registry.Registry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPONENT\tINPUTS\tOUTPUTS\tDESCRIPTION")
	for _, name := range reg.Names() {
		d, _ := reg.Describe(name)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, strings.Join(d.Inputs, ","), strings.Join(d.Outputs, ","), d.Description)
	}
	tw.Flush()
}

func formatOutputs(outputs map[string]string) string {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + outputs[name]
	}
	return strings.Join(parts, " ")
}

// firstLine keeps multi-line errors from breaking the table.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
