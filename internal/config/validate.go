package config

import "fmt"

// Validate performs the single validation pass a loaded pipeline must pass
// before it can be scheduled. Every problem found is reported in one
// SpecError. A nil catalog skips the component check.
//
// Cycles, including a job referencing its own outputs, are not reported
// here; the scheduler detects them and names the jobs involved.
func Validate(p *Pipeline, catalog Catalog) error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if p.Name == "" {
		addf("pipeline name must not be empty")
	}

	inputs := make(map[string]struct{}, len(p.Inputs))
	for _, in := range p.Inputs {
		if _, dup := inputs[in.Name]; dup {
			addf("external input '%s' is declared more than once", in.Name)
		}
		inputs[in.Name] = struct{}{}
	}

	jobs := make(map[string]*Job, len(p.Jobs))
	for _, j := range p.Jobs {
		if j.Name == "" {
			addf("job name must not be empty")
			continue
		}
		if !ValidName(j.Name) {
			addf("invalid job name '%s': use letters, digits, '_' and '-' only", j.Name)
			continue
		}
		if _, dup := jobs[j.Name]; dup {
			addf("duplicate job name '%s'", j.Name)
			continue
		}
		jobs[j.Name] = j
	}

	for _, j := range p.Jobs {
		if j.Component == "" {
			addf("job '%s': component must not be empty", j.Name)
		} else if catalog != nil && !catalog.Has(j.Component) {
			addf("job '%s': unknown component '%s'", j.Name, j.Component)
		}

		seen := make(map[string]struct{}, len(j.Outputs))
		for _, out := range j.Outputs {
			if !ValidName(out) {
				addf("job '%s': invalid output name '%s': use letters, digits, '_' and '-' only", j.Name, out)
				continue
			}
			if _, dup := seen[out]; dup {
				addf("job '%s': output '%s' is declared more than once", j.Name, out)
			}
			seen[out] = struct{}{}
		}

		for _, name := range j.InputNames() {
			v := j.Inputs[name]
			switch v.Kind {
			case KindReference:
				target, ok := jobs[v.Ref.Job]
				if !ok {
					addf("job '%s', input '%s': dangling reference %s: no job named '%s'", j.Name, name, v.Ref, v.Ref.Job)
					continue
				}
				if !target.DeclaresOutput(v.Ref.Output) {
					addf("job '%s', input '%s': dangling reference %s: job '%s' does not declare output '%s'", j.Name, name, v.Ref, v.Ref.Job, v.Ref.Output)
				}
			case KindExternal:
				if _, ok := inputs[v.Name]; !ok {
					addf("job '%s', input '%s': external input '%s' is not declared by the pipeline", j.Name, name, v.Name)
				}
			case KindConfig:
				if v.Name == "" {
					addf("job '%s', input '%s': config key must not be empty", j.Name, name)
				}
			}
		}
	}

	if len(problems) > 0 {
		return &SpecError{Pipeline: p.Name, Problems: problems}
	}
	return nil
}
