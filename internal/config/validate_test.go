package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog map[string]bool

func (c fakeCatalog) Has(name string) bool { return c[name] }

func validPipeline() *Pipeline {
	return &Pipeline{
		Name:   "preprocessing",
		Inputs: []*ExternalInput{{Name: "db_path", Default: "data/retail.db", HasDefault: true}},
		Jobs: []*Job{
			{
				Name:      "ingest",
				Component: "ingest_data",
				Inputs: map[string]InputValue{
					"db_path":    External("db_path"),
					"table_name": ConfigKey("db_table_name"),
				},
				Outputs: []string{"output_data"},
			},
			{
				Name:      "clean",
				Component: "clean_data",
				Inputs: map[string]InputValue{
					"input_data": Ref("ingest", "output_data"),
					"countries":  Literal([]any{"Germany"}),
				},
				Outputs: []string{"output_data"},
			},
		},
	}
}

func TestValidate(t *testing.T) {
	catalog := fakeCatalog{"ingest_data": true, "clean_data": true}

	t.Run("valid pipeline passes", func(t *testing.T) {
		assert.NoError(t, Validate(validPipeline(), catalog))
	})

	t.Run("nil catalog skips component check", func(t *testing.T) {
		p := validPipeline()
		p.Jobs[0].Component = "not_registered"
		assert.NoError(t, Validate(p, nil))
	})

	testCases := []struct {
		name    string
		mutate  func(p *Pipeline)
		problem string
	}{
		{
			name: "duplicate job name",
			mutate: func(p *Pipeline) {
				p.Jobs = append(p.Jobs, &Job{Name: "clean", Component: "clean_data"})
			},
			problem: "duplicate job name 'clean'",
		},
		{
			name:    "unknown component",
			mutate:  func(p *Pipeline) { p.Jobs[1].Component = "scrub_data" },
			problem: "job 'clean': unknown component 'scrub_data'",
		},
		{
			name:    "reference to missing job",
			mutate:  func(p *Pipeline) { p.Jobs[1].Inputs["input_data"] = Ref("load", "output_data") },
			problem: "no job named 'load'",
		},
		{
			name:    "reference to undeclared output",
			mutate:  func(p *Pipeline) { p.Jobs[1].Inputs["input_data"] = Ref("ingest", "raw") },
			problem: "job 'ingest' does not declare output 'raw'",
		},
		{
			name:    "undeclared external input",
			mutate:  func(p *Pipeline) { p.Jobs[0].Inputs["db_path"] = External("database") },
			problem: "external input 'database' is not declared by the pipeline",
		},
		{
			name:    "duplicate output",
			mutate:  func(p *Pipeline) { p.Jobs[0].Outputs = []string{"output_data", "output_data"} },
			problem: "output 'output_data' is declared more than once",
		},
		{
			name:    "empty pipeline name",
			mutate:  func(p *Pipeline) { p.Name = "" },
			problem: "pipeline name must not be empty",
		},
		{
			name: "job name with path separator",
			mutate: func(p *Pipeline) {
				p.Jobs = append(p.Jobs, &Job{Name: "clean/extra", Component: "clean_data"})
			},
			problem: "invalid job name 'clean/extra'",
		},
		{
			name:    "parent directory job name",
			mutate:  func(p *Pipeline) { p.Jobs[1].Name = ".." },
			problem: "invalid job name '..'",
		},
		{
			name:    "output escaping the run directory",
			mutate:  func(p *Pipeline) { p.Jobs[1].Outputs = []string{"../../escaped"} },
			problem: "job 'clean': invalid output name '../../escaped'",
		},
		{
			name:    "output with backslash",
			mutate:  func(p *Pipeline) { p.Jobs[0].Outputs = []string{"output_data", `raw\copy`} },
			problem: `job 'ingest': invalid output name 'raw\copy'`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPipeline()
			tc.mutate(p)

			err := Validate(p, catalog)

			var specErr *SpecError
			require.True(t, errors.As(err, &specErr), "expected a SpecError, got %v", err)
			assert.Len(t, specErr.Problems, 1)
			assert.Contains(t, specErr.Problems[0], tc.problem)
		})
	}

	t.Run("all problems are reported together", func(t *testing.T) {
		p := validPipeline()
		p.Jobs[0].Component = "nope"
		p.Jobs[1].Inputs["input_data"] = Ref("ghost", "x")

		err := Validate(p, catalog)

		var specErr *SpecError
		require.True(t, errors.As(err, &specErr))
		assert.Len(t, specErr.Problems, 2)
		assert.Contains(t, err.Error(), "\n- ")
	})

	t.Run("self reference is left to the scheduler", func(t *testing.T) {
		p := validPipeline()
		p.Jobs[0].Inputs["db_path"] = Ref("ingest", "output_data")
		assert.NoError(t, Validate(p, catalog))
	})
}

func TestJobReferencesAreSortedByInputName(t *testing.T) {
	j := &Job{
		Name: "features",
		Inputs: map[string]InputValue{
			"test_targets":  Ref("split", "test_targets"),
			"features":      Ref("split", "features"),
			"target_column": Literal("Quantity"),
			"train_targets": Ref("split", "train_targets"),
		},
	}

	refs := j.References()

	require.Len(t, refs, 3)
	assert.Equal(t, "features", refs[0].Output)
	assert.Equal(t, "test_targets", refs[1].Output)
	assert.Equal(t, "train_targets", refs[2].Output)
}

func TestInputValueString(t *testing.T) {
	assert.Equal(t, "job.clean.outputs.output_data", Ref("clean", "output_data").String())
	assert.Equal(t, "input.db_path", External("db_path").String())
	assert.Equal(t, "config.db_table_name", ConfigKey("db_table_name").String())
	assert.Equal(t, "7", Literal(7).String())
}

func TestValidate_NamesThatWouldShareAnArtifactPath(t *testing.T) {
	// --- Arrange ---
	// Joined naively, both outputs would land on <run>/a/b/c.
	p := &Pipeline{
		Name: "collide",
		Jobs: []*Job{
			{Name: "a", Component: "c", Inputs: map[string]InputValue{}, Outputs: []string{"b/c"}},
			{Name: "a/b", Component: "c", Inputs: map[string]InputValue{}, Outputs: []string{"c"}},
		},
	}

	// --- Act ---
	err := Validate(p, fakeCatalog{"c": true})

	// --- Assert ---
	var specErr *SpecError
	require.True(t, errors.As(err, &specErr), "expected a SpecError, got %v", err)
	assert.Equal(t, []string{
		"invalid job name 'a/b': use letters, digits, '_' and '-' only",
		"job 'a': invalid output name 'b/c': use letters, digits, '_' and '-' only",
	}, specErr.Problems)
}

func TestValidName(t *testing.T) {
	for _, name := range []string{"ingest", "forecast_DK", "train-2", "output_data"} {
		assert.True(t, ValidName(name), name)
	}
	for _, name := range []string{"", ".", "..", "-", "a/b", `a\b`, "../x", "a.b", "a b"} {
		assert.False(t, ValidName(name), name)
	}
}
