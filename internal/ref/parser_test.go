package ref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/forecastgrid/internal/config"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expectErr bool
		expected  config.InputValue
	}{
		{
			name:     "job output reference",
			raw:      "job.ingest.outputs.output_data",
			expected: config.Ref("ingest", "output_data"),
		},
		{
			name:     "parent jobs alias",
			raw:      "parent.jobs.clean.outputs.output_data",
			expected: config.Ref("clean", "output_data"),
		},
		{
			name:     "external input",
			raw:      "input.db_path",
			expected: config.External("db_path"),
		},
		{
			name:     "parent inputs alias",
			raw:      "parent.inputs.db_path",
			expected: config.External("db_path"),
		},
		{
			name:     "config key",
			raw:      "config.db_table_name",
			expected: config.ConfigKey("db_table_name"),
		},
		{
			name:     "hyphenated job name",
			raw:      "job.forecast-DK.outputs.model",
			expected: config.Ref("forecast-DK", "model"),
		},
		{
			name:      "error - empty string",
			raw:       "",
			expectErr: true,
		},
		{
			name:      "error - empty path segment",
			raw:       "job..outputs.raw",
			expectErr: true,
		},
		{
			name:      "error - missing outputs keyword",
			raw:       "job.ingest.raw",
			expectErr: true,
		},
		{
			name:      "error - wrong keyword",
			raw:       "job.ingest.inputs.raw",
			expectErr: true,
		},
		{
			name:      "error - unknown root",
			raw:       "env.HOME",
			expectErr: true,
		},
		{
			name:      "error - unsupported parent child",
			raw:       "parent.outputs.x",
			expectErr: true,
		},
		{
			name:      "error - nested config key",
			raw:       "config.db.table",
			expectErr: true,
		},
		{
			name:      "error - invalid segment characters",
			raw:       "input.db path",
			expectErr: true,
		},
		{
			name:      "error - lone hyphen segment",
			raw:       "input.-",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Parse(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestParseRoundTripsReferenceString(t *testing.T) {
	original := config.Ref("split", "train_targets")

	v, err := Parse(original.String())

	require.NoError(t, err)
	assert.Equal(t, original, v)
}

func TestUnwrap(t *testing.T) {
	expr, ok := Unwrap("${{parent.jobs.ingest.outputs.output_data}}")
	require.True(t, ok)
	assert.Equal(t, "parent.jobs.ingest.outputs.output_data", expr)

	expr, ok = Unwrap("  ${{ parent.inputs.db_path }} ")
	require.True(t, ok)
	assert.Equal(t, "parent.inputs.db_path", expr)

	_, ok = Unwrap("data/${{parent.inputs.db_path}}")
	assert.False(t, ok)
	assert.True(t, ContainsExpression("data/${{parent.inputs.db_path}}"))

	_, ok = Unwrap("plain value")
	assert.False(t, ok)
	assert.False(t, ContainsExpression("plain value"))
}
