package train_model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/forecastgrid/internal/forecast"
	"github.com/vk/forecastgrid/internal/table"
	"github.com/vk/forecastgrid/internal/testutil"
)

const targets = `InvoiceDate,Quantity
2010-12-01,1
2010-12-02,2
2010-12-04,4
2010-12-04,5
`

func TestTrain(t *testing.T) {
	testCases := []struct {
		name  string
		model string
		want  forecast.State
	}{
		{name: "naive last", model: "naive_last", want: forecast.State{Level: 9}},
		{name: "historic mean", model: "mean", want: forecast.State{Level: 3}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			f, err := table.Decode(strings.NewReader(targets))
			require.NoError(t, err)

			// --- Act ---
			a, err := Train(tc.model, f, "Quantity", "InvoiceDate")

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.want, a.State)
			assert.Equal(t, "2010-12-01", a.TrainedFrom)
			assert.Equal(t, "2010-12-04", a.TrainedUntil)
			assert.Equal(t, 4, a.Observations)
		})
	}
}

func TestTrain_Errors(t *testing.T) {
	f, err := table.Decode(strings.NewReader(targets))
	require.NoError(t, err)

	_, err = Train("prophet", f, "Quantity", "InvoiceDate")
	assert.ErrorContains(t, err, "unknown model 'prophet'")

	_, err = Train("moving_average_7", f, "Quantity", "InvoiceDate")
	assert.ErrorContains(t, err, "needs at least 7 observations, got 4")
}

func TestRun(t *testing.T) {
	// --- Arrange ---
	ctx := new(testutil.SafeBuffer).Context()
	inv := testutil.Invocation(t, Name, map[string]any{
		"model_config":         "mean",
		"target_training_data": testutil.WriteFile(t, "train.csv", targets),
	}, "model")

	// --- Act ---
	err := Run(ctx, inv)

	// --- Assert ---
	require.NoError(t, err)
	a, err := forecast.ReadArtifact(inv.Outputs["model"])
	require.NoError(t, err)
	assert.Equal(t, "mean", a.Model)
	assert.Equal(t, "Quantity", a.TargetColumn)
	assert.Equal(t, "InvoiceDate", a.TimeColumn)
	assert.InDelta(t, 3.0, a.State.Level, 1e-9)
}
