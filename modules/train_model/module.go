package train_model

import (
	"context"

	"github.com/vk/forecastgrid/internal/artifact"
	"github.com/vk/forecastgrid/internal/component"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/forecast"
	"github.com/vk/forecastgrid/internal/registry"
	"github.com/vk/forecastgrid/internal/table"
)

// Name is the component name pipelines use.
const Name = "train_model"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Train fits a catalogue model on the daily target series of a frame.
func Train(model string, f *table.Frame, targetCol, timeCol string) (*forecast.Artifact, error) {
	series, err := table.DailySeries(f, timeCol, targetCol)
	if err != nil {
		return nil, err
	}
	state, err := forecast.Fit(model, series.Values)
	if err != nil {
		return nil, err
	}
	return &forecast.Artifact{
		Model:        model,
		TargetColumn: targetCol,
		TimeColumn:   timeCol,
		TrainedFrom:  table.FormatDate(series.Start),
		TrainedUntil: table.FormatDate(series.End()),
		Observations: series.Len(),
		State:        state,
	}, nil
}

// Run is the component entry point.
func Run(ctx context.Context, inv *component.Invocation) error {
	logger := ctxlog.FromContext(ctx)

	model, err := inv.String("model_config")
	if err != nil {
		return err
	}
	in, err := inv.String("target_training_data")
	if err != nil {
		return err
	}
	targetCol, err := inv.OptionalString("target_column", "Quantity")
	if err != nil {
		return err
	}
	timeCol, err := inv.OptionalString("time_column", "InvoiceDate")
	if err != nil {
		return err
	}
	out, err := inv.Output("model")
	if err != nil {
		return err
	}

	frame, err := table.Read(in)
	if err != nil {
		return err
	}
	logger.Info("Training model.", "model", model, "rows", frame.Len())
	trained, err := Train(model, frame, targetCol, timeCol)
	if err != nil {
		return err
	}
	if err := artifact.WriteJSON(out, trained); err != nil {
		return err
	}
	logger.Info("Model saved.", "model", model, "observations", trained.Observations, "trained_until", trained.TrainedUntil)
	return nil
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Registration{
		Name:        Name,
		Description: "Fit a catalogue forecasting model on daily targets.",
		Inputs:      []string{"model_config", "target_training_data", "target_column", "time_column"},
		Outputs:     []string{"model"},
		Component:   component.Func(Run),
	})
}
