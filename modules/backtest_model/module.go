package backtest_model

import (
	"context"
	"fmt"

	"github.com/vk/forecastgrid/internal/artifact"
	"github.com/vk/forecastgrid/internal/component"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/forecast"
	"github.com/vk/forecastgrid/internal/registry"
	"github.com/vk/forecastgrid/internal/table"
)

// Name is the component name pipelines use.
const Name = "backtest_model"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Report is the scores artifact.
type Report struct {
	Model string `json:"model"`
	forecast.Scores
	BacktestStart float64 `json:"backtest_start"`
	Horizon       int     `json:"horizon"`
	Stride        int     `json:"stride"`
	Retrain       bool    `json:"retrain"`
	From          string  `json:"from"`
	Until         string  `json:"until"`
}

// Backtest scores historical forecasts of a trained model over the daily
// target series. A non-nil holdout frame is appended to the training data
// so the backtest window can reach into it.
func Backtest(a *forecast.Artifact, train, holdout *table.Frame, opts forecast.BacktestOptions) (*Report, error) {
	data := train
	if holdout != nil {
		data = train.Clone()
		h, err := holdout.Select(train.Header...)
		if err != nil {
			return nil, fmt.Errorf("holdout: %w", err)
		}
		data.Rows = append(data.Rows, h.Rows...)
	}
	series, err := table.DailySeries(data, a.TimeColumn, a.TargetColumn)
	if err != nil {
		return nil, err
	}
	points, err := forecast.Backtest(a.Model, series.Values, opts)
	if err != nil {
		return nil, err
	}
	scores, err := forecast.Score(points)
	if err != nil {
		return nil, err
	}
	return &Report{
		Model:         a.Model,
		Scores:        scores,
		BacktestStart: opts.Start,
		Horizon:       opts.Horizon,
		Stride:        opts.Stride,
		Retrain:       opts.Retrain,
		From:          table.FormatDate(series.Date(points[0].Index)),
		Until:         table.FormatDate(series.Date(points[len(points)-1].Index)),
	}, nil
}

// Run is the component entry point.
func Run(ctx context.Context, inv *component.Invocation) error {
	logger := ctxlog.FromContext(ctx)

	modelPath, err := inv.String("model")
	if err != nil {
		return err
	}
	trainPath, err := inv.String("target_training_data")
	if err != nil {
		return err
	}
	holdoutPath, err := inv.OptionalString("target_holdout_data", "")
	if err != nil {
		return err
	}
	opts := forecast.DefaultBacktestOptions()
	if opts.Start, err = inv.OptionalFloat("backtest_start", opts.Start); err != nil {
		return err
	}
	if opts.Horizon, err = inv.OptionalInt("horizon", opts.Horizon); err != nil {
		return err
	}
	if opts.Stride, err = inv.OptionalInt("stride", opts.Stride); err != nil {
		return err
	}
	if opts.Retrain, err = inv.Bool("retrain", opts.Retrain); err != nil {
		return err
	}
	out, err := inv.Output("scores")
	if err != nil {
		return err
	}

	trained, err := forecast.ReadArtifact(modelPath)
	if err != nil {
		return err
	}
	if trained.TargetColumn, err = inv.OptionalString("target_column", trained.TargetColumn); err != nil {
		return err
	}
	if trained.TimeColumn, err = inv.OptionalString("time_column", trained.TimeColumn); err != nil {
		return err
	}

	train, err := table.Read(trainPath)
	if err != nil {
		return err
	}
	var holdout *table.Frame
	if holdoutPath != "" {
		if holdout, err = table.Read(holdoutPath); err != nil {
			return err
		}
	}

	report, err := Backtest(trained, train, holdout, opts)
	if err != nil {
		return err
	}
	logger.Info("Backtest complete.", "model", report.Model, "rmse", report.RMSE, "wmape", report.WMAPE, "points", report.Points)
	return artifact.WriteJSON(out, report)
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Registration{
		Name:        Name,
		Description: "Score historical forecasts of a trained model with RMSE and WMAPE.",
		Inputs: []string{
			"model", "target_training_data", "target_holdout_data", "target_column",
			"time_column", "backtest_start", "horizon", "stride", "retrain",
		},
		Outputs:   []string{"scores"},
		Component: component.Func(Run),
	})
}
