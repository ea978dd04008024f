package split_data

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/forecastgrid/internal/component"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/registry"
	"github.com/vk/forecastgrid/internal/table"
)

// Name is the component name pipelines use.
const Name = "split_data"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Result holds the three frames a split produces.
type Result struct {
	TrainTargets *table.Frame
	TestTargets  *table.Frame
	Features     *table.Frame
	// SplitDate is the last day of the training targets.
	SplitDate string
}

// Split normalizes the date column to calendar days, separates the
// [date, target] targets from the features (every column but the target)
// and splits the targets by calendar date: the last testDays days before the
// latest date go to the test set.
func Split(f *table.Frame, dateCol, targetCol string, testDays int) (*Result, error) {
	if testDays <= 0 {
		return nil, fmt.Errorf("days_in_test_split must be a positive integer, got %d", testDays)
	}
	if err := f.Require(dateCol, targetCol); err != nil {
		return nil, err
	}

	df := f.Clone()
	if err := df.NormalizeDates(dateCol); err != nil {
		return nil, err
	}
	idx, _ := df.Index(dateCol)
	sort.SliceStable(df.Rows, func(i, j int) bool { return df.Rows[i][idx] < df.Rows[j][idx] })

	targets, err := df.Select(dateCol, targetCol)
	if err != nil {
		return nil, err
	}
	features, err := df.Drop(targetCol)
	if err != nil {
		return nil, err
	}
	if targets.Len() == 0 {
		return nil, fmt.Errorf("input data has no rows")
	}

	maxDate, err := table.ParseDate(targets.Rows[targets.Len()-1][0])
	if err != nil {
		return nil, err
	}
	split := table.FormatDate(maxDate.AddDate(0, 0, -testDays))

	res := &Result{
		TrainTargets: targets.Filter(func(r table.Row) bool { return r.Get(dateCol) <= split }),
		TestTargets:  targets.Filter(func(r table.Row) bool { return r.Get(dateCol) > split }),
		Features:     features,
		SplitDate:    split,
	}
	return res, nil
}

// Run is the component entry point.
func Run(ctx context.Context, inv *component.Invocation) error {
	logger := ctxlog.FromContext(ctx)

	in, err := inv.String("input_data")
	if err != nil {
		return err
	}
	dateCol, err := inv.OptionalString("date_column", "InvoiceDate")
	if err != nil {
		return err
	}
	targetCol, err := inv.OptionalString("target_column", "Quantity")
	if err != nil {
		return err
	}
	testDays, err := inv.Int("days_in_test_split")
	if err != nil {
		return err
	}
	outputs := map[string]string{}
	for _, name := range []string{"train_targets", "test_targets", "features"} {
		if outputs[name], err = inv.Output(name); err != nil {
			return err
		}
	}

	frame, err := table.Read(in)
	if err != nil {
		return err
	}
	res, err := Split(frame, dateCol, targetCol, testDays)
	if err != nil {
		return err
	}
	logger.Info("Split data.", "split_date", res.SplitDate, "train_rows", res.TrainTargets.Len(), "test_rows", res.TestTargets.Len())

	if err := res.TrainTargets.Write(outputs["train_targets"]); err != nil {
		return err
	}
	if err := res.TestTargets.Write(outputs["test_targets"]); err != nil {
		return err
	}
	return res.Features.Write(outputs["features"])
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Registration{
		Name:        Name,
		Description: "Split targets into train and test sets by the last N calendar days.",
		Inputs:      []string{"input_data", "date_column", "target_column", "days_in_test_split"},
		Outputs:     []string{"train_targets", "test_targets", "features"},
		Component:   component.Func(Run),
	})
}
