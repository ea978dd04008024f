package forecast

import (
	"fmt"
	"math"
)

// BacktestOptions configures a historical-forecast backtest.
type BacktestOptions struct {
	// Start is the fraction of the series used as the first training window.
	Start   float64
	Horizon int
	Stride  int
	// Retrain refits the model on the expanding window before every
	// forecast. Otherwise the state fitted on the first window is reused.
	Retrain bool
}

// DefaultBacktestOptions returns the backtest settings pipelines use when
// they do not override them.
func DefaultBacktestOptions() BacktestOptions {
	return BacktestOptions{Start: 0.7, Horizon: 7, Stride: 1, Retrain: true}
}

// Validate checks the options are usable.
func (o BacktestOptions) Validate() error {
	if o.Start <= 0 || o.Start >= 1 {
		return fmt.Errorf("backtest start must be between 0 and 1 exclusive, got %v", o.Start)
	}
	if o.Horizon < 1 {
		return fmt.Errorf("backtest horizon must be positive, got %d", o.Horizon)
	}
	if o.Stride < 1 {
		return fmt.Errorf("backtest stride must be positive, got %d", o.Stride)
	}
	return nil
}

// Point is one scored historical forecast.
type Point struct {
	Index     int
	Actual    float64
	Predicted float64
}

// Backtest produces historical forecasts over series. Each forecast is made
// from the data before a cut-off and only its last point, Horizon steps
// ahead, is kept. Cut-offs start at the Start fraction of the series and
// advance by Stride.
func Backtest(model string, series []float64, opts BacktestOptions) ([]Point, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m, err := Lookup(model)
	if err != nil {
		return nil, err
	}

	first := int(math.Floor(opts.Start * float64(len(series))))
	if first < m.MinHistory() {
		first = m.MinHistory()
	}
	if first+opts.Horizon > len(series) {
		return nil, fmt.Errorf("series of %d observations is too short to backtest model '%s' from %d with horizon %d", len(series), model, first, opts.Horizon)
	}

	var fixed State
	if !opts.Retrain {
		if fixed, err = m.Fit(series[:first]); err != nil {
			return nil, err
		}
	}

	var points []Point
	for cut := first; cut+opts.Horizon <= len(series); cut += opts.Stride {
		state, steps := fixed, cut-first+opts.Horizon
		if opts.Retrain {
			if state, err = m.Fit(series[:cut]); err != nil {
				return nil, err
			}
			steps = opts.Horizon
		}
		target := cut + opts.Horizon - 1
		pred := Forecast(state, steps)
		points = append(points, Point{Index: target, Actual: series[target], Predicted: pred[steps-1]})
	}
	return points, nil
}
