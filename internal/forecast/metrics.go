package forecast

import (
	"fmt"
	"math"
)

// Scores are the error metrics of a backtest.
type Scores struct {
	RMSE float64 `json:"rmse"`
	// WMAPE is the weighted mean absolute percentage error, in percent.
	WMAPE  float64 `json:"wmape"`
	Points int     `json:"points"`
}

// Score computes RMSE and WMAPE over backtest points.
func Score(points []Point) (Scores, error) {
	if len(points) == 0 {
		return Scores{}, fmt.Errorf("no backtest points to score")
	}
	var sq, absErr, absActual float64
	for _, p := range points {
		d := p.Actual - p.Predicted
		sq += d * d
		absErr += math.Abs(d)
		absActual += math.Abs(p.Actual)
	}
	if absActual == 0 {
		return Scores{}, fmt.Errorf("wmape is undefined: all actual values are zero")
	}
	return Scores{
		RMSE:   math.Sqrt(sq / float64(len(points))),
		WMAPE:  absErr / absActual * 100,
		Points: len(points),
	}, nil
}
