// Package forecast implements the catalogue of baseline forecasting models,
// historical-forecast backtesting and the error metrics used to score it.
package forecast

import (
	"fmt"
	"sort"
)

// State is the fitted, serializable state of a model.
type State struct {
	// Level is the constant forecast of level models.
	Level float64 `json:"level"`
	// Season holds the last full season, oldest first, for seasonal models.
	Season []float64 `json:"season,omitempty"`
}

// Model fits a State from history. Forecasting only needs the State.
type Model interface {
	// MinHistory is the shortest history Fit accepts.
	MinHistory() int
	Fit(history []float64) (State, error)
}

// Forecast extends a fitted state horizon steps past the end of the
// history it was fitted on.
func Forecast(s State, horizon int) []float64 {
	out := make([]float64, horizon)
	for i := range out {
		if len(s.Season) > 0 {
			out[i] = s.Season[i%len(s.Season)]
		} else {
			out[i] = s.Level
		}
	}
	return out
}

type naiveLast struct{}

func (naiveLast) MinHistory() int { return 1 }

func (naiveLast) Fit(history []float64) (State, error) {
	return State{Level: history[len(history)-1]}, nil
}

type seasonalNaive struct{ period int }

func (m seasonalNaive) MinHistory() int { return m.period }

func (m seasonalNaive) Fit(history []float64) (State, error) {
	season := append([]float64(nil), history[len(history)-m.period:]...)
	return State{Season: season}, nil
}

type movingAverage struct{ window int }

func (m movingAverage) MinHistory() int { return m.window }

func (m movingAverage) Fit(history []float64) (State, error) {
	return State{Level: mean(history[len(history)-m.window:])}, nil
}

type historicMean struct{}

func (historicMean) MinHistory() int { return 1 }

func (historicMean) Fit(history []float64) (State, error) {
	return State{Level: mean(history)}, nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

var catalogue = map[string]Model{
	"naive_last":        naiveLast{},
	"seasonal_naive_7":  seasonalNaive{period: 7},
	"moving_average_7":  movingAverage{window: 7},
	"moving_average_28": movingAverage{window: 28},
	"mean":              historicMean{},
}

// Lookup returns a catalogue model by name.
func Lookup(name string) (Model, error) {
	m, ok := catalogue[name]
	if !ok {
		return nil, fmt.Errorf("unknown model '%s'; available models: %v", name, Names())
	}
	return m, nil
}

// Names returns the catalogue model names in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fit looks up a model and fits it, checking the history is long enough.
func Fit(name string, history []float64) (State, error) {
	m, err := Lookup(name)
	if err != nil {
		return State{}, err
	}
	if len(history) < m.MinHistory() {
		return State{}, fmt.Errorf("model '%s' needs at least %d observations, got %d", name, m.MinHistory(), len(history))
	}
	return m.Fit(history)
}
