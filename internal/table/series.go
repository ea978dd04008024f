package table

import (
	"fmt"
	"sort"
	"time"
)

// Series is a daily time series without gaps.
type Series struct {
	Start  time.Time
	Values []float64
}

// Len returns the number of days in the series.
func (s *Series) Len() int { return len(s.Values) }

// Date returns the day of the i-th value.
func (s *Series) Date(i int) time.Time {
	return s.Start.AddDate(0, 0, i)
}

// End returns the last day of the series.
func (s *Series) End() time.Time {
	return s.Date(len(s.Values) - 1)
}

// Slice returns the sub-series [from, to).
func (s *Series) Slice(from, to int) *Series {
	return &Series{Start: s.Date(from), Values: append([]float64(nil), s.Values[from:to]...)}
}

// DailySeries sums valueCol per calendar day of timeCol. Days between the
// first and last observation with no rows are filled with zero.
func DailySeries(f *Frame, timeCol, valueCol string) (*Series, error) {
	if err := f.Require(timeCol, valueCol); err != nil {
		return nil, err
	}
	sums := map[time.Time]float64{}
	for i := range f.Rows {
		row := f.Row(i)
		day, err := ParseDate(row.Get(timeCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		v, err := row.Float(valueCol)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		sums[day] += v
	}
	if len(sums) == 0 {
		return nil, fmt.Errorf("series '%s' has no observations", valueCol)
	}

	days := make([]time.Time, 0, len(sums))
	for d := range sums {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	start, end := days[0], days[len(days)-1]
	n := int(end.Sub(start).Hours()/24) + 1
	s := &Series{Start: start, Values: make([]float64, n)}
	for d, v := range sums {
		s.Values[int(d.Sub(start).Hours()/24)] = v
	}
	return s, nil
}

// Frame renders the series as a two-column frame.
func (s *Series) Frame(timeCol, valueCol string) *Frame {
	f := New(timeCol, valueCol)
	for i, v := range s.Values {
		f.Append(FormatDate(s.Date(i)), FormatFloat(v))
	}
	return f
}
