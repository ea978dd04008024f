package table

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout normalized dates are written in.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	TimestampLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	DateLayout,
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

// TimestampLayout is the layout full timestamps are stored in.
const TimestampLayout = "2006-01-02 15:04:05"

// ParseTime accepts the timestamp layouts transaction exports use.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseDate is ParseTime truncated to the calendar day in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// Day truncates a time to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a day in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NormalizeDates rewrites a column to DateLayout.
func (f *Frame) NormalizeDates(col string) error {
	return f.Map(col, func(s string) (string, error) {
		t, err := ParseDate(s)
		if err != nil {
			return "", err
		}
		return FormatDate(t), nil
	})
}
