// Package table holds the tabular artifact format components exchange: CSV
// files with a header row, plus daily time series read from them.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Frame is an in-memory CSV table. All cells are kept as strings; typed
// access goes through Row.
type Frame struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// New creates an empty frame with the given header.
func New(header ...string) *Frame {
	return &Frame{Header: append([]string(nil), header...)}
}

// Read loads a CSV file.
func Read(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table %s: %w", path, err)
	}
	defer f.Close()

	frame, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", path, err)
	}
	return frame, nil
}

// Decode reads CSV data whose first record is the header.
func Decode(r io.Reader) (*Frame, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("table has no header row")
	}
	return &Frame{Header: records[0], Rows: records[1:]}, nil
}

// Write stores the frame as a CSV file, creating parent directories.
func (f *Frame) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Encode(out); err != nil {
		out.Close()
		return fmt.Errorf("failed to write table %s: %w", path, err)
	}
	return out.Close()
}

// Encode writes the frame as CSV.
func (f *Frame) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(f.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Len returns the number of data rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Has reports whether the frame has a column with the given name.
func (f *Frame) Has(col string) bool {
	_, ok := f.columns()[col]
	return ok
}

// Index returns the position of a column.
func (f *Frame) Index(col string) (int, error) {
	i, ok := f.columns()[col]
	if !ok {
		return 0, fmt.Errorf("column '%s' not found", col)
	}
	return i, nil
}

// Require returns an error naming the first missing column.
func (f *Frame) Require(cols ...string) error {
	for _, c := range cols {
		if _, err := f.Index(c); err != nil {
			return err
		}
	}
	return nil
}

func (f *Frame) columns() map[string]int {
	if f.index == nil || len(f.index) != len(f.Header) {
		f.index = make(map[string]int, len(f.Header))
		for i, h := range f.Header {
			f.index[h] = i
		}
	}
	return f.index
}

// Append adds a row. A row whose width differs from the header is a bug in
// the caller.
func (f *Frame) Append(values ...string) {
	if len(values) != len(f.Header) {
		panic(fmt.Sprintf("table: row has %d values, header has %d", len(values), len(f.Header)))
	}
	f.Rows = append(f.Rows, values)
}

// Row returns the i-th row.
func (f *Frame) Row(i int) Row {
	return Row{frame: f, values: f.Rows[i]}
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := New(f.Header...)
	for _, row := range f.Rows {
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}
	return out
}

// Filter returns a new frame with the rows keep accepts.
func (f *Frame) Filter(keep func(Row) bool) *Frame {
	out := New(f.Header...)
	for i := range f.Rows {
		if keep(f.Row(i)) {
			out.Rows = append(out.Rows, append([]string(nil), f.Rows[i]...))
		}
	}
	return out
}

// Select returns a new frame with only the given columns, in that order.
func (f *Frame) Select(cols ...string) (*Frame, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j, err := f.Index(c)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}
	out := New(cols...)
	for _, row := range f.Rows {
		values := make([]string, len(idx))
		for i, j := range idx {
			values[i] = row[j]
		}
		out.Rows = append(out.Rows, values)
	}
	return out, nil
}

// Drop returns a new frame without the given columns.
func (f *Frame) Drop(cols ...string) (*Frame, error) {
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		if !f.Has(c) {
			return nil, fmt.Errorf("column '%s' not found", c)
		}
		drop[c] = true
	}
	var keep []string
	for _, h := range f.Header {
		if !drop[h] {
			keep = append(keep, h)
		}
	}
	return f.Select(keep...)
}

// AddColumn appends a column computed from each row.
func (f *Frame) AddColumn(name string, value func(Row) (string, error)) error {
	if f.Has(name) {
		return fmt.Errorf("column '%s' already exists", name)
	}
	values := make([]string, len(f.Rows))
	for i := range f.Rows {
		v, err := value(f.Row(i))
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		values[i] = v
	}
	f.Header = append(f.Header, name)
	for i, row := range f.Rows {
		grown := make([]string, len(row)+1)
		copy(grown, row)
		grown[len(row)] = values[i]
		f.Rows[i] = grown
	}
	return nil
}

// Map rewrites one column in place.
func (f *Frame) Map(col string, fn func(string) (string, error)) error {
	j, err := f.Index(col)
	if err != nil {
		return err
	}
	for i, row := range f.Rows {
		v, err := fn(row[j])
		if err != nil {
			return fmt.Errorf("row %d, column '%s': %w", i+1, col, err)
		}
		row[j] = v
	}
	return nil
}

// Row is a view of one frame row.
type Row struct {
	frame  *Frame
	values []string
}

// Get returns the value of a column, or "" if the frame has no such column.
func (r Row) Get(col string) string {
	j, ok := r.frame.columns()[col]
	if !ok {
		return ""
	}
	return r.values[j]
}

// Float parses a column as a float. Empty cells are an error.
func (r Row) Float(col string) (float64, error) {
	s := r.Get(col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("column '%s': invalid number %q", col, s)
	}
	return v, nil
}

// FormatFloat renders a float the way frames store numbers.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
