package model

import (
	"fmt"
	"sort"
	"time"
)

// Frame holds several columns aligned on one shared time index.
type Frame struct {
	Index   []time.Time
	Columns []string
	data    map[string][]float64
}

// AlignSeries inner-joins the series on their timestamps. Column names are
// taken from Series.Name and must be unique.
func AlignSeries(series ...Series) (*Frame, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("align: no series")
	}
	counts := make(map[int64]int)
	for _, s := range series {
		seen := make(map[int64]bool, len(s.Index))
		for _, t := range s.Index {
			k := t.UnixNano()
			if !seen[k] {
				seen[k] = true
				counts[k]++
			}
		}
	}
	var keys []int64
	for k, c := range counts {
		if c == len(series) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	f := &Frame{data: make(map[string][]float64)}
	pos := make(map[int64]int, len(keys))
	for i, k := range keys {
		pos[k] = i
		f.Index = append(f.Index, time.Unix(0, k).In(series[0].location()))
	}
	for _, s := range series {
		col := make([]float64, len(keys))
		for i, t := range s.Index {
			if p, ok := pos[t.UnixNano()]; ok {
				col[p] = s.Values[i]
			}
		}
		if err := f.AddColumn(s.Name, col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (s Series) location() *time.Location {
	if len(s.Index) == 0 {
		return time.UTC
	}
	return s.Index[0].Location()
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Index) }

// AddColumn appends a named column; its length must match the index.
func (f *Frame) AddColumn(name string, values []float64) error {
	if len(values) != len(f.Index) {
		return fmt.Errorf("column %q: %w", name, ErrIndexMismatch)
	}
	if _, dup := f.data[name]; dup {
		return fmt.Errorf("column %q already exists", name)
	}
	if f.data == nil {
		f.data = make(map[string][]float64)
	}
	col := make([]float64, len(values))
	copy(col, values)
	f.Columns = append(f.Columns, name)
	f.data[name] = col
	return nil
}

// Column returns a column as a Series.
func (f *Frame) Column(name string) (Series, bool) {
	v, ok := f.data[name]
	if !ok {
		return Series{}, false
	}
	return NewSeries(name, f.Index, v), true
}

// Value returns a single cell.
func (f *Frame) Value(col string, row int) float64 {
	return f.data[col][row]
}

// Matrix returns row-major feature rows for the named columns.
func (f *Frame) Matrix(cols ...string) ([][]float64, error) {
	for _, c := range cols {
		if _, ok := f.data[c]; !ok {
			return nil, fmt.Errorf("unknown column %q", c)
		}
	}
	rows := make([][]float64, len(f.Index))
	for i := range rows {
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = f.data[c][i]
		}
		rows[i] = row
	}
	return rows, nil
}
