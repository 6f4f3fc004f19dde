package model

import (
	"errors"
	"math"
	"time"
)

// ErrIndexMismatch is returned when two series that must share an index do not.
var ErrIndexMismatch = errors.New("indices do not match")

// Series is a one-dimensional, time-ordered sequence of real numbers.
// NaN marks an undefined slot (leading rolling windows, first returns).
type Series struct {
	Name   string
	Index  []time.Time
	Values []float64
}

// NewSeries builds a Series, copying both slices.
func NewSeries(name string, index []time.Time, values []float64) Series {
	idx := make([]time.Time, len(index))
	copy(idx, index)
	vals := make([]float64, len(values))
	copy(vals, values)
	return Series{Name: name, Index: idx, Values: vals}
}

// SeriesFromBars extracts one bar field into a series.
func SeriesFromBars(name string, bars []OHLCV, pick func(OHLCV) float64) Series {
	s := Series{
		Name:   name,
		Index:  make([]time.Time, len(bars)),
		Values: make([]float64, len(bars)),
	}
	for i, b := range bars {
		s.Index[i] = b.Time
		s.Values[i] = pick(b)
	}
	return s
}

func (s Series) Len() int { return len(s.Values) }

// Clone returns a deep copy.
func (s Series) Clone() Series {
	return NewSeries(s.Name, s.Index, s.Values)
}

// WithValues returns a series sharing the index (copied) with new values.
func (s Series) WithValues(name string, values []float64) Series {
	return NewSeries(name, s.Index, values)
}

// SameIndex reports whether both series carry identical timestamps.
func (s Series) SameIndex(o Series) bool {
	if len(s.Index) != len(o.Index) {
		return false
	}
	for i := range s.Index {
		if !s.Index[i].Equal(o.Index[i]) {
			return false
		}
	}
	return true
}

// Valid returns the non-NaN values.
func (s Series) Valid() []float64 {
	out := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Last returns the final value, NaN when empty.
func (s Series) Last() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return s.Values[len(s.Values)-1]
}

// Min and Max ignore NaN slots; both are NaN for an all-NaN series.
func (s Series) Min() float64 {
	m := math.NaN()
	for _, v := range s.Values {
		if !math.IsNaN(v) && (math.IsNaN(m) || v < m) {
			m = v
		}
	}
	return m
}

func (s Series) Max() float64 {
	m := math.NaN()
	for _, v := range s.Values {
		if !math.IsNaN(v) && (math.IsNaN(m) || v > m) {
			m = v
		}
	}
	return m
}
