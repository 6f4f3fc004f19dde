package calculator

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"PriceLab/internal/model"
)

// TradingDays annualizes daily volatility.
const TradingDays = 252

const (
	DefaultVolatilityWindow = 21
	DefaultAvgWindow        = 7
	DefaultScaleStart       = 100.0
)

// ErrDegenerateRange is returned when min-max normalization has max == min.
var ErrDegenerateRange = errors.New("series has zero range")

// PctChange returns v[i]/v[i-1]-1 with a NaN first slot.
func PctChange(s model.Series) model.Series {
	out := make([]float64, s.Len())
	for i := range out {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = s.Values[i]/s.Values[i-1] - 1
	}
	return s.WithValues(s.Name, out)
}

// rolling applies fn to each full window; incomplete or NaN-tainted windows yield NaN.
func rolling(s model.Series, window int, name string, fn func([]float64) float64) (model.Series, error) {
	if window <= 0 {
		return model.Series{}, errors.New("window must be positive")
	}
	out := make([]float64, s.Len())
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		w := s.Values[i-window+1 : i+1]
		if floats.HasNaN(w) {
			out[i] = math.NaN()
			continue
		}
		out[i] = fn(w)
	}
	return s.WithValues(name, out), nil
}

// RollingVolatility is the rolling sample standard deviation of percent
// change, annualized by sqrt(252).
func RollingVolatility(close model.Series, window int) (model.Series, error) {
	annual := math.Sqrt(TradingDays)
	return rolling(PctChange(close), window, close.Name+" Volatility", func(w []float64) float64 {
		if len(w) < 2 {
			return math.NaN()
		}
		return stat.StdDev(w, nil) * annual
	})
}

// RollingVar is the rolling sample variance of percent change.
func RollingVar(close model.Series, window int) (model.Series, error) {
	return rolling(PctChange(close), window, close.Name+" Variance", func(w []float64) float64 {
		if len(w) < 2 {
			return math.NaN()
		}
		return stat.Variance(w, nil)
	})
}

// RollingAvg is the rolling arithmetic mean.
func RollingAvg(s model.Series, window int) (model.Series, error) {
	return rolling(s, window, s.Name+" Avg", func(w []float64) float64 {
		return stat.Mean(w, nil)
	})
}

// Log is the element-wise natural logarithm.
func Log(s model.Series) model.Series {
	out := make([]float64, s.Len())
	for i, v := range s.Values {
		out[i] = math.Log(v)
	}
	return s.WithValues(s.Name, out)
}

// Avg is the mean of the non-NaN values.
func Avg(s model.Series) float64 {
	v := s.Valid()
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// Add sums two series that share the same index.
func Add(a, b model.Series) (model.Series, error) {
	if !a.SameIndex(b) {
		return model.Series{}, fmt.Errorf("add %s, %s: %w", a.Name, b.Name, model.ErrIndexMismatch)
	}
	out := make([]float64, a.Len())
	floats.AddTo(out, a.Values, b.Values)
	return a.WithValues(a.Name, out), nil
}

// Subtract returns a-b for two series that share the same index.
func Subtract(a, b model.Series) (model.Series, error) {
	if !a.SameIndex(b) {
		return model.Series{}, fmt.Errorf("subtract %s, %s: %w", a.Name, b.Name, model.ErrIndexMismatch)
	}
	out := make([]float64, a.Len())
	floats.SubTo(out, a.Values, b.Values)
	return a.WithValues(a.Name, out), nil
}

func AddScalar(s model.Series, c float64) model.Series {
	out := make([]float64, s.Len())
	copy(out, s.Values)
	floats.AddConst(c, out)
	return s.WithValues(s.Name, out)
}

func SubtractScalar(s model.Series, c float64) model.Series {
	return AddScalar(s, -c)
}

// AddPositional adds secondary onto a copy of primary position by position,
// ignoring secondary values beyond primary's length.
func AddPositional(primary, secondary model.Series) model.Series {
	out := primary.Clone()
	for i, v := range secondary.Values {
		if i >= out.Len() {
			break
		}
		out.Values[i] += v
	}
	return out
}

// ValueSignsDiff returns +1 where the series rose and -1 otherwise,
// indexed from the second timestamp.
func ValueSignsDiff(s model.Series) model.Series {
	if s.Len() < 2 {
		return model.Series{Name: s.Name + " Signs"}
	}
	out := make([]float64, s.Len()-1)
	for i := 1; i < s.Len(); i++ {
		if s.Values[i]-s.Values[i-1] > 0 {
			out[i-1] = 1
		} else {
			out[i-1] = -1
		}
	}
	return model.NewSeries(s.Name+" Signs", s.Index[1:], out)
}

// ValueDiff returns first differences, indexed from the second timestamp.
func ValueDiff(s model.Series) model.Series {
	if s.Len() < 2 {
		return model.Series{Name: s.Name + " Diff"}
	}
	out := make([]float64, s.Len()-1)
	for i := 1; i < s.Len(); i++ {
		out[i-1] = s.Values[i] - s.Values[i-1]
	}
	return model.NewSeries(s.Name+" Diff", s.Index[1:], out)
}

// Normalize rescales to [0,1] by min-max.
func Normalize(s model.Series) (model.Series, error) {
	lo, hi := s.Min(), s.Max()
	if math.IsNaN(lo) || hi == lo {
		return model.Series{}, fmt.Errorf("normalize %s: %w", s.Name, ErrDegenerateRange)
	}
	out := make([]float64, s.Len())
	for i, v := range s.Values {
		out[i] = (v - lo) / (hi - lo)
	}
	return s.WithValues(s.Name, out), nil
}

// Scale rebases the series so its first value equals initial.
func Scale(s model.Series, initial float64) (model.Series, error) {
	if s.Len() == 0 {
		return model.Series{}, fmt.Errorf("scale %s: empty series", s.Name)
	}
	first := s.Values[0]
	if first == 0 || math.IsNaN(first) {
		return model.Series{}, fmt.Errorf("scale %s: first value is %v: %w", s.Name, first, ErrDegenerateRange)
	}
	out := make([]float64, s.Len())
	copy(out, s.Values)
	floats.Scale(initial/first, out)
	return s.WithValues(s.Name, out), nil
}

// Walk turns the up/down steps of s into a cumulative path starting at 0,
// sharing the index of s.
func Walk(s model.Series) model.Series {
	path := make([]float64, s.Len())
	signs := ValueSignsDiff(s)
	for i, v := range signs.Values {
		path[i+1] = path[i] + v
	}
	return s.WithValues(s.Name+" Walk", path)
}
