package calculator

import (
	"errors"
	"math"

	"PriceLab/internal/model"
)

// WindowRange scans the most recent n points (all when n <= 0) and returns
// the high and low, skipping NaN.
func WindowRange(s model.Series, n int) (high, low float64, err error) {
	if s.Len() == 0 {
		return 0, 0, errors.New("empty series")
	}
	start := 0
	if n > 0 && s.Len() > n {
		start = s.Len() - n
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, v := range s.Values[start:] {
		if math.IsNaN(v) {
			continue
		}
		high = math.Max(high, v)
		low = math.Min(low, v)
	}
	if math.IsInf(high, -1) {
		return 0, 0, errors.New("no valid values in window")
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Min(math.Max(pos, 0), 1), nil
}
