package calculator

import (
	"errors"

	"gonum.org/v1/gonum/stat"

	"PriceLab/internal/model"
)

// SMA computes the simple moving average of the last period values.
func SMA(s model.Series, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if s.Len() < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	return stat.Mean(s.Values[s.Len()-period:], nil), nil
}
