package calculator

import (
	"errors"

	"gonum.org/v1/gonum/stat"

	"PriceLab/internal/model"
)

// NeutralRSI is reported when there are too few valid points to score.
const NeutralRSI = 50.0

// RSI scores the series with Wilder's smoothing over period changes.
// NaN points are skipped, so a gap is bridged by one larger change.
func RSI(s model.Series, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	vals := s.Valid()
	if len(vals) < period+1 {
		return NeutralRSI, nil
	}

	gains := make([]float64, len(vals)-1)
	losses := make([]float64, len(vals)-1)
	for i := 1; i < len(vals); i++ {
		if d := vals[i] - vals[i-1]; d > 0 {
			gains[i-1] = d
		} else {
			losses[i-1] = -d
		}
	}

	avgGain := stat.Mean(gains[:period], nil)
	avgLoss := stat.Mean(losses[:period], nil)
	n := float64(period)
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*(n-1) + gains[i]) / n
		avgLoss = (avgLoss*(n-1) + losses[i]) / n
	}

	if avgLoss == 0 {
		return 100, nil
	}
	return 100 - 100/(1+avgGain/avgLoss), nil
}
