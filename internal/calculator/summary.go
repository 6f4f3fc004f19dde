package calculator

import (
	"math"

	"github.com/rs/zerolog/log"

	"PriceLab/internal/model"
)

// Summary holds descriptive indicators for one price series.
type Summary struct {
	Symbol     string
	Points     int
	Last       float64
	Mean       float64
	SMA20      float64
	RSI14      float64
	High       float64
	Low        float64
	Position   float64 // 0.0 ~ 1.0 within [Low, High]
	Volatility float64 // latest annualized rolling volatility, NaN if unavailable
}

// Summarize computes the indicators, falling back to neutral values when a
// series is too short for one of them.
func Summarize(s model.Series) Summary {
	sum := Summary{Symbol: s.Name, Points: s.Len(), Last: s.Last(), Mean: Avg(s)}

	if ma, err := SMA(s, 20); err != nil {
		log.Debug().Err(err).Str("symbol", s.Name).Msg("SMA20 unavailable, using last price")
		sum.SMA20 = sum.Last
	} else {
		sum.SMA20 = ma
	}

	if rsi, err := RSI(s, 14); err != nil {
		log.Warn().Err(err).Str("symbol", s.Name).Msg("RSI calculation failed, defaulting to 50")
		sum.RSI14 = NeutralRSI
	} else {
		sum.RSI14 = rsi
	}

	if h, l, err := WindowRange(s, 0); err != nil {
		log.Warn().Err(err).Str("symbol", s.Name).Msg("range calculation failed")
		sum.High, sum.Low = sum.Last, sum.Last
	} else {
		sum.High, sum.Low = h, l
	}

	if pos, err := RangePosition(sum.Last, sum.High, sum.Low); err != nil {
		sum.Position = 0.5
	} else {
		sum.Position = pos
	}

	sum.Volatility = math.NaN()
	if vol, err := RollingVolatility(s, DefaultVolatilityWindow); err == nil {
		sum.Volatility = vol.Last()
	}
	return sum
}
