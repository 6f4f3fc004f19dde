package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Field returns the bar value selected by the quote timing.
func (b OHLCV) Field(t QuoteTiming) float64 {
	switch t {
	case TimingOpen:
		return b.Open
	case TimingHigh:
		return b.High
	case TimingLow:
		return b.Low
	default:
		return b.Close
	}
}
