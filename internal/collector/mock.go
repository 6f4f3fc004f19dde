package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"PriceLab/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.OHLCV
	Err   error
	// Start anchors generated bars so runs are reproducible.
	Start time.Time
	Count int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, symbol string, _ model.Period, interval model.Interval) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	if m.Bars != nil {
		return nil, fmt.Errorf("mock: unknown symbol %q", symbol)
	}
	count := m.Count
	if count == 0 {
		count = 120
	}
	step := 24 * time.Hour
	if interval.Intraday() {
		step = time.Minute
	}
	return generateMockBars(symbol, m.Price, count, m.Start, step), nil
}

// generateMockBars produces a deterministic oscillating path per symbol.
func generateMockBars(symbol string, basePrice float64, count int, start time.Time, step time.Duration) []model.OHLCV {
	if basePrice == 0 {
		basePrice = 100
	}
	if start.IsZero() {
		start = time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	}
	phase := 0.0
	for _, r := range symbol {
		phase += float64(r)
	}
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		x := float64(i)
		p := basePrice * (1 + 0.02*math.Sin(x/7+phase) + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000 + 1000*x,
		}
	}
	return bars
}
