package collector

import (
	"context"

	"PriceLab/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol string, period model.Period, interval model.Interval) ([]model.OHLCV, error)
	Name() string
}
