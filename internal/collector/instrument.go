package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"PriceLab/internal/model"
)

// ErrInstrumentLoad is the single error surfaced for any failed load.
var ErrInstrumentLoad = errors.New("instrument could not be loaded or is not priceable")

// Priceable is an instrument whose price and volume history can be fetched.
type Priceable struct {
	Kind    model.Loadable
	Symbol  string
	fetcher Fetcher
}

// NewPriceable validates the kind and symbol and binds the instrument to a fetcher.
func NewPriceable(kind model.Loadable, symbol string, fetcher Fetcher) (*Priceable, error) {
	symbol = strings.TrimSpace(symbol)
	if !kind.Priceable() || symbol == "" || fetcher == nil {
		return nil, fmt.Errorf("%w: kind=%q symbol=%q", ErrInstrumentLoad, kind, symbol)
	}
	return &Priceable{Kind: kind, Symbol: symbol, fetcher: fetcher}, nil
}

// NewStock is shorthand for a stock Priceable.
func NewStock(symbol string, fetcher Fetcher) (*Priceable, error) {
	return NewPriceable(model.LoadableStock, symbol, fetcher)
}

func (p *Priceable) history(ctx context.Context, period model.Period, interval model.Interval) ([]model.OHLCV, error) {
	bars, err := p.fetcher.FetchHistory(ctx, p.Symbol, period, interval)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInstrumentLoad, p.Symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s: empty history", ErrInstrumentLoad, p.Symbol)
	}
	log.Debug().Str("symbol", p.Symbol).Str("provider", p.fetcher.Name()).
		Str("period", string(period)).Str("interval", string(interval)).
		Int("bars", len(bars)).Msg("history loaded")
	return bars, nil
}

// PriceHistory returns the series of the bar field selected by timing.
// An empty interval uses the provider default.
func (p *Priceable) PriceHistory(ctx context.Context, timing model.QuoteTiming, period model.Period, interval model.Interval) (model.Series, error) {
	bars, err := p.history(ctx, period, interval)
	if err != nil {
		return model.Series{}, err
	}
	return model.SeriesFromBars(p.Symbol, bars, func(b model.OHLCV) float64 { return b.Field(timing) }), nil
}

// VolumeHistory returns the traded volume series.
func (p *Priceable) VolumeHistory(ctx context.Context, period model.Period, interval model.Interval) (model.Series, error) {
	bars, err := p.history(ctx, period, interval)
	if err != nil {
		return model.Series{}, err
	}
	return model.SeriesFromBars(p.Symbol+" Volume", bars, func(b model.OHLCV) float64 { return b.Volume }), nil
}

// Bars returns the raw bars.
func (p *Priceable) Bars(ctx context.Context, period model.Period, interval model.Interval) ([]model.OHLCV, error) {
	return p.history(ctx, period, interval)
}

// LoadPrices fetches the timing series of each stock ticker in order.
func LoadPrices(ctx context.Context, fetcher Fetcher, timing model.QuoteTiming, period model.Period, interval model.Interval, ticks ...string) ([]model.Series, error) {
	out := make([]model.Series, 0, len(ticks))
	for _, tick := range ticks {
		p, err := NewStock(tick, fetcher)
		if err != nil {
			return nil, err
		}
		s, err := p.PriceHistory(ctx, timing, period, interval)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
