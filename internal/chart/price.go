package chart

import (
	"context"
	"fmt"
	"strings"

	"PriceLab/internal/calculator"
	"PriceLab/internal/collector"
	"PriceLab/internal/model"
)

// Query selects what price history to load for each ticker.
type Query struct {
	Timing   model.QuoteTiming
	Period   model.Period
	Interval model.Interval
}

// DefaultQuery mirrors the interactive default: today's opens by the minute.
var DefaultQuery = Query{Timing: model.TimingOpen, Period: model.PeriodDay, Interval: model.IntervalMinute}

func (q Query) title(prefix string, ticks []string) string {
	return fmt.Sprintf("%s %s (%s, %s/%s)", strings.Join(ticks, " vs "), prefix, q.Timing, q.Period, q.Interval)
}

// PricePlot charts raw, unscaled prices of several tickers against one another.
type PricePlot struct {
	*Plot
	Series []model.Series
}

// NewPricePlot loads each ticker and draws its raw prices.
func NewPricePlot(ctx context.Context, fetcher collector.Fetcher, q Query, ticks ...string) (*PricePlot, error) {
	series, err := collector.LoadPrices(ctx, fetcher, q.Timing, q.Period, q.Interval, ticks...)
	if err != nil {
		return nil, err
	}
	p, err := NewPlot(q.title("Prices", ticks), series...)
	if err != nil {
		return nil, err
	}
	p.plot.Y.Label.Text = "Price"
	return &PricePlot{Plot: p, Series: series}, nil
}

// ScaledPricePlot charts prices rebased so every ticker starts at the same value.
type ScaledPricePlot struct {
	*Plot
	Series []model.Series
	// Raw holds the prices as fetched, before rebasing.
	Raw []model.Series
}

// NewScaledPricePlot loads each ticker and rebases it to scaleStart.
func NewScaledPricePlot(ctx context.Context, fetcher collector.Fetcher, q Query, scaleStart float64, ticks ...string) (*ScaledPricePlot, error) {
	raw, err := collector.LoadPrices(ctx, fetcher, q.Timing, q.Period, q.Interval, ticks...)
	if err != nil {
		return nil, err
	}
	scaled := make([]model.Series, len(raw))
	for i, s := range raw {
		if scaled[i], err = calculator.Scale(s, scaleStart); err != nil {
			return nil, err
		}
	}
	p, err := NewPlot(q.title(fmt.Sprintf("Scaled to %g", scaleStart), ticks), scaled...)
	if err != nil {
		return nil, err
	}
	p.plot.Y.Label.Text = "Scaled price"
	return &ScaledPricePlot{Plot: p, Series: scaled, Raw: raw}, nil
}
