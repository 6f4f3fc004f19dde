package regime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceLab/internal/collector"
	"PriceLab/internal/model"
)

func TestNewModel_RequiresStates(t *testing.T) {
	_, err := NewModel(context.Background(), &collector.MockFetcher{}, Options{States: 0}, "CVX")
	assert.ErrorIs(t, err, ErrNoStates)
}

func TestNewModel_PropagatesLoadError(t *testing.T) {
	_, err := NewModel(context.Background(), &collector.MockFetcher{Bars: map[string][]model.OHLCV{}}, Options{States: 2}, "CVX")
	assert.ErrorIs(t, err, collector.ErrInstrumentLoad)
}

func TestModel_FitAddsStates(t *testing.T) {
	f := &collector.MockFetcher{Price: 150, Count: 90}
	m, err := NewModel(context.Background(), f, Options{
		States:   2,
		Period:   model.PeriodDay,
		Interval: model.IntervalMinute,
	}, "CVX", "XOM")
	require.NoError(t, err)

	assert.Equal(t, "CVX", m.Primary)
	assert.Equal(t, []string{"CVX Close", "XOM Close", "Return CVX", "Return XOM"}, m.Frame.Columns)
	assert.Equal(t, 0.0, m.Frame.Value("Return CVX", 0))

	require.NoError(t, m.Fit())
	states, err := m.States()
	require.NoError(t, err)
	assert.Len(t, states, 90)
	for _, s := range states {
		assert.True(t, s == 0 || s == 1)
	}
	assert.Contains(t, m.Frame.Columns, StateColumn)

	proba, err := m.InferStates()
	require.NoError(t, err)
	assert.Len(t, proba, 90)

	assert.Equal(t, 90, m.PrimaryPrices().Len())
}

func TestModel_AlignsOnSharedTimestamps(t *testing.T) {
	start := time.Date(2025, 8, 25, 13, 30, 0, 0, time.UTC)
	bar := func(min int, c float64) model.OHLCV {
		return model.OHLCV{Time: start.Add(time.Duration(min) * time.Minute), Close: c}
	}
	f := &collector.MockFetcher{Bars: map[string][]model.OHLCV{
		"A": {bar(0, 10), bar(1, 11), bar(2, 12), bar(3, 11)},
		"B": {bar(1, 20), bar(2, 22), bar(3, 21), bar(4, 25)},
	}}
	m, err := NewModel(context.Background(), f, Options{States: 1}, "A", "B")
	require.NoError(t, err)
	require.Equal(t, 3, m.Frame.Len())
	assert.Equal(t, 11.0, m.Frame.Value("A Close", 0))
	assert.InDelta(t, 0.1, m.Frame.Value("Return B", 1), 1e-12)
}
