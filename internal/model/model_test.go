package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 8, 25, 13, 30, 0, 0, time.UTC)

func minutes(n ...int) []time.Time {
	out := make([]time.Time, len(n))
	for i, m := range n {
		out[i] = t0.Add(time.Duration(m) * time.Minute)
	}
	return out
}

func TestNewSeries_CopiesInput(t *testing.T) {
	vals := []float64{1, 2}
	s := NewSeries("A", minutes(0, 1), vals)
	vals[0] = 99
	assert.Equal(t, 1.0, s.Values[0])

	c := s.Clone()
	c.Values[1] = 42
	assert.Equal(t, 2.0, s.Values[1])
}

func TestSeries_NaNAwareHelpers(t *testing.T) {
	s := NewSeries("A", minutes(0, 1, 2, 3), []float64{math.NaN(), 3, 1, math.NaN()})
	assert.Equal(t, []float64{3, 1}, s.Valid())
	assert.True(t, math.IsNaN(s.Last()))
	assert.Equal(t, 1.0, s.Min())
	assert.Equal(t, 3.0, s.Max())
	assert.True(t, s.SameIndex(s.WithValues("B", []float64{0, 0, 0, 0})))
	assert.False(t, s.SameIndex(NewSeries("C", minutes(0, 1, 2, 4), []float64{0, 0, 0, 0})))
}

func TestSeriesFromBars(t *testing.T) {
	bars := []OHLCV{
		{Time: t0, Open: 1, High: 3, Low: 0.5, Close: 2, Volume: 10},
		{Time: t0.Add(time.Minute), Open: 2, High: 4, Low: 1.5, Close: 3, Volume: 20},
	}
	s := SeriesFromBars("CVX", bars, func(b OHLCV) float64 { return b.Field(TimingHigh) })
	assert.Equal(t, "CVX", s.Name)
	assert.Equal(t, []float64{3, 4}, s.Values)
	assert.Equal(t, minutes(0, 1), s.Index)
}

func TestAlignSeries_InnerJoin(t *testing.T) {
	a := NewSeries("A", minutes(0, 1, 2, 3), []float64{10, 11, 12, 13})
	b := NewSeries("B", minutes(1, 2, 4), []float64{21, 22, 24})

	f, err := AlignSeries(a, b)
	require.NoError(t, err)
	assert.Equal(t, minutes(1, 2), f.Index)
	assert.Equal(t, []string{"A", "B"}, f.Columns)
	assert.Equal(t, 12.0, f.Value("A", 1))
	assert.Equal(t, 21.0, f.Value("B", 0))

	rows, err := f.Matrix("B", "A")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{21, 11}, {22, 12}}, rows)

	_, err = f.Matrix("C")
	assert.Error(t, err)
}

func TestAlignSeries_Errors(t *testing.T) {
	_, err := AlignSeries()
	assert.Error(t, err)

	a := NewSeries("A", minutes(0), []float64{1})
	_, err = AlignSeries(a, a)
	assert.Error(t, err, "duplicate column names")
}

func TestFrame_AddColumn(t *testing.T) {
	f, err := AlignSeries(NewSeries("A", minutes(0, 1), []float64{1, 2}))
	require.NoError(t, err)

	assert.ErrorIs(t, f.AddColumn("short", []float64{1}), ErrIndexMismatch)
	require.NoError(t, f.AddColumn("B", []float64{3, 4}))
	col, ok := f.Column("B")
	require.True(t, ok)
	assert.Equal(t, []float64{3, 4}, col.Values)
	_, ok = f.Column("missing")
	assert.False(t, ok)
}

func TestParsers(t *testing.T) {
	p, err := ParsePeriod("1mo")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)
	_, err = ParsePeriod("2w")
	assert.Error(t, err)

	iv, err := ParseInterval("7d")
	require.NoError(t, err)
	assert.Equal(t, IntervalWeek, iv)
	iv, err = ParseInterval("")
	require.NoError(t, err)
	assert.Equal(t, Interval(""), iv)
	_, err = ParseInterval("3m")
	assert.Error(t, err)
	assert.True(t, IntervalFiveMinute.Intraday())
	assert.False(t, IntervalDay.Intraday())

	tm, err := ParseQuoteTiming("close")
	require.NoError(t, err)
	assert.Equal(t, TimingClose, tm)
	_, err = ParseQuoteTiming("Mid")
	assert.Error(t, err)

	assert.True(t, LoadableFX.Priceable())
	assert.False(t, Loadable("bond").Priceable())
}

func TestSectorByTicker(t *testing.T) {
	assert.Len(t, Sectors, 11)
	s, ok := SectorByTicker("XLE")
	require.True(t, ok)
	assert.NotEmpty(t, s.Name)
	_, ok = SectorByTicker("SPY")
	assert.False(t, ok)
}
