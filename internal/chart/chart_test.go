package chart

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceLab/internal/collector"
	"PriceLab/internal/model"
	"PriceLab/internal/regime"
)

func assertFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPricePlot_Show(t *testing.T) {
	f := &collector.MockFetcher{Price: 40, Count: 60}
	p, err := NewPricePlot(context.Background(), f, DefaultQuery, "ENB", "CVX")
	require.NoError(t, err)
	require.Len(t, p.Series, 2)

	out := filepath.Join(t.TempDir(), "nested", "prices.png")
	require.NoError(t, p.Show(out))
	assertFile(t, out)
}

func TestScaledPricePlot_RebasesSeries(t *testing.T) {
	f := &collector.MockFetcher{Price: 40, Count: 30}
	p, err := NewScaledPricePlot(context.Background(), f, DefaultQuery, 100, "ENB", "CVX")
	require.NoError(t, err)
	for _, s := range p.Series {
		assert.InDelta(t, 100, s.Values[0], 1e-9)
	}

	out := filepath.Join(t.TempDir(), "scaled.svg")
	require.NoError(t, p.Show(out))
	assertFile(t, out)
}

func TestPricePlot_LoadError(t *testing.T) {
	_, err := NewPricePlot(context.Background(), &collector.MockFetcher{Bars: map[string][]model.OHLCV{}}, DefaultQuery, "ENB")
	assert.ErrorIs(t, err, collector.ErrInstrumentLoad)
}

func TestDisplay_PanelBounds(t *testing.T) {
	_, err := NewDisplay(0)
	assert.Error(t, err)

	d, err := NewDisplay(2)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Panels())
	assert.Error(t, d.Plot(2, nil))
	assert.Error(t, d.Title(-1, "x"))
}

func TestComparativeDisplay_Show(t *testing.T) {
	f := &collector.MockFetcher{Price: 100, Count: 50}
	lead, err := collector.NewStock("XOM", f)
	require.NoError(t, err)
	mid, err := collector.NewStock("PSX", f)
	require.NoError(t, err)

	d, err := NewComparativeDisplay(context.Background(), lead, mid, DefaultQuery)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Panels())

	out := filepath.Join(t.TempDir(), "compare.png")
	require.NoError(t, d.Show(out))
	assertFile(t, out)
}

func TestDisplay_ShowFormatFollowsExtension(t *testing.T) {
	d, err := NewDisplay(1)
	require.NoError(t, err)
	stock, err := collector.NewStock("ENB", &collector.MockFetcher{Price: 40, Count: 20})
	require.NoError(t, err)
	s, err := stock.PriceHistory(context.Background(), DefaultQuery.Timing, DefaultQuery.Period, DefaultQuery.Interval)
	require.NoError(t, err)
	require.NoError(t, d.Plot(0, nil, s))

	dir := t.TempDir()
	svg := filepath.Join(dir, "panel.svg")
	require.NoError(t, d.Show(svg))
	raw, err := os.ReadFile(svg)
	require.NoError(t, err)
	head := strings.TrimSpace(string(raw))
	assert.True(t, strings.HasPrefix(head, "<?xml") || strings.HasPrefix(head, "<svg"), "got %q", head[:min(16, len(head))])

	pdf := filepath.Join(dir, "panel.pdf")
	require.NoError(t, d.Show(pdf))
	raw, err = os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))

	png := filepath.Join(dir, "panel.png")
	require.NoError(t, d.Show(png))
	raw, err = os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\x89PNG"))

	assert.Error(t, d.Show(filepath.Join(dir, "panel.bogus")))
	assert.Error(t, d.Show(filepath.Join(dir, "panel")))
}

func TestRegimePlot_RequiresFit(t *testing.T) {
	f := &collector.MockFetcher{Price: 150, Count: 60}
	m, err := regime.NewModel(context.Background(), f, regime.Options{States: 2}, "CVX", "XOM")
	require.NoError(t, err)

	_, err = NewRegimePlot(m)
	assert.ErrorIs(t, err, regime.ErrNotFitted)

	require.NoError(t, m.Fit())
	rp, err := NewRegimePlot(m)
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "regimes.png")
	require.NoError(t, rp.Show(out))
	assertFile(t, out)
}
