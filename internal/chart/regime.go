package chart

import (
	"fmt"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"PriceLab/internal/regime"
)

// RegimePlot overlays the decoded hidden states on the primary price line.
type RegimePlot struct {
	*Plot
}

// NewRegimePlot requires a fitted model.
func NewRegimePlot(m *regime.Model) (*RegimePlot, error) {
	states, err := m.States()
	if err != nil {
		return nil, err
	}
	prices := m.PrimaryPrices()
	p := newTimePlot(fmt.Sprintf("%s Price Colored by Inferred Regimes", m.Primary), "Time", "Price")

	for k := 0; k < m.HMM.States; k++ {
		var pts plotter.XYs
		for i, s := range states {
			if s == k {
				pts = append(pts, plotter.XY{X: float64(prices.Index[i].Unix()), Y: prices.Values[i]})
			}
		}
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("state %d scatter: %w", k, err)
		}
		sc.GlyphStyle.Color = plotutil.Color(k + 1)
		sc.GlyphStyle.Radius = vg.Points(2.5)
		sc.GlyphStyle.Shape = plotutil.Shape(0)
		p.Add(sc)
		p.Legend.Add(fmt.Sprintf("State %d", k), sc)
	}

	prices.Name = "Prices"
	if err := addLine(p, prices, 0, plotutil.Color(0), nil); err != nil {
		return nil, err
	}
	return &RegimePlot{Plot: &Plot{plot: p}}, nil
}
