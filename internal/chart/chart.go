// Package chart renders series to image files with gonum/plot. Saving a
// chart is the CLI's equivalent of showing a plot window.
package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"PriceLab/internal/model"
)

// Size is the default output size.
var (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

// xys converts a series to plot points with unix-second X values, skipping NaN.
func xys(s model.Series) plotter.XYs {
	pts := make(plotter.XYs, 0, s.Len())
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(s.Index[i].Unix()), Y: v})
	}
	return pts
}

// newTimePlot creates a plot with a time-formatted X axis.
func newTimePlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "01-02\n15:04"}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

// addLine adds one series as a line, colored by palette index.
func addLine(p *plot.Plot, s model.Series, idx int, c color.Color, dashes []vg.Length) error {
	pts := xys(s)
	if len(pts) == 0 {
		return fmt.Errorf("series %q has no plottable points", s.Name)
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("line %q: %w", s.Name, err)
	}
	if c == nil {
		c = plotutil.Color(idx)
	}
	l.LineStyle.Color = c
	l.LineStyle.Width = vg.Points(1.2)
	l.LineStyle.Dashes = dashes
	p.Add(l)
	p.Legend.Add(s.Name, l)
	return nil
}

// save writes the plot, creating the directory; the extension picks the format.
func save(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart dir: %w", err)
		}
	}
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("chart written")
	return nil
}

// Plot is the basic multi-line chart.
type Plot struct {
	plot *plot.Plot
}

// NewPlot draws every series as a labelled line.
func NewPlot(title string, series ...model.Series) (*Plot, error) {
	p := newTimePlot(title, "Time", "Value")
	for i, s := range series {
		if err := addLine(p, s, i, nil, nil); err != nil {
			return nil, err
		}
	}
	return &Plot{plot: p}, nil
}

// Show writes the chart to path.
func (p *Plot) Show(path string) error {
	return save(p.plot, path)
}
