package chart

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"PriceLab/internal/calculator"
	"PriceLab/internal/collector"
	"PriceLab/internal/model"
)

// LineStyle customises one series drawn on a Display panel.
type LineStyle struct {
	Color  color.Color
	Dashes []vg.Length
}

// Dashed is a convenience dash pattern.
var Dashed = []vg.Length{vg.Points(4), vg.Points(2)}

// Display is a figure of vertically stacked panels.
type Display struct {
	panels []*plot.Plot
	// Raw holds the fetched prices behind a comparative display.
	Raw []model.Series
}

// NewDisplay creates a figure with count panels.
func NewDisplay(count int) (*Display, error) {
	if count < 1 {
		return nil, fmt.Errorf("display needs at least one panel, got %d", count)
	}
	d := &Display{panels: make([]*plot.Plot, count)}
	for i := range d.panels {
		d.panels[i] = newTimePlot("", "", "")
	}
	return d, nil
}

// Panels returns the number of panels.
func (d *Display) Panels() int { return len(d.panels) }

// Title sets a panel title.
func (d *Display) Title(index int, title string) error {
	if err := d.check(index); err != nil {
		return err
	}
	d.panels[index].Title.Text = title
	return nil
}

func (d *Display) check(index int) error {
	if index < 0 || index >= len(d.panels) {
		return fmt.Errorf("panel index %d out of range [0,%d)", index, len(d.panels))
	}
	return nil
}

// Plot draws the series on the indexed panel. styles is matched to series by
// position; missing entries fall back to the palette and a solid line.
func (d *Display) Plot(index int, styles []LineStyle, series ...model.Series) error {
	if err := d.check(index); err != nil {
		return err
	}
	for i, s := range series {
		var st LineStyle
		if i < len(styles) {
			st = styles[i]
		}
		if err := addLine(d.panels[index], s, i, st.Color, st.Dashes); err != nil {
			return err
		}
	}
	log.Debug().Int("panel", index).Int("series", len(series)).Msg("series plotted")
	return nil
}

// Show renders all panels into one file at path. The image format follows
// the extension: png, svg, pdf, jpg, tif or eps.
func (d *Display) Show(path string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return fmt.Errorf("chart path %q has no extension", path)
	}
	height := Height * vg.Length(len(d.panels)) / 2
	cw, err := draw.NewFormattedCanvas(Width, height, ext)
	if err != nil {
		return fmt.Errorf("chart format %q: %w", ext, err)
	}
	dc := draw.New(cw)

	tiles := draw.Tiles{
		Rows: len(d.panels),
		Cols: 1,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter * 4,
	}
	grid := make([][]*plot.Plot, len(d.panels))
	for i, p := range d.panels {
		grid[i] = []*plot.Plot{p}
	}
	canvases := plot.Align(grid, tiles, dc)
	for i := range grid {
		grid[i][0].Draw(canvases[i][0])
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart dir: %w", err)
		}
	}
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer w.Close()
	if _, err := cw.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("path", path).Str("format", ext).Int("panels", len(d.panels)).Msg("display written")
	return nil
}

var (
	blue  = color.RGBA{B: 200, A: 255}
	green = color.RGBA{G: 150, A: 255}
)

// NewComparativeDisplay compares two instruments on three panels: normalised
// prices, raw prices, and the cumulative up/down walk of each.
func NewComparativeDisplay(ctx context.Context, primary, secondary *collector.Priceable, q Query) (*Display, error) {
	a, err := primary.PriceHistory(ctx, q.Timing, q.Period, q.Interval)
	if err != nil {
		return nil, err
	}
	b, err := secondary.PriceHistory(ctx, q.Timing, q.Period, q.Interval)
	if err != nil {
		return nil, err
	}
	na, err := calculator.Normalize(a)
	if err != nil {
		return nil, err
	}
	nb, err := calculator.Normalize(b)
	if err != nil {
		return nil, err
	}

	d, _ := NewDisplay(3)
	d.Raw = []model.Series{a, b}
	styles := []LineStyle{{Color: blue}, {Color: green}}
	steps := []struct {
		title  string
		series []model.Series
	}{
		{"Normalized prices", []model.Series{na, nb}},
		{"Prices", []model.Series{a, b}},
		{"Momentum walk", []model.Series{calculator.Walk(a), calculator.Walk(b)}},
	}
	for i, st := range steps {
		if err := d.Title(i, st.title); err != nil {
			return nil, err
		}
		if err := d.Plot(i, styles, st.series...); err != nil {
			return nil, err
		}
	}
	return d, nil
}
