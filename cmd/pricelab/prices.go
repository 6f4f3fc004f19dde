package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"PriceLab/internal/calculator"
	"PriceLab/internal/chart"
	"PriceLab/internal/collector"
	"PriceLab/internal/model"
)

func pricesCmd(a *app) *cobra.Command {
	var (
		q   query
		out string
	)
	cmd := &cobra.Command{
		Use:   "prices TICK [TICK...]",
		Short: "Plot raw, unscaled prices of one or more tickers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks := upperAll(args)
			timing, period, interval, err := a.resolve(q)
			if err != nil {
				return err
			}
			p, err := chart.NewPricePlot(cmd.Context(), a.fetcher, chart.Query{Timing: timing, Period: period, Interval: interval}, ticks...)
			if err != nil {
				return err
			}
			a.record(string(timing), period, interval, ticks, p.Series)
			return p.Show(a.outPath(out, "prices", ticks, ".png"))
		},
	}
	a.addQueryFlags(cmd, &q)
	cmd.Flags().StringVarP(&out, "out", "o", "", "image path (.png .svg .pdf)")
	return cmd
}

func scaledCmd(a *app) *cobra.Command {
	var (
		q     query
		out   string
		start float64
	)
	cmd := &cobra.Command{
		Use:   "scaled TICK [TICK...]",
		Short: "Plot prices rebased to a common starting value",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks := upperAll(args)
			timing, period, interval, err := a.resolve(q)
			if err != nil {
				return err
			}
			p, err := chart.NewScaledPricePlot(cmd.Context(), a.fetcher, chart.Query{Timing: timing, Period: period, Interval: interval}, start, ticks...)
			if err != nil {
				return err
			}
			a.record(string(timing), period, interval, ticks, p.Raw)
			return p.Show(a.outPath(out, "scaled", ticks, ".png"))
		},
	}
	a.addQueryFlags(cmd, &q)
	cmd.Flags().StringVarP(&out, "out", "o", "", "image path (.png .svg .pdf)")
	cmd.Flags().Float64Var(&start, "start", calculator.DefaultScaleStart, "value every series starts from")
	return cmd
}

func volumeCmd(a *app) *cobra.Command {
	var (
		q      query
		out    string
		window int
	)
	cmd := &cobra.Command{
		Use:   "volume TICK [TICK...]",
		Short: "Plot traded volume, optionally smoothed by a rolling average",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks := upperAll(args)
			_, period, interval, err := a.resolve(q)
			if err != nil {
				return err
			}
			var raw, series []model.Series
			for _, tick := range ticks {
				p, err := collector.NewStock(tick, a.fetcher)
				if err != nil {
					return err
				}
				v, err := p.VolumeHistory(cmd.Context(), period, interval)
				if err != nil {
					return err
				}
				raw = append(raw, v)
				if window > 1 {
					if v, err = calculator.RollingAvg(v, window); err != nil {
						return err
					}
				}
				series = append(series, v)
			}
			a.record("Volume", period, interval, ticks, raw)

			title := fmt.Sprintf("%s Volume (%s/%s)", strings.Join(ticks, " vs "), period, interval)
			p, err := chart.NewPlot(title, series...)
			if err != nil {
				return err
			}
			return p.Show(a.outPath(out, "volume", ticks, ".png"))
		},
	}
	a.addQueryFlags(cmd, &q)
	cmd.Flags().StringVarP(&out, "out", "o", "", "image path (.png .svg .pdf)")
	cmd.Flags().IntVar(&window, "avg", 0, "rolling average window (0 plots raw volume)")
	return cmd
}

func compareCmd(a *app) *cobra.Command {
	var (
		q    query
		out  string
		kind string
	)
	cmd := &cobra.Command{
		Use:   "compare PRIMARY SECONDARY",
		Short: "Three-panel comparison: normalized prices, raw prices and up/down walk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks := upperAll(args)
			timing, period, interval, err := a.resolve(q)
			if err != nil {
				return err
			}
			primary, err := collector.NewPriceable(model.Loadable(kind), ticks[0], a.fetcher)
			if err != nil {
				return err
			}
			secondary, err := collector.NewPriceable(model.Loadable(kind), ticks[1], a.fetcher)
			if err != nil {
				return err
			}
			d, err := chart.NewComparativeDisplay(cmd.Context(), primary, secondary, chart.Query{Timing: timing, Period: period, Interval: interval})
			if err != nil {
				return err
			}
			a.record(string(timing), period, interval, ticks, d.Raw)
			return d.Show(a.outPath(out, "compare", ticks, ".png"))
		},
	}
	a.addQueryFlags(cmd, &q)
	cmd.Flags().StringVarP(&out, "out", "o", "", "image path (.png .svg .pdf)")
	cmd.Flags().StringVar(&kind, "kind", string(model.LoadableStock), "instrument kind: stock, currency, exchange or fx")
	return cmd
}
