package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"PriceLab/internal/calculator"
	"PriceLab/internal/chart"
	"PriceLab/internal/collector"
	"PriceLab/internal/model"
	"PriceLab/internal/notifier"
	"PriceLab/internal/stats"
)

func volatilityCmd(a *app) *cobra.Command {
	var (
		q        query
		out      string
		window   int
		variance bool
	)
	cmd := &cobra.Command{
		Use:   "volatility TICK [TICK...]",
		Short: "Plot annualized rolling volatility (or rolling variance) of returns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks := upperAll(args)
			timing, period, interval, err := a.resolve(q)
			if err != nil {
				return err
			}
			prices, err := collector.LoadPrices(cmd.Context(), a.fetcher, timing, period, interval, ticks...)
			if err != nil {
				return err
			}
			a.record(string(timing), period, interval, ticks, prices)
			label, fn := "Volatility", calculator.RollingVolatility
			if variance {
				label, fn = "Variance", calculator.RollingVar
			}
			series := make([]model.Series, len(prices))
			for i, p := range prices {
				if series[i], err = fn(p, window); err != nil {
					return fmt.Errorf("%s: %w", ticks[i], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s rolling %s (%d): %.6g\n", ticks[i], strings.ToLower(label), window, series[i].Last())
			}
			p, err := chart.NewPlot(fmt.Sprintf("%s Rolling %s (%d)", strings.Join(ticks, " vs "), label, window), series...)
			if err != nil {
				return err
			}
			return p.Show(a.outPath(out, strings.ToLower(label), ticks, ".png"))
		},
	}
	a.addQueryFlags(cmd, &q)
	cmd.Flags().StringVarP(&out, "out", "o", "", "image path (.png .svg .pdf)")
	cmd.Flags().IntVar(&window, "window", calculator.DefaultVolatilityWindow, "rolling window length")
	cmd.Flags().BoolVar(&variance, "variance", false, "plot rolling variance instead of volatility")
	return cmd
}

var transforms = map[string]func(s model.Series, window int) (model.Series, error){
	"log":   func(s model.Series, _ int) (model.Series, error) { return calculator.Log(s), nil },
	"diff":  func(s model.Series, _ int) (model.Series, error) { return calculator.ValueDiff(s), nil },
	"signs": func(s model.Series, _ int) (model.Series, error) { return calculator.ValueSignsDiff(s), nil },
	"walk":  func(s model.Series, _ int) (model.Series, error) { return calculator.Walk(s), nil },
	"avg":   calculator.RollingAvg,
	"normalize": func(s model.Series, _ int) (model.Series, error) {
		return calculator.Normalize(s)
	},
	"spread": nil, // handled separately, needs two series
}

func transformCmd(a *app) *cobra.Command {
	var (
		q      query
		out    string
		op     string
		window int
	)
	cmd := &cobra.Command{
		Use:   "transform TICK [TICK...]",
		Short: "Plot a derived series: log, diff, signs, walk, avg, normalize or spread",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks := upperAll(args)
			if _, ok := transforms[op]; !ok {
				return fmt.Errorf("unknown transform %q", op)
			}
			timing, period, interval, err := a.resolve(q)
			if err != nil {
				return err
			}
			prices, err := collector.LoadPrices(cmd.Context(), a.fetcher, timing, period, interval, ticks...)
			if err != nil {
				return err
			}
			a.record(string(timing), period, interval, ticks, prices)
			var series []model.Series
			if op == "spread" {
				if len(prices) != 2 {
					return fmt.Errorf("spread needs exactly two tickers")
				}
				d, err := calculator.Subtract(prices[0], prices[1])
				if err != nil {
					return err
				}
				d.Name = ticks[0] + " - " + ticks[1]
				series = append(series, d)
			} else {
				for _, p := range prices {
					s, err := transforms[op](p, window)
					if err != nil {
						return fmt.Errorf("%s: %w", p.Name, err)
					}
					series = append(series, s)
				}
			}
			p, err := chart.NewPlot(fmt.Sprintf("%s %s", strings.Join(ticks, " vs "), op), series...)
			if err != nil {
				return err
			}
			return p.Show(a.outPath(out, op, ticks, ".png"))
		},
	}
	a.addQueryFlags(cmd, &q)
	cmd.Flags().StringVarP(&out, "out", "o", "", "image path (.png .svg .pdf)")
	cmd.Flags().StringVar(&op, "op", "log", "transform to apply")
	cmd.Flags().IntVar(&window, "window", calculator.DefaultAvgWindow, "window for the rolling average")
	return cmd
}

func statsCmd(a *app) *cobra.Command {
	var q query
	cmd := &cobra.Command{
		Use:   "stats TICK [TICK...]",
		Short: "Print indicators, return variance and covariance/correlation matrices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks := upperAll(args)
			timing, period, interval, err := a.resolve(q)
			if err != nil {
				return err
			}
			prices, err := collector.LoadPrices(cmd.Context(), a.fetcher, timing, period, interval, ticks...)
			if err != nil {
				return err
			}
			a.record(string(timing), period, interval, ticks, prices)
			w := cmd.OutOrStdout()

			sums := make([]calculator.Summary, len(prices))
			for i, p := range prices {
				sums[i] = calculator.Summarize(p)
			}
			fmt.Fprintln(w, notifier.FormatSummary(sums))

			returns, err := alignedReturns(ticks, prices)
			if err != nil {
				return err
			}
			for i, r := range returns {
				v, err := stats.Variance(r)
				if err != nil {
					return fmt.Errorf("%s: %w", ticks[i], err)
				}
				fmt.Fprintf(w, "%s return variance: %.6g\n", ticks[i], v)
			}
			if len(returns) < 2 {
				return nil
			}

			cov, err := stats.CovMatrix(returns...)
			if err != nil {
				return err
			}
			corr, err := stats.CorrelationMatrix(returns...)
			if err != nil {
				return err
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, notifier.FormatMatrix("Covariance of returns", ticks, stats.Rows(cov, len(ticks))))
			fmt.Fprintln(w, notifier.FormatMatrix("Correlation of returns", ticks, stats.Rows(corr, len(ticks))))
			if len(returns) == 2 {
				c, err := stats.Correlation(returns[0], returns[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s/%s correlation: %.4f\n", ticks[0], ticks[1], c)
			}
			return nil
		},
	}
	a.addQueryFlags(cmd, &q)
	return cmd
}

// alignedReturns joins the price series on shared timestamps and returns
// their percent changes without the undefined first row.
func alignedReturns(ticks []string, prices []model.Series) ([][]float64, error) {
	named := make([]model.Series, len(prices))
	for i, p := range prices {
		named[i] = p.WithValues(ticks[i], p.Values)
	}
	frame, err := model.AlignSeries(named...)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(ticks))
	for i, tick := range ticks {
		col, _ := frame.Column(tick)
		r := calculator.PctChange(col).Values
		if len(r) > 0 {
			r = r[1:]
		}
		out[i] = r
	}
	return out, nil
}

func sectorsCmd(a *app) *cobra.Command {
	var (
		q    query
		out  string
		plot bool
	)
	cmd := &cobra.Command{
		Use:   "sectors",
		Short: "List the S&P sector SPDR trackers, optionally charting them scaled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ticks := make([]string, len(model.Sectors))
			for i, s := range model.Sectors {
				ticks[i] = s.Ticker
				fmt.Fprintf(cmd.OutOrStdout(), "%-5s %s\n", s.Ticker, s.Name)
			}
			if !plot {
				return nil
			}
			timing, period, interval, err := a.resolve(q)
			if err != nil {
				return err
			}
			p, err := chart.NewScaledPricePlot(cmd.Context(), a.fetcher, chart.Query{Timing: timing, Period: period, Interval: interval}, calculator.DefaultScaleStart, ticks...)
			if err != nil {
				return err
			}
			return p.Show(a.outPath(out, "sectors", []string{"spdr"}, ".png"))
		},
	}
	a.addQueryFlags(cmd, &q)
	cmd.Flags().StringVarP(&out, "out", "o", "", "image path (.png .svg .pdf)")
	cmd.Flags().BoolVar(&plot, "plot", false, "chart all sectors scaled to a common start")
	return cmd
}
