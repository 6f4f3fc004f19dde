package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"PriceLab/internal/chart"
	"PriceLab/internal/collector"
	"PriceLab/internal/export"
	"PriceLab/internal/model"
	"PriceLab/internal/notifier"
	"PriceLab/internal/recorder"
	"PriceLab/internal/regime"
)

func (a *app) regimeOptions(q query) (regime.Options, error) {
	timing, period, interval, err := a.resolve(q)
	if err != nil {
		return regime.Options{}, err
	}
	h := a.cfg.HMM
	return regime.Options{
		States:         h.States,
		CovarianceType: regime.CovarianceType(h.CovarianceType),
		Iterations:     h.Iterations,
		Tolerance:      h.Tolerance,
		Seed:           h.Seed,
		Timing:         timing,
		Period:         period,
		Interval:       interval,
		Metrics:        a.metrics,
	}, nil
}

func hmmCmd(a *app) *cobra.Command {
	var (
		q          query
		out        string
		exportPath string
		states     int
		covType    string
		iterations int
		proba      bool
	)
	cmd := &cobra.Command{
		Use:   "hmm TICK [DEPENDENT...]",
		Short: "Classify price regimes with a Gaussian hidden Markov model and chart them",
		Long: `Fits a Gaussian HMM on the percent-change returns of the given tickers
(the first one is the primary) and colors the primary's price by the decoded
hidden state.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks := upperAll(args)
			opts, err := a.regimeOptions(q)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("states") {
				opts.States = states
			}
			if covType != "" {
				opts.CovarianceType = regime.CovarianceType(covType)
			}
			if iterations > 0 {
				opts.Iterations = iterations
			}

			m, err := regime.NewModel(cmd.Context(), a.fetcher, opts, ticks...)
			if err != nil {
				return err
			}
			if err := m.Fit(); err != nil {
				return err
			}
			path, _ := m.States()
			if err := a.recorder.RecordRegimeRun(&recorder.RegimeRun{
				RunID: a.runID, Ticks: ticks, States: m.HMM.States,
				CovarianceType: string(m.HMM.CovarianceType), Iterations: m.HMM.Iter,
				Converged: m.HMM.Converged, LogLikelihood: m.HMM.LogLikelihood,
				Index: m.Frame.Index, Path: path,
			}); err != nil {
				return fmt.Errorf("record regime run: %w", err)
			}

			report, err := notifier.FormatRegime(m)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report)
			if proba {
				post, err := m.InferStates()
				if err != nil {
					return err
				}
				last := post[len(post)-1]
				parts := make([]string, len(last))
				for k, p := range last {
					parts[k] = fmt.Sprintf("%d=%.3f", k, p)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "posterior of latest row: %s\n", strings.Join(parts, " "))
			}

			if exportPath != "" {
				if err := writeFrame(exportPath, "Regimes", m.Frame); err != nil {
					return err
				}
			}
			p, err := chart.NewRegimePlot(m)
			if err != nil {
				return err
			}
			return p.Show(a.outPath(out, "regime", ticks, ".png"))
		},
	}
	a.addQueryFlags(cmd, &q)
	cmd.Flags().StringVarP(&out, "out", "o", "", "image path (.png .svg .pdf)")
	cmd.Flags().StringVar(&exportPath, "export", "", "also write the model frame (.xlsx or .csv)")
	cmd.Flags().IntVar(&states, "states", 0, "hidden states (default from config)")
	cmd.Flags().StringVar(&covType, "covariance", "", "covariance type: full or diag (default from config)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "maximum EM iterations (default from config)")
	cmd.Flags().BoolVar(&proba, "proba", false, "print posterior state probabilities of the latest row")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var (
		q      query
		out    string
		volume bool
	)
	cmd := &cobra.Command{
		Use:   "export TICK [TICK...]",
		Short: "Write aligned price (and volume) series to .xlsx or .csv",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks := upperAll(args)
			timing, period, interval, err := a.resolve(q)
			if err != nil {
				return err
			}
			var series []model.Series
			for _, tick := range ticks {
				bars, err := a.bars(cmd, tick, period, interval)
				if err != nil {
					return err
				}
				series = append(series, model.SeriesFromBars(regime.PriceColumn(tick, timing), bars,
					func(b model.OHLCV) float64 { return b.Field(timing) }))
				if volume {
					series = append(series, model.SeriesFromBars(tick+" Volume", bars,
						func(b model.OHLCV) float64 { return b.Volume }))
				}
			}
			frame, err := model.AlignSeries(series...)
			if err != nil {
				return err
			}
			return writeFrame(a.outPath(out, "export", ticks, ".xlsx"), "Prices", frame)
		},
	}
	a.addQueryFlags(cmd, &q)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (.xlsx or .csv)")
	cmd.Flags().BoolVar(&volume, "volume", false, "include volume columns")
	return cmd
}

func (a *app) bars(cmd *cobra.Command, tick string, period model.Period, interval model.Interval) ([]model.OHLCV, error) {
	p, err := collector.NewStock(tick, a.fetcher)
	if err != nil {
		return nil, err
	}
	return p.Bars(cmd.Context(), period, interval)
}

func writeFrame(path, sheet string, frame *model.Frame) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return export.WriteCSV(path, frame)
	case ".xlsx":
		return export.WriteXLSX(path, sheet, frame)
	default:
		return fmt.Errorf("unsupported export format %q (want .xlsx or .csv)", filepath.Ext(path))
	}
}
