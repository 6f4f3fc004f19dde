package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"PriceLab/internal/collector"
	"PriceLab/internal/config"
	"PriceLab/internal/metrics"
	"PriceLab/internal/model"
	"PriceLab/internal/recorder"
)

const defaultConfigPath = "configs/pricelab.yaml"

// app carries what every command needs once the root pre-run has finished.
type app struct {
	configPath string
	logLevel   string

	cfg      *config.Config
	fetcher  collector.Fetcher
	recorder recorder.Recorder
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	runID    string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "pricelab",
		Short:         "Fetch stock prices, analyse them and chart the results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.recorder != nil {
				return a.recorder.Close()
			}
			return nil
		},
	}

	cfgDefault := defaultConfigPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgDefault = v
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", cfgDefault, "config file (YAML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level (debug|info|warn|error)")

	root.AddCommand(
		pricesCmd(a), volumeCmd(a), scaledCmd(a), compareCmd(a),
		volatilityCmd(a), transformCmd(a), statsCmd(a), hmmCmd(a), exportCmd(a),
		sectorsCmd(a), watchCmd(a),
	)
	return root
}

func (a *app) setup() error {
	level, err := zerolog.ParseLevel(a.logLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	a.cfg = cfg

	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.New(a.registry)
	a.fetcher = newFetcher(cfg, a.metrics)
	log.Debug().Str("provider", a.fetcher.Name()).Msg("data source ready")

	a.runID = uuid.NewString()
	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.recorder = sr
		}
	}
	return nil
}

func newFetcher(cfg *config.Config, m *metrics.Metrics) collector.Fetcher {
	ds := cfg.DataSource
	switch ds.Provider {
	case "rest":
		return collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.RatePerSecond, m)
	case "mock":
		return &collector.MockFetcher{}
	default:
		return collector.NewYahooFetcher(collector.YahooOptions{
			BaseURL:       ds.BaseURL,
			Proxy:         cfg.Proxy,
			Timeout:       time.Duration(ds.TimeoutSec) * time.Second,
			RatePerSecond: ds.RatePerSecond,
			Metrics:       m,
		})
	}
}

// query holds the price selection flags shared by most commands.
type query struct {
	timing   string
	period   string
	interval string
}

func (a *app) addQueryFlags(cmd *cobra.Command, q *query) {
	cmd.Flags().StringVar(&q.timing, "timing", "", "bar field: Open, Close, High or Low (default from config)")
	cmd.Flags().StringVar(&q.period, "period", "", "lookback period, e.g. 1d 5d 1mo 1y max (default from config)")
	cmd.Flags().StringVar(&q.interval, "interval", "", "bar interval, e.g. 1m 5m 1h 1d 1wk (default from config)")
}

func (a *app) resolve(q query) (model.QuoteTiming, model.Period, model.Interval, error) {
	d := a.cfg.Defaults
	timing, err := model.ParseQuoteTiming(firstNonEmpty(q.timing, d.QuoteTiming))
	if err != nil {
		return "", "", "", err
	}
	period, err := model.ParsePeriod(firstNonEmpty(q.period, d.Period))
	if err != nil {
		return "", "", "", err
	}
	interval, err := model.ParseInterval(firstNonEmpty(q.interval, d.Interval))
	if err != nil {
		return "", "", "", err
	}
	return timing, period, interval, nil
}

// outPath picks the user's path or a default under the output directory.
func (a *app) outPath(flag, prefix string, ticks []string, ext string) string {
	if flag != "" {
		return flag
	}
	name := fmt.Sprintf("%s_%s%s", prefix, strings.Join(ticks, "_"), ext)
	return filepath.Join(a.cfg.Output.Dir, strings.ReplaceAll(name, "^", ""))
}

// record stores each series under the ticker at the same position.
func (a *app) record(field string, period model.Period, interval model.Interval, ticks []string, series []model.Series) {
	for i, s := range series {
		symbol := ticks[i]
		if err := a.recorder.RecordSeries(&recorder.SeriesSnapshot{
			RunID: a.runID, Symbol: symbol, Field: field,
			Period: period, Interval: interval, Series: s,
		}); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("record series")
		}
	}
}

func upperAll(ticks []string) []string {
	out := make([]string, len(ticks))
	for i, t := range ticks {
		out[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
