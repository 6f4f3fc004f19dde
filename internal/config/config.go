package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"PriceLab/internal/model"
	"PriceLab/internal/regime"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider      string  `yaml:"provider"` // "yahoo", "rest" or "mock"
		BaseURL       string  `yaml:"base_url"`
		APIKey        string  `yaml:"api_key"`
		RatePerSecond float64 `yaml:"rate_per_second"`
		TimeoutSec    int     `yaml:"timeout_sec"`
	} `yaml:"data_source"`
	Defaults struct {
		QuoteTiming string `yaml:"quote_timing"`
		Period      string `yaml:"period"`
		Interval    string `yaml:"interval"`
	} `yaml:"defaults"`
	HMM struct {
		States         int     `yaml:"states"`
		CovarianceType string  `yaml:"covariance_type"`
		Iterations     int     `yaml:"iterations"`
		Tolerance      float64 `yaml:"tolerance"`
		Seed           uint64  `yaml:"seed"`
	} `yaml:"hmm"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Watch struct {
		Cron    string   `yaml:"cron"`
		Symbols []string `yaml:"symbols"`
	} `yaml:"watch"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	MetricsAddr string `yaml:"metrics_addr"`
	Proxy       string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PRICELAB_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("PRICELAB_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("PRICELAB_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("PRICELAB_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("PRICELAB_HMM_STATES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HMM.States = n
		}
	}
	if v := os.Getenv("PRICELAB_WATCH_SYMBOLS"); v != "" {
		cfg.Watch.Symbols = splitList(v)
	}
	if v := os.Getenv("CRON_WATCH"); v != "" {
		cfg.Watch.Cron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.RatePerSecond == 0 {
		cfg.DataSource.RatePerSecond = 2
	}
	if cfg.DataSource.TimeoutSec == 0 {
		cfg.DataSource.TimeoutSec = 30
	}
	if cfg.Defaults.QuoteTiming == "" {
		cfg.Defaults.QuoteTiming = string(model.TimingClose)
	}
	if cfg.Defaults.Period == "" {
		cfg.Defaults.Period = string(model.PeriodDay)
	}
	if cfg.Defaults.Interval == "" {
		cfg.Defaults.Interval = string(model.IntervalMinute)
	}
	if cfg.HMM.States == 0 {
		cfg.HMM.States = 3
	}
	if cfg.HMM.CovarianceType == "" {
		cfg.HMM.CovarianceType = string(regime.CovarianceFull)
	}
	if cfg.HMM.Iterations == 0 {
		cfg.HMM.Iterations = regime.DefaultIterations
	}
	if cfg.HMM.Tolerance == 0 {
		cfg.HMM.Tolerance = regime.DefaultTolerance
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "out"
	}
	if cfg.Watch.Cron == "" {
		cfg.Watch.Cron = "0 */15 14-21 * * 1-5"
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.RatePerSecond < 0 {
		return fmt.Errorf("data_source.rate_per_second must not be negative")
	}
	if _, err := model.ParseQuoteTiming(c.Defaults.QuoteTiming); err != nil {
		return fmt.Errorf("defaults.quote_timing: %w", err)
	}
	if _, err := model.ParsePeriod(c.Defaults.Period); err != nil {
		return fmt.Errorf("defaults.period: %w", err)
	}
	if _, err := model.ParseInterval(c.Defaults.Interval); err != nil {
		return fmt.Errorf("defaults.interval: %w", err)
	}
	if c.HMM.States < 1 {
		return fmt.Errorf("hmm.states: %w", regime.ErrNoStates)
	}
	if ct := regime.CovarianceType(c.HMM.CovarianceType); ct != regime.CovarianceFull && ct != regime.CovarianceDiag {
		return fmt.Errorf("hmm.covariance_type must be full or diag, got %q", c.HMM.CovarianceType)
	}
	return nil
}

// ValidateWatch checks the fields only the watch command needs.
func (c *Config) ValidateWatch() error {
	if len(c.Watch.Symbols) == 0 {
		return fmt.Errorf("watch.symbols is required")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
